// Package memory holds an in-memory store used for tests and local
// development runs that should not touch a database file.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finpal/internal/core"
	"finpal/internal/snapshot"
)

type Store struct {
	mu          sync.Mutex
	users       map[string]core.UserProfile
	hashes      map[string]string // keyed by user id
	companions  map[string]core.Companion // keyed by user id
	txs         map[string][]core.Transaction
	budgets     map[string][]core.Budget
	challenges  []core.Challenge
	completions map[string]map[string]completion // user id -> challenge id
}

type completion struct {
	challengeType core.ChallengeType
	completedAt   time.Time
}

func New() *Store {
	return &Store{
		users:       map[string]core.UserProfile{},
		hashes:      map[string]string{},
		companions:  map[string]core.Companion{},
		txs:         map[string][]core.Transaction{},
		budgets:     map[string][]core.Budget{},
		completions: map[string]map[string]completion{},
	}
}

func (s *Store) Close() error { return nil }

// SeedChallenges replaces the catalog; meant for test setup.
func (s *Store) SeedChallenges(challenges []core.Challenge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges = append([]core.Challenge(nil), challenges...)
}

func (s *Store) CreateUser(_ context.Context, u core.UserProfile, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return fmt.Errorf("create user: email %s already registered", u.Email)
		}
	}
	s.users[u.ID] = u
	s.hashes[u.ID] = passwordHash
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (core.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return core.UserProfile{}, fmt.Errorf("get user %s: %w", userID, core.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.UserProfile, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if u.Email == email {
			return u, s.hashes[id], nil
		}
	}
	return core.UserProfile{}, "", fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (s *Store) UpdateUserSettings(_ context.Context, userID string, upd core.SettingsUpdate) (core.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return core.UserProfile{}, fmt.Errorf("update settings for %s: %w", userID, core.ErrNotFound)
	}
	updated := upd.Apply(u)
	updated.UpdatedAt = time.Now()
	s.users[userID] = updated
	return updated, nil
}

func (s *Store) CreateCompanion(_ context.Context, c core.Companion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.companions[c.UserID]; exists {
		return fmt.Errorf("create companion: user %s already has one", c.UserID)
	}
	s.companions[c.UserID] = c
	return nil
}

func (s *Store) GetCompanion(_ context.Context, userID string) (core.Companion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companions[userID]
	if !ok {
		return core.Companion{}, fmt.Errorf("get companion for user %s: %w", userID, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) UpdateCompanion(_ context.Context, c core.Companion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.companions[c.UserID]
	if !ok || existing.ID != c.ID {
		return fmt.Errorf("update companion %s: %w", c.ID, core.ErrNotFound)
	}
	c.UpdatedAt = time.Now()
	s.companions[c.UserID] = c
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Prepend: newest first, matching the sqlite ordering
	s.txs[t.UserID] = append([]core.Transaction{t}, s.txs[t.UserID]...)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range s.txs {
		for _, t := range list {
			if t.ID == id {
				return t, nil
			}
		}
	}
	return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, core.ErrNotFound)
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.budgets[b.UserID] {
		if existing.Category == b.Category {
			return fmt.Errorf("create budget: category %s already budgeted", b.Category)
		}
	}
	s.budgets[b.UserID] = append(s.budgets[b.UserID], b)
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, budgetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.budgets[userID]
	for i, b := range list {
		if b.ID == budgetID {
			s.budgets[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete budget %s: %w", budgetID, core.ErrNotFound)
}

func (s *Store) GetChallenge(_ context.Context, id string) (core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.challenges {
		if c.ID == id {
			return c, nil
		}
	}
	return core.Challenge{}, fmt.Errorf("get challenge %s: %w", id, core.ErrNotFound)
}

func (s *Store) CompleteChallenge(_ context.Context, userID string, challenge core.Challenge, completedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	done, ok := s.completions[userID]
	if !ok {
		done = map[string]completion{}
		s.completions[userID] = done
	}
	if _, already := done[challenge.ID]; already {
		return false, nil
	}
	done[challenge.ID] = completion{challengeType: challenge.Type, completedAt: completedAt}
	return true, nil
}

func (s *Store) ExpireChallengeCompletions(_ context.Context, dailyBefore, weeklyBefore time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for _, done := range s.completions {
		for id, c := range done {
			cutoff := dailyBefore
			if c.challengeType == core.Weekly {
				cutoff = weeklyBefore
			}
			if c.completedAt.Before(cutoff) {
				delete(done, id)
				removed++
			}
		}
	}
	return removed, nil
}

func (s *Store) FetchUserData(_ context.Context, userID string) (snapshot.Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return snapshot.Rows{}, fmt.Errorf("fetch user data: %w", core.ErrNotFound)
	}

	rows := snapshot.Rows{
		User:         &u,
		Transactions: append([]core.Transaction(nil), s.txs[userID]...),
		Budgets:      append([]core.Budget(nil), s.budgets[userID]...),
	}
	if c, ok := s.companions[userID]; ok {
		companion := c
		rows.Companion = &companion
	}
	for _, c := range s.challenges {
		if c.IsActive {
			rows.Challenges = append(rows.Challenges, c)
		}
	}
	for id := range s.completions[userID] {
		rows.CompletedChallengeIDs = append(rows.CompletedChallengeIDs, id)
	}
	return rows, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finpal/internal/backend"
	"finpal/internal/core"
	applog "finpal/internal/log"
)

// CompanionService applies the progression rules: XP grants, level-ups and
// challenge completions.
type CompanionService struct {
	store   backend.Store
	catalog []core.Challenge
}

// NewCompanionService takes the fallback challenge catalog used when a
// completed challenge id is not present in the store.
func NewCompanionService(store backend.Store, catalog []core.Challenge) *CompanionService {
	if len(catalog) == 0 {
		catalog = core.DefaultChallengeCatalog()
	}
	return &CompanionService{store: store, catalog: catalog}
}

// GrantXP adds experience to the user's companion, carrying surplus XP
// across level boundaries. Each level-up scales the next threshold by 3/2.
func (s *CompanionService) GrantXP(ctx context.Context, userID string, xp int) (core.Companion, error) {
	if xp <= 0 {
		return core.Companion{}, fmt.Errorf("grant xp: amount must be positive, got %d", xp)
	}

	c, err := s.store.GetCompanion(ctx, userID)
	if err != nil {
		return core.Companion{}, err
	}

	c.XP += xp
	levelsGained := 0
	for c.XPToNextLevel > 0 && c.XP >= c.XPToNextLevel {
		c.XP -= c.XPToNextLevel
		c.Level++
		levelsGained++
		c.XPToNextLevel = c.XPToNextLevel * 3 / 2
	}

	if err := s.store.UpdateCompanion(ctx, c); err != nil {
		return core.Companion{}, err
	}

	if levelsGained > 0 {
		slog.InfoContext(ctx, "Companion leveled up",
			applog.FieldComponent, applog.ComponentCompanion,
			applog.FieldUserID, userID, applog.FieldLevel, c.Level, applog.FieldXP, c.XP)
	}
	return c, nil
}

// CompleteChallenge records the completion and, when it is new, grants the
// reward XP and a small happiness boost. Repeat completions inside the same
// period are a no-op with newly=false.
func (s *CompanionService) CompleteChallenge(ctx context.Context, userID, challengeID string) (companion core.Companion, newly bool, err error) {
	challenge, err := s.resolveChallenge(ctx, challengeID)
	if err != nil {
		return core.Companion{}, false, err
	}

	newly, err = s.store.CompleteChallenge(ctx, userID, challenge, time.Now())
	if err != nil {
		return core.Companion{}, false, err
	}
	if !newly {
		c, err := s.store.GetCompanion(ctx, userID)
		if err != nil {
			return core.Companion{}, false, err
		}
		return c, false, nil
	}

	c, err := s.store.GetCompanion(ctx, userID)
	if err != nil {
		return core.Companion{}, false, err
	}
	c.Happiness = core.ClampStat(c.Happiness + 2)
	if err := s.store.UpdateCompanion(ctx, c); err != nil {
		return core.Companion{}, false, err
	}

	if challenge.RewardXP > 0 {
		c, err = s.GrantXP(ctx, userID, challenge.RewardXP)
		if err != nil {
			return core.Companion{}, false, err
		}
	}
	return c, true, nil
}

// resolveChallenge prefers the stored catalog, falling back to the built-in
// one so the default challenge ids work without seeded rows.
func (s *CompanionService) resolveChallenge(ctx context.Context, challengeID string) (core.Challenge, error) {
	challenge, err := s.store.GetChallenge(ctx, challengeID)
	if err == nil {
		return challenge, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Challenge{}, err
	}
	for _, c := range s.catalog {
		if c.ID == challengeID {
			return c, nil
		}
	}
	return core.Challenge{}, fmt.Errorf("resolve challenge %s: %w", challengeID, core.ErrNotFound)
}

// RecordTransactionActivity is the worker-side progression: every logged
// transaction feeds the companion, and logging an expense also completes the
// "Track one expense" daily challenge.
func (s *CompanionService) RecordTransactionActivity(ctx context.Context, userID string, txType core.TransactionType) error {
	if _, err := s.GrantXP(ctx, userID, transactionXP); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// User has no companion yet; nothing to progress
			return nil
		}
		return err
	}

	if txType == core.Expense {
		if _, _, err := s.CompleteChallenge(ctx, userID, trackExpenseChallengeID); err != nil {
			return err
		}
	}
	return nil
}

const (
	transactionXP           = 5
	trackExpenseChallengeID = "dummy-daily-2"
)

package backend

import (
	"context"
	"time"

	"finpal/internal/core"
	"finpal/internal/snapshot"
)

// Store is the unified persistence surface the services and handlers work
// against. Both the SQLite repository and the in-memory store satisfy it.
type Store interface {
	snapshot.RowSource

	CreateUser(ctx context.Context, u core.UserProfile, passwordHash string) error
	GetUser(ctx context.Context, userID string) (core.UserProfile, error)
	GetUserByEmail(ctx context.Context, email string) (core.UserProfile, string, error)
	UpdateUserSettings(ctx context.Context, userID string, upd core.SettingsUpdate) (core.UserProfile, error)

	CreateCompanion(ctx context.Context, c core.Companion) error
	GetCompanion(ctx context.Context, userID string) (core.Companion, error)
	UpdateCompanion(ctx context.Context, c core.Companion) error

	CreateTransaction(ctx context.Context, t core.Transaction) error
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)

	CreateBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, userID, budgetID string) error

	GetChallenge(ctx context.Context, id string) (core.Challenge, error)
	CompleteChallenge(ctx context.Context, userID string, challenge core.Challenge, completedAt time.Time) (bool, error)
	ExpireChallengeCompletions(ctx context.Context, dailyBefore, weeklyBefore time.Time) (int64, error)

	Close() error
}

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// Result bundles a store with its cleanup.
type Result struct {
	Store   Store
	Cleanup CleanupFunc
}

type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

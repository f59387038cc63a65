// Package snapshot derives the per-session application state from raw rows.
//
// Everything here is a pure, single-pass transform: given the same rows the
// builder produces the same snapshot, and a snapshot is always replaced
// wholesale, never mutated in place. The only failure mode is the row
// source itself.
package snapshot

import (
	"context"

	"finpal/internal/core"
)

// Rows is the raw result of one logical per-user fetch.
type Rows struct {
	User                  *core.UserProfile
	Companion             *core.Companion
	Transactions          []core.Transaction
	Budgets               []core.Budget
	Challenges            []core.Challenge
	CompletedChallengeIDs []string
}

// RowSource loads all rows for one user in a single logical call. A failed
// load surfaces as an error; the builder never produces a partial snapshot.
type RowSource interface {
	FetchUserData(ctx context.Context, userID string) (Rows, error)
}

// TransactionWithIcon is a transaction row with its display glyph attached.
type TransactionWithIcon struct {
	core.Transaction
	Icon IconID `json:"icon"`
}

// Snapshot is the derived state consumed by presentation.
type Snapshot struct {
	User             *core.UserProfile     `json:"user"`
	Companion        *core.Companion       `json:"companion"`
	Stage            *core.EvolutionStage  `json:"stage,omitempty"`
	Balance          core.Money            `json:"balance"`
	Transactions     []TransactionWithIcon `json:"transactions"`
	Budgets          []BudgetWithSpent     `json:"budgets"`
	Analytics        Analytics             `json:"analytics"`
	DailyChallenges  []ChallengeView       `json:"dailyChallenges"`
	WeeklyChallenges []ChallengeView       `json:"weeklyChallenges"`
}

// Builder composes the aggregation passes over one row set. It carries the
// fallback challenge catalog as configuration.
type Builder struct {
	fallbackCatalog []core.Challenge
}

func NewBuilder(fallbackCatalog []core.Challenge) *Builder {
	if len(fallbackCatalog) == 0 {
		fallbackCatalog = core.DefaultChallengeCatalog()
	}
	return &Builder{fallbackCatalog: fallbackCatalog}
}

// Build assembles the full snapshot from raw rows. Pure composition: the
// balance, budget, analytics and challenge passes all read the same row set
// and never feed back into each other.
func (b *Builder) Build(rows Rows) Snapshot {
	withIcons := make([]TransactionWithIcon, 0, len(rows.Transactions))
	for _, t := range rows.Transactions {
		withIcons = append(withIcons, TransactionWithIcon{Transaction: t, Icon: ResolveIcon(t.Category)})
	}

	completed := make(map[string]bool, len(rows.CompletedChallengeIDs))
	for _, id := range rows.CompletedChallengeIDs {
		completed[id] = true
	}
	daily, weekly := ResolveChallenges(rows.Challenges, completed, b.fallbackCatalog)

	snap := Snapshot{
		User:             rows.User,
		Companion:        rows.Companion,
		Balance:          ComputeBalance(rows.Transactions),
		Transactions:     withIcons,
		Budgets:          AugmentBudgets(rows.Budgets, rows.Transactions),
		Analytics:        Analyze(rows.Transactions),
		DailyChallenges:  daily,
		WeeklyChallenges: weekly,
	}
	if rows.Companion != nil {
		stage := core.EvolutionStageForLevel(rows.Companion.Level)
		snap.Stage = &stage
	}
	return snap
}

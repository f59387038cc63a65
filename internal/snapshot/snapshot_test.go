package snapshot

import (
	"reflect"
	"testing"
	"time"

	"finpal/internal/core"
)

func sampleRows() Rows {
	day := time.Date(2024, time.April, 2, 10, 0, 0, 0, time.UTC)
	user := core.UserProfile{ID: "u1", FullName: "Test User", Email: "t@example.com"}
	companion := core.Companion{ID: "p1", UserID: "u1", Name: "Penny", Level: 7, XP: 40, XPToNextLevel: 150}
	return Rows{
		User:      &user,
		Companion: &companion,
		Transactions: []core.Transaction{
			txOn(day, core.Income, 500000, "Salary"),
			txOn(day, core.Expense, 3000, "Food"),
		},
		Budgets: []core.Budget{
			{ID: "b1", UserID: "u1", Category: "Food", LimitAmount: core.Money{Cents: 50000}},
		},
		CompletedChallengeIDs: []string{"dummy-daily-1"},
	}
}

func TestBuildComposesAllPasses(t *testing.T) {
	b := NewBuilder(nil)
	snap := b.Build(sampleRows())

	if snap.Balance.Cents != 497000 {
		t.Fatalf("balance = %d, want 497000", snap.Balance.Cents)
	}
	if len(snap.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(snap.Transactions))
	}
	if snap.Transactions[0].Icon != IconBriefcase || snap.Transactions[1].Icon != IconUtensils {
		t.Fatalf("transaction icons wrong: %s, %s", snap.Transactions[0].Icon, snap.Transactions[1].Icon)
	}
	if len(snap.Budgets) != 1 || snap.Budgets[0].Spent.Cents != 3000 {
		t.Fatalf("budgets wrong: %+v", snap.Budgets)
	}
	if len(snap.Analytics.IncomeVsSpending) != 1 {
		t.Fatalf("analytics wrong: %+v", snap.Analytics)
	}
	if len(snap.DailyChallenges) != 2 || len(snap.WeeklyChallenges) != 2 {
		t.Fatalf("fallback catalog expected, got %d/%d", len(snap.DailyChallenges), len(snap.WeeklyChallenges))
	}
	if !snap.DailyChallenges[0].Completed {
		t.Fatal("dummy-daily-1 should carry the completed flag")
	}
	if snap.DailyChallenges[1].Completed {
		t.Fatal("dummy-daily-2 should be uncompleted")
	}
}

func TestBuildSetsEvolutionStage(t *testing.T) {
	b := NewBuilder(nil)
	snap := b.Build(sampleRows())

	if snap.Stage == nil {
		t.Fatal("stage must be set when a companion exists")
	}
	if snap.Stage.Rank != core.RankSilver {
		t.Fatalf("level 7 stage = %s, want Silver", snap.Stage.Rank)
	}
}

func TestBuildWithoutCompanion(t *testing.T) {
	rows := sampleRows()
	rows.Companion = nil

	snap := NewBuilder(nil).Build(rows)
	if snap.Companion != nil || snap.Stage != nil {
		t.Fatal("no companion means no stage")
	}
	if snap.Balance.Cents != 497000 {
		t.Fatal("rest of the snapshot must still be derived")
	}
}

func TestBuildDeterministic(t *testing.T) {
	b := NewBuilder(nil)
	rows := sampleRows()

	first := b.Build(rows)
	second := b.Build(rows)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same rows must produce the same snapshot")
	}
}

func TestBuildCustomCatalog(t *testing.T) {
	catalog := []core.Challenge{
		{ID: "x1", Title: "X", Type: core.Weekly, RewardXP: 5},
	}
	rows := sampleRows()
	snap := NewBuilder(catalog).Build(rows)

	if len(snap.DailyChallenges) != 0 || len(snap.WeeklyChallenges) != 1 {
		t.Fatalf("custom catalog expected, got %d/%d", len(snap.DailyChallenges), len(snap.WeeklyChallenges))
	}
	if snap.WeeklyChallenges[0].ID != "x1" {
		t.Fatalf("unexpected challenge %s", snap.WeeklyChallenges[0].ID)
	}
}

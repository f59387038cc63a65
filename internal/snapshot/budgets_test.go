package snapshot

import (
	"testing"

	"finpal/internal/core"
)

func TestAugmentBudgets(t *testing.T) {
	budgets := []core.Budget{
		{ID: "b1", Category: "Food", LimitAmount: core.Money{Cents: 50000}},
		{ID: "b2", Category: "Transport", LimitAmount: core.Money{Cents: 20000}},
	}
	transactions := []core.Transaction{
		tx(core.Expense, 2000, "Food"),
		tx(core.Expense, 1000, "Food"),
		tx(core.Income, 99900, "Food"),   // income in the category never counts
		tx(core.Expense, 700, "Shopping"), // other category never counts
	}

	got := AugmentBudgets(budgets, transactions)
	if len(got) != 2 {
		t.Fatalf("expected 2 budgets, got %d", len(got))
	}
	if got[0].Spent.Cents != 3000 {
		t.Fatalf("Food spent = %d, want 3000", got[0].Spent.Cents)
	}
	if got[0].Icon != IconUtensils {
		t.Fatalf("Food icon = %s, want %s", got[0].Icon, IconUtensils)
	}
	if got[1].Spent.Cents != 0 {
		t.Fatalf("Transport spent = %d, want 0", got[1].Spent.Cents)
	}
}

func TestAugmentBudgetsPreservesOrder(t *testing.T) {
	budgets := []core.Budget{
		{ID: "b1", Category: "Shopping"},
		{ID: "b2", Category: "Food"},
		{ID: "b3", Category: "Coffee"},
	}
	got := AugmentBudgets(budgets, nil)
	for i, b := range budgets {
		if got[i].ID != b.ID {
			t.Fatalf("position %d: got %s, want %s", i, got[i].ID, b.ID)
		}
	}
}

func TestAugmentBudgetsEmpty(t *testing.T) {
	got := AugmentBudgets(nil, []core.Transaction{tx(core.Expense, 100, "Food")})
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
	if got == nil {
		t.Fatal("result must be an empty slice, not nil")
	}
}

func TestResolveIcon(t *testing.T) {
	cases := []struct {
		category string
		want     IconID
	}{
		{"Food", IconUtensils},
		{"Groceries", IconShoppingCart},
		{"Salary", IconBriefcase},
		{"Withdrawal", IconLandmark},
		{"Deposit", IconLandmark},
		{"Transfer", IconArrows},
		{"food", IconDefault}, // lookup is case-sensitive
		{"Unknown", IconDefault},
		{"", IconDefault},
	}
	for _, tc := range cases {
		if got := ResolveIcon(tc.category); got != tc.want {
			t.Fatalf("ResolveIcon(%q) = %s, want %s", tc.category, got, tc.want)
		}
	}
}

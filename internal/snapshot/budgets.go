package snapshot

import "finpal/internal/core"

// BudgetWithSpent is a budget row augmented with its derived spent amount
// and display glyph.
type BudgetWithSpent struct {
	core.Budget
	Spent core.Money `json:"spent"`
	Icon  IconID     `json:"icon"`
}

// AugmentBudgets attaches to each budget the sum of expense transactions in
// its category. Income rows and other categories never count. The output
// keeps the input budget order; a budget with no matching expenses gets
// spent = 0.
func AugmentBudgets(budgets []core.Budget, transactions []core.Transaction) []BudgetWithSpent {
	out := make([]BudgetWithSpent, 0, len(budgets))
	for _, b := range budgets {
		var spent core.Money
		for _, t := range transactions {
			if t.Type == core.Expense && t.Category == b.Category {
				spent = spent.Add(t.Amount)
			}
		}
		out = append(out, BudgetWithSpent{
			Budget: b,
			Spent:  spent,
			Icon:   ResolveIcon(b.Category),
		})
	}
	return out
}

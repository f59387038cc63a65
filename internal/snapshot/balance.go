package snapshot

import "finpal/internal/core"

// ComputeBalance folds all transactions into a signed total: income adds,
// expense subtracts, any other type is ignored rather than treated as an
// error. Addition commutes, so input order does not matter.
func ComputeBalance(transactions []core.Transaction) core.Money {
	var balance core.Money
	for _, t := range transactions {
		switch t.Type {
		case core.Income:
			balance = balance.Add(t.Amount)
		case core.Expense:
			balance = balance.Sub(t.Amount)
		}
	}
	return balance
}

package snapshot

import (
	"sort"

	"finpal/internal/core"
)

// MonthlyFlow is one month's income versus spending. Month is the display
// label; ordering is decided by the underlying year-month key, never by the
// label, so two Januaries in different years cannot collide.
type MonthlyFlow struct {
	Month    string     `json:"month"`
	Income   core.Money `json:"income"`
	Spending core.Money `json:"spending"`
}

// DailySpend is one calendar day's total expenses. Days without expenses are
// omitted, the series is sparse.
type DailySpend struct {
	Date     string     `json:"date"`
	Spending core.Money `json:"spending"`
}

// CategorySpend is the total spent in one category.
type CategorySpend struct {
	Category string     `json:"category"`
	Spent    core.Money `json:"spent"`
}

// Analytics bundles the three derived series shown on the analytics screen.
type Analytics struct {
	IncomeVsSpending     []MonthlyFlow   `json:"incomeVsSpending"`
	ExpenseTrends        []DailySpend    `json:"expenseTrends"`
	CategoryDistribution []CategorySpend `json:"categoryDistribution"`
}

const (
	monthKeyLayout   = "2006-01"
	monthLabelLayout = "Jan 2006"
	dayLayout        = "2006-01-02"
)

// Analyze buckets transactions by month, day and category of their
// transaction date. Rows with a zero transaction date were rejected at the
// parse boundary and are skipped here so they cannot corrupt a group key.
func Analyze(transactions []core.Transaction) Analytics {
	type monthBucket struct {
		label    string
		income   core.Money
		spending core.Money
	}

	months := make(map[string]*monthBucket)
	days := make(map[string]core.Money)
	categories := make(map[string]core.Money)
	var categoryOrder []string

	for _, t := range transactions {
		if t.TransactionDate.IsZero() {
			continue
		}

		key := t.TransactionDate.Format(monthKeyLayout)
		mb, ok := months[key]
		if !ok {
			mb = &monthBucket{label: t.TransactionDate.Format(monthLabelLayout)}
			months[key] = mb
		}
		switch t.Type {
		case core.Income:
			mb.income = mb.income.Add(t.Amount)
		case core.Expense:
			mb.spending = mb.spending.Add(t.Amount)
		}

		if t.Type != core.Expense {
			continue
		}

		day := t.TransactionDate.Format(dayLayout)
		days[day] = days[day].Add(t.Amount)

		if _, seen := categories[t.Category]; !seen {
			categoryOrder = append(categoryOrder, t.Category)
		}
		categories[t.Category] = categories[t.Category].Add(t.Amount)
	}

	monthKeys := make([]string, 0, len(months))
	for k := range months {
		monthKeys = append(monthKeys, k)
	}
	// "2006-01" keys sort lexicographically in chronological order
	sort.Strings(monthKeys)
	flows := make([]MonthlyFlow, 0, len(monthKeys))
	for _, k := range monthKeys {
		mb := months[k]
		flows = append(flows, MonthlyFlow{Month: mb.label, Income: mb.income, Spending: mb.spending})
	}

	dayKeys := make([]string, 0, len(days))
	for k := range days {
		dayKeys = append(dayKeys, k)
	}
	sort.Strings(dayKeys)
	trends := make([]DailySpend, 0, len(dayKeys))
	for _, k := range dayKeys {
		trends = append(trends, DailySpend{Date: k, Spending: days[k]})
	}

	distribution := make([]CategorySpend, 0, len(categoryOrder))
	for _, cat := range categoryOrder {
		distribution = append(distribution, CategorySpend{Category: cat, Spent: categories[cat]})
	}

	return Analytics{
		IncomeVsSpending:     flows,
		ExpenseTrends:        trends,
		CategoryDistribution: distribution,
	}
}

package core

import "errors"

// ErrNotFound is returned by stores when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SettingsUpdate is a partial update of the user's profile settings. Nil
// fields are left unchanged; disabling auto-deposit clears its amount and
// day.
type SettingsUpdate struct {
	MonthlyIncome      *Money `json:"monthly_income,omitempty"`
	MonthlySavingsGoal *Money `json:"monthly_savings_goal,omitempty"`
	AutoDeposit        *bool  `json:"auto_deposit,omitempty"`
	AutoDepositAmount  *Money `json:"auto_deposit_amount,omitempty"`
	AutoDepositDay     *int   `json:"auto_deposit_day,omitempty"`
}

func (s SettingsUpdate) Validate() error {
	if s.MonthlyIncome != nil {
		if err := s.MonthlyIncome.Validate(); err != nil {
			return err
		}
	}
	if s.MonthlySavingsGoal != nil {
		if err := s.MonthlySavingsGoal.Validate(); err != nil {
			return err
		}
	}
	if s.AutoDeposit != nil && *s.AutoDeposit {
		if s.AutoDepositAmount == nil {
			return ErrInvalidAmount
		}
		if err := s.AutoDepositAmount.Validate(); err != nil {
			return err
		}
		if s.AutoDepositDay == nil || *s.AutoDepositDay < 1 || *s.AutoDepositDay > 31 {
			return ErrInvalidDay
		}
	}
	return nil
}

// Apply merges the update into a profile, mirroring the row update the
// store performs.
func (s SettingsUpdate) Apply(u UserProfile) UserProfile {
	if s.MonthlyIncome != nil {
		u.MonthlyIncome = s.MonthlyIncome
	}
	if s.MonthlySavingsGoal != nil {
		u.MonthlySavingsGoal = s.MonthlySavingsGoal
	}
	if s.AutoDeposit != nil {
		u.AutoDepositEnabled = *s.AutoDeposit
		if *s.AutoDeposit {
			u.AutoDepositAmount = s.AutoDepositAmount
			u.AutoDepositDay = s.AutoDepositDay
		} else {
			u.AutoDepositAmount = nil
			u.AutoDepositDay = nil
		}
	}
	return u
}

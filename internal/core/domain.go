package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Daily  ChallengeType = "daily"
	Weekly ChallengeType = "weekly"
)

type (
	TransactionType string

	ChallengeType string

	// Transaction is a single income or expense row belonging to one user.
	// TransactionDate is when the money moved; CreatedAt is when the row
	// was recorded.
	Transaction struct {
		ID              string          `json:"id"`
		UserID          string          `json:"user_id"`
		Description     string          `json:"description"`
		Amount          Money           `json:"amount"`
		Type            TransactionType `json:"type"`
		Category        string          `json:"category"`
		TransactionDate time.Time       `json:"transaction_date"`
		CreatedAt       time.Time       `json:"created_at"`
	}

	// Budget is a per-category spending limit. The spent amount is never
	// stored; it is always derived from expense transactions.
	Budget struct {
		ID          string    `json:"id"`
		UserID      string    `json:"user_id"`
		Category    string    `json:"category"`
		LimitAmount Money     `json:"limit_amount"`
		CreatedAt   time.Time `json:"created_at"`
	}

	// Challenge is an entry in the global catalog. Completion is per-user
	// and lives in a separate membership relation.
	Challenge struct {
		ID          string        `json:"id"`
		Title       string        `json:"title"`
		Description string        `json:"description"`
		RewardXP    int           `json:"reward_xp"`
		Type        ChallengeType `json:"type"`
		IsActive    bool          `json:"is_active"`
	}

	UserProfile struct {
		ID                 string    `json:"id"`
		FullName           string    `json:"full_name"`
		Email              string    `json:"email"`
		DateOfBirth        time.Time `json:"date_of_birth"`
		MonthlyIncome      *Money    `json:"monthly_income,omitempty"`
		MonthlySavingsGoal *Money    `json:"monthly_savings_goal,omitempty"`
		AutoDepositEnabled bool      `json:"auto_deposit_enabled"`
		AutoDepositAmount  *Money    `json:"auto_deposit_amount,omitempty"`
		AutoDepositDay     *int      `json:"auto_deposit_day,omitempty"`
		CreatedAt          time.Time `json:"created_at"`
		UpdatedAt          time.Time `json:"updated_at"`
	}

	// Companion is the gamified avatar, one per user. Energy, happiness and
	// wealth power are percentages clamped to 0-100 when mutated.
	Companion struct {
		ID            string    `json:"id"`
		UserID        string    `json:"user_id"`
		Name          string    `json:"name"`
		Level         int       `json:"level"`
		XP            int       `json:"xp"`
		XPToNextLevel int       `json:"xp_to_next_level"`
		Energy        int       `json:"energy"`
		Happiness     int       `json:"happiness"`
		WealthPower   int       `json:"wealth_power"`
		CreatedAt     time.Time `json:"created_at"`
		UpdatedAt     time.Time `json:"updated_at"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidDay       = errors.New("invalid day of month")
	ErrEmptyTitle       = errors.New("empty title")
	ErrInvalidRewardXP  = errors.New("negative reward xp")
	ErrInvalidChallenge = errors.New("invalid challenge type")
	ErrEmptyEmail       = errors.New("empty email")
	ErrEmptyName        = errors.New("empty name")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (c ChallengeType) Valid() bool {
	return c == Daily || c == Weekly
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.LimitAmount.Validate(); err != nil {
		return err
	}
	return nil
}

func (c Challenge) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("empty challenge id")
	}
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	if c.RewardXP < 0 {
		return ErrInvalidRewardXP
	}
	if !c.Type.Valid() {
		return ErrInvalidChallenge
	}
	return nil
}

// ValidateSettings checks the mutable profile settings. The auto-deposit
// amount and day are only required while auto-deposit is enabled.
func (u UserProfile) ValidateSettings() error {
	if u.MonthlyIncome != nil {
		if err := u.MonthlyIncome.Validate(); err != nil {
			return err
		}
	}
	if u.MonthlySavingsGoal != nil {
		if err := u.MonthlySavingsGoal.Validate(); err != nil {
			return err
		}
	}
	if u.AutoDepositEnabled {
		if u.AutoDepositAmount == nil {
			return ErrInvalidAmount
		}
		if err := u.AutoDepositAmount.Validate(); err != nil {
			return err
		}
		if u.AutoDepositDay == nil || *u.AutoDepositDay < 1 || *u.AutoDepositDay > 31 {
			return ErrInvalidDay
		}
	}
	return nil
}

// ClampStat bounds a companion percentage stat to 0-100.
func ClampStat(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

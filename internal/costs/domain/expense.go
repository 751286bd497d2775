package costs

import (
	"context"
	"time"

	"hostledger/internal/money"
)

// Frequency is how often an expense is billed.
type Frequency string

const (
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

// Expense is a recurring fixed cost of a property (insurance, internet, taxes).
type Expense struct {
	ID          string
	PropertyID  string
	Name        string
	AmountCents int64
	Frequency   Frequency
	Category    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks expense invariants.
func (e Expense) Validate() error {
	if e.PropertyID == "" {
		return ErrEmptyPropertyID
	}
	if e.AmountCents < 0 {
		return ErrNegativeAmount
	}
	switch e.Frequency {
	case FrequencyMonthly, FrequencyYearly:
	default:
		return ErrInvalidFrequency
	}
	return nil
}

// MonthlyEquivalentCents normalizes the expense to one month.
// Yearly amounts are divided by 12 and rounded to the nearest cent.
func (e Expense) MonthlyEquivalentCents() int64 {
	if e.Frequency == FrequencyYearly {
		return money.RoundDiv(e.AmountCents, 12)
	}
	return e.AmountCents
}

// ExpenseRepository provides expense persistence.
type ExpenseRepository interface {
	ListActive(ctx context.Context, propertyID string) ([]Expense, error)
	Save(ctx context.Context, expense *Expense) error
}

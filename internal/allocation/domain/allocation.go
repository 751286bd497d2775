package allocation

import (
	"context"
	"time"

	"hostledger/internal/money"
)

// CostAllocation is the stored cost breakdown and profit of one booking.
// There is at most one per booking; recomputation overwrites it.
type CostAllocation struct {
	ID                   string
	PropertyID           string
	BookingID            string
	CheckoutAt           time.Time
	ElectricityWh        int64
	ElectricityCostCents int64
	CleaningCostCents    int64
	FixedCostCents       int64
	TotalCostCents       int64
	ProfitCents          int64
	MarginPercent        float64
	AllocatedAt          time.Time
}

// Inputs are the figures a breakdown is computed from.
type Inputs struct {
	PayoutCents        int64
	PlatformFeeCents   int64
	Nights             int
	EnergyWh           int64
	PricePer100WhCents int64
	CleaningCostCents  int64
	FixedPerNightCents int64
}

// Breakdown is the computed cost and profit of a booking.
type Breakdown struct {
	ElectricityCostCents int64
	CleaningCostCents    int64
	FixedCostCents       int64
	TotalCostCents       int64
	ProfitCents          int64
	MarginPercent        float64
}

// EnergyCostCents prices energy at a rate per 100 Wh, rounded to the nearest cent.
func EnergyCostCents(energyWh, pricePer100WhCents int64) int64 {
	return money.MulDivRound(energyWh, pricePer100WhCents, 100)
}

// MarginPercent is profit over payout as a percentage with one decimal.
// A zero payout yields zero.
func MarginPercent(profitCents, payoutCents int64) float64 {
	if payoutCents <= 0 {
		return 0
	}
	return float64(money.MulDivRound(profitCents, 1000, payoutCents)) / 10
}

// Compute derives the breakdown. Fixed costs are billed for every night of
// the stay at the per-night rate of the checkout month.
func Compute(in Inputs) Breakdown {
	b := Breakdown{
		ElectricityCostCents: EnergyCostCents(in.EnergyWh, in.PricePer100WhCents),
		CleaningCostCents:    in.CleaningCostCents,
		FixedCostCents:       in.FixedPerNightCents * int64(in.Nights),
	}
	b.TotalCostCents = b.ElectricityCostCents + b.CleaningCostCents + b.FixedCostCents
	b.ProfitCents = in.PayoutCents - in.PlatformFeeCents - b.TotalCostCents
	b.MarginPercent = MarginPercent(b.ProfitCents, in.PayoutCents)
	return b
}

// Apply copies a breakdown onto the allocation.
func (a *CostAllocation) Apply(b Breakdown) {
	a.ElectricityCostCents = b.ElectricityCostCents
	a.CleaningCostCents = b.CleaningCostCents
	a.FixedCostCents = b.FixedCostCents
	a.TotalCostCents = b.TotalCostCents
	a.ProfitCents = b.ProfitCents
	a.MarginPercent = b.MarginPercent
}

// Repository persists allocations keyed by booking.
// FindByBooking returns nil, nil when absent.
type Repository interface {
	Upsert(ctx context.Context, allocation *CostAllocation) error
	FindByBooking(ctx context.Context, bookingID string) (*CostAllocation, error)
	ListByPropertyCheckoutMonth(ctx context.Context, propertyID string, year int, month time.Month) ([]CostAllocation, error)
}

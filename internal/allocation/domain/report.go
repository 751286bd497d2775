package allocation

import "time"

// MonthlyReport aggregates the allocations of bookings that checked out in a month.
type MonthlyReport struct {
	PropertyID           string
	Month                time.Time
	Allocations          []CostAllocation
	ElectricityWh        int64
	ElectricityCostCents int64
	CleaningCostCents    int64
	FixedCostCents       int64
	TotalCostCents       int64
	ProfitCents          int64
}

// NewMonthlyReport sums the allocations of a property-month.
func NewMonthlyReport(propertyID string, year int, month time.Month, allocations []CostAllocation) MonthlyReport {
	r := MonthlyReport{
		PropertyID:  propertyID,
		Month:       time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		Allocations: allocations,
	}
	for _, a := range allocations {
		r.ElectricityWh += a.ElectricityWh
		r.ElectricityCostCents += a.ElectricityCostCents
		r.CleaningCostCents += a.CleaningCostCents
		r.FixedCostCents += a.FixedCostCents
		r.TotalCostCents += a.TotalCostCents
		r.ProfitCents += a.ProfitCents
	}
	return r
}

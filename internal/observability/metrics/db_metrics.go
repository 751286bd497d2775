package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "allocations_pending",
			Help: "Completed bookings without a cost allocation",
		},
		func() float64 {
			return queryCount(db, logger, `SELECT COUNT(*) FROM bookings b
WHERE b.status = 'COMPLETED'
  AND NOT EXISTS (SELECT 1 FROM cost_allocations a WHERE a.booking_id = b.id)`)
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "bookings_active",
			Help: "Bookings currently in progress",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM bookings WHERE status = 'ACTIVE'")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}

package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "hostledger_"

	resultSuccess = "success"
	resultError   = "error"

	feedOutcomeImported = "imported"
	feedOutcomeUpdated  = "updated"
	feedOutcomeSkipped  = "skipped"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	feedImportTotal   *prometheus.CounterVec
	feedImportLatency *prometheus.HistogramVec
	feedEventsTotal   *prometheus.CounterVec

	allocationTotal   *prometheus.CounterVec
	allocationLatency *prometheus.HistogramVec

	batchRunsTotal     *prometheus.CounterVec
	batchRunLatency    *prometheus.HistogramVec
	batchProcessedLast prometheus.Gauge

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec

	publishTotal *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "meter_ingest_requests_total",
				Help: "Total meter reading ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "meter_ingest_errors_total",
				Help: "Total meter reading ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "meter_ingest_latency_seconds",
				Help:    "Meter reading ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		feedImportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "feed_import_total",
				Help: "Total calendar feed imports by result",
			},
			[]string{"result"},
		)
		feedImportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "feed_import_latency_seconds",
				Help:    "Calendar feed import latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		feedEventsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "feed_events_total",
				Help: "Total calendar feed events by outcome",
			},
			[]string{"outcome"},
		)

		allocationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "allocation_total",
				Help: "Total booking cost allocations by result",
			},
			[]string{"result"},
		)
		allocationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "allocation_latency_seconds",
				Help:    "Booking cost allocation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		batchRunsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "allocation_batch_runs_total",
				Help: "Total allocation batch runs by result",
			},
			[]string{"result"},
		)
		batchRunLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "allocation_batch_latency_seconds",
				Help:    "Allocation batch run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		batchProcessedLast = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "allocation_batch_processed_last",
				Help: "Bookings allocated by the most recent batch run",
			},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total profit report exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Profit report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		publishTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "event_publish_total",
				Help: "Total domain events published by sink and result",
			},
			[]string{"sink", "result"},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestErrors,
			ingestLatency,
			feedImportTotal,
			feedImportLatency,
			feedEventsTotal,
			allocationTotal,
			allocationLatency,
			batchRunsTotal,
			batchRunLatency,
			batchProcessedLast,
			reportExportTotal,
			reportExportLatency,
			publishTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIngestError increments ingest error counter.
func IncIngestError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestErrors != nil {
		ingestErrors.WithLabelValues(reason).Inc()
	}
}

// ObserveFeedImport records feed import latency and per-event outcomes.
func ObserveFeedImport(result string, duration time.Duration, imported, updated, skipped int) {
	if result == "" {
		result = resultSuccess
	}
	if feedImportTotal != nil {
		feedImportTotal.WithLabelValues(result).Inc()
	}
	if feedImportLatency != nil {
		feedImportLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if feedEventsTotal != nil {
		addPositive(feedEventsTotal.WithLabelValues(feedOutcomeImported), imported)
		addPositive(feedEventsTotal.WithLabelValues(feedOutcomeUpdated), updated)
		addPositive(feedEventsTotal.WithLabelValues(feedOutcomeSkipped), skipped)
	}
}

// ObserveAllocation records a single booking allocation.
func ObserveAllocation(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if allocationTotal != nil {
		allocationTotal.WithLabelValues(result).Inc()
	}
	if allocationLatency != nil {
		allocationLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveBatchRun records a batch run and how many bookings it allocated.
func ObserveBatchRun(result string, duration time.Duration, processed int) {
	if result == "" {
		result = resultSuccess
	}
	if batchRunsTotal != nil {
		batchRunsTotal.WithLabelValues(result).Inc()
	}
	if batchRunLatency != nil {
		batchRunLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
	if batchProcessedLast != nil {
		batchProcessedLast.Set(float64(processed))
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncEventPublish increments the publish counter for a sink.
func IncEventPublish(sink, result string) {
	if sink == "" {
		sink = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if publishTotal != nil {
		publishTotal.WithLabelValues(sink, result).Inc()
	}
}

func addPositive(counter prometheus.Counter, n int) {
	if n > 0 {
		counter.Add(float64(n))
	}
}

// Exported constants for callers.
const (
	IngestResultSuccess = resultSuccess
	IngestResultError   = resultError

	ResultSuccess = resultSuccess
	ResultError   = resultError
)

package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	metering "hostledger/internal/metering/domain"
	"hostledger/internal/observability/metrics"
)

// ReadingWriter persists meter readings.
type ReadingWriter interface {
	Insert(ctx context.Context, readings ...metering.Reading) error
}

// Handler accepts meter readings pushed by smart-meter gateways.
type Handler struct {
	repo   ReadingWriter
	logger *log.Logger
}

// NewHandler constructs an ingest handler.
func NewHandler(repo ReadingWriter, logger *log.Logger) (*Handler, error) {
	if repo == nil {
		return nil, errors.New("meter ingest: nil repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{repo: repo, logger: logger}, nil
}

// ServeHTTP ingests meter readings.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.fail(w, start, "read_body", http.StatusBadRequest, "read body error", err)
		return
	}
	defer r.Body.Close()

	var req ingestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.fail(w, start, "decode", http.StatusBadRequest, "invalid json", err)
		return
	}

	readings, err := req.toReadings()
	if err != nil {
		h.fail(w, start, "invalid_payload", http.StatusBadRequest, "invalid payload", err)
		return
	}

	if err := h.repo.Insert(r.Context(), readings...); err != nil {
		h.fail(w, start, "insert", http.StatusInternalServerError, "insert error", err)
		return
	}
	metrics.ObserveIngest(metrics.IngestResultSuccess, time.Since(start))

	resp := map[string]any{"inserted": len(readings)}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) fail(w http.ResponseWriter, start time.Time, reason string, status int, msg string, err error) {
	h.logger.Printf("meter ingest: %s: %v", reason, err)
	metrics.IncIngestError(reason)
	metrics.ObserveIngest(metrics.IngestResultError, time.Since(start))
	http.Error(w, msg, status)
}

type ingestRequest struct {
	PropertyID string        `json:"propertyId"`
	TS         int64         `json:"ts"`
	ValueWh    *int64        `json:"valueWh"`
	Points     []ingestPoint `json:"points"`
}

type ingestPoint struct {
	TS      int64  `json:"ts"`
	ValueWh *int64 `json:"valueWh"`
}

func (r ingestRequest) toReadings() ([]metering.Reading, error) {
	if r.PropertyID == "" {
		return nil, errors.New("missing propertyId")
	}

	points := r.Points
	if len(points) == 0 && r.TS != 0 {
		points = []ingestPoint{{TS: r.TS, ValueWh: r.ValueWh}}
	}
	if len(points) == 0 {
		return nil, errors.New("no meter points")
	}

	readings := make([]metering.Reading, 0, len(points))
	for _, point := range points {
		ts, err := parseTimestamp(point.TS)
		if err != nil {
			return nil, err
		}
		if point.ValueWh == nil {
			return nil, errors.New("missing valueWh")
		}
		reading := metering.Reading{
			PropertyID: r.PropertyID,
			RecordedAt: ts,
			ValueWh:    *point.ValueWh,
		}
		if err := reading.Validate(); err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	return readings, nil
}

func parseTimestamp(value int64) (time.Time, error) {
	if value <= 0 {
		return time.Time{}, errors.New("invalid ts")
	}
	// Accept milliseconds or seconds.
	if value > 1_000_000_000_000 {
		return time.UnixMilli(value).UTC(), nil
	}
	return time.Unix(value, 0).UTC(), nil
}

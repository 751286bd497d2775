package interfaces

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hostledger/internal/allocation/application"
	allocation "hostledger/internal/allocation/domain"
	"hostledger/internal/audit"
	"hostledger/internal/auth"
	"hostledger/internal/observability/metrics"
)

// Handler serves allocation and report APIs.
type Handler struct {
	calculator *application.ProfitCalculator
	runner     *application.BatchRunner
	owners     auth.PropertyOwnerChecker
	audit      audit.Logger
	logger     *log.Logger
}

// NewHandler constructs a handler. owners and auditLogger may be nil.
func NewHandler(calculator *application.ProfitCalculator, runner *application.BatchRunner, owners auth.PropertyOwnerChecker, auditLogger audit.Logger, logger *log.Logger) (*Handler, error) {
	if calculator == nil {
		return nil, errors.New("allocation handler: nil calculator")
	}
	if runner == nil {
		return nil, errors.New("allocation handler: nil batch runner")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{calculator: calculator, runner: runner, owners: owners, audit: auditLogger, logger: logger}, nil
}

// Register mounts the routes under an /api/v1 router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/allocations/run", h.handleRun)
	r.Get("/allocations/{bookingID}", h.handleGet)
	r.Post("/allocations/{bookingID}/recompute", h.handleRecompute)
	r.Get("/properties/{propertyID}/reports/{file}", h.handleReport)
}

type allocationResponse struct {
	ID                   string    `json:"id"`
	PropertyID           string    `json:"propertyId"`
	BookingID            string    `json:"bookingId"`
	CheckoutAt           time.Time `json:"checkoutAt"`
	ElectricityWh        int64     `json:"electricityWh"`
	ElectricityCostCents int64     `json:"electricityCostCents"`
	CleaningCostCents    int64     `json:"cleaningCostCents"`
	FixedCostCents       int64     `json:"fixedCostCents"`
	TotalCostCents       int64     `json:"totalCostCents"`
	ProfitCents          int64     `json:"profitCents"`
	MarginPercent        float64   `json:"marginPercent"`
	AllocatedAt          time.Time `json:"allocatedAt"`
}

func toResponse(a allocation.CostAllocation) allocationResponse {
	return allocationResponse{
		ID:                   a.ID,
		PropertyID:           a.PropertyID,
		BookingID:            a.BookingID,
		CheckoutAt:           a.CheckoutAt,
		ElectricityWh:        a.ElectricityWh,
		ElectricityCostCents: a.ElectricityCostCents,
		CleaningCostCents:    a.CleaningCostCents,
		FixedCostCents:       a.FixedCostCents,
		TotalCostCents:       a.TotalCostCents,
		ProfitCents:          a.ProfitCents,
		MarginPercent:        a.MarginPercent,
		AllocatedAt:          a.AllocatedAt,
	}
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	result := h.runner.RunAllocationBatch(r.Context())
	writeJSON(w, http.StatusOK, result)
	h.logAudit(r, "", "", "allocation.batch_run", map[string]any{
		"processed": result.ProcessedCount,
		"errors":    len(result.Errors),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")
	a, err := h.calculator.Get(r.Context(), bookingID)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.ensureOwner(r, a.PropertyID); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(*a))
}

func (h *Handler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")
	propertyID, err := h.calculator.BookingProperty(r.Context(), bookingID)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.ensureOwner(r, propertyID); err != nil {
		respondError(w, err)
		return
	}
	a, err := h.calculator.ProcessBookingAllocation(r.Context(), bookingID)
	if err != nil {
		h.logger.Printf("allocation handler: recompute booking=%s err=%v", bookingID, err)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(a))
	h.logAudit(r, a.PropertyID, a.BookingID, "allocation.recompute", nil)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	propertyID := chi.URLParam(r, "propertyID")
	monthKey, format, ok := splitReportFile(chi.URLParam(r, "file"))
	if !ok {
		http.Error(w, "report must be <YYYY-MM>.<pdf|xlsx|csv>", http.StatusBadRequest)
		return
	}
	month, err := time.Parse("2006-01", monthKey)
	if err != nil {
		http.Error(w, "invalid month", http.StatusBadRequest)
		return
	}

	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReportExport(format, result, time.Since(start))
	}()

	if err := h.ensureOwner(r, propertyID); err != nil {
		result = metrics.ResultError
		respondError(w, err)
		return
	}
	list, err := h.calculator.ListMonth(r.Context(), propertyID, month.Year(), month.Month())
	if err != nil {
		result = metrics.ResultError
		respondError(w, err)
		return
	}
	report := allocation.NewMonthlyReport(propertyID, month.Year(), month.Month(), list)

	var data []byte
	var contentType string
	switch format {
	case "pdf":
		data, err = BuildReportPDF(report)
		contentType = "application/pdf"
	case "xlsx":
		data, err = BuildReportXLSX(report)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "csv":
		var buf bytes.Buffer
		err = WriteReportCSV(&buf, report)
		data = buf.Bytes()
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		result = metrics.ResultError
		h.logger.Printf("allocation handler: export %s property=%s err=%v", format, propertyID, err)
		http.Error(w, "export "+format+" error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, propertyID, monthKey, "report.export", map[string]any{"format": format})
}

func splitReportFile(file string) (string, string, bool) {
	idx := strings.LastIndex(file, ".")
	if idx <= 0 || idx == len(file)-1 {
		return "", "", false
	}
	format := strings.ToLower(file[idx+1:])
	switch format {
	case "pdf", "xlsx", "csv":
		return file[:idx], format, true
	}
	return "", "", false
}

func (h *Handler) ensureOwner(r *http.Request, propertyID string) error {
	if h.owners == nil {
		return nil
	}
	return h.owners.EnsurePropertyOwner(r.Context(), auth.OwnerIDFromContext(r.Context()), propertyID)
}

func (h *Handler) logAudit(r *http.Request, propertyID, resourceID, action string, meta map[string]any) {
	if h.audit == nil {
		return
	}
	var payload []byte
	if meta != nil {
		payload, _ = json.Marshal(meta)
	}
	if err := h.audit.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "allocation",
		ResourceID:   resourceID,
		PropertyID:   propertyID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	}); err != nil {
		h.logger.Printf("allocation handler: audit action=%s err=%v", action, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, allocation.ErrBookingNotFound), errors.Is(err, allocation.ErrNotFound), errors.Is(err, auth.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, auth.ErrOwnerMismatch):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, allocation.ErrEmptyBookingID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

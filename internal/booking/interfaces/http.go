package interfaces

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hostledger/internal/audit"
	"hostledger/internal/auth"
	"hostledger/internal/booking/application"
	booking "hostledger/internal/booking/domain"
)

// Handler serves manual booking entry.
type Handler struct {
	service *application.Service
	owners  auth.PropertyOwnerChecker
	audit   audit.Logger
	logger  *log.Logger
}

// NewHandler constructs a handler. owners and auditLogger may be nil.
func NewHandler(service *application.Service, owners auth.PropertyOwnerChecker, auditLogger audit.Logger, logger *log.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("booking handler: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{service: service, owners: owners, audit: auditLogger, logger: logger}, nil
}

// Register mounts the routes under an /api/v1 router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/bookings", h.handleCreate)
	r.Get("/bookings/{bookingID}", h.handleGet)
}

type createRequest struct {
	PropertyID       string    `json:"propertyId"`
	GuestName        string    `json:"guestName"`
	StartAt          time.Time `json:"startAt"`
	EndAt            time.Time `json:"endAt"`
	PayoutCents      int64     `json:"payoutCents"`
	PlatformFeeCents int64     `json:"platformFeeCents"`
}

type bookingResponse struct {
	ID               string    `json:"id"`
	PropertyID       string    `json:"propertyId"`
	ExternalID       string    `json:"externalId,omitempty"`
	GuestName        string    `json:"guestName"`
	StartAt          time.Time `json:"startAt"`
	EndAt            time.Time `json:"endAt"`
	Nights           int       `json:"nights"`
	PayoutCents      int64     `json:"payoutCents"`
	PlatformFeeCents int64     `json:"platformFeeCents"`
	Source           string    `json:"source"`
	Status           string    `json:"status"`
}

func toResponse(b booking.Booking) bookingResponse {
	return bookingResponse{
		ID:               b.ID,
		PropertyID:       b.PropertyID,
		ExternalID:       b.ExternalID,
		GuestName:        b.GuestName,
		StartAt:          b.StartAt,
		EndAt:            b.EndAt,
		Nights:           b.Nights,
		PayoutCents:      b.PayoutCents,
		PlatformFeeCents: b.PlatformFeeCents,
		Source:           string(b.Source),
		Status:           string(b.Status),
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.ensureOwner(r, req.PropertyID); err != nil {
		respondError(w, err)
		return
	}
	b, err := h.service.CreateManual(r.Context(), application.ManualBooking{
		PropertyID:       req.PropertyID,
		GuestName:        req.GuestName,
		StartAt:          req.StartAt,
		EndAt:            req.EndAt,
		PayoutCents:      req.PayoutCents,
		PlatformFeeCents: req.PlatformFeeCents,
	})
	if err != nil {
		h.logger.Printf("booking handler: create property=%s err=%v", req.PropertyID, err)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(*b))
	if h.audit != nil {
		if err := h.audit.Log(r.Context(), audit.Entry{
			Actor:        auth.SubjectFromContext(r.Context()),
			Role:         string(auth.RoleFromContext(r.Context())),
			Action:       "booking.create",
			ResourceType: "booking",
			ResourceID:   b.ID,
			PropertyID:   b.PropertyID,
			IP:           audit.ClientIP(r),
			UserAgent:    r.UserAgent(),
		}); err != nil {
			h.logger.Printf("booking handler: audit err=%v", err)
		}
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), chi.URLParam(r, "bookingID"))
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.ensureOwner(r, b.PropertyID); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(*b))
}

func (h *Handler) ensureOwner(r *http.Request, propertyID string) error {
	if h.owners == nil {
		return nil
	}
	return h.owners.EnsurePropertyOwner(r.Context(), auth.OwnerIDFromContext(r.Context()), propertyID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, auth.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, auth.ErrOwnerMismatch):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, booking.ErrEmptyPropertyID), errors.Is(err, booking.ErrInvalidPeriod), errors.Is(err, booking.ErrNegativeAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

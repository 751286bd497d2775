package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hostledger/internal/audit"
	"hostledger/internal/auth"
	"hostledger/internal/calendarfeed/application"
	calendarfeed "hostledger/internal/calendarfeed/domain"
)

const maxFeedBody = 5 << 20

// FeedImporter is the import use case exposed over HTTP.
type FeedImporter interface {
	ImportFeed(ctx context.Context, propertyID, feedText, feedURL string) (application.ImportResult, error)
	SyncFeed(ctx context.Context, propertyID, url string) (application.ImportResult, error)
}

// Handler serves calendar feed imports.
type Handler struct {
	importer FeedImporter
	owners   auth.PropertyOwnerChecker
	audit    audit.Logger
	logger   *log.Logger
}

// NewHandler constructs a handler. owners and auditLogger may be nil.
func NewHandler(importer FeedImporter, owners auth.PropertyOwnerChecker, auditLogger audit.Logger, logger *log.Logger) (*Handler, error) {
	if importer == nil {
		return nil, errors.New("feed handler: nil importer")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{importer: importer, owners: owners, audit: auditLogger, logger: logger}, nil
}

// Register mounts the routes under an /api/v1 router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/properties/{propertyID}/feeds/import", h.handleImport)
}

type importRequest struct {
	URL  string `json:"url"`
	Feed string `json:"feed"`
}

// handleImport accepts either raw iCal text (with an optional ?url= for
// source detection) or JSON {"url": "..."} to fetch the feed remotely.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	propertyID := chi.URLParam(r, "propertyID")
	if h.owners != nil {
		if err := h.owners.EnsurePropertyOwner(r.Context(), auth.OwnerIDFromContext(r.Context()), propertyID); err != nil {
			respondError(w, err)
			return
		}
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFeedBody+1))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxFeedBody {
		http.Error(w, "feed too large", http.StatusRequestEntityTooLarge)
		return
	}

	var (
		result  application.ImportResult
		feedURL = strings.TrimSpace(r.URL.Query().Get("url"))
	)
	if isJSON(r.Header.Get("Content-Type")) {
		var req importRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		feedURL = strings.TrimSpace(req.URL)
		if req.Feed != "" {
			result, err = h.importer.ImportFeed(r.Context(), propertyID, req.Feed, feedURL)
		} else if feedURL != "" {
			result, err = h.importer.SyncFeed(r.Context(), propertyID, feedURL)
		} else {
			http.Error(w, "url or feed required", http.StatusBadRequest)
			return
		}
	} else {
		result, err = h.importer.ImportFeed(r.Context(), propertyID, string(body), feedURL)
	}
	if err != nil {
		h.logger.Printf("feed handler: import property=%s err=%v", propertyID, err)
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
	h.logAudit(r, propertyID, feedURL, result)
}

func (h *Handler) logAudit(r *http.Request, propertyID, feedURL string, result application.ImportResult) {
	if h.audit == nil {
		return
	}
	payload, _ := json.Marshal(result)
	if err := h.audit.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "feed.import",
		ResourceType: "calendar_feed",
		ResourceID:   feedURL,
		PropertyID:   propertyID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	}); err != nil {
		h.logger.Printf("feed handler: audit err=%v", err)
	}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendarfeed.ErrEmptyFeed), errors.Is(err, calendarfeed.ErrNoEvents), errors.Is(err, calendarfeed.ErrEmptyPropertyID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, calendarfeed.ErrFeedUnavailable):
		http.Error(w, "feed unavailable", http.StatusBadGateway)
	case errors.Is(err, auth.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, auth.ErrOwnerMismatch):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

package auth

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	property "hostledger/internal/property/domain"
	"hostledger/internal/property/infrastructure/memory"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	secret := []byte("test-secret")
	mw := NewMiddleware(secret, NewDefaultPolicy(nil, nil))
	handler := mw.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/allocations/bk-1", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ViewerForbiddenRecompute(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "owner-a", "viewer")
	handler := NewMiddleware(secret, NewDefaultPolicy(nil, nil)).Wrap(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/allocations/bk-1/recompute", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthMiddleware_OperatorForbiddenBatchRun(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "owner-a", "operator")
	handler := NewMiddleware(secret, NewDefaultPolicy(nil, nil)).Wrap(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/allocations/run", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ViewerCanReadReport(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "owner-a", "viewer")
	var gotOwner string
	handler := NewMiddleware(secret, NewDefaultPolicy(nil, nil)).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOwner = OwnerIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties/prop-1/reports/2026-03.csv", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotOwner != "owner-a" {
		t.Fatalf("expected owner in context, got %q", gotOwner)
	}
}

func TestAuthMiddleware_ExemptPaths(t *testing.T) {
	handler := NewMiddleware([]byte("s"), NewDefaultPolicy([]string{"/healthz"}, []string{"/ingest/"})).Wrap(okHandler())
	for _, path := range []string{"/healthz", "/ingest/meter-readings"} {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
	}
}

func TestParseJWT_OwnerRequiredBelowAdmin(t *testing.T) {
	secret := []byte("test-secret")
	if _, err := ParseJWT(mustToken(t, secret, "", "operator"), secret); err == nil {
		t.Fatalf("expected error for operator without owner")
	}
	if _, err := ParseJWT(mustToken(t, secret, "", "admin"), secret); err != nil {
		t.Fatalf("admin without owner should pass: %v", err)
	}
}

func TestIngestAuthMiddleware(t *testing.T) {
	secret := []byte("ingest-secret")
	mw := NewIngestAuthMiddleware(secret, time.Minute)
	var gotBody string
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusOK)
	}))

	body := []byte(`{"propertyId":"prop-1"}`)
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	req := httptest.NewRequest(http.MethodPost, "/ingest/meter-readings", bytes.NewReader(body))
	req.Header.Set("X-Ingest-Timestamp", ts)
	req.Header.Set("X-Ingest-Signature", computeIngestSignature(secret, ts, body))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotBody != string(body) {
		t.Fatalf("body not restored: %q", gotBody)
	}

	bad := httptest.NewRequest(http.MethodPost, "/ingest/meter-readings", bytes.NewReader(body))
	bad.Header.Set("X-Ingest-Timestamp", ts)
	bad.Header.Set("X-Ingest-Signature", "deadbeef")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, bad)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad signature, got %d", resp.Code)
	}

	old := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	stale := httptest.NewRequest(http.MethodPost, "/ingest/meter-readings", bytes.NewReader(body))
	stale.Header.Set("X-Ingest-Timestamp", old)
	stale.Header.Set("X-Ingest-Signature", computeIngestSignature(secret, old, body))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, stale)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for stale signature, got %d", resp.Code)
	}
}

func TestPropertyChecker(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewPropertyRepository()
	if err := repo.Save(ctx, &property.Property{ID: "prop-1", OwnerID: "owner-a", Name: "Loft"}); err != nil {
		t.Fatalf("save property: %v", err)
	}
	checker := NewPropertyChecker(repo)
	if err := checker.EnsurePropertyOwner(ctx, "owner-a", "prop-1"); err != nil {
		t.Fatalf("owner should pass: %v", err)
	}
	if err := checker.EnsurePropertyOwner(ctx, "owner-b", "prop-1"); err != ErrOwnerMismatch {
		t.Fatalf("expected ErrOwnerMismatch, got %v", err)
	}
	if err := checker.EnsurePropertyOwner(ctx, "owner-a", "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := checker.EnsurePropertyOwner(ctx, "", "prop-1"); err != nil {
		t.Fatalf("admin token should pass: %v", err)
	}
}

func mustToken(t *testing.T, secret []byte, ownerID, role string) string {
	t.Helper()
	claims := Claims{
		OwnerID: ownerID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

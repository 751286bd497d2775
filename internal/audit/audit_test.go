package audit

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMemoryLoggerFillsGeneratedFields(t *testing.T) {
	logger := NewMemoryLogger()
	meta, _ := json.Marshal(map[string]any{"format": "pdf"})
	if err := logger.Log(context.Background(), Entry{Action: "report.export", Metadata: meta}); err != nil {
		t.Fatalf("log: %v", err)
	}
	entries := logger.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if !strings.HasPrefix(e.ID, "audit-") || e.CreatedAt.IsZero() {
		t.Fatalf("generated fields missing: %+v", e)
	}
	if e.PayloadDigest != DigestJSON(meta) || len(e.PayloadDigest) != 64 {
		t.Fatalf("unexpected digest %q", e.PayloadDigest)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := ClientIP(req); got != "10.0.0.1" {
		t.Fatalf("expected remote addr host, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected forwarded ip, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", "unknown")
	req.Header.Set("X-Real-IP", "198.51.100.4")
	if got := ClientIP(req); got != "198.51.100.4" {
		t.Fatalf("expected real ip after invalid forwarded value, got %q", got)
	}
}

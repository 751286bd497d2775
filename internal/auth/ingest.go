package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hostledger/internal/observability/metrics"
)

const maxIngestBody = 1 << 20

// IngestAuthMiddleware verifies that meter readings come from a gateway that
// knows the shared secret. The signature header carries
// hex(HMAC-SHA256(secret, timestamp + "\n" + body)), optionally prefixed "sha256=".
type IngestAuthMiddleware struct {
	Secret  []byte
	MaxSkew time.Duration
}

// NewIngestAuthMiddleware constructs ingest auth middleware.
func NewIngestAuthMiddleware(secret []byte, maxSkew time.Duration) *IngestAuthMiddleware {
	return &IngestAuthMiddleware{Secret: secret, MaxSkew: maxSkew}
}

// Wrap rejects unsigned, stale or forged requests and restores the body for next.
func (m *IngestAuthMiddleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, reason := m.verify(r)
		if reason != "" {
			metrics.IncIngestError(reason)
			http.Error(w, "ingest "+strings.ReplaceAll(reason, "_", " "), http.StatusUnauthorized)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

// verify returns the request body, or a rejection reason.
func (m *IngestAuthMiddleware) verify(r *http.Request) ([]byte, string) {
	if len(m.Secret) == 0 {
		return nil, "auth_not_configured"
	}
	timestamp := strings.TrimSpace(r.Header.Get("X-Ingest-Timestamp"))
	signature := strings.TrimPrefix(strings.TrimSpace(r.Header.Get("X-Ingest-Signature")), "sha256=")
	if timestamp == "" || signature == "" {
		return nil, "signature_missing"
	}
	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return nil, "timestamp_invalid"
	}
	if m.MaxSkew > 0 {
		skew := time.Since(time.Unix(unix, 0))
		if skew > m.MaxSkew || skew < -m.MaxSkew {
			return nil, "signature_expired"
		}
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	_ = r.Body.Close()
	if err != nil {
		return nil, "body_unreadable"
	}
	expected := computeIngestSignature(m.Secret, timestamp, body)
	if !hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)) {
		return nil, "signature_invalid"
	}
	return body, ""
}

func computeIngestSignature(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(timestamp + "\n"))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

package auth

import (
	"net/http"
	"strings"
)

// Middleware authenticates bearer tokens and enforces the role policy.
type Middleware struct {
	Secret []byte
	Policy Policy
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(secret []byte, policy Policy) *Middleware {
	return &Middleware{Secret: secret, Policy: policy}
}

// Wrap puts the token identity into the request context when the policy
// requires a role, and rejects requests below it.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		required, guarded := m.requiredRole(r)
		if !guarded {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := ParseJWT(bearerToken(r), m.Secret)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="hostledger"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		role, _ := NormalizeRole(claims.Role)
		if !RoleAtLeast(role, required) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		ctx := WithIdentity(r.Context(), claims.OwnerID, role, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) requiredRole(r *http.Request) (Role, bool) {
	if m.Policy.IsExempt(r) {
		return "", false
	}
	return m.Policy.RequiredRole(r)
}

// bearerToken reads "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	scheme, token, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

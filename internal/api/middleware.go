package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/authcore-io/authcore/internal/auth"
)

type contextKey string

// ClaimsContextKey holds the validated token claims for a gated request.
const ClaimsContextKey contextKey = "claims"

// Paths reachable without a token: the auth endpoints themselves and the
// liveness probe. The probe is matched exactly so an unrelated route that
// merely shares the prefix cannot slip past the gate.
func isPublicPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/auth/")
}

// AuthGate classifies every request as public or protected. Protected
// requests need a currently-valid token, taken from the Authorization
// header first and the carrier cookie second; an explicit header always
// overrides an implicit cookie. Anything else is rejected before any
// handler runs.
func (api *Api) AuthGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if token, ok := bearerToken(r); ok {
			claims, err := api.tokens.Validate(token)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
				return
			}
		}

		if token, ok := auth.AccessTokenFromRequest(r); ok {
			claims, err := api.tokens.Validate(token)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
				return
			}
		}

		respondError(w, http.StatusUnauthorized, "Invalid or missing token")
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func withClaims(ctx context.Context, claims *auth.TokenClaims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// ClaimsFromContext retrieves the claims the gate attached to the request.
func ClaimsFromContext(ctx context.Context) (*auth.TokenClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*auth.TokenClaims)
	return claims, ok
}

// SecurityHeaders sets the browser hardening headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"gatekeeper/contexts/identity-access/token-service/application"
	"gatekeeper/contexts/identity-access/token-service/ports"
)

type claimsContextKey struct{}

type unauthorizedBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Middleware authenticates inbound requests with the token codec before any
// handler runs. Authentication failures are local to the request: they reject
// with 401 and never crash the handler chain.
type Middleware struct {
	Codec  *application.Codec
	Logger *slog.Logger
}

// RequireAccessToken verifies the bearer token and requires the access type;
// refresh tokens are only good for the refresh endpoint.
func (m Middleware) RequireAccessToken(next http.Handler) http.Handler {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeUnauthorized(w, "missing bearer token")
			return
		}

		claims, err := m.Codec.Verify(token)
		if err != nil {
			logger.Warn("token verification failed",
				"event", "token_verification_failed",
				"module", "identity-access/token-service",
				"layer", "adapter",
				"path", r.URL.Path,
				"error", err.Error(),
			)
			writeUnauthorized(w, err.Error())
			return
		}
		if claims.TokenType != ports.TokenTypeAccess {
			writeUnauthorized(w, "access token required")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// WithClaims stores verified claims on the request context.
func WithClaims(ctx context.Context, claims ports.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the verified claims stored by the middleware.
func ClaimsFromContext(ctx context.Context) (ports.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(ports.Claims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(unauthorizedBody{
		Code:    "unauthorized",
		Message: message,
	})
}

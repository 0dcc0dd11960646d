package httputil

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bissquit/adboard/internal/access"
	"github.com/bissquit/adboard/internal/domain"
	"github.com/bissquit/adboard/internal/pkg/ctxlog"
	"github.com/bissquit/adboard/internal/pkg/metrics"
)

// CORSMiddleware creates CORS middleware that handles preflight requests
// and adds appropriate CORS headers to responses.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && (originsSet[origin] || originsSet["*"]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type contextKey string

const principalKey contextKey = "principal"

// Admitter resolves a bearer token to an admitted principal.
type Admitter interface {
	Admit(ctx context.Context, token string) (*domain.Principal, error)
}

// AuthMiddleware runs the account verification gate. Requests without a
// valid token get 401, requests from unknown or unverified accounts get 403.
func AuthMiddleware(admitter Admitter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				metrics.AccessGateDecisions.WithLabelValues(metrics.GateNoToken).Inc()
				Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				metrics.AccessGateDecisions.WithLabelValues(metrics.GateNoToken).Inc()
				Error(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			principal, err := admitter.Admit(r.Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				respondGateError(r.Context(), w, err)
				return
			}

			metrics.AccessGateDecisions.WithLabelValues(metrics.GateAdmitted).Inc()

			ctx := WithPrincipal(r.Context(), principal)
			ctx = ctxlog.With(ctx, "user_id", principal.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondGateError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, access.ErrInvalidToken):
		metrics.AccessGateDecisions.WithLabelValues(metrics.GateInvalidToken).Inc()
		Error(w, http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, access.ErrPrincipalNotFound):
		metrics.AccessGateDecisions.WithLabelValues(metrics.GateNotFound).Inc()
		Error(w, http.StatusForbidden, access.ErrPrincipalNotFound.Error())
	case errors.Is(err, access.ErrNotValidated):
		metrics.AccessGateDecisions.WithLabelValues(metrics.GateNotValidated).Inc()
		Error(w, http.StatusForbidden, access.ErrNotValidated.Error())
	default:
		metrics.AccessGateDecisions.WithLabelValues(metrics.GateError).Inc()
		ctxlog.FromContext(ctx).Error("access gate failed", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// WithPrincipal attaches an admitted principal to the context.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal extracts the admitted principal from context.
func GetPrincipal(ctx context.Context) *domain.Principal {
	if p, ok := ctx.Value(principalKey).(*domain.Principal); ok {
		return p
	}
	return nil
}

// GetUserID extracts the admitted user ID from context.
func GetUserID(ctx context.Context) string {
	if p := GetPrincipal(ctx); p != nil {
		return p.UserID
	}
	return ""
}

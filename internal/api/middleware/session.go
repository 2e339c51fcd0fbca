package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcoot/idgateway/internal/model"
	"github.com/mcoot/idgateway/internal/services/session"
)

type contextKey string

const principalContextKey contextKey = "principal"

// Session loads the principal for the request's session cookie into the context.
// Requests without a valid session continue as guests, and a cookie naming an
// unknown or expired session is cleared.
func Session(sessions *session.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := session.SessionIDFromRequest(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := sessions.Principal(r.Context(), id)
			if err != nil {
				if errors.Is(err, model.ErrSessionNotFound) {
					sessions.ClearCookie(w)
				} else {
					logger.Warn("failed to load session", slog.String("error", err.Error()))
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// WithPrincipal returns a context carrying the principal
func WithPrincipal(ctx context.Context, principal *model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// GetPrincipal returns the session principal from the request context, or nil for guests
func GetPrincipal(ctx context.Context) *model.Principal {
	principal, _ := ctx.Value(principalContextKey).(*model.Principal)
	return principal
}

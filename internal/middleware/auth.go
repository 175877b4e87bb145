package middleware

import (
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// Authenticate resolves the session token, if any, into a principal on the
// request context. Requests without a valid token continue anonymously and
// are turned away by RequireAuth or RequireAdmin where a route needs it.
func Authenticate(tokens *auth.TokenManager, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := auth.TokenFromRequest(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := tokens.Parse(raw)
			if err != nil {
				logger.Debug().Err(err).Str("path", r.URL.Path).Msg("ignoring invalid session token")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAuth rejects requests without an authenticated principal.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.PrincipalFrom(r.Context()); !ok {
			writeDomainError(w, model.ErrUnauthorised)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous callers with 401 and non-administrators with 403.
func RequireAdmin(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFrom(r.Context())
			if !ok {
				writeDomainError(w, model.ErrUnauthorised)
				return
			}
			if !p.IsAdmin {
				logger.Warn().
					Str("user_id", p.UserID.String()).
					Str("path", r.URL.Path).
					Msg("admin route denied")
				writeDomainError(w, model.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

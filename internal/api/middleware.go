package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/screenlog/screenlog-be/internal/apperr"
	"github.com/screenlog/screenlog-be/internal/api/handlers"
	"github.com/screenlog/screenlog-be/internal/auth"
	"github.com/screenlog/screenlog-be/internal/ratelimit"
	"github.com/screenlog/screenlog-be/internal/services"
)

// Middleware holds the dependencies for the per-route interceptor chain:
// rate-limit, then authentication, then ownership.
type Middleware struct {
	tokens  *auth.TokenService
	users   services.UserServiceProvider
	limiter *ratelimit.Limiter
}

// NewMiddleware creates the middleware set.
func NewMiddleware(tokens *auth.TokenService, users services.UserServiceProvider, limiter *ratelimit.Limiter) *Middleware {
	return &Middleware{tokens: tokens, users: users, limiter: limiter}
}

// RateLimit throttles requests per (client, route) at limit requests per
// window. Denied requests get a 429 without touching anything downstream.
func (m *Middleware) RateLimit(routeName string, limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r) + " " + routeName
			if !m.limiter.Allow(key, limit) {
				handlers.RespondError(w, r, apperr.New(apperr.KindTooManyRequests, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate resolves the bearer token to a live user and stores it in the
// request context. A token whose subject no longer exists fails with
// Unauthorized, not NotFound, so deleted accounts are indistinguishable from
// bad tokens.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := bearerToken(r)
		if !ok {
			handlers.RespondError(w, r, apperr.New(apperr.KindUnauthorized, "missing or malformed bearer token"))
			return
		}

		userID, err := m.tokens.Validate(tokenStr)
		if err != nil {
			handlers.RespondError(w, r, err)
			return
		}

		user, err := m.users.GetUserByID(r.Context(), userID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				handlers.RespondError(w, r, apperr.New(apperr.KindUnauthorized, "invalid or expired token"))
				return
			}
			handlers.RespondError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}

// RequireOwner rejects requests whose authenticated user does not match the
// {userID} path parameter. Runs after Authenticate and before the handler,
// so nothing is disclosed or mutated for a mismatched caller, regardless of
// whether the target user exists.
func (m *Middleware) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.UserFrom(r.Context())
		if !ok {
			handlers.RespondError(w, r, apperr.New(apperr.KindUnauthorized, "authentication required"))
			return
		}
		if chi.URLParam(r, "userID") != caller.ID {
			handlers.RespondError(w, r, apperr.New(apperr.KindForbidden, "not authorized to access this resource"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// clientIP derives the throttling key for the requester. RemoteAddr has
// already been rewritten by chi's RealIP middleware when the request came
// through a trusted proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

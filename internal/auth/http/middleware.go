package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/onevision/baselogin/internal/auth/domain"
	"github.com/onevision/baselogin/internal/auth/service"
	"github.com/onevision/baselogin/pkg/httpx"
	"github.com/onevision/baselogin/pkg/slogx"
)

type sessionKey struct{}

// sessionUser returns the authenticated user placed in the context by
// SessionMiddleware.
func sessionUser(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(sessionKey{}).(domain.User)
	return u, ok
}

// SessionMiddleware authenticates the request from the session cookie, or
// from an Authorization bearer header for non-browser clients. The full user
// row is loaded so the staleness check against passwordUpdatedAt runs on
// every request.
func SessionMiddleware(sessions *service.SessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := sessionToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			user, err := sessions.VerifySession(ctx, token)
			if err != nil {
				slogx.FromContext(ctx).Warn("session rejected", "err", err)
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired session")
				return
			}

			ctx = context.WithValue(ctx, sessionKey{}, user)
			ctx = context.WithValue(ctx, httpx.CtxKeyUserID, user.ID)
			ctx = context.WithValue(ctx, httpx.CtxKeyCompanyID, user.CompanyID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects non-admin sessions. Must run after SessionMiddleware.
func RequireAdmin() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := sessionUser(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}
			if user.Role != domain.RoleAdmin {
				writeError(w, http.StatusForbidden, "forbidden", "Requires admin role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sessionToken extracts the raw session token, preferring the cookie.
func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return ""
}

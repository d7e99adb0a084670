package middleware

import (
	"context"
	"net/http"

	"github.com/ayush/digital-library/internal/apperr"
	"github.com/ayush/digital-library/internal/models"
)

// TokenCookie is the cookie that carries the signed identity token. The
// guard reads it here; the login handler sets it.
const TokenCookie = "token"

// TokenVerifier checks a raw token and returns the encoded user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserLoader resolves a user id to a user record.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type userKey struct{}

// UserFrom returns the authenticated user attached by RequireAuth.
func UserFrom(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey{}).(*models.User)
	return user, ok
}

// WithUser attaches a user to the context. Exposed for handler tests.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// RequireAuth validates the token cookie, resolves the user record and
// injects it into the request context. Missing, malformed or expired tokens
// fail with 401, as does an id that no longer resolves to a user.
func RequireAuth(tokens TokenVerifier, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(TokenCookie)
			if err != nil {
				apperr.Write(w, apperr.New(apperr.Authentication, "not authenticated"))
				return
			}

			userID, err := tokens.Verify(cookie.Value)
			if err != nil {
				apperr.Write(w, err)
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil || user == nil {
				apperr.Write(w, apperr.New(apperr.Authentication, "user not found"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

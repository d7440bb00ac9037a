package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fortify/fortify-go/internal/crypto"
	"github.com/fortify/fortify-go/internal/model"
	"github.com/fortify/fortify-go/internal/service"
)

type contextKey string

const userKey contextKey = "user"

// Auth failure messages.
const (
	MsgInvalidToken       = "Invalid or expired token"
	MsgUserNotFound       = "User not found"
	MsgUserDisabled       = "User account is disabled"
	MsgNotAuthenticated   = "Authentication credentials were not provided."
	msgInternalError      = "internal server error"
	msgTooManyRequests    = "too many requests"
	msgCSRFTokenIncorrect = "CSRF token missing or incorrect."
)

// UserResolver turns an access token into the user it was issued for.
type UserResolver interface {
	ResolveAccessToken(ctx context.Context, token string) (*model.User, error)
}

// AccessTokenReader extracts the access token from a request.
type AccessTokenReader interface {
	AccessToken(r *http.Request) (string, bool)
}

// Authenticate returns middleware that resolves the caller from the access
// token cookie. A request without the cookie continues anonymously; a request
// with a bad token, an unknown user or a disabled account is rejected with
// 401. Any other resolver failure is a server fault and yields 500.
func Authenticate(resolver UserResolver, tokens AccessTokenReader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := tokens.AccessToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.ResolveAccessToken(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, crypto.ErrInvalidToken):
					logger.WarnContext(r.Context(), "invalid token attempt", "error", err)
					writeJSONError(w, http.StatusUnauthorized, MsgInvalidToken)
				case errors.Is(err, service.ErrUserNotFound):
					logger.WarnContext(r.Context(), "token for unknown user")
					writeJSONError(w, http.StatusUnauthorized, MsgUserNotFound)
				case errors.Is(err, service.ErrUserInactive):
					attrs := []any{}
					if user != nil {
						attrs = append(attrs, "username", user.Username)
					}
					logger.WarnContext(r.Context(), "inactive user attempted access", attrs...)
					writeJSONError(w, http.StatusUnauthorized, MsgUserDisabled)
				default:
					logger.ErrorContext(r.Context(), "resolving access token", "error", err)
					writeJSONError(w, http.StatusInternalServerError, msgInternalError)
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireUser rejects requests that Authenticate left anonymous.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			writeJSONError(w, http.StatusUnauthorized, MsgNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

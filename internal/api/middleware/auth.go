package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/dom/lost-found/internal/domain"
	"github.com/dom/lost-found/internal/service"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
)

const bearerPrefix = "Bearer "

// Identity is the authenticated caller of a request.
type Identity struct {
	User  *domain.User
	Token string
}

// Authenticator resolves bearer tokens to users.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Authenticate resolves an optional bearer token once per request.
// Requests without an "Authorization: Bearer" header continue anonymously;
// a bearer token that matches no user is rejected with 401.
func Authenticate(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrAuthenticationFailed) || errors.Is(err, service.ErrNotFound) {
					unauthorized(w, "Invalid token.")
					return
				}
				log.Printf("ERROR [middleware.Authenticate] token lookup failed: %v", err)
				writeDetail(w, http.StatusInternalServerError, "Internal server error.")
				return
			}

			ctx := WithIdentity(r.Context(), &Identity{User: user, Token: token})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentIdentity(r.Context()); !ok {
			unauthorized(w, "Authentication credentials were not provided.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BearerToken extracts the token from an Authorization header value.
// The scheme is matched exactly; ok is false for any other scheme.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	return header[len(bearerPrefix):], true
}

func CurrentIdentity(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(*Identity)
	return id, ok && id != nil
}

func CurrentUser(ctx context.Context) (*domain.User, bool) {
	id, ok := CurrentIdentity(ctx)
	if !ok {
		return nil, false
	}
	return id.User, true
}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, msg)
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": msg})
}

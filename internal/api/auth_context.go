package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/localcircle/localcircle-server/internal/auth"
	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/errors"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	identityKey ctxKey = "identity"
	authErrKey  ctxKey = "auth_error"
)

// GetIdentity returns the verified caller from context. When the request
// carried a token that failed verification, that failure is returned so an
// expired token reads as TOKEN_EXPIRED rather than a bare 401.
func GetIdentity(ctx context.Context) (*auth.Identity, error) {
	if ident, ok := ctx.Value(identityKey).(*auth.Identity); ok && ident != nil {
		return ident, nil
	}
	if err, ok := ctx.Value(authErrKey).(error); ok && err != nil {
		return nil, err
	}
	return nil, errors.Unauthorized("authentication required")
}

// GetUserID returns the authenticated user ID from context.
func GetUserID(ctx context.Context) (string, error) {
	ident, err := GetIdentity(ctx)
	if err != nil {
		return "", err
	}
	return ident.UserID, nil
}

// GetActor returns the caller as the ledger sees them.
func GetActor(ctx context.Context) (domain.Actor, error) {
	ident, err := GetIdentity(ctx)
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.Actor{
		UserID:   ident.UserID,
		Name:     ident.DisplayName(),
		Locality: ident.Locality,
	}, nil
}

func setIdentity(ctx context.Context, ident *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

// authMiddleware verifies Bearer tokens and stores the identity in context.
// Requests without a valid token continue anonymously; handlers reject them
// through GetIdentity.
func authMiddleware(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if tokens == nil || !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			ident, err := tokens.Verify(strings.TrimSpace(authHeader[7:]))
			if err != nil {
				ctx := context.WithValue(r.Context(), authErrKey, err)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			next.ServeHTTP(w, r.WithContext(setIdentity(r.Context(), ident)))
		})
	}
}

// userFromRequest adapts the identity in context for the SSE handler.
func userFromRequest(r *http.Request) (string, bool) {
	userID, err := GetUserID(r.Context())
	return userID, err == nil
}

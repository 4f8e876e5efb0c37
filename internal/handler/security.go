package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/vintora/storefront-api/internal/domain/auth"
)

// identityKey is the context key for the authenticated identity.
type identityKey struct{}

// IdentityFromContext extracts the authenticated identity, if any.
func IdentityFromContext(ctx context.Context) *auth.Identity {
	id, _ := ctx.Value(identityKey{}).(*auth.Identity)
	return id
}

// Authenticator authenticates requests via HMAC-SHA256 hashed API keys.
type Authenticator struct {
	keys   auth.Repository
	pepper []byte
}

// NewAuthenticator creates an Authenticator with the given key repository
// and HMAC pepper.
func NewAuthenticator(keys auth.Repository, pepper []byte) *Authenticator {
	return &Authenticator{keys: keys, pepper: pepper}
}

// Authenticate resolves the request's API key (api_key header or bearer
// token) to an identity, storing it in the request context. Requests
// without a resolvable key get 401.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("api_key")
		if key == "" {
			if bearer := r.Header.Get("Authorization"); strings.HasPrefix(bearer, "Bearer ") {
				key = strings.TrimPrefix(bearer, "Bearer ")
			}
		}
		if key == "" {
			respondError(w, http.StatusUnauthorized, "missing api key")
			return
		}

		identity, err := a.keys.FindByHash(r.Context(), auth.HashKey(a.pepper, key))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireScope gates a route on a permission, matched against the
// identity's scopes with wildcard support.
func RequireScope(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if identity == nil || !identity.HasScope(perm) {
				respondError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

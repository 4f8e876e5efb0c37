// Package auth holds API-key identities and the scope grammar used to gate
// the admin surface.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// PermOrdersUpdate gates the admin order status/stage endpoints.
const PermOrdersUpdate = "orders:update"

// Identity is the resolved owner of an API key. Customer keys carry a
// UserID and no scopes; staff keys carry scopes and act on any order.
type Identity struct {
	ID     string
	Name   string
	UserID string
	Scopes []string
}

// Repository provides lookup of identities by the HMAC hash of their key.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Identity, error)
}

// HashKey computes the hex HMAC-SHA256 of an API key under the given
// pepper. Keys are stored and looked up only in this form.
func HashKey(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// HasScope reports whether any granted scope matches the wanted permission.
// A grant ending in "*" matches by prefix: "orders:*" covers
// "orders:update", and a bare "*" covers everything.
func (id *Identity) HasScope(perm string) bool {
	return MatchScope(id.Scopes, perm)
}

// MatchScope implements the wildcard grammar over a scope list.
func MatchScope(scopes []string, perm string) bool {
	for _, scope := range scopes {
		if scope == perm {
			return true
		}
		if prefix, ok := strings.CutSuffix(scope, "*"); ok && strings.HasPrefix(perm, prefix) {
			return true
		}
	}
	return false
}

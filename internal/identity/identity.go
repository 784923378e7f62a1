// Package identity resolves who is speaking on a request: an authenticated
// site user carrying a per-site JWT, or an anonymous visitor derived from
// their network address. Resolution never fails a request; a bad token
// simply downgrades to anonymous.
package identity

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the resolved author of a request.
type Identity struct {
	UserID    string
	Name      string
	Avatar    string
	Admin     bool
	Author    bool
	Anonymous bool
}

// Resolver verifies site-scoped HS256 tokens. Each site registers its own
// signing secret; a token is only valid for the site it names.
type Resolver struct {
	secrets map[string]string
}

// NewResolver creates a Resolver from a siteId -> secret map.
func NewResolver(secrets map[string]string) *Resolver {
	if secrets == nil {
		secrets = map[string]string{}
	}
	return &Resolver{secrets: secrets}
}

// Resolve parses tokenString against siteID's secret. It returns the
// authenticated identity and true on success, or a zero identity and false
// when the token is missing, malformed, expired, signed with the wrong
// key or algorithm, or issued for another site.
func (r *Resolver) Resolve(tokenString, siteID string) (Identity, bool) {
	if tokenString == "" {
		return Identity{}, false
	}

	secret, ok := r.secrets[siteID]
	if !ok || secret == "" {
		return Identity{}, false
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Identity{}, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, false
	}

	// The token must be bound to the site it is used on.
	if claimString(claims, "siteId") != siteID {
		return Identity{}, false
	}

	userID := claimString(claims, "sub")
	if userID == "" {
		userID = claimString(claims, "userId")
	}
	if userID == "" {
		return Identity{}, false
	}

	name := claimString(claims, "name")
	if name == "" {
		name = claimString(claims, "username")
	}

	return Identity{
		UserID: userID,
		Name:   name,
		Avatar: claimString(claims, "avatar"),
		Admin:  claimString(claims, "role") == "admin" || claimBool(claims, "isAdmin"),
		Author: claimBool(claims, "isAuthor"),
	}, true
}

// Anonymous derives the stable anonymous identity for a network address on
// a site. The same address maps to the same id within a site and to
// different ids across sites, so cross-site activity cannot be correlated.
func Anonymous(addr, siteID string) Identity {
	h := anonHash(addr, siteID)
	return Identity{
		UserID:    "ip_" + h,
		Name:      GuestName(h),
		Anonymous: true,
	}
}

// GuestName builds the visitor display name from an anonymous hash.
func GuestName(hash string) string {
	if len(hash) > 6 {
		hash = hash[:6]
	}
	return "访客-" + hash
}

func anonHash(addr, siteID string) string {
	sum := md5.Sum([]byte(addr + siteID))
	return hex.EncodeToString(sum[:])
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func claimBool(claims jwt.MapClaims, key string) bool {
	if v, ok := claims[key].(bool); ok {
		return v
	}
	return false
}

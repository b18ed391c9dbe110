package contentapi

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// anonymousPrefix namespaces cache entries when no identity is known.
const anonymousPrefix = "anon"

// tokenClaims decodes the token payload without checking its signature.
// The service is the only party that verifies tokens; the client reads
// claims only to namespace its cache and to skip doomed requests.
func tokenClaims(token string) (jwt.MapClaims, bool) {
	if token == "" {
		return nil, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

// TokenSubject returns the "sub" claim, or "" for opaque tokens.
func TokenSubject(token string) string {
	claims, ok := tokenClaims(token)
	if !ok {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// TokenExpired reports whether the token carries an "exp" claim that is
// at or before now. Opaque tokens never expire locally.
func TokenExpired(token string, now time.Time) bool {
	claims, ok := tokenClaims(token)
	if !ok {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// IdentityPrefix derives the cache namespace for a token: the subject when
// the token is a JWT, else a fixed-length slice of the token itself.
func IdentityPrefix(token string) string {
	if token == "" {
		return anonymousPrefix
	}
	if sub := TokenSubject(token); sub != "" {
		return sub
	}
	if len(token) > 16 {
		return token[:16]
	}
	return token
}

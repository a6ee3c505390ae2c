package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dukerupert/walkin/internal/model"
)

// Expiry returns the exp claim of a JWT without verifying its signature.
// Only the backend can verify; the client only needs to know whether sending
// the token is pointless. ok is false for opaque tokens or tokens without exp.
func Expiry(token string) (exp time.Time, ok bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Usable reports whether sess carries a token worth presenting: present and,
// when it is a JWT with an exp claim, not yet expired at now. Opaque tokens
// are assumed usable until the backend says otherwise.
func Usable(sess model.Session, now time.Time) bool {
	if !sess.Valid() {
		return false
	}
	exp, ok := Expiry(sess.AuthToken)
	if !ok {
		return true
	}
	return now.Before(exp)
}

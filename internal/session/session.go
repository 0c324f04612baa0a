// Package session contains the client-side credential store.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Store holds the access token and user id of the signed-in user.
// It replaces the browser's ambient local storage with an explicit object
// passed to every request-issuing component.
type Store interface {
	Token() string
	UserID() string
	Set(token, userID string) error
	Clear() error
}

// LoggedIn reports whether s holds a complete credential pair.
func LoggedIn(s Store) bool {
	return s.Token() != "" && s.UserID() != ""
}

// TokenExpired inspects the exp claim of a stored access token without
// verifying its signature. The backend is the only party that validates
// tokens; the client only needs the expiry hint to warn the user early.
// Tokens that do not parse or carry no expiry are reported as not expired.
func TokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Before(time.Now())
}

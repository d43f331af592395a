package models

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims represents the JWT claims issued by the hosted identity provider.
// Only the subject is load-bearing; the rest is carried for logging.
type IdentityClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email,omitempty"`
	SessionID            string `json:"sid,omitempty"`
}

// GetUserID returns the opaque user ID from the JWT subject claim.
func (c *IdentityClaims) GetUserID() string {
	return c.Subject
}

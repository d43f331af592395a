package auth

import "motion/internal/domain/models"

// JWTVerifier defines the interface for JWT token verification.
// The middleware depends on this rather than on a concrete key source.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns domain.ErrUnauthorized if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.IdentityClaims, error)

	// Close releases any resources held by the verifier
	Close() error
}

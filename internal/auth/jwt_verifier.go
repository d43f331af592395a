package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"motion/internal/domain"
	"motion/internal/domain/models"
)

// allowedAlgorithms prevents algorithm confusion attacks (e.g. HS256 signed with a public key)
var allowedAlgorithms = []string{"RS256", "ES256"}

// JWKSVerifier implements JWTVerifier using keys published at a JWKS endpoint.
type JWKSVerifier struct {
	jwks    keyfunc.Keyfunc
	options []jwt.ParserOption
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewJWTVerifier creates a verifier that fetches public keys from jwksURL.
// The key set is cached and refreshed in the background until Close.
// issuer and audience are checked when non-empty.
func NewJWTVerifier(jwksURL, issuer, audience string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL, "issuer", issuer, "audience", audience)

	v := newJWKSVerifier(jwks, issuer, audience, logger)
	v.cancel = cancel
	return v, nil
}

func newJWKSVerifier(jwks keyfunc.Keyfunc, issuer, audience string, logger *slog.Logger) *JWKSVerifier {
	options := []jwt.ParserOption{
		jwt.WithValidMethods(allowedAlgorithms),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		options = append(options, jwt.WithAudience(audience))
	}

	return &JWKSVerifier{
		jwks:    jwks,
		options: options,
		logger:  logger,
	}
}

// VerifyToken validates a JWT token and extracts the identity claims
func (v *JWKSVerifier) VerifyToken(tokenString string) (*models.IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.IdentityClaims{}, v.jwks.Keyfunc, v.options...)
	if err != nil {
		v.logger.Debug("token rejected", "error", err)
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.IdentityClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}

	// The subject is the opaque user ID every document is keyed by
	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, fmt.Errorf("token missing subject: %w", domain.ErrUnauthorized)
	}

	return claims, nil
}

// Close stops the background JWKS refresh
func (v *JWKSVerifier) Close() error {
	if v.cancel != nil {
		v.cancel()
	}
	v.logger.Info("JWT verifier closed")
	return nil
}

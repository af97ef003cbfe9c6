package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/bitforgehq/storefront/pkg/errors"
	"github.com/bitforgehq/storefront/pkg/middleware"
)

// Config holds session token settings.
type Config struct {
	Secret string `env:"JWT_SECRET"`
	Issuer string `env:"JWT_ISSUER" envDefault:"storefront"`
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewTokenValidator returns a validator for HS256 session tokens. The
// session provider that mints tokens is an external collaborator; only
// verification happens here.
func NewTokenValidator(cfg Config) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		}, jwt.WithIssuer(cfg.Issuer), jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			return nil, apperrors.Unauthorized("invalid session token")
		}

		claims, ok := parsed.Claims.(*sessionClaims)
		if !ok || claims.Subject == "" {
			return nil, apperrors.Unauthorized("invalid session token")
		}

		return &middleware.Claims{
			UserID: claims.Subject,
			Email:  claims.Email,
		}, nil
	}
}

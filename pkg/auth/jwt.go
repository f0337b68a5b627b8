package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/env"
)

// JWTSecretKey for signing admin tokens
// REQUIRED: Application will panic if not set
var JWTSecretKey string

func init() {
	JWTSecretKey = env.MustGetEnvString("JWT_SECRET_KEY")
}

// AdminTokenClaims represents the claims in an admin JWT
type AdminTokenClaims struct {
	jwt.RegisteredClaims
}

// GenerateAdminToken creates a short-lived JWT for admin API access.
// TTL defaults to 24h, tunable via ADMIN_TOKEN_TTL.
func GenerateAdminToken() (string, error) {
	if JWTSecretKey == "" {
		return "", errors.New("JWT_SECRET_KEY not configured")
	}

	ttl := env.GetEnvDurationOrDefault("ADMIN_TOKEN_TTL", 24*time.Hour)

	claims := AdminTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(JWTSecretKey))
}

// ValidateAdminToken validates an admin JWT and returns the claims
func ValidateAdminToken(tokenString string) (*AdminTokenClaims, error) {
	if JWTSecretKey == "" {
		return nil, errors.New("JWT_SECRET_KEY not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &AdminTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(JWTSecretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AdminTokenClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token claims")
}

package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateJWT issues a token carrying the claims AuthMiddleware reads.
func GenerateJWT(userID uint, tier string, secret []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"tier":   tier,
		"exp":    time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"flowdeck/internal/models"
)

// Claims represents the JWT claims structure handed to the web layer.
type Claims struct {
	UserID int64           `json:"uid"`
	OrgID  int64           `json:"oid"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

var ErrInvalidToken = errors.New("invalid or expired token")

// GenerateToken signs an actor token with HS256, valid for 24 hours.
func GenerateToken(actor models.Actor, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: actor.ID,
		OrgID:  actor.OrgID,
		Role:   actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	})
	return token.SignedString([]byte(secret))
}

// ParseToken validates a token string and recovers the actor.
func ParseToken(raw, secret string) (models.Actor, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return models.Actor{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return models.Actor{}, ErrInvalidToken
	}
	return models.Actor{ID: claims.UserID, OrgID: claims.OrgID, Role: claims.Role}, nil
}

package service

import (
	"fmt"
	"time"

	"github.com/bigdady147/Eddy-Hub/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type JWTService struct {
	secret  []byte
	expired time.Duration
}

func NewJWTService(secret string, expiredHours int64) *JWTService {
	return &JWTService{
		secret:  []byte(secret),
		expired: time.Duration(expiredHours) * time.Hour,
	}
}

func (js *JWTService) GenerateToken(user *models.User) (string, error) {
	claims := models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(js.expired)),
			Issuer:    "feature-gate-service",
		},
		UserID:   user.ID.Hex(),
		Username: user.Username,
		Role:     user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(js.secret)
	if err != nil {
		return "", fmt.Errorf("error generating token string: %w", err)
	}
	return tokenString, nil
}

func (js *JWTService) ValidateToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (any, error) {
		return js.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*models.Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

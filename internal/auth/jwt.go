package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/profinder/internal/config"
)

type Claims struct {
	ProfessionalID int64  `json:"professional_id"`
	AccountID      int64  `json:"account_id"`
	Username       string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken 生成 JWT，携带服务者与金币账户双重身份
func GenerateToken(cfg *config.JWTConfig, professionalID, accountID int64, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		ProfessionalID: professionalID,
		AccountID:      accountID,
		Username:       username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(2 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ParseToken 解析 JWT
func ParseToken(cfg *config.JWTConfig, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}

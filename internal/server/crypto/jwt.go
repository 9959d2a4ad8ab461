// Package crypto содержит криптографические примитивы сервера:
//   - хэширование паролей (argon2id, bcrypt);
//   - выпуск и разбор JWT access-токенов встроенного сервера токенов;
//   - генерацию refresh-токенов и их хэшей.
package crypto

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTConfig описывает параметры генерации и проверки JWT access-токена.
type JWTConfig struct {
	// Issuer: значение поля iss (кто выдал токен).
	Issuer string
	// Audience: значение поля aud (для кого предназначен токен).
	Audience string
	// SigningKey: секретный ключ для подписи токена (HS256).
	SigningKey string
	// AccessTTL: срок жизни access-токена.
	AccessTTL time.Duration
}

// AccessClaims: claims access-токена.
//
// Помимо стандартных полей хранит oauth-клиента, которому выдан токен, и scope.
type AccessClaims struct {
	jwt.RegisteredClaims
	ClientID string `json:"cid,omitempty"`
	Scope    string `json:"scope,omitempty"`
}

var (
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrTokenIssuer   = errors.New("invalid token issuer")
	ErrTokenAudience = errors.New("invalid token audience")
	ErrTokenSubject  = errors.New("invalid token subject")
)

// NewAccessToken создаёт и подписывает JWT access-токен для пользователя.
//
// Токен содержит iss, aud, sub (userID), iat, exp, jti и cid/scope.
// Используется алгоритм подписи HS256.
func NewAccessToken(userID, clientID, scope string, cfg JWTConfig) (string, error) {
	now := time.Now()

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    cfg.Issuer,
			Audience:  []string{cfg.Audience},
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessTTL)),
		},
		ClientID: clientID,
		Scope:    scope,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(cfg.SigningKey))
}

// ParseAccessToken проверяет подпись, срок жизни, issuer и audience токена.
//
// Пустые cfg.Issuer / cfg.Audience не проверяются.
func ParseAccessToken(tokenStr string, cfg JWTConfig) (*AccessClaims, error) {
	claims := &AccessClaims{}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	_, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return []byte(cfg.SigningKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
		return nil, ErrTokenIssuer
	}
	if cfg.Audience != "" && !slices.Contains(claims.Audience, cfg.Audience) {
		return nil, ErrTokenAudience
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenSubject
	}
	return claims, nil
}

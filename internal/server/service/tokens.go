package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/config"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/crypto"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/oauth"
	serr "github.com/IvanChernomyrdin/go-user-accounts/internal/shared/errors"
)

// Поддерживаемые grant_type.
const (
	GrantPassword     = "password"
	GrantRefreshToken = "refresh_token"
)

// TokenRequest: параметры запроса к эндпоинту выдачи токенов.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	RefreshToken string
	Scope        string
}

// TokenService: встроенный сервер токенов (OAuth2 password и refresh_token grant).
//
// Ответственность:
//   - проверка oauth-клиента (client_id/client_secret)
//   - выпуск access / refresh токенов
//   - rotation refresh токенов
//   - reuse detection (защита от повторного использования refresh)
type TokenService struct {
	authenticator Authenticator
	sessions      SessionsRepo

	clientID     string
	clientSecret string
	jwt          crypto.JWTConfig

	refreshTTL     time.Duration
	rotateRefresh  bool
	reuseDetection bool
}

// NewTokenService создаёт TokenService с настройками из конфига.
func NewTokenService(authenticator Authenticator, sessions SessionsRepo, cfg *config.Config) *TokenService {
	return &TokenService{
		authenticator: authenticator,
		sessions:      sessions,

		clientID:     cfg.OAuth.ClientID,
		clientSecret: cfg.OAuth.ClientSecret,
		jwt: crypto.JWTConfig{
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			SigningKey: cfg.Auth.JWT.SigningKey,
			AccessTTL:  cfg.Auth.AccessTTL,
		},

		refreshTTL:     cfg.Auth.RefreshTTL,
		rotateRefresh:  cfg.Auth.Sessions.RotateRefresh,
		reuseDetection: cfg.Auth.Sessions.ReuseDetection,
	}
}

// Issue обрабатывает запрос на выдачу токена.
//
// Ошибки:
//   - ErrInvalidClient если client_id/client_secret не совпали
//   - ErrUnsupportedGrant для неизвестного grant_type
//   - ErrInvalidInput если не хватает параметров
//   - ErrInvalidCredentials если логин/пароль неверные
//   - ErrUnauthorized если refresh-токен недействителен/просрочен/отозван
func (s *TokenService) Issue(ctx context.Context, req TokenRequest) (oauth.Token, error) {
	if !s.clientMatches(req.ClientID, req.ClientSecret) {
		return oauth.Token{}, serr.ErrInvalidClient
	}

	switch req.GrantType {
	case GrantPassword:
		return s.passwordGrant(ctx, req)
	case GrantRefreshToken:
		return s.refreshGrant(ctx, req)
	case "":
		return oauth.Token{}, serr.ErrInvalidInput
	default:
		return oauth.Token{}, serr.ErrUnsupportedGrant
	}
}

func (s *TokenService) clientMatches(id, secret string) bool {
	idOK := subtle.ConstantTimeCompare([]byte(id), []byte(s.clientID)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(secret), []byte(s.clientSecret)) == 1
	return idOK && secretOK
}

// passwordGrant аутентифицирует пользователя и выдаёт пару токенов.
//
// При успехе создаёт refresh-сессию.
func (s *TokenService) passwordGrant(ctx context.Context, req TokenRequest) (oauth.Token, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return oauth.Token{}, serr.ErrInvalidInput
	}

	p, err := s.authenticator.Verify(ctx, username, req.Password)
	if err != nil {
		return oauth.Token{}, err
	}

	access, err := crypto.NewAccessToken(p.UserID.String(), req.ClientID, req.Scope, s.jwt)
	if err != nil {
		return oauth.Token{}, serr.ErrInternal
	}
	refresh, err := crypto.NewRefreshToken()
	if err != nil {
		return oauth.Token{}, serr.ErrInternal
	}
	if _, err := s.sessions.Create(ctx, p.UserID, crypto.HashRefreshToken(refresh), time.Now().Add(s.refreshTTL)); err != nil {
		return oauth.Token{}, err
	}

	return s.token(access, refresh), nil
}

// refreshGrant обновляет access токен по refresh токену.
//
// Поддерживает:
//   - rotation refresh токенов
//   - reuse detection (отзыв всех сессий при атаке)
func (s *TokenService) refreshGrant(ctx context.Context, req TokenRequest) (oauth.Token, error) {
	refreshToken := strings.TrimSpace(req.RefreshToken)
	if refreshToken == "" {
		return oauth.Token{}, serr.ErrInvalidInput
	}

	sess, err := s.sessions.GetByRefreshHash(ctx, crypto.HashRefreshToken(refreshToken))
	if err != nil {
		return oauth.Token{}, err
	}

	now := time.Now()
	if sess.ExpiresAt.Before(now) {
		return oauth.Token{}, serr.ErrUnauthorized
	}

	// если токен уже отозван: значит кто-то пытается переиспользовать
	if sess.RevokedAt != nil {
		if s.reuseDetection {
			if err := s.sessions.RevokeAllForUser(ctx, sess.UserID); err != nil {
				return oauth.Token{}, err
			}
		}
		return oauth.Token{}, serr.ErrUnauthorized
	}

	access, err := crypto.NewAccessToken(sess.UserID.String(), req.ClientID, req.Scope, s.jwt)
	if err != nil {
		return oauth.Token{}, serr.ErrInternal
	}

	// если rotate_refresh выключен: возвращаем только новый access, refresh тот же
	if !s.rotateRefresh {
		return s.token(access, refreshToken), nil
	}

	newRefresh, err := crypto.NewRefreshToken()
	if err != nil {
		return oauth.Token{}, serr.ErrInternal
	}

	newID, err := s.sessions.Create(ctx, sess.UserID, crypto.HashRefreshToken(newRefresh), now.Add(s.refreshTTL))
	if err != nil {
		return oauth.Token{}, err
	}
	// пометить старый как revoked и связать с новым
	if err := s.sessions.RevokeAndReplace(ctx, sess.ID, newID); err != nil {
		return oauth.Token{}, err
	}

	return s.token(access, newRefresh), nil
}

func (s *TokenService) token(access, refresh string) oauth.Token {
	return oauth.Token{
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwt.AccessTTL / time.Second),
		AccessToken:  access,
		RefreshToken: refresh,
	}
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/oauth"
	serr "github.com/IvanChernomyrdin/go-user-accounts/internal/shared/errors"
)

// CredentialsAuthenticator проверяет email/пароль по таблице users.
type CredentialsAuthenticator struct {
	users  UsersRepo
	hasher PasswordHasher
}

// NewCredentialsAuthenticator создаёт CredentialsAuthenticator.
func NewCredentialsAuthenticator(users UsersRepo, hasher PasswordHasher) *CredentialsAuthenticator {
	return &CredentialsAuthenticator{users: users, hasher: hasher}
}

// Verify возвращает пользователя, если пароль совпал.
//
// Ошибки:
//   - ErrInvalidCredentials если email не найден или пароль не подошёл
//     (факт существования email не раскрывается)
//   - ErrInternal при сбое хэшера или БД
func (a *CredentialsAuthenticator) Verify(ctx context.Context, email, password string) (Principal, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Principal{}, serr.ErrInvalidCredentials
	}

	u, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return Principal{}, serr.ErrInvalidCredentials
		}
		return Principal{}, err
	}

	ok, err := a.hasher.Verify(password, u.Password)
	if err != nil {
		return Principal{}, serr.ErrInternal
	}
	if !ok {
		return Principal{}, serr.ErrInvalidCredentials
	}
	return Principal{UserID: u.ID, Email: u.Email}, nil
}

// AuthService реализует логин: проверку учётных данных и получение
// access-токена у сервера токенов.
type AuthService struct {
	authenticator Authenticator
	issuer        TokenIssuer
}

// NewAuthService создаёт AuthService.
func NewAuthService(authenticator Authenticator, issuer TokenIssuer) *AuthService {
	return &AuthService{authenticator: authenticator, issuer: issuer}
}

// Login проверяет учётные данные и обменивает их на access-токен.
//
// Порядок:
//  1. валидация email/password (ValidationError);
//  2. Authenticator.Verify;
//  3. password grant на сервер токенов с пустым scope.
//
// Любая ошибка шагов 2–3 возвращается как ErrInvalidCredentials,
// сбой сервера токенов приходит обёрнутым в неё вместе с ErrTokenIssuer.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)

	if ve := validateStruct(loginRules{Email: email, Password: password}); !ve.Empty() {
		return "", ve
	}

	if _, err := s.authenticator.Verify(ctx, email, password); err != nil {
		return "", errors.Join(serr.ErrInvalidCredentials, err)
	}

	tok, err := s.issuer.IssueToken(ctx, oauth.Credentials{
		Username: email,
		Password: password,
		Scope:    "",
	})
	if err != nil {
		return "", errors.Join(serr.ErrInvalidCredentials, err)
	}
	if tok.AccessToken == "" {
		return "", errors.Join(serr.ErrInvalidCredentials, serr.ErrTokenIssuer)
	}
	return tok.AccessToken, nil
}

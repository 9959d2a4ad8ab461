// Package service содержит бизнес-логику сервиса пользователей.
// Это прослойка между HTTP-обработчиками (api) и хранилищем данных (repository).
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/config"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/models"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/oauth"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/storage"
)

// Repositories: набор интерфейсов, которые сервисный слой ожидает от слоя repository.
type Repositories struct {
	Users    UsersRepo
	Sessions SessionsRepo
}

// Deps: внешние зависимости сервисов помимо базы.
type Deps struct {
	Hasher PasswordHasher
	Photos PhotoStore
	// Issuer: клиент сервера токенов, к которому обращается логин.
	Issuer TokenIssuer
}

// Services: агрегатор всех сервисов приложения.
type Services struct {
	Users  *UsersService
	Auth   *AuthService
	Tokens *TokenService
}

// NewServices собирает все сервисы приложения.
func NewServices(repos Repositories, deps Deps, cfg *config.Config) *Services {
	authenticator := NewCredentialsAuthenticator(repos.Users, deps.Hasher)

	return &Services{
		Users:  NewUsersService(repos.Users, deps.Hasher, deps.Photos, storage.NewRules(cfg.Photos)),
		Auth:   NewAuthService(authenticator, deps.Issuer),
		Tokens: NewTokenService(authenticator, repos.Sessions, cfg),
	}
}

// UsersRepo: репозиторий пользователей.
type UsersRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Insert(ctx context.Context, u models.User) (models.User, error)
	Update(ctx context.Context, u models.User) (models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SessionsRepo: refresh-сессии встроенного сервера токенов.
type SessionsRepo interface {
	Create(ctx context.Context, userID uuid.UUID, refreshHash []byte, expiresAt time.Time) (uuid.UUID, error)
	GetByRefreshHash(ctx context.Context, refreshHash []byte) (models.Session, error)
	RevokeAndReplace(ctx context.Context, oldID, newID uuid.UUID) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

// PasswordHasher: односторонняя функция хэширования паролей.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// PhotoStore: хранилище фото профиля.
type PhotoStore interface {
	Put(ctx context.Context, p storage.Photo) (string, error)
	Delete(ctx context.Context, key string) error
}

// Authenticator проверяет пару email/пароль.
type Authenticator interface {
	Verify(ctx context.Context, email, password string) (Principal, error)
}

// TokenIssuer обменивает проверенные учётные данные на access-токен.
type TokenIssuer interface {
	IssueToken(ctx context.Context, cred oauth.Credentials) (oauth.Token, error)
}

// Principal: аутентифицированный пользователь.
type Principal struct {
	UserID uuid.UUID
	Email  string
}

// Package repository содержит реализации слоя доступа к данным (Repository layer).
//
// Репозитории инкапсулируют работу с БД и не содержат бизнес-логики.
// Все ошибки приводятся к доменным ошибкам из internal/shared/errors.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/models"
	serr "github.com/IvanChernomyrdin/go-user-accounts/internal/shared/errors"
)

// SessionsRepository отвечает за хранение refresh-сессий,
// которые выдаёт встроенный сервер токенов.
//
// Используется для:
//   - хранения refresh-токенов (в виде хэшей)
//   - реализации refresh token rotation
//   - отзыва всех сессий пользователя при reuse detection
type SessionsRepository struct {
	db *sql.DB
}

// NewSessionsRepository создает новый SessionsRepository.
func NewSessionsRepository(db *sql.DB) *SessionsRepository {
	return &SessionsRepository{db: db}
}

// Create создает новую refresh-сессию пользователя.
//
// Возвращает:
//   - id созданной сессии
//   - ErrConflict при нарушении уникальности или ErrInternal при других ошибках БД
func (r *SessionsRepository) Create(ctx context.Context, userID uuid.UUID, refreshHash []byte, expiresAt time.Time) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sessions (user_id, refresh_hash, expires_at)
		 VALUES ($1,$2,$3)
		 RETURNING id`,
		userID, refreshHash, expiresAt,
	).Scan(&id)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, serr.ErrAlreadyExists
		}
		return uuid.Nil, serr.ErrInternal
	}
	return id, nil
}

// GetByRefreshHash возвращает сессию по хэшу refresh-токена.
//
// Ошибки:
//   - ErrUnauthorized если сессия не найдена или ErrInternal при ошибке БД
func (r *SessionsRepository) GetByRefreshHash(ctx context.Context, refreshHash []byte) (models.Session, error) {
	var (
		s         models.Session
		revokedAt sql.NullTime
		replaced  sql.NullString
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, revoked_at, replaced_by
		   FROM sessions
		  WHERE refresh_hash=$1`,
		refreshHash,
	).Scan(&s.ID, &s.UserID, &s.ExpiresAt, &revokedAt, &replaced)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, serr.ErrUnauthorized
		}
		return models.Session{}, serr.ErrInternal
	}

	if revokedAt.Valid {
		t := revokedAt.Time
		s.RevokedAt = &t
	}
	if replaced.Valid {
		if id, e := uuid.Parse(replaced.String); e == nil {
			s.ReplacedBy = &id
		}
	}

	return s, nil
}

// RevokeAndReplace отзывает старую refresh-сессию
// и помечает ее замененной новой.
func (r *SessionsRepository) RevokeAndReplace(ctx context.Context, oldID, newID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		    SET revoked_at = now(),
		        replaced_by = $2
		  WHERE id = $1
		    AND revoked_at IS NULL`,
		oldID, newID,
	)
	if err != nil {
		return serr.ErrInternal
	}
	return nil
}

// RevokeAllForUser отзывает все активные refresh-сессии пользователя.
func (r *SessionsRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		    SET revoked_at = now()
		  WHERE user_id = $1
		    AND revoked_at IS NULL`,
		userID,
	)
	if err != nil {
		return serr.ErrInternal
	}
	return nil
}

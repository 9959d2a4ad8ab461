package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/models"
	serr "github.com/IvanChernomyrdin/go-user-accounts/internal/shared/errors"
)

// UsersRepository хранит пользователей в таблице users.
type UsersRepository struct {
	db *sql.DB
}

// NewUsersRepository создает новый UsersRepository.
func NewUsersRepository(db *sql.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, photo, created_at, updated_at`

// FindByID возвращает пользователя по id или ErrNotFound.
func (r *UsersRepository) FindByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=$1`,
		id,
	)
	return scanUser(row)
}

// FindByEmail возвращает пользователя по email или ErrNotFound.
func (r *UsersRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=$1`,
		email,
	)
	return scanUser(row)
}

// Insert создаёт пользователя. id и временные метки проставляет база.
//
// Ошибки:
//   - ErrAlreadyExists если email уже занят (unique_violation)
//   - ErrInternal при других ошибках БД
func (r *UsersRepository) Insert(ctx context.Context, u models.User) (models.User, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, photo)
		 VALUES ($1,$2,$3,$4,$5)
		 RETURNING id, created_at, updated_at`,
		u.Email, u.Password, u.FirstName, u.LastName, u.Photo,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		return models.User{}, mapWriteError(err)
	}
	return u, nil
}

// Update перезаписывает изменяемые поля пользователя.
//
// Ошибки:
//   - ErrNotFound если записи уже нет
//   - ErrAlreadyExists если новый email занят другим пользователем
func (r *UsersRepository) Update(ctx context.Context, u models.User) (models.User, error) {
	err := r.db.QueryRowContext(ctx,
		`UPDATE users
		    SET email = $2,
		        password_hash = $3,
		        first_name = $4,
		        last_name = $5,
		        photo = $6,
		        updated_at = now()
		  WHERE id = $1
		  RETURNING created_at, updated_at`,
		u.ID, u.Email, u.Password, u.FirstName, u.LastName, u.Photo,
	).Scan(&u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, serr.ErrNotFound
		}
		return models.User{}, mapWriteError(err)
	}
	return u, nil
}

// Delete удаляет пользователя без возможности восстановления.
func (r *UsersRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return serr.ErrInternal
	}
	n, err := res.RowsAffected()
	if err != nil {
		return serr.ErrInternal
	}
	if n == 0 {
		return serr.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (models.User, error) {
	var (
		u     models.User
		photo sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &photo, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, serr.ErrNotFound
		}
		return models.User{}, serr.ErrInternal
	}
	if photo.Valid {
		p := photo.String
		u.Photo = &p
	}
	return u, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		return serr.ErrAlreadyExists
	}
	return serr.ErrInternal
}

// Серверная модель пользователя
package models

import (
	"time"

	"github.com/google/uuid"
)

// User: запись таблицы users.
//
// Password всегда содержит результат хэширования, plaintext не хранится.
// Photo: относительный путь до файла в хранилище фото (nil, если фото нет).
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Photo     *string   `json:"photo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session: refresh-сессия, выданная встроенным сервером токенов.
type Session struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *uuid.UUID
}

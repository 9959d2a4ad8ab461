// Package errors содержит общие доменные ошибки приложения
// и утилиты для error wrapping.
//
// Эти ошибки используются в service и repository слоях
// и маппятся на HTTP-статусы в api слое.
package errors

import (
	"errors"
	"sort"
	"strings"
)

var (
	// Входные данные невалидны (пустые поля, неправильный формат и т.п.)
	ErrInvalidInput = errors.New("invalid input")
	// Неверные учётные данные
	ErrInvalidCredentials = errors.New("invalid credentials")
	// Получена непредвиденная ошибка
	ErrInternal = errors.New("internal error")
	// Полученные JSON данные с ошибками
	ErrBadJSON = errors.New("bad json")
	// Неавторизован
	ErrUnauthorized = errors.New("unauthorized")
	// Ресурс уже существует (например email уже занят)
	ErrAlreadyExists = errors.New("already exists")
	// Ресурс не найден
	ErrNotFound = errors.New("not found")
)

// внешние зависимости
var (
	// сервер токенов не выдал access токен
	ErrTokenIssuer = errors.New("token issuer failure")
	// не удалось сохранить фото
	ErrPhotoStore = errors.New("photo store failure")
	// клиент oauth не прошёл проверку client_id/client_secret
	ErrInvalidClient = errors.New("invalid client")
	// grant_type не поддерживается
	ErrUnsupportedGrant = errors.New("unsupported grant type")
)

// ValidationError: ошибка валидации с перечнем полей и причин.
//
// errors.Is(err, ErrInvalidInput) для неё возвращает true,
// поэтому api слой может обрабатывать её как обычную ошибку ввода,
// а через errors.As достать конкретные поля.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError создаёт пустую ошибку валидации.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add добавляет сообщение для поля.
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty: нет ни одной ошибки.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil возвращает nil, если ошибок не набралось.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// FieldError: короткий способ получить ValidationError с одним полем.
func FieldError(field, msg string) *ValidationError {
	ve := NewValidationError()
	ve.Add(field, msg)
	return ve
}

// Package api реализует HTTP-слой сервиса пользователей.
//
// Пакет отвечает за:
//   - разбор входящих запросов (JSON, form, multipart с фото);
//   - вызов сервисного слоя и формирование ответов (JSON, статусы);
//   - маппинг доменных ошибок (service/repository) в HTTP-коды и сообщения.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/middleware"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/service"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/shared/logger"
)

// Каждый метод если будет возвращать ответ то будет это делать в JSON
// Вынес Content-Type и JSON для удобства
const (
	JsonContentType string = "application/json"
	ContentType     string = "Content-Type"
)

// Тексты ответов, на которые завязаны клиенты.
const (
	MsgUserNotFound       = "User not found."
	MsgInvalidCredentials = "Invalid credentials."
	MsgUserCreated        = "User created successfully"
	MsgUserUpdated        = "User updated successfully"
	MsgUserDeleted        = "User deleted successfully"
	MsgUserRegistered     = "User registered successfully"
	MsgInvalidData        = "The given data was invalid."
)

// Options: настройки поведения хендлеров.
type Options struct {
	// HidePasswordHash убирает хэш пароля из ответа GET /users/{id}.
	HidePasswordHash bool
	// MaxBodyBytes ограничивает размер тела запроса (включая фото).
	MaxBodyBytes int64
}

// Handler агрегирует зависимости HTTP-слоя и предоставляет методы-хендлеры.
//
// Handler содержит:
//   - Svc: сервисный слой (бизнес-логика);
//   - Log: логгер для записи событий и ошибок;
//   - Verifier: компонент проверки JWT и middleware авторизации.
type Handler struct {
	Svc      *service.Services
	Log      *logger.HTTPLogger
	Verifier *middleware.JWTVerifier
	Opts     Options
}

// NewHandler создаёт экземпляр Handler с переданными зависимостями.
func NewHandler(svc *service.Services, log *logger.HTTPLogger, verifier *middleware.JWTVerifier, opts Options) *Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 8 << 20
	}
	return &Handler{
		Svc:      svc,
		Log:      log,
		Verifier: verifier,
		Opts:     opts,
	}
}

// ErrorResponse стандартный формат ошибки API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse: успешный ответ с сообщением.
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationErrorResponse: ответ 422 с ошибками по полям.
type ValidationErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// writeJSON пишет v как JSON с заданным статусом.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(ContentType, JsonContentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError вспомогательная функция вывода ошибки
func WriteError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageResponse{Message: msg})
}

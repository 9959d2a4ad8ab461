// HTTP-хендлеры CRUD пользователей
package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/middleware"
	serr "github.com/IvanChernomyrdin/go-user-accounts/internal/shared/errors"
)

// userIDParam достаёт id пользователя из пути. Невалидный uuid означает,
// что такого пользователя точно нет.
func userIDParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// ShowUser возвращает пользователя по id.
//
// Публичный эндпоинт. Запись отдаётся целиком, включая хэш пароля,
// если не включён users.hide_password_hash.
//
// @Summary      Show user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User ID (uuid)"
// @Success      200  {object}  models.User
// @Failure      404  {object}  ErrorResponse  "User not found."
// @Router       /users/{id} [get]
func (h *Handler) ShowUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(r)
	if !ok {
		WriteError(w, http.StatusNotFound, MsgUserNotFound)
		return
	}

	u, err := h.Svc.Users.Show(r.Context(), id)
	if err != nil {
		h.writeUserError(w, r, "show user failed", err)
		return
	}

	if h.Opts.HidePasswordHash {
		u.Password = ""
	}
	writeJSON(w, http.StatusOK, u)
}

// StoreUser создаёт пользователя.
//
// Требует JWT-аутентификацию. Принимает JSON, form или multipart (фото в поле photo).
//
// @Summary      Create user
// @Tags         users
// @Accept       json,mpfd,x-www-form-urlencoded
// @Produce      json
// @Security     BearerAuth
// @Description  Photo is accepted only in multipart/form-data, field "photo" (jpeg, png, jpg, gif; max 2048 KB).
// @Param        request     body      UserRequest  true   "User fields"
// @Success      201  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse  "Bad JSON"
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      422  {object}  ValidationErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users [post]
func (h *Handler) StoreUser(w http.ResponseWriter, r *http.Request) {
	in, err := h.decodeUserInput(w, r)
	if err != nil {
		h.writeUserError(w, r, "decode user failed", err)
		return
	}

	u, err := h.Svc.Users.Store(r.Context(), in)
	if err != nil {
		h.writeUserError(w, r, "store user failed", err)
		return
	}

	h.Log.Logger.Sugar().Infow("user created", "user_id", u.ID.String(), "by", actor(r))
	writeMessage(w, http.StatusCreated, MsgUserCreated)
}

// UpdateUser обновляет пользователя.
//
// Несуществующий id даёт 404 до проверки тела запроса.
// Пароль меняется только если передан, фото только если загружен новый файл.
//
// @Summary      Update user
// @Tags         users
// @Accept       json,mpfd,x-www-form-urlencoded
// @Produce      json
// @Security     BearerAuth
// @Param        id          path      string       true   "User ID (uuid)"
// @Description  Photo is accepted only in multipart/form-data, field "photo".
// @Param        request     body      UserRequest  true   "User fields, password optional"
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "User not found."
// @Failure      422  {object}  ValidationErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id} [put]
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(r)
	if !ok {
		WriteError(w, http.StatusNotFound, MsgUserNotFound)
		return
	}

	in, decodeErr := h.decodeUserInput(w, r)
	if decodeErr != nil {
		// несуществующий пользователь важнее битого тела
		if _, err := h.Svc.Users.Show(r.Context(), id); err != nil {
			h.writeUserError(w, r, "update user failed", err)
			return
		}
		h.writeUserError(w, r, "decode user failed", decodeErr)
		return
	}

	if _, err := h.Svc.Users.Update(r.Context(), id, in); err != nil {
		h.writeUserError(w, r, "update user failed", err)
		return
	}

	h.Log.Logger.Sugar().Infow("user updated", "user_id", id.String(), "by", actor(r))
	writeMessage(w, http.StatusOK, MsgUserUpdated)
}

// DestroyUser удаляет пользователя.
//
// @Summary      Delete user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID (uuid)"
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "User not found."
// @Failure      500  {object}  ErrorResponse
// @Router       /users/{id} [delete]
func (h *Handler) DestroyUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(r)
	if !ok {
		WriteError(w, http.StatusNotFound, MsgUserNotFound)
		return
	}

	if err := h.Svc.Users.Destroy(r.Context(), id); err != nil {
		h.writeUserError(w, r, "destroy user failed", err)
		return
	}

	h.Log.Logger.Sugar().Infow("user deleted", "user_id", id.String(), "by", actor(r))
	writeMessage(w, http.StatusOK, MsgUserDeleted)
}

// writeUserError маппит ошибки сервиса пользователей в HTTP-ответ.
func (h *Handler) writeUserError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var (
		ve     *serr.ValidationError
		tooBig *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Message: MsgInvalidData,
			Errors:  ve.Fields,
		})
	case errors.Is(err, serr.ErrNotFound):
		WriteError(w, http.StatusNotFound, MsgUserNotFound)
	case errors.As(err, &tooBig):
		WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, serr.ErrBadJSON):
		WriteError(w, http.StatusBadRequest, serr.ErrBadJSON.Error())
	case errors.Is(err, serr.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, serr.ErrInvalidInput.Error())
	default:
		h.Log.Logger.Sugar().Errorw(msg, "error", err, "path", r.URL.Path)
		WriteError(w, http.StatusInternalServerError, serr.ErrInternal.Error())
	}
}

// actor: id пользователя из access-токена, для логов.
func actor(r *http.Request) string {
	id, _ := middleware.UserIDFromContext(r.Context())
	return id
}

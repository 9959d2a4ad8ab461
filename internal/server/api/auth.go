// HTTP-хендлеры регистрации и логина
package api

import (
	"errors"
	"net/http"

	serr "github.com/IvanChernomyrdin/go-user-accounts/internal/shared/errors"
)

// LoginResponse описывает успешный ответ входа пользователя.
type LoginResponse struct {
	Token string `json:"token"`
}

// Login проверяет учётные данные и возвращает access-токен сервера токенов.
//
// Ответы:
//   - 200 OK: {"token": "..."};
//   - 401 Unauthorized: неверные учётные данные или сервер токенов отказал;
//   - 422 Unprocessable Entity: не заполнены email/password.
//
// @Summary      Login
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        request  body      LoginRequest  true  "Credentials"
// @Success      200      {object}  LoginResponse
// @Failure      401      {object}  ErrorResponse  "Invalid credentials."
// @Failure      422      {object}  ValidationErrorResponse
// @Router       /login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeLogin(w, r)
	if err != nil {
		h.writeUserError(w, r, "decode login failed", err)
		return
	}

	token, err := h.Svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var ve *serr.ValidationError
		if errors.As(err, &ve) {
			h.writeUserError(w, r, "login failed", err)
			return
		}
		// любой сбой логина отдаётся как неверные учётные данные
		if errors.Is(err, serr.ErrTokenIssuer) || errors.Is(err, serr.ErrInternal) {
			h.Log.Logger.Sugar().Warnw("login failed", "error", err)
		}
		WriteError(w, http.StatusUnauthorized, MsgInvalidCredentials)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// Register регистрирует пользователя. Фото при регистрации не принимается.
//
// @Summary      Register
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        request  body      UserRequest  true  "User fields"
// @Success      201      {object}  MessageResponse
// @Failure      400      {object}  ErrorResponse  "Bad JSON"
// @Failure      422      {object}  ValidationErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	in, err := h.decodeUserInput(w, r)
	if err != nil {
		h.writeUserError(w, r, "decode register failed", err)
		return
	}

	u, err := h.Svc.Users.Register(r.Context(), in)
	if err != nil {
		h.writeUserError(w, r, "register failed", err)
		return
	}

	h.Log.Logger.Sugar().Infow("user registered", "user_id", u.ID.String())
	writeMessage(w, http.StatusCreated, MsgUserRegistered)
}

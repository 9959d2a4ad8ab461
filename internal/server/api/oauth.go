// HTTP-хендлер встроенного сервера токенов
package api

import (
	"errors"
	"net/http"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/oauth"
	serr "github.com/IvanChernomyrdin/go-user-accounts/internal/shared/errors"
)

// OAuthErrorResponse: ошибка в формате OAuth2 (RFC 6749, 5.2).
type OAuthErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// Token выдаёт токены по grant_type=password и grant_type=refresh_token.
//
// Сюда же ходит логин через oauth.Client, когда app.url указывает на этот сервер.
//
// @Summary      Issue token
// @Tags         oauth
// @Accept       x-www-form-urlencoded,json
// @Produce      json
// @Param        grant_type     formData  string  true   "password | refresh_token"
// @Param        client_id      formData  string  true   "OAuth client id"
// @Param        client_secret  formData  string  true   "OAuth client secret"
// @Param        username       formData  string  false  "Email (password grant)"
// @Param        password       formData  string  false  "Password (password grant)"
// @Param        refresh_token  formData  string  false  "Refresh token (refresh_token grant)"
// @Param        scope          formData  string  false  "Scope"
// @Success      200  {object}  oauth.Token
// @Failure      400  {object}  OAuthErrorResponse
// @Failure      401  {object}  OAuthErrorResponse
// @Router       /oauth/token [post]
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeTokenRequest(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, OAuthErrorResponse{
			Error:       "invalid_request",
			Description: "The request is missing a required parameter or is malformed.",
		})
		return
	}

	tok, err := h.Svc.Tokens.Issue(r.Context(), req)
	if err != nil {
		h.writeOAuthError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, tokenResponse(tok))
}

func tokenResponse(t oauth.Token) oauth.Token {
	if t.TokenType == "" {
		t.TokenType = "Bearer"
	}
	return t
}

func (h *Handler) writeOAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, serr.ErrInvalidClient):
		w.Header().Set("WWW-Authenticate", `Basic realm="oauth"`)
		writeJSON(w, http.StatusUnauthorized, OAuthErrorResponse{
			Error:       "invalid_client",
			Description: "Client authentication failed",
		})
	case errors.Is(err, serr.ErrUnsupportedGrant):
		writeJSON(w, http.StatusBadRequest, OAuthErrorResponse{
			Error:       "unsupported_grant_type",
			Description: "The authorization grant type is not supported by the authorization server.",
		})
	case errors.Is(err, serr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, OAuthErrorResponse{
			Error:       "invalid_request",
			Description: "The request is missing a required parameter or is malformed.",
		})
	case errors.Is(err, serr.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, OAuthErrorResponse{
			Error:       "invalid_grant",
			Description: "The user credentials were incorrect.",
		})
	case errors.Is(err, serr.ErrUnauthorized):
		writeJSON(w, http.StatusBadRequest, OAuthErrorResponse{
			Error:       "invalid_grant",
			Description: "The refresh token is invalid.",
		})
	default:
		h.Log.Logger.Sugar().Errorw("issue token failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, OAuthErrorResponse{Error: "server_error"})
	}
}

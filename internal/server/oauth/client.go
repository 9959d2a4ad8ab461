// Package oauth содержит HTTP-клиент сервера токенов (OAuth2 password grant).
//
// Сервер пользователей не выпускает токен при логине сам, а пересылает
// проверенные учётные данные на эндпоинт выдачи токенов (по умолчанию
// app.url + /oauth/token) и отдаёт клиенту полученный access_token.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	serr "github.com/IvanChernomyrdin/go-user-accounts/internal/shared/errors"
)

// Credentials: учётные данные пользователя для password grant.
type Credentials struct {
	Username string
	Password string
	Scope    string
}

// Token: ответ сервера токенов.
type Token struct {
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Client обращается к эндпоинту выдачи токенов.
type Client struct {
	tokenURL     string
	clientID     string
	clientSecret string
	http         *http.Client
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет http.Client (например, в тестах).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient создаёт клиента сервера токенов.
//
// timeout ограничивает весь запрос к серверу токенов, 0 означает 30 секунд.
func NewClient(tokenURL, clientID, clientSecret string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// IssueToken выполняет password grant и возвращает выданный токен.
//
// Запрос уходит form-encoded:
// grant_type=password, client_id, client_secret, username, password, scope.
//
// Любой не-2xx ответ, ошибка сети или пустой access_token
// возвращаются как ошибка, обёрнутая в ErrTokenIssuer.
// Повторов нет.
func (c *Client) IssueToken(ctx context.Context, cred Credentials) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("username", cred.Username)
	form.Set("password", cred.Password)
	form.Set("scope", cred.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("%w: build request: %v", serr.ErrTokenIssuer, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", serr.ErrTokenIssuer, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Token{}, fmt.Errorf("%w: %s", serr.ErrTokenIssuer, readErrorBody(res))
	}

	var tok Token
	if err := json.NewDecoder(res.Body).Decode(&tok); err != nil {
		return Token{}, fmt.Errorf("%w: decode response: %v", serr.ErrTokenIssuer, err)
	}
	if tok.AccessToken == "" {
		return Token{}, fmt.Errorf("%w: empty access_token", serr.ErrTokenIssuer)
	}
	return tok, nil
}

// readErrorBody достаёт описание ошибки из ответа сервера токенов.
// Понимает OAuth2-формат {error, error_description}, иначе отдаёт тело как есть.
func readErrorBody(res *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))

	var oe struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal(raw, &oe); err == nil && oe.Error != "" {
		if oe.Description != "" {
			return oe.Error + ": " + oe.Description
		}
		return oe.Error
	}

	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = res.Status
	}
	return msg
}


// В этом файле описаны методы клиента для эндпоинтов сервера:
// регистрация, вход и CRUD пользователей.
package api

import (
	"net/http"
	"net/url"
)

// MessageResponse: ответ сервера с текстовым сообщением.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest описывает тело запроса входа пользователя.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse: access токен, полученный от сервера токенов.
type LoginResponse struct {
	Token string `json:"token"`
}

// User: пользователь в ответе GET /users/{id}.
type User struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Password  string  `json:"password,omitempty"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Photo     *string `json:"photo"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// UserFields: поля пользователя для register/create/update.
//
// Пустой Password при обновлении не отправляется, и сервер оставляет прежний пароль.
// PhotoPath: путь к файлу фото на диске. Если задан, запрос уходит как multipart.
type UserFields struct {
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PhotoPath string `json:"-"`
}

func (f UserFields) form() *Form {
	form := (&Form{}).
		Field("email", f.Email).
		Field("first_name", f.FirstName).
		Field("last_name", f.LastName)
	if f.Password != "" {
		form.Field("password", f.Password)
	}
	if f.PhotoPath != "" {
		form.File("photo", f.PhotoPath)
	}
	return form
}

// Register регистрирует пользователя (POST /register). Фото не передаётся.
func (c *Client) Register(f UserFields) (MessageResponse, error) {
	f.PhotoPath = ""
	var resp MessageResponse
	err := c.PostJSON("/register", f, &resp, "")
	return resp, err
}

// Login выполняет вход (POST /login) и возвращает access токен.
func (c *Client) Login(email, password string) (LoginResponse, error) {
	var resp LoginResponse
	err := c.PostJSON("/login", LoginRequest{Email: email, Password: password}, &resp, "")
	return resp, err
}

// GetUser возвращает пользователя по id. Эндпоинт публичный.
func (c *Client) GetUser(id string) (User, error) {
	var resp User
	err := c.GetJSON("/users/"+url.PathEscape(id), &resp, "")
	return resp, err
}

// CreateUser создаёт пользователя (POST /users).
func (c *Client) CreateUser(f UserFields, accessToken string) (MessageResponse, error) {
	return c.sendUser(http.MethodPost, "/users", f, accessToken)
}

// UpdateUser обновляет пользователя (PUT /users/{id}).
func (c *Client) UpdateUser(id string, f UserFields, accessToken string) (MessageResponse, error) {
	return c.sendUser(http.MethodPut, "/users/"+url.PathEscape(id), f, accessToken)
}

// DeleteUser удаляет пользователя (DELETE /users/{id}).
func (c *Client) DeleteUser(id, accessToken string) (MessageResponse, error) {
	var resp MessageResponse
	err := c.DeleteJSON("/users/"+url.PathEscape(id), &resp, accessToken)
	return resp, err
}

func (c *Client) sendUser(method, path string, f UserFields, accessToken string) (MessageResponse, error) {
	var resp MessageResponse
	var err error
	if f.PhotoPath != "" {
		err = c.SendMultipart(method, path, f.form(), &resp, accessToken)
	} else if method == http.MethodPost {
		err = c.PostJSON(path, f, &resp, accessToken)
	} else {
		err = c.PutJSON(path, f, &resp, accessToken)
	}
	return resp, err
}

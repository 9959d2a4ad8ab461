package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/service"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/storage"
	serr "github.com/IvanChernomyrdin/go-user-accounts/internal/shared/errors"
)

// multipartMemory: сколько multipart-формы держим в памяти, остальное уходит во временные файлы.
const multipartMemory = 4 << 20

// UserRequest: поля пользователя в JSON-теле запроса.
//
// В multipart/form запросах те же имена полей, фото передаётся файлом в поле photo.
type UserRequest struct {
	Email     string  `json:"email" example:"a@x.com"`
	Password  *string `json:"password,omitempty" example:"secret"`
	FirstName string  `json:"first_name" example:"Ann"`
	LastName  string  `json:"last_name" example:"Lee"`
}

// LoginRequest описывает тело запроса входа пользователя.
type LoginRequest struct {
	Email    string `json:"email" example:"a@x.com"`
	Password string `json:"password" example:"secret"`
}

// requestKind определяет формат тела по Content-Type.
func requestKind(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get(ContentType))
	if err != nil {
		return ""
	}
	return mt
}

// decodeUserInput читает поля пользователя из JSON, urlencoded или multipart тела.
//
// Пустой пароль считается непереданным. Фото читается только из multipart.
func (h *Handler) decodeUserInput(w http.ResponseWriter, r *http.Request) (service.UserInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Opts.MaxBodyBytes)

	var in service.UserInput

	switch requestKind(r) {
	case JsonContentType:
		var req UserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return in, fmt.Errorf("%w: %w", serr.ErrBadJSON, err)
		}
		in = service.UserInput{
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		}

	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return in, fmt.Errorf("%w: %w", serr.ErrInvalidInput, err)
		}
		in = userInputFromForm(r)

		photo, err := readPhoto(r)
		if err != nil {
			return in, err
		}
		in.Photo = photo

	default:
		if err := r.ParseForm(); err != nil {
			return in, fmt.Errorf("%w: %w", serr.ErrInvalidInput, err)
		}
		in = userInputFromForm(r)
	}

	if in.Password != nil && *in.Password == "" {
		in.Password = nil
	}
	return in, nil
}

func userInputFromForm(r *http.Request) service.UserInput {
	in := service.UserInput{
		Email:     r.FormValue("email"),
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
	}
	if r.Form.Has("password") {
		p := r.FormValue("password")
		in.Password = &p
	}
	return in
}

// readPhoto достаёт файл photo из multipart формы. Пустой файл считается непереданным.
func readPhoto(r *http.Request) (*storage.Photo, error) {
	file, header, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", serr.ErrInvalidInput, err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read photo: %w", serr.ErrInvalidInput, err)
	}
	if len(content) == 0 {
		return nil, nil
	}
	return &storage.Photo{Filename: header.Filename, Content: content}, nil
}

// decodeLogin читает email/password из JSON или формы.
func (h *Handler) decodeLogin(w http.ResponseWriter, r *http.Request) (LoginRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Opts.MaxBodyBytes)

	var req LoginRequest
	if requestKind(r) == JsonContentType {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, fmt.Errorf("%w: %w", serr.ErrBadJSON, err)
		}
		return req, nil
	}

	if err := parseAnyForm(r); err != nil {
		return req, err
	}
	req.Email = r.FormValue("email")
	req.Password = r.FormValue("password")
	return req, nil
}

// tokenRequestFields: поля запроса к /oauth/token в JSON-виде.
type tokenRequestFields struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// decodeTokenRequest читает запрос на выдачу токена.
// Учётные данные клиента можно передать и через HTTP Basic.
func (h *Handler) decodeTokenRequest(w http.ResponseWriter, r *http.Request) (service.TokenRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Opts.MaxBodyBytes)

	var f tokenRequestFields
	if requestKind(r) == JsonContentType {
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			return service.TokenRequest{}, fmt.Errorf("%w: %w", serr.ErrBadJSON, err)
		}
	} else {
		if err := parseAnyForm(r); err != nil {
			return service.TokenRequest{}, err
		}
		f = tokenRequestFields{
			GrantType:    r.PostFormValue("grant_type"),
			ClientID:     r.PostFormValue("client_id"),
			ClientSecret: r.PostFormValue("client_secret"),
			Username:     r.PostFormValue("username"),
			Password:     r.PostFormValue("password"),
			RefreshToken: r.PostFormValue("refresh_token"),
			Scope:        r.PostFormValue("scope"),
		}
	}

	if id, secret, ok := r.BasicAuth(); ok && f.ClientID == "" {
		f.ClientID, f.ClientSecret = id, secret
	}

	return service.TokenRequest{
		GrantType:    strings.TrimSpace(f.GrantType),
		ClientID:     f.ClientID,
		ClientSecret: f.ClientSecret,
		Username:     f.Username,
		Password:     f.Password,
		RefreshToken: f.RefreshToken,
		Scope:        f.Scope,
	}, nil
}

func parseAnyForm(r *http.Request) error {
	var err error
	if requestKind(r) == "multipart/form-data" {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", serr.ErrInvalidInput, err)
	}
	return nil
}

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/api"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/config"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/crypto"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/models"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/oauth"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/service"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/service/mocks"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/storage"
	serr "github.com/IvanChernomyrdin/go-user-accounts/internal/shared/errors"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/shared/logger"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type fixture struct {
	router   http.Handler
	users    *mocks.MockUsersRepo
	sessions *mocks.MockSessionsRepo
	photos   *mocks.MockPhotoStore
	issuer   *mocks.MockTokenIssuer
	hasher   crypto.BcryptHasher
}

func testConfig() *config.Config {
	return &config.Config{
		OAuth: config.OAuthConfig{ClientID: "2", ClientSecret: "client-secret"},
		Auth: config.AuthConfig{
			Issuer:     "issuer",
			Audience:   "audience",
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
			JWT:        config.JWTConfig{Algorithm: "HS256", SigningKey: "supersecretkeysupersecretkey123456"},
			Sessions:   config.SessionsConfig{RotateRefresh: true, ReuseDetection: true},
		},
		Photos: config.PhotosConfig{MaxKB: 2048, AllowedTypes: []string{"jpeg", "png", "jpg", "gif"}},
	}
}

// собираем хендлеры на настоящих сервисах и моках хранилищ
func newFixture(t *testing.T, opts api.Options) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := fixture{
		users:    mocks.NewMockUsersRepo(ctrl),
		sessions: mocks.NewMockSessionsRepo(ctrl),
		photos:   mocks.NewMockPhotoStore(ctrl),
		issuer:   mocks.NewMockTokenIssuer(ctrl),
		hasher:   crypto.BcryptHasher{Cost: 4},
	}

	svc := service.NewServices(
		service.Repositories{Users: f.users, Sessions: f.sessions},
		service.Deps{Hasher: f.hasher, Photos: f.photos, Issuer: f.issuer},
		testConfig(),
	)
	h := api.NewHandler(svc, logger.NewNop(), nil, opts)

	r := chi.NewRouter()
	r.Post("/login", h.Login)
	r.Post("/register", h.Register)
	r.Post("/oauth/token", h.Token)
	r.Get("/users/{id}", h.ShowUser)
	r.Post("/users", h.StoreUser)
	r.Put("/users/{id}", h.UpdateUser)
	r.Delete("/users/{id}", h.DestroyUser)
	f.router = r
	return f
}

func (f fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	require.Equal(t, msg, decode[api.ErrorResponse](t, rec).Error)
}

// ---------- show ----------

// Ответ содержит запись целиком, включая хэш пароля
func TestShowUser_OK(t *testing.T) {
	f := newFixture(t, api.Options{})
	id := uuid.New()

	f.users.EXPECT().FindByID(gomock.Any(), id).
		Return(models.User{ID: id, Email: "a@x.com", Password: "$2a$04$hash", FirstName: "A", LastName: "B"}, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/users/"+id.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	require.Equal(t, id.String(), body["id"])
	require.Equal(t, "a@x.com", body["email"])
	require.Equal(t, "A", body["first_name"])
	require.Equal(t, "B", body["last_name"])
	require.Equal(t, "$2a$04$hash", body["password"])
	require.Contains(t, body, "photo")
}

func TestShowUser_HidePasswordHash(t *testing.T) {
	f := newFixture(t, api.Options{HidePasswordHash: true})
	id := uuid.New()

	f.users.EXPECT().FindByID(gomock.Any(), id).Return(models.User{ID: id, Password: "$2a$04$hash"}, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/users/"+id.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, decode[map[string]any](t, rec), "password")
}

func TestShowUser_NotFound(t *testing.T) {
	f := newFixture(t, api.Options{})
	id := uuid.New()

	f.users.EXPECT().FindByID(gomock.Any(), id).Return(models.User{}, serr.ErrNotFound)

	requireError(t, f.do(httptest.NewRequest(http.MethodGet, "/users/"+id.String(), nil)), http.StatusNotFound, "User not found.")
	// невалидный id тоже 404, без похода в базу
	requireError(t, f.do(httptest.NewRequest(http.MethodGet, "/users/42", nil)), http.StatusNotFound, "User not found.")
}

// ---------- store ----------

func TestStoreUser_JSON_OK(t *testing.T) {
	f := newFixture(t, api.Options{})

	f.users.EXPECT().FindByEmail(gomock.Any(), "a@x.com").Return(models.User{}, serr.ErrNotFound)
	f.users.EXPECT().Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u models.User) (models.User, error) {
			require.NotEqual(t, "secret", u.Password)
			u.ID = uuid.New()
			return u, nil
		})

	rec := f.do(jsonRequest(t, http.MethodPost, "/users", map[string]string{
		"email": "a@x.com", "password": "secret", "first_name": "A", "last_name": "B",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "User created successfully", decode[api.MessageResponse](t, rec).Message)
}

// Пароль на 80 символов: bcrypt не обрезает и не отказывает
func TestStoreUser_LongPassword(t *testing.T) {
	f := newFixture(t, api.Options{})

	long := strings.Repeat("p", 80)
	f.users.EXPECT().FindByEmail(gomock.Any(), "a@x.com").Return(models.User{}, serr.ErrNotFound)
	f.users.EXPECT().Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u models.User) (models.User, error) {
			ok, err := f.hasher.Verify(long, u.Password)
			require.NoError(t, err)
			require.True(t, ok)
			u.ID = uuid.New()
			return u, nil
		})

	rec := f.do(jsonRequest(t, http.MethodPost, "/users", map[string]string{
		"email": "a@x.com", "password": long, "first_name": "A", "last_name": "B",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "User created successfully", decode[api.MessageResponse](t, rec).Message)
}

// Пароль из двух символов
func TestStoreUser_ShortPassword(t *testing.T) {
	f := newFixture(t, api.Options{})

	f.users.EXPECT().FindByEmail(gomock.Any(), "a@x.com").Return(models.User{}, serr.ErrNotFound)

	rec := f.do(jsonRequest(t, http.MethodPost, "/users", map[string]string{
		"email": "a@x.com", "password": "ab", "first_name": "A", "last_name": "B",
	}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decode[api.ValidationErrorResponse](t, rec)
	require.Equal(t, "The given data was invalid.", body.Message)
	require.Equal(t, []string{"The password must be at least 6 characters."}, body.Errors["password"])
}

func TestStoreUser_Multipart_WithPhoto(t *testing.T) {
	f := newFixture(t, api.Options{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("email", "a@x.com")
	mw.WriteField("password", "secret")
	mw.WriteField("first_name", "A")
	mw.WriteField("last_name", "B")
	fw, err := mw.CreateFormFile("photo", "me.png")
	require.NoError(t, err)
	fw.Write(pngBytes)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/users", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	f.users.EXPECT().FindByEmail(gomock.Any(), "a@x.com").Return(models.User{}, serr.ErrNotFound)
	f.photos.EXPECT().Put(gomock.Any(), storage.Photo{Filename: "me.png", Content: pngBytes}).
		Return("user-photos/abc.png", nil)
	f.users.EXPECT().Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u models.User) (models.User, error) {
			require.Equal(t, "user-photos/abc.png", *u.Photo)
			u.ID = uuid.New()
			return u, nil
		})

	rec := f.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestStoreUser_BadJSON(t *testing.T) {
	f := newFixture(t, api.Options{})

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")

	requireError(t, f.do(req), http.StatusBadRequest, "bad json")
}

func TestStoreUser_BodyTooLarge(t *testing.T) {
	f := newFixture(t, api.Options{MaxBodyBytes: 64})

	req := jsonRequest(t, http.MethodPost, "/users", map[string]string{
		"email": "a@x.com", "password": strings.Repeat("x", 100), "first_name": "A", "last_name": "B",
	})
	require.Equal(t, http.StatusRequestEntityTooLarge, f.do(req).Code)
}

// Повторный email даёт 422 независимо от того, на каком шаге он обнаружен
func TestStoreUser_DuplicateEmail(t *testing.T) {
	f := newFixture(t, api.Options{})
	body := map[string]string{"email": "a@x.com", "password": "secret", "first_name": "A", "last_name": "B"}

	// предварительная проверка
	f.users.EXPECT().FindByEmail(gomock.Any(), "a@x.com").Return(models.User{ID: uuid.New()}, nil)
	rec := f.do(jsonRequest(t, http.MethodPost, "/users", body))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, []string{"The email has already been taken."}, decode[api.ValidationErrorResponse](t, rec).Errors["email"])

	// гонка на уникальном индексе
	f.users.EXPECT().FindByEmail(gomock.Any(), "a@x.com").Return(models.User{}, serr.ErrNotFound)
	f.users.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(models.User{}, serr.ErrAlreadyExists)
	rec = f.do(jsonRequest(t, http.MethodPost, "/users", body))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, []string{"The email has already been taken."}, decode[api.ValidationErrorResponse](t, rec).Errors["email"])
}

func TestStoreUser_InternalError(t *testing.T) {
	f := newFixture(t, api.Options{})

	f.users.EXPECT().FindByEmail(gomock.Any(), "a@x.com").Return(models.User{}, serr.ErrInternal)

	rec := f.do(jsonRequest(t, http.MethodPost, "/users", map[string]string{
		"email": "a@x.com", "password": "secret", "first_name": "A", "last_name": "B",
	}))
	requireError(t, rec, http.StatusInternalServerError, "internal error")
}

// ---------- update ----------

// 404 раньше валидации тела
func TestUpdateUser_NotFound(t *testing.T) {
	f := newFixture(t, api.Options{})
	id := uuid.New()

	f.users.EXPECT().FindByID(gomock.Any(), id).Return(models.User{}, serr.ErrNotFound)
	rec := f.do(jsonRequest(t, http.MethodPut, "/users/"+id.String(), map[string]string{"password": "x"}))
	requireError(t, rec, http.StatusNotFound, "User not found.")

	// битое тело для несуществующего пользователя тоже 404
	f.users.EXPECT().FindByID(gomock.Any(), id).Return(models.User{}, serr.ErrNotFound)
	req := httptest.NewRequest(http.MethodPut, "/users/"+id.String(), strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	requireError(t, f.do(req), http.StatusNotFound, "User not found.")
}

// Форма без пароля: хэш не меняется
func TestUpdateUser_Form_WithoutPassword(t *testing.T) {
	f := newFixture(t, api.Options{})
	id := uuid.New()

	f.users.EXPECT().FindByID(gomock.Any(), id).Return(models.User{ID: id, Email: "a@x.com", Password: "$2a$04$old"}, nil)
	f.users.EXPECT().FindByEmail(gomock.Any(), "b@x.com").Return(models.User{}, serr.ErrNotFound)
	f.users.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u models.User) (models.User, error) {
			require.Equal(t, "b@x.com", u.Email)
			require.Equal(t, "$2a$04$old", u.Password)
			return u, nil
		})

	form := url.Values{"email": {"b@x.com"}, "first_name": {"A"}, "last_name": {"B"}, "password": {""}}
	req := httptest.NewRequest(http.MethodPut, "/users/"+id.String(), strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "User updated successfully", decode[api.MessageResponse](t, rec).Message)
}

// Новый пароль перехэшируется
func TestUpdateUser_JSON_NewPassword(t *testing.T) {
	f := newFixture(t, api.Options{})
	id := uuid.New()

	f.users.EXPECT().FindByID(gomock.Any(), id).Return(models.User{ID: id, Email: "a@x.com", Password: "$2a$04$old"}, nil)
	f.users.EXPECT().FindByEmail(gomock.Any(), "a@x.com").Return(models.User{ID: id}, nil)
	f.users.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u models.User) (models.User, error) {
			ok, err := f.hasher.Verify("newsecret", u.Password)
			require.NoError(t, err)
			require.True(t, ok)
			return u, nil
		})

	rec := f.do(jsonRequest(t, http.MethodPut, "/users/"+id.String(), map[string]string{
		"email": "a@x.com", "password": "newsecret", "first_name": "A", "last_name": "B",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUpdateUser_Validation(t *testing.T) {
	f := newFixture(t, api.Options{})
	id := uuid.New()

	f.users.EXPECT().FindByID(gomock.Any(), id).Return(models.User{ID: id}, nil)

	rec := f.do(jsonRequest(t, http.MethodPut, "/users/"+id.String(), map[string]string{"email": "nope"}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	errs := decode[api.ValidationErrorResponse](t, rec).Errors
	require.Equal(t, []string{"The email must be a valid email address."}, errs["email"])
	require.Equal(t, []string{"The first name field is required."}, errs["first_name"])
	require.Equal(t, []string{"The last name field is required."}, errs["last_name"])
	require.NotContains(t, errs, "password")
}

// ---------- destroy ----------

func TestDestroyUser(t *testing.T) {
	f := newFixture(t, api.Options{})
	id := uuid.New()

	f.users.EXPECT().FindByID(gomock.Any(), id).Return(models.User{ID: id}, nil)
	f.users.EXPECT().Delete(gomock.Any(), id).Return(nil)

	rec := f.do(httptest.NewRequest(http.MethodDelete, "/users/"+id.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "User deleted successfully", decode[api.MessageResponse](t, rec).Message)

	f.users.EXPECT().FindByID(gomock.Any(), id).Return(models.User{}, serr.ErrNotFound)
	requireError(t, f.do(httptest.NewRequest(http.MethodDelete, "/users/"+id.String(), nil)), http.StatusNotFound, "User not found.")
}

// ---------- login / register ----------

func TestLogin_OK(t *testing.T) {
	f := newFixture(t, api.Options{})

	hash, err := f.hasher.Hash("secret")
	require.NoError(t, err)

	f.users.EXPECT().FindByEmail(gomock.Any(), "a@x.com").Return(models.User{ID: uuid.New(), Password: hash}, nil)
	f.issuer.EXPECT().
		IssueToken(gomock.Any(), oauth.Credentials{Username: "a@x.com", Password: "secret"}).
		Return(oauth.Token{AccessToken: "access-1"}, nil)

	rec := f.do(jsonRequest(t, http.MethodPost, "/login", map[string]string{"email": "a@x.com", "password": "secret"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "access-1", decode[api.LoginResponse](t, rec).Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t, api.Options{})

	hash, err := f.hasher.Hash("secret")
	require.NoError(t, err)
	f.users.EXPECT().FindByEmail(gomock.Any(), "a@x.com").Return(models.User{ID: uuid.New(), Password: hash}, nil)

	form := url.Values{"email": {"a@x.com"}, "password": {"wrong-password"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	requireError(t, f.do(req), http.StatusUnauthorized, "Invalid credentials.")
}

// Сервер токенов отказал: 401, а не 5xx
func TestLogin_IssuerFails(t *testing.T) {
	f := newFixture(t, api.Options{})

	hash, err := f.hasher.Hash("secret")
	require.NoError(t, err)
	f.users.EXPECT().FindByEmail(gomock.Any(), "a@x.com").Return(models.User{ID: uuid.New(), Password: hash}, nil)
	f.issuer.EXPECT().IssueToken(gomock.Any(), gomock.Any()).Return(oauth.Token{}, serr.ErrTokenIssuer)

	rec := f.do(jsonRequest(t, http.MethodPost, "/login", map[string]string{"email": "a@x.com", "password": "secret"}))
	requireError(t, rec, http.StatusUnauthorized, "Invalid credentials.")
}

func TestLogin_MissingFields(t *testing.T) {
	f := newFixture(t, api.Options{})

	rec := f.do(jsonRequest(t, http.MethodPost, "/login", map[string]string{}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	errs := decode[api.ValidationErrorResponse](t, rec).Errors
	require.Equal(t, []string{"The email field is required."}, errs["email"])
	require.Equal(t, []string{"The password field is required."}, errs["password"])
}

func TestRegister_OK(t *testing.T) {
	f := newFixture(t, api.Options{})

	f.users.EXPECT().FindByEmail(gomock.Any(), "a@x.com").Return(models.User{}, serr.ErrNotFound)
	f.users.EXPECT().Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u models.User) (models.User, error) {
			u.ID = uuid.New()
			return u, nil
		})

	rec := f.do(jsonRequest(t, http.MethodPost, "/register", map[string]string{
		"email": "a@x.com", "password": "secret", "first_name": "A", "last_name": "B",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "User registered successfully", decode[api.MessageResponse](t, rec).Message)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t, api.Options{})

	// email валиден, поэтому его уникальность проверяется вместе с остальными полями
	f.users.EXPECT().FindByEmail(gomock.Any(), "a@x.com").Return(models.User{ID: uuid.New()}, nil)

	rec := f.do(jsonRequest(t, http.MethodPost, "/register", map[string]string{"email": "a@x.com"}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	errs := decode[api.ValidationErrorResponse](t, rec).Errors
	require.Equal(t, []string{"The email has already been taken."}, errs["email"])
	require.Equal(t, []string{"The password field is required."}, errs["password"])
	require.Contains(t, errs, "first_name")
	require.Contains(t, errs, "last_name")
}

// ---------- oauth/token ----------

func tokenForm(v url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(v.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestToken_PasswordGrant(t *testing.T) {
	f := newFixture(t, api.Options{})
	userID := uuid.New()

	hash, err := f.hasher.Hash("secret")
	require.NoError(t, err)
	f.users.EXPECT().FindByEmail(gomock.Any(), "a@x.com").Return(models.User{ID: userID, Password: hash}, nil)
	f.sessions.EXPECT().Create(gomock.Any(), userID, gomock.Any(), gomock.Any()).Return(uuid.New(), nil)

	rec := f.do(tokenForm(url.Values{
		"grant_type":    {"password"},
		"client_id":     {"2"},
		"client_secret": {"client-secret"},
		"username":      {"a@x.com"},
		"password":      {"secret"},
		"scope":         {""},
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	tok := decode[oauth.Token](t, rec)
	require.Equal(t, "Bearer", tok.TokenType)
	require.NotEmpty(t, tok.AccessToken)
	require.NotEmpty(t, tok.RefreshToken)
}

func TestToken_Errors(t *testing.T) {
	tests := []struct {
		name   string
		form   url.Values
		status int
		code   string
	}{
		{"bad client", url.Values{"grant_type": {"password"}, "client_id": {"2"}, "client_secret": {"x"}}, http.StatusUnauthorized, "invalid_client"},
		{"unsupported", url.Values{"grant_type": {"implicit"}, "client_id": {"2"}, "client_secret": {"client-secret"}}, http.StatusBadRequest, "unsupported_grant_type"},
		{"missing username", url.Values{"grant_type": {"password"}, "client_id": {"2"}, "client_secret": {"client-secret"}}, http.StatusBadRequest, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, api.Options{})
			rec := f.do(tokenForm(tt.form))
			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, tt.code, decode[api.OAuthErrorResponse](t, rec).Error)
		})
	}
}

// client_id/client_secret через HTTP Basic
func TestToken_BasicAuthClient(t *testing.T) {
	f := newFixture(t, api.Options{})

	f.users.EXPECT().FindByEmail(gomock.Any(), "a@x.com").Return(models.User{}, serr.ErrNotFound)

	req := tokenForm(url.Values{"grant_type": {"password"}, "username": {"a@x.com"}, "password": {"secret"}})
	req.SetBasicAuth("2", "client-secret")

	rec := f.do(req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_grant", decode[api.OAuthErrorResponse](t, rec).Error)
}

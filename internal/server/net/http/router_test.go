package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/api"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/config"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/crypto"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/middleware"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/models"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/oauth"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/service"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/storage"
	serr "github.com/IvanChernomyrdin/go-user-accounts/internal/shared/errors"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/shared/logger"
)

// memUsers: in-memory репозиторий пользователей с уникальным email.
type memUsers struct {
	mu   sync.Mutex
	byID map[uuid.UUID]models.User
}

func (m *memUsers) FindByID(_ context.Context, id uuid.UUID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, serr.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, serr.ErrNotFound
}

func (m *memUsers) Insert(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.byID {
		if other.Email == u.Email {
			return models.User{}, serr.ErrAlreadyExists
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) Update(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[u.ID]; !ok {
		return models.User{}, serr.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return serr.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// memSessions: in-memory refresh-сессии.
type memSessions struct {
	mu     sync.Mutex
	byHash map[string]models.Session
}

func (m *memSessions) Create(_ context.Context, userID uuid.UUID, hash []byte, exp time.Time) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.byHash[string(hash)] = models.Session{ID: id, UserID: userID, ExpiresAt: exp}
	return id, nil
}

func (m *memSessions) GetByRefreshHash(_ context.Context, hash []byte) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byHash[string(hash)]
	if !ok {
		return models.Session{}, serr.ErrUnauthorized
	}
	return s, nil
}

func (m *memSessions) RevokeAndReplace(_ context.Context, oldID, newID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for h, s := range m.byHash {
		if s.ID == oldID {
			s.RevokedAt, s.ReplacedBy = &now, &newID
			m.byHash[h] = s
		}
	}
	return nil
}

func (m *memSessions) RevokeAllForUser(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for h, s := range m.byHash {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &now
			m.byHash[h] = s
		}
	}
	return nil
}

const signingKey = "supersecretkeysupersecretkey123456"

func testConfig(appURL string) *config.Config {
	return &config.Config{
		App:   config.AppConfig{URL: appURL},
		OAuth: config.OAuthConfig{TokenPath: "/oauth/token", ClientID: "2", ClientSecret: "client-secret", Timeout: 5 * time.Second},
		Auth: config.AuthConfig{
			Issuer:     "issuer",
			Audience:   "audience",
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
			JWT:        config.JWTConfig{Algorithm: "HS256", SigningKey: signingKey},
			Sessions:   config.SessionsConfig{RotateRefresh: true, ReuseDetection: true},
		},
		Photos: config.PhotosConfig{MaxKB: 2048, AllowedTypes: []string{"jpeg", "png", "jpg", "gif"}},
	}
}

type testServer struct {
	*httptest.Server
	users *memUsers
}

// newTestServer поднимает роутер целиком. Логин ходит за токеном
// через oauth.Client в /oauth/token этого же сервера.
func newTestServer(t *testing.T, photosDir string) testServer {
	t.Helper()

	users := &memUsers{byID: map[uuid.UUID]models.User{}}
	sessions := &memSessions{byHash: map[string]models.Session{}}

	// адрес сервера известен только после старта, поэтому хендлер подставляется позже
	var router http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	issuer := oauth.NewClient(cfg.TokenURL(), cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.Timeout)

	svc := service.NewServices(
		service.Repositories{Users: users, Sessions: sessions},
		service.Deps{
			Hasher: crypto.BcryptHasher{Cost: 4},
			Photos: storage.NewLocalStore(photosDir),
			Issuer: issuer,
		},
		cfg,
	)
	verifier := middleware.NewJWTVerifier(signingKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	h := api.NewHandler(svc, logger.NewNop(), verifier, api.Options{})
	router = NewRouter(h, RouterOptions{PhotosDir: photosDir, PhotosPrefix: "/storage"})

	return testServer{Server: srv, users: users}
}

func (s testServer) send(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var rdr *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (s testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := s.send(t, http.MethodPost, "/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, status, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func newUser(email, password string) map[string]string {
	return map[string]string{"email": email, "password": password, "first_name": "Ann", "last_name": "Lee"}
}

// Полный сценарий: регистрация, логин, CRUD под токеном
func TestRouter_UserLifecycle(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	status, body := s.send(t, http.MethodPost, "/register", "", newUser("ann@x.com", "secret"))
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "User registered successfully", body["message"])

	token := s.login(t, "ann@x.com", "secret")

	// пароль из двух символов
	status, body = s.send(t, http.MethodPost, "/users", token, newUser("bob@x.com", "ab"))
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Contains(t, body["errors"], "password")

	status, body = s.send(t, http.MethodPost, "/users", token, newUser("bob@x.com", "secret"))
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, "User created successfully", body["message"])

	bob, err := s.users.FindByEmail(context.Background(), "bob@x.com")
	require.NoError(t, err)
	require.NotEqual(t, "secret", bob.Password)

	status, body = s.send(t, http.MethodGet, "/users/"+bob.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "bob@x.com", body["email"])
	require.Equal(t, bob.Password, body["password"])

	// обновление без пароля сохраняет прежний хэш
	upd := map[string]string{"email": "bob@x.com", "first_name": "Bob", "last_name": "Lee"}
	status, body = s.send(t, http.MethodPut, "/users/"+bob.ID.String(), token, upd)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "User updated successfully", body["message"])

	after, err := s.users.FindByID(context.Background(), bob.ID)
	require.NoError(t, err)
	require.Equal(t, "Bob", after.FirstName)
	require.Equal(t, bob.Password, after.Password)

	// занятый email
	status, _ = s.send(t, http.MethodPut, "/users/"+bob.ID.String(), token,
		map[string]string{"email": "ann@x.com", "first_name": "Bob", "last_name": "Lee"})
	require.Equal(t, http.StatusUnprocessableEntity, status)

	status, body = s.send(t, http.MethodDelete, "/users/"+bob.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "User deleted successfully", body["message"])

	status, body = s.send(t, http.MethodGet, "/users/"+bob.ID.String(), "", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "User not found.", body["error"])

	status, _ = s.send(t, http.MethodPut, "/users/"+bob.ID.String(), token, map[string]string{})
	require.Equal(t, http.StatusNotFound, status)
}

func TestRouter_LoginInvalidCredentials(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	status, _ := s.send(t, http.MethodPost, "/register", "", newUser("ann@x.com", "secret"))
	require.Equal(t, http.StatusCreated, status)

	for _, creds := range []map[string]string{
		{"email": "ann@x.com", "password": "wrong-one"},
		{"email": "nobody@x.com", "password": "secret"},
	} {
		status, body := s.send(t, http.MethodPost, "/login", "", creds)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, "Invalid credentials.", body["error"])
	}
}

// Защищённые маршруты без токена или с чужим токеном
func TestRouter_ProtectedRoutes(t *testing.T) {
	s := newTestServer(t, t.TempDir())
	id := uuid.NewString()

	foreign, err := crypto.NewAccessToken(uuid.NewString(), "2", "", crypto.JWTConfig{
		Issuer: "issuer", Audience: "audience", SigningKey: "anotherkeyanotherkeyanotherkey1234", AccessTTL: time.Minute,
	})
	require.NoError(t, err)

	for _, token := range []string{"", "garbage", foreign} {
		for _, tc := range []struct{ method, path string }{
			{http.MethodPost, "/users"},
			{http.MethodPut, "/users/" + id},
			{http.MethodDelete, "/users/" + id},
		} {
			status, _ := s.send(t, tc.method, tc.path, token, newUser("x@x.com", "secret"))
			require.Equal(t, http.StatusUnauthorized, status, "%s %s", tc.method, tc.path)
		}
	}

	// show публичный
	status, _ := s.send(t, http.MethodGet, "/users/"+id, "", nil)
	require.Equal(t, http.StatusNotFound, status)
}

// refresh_token grant выдаёт новую пару, старый refresh больше не принимается
func TestRouter_OAuthRefresh(t *testing.T) {
	s := newTestServer(t, t.TempDir())

	status, _ := s.send(t, http.MethodPost, "/register", "", newUser("ann@x.com", "secret"))
	require.Equal(t, http.StatusCreated, status)

	status, tok := s.send(t, http.MethodPost, "/oauth/token", "", map[string]string{
		"grant_type": "password", "client_id": "2", "client_secret": "client-secret",
		"username": "ann@x.com", "password": "secret",
	})
	require.Equal(t, http.StatusOK, status)
	refresh, _ := tok["refresh_token"].(string)
	require.NotEmpty(t, refresh)

	refreshReq := map[string]string{
		"grant_type": "refresh_token", "client_id": "2", "client_secret": "client-secret", "refresh_token": refresh,
	}
	status, next := s.send(t, http.MethodPost, "/oauth/token", "", refreshReq)
	require.Equal(t, http.StatusOK, status)
	require.NotEqual(t, refresh, next["refresh_token"])

	status, body := s.send(t, http.MethodPost, "/oauth/token", "", refreshReq)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid_grant", body["error"])
}

// Фото из multipart сохраняется в local-хранилище и раздаётся по /storage
func TestRouter_PhotoUploadAndServe(t *testing.T) {
	dir := t.TempDir()
	s := newTestServer(t, dir)

	status, _ := s.send(t, http.MethodPost, "/register", "", newUser("ann@x.com", "secret"))
	require.Equal(t, http.StatusCreated, status)
	token := s.login(t, "ann@x.com", "secret")

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

	var buf bytes.Buffer
	mw := newMultipart(t, &buf, map[string]string{
		"email": "bob@x.com", "password": "secret", "first_name": "Bob", "last_name": "Lee",
	}, "photo", "bob.png", png)

	req, err := http.NewRequest(http.MethodPost, s.URL+"/users", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	bob, err := s.users.FindByEmail(context.Background(), "bob@x.com")
	require.NoError(t, err)
	require.NotNil(t, bob.Photo)
	require.True(t, strings.HasPrefix(*bob.Photo, storage.PhotosDir+"/"))

	onDisk, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(*bob.Photo)))
	require.NoError(t, err)
	require.Equal(t, png, onDisk)

	resp, err = s.Client().Get(s.URL + "/storage/" + *bob.Photo)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

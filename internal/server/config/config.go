// Package config отвечает за:
// - чтение server.yaml
// - подстановку переменных окружения вида ${OAUTH_CLIENT_SECRET}
// - переопределение полей через переменные окружения (env-теги)
// - проставление дефолтов
// - валидацию (чтобы сервер не стартовал с дырявыми настройками)
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config: корневая структура всего конфига сервера.
type Config struct {
	Env        string           `yaml:"env" env:"APP_ENV"` // dev|stage|prod
	Server     ServerConfig     `yaml:"server"`
	TLS        TLSConfig        `yaml:"tls"`
	DB         DBConfig         `yaml:"db"`
	Migrations MigrationsConfig `yaml:"migrations"`
	App        AppConfig        `yaml:"app"`
	OAuth      OAuthConfig      `yaml:"oauth"`
	Auth       AuthConfig       `yaml:"auth"`
	Password   PasswordConfig   `yaml:"password"`
	Photos     PhotosConfig     `yaml:"photos"`
	Users      UsersConfig      `yaml:"users"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig: настройки HTTP-сервера.
type ServerConfig struct {
	Host              string        `yaml:"host" env:"SERVER_HOST"`
	Port              int           `yaml:"port" env:"SERVER_PORT"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"` // время на graceful shutdown
	MaxHeaderBytes    int           `yaml:"max_header_bytes"` // лимит размера заголовков
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`   // лимит размера тела запроса
}

// TLSConfig: настройки HTTPS.
type TLSConfig struct {
	Enabled    bool   `yaml:"enabled" env:"TLS_ENABLED"`
	CertFile   string `yaml:"cert_file" env:"TLS_CERT_FILE"`
	KeyFile    string `yaml:"key_file" env:"TLS_KEY_FILE"`
	MinVersion string `yaml:"min_version"` // "1.2"|"1.3" (1.0/1.1 запрещаем т.к. устарели)
}

// DBConfig: настройки подключения к базе данных.
type DBConfig struct {
	DSN             string        `yaml:"dsn" env:"DATABASE_DSN"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// MigrationsConfig: настройки миграций БД.
type MigrationsConfig struct {
	Enabled bool   `yaml:"enabled" env:"MIGRATIONS_ENABLED"`
	Path    string `yaml:"path"`
}

// AppConfig: публичные параметры приложения.
type AppConfig struct {
	// URL: базовый адрес приложения, к нему достраивается путь до сервера токенов.
	URL string `yaml:"url" env:"APP_URL"`
}

// OAuthConfig: параметры обращения к серверу токенов (password grant).
type OAuthConfig struct {
	TokenPath    string        `yaml:"token_path"`
	ClientID     string        `yaml:"client_id" env:"OAUTH_CLIENT_ID"`
	ClientSecret string        `yaml:"client_secret" env:"OAUTH_CLIENT_SECRET"`
	Timeout      time.Duration `yaml:"timeout"`
}

// TokenURL собирает полный адрес эндпоинта выдачи токенов.
func (c *Config) TokenURL() string {
	return strings.TrimRight(c.App.URL, "/") + c.OAuth.TokenPath
}

// AuthConfig: настройки выпуска и проверки токенов.
type AuthConfig struct {
	Issuer     string         `yaml:"issuer"`
	Audience   string         `yaml:"audience"`
	AccessTTL  time.Duration  `yaml:"access_ttl"`
	RefreshTTL time.Duration  `yaml:"refresh_ttl"`
	JWT        JWTConfig      `yaml:"jwt"`
	Sessions   SessionsConfig `yaml:"sessions"`
}

// JWTConfig: как подписываем JWT.
type JWTConfig struct {
	Algorithm  string `yaml:"algorithm"`                         // сейчас поддерживаем только HS256
	SigningKey string `yaml:"signing_key" env:"JWT_SIGNING_KEY"` // может содержать ${JWT_SIGNING_KEY}
}

// SessionsConfig: настройки хранения refresh-сессий (на сервере).
type SessionsConfig struct {
	RotateRefresh  bool `yaml:"rotate_refresh"`
	ReuseDetection bool `yaml:"reuse_detection"`
}

// PasswordConfig: настройки хэширования паролей пользователей.
type PasswordConfig struct {
	Hasher string       `yaml:"hasher" env:"PASSWORD_HASHER"` // argon2id|bcrypt
	Argon2 Argon2Config `yaml:"argon2"`
	Bcrypt BcryptConfig `yaml:"bcrypt"`
}

// Argon2Config: параметры argon2id.
type Argon2Config struct {
	Time      uint32 `yaml:"time"`
	MemoryKiB uint32 `yaml:"memory_kib"`
	Threads   uint8  `yaml:"threads"`
	KeyLen    uint32 `yaml:"key_len"`
	SaltLen   uint32 `yaml:"salt_len"`
}

// BcryptConfig: параметры bcrypt.
type BcryptConfig struct {
	Cost int `yaml:"cost"`
}

// PhotosConfig: хранилище и ограничения для фото профиля.
type PhotosConfig struct {
	Driver       string   `yaml:"driver" env:"PHOTOS_DRIVER"` // local|s3
	Dir          string   `yaml:"dir" env:"PHOTOS_DIR"`       // корень для local
	PublicPrefix string   `yaml:"public_prefix"`              // URL-префикс раздачи local-файлов
	MaxKB        int64    `yaml:"max_kb"`
	AllowedTypes []string `yaml:"allowed_types"` // расширения: jpeg, png, jpg, gif
	S3           S3Config `yaml:"s3"`
}

// S3Config: параметры S3-совместимого хранилища (MinIO и т.п.).
type S3Config struct {
	Region       string `yaml:"region" env:"S3_REGION"`
	Endpoint     string `yaml:"endpoint" env:"S3_ENDPOINT"`
	Bucket       string `yaml:"bucket" env:"S3_BUCKET"`
	AccessKey    string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey    string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// UsersConfig: поведение эндпоинтов пользователей.
type UsersConfig struct {
	// HidePasswordHash убирает хэш пароля из ответа GET /users/{id}.
	HidePasswordHash bool `yaml:"hide_password_hash" env:"USERS_HIDE_PASSWORD_HASH"`
}

// LogConfig: настройки логирования (zap).
type LogConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"` // debug|info|warn|error
	File       string `yaml:"file" env:"LOG_FILE"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Load читает YAML, подставляет переменные окружения вида ${VAR},
// затем парсит в структуру, применяет env-переопределения,
// проставляет дефолты и валидирует.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать конфиг: %w", err)
	}
	return Parse(raw)
}

// Parse делает то же, что Load, но из уже прочитанных байт.
func Parse(raw []byte) (*Config, error) {
	// Подставляем переменные окружения в текст YAML:
	// client_secret: "${OAUTH_CLIENT_SECRET}" -> client_secret: "реальное_значение"
	expanded := ExpandEnvStrict(string(raw))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("не удалось распарсить yaml: %w", err)
	}

	if err := ApplyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var envPlaceholder = regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)

// ExpandEnvStrict заменяет ${VAR} на значение из окружения.
// Если переменная не задана: оставляем ${VAR} как есть,
// а потом Validate() упадёт с понятной ошибкой.
func ExpandEnvStrict(s string) string {
	return envPlaceholder.ReplaceAllStringFunc(s, func(m string) string {
		sub := envPlaceholder.FindStringSubmatch(m)
		if len(sub) != 2 {
			return m
		}
		if val, ok := os.LookupEnv(sub[1]); ok {
			return val
		}
		return m
	})
}

// ApplyEnvOverrides переопределяет поля с env-тегами значениями из окружения.
// Незаданные переменные поля не трогают.
// Например SERVER_PORT=9090 переопределит server.port.
func ApplyEnvOverrides(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("не удалось применить переменные окружения: %w", err)
	}
	return nil
}

// ApplyDefaults: дефолтные значения, если в yaml поле не задано.
func ApplyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 8 << 20
	}
	if cfg.Migrations.Path == "" {
		cfg.Migrations.Path = "file://migrations/postgres"
	}
	if cfg.OAuth.TokenPath == "" {
		cfg.OAuth.TokenPath = "/oauth/token"
	}
	if cfg.OAuth.Timeout == 0 {
		cfg.OAuth.Timeout = 30 * time.Second
	}
	if cfg.Auth.AccessTTL == 0 {
		cfg.Auth.AccessTTL = 15 * time.Minute
	}
	if cfg.Auth.RefreshTTL == 0 {
		cfg.Auth.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.Auth.JWT.Algorithm == "" {
		cfg.Auth.JWT.Algorithm = "HS256"
	}
	if cfg.Password.Hasher == "" {
		cfg.Password.Hasher = "bcrypt"
	}
	if cfg.Password.Argon2.KeyLen == 0 {
		cfg.Password.Argon2.KeyLen = 32
	}
	if cfg.Password.Argon2.SaltLen == 0 {
		cfg.Password.Argon2.SaltLen = 16
	}
	if cfg.Password.Bcrypt.Cost == 0 {
		cfg.Password.Bcrypt.Cost = 10
	}
	if cfg.Photos.Driver == "" {
		cfg.Photos.Driver = "local"
	}
	if cfg.Photos.Dir == "" {
		cfg.Photos.Dir = "storage/app/public"
	}
	if cfg.Photos.PublicPrefix == "" {
		cfg.Photos.PublicPrefix = "/storage"
	}
	if cfg.Photos.MaxKB == 0 {
		cfg.Photos.MaxKB = 2048
	}
	if len(cfg.Photos.AllowedTypes) == 0 {
		cfg.Photos.AllowedTypes = []string{"jpeg", "png", "jpg", "gif"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate проверяет, что конфиг заполнен корректно и безопасно.
// Если что-то не так: возвращаем ошибку и сервер НЕ стартует.
func (c *Config) Validate() error {
	// Базовая проверка сервера
	if c.Server.Host == "" {
		return errors.New("server.host обязателен")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port некорректен: %d", c.Server.Port)
	}

	// TLS/HTTPS
	if c.TLS.Enabled {
		if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
			return errors.New("tls.cert_file и tls.key_file обязательны при tls.enabled=true")
		}
		if c.TLS.MinVersion == "" {
			c.TLS.MinVersion = "1.2"
		}
		// TLS 1.0/1.1 считаются небезопасными: запрещаем
		if c.TLS.MinVersion == "1.0" || c.TLS.MinVersion == "1.1" {
			return fmt.Errorf("tls.min_version=%s небезопасен; используй 1.2 или 1.3", c.TLS.MinVersion)
		}
	}

	// База данных
	if c.DB.DSN == "" {
		return errors.New("db.dsn обязателен")
	}

	// Адрес приложения и клиент сервера токенов
	if c.App.URL == "" {
		return errors.New("app.url обязателен")
	}
	if u, err := url.Parse(c.App.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("app.url некорректен: %q", c.App.URL)
	}
	if !strings.HasPrefix(c.OAuth.TokenPath, "/") {
		return fmt.Errorf("oauth.token_path должен начинаться с '/' (сейчас %q)", c.OAuth.TokenPath)
	}
	if strings.TrimSpace(c.OAuth.ClientID) == "" {
		return errors.New("oauth.client_id обязателен")
	}
	if err := checkSecret("oauth.client_secret", c.OAuth.ClientSecret, 1); err != nil {
		return err
	}

	// JWT
	alg := strings.ToUpper(strings.TrimSpace(c.Auth.JWT.Algorithm))
	if alg != "HS256" {
		return fmt.Errorf("auth.jwt.algorithm должен быть HS256 (сейчас %q)", c.Auth.JWT.Algorithm)
	}
	// Для HS256 ключ должен быть длинным и случайным
	if err := checkSecret("auth.jwt.signing_key", c.Auth.JWT.SigningKey, 32); err != nil {
		return err
	}

	// Хэширование паролей
	switch strings.ToLower(c.Password.Hasher) {
	case "argon2id":
		if c.Password.Argon2.Time == 0 || c.Password.Argon2.MemoryKiB == 0 || c.Password.Argon2.Threads == 0 {
			return errors.New("password.argon2 должен быть настроен для argon2id")
		}
	case "bcrypt":
		if c.Password.Bcrypt.Cost < 4 || c.Password.Bcrypt.Cost > 31 {
			return fmt.Errorf("password.bcrypt.cost должен быть в диапазоне 4..31 (сейчас %d)", c.Password.Bcrypt.Cost)
		}
	default:
		return fmt.Errorf("password.hasher должен быть argon2id|bcrypt (сейчас %q)", c.Password.Hasher)
	}

	// Фото
	if c.Photos.MaxKB <= 0 {
		return errors.New("photos.max_kb должен быть > 0")
	}
	switch c.Photos.Driver {
	case "local":
		if c.Photos.Dir == "" {
			return errors.New("photos.dir обязателен для driver=local")
		}
	case "s3":
		if c.Photos.S3.Bucket == "" || c.Photos.S3.Region == "" {
			return errors.New("photos.s3.bucket и photos.s3.region обязательны для driver=s3")
		}
	default:
		return fmt.Errorf("photos.driver должен быть local|s3 (сейчас %q)", c.Photos.Driver)
	}

	return nil
}

// checkSecret проверяет, что секрет задан, подставлен и не короче minLen.
func checkSecret(name, value string, minLen int) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return fmt.Errorf("%s обязателен", name)
	}
	// Если ${VAR} не подставился, значит переменная окружения не задана
	if strings.Contains(v, "${") && strings.Contains(v, "}") {
		return fmt.Errorf("%s содержит неподставленную переменную: %q", name, v)
	}
	if len(v) < minLen {
		return fmt.Errorf("%s слишком короткий (%d символов); нужно >= %d", name, len(v), minLen)
	}
	return nil
}

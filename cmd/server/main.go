// @title           User Accounts API
// @version         1.0
// @description     User accounts backend.
// @description     Provides registration, login through the OAuth2 token server and user CRUD with profile photos.
// @termsOfService  https://example.com/terms

// @contact.name   Ivan Chernomyrdin
// @contact.url    https://github.com/IvanChernomyrdin
// @contact.email  ivan@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
//
// Package main содержит точку входа сервера учётных записей пользователей.
//
// Пакет отвечает за инициализацию и жизненный цикл HTTP(S)-сервера, а именно:
//   - загрузку переменных окружения из файла .env (если он присутствует);
//   - загрузку конфигурации сервера из файла ./configs/server.yaml;
//   - инициализацию подключения к базе данных и миграции;
//   - создание репозиториев, хранилища фото, клиента сервера токенов, сервисов и HTTP-обработчиков;
//   - запуск сервера с заданными таймаутами (HTTPS при tls.enabled);
//   - обработку системных сигналов завершения (SIGINT, SIGTERM, SIGQUIT);
//   - корректное (graceful) завершение работы сервера с таймаутом.
//
// Пакет не содержит бизнес-логики и не предназначен для unit-тестирования.
// HTTP API сервера реализовано в пакете internal/server/api и документируется с помощью OpenAPI (Swagger).
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/api"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/config"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/crypto"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/middleware"
	h "github.com/IvanChernomyrdin/go-user-accounts/internal/server/net/http"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/oauth"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/repository"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/service"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/storage"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/shared/logger"

	_ "github.com/IvanChernomyrdin/go-user-accounts/swagger/docs"
)

func main() {
	// до загрузки конфига пишем в логгер по умолчанию
	bootLog := logger.NewHTTPLogger().Sugar()

	if err := godotenv.Load(); err != nil {
		bootLog.Warnf("no .env file loaded, error: %v", err)
	}

	cfg, err := config.Load("./configs/server.yaml")
	if err != nil {
		bootLog.Fatal(err)
	}

	httpLogger := logger.New(logger.Options{
		File:       cfg.Log.File,
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Console:    cfg.Log.Console,
	})
	defer httpLogger.Sync()
	sugar := httpLogger.Sugar()

	// подключаем базу данных и накатываем миграции
	if err := config.Init(cfg.DB, cfg.Migrations, httpLogger); err != nil {
		sugar.Fatal(err)
	}

	// возвращаем указатель на db
	db := config.GetDB()
	// делаем отложенное закрытие бд
	defer func() {
		if db != nil {
			db.Close()
		}
	}()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	// хранилище фото
	photos, err := storage.New(ctx, cfg.Photos)
	if err != nil {
		sugar.Fatalf("init photos storage: %v", err)
	}

	// складываем репы
	repos := service.Repositories{
		Users:    repository.NewUsersRepository(db),
		Sessions: repository.NewSessionsRepository(db),
	}
	deps := service.Deps{
		Hasher: newHasher(cfg.Password),
		Photos: photos,
		Issuer: oauth.NewClient(cfg.TokenURL(), cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.Timeout),
	}
	// создаём сервисы
	svc := service.NewServices(repos, deps, cfg)
	// создаём jwt
	verifier := middleware.NewJWTVerifier(
		cfg.Auth.JWT.SigningKey,
		cfg.Auth.Issuer,
		cfg.Auth.Audience,
	)
	// создаём хандлер
	handler := api.NewHandler(svc, httpLogger, verifier, api.Options{
		HidePasswordHash: cfg.Users.HidePasswordHash,
		MaxBodyBytes:     cfg.Server.MaxBodyBytes,
	})

	// local-фото раздаём сами, s3 отдаёт их по своему адресу
	routerOpts := h.RouterOptions{}
	if cfg.Photos.Driver == "local" {
		routerOpts.PhotosDir = cfg.Photos.Dir
		routerOpts.PhotosPrefix = cfg.Photos.PublicPrefix
	}
	router := h.NewRouter(handler, routerOpts)

	//создаём сервер
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}
	if cfg.TLS.Enabled {
		server.TLSConfig = &tls.Config{MinVersion: tlsVersion(cfg.TLS.MinVersion)}
	}

	g, ctx := errgroup.WithContext(ctx)

	// запускаем сервер
	g.Go(func() error {
		var err error
		if cfg.TLS.Enabled {
			sugar.Infof("server started on https://%s", addr)
			err = server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			sugar.Infof("server started on http://%s", addr)
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// graceful shutdown с таймаутом из конфига
	g.Go(func() error {
		<-ctx.Done()

		sugar.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			cfg.Server.ShutdownTimeout,
		)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	// ожидание и единная обработка ошибок
	if err := g.Wait(); err != nil {
		sugar.Fatalf("server stopped with error: %v", err)
	}
	sugar.Info("server gracefully stopped")
}

// newHasher выбирает алгоритм хэширования паролей по password.hasher.
func newHasher(cfg config.PasswordConfig) service.PasswordHasher {
	if strings.EqualFold(cfg.Hasher, "argon2id") {
		return crypto.Argon2Hasher{Params: crypto.Argon2Params{
			Time:      cfg.Argon2.Time,
			MemoryKiB: cfg.Argon2.MemoryKiB,
			Threads:   cfg.Argon2.Threads,
			KeyLen:    cfg.Argon2.KeyLen,
			SaltLen:   cfg.Argon2.SaltLen,
		}}
	}
	return crypto.BcryptHasher{Cost: cfg.Bcrypt.Cost}
}

func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

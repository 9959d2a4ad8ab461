// Package http реализует маршрутизацию HTTP-слоя сервиса пользователей.
//
// Пакет отвечает за:
//   - регистрацию HTTP-маршрутов и настройку роутера (chi);
//   - логирование выполнения HTTP-запросов;
//   - проверку JWT access-токенов на защищённых маршрутах.
package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/api"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/middleware"
)

// RouterOptions: дополнительные маршруты.
type RouterOptions struct {
	// PhotosDir: каталог local-хранилища фото. Если пусто, фото не раздаются.
	PhotosDir string
	// PhotosPrefix: URL-префикс раздачи фото, по умолчанию /storage.
	PhotosPrefix string
}

// NewRouter создаёт и настраивает HTTP-роутер сервера.
//
// Роутер регистрирует:
//   - middleware логирования для всех запросов;
//   - публичные /login, /register, /oauth/token и GET /users/{id};
//   - группу защищённых JWT эндпоинтов: POST /users, PUT и DELETE /users/{id};
//   - раздачу фото из local-хранилища и swagger.
func NewRouter(h *api.Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	// логирование всех запросов
	r.Use(middleware.LoggerMiddleware(h.Log))

	// добавляем swagger
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Публичные пути
	r.Post("/login", h.Login)
	r.Post("/register", h.Register)
	r.Post("/oauth/token", h.Token)
	r.Get("/users/{id}", h.ShowUser)

	// защищённые пути
	r.Group(func(r chi.Router) {
		// проверка access токена
		r.Use(h.Verifier.AuthMiddleware())

		r.Post("/users", h.StoreUser)
		r.Put("/users/{id}", h.UpdateUser)
		r.Delete("/users/{id}", h.DestroyUser)
	})

	if opts.PhotosDir != "" {
		prefix := "/" + strings.Trim(opts.PhotosPrefix, "/")
		if prefix == "/" {
			prefix = "/storage"
		}
		fs := http.StripPrefix(prefix, http.FileServer(http.Dir(opts.PhotosDir)))
		r.Get(prefix+"/*", fs.ServeHTTP)
	}

	return r
}

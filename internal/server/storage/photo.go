// Package storage хранит фото профиля пользователей.
//
// Поддерживаются два драйвера:
//   - local: файлы на диске, раздаются сервером под photos.public_prefix;
//   - s3: S3-совместимое хранилище (AWS, MinIO).
//
// Оба драйвера кладут файл под ключом user-photos/<uuid>.<ext>
// и возвращают этот ключ, он и сохраняется в users.photo.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/config"
)

// PhotosDir: каталог (префикс ключа) для фото пользователей.
const PhotosDir = "user-photos"

// Photo: загруженный файл фото.
type Photo struct {
	// Filename: имя файла, как его прислал клиент. Только для логов.
	Filename string
	Content  []byte
}

// Size возвращает размер файла в байтах.
func (p Photo) Size() int64 {
	return int64(len(p.Content))
}

// Store: хранилище фото.
type Store interface {
	// Put сохраняет фото и возвращает путь (ключ), под которым оно доступно.
	Put(ctx context.Context, p Photo) (string, error)
	// Delete удаляет фото по ключу. Отсутствующий ключ ошибкой не считается.
	Delete(ctx context.Context, key string) error
}

// Rules: ограничения на загружаемое фото.
type Rules struct {
	MaxKB        int64
	AllowedTypes []string
}

// NewRules собирает правила из конфига.
func NewRules(cfg config.PhotosConfig) Rules {
	return Rules{MaxKB: cfg.MaxKB, AllowedTypes: cfg.AllowedTypes}
}

// Validate проверяет фото и возвращает сообщения об ошибках для поля photo.
// Пустой результат означает, что фото подходит.
//
// Тип определяется по содержимому файла, расширение из имени не учитывается.
func (r Rules) Validate(p Photo) []string {
	var msgs []string

	mt := mimetype.Detect(p.Content)
	if !strings.HasPrefix(mt.String(), "image/") {
		msgs = append(msgs, "The photo must be an image.")
	}
	if !r.allowed(mt) {
		msgs = append(msgs, fmt.Sprintf("The photo must be a file of type: %s.", strings.Join(r.AllowedTypes, ", ")))
	}
	if r.MaxKB > 0 && p.Size() > r.MaxKB*1024 {
		msgs = append(msgs, fmt.Sprintf("The photo must not be greater than %d kilobytes.", r.MaxKB))
	}
	return msgs
}

func (r Rules) allowed(mt *mimetype.MIME) bool {
	ext := strings.TrimPrefix(mt.Extension(), ".")
	if ext == "" {
		return false
	}
	for _, t := range r.AllowedTypes {
		t = strings.ToLower(strings.TrimPrefix(t, "."))
		if t == ext {
			return true
		}
		// jpeg и jpg: один и тот же image/jpeg
		if mt.Is("image/jpeg") && (t == "jpeg" || t == "jpg") {
			return true
		}
	}
	return false
}

// objectKey генерирует новый ключ user-photos/<uuid>.<ext> по содержимому файла.
func objectKey(p Photo) (key, contentType string) {
	mt := mimetype.Detect(p.Content)
	ext := mt.Extension()
	if ext == "" {
		ext = ".bin"
	}
	return PhotosDir + "/" + uuid.NewString() + ext, mt.String()
}

// New создаёт хранилище по photos.driver.
func New(ctx context.Context, cfg config.PhotosConfig) (Store, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.Dir), nil
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown photos driver %q", cfg.Driver)
	}
}


package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/models"
	"github.com/IvanChernomyrdin/go-user-accounts/internal/server/storage"
	serr "github.com/IvanChernomyrdin/go-user-accounts/internal/shared/errors"
)

// UserInput: данные пользователя из запроса store/update/register.
//
// Password == nil означает, что пароль не передан.
// Photo == nil означает, что файл не загружали.
type UserInput struct {
	Email     string
	Password  *string
	FirstName string
	LastName  string
	Photo     *storage.Photo
}

func (in *UserInput) normalize() {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
}

// UsersService реализует CRUD пользователей и регистрацию.
type UsersService struct {
	users  UsersRepo
	hasher PasswordHasher
	photos PhotoStore
	rules  storage.Rules
}

// NewUsersService создаёт UsersService.
func NewUsersService(users UsersRepo, hasher PasswordHasher, photos PhotoStore, rules storage.Rules) *UsersService {
	return &UsersService{users: users, hasher: hasher, photos: photos, rules: rules}
}

// Show возвращает пользователя по id.
//
// Ошибки:
//   - ErrNotFound если пользователя нет
func (s *UsersService) Show(ctx context.Context, id uuid.UUID) (models.User, error) {
	return s.users.FindByID(ctx, id)
}

// Store создаёт пользователя (защищённый эндпоинт, фото допускается).
//
// Ошибки:
//   - *ValidationError (ErrInvalidInput) при невалидных данных или занятом email
//   - ErrPhotoStore если не удалось сохранить фото
func (s *UsersService) Store(ctx context.Context, in UserInput) (models.User, error) {
	return s.create(ctx, in, true)
}

// Register регистрирует пользователя (публичный эндпоинт, без фото).
func (s *UsersService) Register(ctx context.Context, in UserInput) (models.User, error) {
	in.Photo = nil
	return s.create(ctx, in, false)
}

func (s *UsersService) create(ctx context.Context, in UserInput, withPhoto bool) (models.User, error) {
	in.normalize()

	ve := validateStruct(createUserRules{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if withPhoto && in.Photo != nil {
		for _, msg := range s.rules.Validate(*in.Photo) {
			ve.Add("photo", msg)
		}
	}
	if err := s.checkEmailUnique(ctx, in.Email, uuid.Nil, ve); err != nil {
		return models.User{}, err
	}
	if err := ve.OrNil(); err != nil {
		return models.User{}, err
	}

	hash, err := s.hasher.Hash(*in.Password)
	if err != nil {
		return models.User{}, serr.ErrInternal
	}

	u := models.User{
		Email:     in.Email,
		Password:  hash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}

	if withPhoto && in.Photo != nil {
		path, err := s.storePhoto(ctx, *in.Photo)
		if err != nil {
			return models.User{}, err
		}
		u.Photo = &path
	}

	created, err := s.users.Insert(ctx, u)
	if err != nil {
		if u.Photo != nil {
			s.dropPhoto(ctx, *u.Photo)
		}
		return models.User{}, mapEmailConflict(err)
	}
	return created, nil
}

// Update обновляет пользователя.
//
// Сначала проверяется существование пользователя, и только потом тело запроса:
// для несуществующего id всегда возвращается ErrNotFound.
//
// email, first_name и last_name перезаписываются всегда,
// пароль только если передан, фото только если загружен новый файл.
func (s *UsersService) Update(ctx context.Context, id uuid.UUID, in UserInput) (models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	in.normalize()

	ve := validateStruct(updateUserRules{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if in.Photo != nil {
		for _, msg := range s.rules.Validate(*in.Photo) {
			ve.Add("photo", msg)
		}
	}
	if err := s.checkEmailUnique(ctx, in.Email, id, ve); err != nil {
		return models.User{}, err
	}
	if err := ve.OrNil(); err != nil {
		return models.User{}, err
	}

	u.Email = in.Email
	u.FirstName = in.FirstName
	u.LastName = in.LastName

	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return models.User{}, serr.ErrInternal
		}
		u.Password = hash
	}

	var newPhoto string
	if in.Photo != nil {
		path, err := s.storePhoto(ctx, *in.Photo)
		if err != nil {
			return models.User{}, err
		}
		newPhoto = path
		u.Photo = &path
	}

	updated, err := s.users.Update(ctx, u)
	if err != nil {
		if newPhoto != "" {
			s.dropPhoto(ctx, newPhoto)
		}
		return models.User{}, mapEmailConflict(err)
	}
	return updated, nil
}

// Destroy удаляет пользователя навсегда.
//
// Ошибки:
//   - ErrNotFound если пользователя нет
func (s *UsersService) Destroy(ctx context.Context, id uuid.UUID) error {
	if _, err := s.users.FindByID(ctx, id); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

// checkEmailUnique добавляет ошибку в ve, если email занят другим пользователем.
// Проверка оптимистичная: окончательно уникальность гарантирует constraint в БД.
func (s *UsersService) checkEmailUnique(ctx context.Context, email string, self uuid.UUID, ve *serr.ValidationError) error {
	if _, bad := ve.Fields["email"]; bad || email == "" {
		return nil
	}

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, serr.ErrNotFound):
		return nil
	case err != nil:
		return err
	}
	if existing.ID != self {
		ve.Add("email", emailTakenMessage)
	}
	return nil
}

func (s *UsersService) storePhoto(ctx context.Context, p storage.Photo) (string, error) {
	path, err := s.photos.Put(ctx, p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", serr.ErrPhotoStore, err)
	}
	return path, nil
}

// dropPhoto удаляет фото, которое не попало в запись пользователя.
// Ошибка удаления игнорируется: вызывающему важна исходная ошибка.
func (s *UsersService) dropPhoto(ctx context.Context, key string) {
	_ = s.photos.Delete(ctx, key)
}

// mapEmailConflict превращает нарушение уникальности (гонка двух запросов
// с одинаковым email) в ошибку валидации поля email.
func mapEmailConflict(err error) error {
	if errors.Is(err, serr.ErrAlreadyExists) {
		return serr.FieldError("email", emailTakenMessage)
	}
	return err
}

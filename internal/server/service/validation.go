package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	serr "github.com/IvanChernomyrdin/go-user-accounts/internal/shared/errors"
)

// правила для создания пользователя (store, register)
type createUserRules struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  *string `json:"password" validate:"required,min=6"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
}

// правила для обновления: пароль можно не передавать
type updateUserRules struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  *string `json:"password" validate:"omitempty,min=6"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
}

// правила для логина
type loginRules struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// в сообщениях используем имена полей из json
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct прогоняет структуру через validator и собирает ValidationError.
func validateStruct(s any) *serr.ValidationError {
	ve := serr.NewValidationError()

	err := validate.Struct(s)
	if err == nil {
		return ve
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		ve.Add("_", err.Error())
		return ve
	}
	for _, fe := range fieldErrs {
		ve.Add(fe.Field(), fieldMessage(fe))
	}
	return ve
}

// fieldMessage переводит ошибку валидатора в человекочитаемое сообщение.
func fieldMessage(fe validator.FieldError) string {
	attr := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", attr)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", attr)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", attr, fe.Param())
	default:
		return fmt.Sprintf("The %s is invalid.", attr)
	}
}

// emailTakenMessage: сообщение при занятом email.
const emailTakenMessage = "The email has already been taken."

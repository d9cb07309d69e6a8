package helper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"kursusku_backend/internals/helpers/apperror"
)

var validate = validator.New()

// Validator mengembalikan instance validator bersama (thread-safe).
func Validator() *validator.Validate { return validate }

// BindAndValidate parse body ke dst lalu jalankan tag `validate`.
func BindAndValidate(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperror.ValidationMsg("body", "Invalid request body")
	}
	return ValidateStruct(dst)
}

// ValidateStruct mengubah validator.ValidationErrors menjadi AppError validation.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return apperror.ValidationMsg("body", "Invalid input")
	}
	details := make([]apperror.FieldError, 0, len(ve))
	for _, fe := range ve {
		details = append(details, apperror.FieldError{
			Field:   jsonFieldName(fe),
			Message: fieldMessage(fe),
		})
	}
	return apperror.Validation(details...)
}

func jsonFieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return toSnake(ns)
}

func fieldMessage(fe validator.FieldError) string {
	field := toSnake(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " wajib diisi"
	case "email":
		return field + " harus berupa email yang valid"
	case "min":
		return fmt.Sprintf("%s minimal %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s maksimal %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s harus >= %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s harus <= %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s harus salah satu dari: %s", field, fe.Param())
	case "uuid", "uuid4":
		return field + " harus UUID yang valid"
	case "url":
		return field + " harus URL yang valid"
	default:
		return field + " tidak valid"
	}
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && s[i-1] != '.' && s[i-1] != '[' {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

package helpers

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// los errores usan el nombre JSON del campo
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate aplica los tags `validate` de v. El detail describe cada campo
// inválido ("email: required; otp: len=6").
func Validate(v any) (detail string, ok bool) {
	err := validatorInstance().Struct(v)
	if err == nil {
		return "", true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error(), false
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		parts = append(parts, fe.Field()+": "+tag)
	}
	return strings.Join(parts, "; "), false
}

// MissingField reporta si detail contiene un "required" para field.
func MissingField(detail, field string) bool {
	return strings.Contains(detail, field+": required")
}

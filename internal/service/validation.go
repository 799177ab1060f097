package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"salon/internal/availability"

	"github.com/go-playground/validator/v10"
)

// phoneDigits вне этого диапазона номер считается некорректным
const (
	minPhoneDigits = 7
	maxPhoneDigits = 15
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-]+$`)
	digitPattern = regexp.MustCompile(`[0-9]`)
)

// newValidator builds the request validator. Field names in messages are
// the JSON names clients send.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return validPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return availability.ValidTimeOfDay(fl.Field().String())
	})
	return v
}

func validPhone(phone string) bool {
	if !phonePattern.MatchString(phone) {
		return false
	}
	digits := len(digitPattern.FindAllString(phone, -1))
	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}

// checkStruct runs the validate tags of req and reports the first failure
// as ErrInvalidRequest.
func checkStruct(v *validator.Validate, req any) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid("%v", err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return invalid("%s is required", fe.Field())
	case "gt":
		return invalid("%s must be positive", fe.Field())
	case "email":
		return invalid("%s is malformed", fe.Field())
	case "phone":
		return invalid("%s must contain %d to %d digits", fe.Field(), minPhoneDigits, maxPhoneDigits)
	case "hhmm":
		return invalid("%s must be HH:MM", fe.Field())
	case "datetime":
		return invalid("%s must be YYYY-MM-DD", fe.Field())
	case "min":
		return invalid("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return invalid("%s must not exceed %s characters", fe.Field(), fe.Param())
	default:
		return invalid("%s is invalid", fe.Field())
	}
}

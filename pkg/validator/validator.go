package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"

	"github.com/jwalitptl/beauty-api/pkg/httputil"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var messages = map[string]string{
	"required": "field is required",
	"email":    "invalid email format",
	"min":      "value is too short",
	"max":      "value is too long",
	"oneof":    "value is not allowed",
	"phone":    "invalid phone number, use international format",
	"slug":     "must contain lowercase letters, digits and dashes",
	"hhmm":     "must be a time of day formatted HH:MM",
	"gte":      "value is too small",
	"lte":      "value is too large",
}

// Register installs the custom tags on v and reports fields by their json name
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	custom := map[string]validator.Func{
		"phone": func(fl validator.FieldLevel) bool { return IsPhone(fl.Field().String()) },
		"slug":  func(fl validator.FieldLevel) bool { return slugPattern.MatchString(fl.Field().String()) },
		"hhmm":  func(fl validator.FieldLevel) bool { return IsClock(fl.Field().String()) },
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validator: %w", tag, err)
		}
	}
	return nil
}

// RegisterWithGin installs the custom tags on gin's binding validator
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}
	return Register(v)
}

// IsPhone reports whether value is a valid phone number in E.164 style
func IsPhone(value string) bool {
	if value == "" {
		return false
	}
	num, err := phonenumbers.Parse(value, "")
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}

// NormalizePhone formats a valid number as E.164
func NormalizePhone(value string) (string, error) {
	num, err := phonenumbers.Parse(value, "")
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("invalid phone number %q", value)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// IsClock reports whether value is a HH:MM time of day
func IsClock(value string) bool {
	if len(value) != 5 {
		return false
	}
	_, err := time.Parse("15:04", value)
	return err == nil
}

// Translate converts binding errors into field errors. ok is false when err is
// not a validation error.
func Translate(err error) ([]httputil.FieldError, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}

	fields := make([]httputil.FieldError, 0, len(verrs))
	for _, e := range verrs {
		msg, ok := messages[e.Tag()]
		if !ok {
			msg = fmt.Sprintf("failed on %s", e.Tag())
		}
		fields = append(fields, httputil.FieldError{
			Field:   e.Field(),
			Message: msg,
		})
	}
	return fields, true
}

// Package validation checks request payloads and posting content.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"vacancyhub/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// channelHandle matches public Telegram usernames.
var channelHandle = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{3,31}$`)

// Validator returns the shared validator with custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			if fl.Field().Kind() != reflect.String {
				return true
			}
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("tghandle", func(fl validator.FieldLevel) bool {
			return channelHandle.MatchString(models.NormalizeChannelHandle(fl.Field().String()))
		})
		validate = v
	})
	return validate
}

// Struct validates v and converts failures into a VALIDATION_ERROR.
func Struct(v interface{}) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewValidationError(err.Error())
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return models.NewValidationError(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "tghandle":
		return fmt.Sprintf("%s must be a public Telegram channel (@name or t.me/name)", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// ValidatePosting checks the kind-specific required fields of p.
func ValidatePosting(p models.Posting) error {
	if p == nil {
		return models.NewValidationError("posting is required")
	}
	return Struct(p)
}

// ValidateReason requires a reject reason that is not blank once trimmed.
func ValidateReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return models.NewValidationError("reason is required")
	}
	return nil
}

// ChannelHandle normalizes raw and checks it is a usable public channel handle.
func ChannelHandle(raw string) (string, error) {
	h := models.NormalizeChannelHandle(raw)
	if !channelHandle.MatchString(h) {
		return "", models.NewValidationError("channel_url must be a public Telegram channel (@name or t.me/name)")
	}
	return h, nil
}

package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"

	appErrors "github.com/noah-isme/unisync-api/pkg/errors"
)

// Validator wraps go-playground/validator with English messages keyed by JSON field name.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New builds a validator with the default English translations registered.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	return &Validator{validate: validate, trans: trans}
}

// Engine exposes the underlying validator for services that register custom tags.
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

// Register adds a custom tag together with its human readable message.
// The message may reference the field with {0}.
func (v *Validator) Register(tag string, fn validator.Func, message string) {
	_ = v.validate.RegisterValidation(tag, fn)
	_ = v.validate.RegisterTranslation(tag, v.trans,
		func(t ut.Translator) error { return t.Add(tag, message, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(tag, fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}

// Struct validates s and converts failures into a VALIDATION_ERROR carrying per-field messages.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	fields := make(map[string]string, len(fieldErrs))
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := fe.Translate(v.trans)
		fields[fe.Field()] = msg
		messages = append(messages, msg)
	}
	appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, strings.Join(messages, "; "))
	appErr.Fields = fields
	return appErr
}

// Invalid builds a VALIDATION_ERROR for a single field.
func Invalid(field, message string) error {
	appErr := appErrors.Clone(appErrors.ErrValidation, message)
	appErr.Fields = map[string]string{field: message}
	return appErr
}

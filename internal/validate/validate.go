// Package validate wraps go-playground/validator with English messages.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// Validator validates structs and renders failures as readable English.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

var (
	defaultOnce sync.Once
	defaultVal  *Validator
	defaultErr  error
)

// Default returns a process-wide Validator.
func Default() (*Validator, error) {
	defaultOnce.Do(func() {
		defaultVal, defaultErr = New()
	})
	return defaultVal, defaultErr
}

// New builds a Validator whose field names come from json, yaml or
// mapstructure tags, in that order.
func New() (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, fmt.Errorf("register default translations: %w", err)
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "yaml", "mapstructure"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	if err := v.RegisterValidation("timezone", isTimezone); err != nil {
		return nil, fmt.Errorf("register timezone validation: %w", err)
	}
	if err := v.RegisterTranslation("timezone", trans, func(ut ut.Translator) error {
		return ut.Add("timezone", "{0} must be an IANA timezone name", true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		t, _ := ut.T("timezone", fe.Field())
		return t
	}); err != nil {
		return nil, fmt.Errorf("register timezone translation: %w", err)
	}

	return &Validator{validate: v, trans: trans}, nil
}

// Struct validates s and returns a single error listing every failed field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(v.trans))
	}
	return &Error{Messages: msgs}
}

// Error is returned by Struct when one or more fields are invalid.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	return strings.Join(e.Messages, "; ")
}

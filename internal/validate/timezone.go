package validate

import (
	"time"

	"github.com/go-playground/validator/v10"
)

func isTimezone(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" {
		return true
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

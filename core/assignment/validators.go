package assignment

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/microlearn/core"
)

var (
	statusTag  = "assignmentstatus"
	statusText = "status must be one of: scheduled, in_progress, completed"

	datetimeTag  = "datetime"
	datetimeText = "enter a valid date (YYYY-MM-DD)"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
	core.RegisterCustomTranslation(validate, translator, datetimeTag, datetimeText, true)
}

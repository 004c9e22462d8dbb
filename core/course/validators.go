package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/microlearn/core"
)

var (
	statusTag  = "coursestatus"
	statusText = "status must be one of: active, archived, draft"

	visibilityTag  = "visibility"
	visibilityText = "visibility must be one of: public, private"
)

// InitValidators registers the course validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	_ = validate.RegisterValidation(visibilityTag, func(fl validator.FieldLevel) bool {
		return Visibility(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, visibilityTag, visibilityText)
}

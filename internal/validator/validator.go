package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/quizforge/quiz-service/internal/errors"
	"github.com/quizforge/quiz-service/internal/models"
)

// Validator wraps the struct validator with the service's custom tags.
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new validator instance with all custom tags registered.
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)
	return &Validator{structValidator: structValidator}
}

// Validate validates struct tags and converts failures to the shared
// ValidationErrors type.
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if converted := apperrors.ToValidationErrors(err); len(converted) > 0 {
			return converted
		}
		return err
	}
	return nil
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("quiz_type", validateQuizType)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuizType(fl validator.FieldLevel) bool {
	return models.QuizType(fl.Field().String()).IsValid()
}

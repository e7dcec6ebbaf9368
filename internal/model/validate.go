package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		qi := sl.Current().Interface().(QuestionImport)
		if qi.Answer == "" {
			return
		}
		for _, o := range qi.Options {
			if o == qi.Answer {
				return
			}
		}
		sl.ReportError(qi.Answer, "answer", "Answer", "oneofoptions", "")
	}, QuestionImport{})
	return v
}

// Validate checks v against its struct tags and returns an error wrapping
// ErrValidation that names the first failing field.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, describe(verrs[0]))
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "notblank", "required":
		return field + " is required"
	case "len":
		return fmt.Sprintf("%s must have exactly %s items", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "oneofoptions":
		return field + " must be one of the options"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

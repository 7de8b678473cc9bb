package reqvalidate

import (
	"errors"
	"reflect"
	"strings"

	"pet-records/internal/domain/validation"

	"github.com/go-playground/validator/v10"
)

// Validator valida la forma de los DTOs de entrada (tags `validate`) antes de
// llegar al dominio. Las reglas de negocio viven en los validadores de dominio.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Reportar el nombre JSON del campo, no el nombre Go.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Struct devuelve nil o un validation.Errors con un fallo por campo.
func (cv *Validator) Struct(s any) error {
	err := cv.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(validation.Errors, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, toFieldError(e))
	}
	return out
}

func toFieldError(e validator.FieldError) *validation.FieldError {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return validation.New(field, validation.KindRequired, field+" is required")
	case "max":
		return validation.New(field, validation.KindTooLong, field+" must be at most "+e.Param()+" characters")
	case "min":
		return validation.New(field, validation.KindTooShort, field+" must be at least "+e.Param()+" characters")
	case "oneof":
		return validation.New(field, validation.KindInvalidChoice, field+" must be one of: "+e.Param())
	case "datetime":
		return validation.New(field, validation.KindInvalidDate, field+" must match "+e.Param())
	case "gte", "lte", "gt", "lt":
		return validation.New(field, validation.KindOutOfRange, field+" is out of range")
	default:
		return validation.New(field, validation.KindInvalidChoice, field+" is invalid")
	}
}

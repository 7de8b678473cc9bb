package validation

import (
	"errors"
	"strings"
)

// ErrInvalid se usa con errors.Is para detectar cualquier error de validación.
var ErrInvalid = errors.New("invalid input")

// Kind identifica la regla que falló.
type Kind string

const (
	KindRequired          Kind = "required"
	KindInvalidChoice     Kind = "invalid_choice"
	KindTooLong           Kind = "too_long"
	KindTooShort          Kind = "too_short"
	KindOutOfRange        Kind = "out_of_range"
	KindInvalidDate       Kind = "invalid_date"
	KindInvalidCharacters Kind = "invalid_characters"

	// identidad
	KindEmptyName               Kind = "empty_name"
	KindDuplicateEmail          Kind = "duplicate_email"
	KindMalformedEmail          Kind = "malformed_email"
	KindDisposableDomain        Kind = "disposable_domain"
	KindInvalidDomain           Kind = "invalid_domain"
	KindInvalidCorporateDomain  Kind = "invalid_corporate_domain"
	KindUnrecognizedTLD         Kind = "unrecognized_tld"
	KindDuplicateIdentification Kind = "duplicate_identification"

	// credenciales
	KindMissingLetter Kind = "missing_letter"
	KindMissingDigit  Kind = "missing_digit"
	KindMismatch      Kind = "mismatch"

	// mascotas
	KindWeightOutOfRange     Kind = "weight_out_of_range"
	KindWeightPrecision      Kind = "weight_precision"
	KindFutureBirthDate      Kind = "future_birth_date"
	KindAgeMismatch          Kind = "age_mismatch"
	KindUnsupportedMediaType Kind = "unsupported_media_type"
	KindCorruptImage         Kind = "corrupt_image"
	KindFileTooLarge         Kind = "file_too_large"

	// cuidados / eventos
	KindDosageNoAlphanumeric Kind = "dosage_no_alphanumeric"
	KindDosageTooManySymbols Kind = "dosage_too_many_symbols"
	KindTooManyAttachments   Kind = "too_many_attachments"
	KindInvalidURL           Kind = "invalid_url"
)

// FieldError es un fallo de validación asociado a un campo.
type FieldError struct {
	Field   string `json:"field"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *FieldError) Is(target error) bool { return target == ErrInvalid }

// New crea un FieldError.
func New(field string, kind Kind, msg string) *FieldError {
	return &FieldError{Field: field, Kind: kind, Message: msg}
}

// Errors acumula fallos de varios campos en un único resultado.
type Errors []*FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Error())
	}
	return strings.Join(parts, "; ")
}

func (e Errors) Is(target error) bool { return target == ErrInvalid }

// Add agrega err si es un *FieldError o un Errors; cualquier otro error se ignora
// y debe propagarse por separado (ver Collect).
func (e *Errors) Add(err error) {
	if err == nil {
		return
	}
	var many Errors
	if errors.As(err, &many) {
		*e = append(*e, many...)
		return
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		*e = append(*e, fe)
	}
}

// Collect agrega errores de validación y devuelve cualquier otro error tal cual.
func (e *Errors) Collect(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalid) {
		e.Add(err)
		return nil
	}
	return err
}

// Err devuelve nil si no hay fallos.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Has indica si hay un fallo de ese tipo para el campo.
func (e Errors) Has(field string, kind Kind) bool {
	for _, fe := range e {
		if fe.Field == field && fe.Kind == kind {
			return true
		}
	}
	return false
}

// KindOf devuelve el Kind del primer fallo contenido en err, o "" si no es de validación.
func KindOf(err error) Kind {
	var many Errors
	if errors.As(err, &many) && len(many) > 0 {
		return many[0].Kind
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// HasKind indica si err contiene un fallo del tipo dado en cualquier campo.
func HasKind(err error, kind Kind) bool {
	var many Errors
	if errors.As(err, &many) {
		for _, fe := range many {
			if fe.Kind == kind {
				return true
			}
		}
		return false
	}
	var fe *FieldError
	return errors.As(err, &fe) && fe.Kind == kind
}

// List devuelve los fallos contenidos en err como slice (vacío si no es de validación).
func List(err error) []*FieldError {
	var many Errors
	if errors.As(err, &many) {
		return many
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return []*FieldError{fe}
	}
	return nil
}

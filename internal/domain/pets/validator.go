package pets

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	// Decoders registrados para image.DecodeConfig/Decode.
	_ "image/jpeg"
	_ "image/png"

	"pet-records/internal/domain/validation"

	"github.com/shopspring/decimal"
)

const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldSpecies     = "species"
	FieldSize        = "size"
	FieldBreed       = "breed"
	FieldSex         = "sex"
	FieldAge         = "age"
	FieldBirthDate   = "birth_date"
	FieldWeight      = "weight_kg"
	FieldAllergies   = "allergies"
	FieldPhoto       = "photo"

	nameMaxLen        = 100
	breedMaxLen       = 100
	descriptionMaxLen = 2000
	allergiesMaxLen   = 1000
	maxAge            = 30

	MaxPhotoBytes = 5 << 20
	// MaxPhotoPixels acota ancho*alto declarado antes de decodificar.
	MaxPhotoPixels = 40_000_000
)

var (
	minWeight = decimal.RequireFromString("0.4")
	maxWeight = decimal.NewFromInt(160)

	allowedPhotoTypes = map[string]struct{}{"image/jpeg": {}, "image/png": {}}
	allowedPhotoExts  = map[string]struct{}{".jpg": {}, ".jpeg": {}, ".png": {}}
)

// Fields son los datos editables de una ficha, tal como llegan del cliente.
type Fields struct {
	Name        string
	Description string
	Species     string
	Size        string
	Breed       string
	CrossBred   bool
	Sex         string
	Age         *int
	BirthDate   *time.Time
	WeightKg    *decimal.Decimal
	Allergies   string
}

// PhotoUpload es un archivo de imagen recibido.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Validator valida fichas de mascota. Es puro salvo por el reloj.
type Validator struct {
	now func() time.Time
}

func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// Validate normaliza los campos y acumula todos los fallos en un validation.Errors.
// El Pet devuelto solo trae los campos de Fields.
func (v *Validator) Validate(in Fields) (Pet, error) {
	var errs validation.Errors
	var p Pet

	p.Name = strings.TrimSpace(in.Name)
	switch {
	case p.Name == "":
		errs.Add(validation.New(FieldName, validation.KindRequired, "name is required"))
	case utf8.RuneCountInString(p.Name) > nameMaxLen:
		errs.Add(validation.New(FieldName, validation.KindTooLong, fmt.Sprintf("name must have at most %d characters", nameMaxLen)))
	}

	p.Description = strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(p.Description) > descriptionMaxLen {
		errs.Add(validation.New(FieldDescription, validation.KindTooLong, fmt.Sprintf("description must have at most %d characters", descriptionMaxLen)))
	}

	p.Species = Species(strings.ToLower(strings.TrimSpace(in.Species)))
	if p.Species == "" {
		errs.Add(validation.New(FieldSpecies, validation.KindRequired, "species is required"))
	} else if _, ok := speciesSet[p.Species]; !ok {
		errs.Add(validation.New(FieldSpecies, validation.KindInvalidChoice, "species must be dog or cat"))
	}

	p.Size = Size(strings.ToLower(strings.TrimSpace(in.Size)))
	if p.Size == "" {
		errs.Add(validation.New(FieldSize, validation.KindRequired, "size is required"))
	} else if _, ok := sizeSet[p.Size]; !ok {
		errs.Add(validation.New(FieldSize, validation.KindInvalidChoice, "size must be small, medium, large or giant"))
	}

	p.Sex = Sex(strings.ToLower(strings.TrimSpace(in.Sex)))
	if p.Sex != "" {
		if _, ok := sexSet[p.Sex]; !ok {
			errs.Add(validation.New(FieldSex, validation.KindInvalidChoice, "sex must be male or female"))
		}
	}

	p.CrossBred = in.CrossBred
	p.Breed = strings.TrimSpace(in.Breed)
	switch {
	case p.Breed == "" && p.CrossBred:
		p.Breed = MixedBreed
	case p.Breed == "":
		errs.Add(validation.New(FieldBreed, validation.KindRequired, "breed is required"))
	case utf8.RuneCountInString(p.Breed) > breedMaxLen:
		errs.Add(validation.New(FieldBreed, validation.KindTooLong, fmt.Sprintf("breed must have at most %d characters", breedMaxLen)))
	}

	p.WeightKg = in.WeightKg
	errs.Add(validateWeight(in.WeightKg))

	p.Age = in.Age
	p.BirthDate = in.BirthDate
	errs.Add(v.validateAge(in.Age, in.BirthDate))

	p.Allergies = strings.TrimSpace(in.Allergies)
	if utf8.RuneCountInString(p.Allergies) > allergiesMaxLen {
		errs.Add(validation.New(FieldAllergies, validation.KindTooLong, fmt.Sprintf("allergies must have at most %d characters", allergiesMaxLen)))
	}

	if err := errs.Err(); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// validateWeight: opcional; rango [0.4, 160] y como máximo 2 decimales.
func validateWeight(w *decimal.Decimal) error {
	if w == nil {
		return nil
	}
	if w.LessThan(minWeight) || w.GreaterThan(maxWeight) {
		return validation.New(FieldWeight, validation.KindWeightOutOfRange, "weight must be between 0.4 and 160 kg")
	}
	if !w.Equal(w.Truncate(2)) {
		return validation.New(FieldWeight, validation.KindWeightPrecision, "weight may have at most 2 decimals")
	}
	return nil
}

// validateAge compara en fechas civiles UTC: años = floor(días / 365).
func (v *Validator) validateAge(age *int, birth *time.Time) error {
	var errs validation.Errors

	if age != nil && (*age < 0 || *age > maxAge) {
		errs.Add(validation.New(FieldAge, validation.KindOutOfRange, fmt.Sprintf("age must be between 0 and %d", maxAge)))
	}

	if birth != nil {
		today := civilDate(v.now())
		born := civilDate(*birth)
		if born.After(today) {
			errs.Add(validation.New(FieldBirthDate, validation.KindFutureBirthDate, "birth date cannot be in the future"))
		} else if age != nil {
			years := int(today.Sub(born).Hours()/24) / 365
			if years != *age {
				errs.Add(validation.New(FieldAge, validation.KindAgeMismatch, "age does not match the birth date"))
			}
		}
	}
	return errs.Err()
}

// AgeFromBirthDate calcula la edad en años completos de 365 días.
func (v *Validator) AgeFromBirthDate(birth time.Time) int {
	days := int(civilDate(v.now()).Sub(civilDate(birth)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days / 365
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidatePhoto revisa tipo declarado y extensión, tamaño y finalmente que
// los bytes decodifiquen como imagen.
func (v *Validator) ValidatePhoto(up PhotoUpload) error {
	ct := strings.ToLower(strings.TrimSpace(up.ContentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct != "" {
		if _, ok := allowedPhotoTypes[ct]; !ok {
			return validation.New(FieldPhoto, validation.KindUnsupportedMediaType, "only JPEG or PNG images are allowed")
		}
	}
	if name := strings.TrimSpace(up.Filename); name != "" {
		if _, ok := allowedPhotoExts[strings.ToLower(filepath.Ext(name))]; !ok {
			return validation.New(FieldPhoto, validation.KindUnsupportedMediaType, "file extension is not allowed")
		}
	}
	if len(up.Data) > MaxPhotoBytes {
		return validation.New(FieldPhoto, validation.KindFileTooLarge, "image exceeds 5 MB")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(up.Data))
	if err != nil || (format != "jpeg" && format != "png") {
		return validation.New(FieldPhoto, validation.KindCorruptImage, "image file is invalid")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPhotoPixels {
		return validation.New(FieldPhoto, validation.KindFileTooLarge, "image dimensions are too large")
	}

	if _, _, err := image.Decode(bytes.NewReader(up.Data)); err != nil {
		return validation.New(FieldPhoto, validation.KindCorruptImage, "image file is invalid")
	}
	return nil
}

package identity

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"pet-records/internal/domain/validation"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Directory expone las consultas de unicidad sobre personas registradas.
// excludedID permite ignorar a la propia persona al editar su perfil.
type Directory interface {
	EmailTaken(ctx context.Context, email, excludedID string) (bool, error)
	NationalIDTaken(ctx context.Context, idType, number, excludedID string) (bool, error)
}

const (
	FieldName       = "name"
	FieldEmail      = "email"
	FieldNationalID = "national_id"

	nameMinLen = 3
	nameMaxLen = 50
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

var secondLevelLabel = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

var (
	disposableDomains = set(
		"mailinator.com", "yopmail.com", "tempmail.com", "10minutemail.com",
		"guerrillamail.com", "discard.email", "trashmail.com",
	)

	academicSuffixes = []string{"edu.ar", "edu.cl"}

	knownUniversities = []string{
		// Chile
		"uchile.cl", "uach.cl", "unab.cl", "umayor.cl", "uvm.cl", "udec.cl", "uss.cl", "udla.cl",
		// Argentina
		"uba.ar", "unlp.edu.ar", "unr.edu.ar", "unicen.edu.ar", "unne.edu.ar", "unrc.edu.ar",
		"unl.edu.ar", "usal.edu.ar", "unimoron.edu.ar",
	}

	freeProviders = set(
		"gmail.com", "outlook.com", "hotmail.com", "live.com", "yahoo.com",
		"icloud.com", "protonmail.com", "gmx.com", "aol.com",
	)

	recognizedTLDs = set(
		"com", "net", "org", "edu", "gov", "mil", "info", "biz", "io", "co", "us", "uk", "es",
		"cl", "mx", "ar", "pe", "uy", "br", "ve", "cr", "pa", "ec", "ca", "de", "fr", "it",
	)
)

// Validator valida nombres, correos y documentos de identidad.
type Validator struct {
	dir Directory
}

func NewValidator(dir Directory) *Validator {
	return &Validator{dir: dir}
}

// ValidateEmail normaliza el correo y aplica unicidad, formato y política de dominio.
func (v *Validator) ValidateEmail(ctx context.Context, candidate, excludedID string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(candidate))
	if email == "" {
		return "", validation.New(FieldEmail, validation.KindRequired, "email is required")
	}

	if v.dir != nil {
		taken, err := v.dir.EmailTaken(ctx, email, excludedID)
		if err != nil {
			return "", fmt.Errorf("check email: %w", err)
		}
		if taken {
			return "", validation.New(FieldEmail, validation.KindDuplicateEmail, "email is already registered")
		}
	}

	if !emailShape.MatchString(email) {
		return "", validation.New(FieldEmail, validation.KindMalformedEmail, "email format is invalid")
	}

	if err := checkDomain(email[strings.LastIndexByte(email, '@')+1:]); err != nil {
		return "", err
	}
	return email, nil
}

func checkDomain(domain string) error {
	if _, ok := disposableDomains[domain]; ok {
		return validation.New(FieldEmail, validation.KindDisposableDomain, "disposable email domains are not allowed")
	}
	if hasAnySuffix(domain, academicSuffixes) || hasAnySuffix(domain, knownUniversities) {
		return nil
	}
	if _, ok := freeProviders[domain]; ok {
		return nil
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return validation.New(FieldEmail, validation.KindInvalidDomain, "email domain is invalid")
	}
	sld, tld := labels[len(labels)-2], labels[len(labels)-1]
	if len(sld) < 2 || !secondLevelLabel.MatchString(sld) {
		return validation.New(FieldEmail, validation.KindInvalidCorporateDomain, "corporate email domain is invalid")
	}
	if _, ok := recognizedTLDs[strings.ToLower(tld)]; !ok {
		return validation.New(FieldEmail, validation.KindUnrecognizedTLD, "email domain is not recognized")
	}
	if strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-") || strings.Contains(domain, "..") {
		return validation.New(FieldEmail, validation.KindInvalidDomain, "email domain is invalid")
	}
	return nil
}

// hasAnySuffix compara por etiqueta completa: "xuba.ar" no coincide con "uba.ar".
func hasAnySuffix(domain string, suffixes []string) bool {
	for _, suf := range suffixes {
		if domain == suf || strings.HasSuffix(domain, "."+suf) {
			return true
		}
	}
	return false
}

// ValidateName devuelve el nombre recortado y en formato título.
func (v *Validator) ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validation.New(FieldName, validation.KindEmptyName, "name is required")
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && r != ' ' {
			return "", validation.New(FieldName, validation.KindInvalidCharacters, "name may only contain letters and spaces")
		}
	}
	n := utf8.RuneCountInString(name)
	if n < nameMinLen {
		return "", validation.New(FieldName, validation.KindTooShort, fmt.Sprintf("name must have at least %d characters", nameMinLen))
	}
	if n > nameMaxLen {
		return "", validation.New(FieldName, validation.KindTooLong, fmt.Sprintf("name must have at most %d characters", nameMaxLen))
	}
	// cases.Caser no es seguro para uso concurrente: uno por llamada.
	return cases.Title(language.Spanish).String(name), nil
}

// ValidateNationalID verifica que el par (tipo, número) no pertenezca a otra persona.
func (v *Validator) ValidateNationalID(ctx context.Context, idType, number, excludedID string) (string, error) {
	idType = strings.TrimSpace(idType)
	number = strings.TrimSpace(number)
	if idType == "" || number == "" {
		return "", validation.New(FieldNationalID, validation.KindRequired, "identification type and number are required")
	}
	if utf8.RuneCountInString(number) > 20 {
		return "", validation.New(FieldNationalID, validation.KindTooLong, "identification must have at most 20 characters")
	}

	if v.dir != nil {
		taken, err := v.dir.NationalIDTaken(ctx, idType, number, excludedID)
		if err != nil {
			return "", fmt.Errorf("check identification: %w", err)
		}
		if taken {
			return "", validation.New(FieldNationalID, validation.KindDuplicateIdentification, "identification is already registered")
		}
	}
	return number, nil
}

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

package care

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"pet-records/internal/domain/validation"
)

const (
	FieldDosage = "dosage"

	dosageMaxLen     = 120
	dosageMaxSymbols = 4
)

// ValidateDosage: opcional; si viene debe tener al menos un carácter ASCII
// alfanumérico y como máximo 4 símbolos (ni alfanumérico ni espacio).
func ValidateDosage(dosage string) (string, error) {
	dosage = strings.TrimSpace(dosage)
	if dosage == "" {
		return "", nil
	}
	if utf8.RuneCountInString(dosage) > dosageMaxLen {
		return "", validation.New(FieldDosage, validation.KindTooLong, fmt.Sprintf("dosage must have at most %d characters", dosageMaxLen))
	}

	var alnum bool
	symbols := 0
	for _, r := range dosage {
		switch {
		case isASCIIAlnum(r):
			alnum = true
		case unicode.IsSpace(r):
		default:
			symbols++
		}
	}
	if !alnum {
		return "", validation.New(FieldDosage, validation.KindDosageNoAlphanumeric, "dosage must include at least one letter or digit")
	}
	if symbols > dosageMaxSymbols {
		return "", validation.New(FieldDosage, validation.KindDosageTooManySymbols, fmt.Sprintf("dosage allows at most %d special characters", dosageMaxSymbols))
	}
	return dosage, nil
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

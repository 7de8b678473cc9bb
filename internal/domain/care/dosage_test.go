package care

import (
	"strings"
	"testing"

	"pet-records/internal/domain/validation"

	"github.com/stretchr/testify/assert"
)

func TestValidateDosage(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want validation.Kind
	}{
		{"empty is optional", "", ""},
		{"plain", "2 tablets", ""},
		{"digits only", "12345", ""},
		{"one symbol", "2 tablets!", ""},
		{"four symbols", "5ml/12h (x)", ""},
		{"unicode spaces are not symbols", "1\u00a0\u00a0\u00a0\u00a0\u00a0ml", ""},
		{"five symbols", "!!!!!x", validation.KindDosageTooManySymbols},
		{"no alphanumeric", "!!", validation.KindDosageNoAlphanumeric},
		{"accents do not count as alphanumeric", "éé", validation.KindDosageNoAlphanumeric},
		{"too long", strings.Repeat("a", 121), validation.KindTooLong},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateDosage(tc.in)
			if tc.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.want, validation.KindOf(err))
		})
	}
}

func TestValidateDosage_Trims(t *testing.T) {
	got, err := ValidateDosage("  1 pill  ")
	assert.NoError(t, err)
	assert.Equal(t, "1 pill", got)
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"pet-records/internal/domain/validation"
	"pet-records/internal/ports/auth"
)

const (
	FieldPassword        = "password"
	FieldPasswordConfirm = "password_confirm"

	passwordMinLen = 8
)

// CredentialPolicy valida contraseñas y delega el hash al Authenticator.
type CredentialPolicy struct {
	auth auth.Authenticator
}

func NewCredentialPolicy(a auth.Authenticator) *CredentialPolicy {
	return &CredentialPolicy{auth: a}
}

func (p *CredentialPolicy) ValidatePassword(pw string) error {
	if utf8.RuneCountInString(pw) < passwordMinLen {
		return validation.New(FieldPassword, validation.KindTooShort, fmt.Sprintf("password must have at least %d characters", passwordMinLen))
	}
	var letter, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter {
		return validation.New(FieldPassword, validation.KindMissingLetter, "password must include letters")
	}
	if !digit {
		return validation.New(FieldPassword, validation.KindMissingDigit, "password must include digits")
	}
	return nil
}

func (p *CredentialPolicy) ValidateConfirmation(pw, confirm string) error {
	if pw != confirm {
		return validation.New(FieldPasswordConfirm, validation.KindMismatch, "passwords do not match")
	}
	return nil
}

// Derive valida la contraseña y devuelve el hash a persistir.
func (p *CredentialPolicy) Derive(ctx context.Context, pw, confirm string) (string, error) {
	var errs validation.Errors
	errs.Add(p.ValidatePassword(pw))
	errs.Add(p.ValidateConfirmation(pw, confirm))
	if err := errs.Err(); err != nil {
		return "", err
	}
	return p.Hash(ctx, pw)
}

// Hash delega en el Authenticator sin validar reglas (altas de staff hechas por admin).
func (p *CredentialPolicy) Hash(ctx context.Context, pw string) (string, error) {
	if p.auth == nil {
		return "", errors.New("authenticator not configured")
	}
	hash, err := p.auth.Hash(ctx, pw)
	if err != nil {
		return "", fmt.Errorf("derive credential: %w", err)
	}
	return hash, nil
}

// Matches compara la contraseña contra el hash almacenado.
func (p *CredentialPolicy) Matches(ctx context.Context, hash, pw string) (bool, error) {
	if p.auth == nil {
		return false, errors.New("authenticator not configured")
	}
	if hash == "" {
		return false, nil
	}
	return p.auth.Verify(ctx, hash, pw)
}

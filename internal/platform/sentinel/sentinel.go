package sentinel

import "errors"

// Errores base compartidos entre módulos. Cada dominio define los suyos
// envolviendo estos, así un handler puede mapear errores de otro módulo
// sin importarlo:
//
//	var ErrNotFound = fmt.Errorf("pet %w", sentinel.ErrNotFound)
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
)

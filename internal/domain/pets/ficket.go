package pets

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

const ficketPrefix = "PET-"

// NewFicket genera un código PET- seguido de 8 hex en mayúsculas.
func NewFicket() string {
	id := uuid.New()
	return ficketPrefix + strings.ToUpper(hex.EncodeToString(id[:4]))
}

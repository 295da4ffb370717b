// Package plate canonicalizes vehicle registration marks.
package plate

import (
	"strings"
	"unicode"

	"vehicle-techdata-workers/internal/common/errors"
)

// VRM is a canonical registration: uppercase with no whitespace.
type VRM string

func (v VRM) String() string {
	return string(v)
}

// Normalize uppercases raw and strips all Unicode whitespace. It fails with
// INVALID_REGISTRATION when nothing is left. Normalize is idempotent.
func Normalize(raw string) (VRM, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	if cleaned == "" {
		return "", errors.NewInvalidRegistrationError(raw)
	}

	return VRM(strings.ToUpper(cleaned)), nil
}

package dictionary

import (
	"context"
	"strings"

	"github.com/antzucaro/matchr"
)

// Metaphone is an offline provider returning the primary Double Metaphone
// code of a phrase. It stands in for a dictionary during development.
type Metaphone struct{}

// Lookup returns the lower-cased primary code, or "" when the phrase yields
// none.
func (Metaphone) Lookup(_ context.Context, phrase string) (string, error) {
	primary, _ := matchr.DoubleMetaphone(strings.TrimSpace(phrase))
	return strings.ToLower(primary), nil
}

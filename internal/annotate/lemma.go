package annotate

import "strings"

type suffixRule struct {
	suffix string
	drop   int
	add    string
}

// Longest suffix first; the first rule whose suffix matches wins.
var lemmaRules = []suffixRule{
	{suffix: "ied", drop: 3, add: "y"},
	{suffix: "ing", drop: 3},
	{suffix: "es", drop: 2},
	{suffix: "ed", drop: 2},
	{suffix: "s", drop: 1},
}

// Lemma derives a candidate base form for a phrase whose lookup came back
// empty. It is a plain suffix strip: "running" becomes "runn".
func Lemma(phrase string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(phrase))
	for _, r := range lemmaRules {
		if !strings.HasSuffix(lower, r.suffix) {
			continue
		}
		base := lower[:len(lower)-r.drop] + r.add
		if len(base) < minTextLen || base == lower {
			return "", false
		}
		return base, true
	}
	return "", false
}

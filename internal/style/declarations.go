package style

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/iparuby/internal/dom"
)

type declaration struct {
	prop  string
	value string
	raw   string // set when the fragment has no property, kept verbatim
}

// splitDeclarations splits a style attribute on semicolons that sit outside
// parentheses and quoted strings, so url(data:...;base64,...) stays whole.
func splitDeclarations(s string) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == ';' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func parseDeclarations(s string) []declaration {
	var out []declaration
	for _, part := range splitDeclarations(s) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		prop, value, ok := strings.Cut(part, ":")
		prop = strings.ToLower(strings.TrimSpace(prop))
		if !ok || prop == "" {
			out = append(out, declaration{raw: strings.TrimSpace(part)})
			continue
		}
		out = append(out, declaration{prop: prop, value: strings.TrimSpace(value)})
	}
	return out
}

// Declarations returns the inline style of n as property -> value. Later
// declarations win, as in CSS.
func Declarations(n *html.Node) map[string]string {
	raw, _ := dom.Attr(n, "style")
	decls := parseDeclarations(raw)
	m := make(map[string]string, len(decls))
	for _, d := range decls {
		if d.raw == "" {
			m[d.prop] = d.value
		}
	}
	return m
}

// SetDeclaration rewrites n's style attribute with prop set to value,
// keeping every other declaration in place.
func SetDeclaration(n *html.Node, prop, value string) {
	raw, _ := dom.Attr(n, "style")
	decls := parseDeclarations(raw)
	prop = strings.ToLower(prop)

	replaced := false
	kept := decls[:0]
	for _, d := range decls {
		if d.raw == "" && d.prop == prop {
			if replaced {
				continue
			}
			d.value = value
			replaced = true
		}
		kept = append(kept, d)
	}
	if !replaced {
		kept = append(kept, declaration{prop: prop, value: value})
	}

	parts := make([]string, 0, len(kept))
	for _, d := range kept {
		if d.raw != "" {
			parts = append(parts, d.raw)
			continue
		}
		parts = append(parts, d.prop+": "+d.value)
	}
	dom.SetAttr(n, "style", strings.Join(parts, "; "))
}

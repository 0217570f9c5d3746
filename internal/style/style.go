// Package style provides the presentation state the annotation engine reads
// (display mode, geometry, corner radii, line-height, line-clamp, hidden flag)
// and the inline overrides it writes.
//
// The engine only depends on the Oracle interface. InlineOracle is the default
// implementation for server-side documents: it computes values from inline
// style declarations and per-tag display defaults, since there is no layout
// engine to ask.
package style

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/iparuby/internal/dom"
)

// Computed is the subset of computed style the engine consults.
type Computed struct {
	Display    string
	Height     Length
	Width      Length
	Radii      [4]Length // top-left, top-right, bottom-right, bottom-left
	LineHeight Length
	LineClamp  string
	Hidden     bool
}

// IsFlex reports a flexible-box display.
func (c Computed) IsFlex() bool {
	return c.Display == "flex" || c.Display == "inline-flex"
}

// IsBlock reports a block-level display.
func (c Computed) IsBlock() bool {
	switch c.Display {
	case "block", "flex", "grid", "list-item", "table", "flow-root":
		return true
	}
	return false
}

// Oracle reads computed presentation state and writes inline overrides.
type Oracle interface {
	// Computed returns false when n is not an element or has no style data.
	Computed(n *html.Node) (Computed, bool)
	// SetInline overrides one property in n's inline style.
	SetInline(n *html.Node, prop, value string)
}

// InlineOracle computes style from the style attribute and tag defaults.
type InlineOracle struct{}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "body": true,
	"dd": true, "details": true, "dialog": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hgroup": true, "hr": true, "html": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "summary": true, "ul": true,
}

func defaultDisplay(tag string) string {
	switch {
	case tag == "li":
		return "list-item"
	case tag == "table":
		return "table"
	case tag == "ruby":
		return "ruby"
	case tag == "rt":
		return "ruby-text"
	case tag == "head" || tag == "script" || tag == "style" || tag == "template":
		return "none"
	case blockTags[tag]:
		return "block"
	}
	return "inline"
}

// Computed implements Oracle.
func (InlineOracle) Computed(n *html.Node) (Computed, bool) {
	if n == nil || n.Type != html.ElementNode {
		return Computed{}, false
	}
	decl := Declarations(n)

	c := Computed{
		Display:    defaultDisplay(dom.Tag(n)),
		Height:     parseBox(decl["height"]),
		Width:      parseBox(decl["width"]),
		LineHeight: ParseLength(decl["line-height"]),
		LineClamp:  strings.ToLower(firstNonEmpty(decl["-webkit-line-clamp"], decl["line-clamp"])),
	}
	if d := strings.ToLower(decl["display"]); d != "" {
		c.Display = d
	}
	if !c.Height.IsSet() {
		c.Height = Length{Unit: UnitAuto, Raw: "auto"}
	}
	if !c.Width.IsSet() {
		c.Width = Length{Unit: UnitAuto, Raw: "auto"}
	}
	if !c.LineHeight.IsSet() {
		c.LineHeight = Length{Unit: UnitKeyword, Raw: "normal"}
	}

	if shorthand := strings.Fields(decl["border-radius"]); len(shorthand) > 0 {
		// Only the horizontal radii before a "/" matter here.
		var vals []string
		for _, f := range shorthand {
			if f == "/" || strings.HasPrefix(f, "/") {
				break
			}
			vals = append(vals, f)
		}
		c.Radii = expandCorners(vals)
	}
	for i, prop := range []string{
		"border-top-left-radius", "border-top-right-radius",
		"border-bottom-right-radius", "border-bottom-left-radius",
	} {
		if v := decl[prop]; v != "" {
			c.Radii[i] = ParseLength(strings.Fields(v)[0])
		}
	}

	_, hidden := dom.Attr(n, "hidden")
	if ah, _ := dom.Attr(n, "aria-hidden"); strings.EqualFold(ah, "true") {
		hidden = true
	}
	if c.Display == "none" || strings.EqualFold(decl["visibility"], "hidden") {
		hidden = true
	}
	c.Hidden = hidden

	return c, true
}

// SetInline implements Oracle.
func (InlineOracle) SetInline(n *html.Node, prop, value string) {
	SetDeclaration(n, prop, value)
}

// expandCorners applies the CSS 1-to-4 value shorthand expansion.
func expandCorners(vals []string) [4]Length {
	var out [4]Length
	switch len(vals) {
	case 0:
		return out
	case 1:
		v := ParseLength(vals[0])
		return [4]Length{v, v, v, v}
	case 2:
		a, b := ParseLength(vals[0]), ParseLength(vals[1])
		return [4]Length{a, b, a, b}
	case 3:
		a, b, c := ParseLength(vals[0]), ParseLength(vals[1]), ParseLength(vals[2])
		return [4]Length{a, b, c, b}
	default:
		for i := range out {
			out[i] = ParseLength(vals[i])
		}
		return out
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

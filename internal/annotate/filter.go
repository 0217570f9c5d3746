package annotate

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/iparuby/internal/dom"
	"github.com/dgallion1/iparuby/internal/style"
)

// Verdict is the eligibility filter's decision for one node.
type Verdict int

const (
	Rejected Verdict = iota
	EligibleContainer
	EligibleText
)

func (v Verdict) String() string {
	switch v {
	case EligibleContainer:
		return "eligible-container"
	case EligibleText:
		return "eligible-text"
	default:
		return "rejected"
	}
}

// minTextLen is the shortest trimmed text that can hold a two-letter word.
const minTextLen = 2

// Filter decides which nodes may be annotated. Rejected elements are added
// to the SkipSet so later passes stop at them.
type Filter struct {
	rules ruleSet
	skip  *SkipSet
	style style.Oracle
}

// NewFilter builds a filter over the given skip set and style oracle.
func NewFilter(r Rules, skip *SkipSet, oracle style.Oracle) *Filter {
	return &Filter{rules: compileRules(r), skip: skip, style: oracle}
}

// Element evaluates a container.
func (f *Filter) Element(n *html.Node) Verdict {
	if n == nil || n.Type != html.ElementNode {
		return Rejected
	}
	if f.skip.Covers(n) {
		return Rejected
	}
	if reason := f.rejectReason(n); reason != "" {
		f.skip.Add(n)
		return Rejected
	}
	return EligibleContainer
}

// Text evaluates a text segment. When parentValidated is set the parent
// element already passed Element in this pass and its verdict is reused.
// This assumes the container's verdict holds for its text children.
func (f *Filter) Text(n *html.Node, parentValidated bool) Verdict {
	if n == nil || n.Type != html.TextNode {
		return Rejected
	}
	if len(strings.TrimSpace(n.Data)) < minTextLen {
		return Rejected
	}
	if parentValidated {
		return EligibleText
	}
	parent := dom.ParentElement(n)
	if parent == nil {
		return Rejected
	}
	if f.Element(parent) != EligibleContainer {
		return Rejected
	}
	return EligibleText
}

// rejectReason returns a short label for the first rule n violates, or "".
func (f *Filter) rejectReason(n *html.Node) string {
	r := f.rules
	if r.tags[dom.Tag(n)] {
		return "tag"
	}
	if ce, ok := dom.Attr(n, "contenteditable"); ok && !strings.EqualFold(strings.TrimSpace(ce), "false") {
		return "editable"
	}
	if v, ok := dom.Attr(n, "role"); ok && r.roles[strings.ToLower(strings.TrimSpace(v))] {
		return "role"
	}
	if v, ok := dom.Attr(n, "aria-label"); ok && r.ariaLabels[strings.ToLower(strings.TrimSpace(v))] {
		return "aria-label"
	}
	if v, ok := dom.Attr(n, "data-track-action-scenario"); ok && r.scenarios[strings.TrimSpace(v)] {
		return "scenario"
	}
	for _, c := range dom.Classes(n) {
		if c == dom.SinkClass || r.classes[c] {
			return "class"
		}
	}

	c, ok := f.style.Computed(n)
	if !ok {
		return "no-style"
	}
	if c.Hidden {
		return "hidden"
	}
	switch r.height {
	case HeightFixed:
		if c.Height.IsFixed() {
			return "fixed-height"
		}
	default:
		if h, ok := c.Height.Pixels(); ok && h == 0 {
			return "zero-height"
		}
	}
	if c.IsFlex() && c.Height.Unit != style.UnitAuto {
		return "flex-height"
	}
	if roundedChip(c) {
		return "rounded"
	}
	return ""
}

// roundedChip reports whether any corner radius exceeds half the shorter
// side of the box, i.e. the box reads as a pill or avatar. Percentage radii
// of 50% or more are circular by construction.
func roundedChip(c style.Computed) bool {
	w, okW := c.Width.Pixels()
	h, okH := c.Height.Pixels()
	for _, r := range c.Radii {
		if r.Unit == style.UnitPercent && r.Value >= 50 {
			return true
		}
	}
	if !okW || !okH {
		return false
	}
	half := min(w, h) / 2
	for _, r := range c.Radii {
		if px, ok := r.Pixels(); ok && px > half {
			return true
		}
	}
	return false
}

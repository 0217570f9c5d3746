package annotate

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/net/html"

	"github.com/dgallion1/iparuby/internal/style"
)

const minLineHeight = "min(300%, 30pt)"

// LayoutReconciler gives annotated paragraphs room for the ruby text.
type LayoutReconciler struct {
	style style.Oracle
	// widened paragraphs keep their first line-height; recomputing from the
	// overridden value would drop the max() against the original.
	widened map[*html.Node]bool
}

// NewLayoutReconciler returns a reconciler writing through oracle.
func NewLayoutReconciler(oracle style.Oracle) *LayoutReconciler {
	return &LayoutReconciler{style: oracle, widened: make(map[*html.Node]bool)}
}

// Reconcile aligns p's inline content to the end, widens its line-height and
// clears any line clamp from p up to the first block-level element.
func (l *LayoutReconciler) Reconcile(p *html.Node) {
	if p == nil || p.Type != html.ElementNode {
		return
	}
	l.style.SetInline(p, "align-items", "end")
	if !l.widened[p] {
		computed, ok := l.style.Computed(p)
		l.style.SetInline(p, "line-height", lineHeightFor(computed.LineHeight, ok))
		l.widened[p] = true
	}

	for n := p; n != nil && n.Type == html.ElementNode; n = n.Parent {
		c, ok := l.style.Computed(n)
		if !ok {
			return
		}
		if c.LineClamp != "" && c.LineClamp != "none" {
			l.style.SetInline(n, "-webkit-line-clamp", "unset")
		}
		if c.IsBlock() {
			return
		}
	}
}

func lineHeightFor(current style.Length, ok bool) string {
	if !ok || current.Unit != style.UnitNumber {
		return minLineHeight
	}
	pct := math.Round(current.Value*100*1000) / 1000
	return fmt.Sprintf("max(%s%%, %s)", strconv.FormatFloat(pct, 'f', -1, 64), minLineHeight)
}

package annotate

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/dgallion1/iparuby/internal/dom"
	"github.com/dgallion1/iparuby/internal/style"
)

func styleOf(n *html.Node) string {
	v, _ := dom.Attr(n, "style")
	return v
}

func TestLayoutReconcileLineHeight(t *testing.T) {
	tests := []struct {
		style string
		want  string
	}{
		{"", "line-height: min(300%, 30pt)"},
		{"line-height: 1.2", "line-height: max(120%, min(300%, 30pt))"},
		{"line-height: 20px", "line-height: min(300%, 30pt)"},
		{"line-height: normal", "line-height: min(300%, 30pt)"},
	}
	for _, tt := range tests {
		p := dom.NewElement("p", "style", tt.style)
		NewLayoutReconciler(style.InlineOracle{}).Reconcile(p)
		got := styleOf(p)
		if !strings.Contains(got, tt.want) {
			t.Errorf("style %q: expected %q in %q", tt.style, tt.want, got)
		}
		if !strings.Contains(got, "align-items: end") {
			t.Errorf("style %q: expected align-items in %q", tt.style, got)
		}
	}
}

func TestLayoutReconcileKeepsFirstLineHeight(t *testing.T) {
	l := NewLayoutReconciler(style.InlineOracle{})
	p := dom.NewElement("p", "style", "line-height: 1.5")
	l.Reconcile(p)
	l.Reconcile(p)
	if got := styleOf(p); !strings.Contains(got, "max(150%, min(300%, 30pt))") {
		t.Errorf("expected original multiplier kept, got %q", got)
	}
}

func TestLayoutReconcileClearsLineClamp(t *testing.T) {
	outer := dom.NewElement("div", "style", "-webkit-line-clamp: 2")
	block := dom.NewElement("div", "style", "-webkit-line-clamp: 3")
	span := dom.NewElement("span", "style", "-webkit-line-clamp: 2")
	plain := dom.NewElement("span")
	outer.AppendChild(block)
	block.AppendChild(span)
	span.AppendChild(plain)

	NewLayoutReconciler(style.InlineOracle{}).Reconcile(plain)

	if got := styleOf(span); !strings.Contains(got, "-webkit-line-clamp: unset") {
		t.Errorf("expected inline ancestor unclamped, got %q", got)
	}
	if got := styleOf(block); !strings.Contains(got, "-webkit-line-clamp: unset") {
		t.Errorf("expected first block ancestor unclamped, got %q", got)
	}
	if got := styleOf(outer); got != "-webkit-line-clamp: 2" {
		t.Errorf("walk must stop at the first block element, got %q", got)
	}
	if got := styleOf(plain); strings.Contains(got, "line-clamp") {
		t.Errorf("unclamped element must not gain a clamp override, got %q", got)
	}
}

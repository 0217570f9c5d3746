package parser

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/dgallion1/iparuby/internal/dom"
)

func renderHTML(t *testing.T, n *html.Node) string {
	t.Helper()
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestMarkdownParser_HeadingsAndParagraphs(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	title := dom.FindElement(doc, "title")
	if title == nil || dom.TextContent(title) != "doc" {
		t.Fatalf("expected <title>doc</title>, got %v", title)
	}
	body := dom.FindBody(doc)
	if body == nil {
		t.Fatal("no body")
	}
	out := renderHTML(t, body)
	for _, want := range []string{
		"<h1>Title</h1>",
		"<p>Intro text.</p>",
		"<h2>Section A</h2>",
		"<p>Section A content.</p>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %s", want, out)
		}
	}
}

func TestMarkdownParser_CodeStaysInCodeElements(t *testing.T) {
	input := "Some intro.\n\n```\nGET /api/users\n```\n\nInline `code` here.\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pre := dom.FindElement(doc, "pre")
	if pre == nil || !strings.Contains(dom.TextContent(pre), "GET /api/users") {
		t.Errorf("expected fenced block inside <pre>, got %s", renderHTML(t, doc))
	}
	if !strings.Contains(renderHTML(t, doc), "<code>code</code>") {
		t.Errorf("expected inline code element")
	}
}

func TestMarkdownParser_GFMTable(t *testing.T) {
	input := "| a | b |\n|---|---|\n| one | two |\n"
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "t.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dom.FindElement(doc, "table") == nil {
		t.Errorf("expected a <table>, got %s", renderHTML(t, doc))
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := dom.FindBody(doc)
	if body == nil || body.FirstChild != nil {
		t.Errorf("expected empty body, got %s", renderHTML(t, doc))
	}
}

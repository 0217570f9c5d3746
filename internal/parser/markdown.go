package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
)

// MarkdownParser converts Markdown to HTML with goldmark. Code spans and
// blocks come out as <code>/<pre> and are left unannotated.
type MarkdownParser struct{}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*html.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return fragmentDocument(baseTitle(filename), buf.String())
}

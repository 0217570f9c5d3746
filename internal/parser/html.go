package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/iparuby/internal/doctree"
	"github.com/dgallion1/iparuby/internal/dom"
)

// HTMLParser handles HTML files. The document is kept as written.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if dom.FindElement(doc, "title") == nil {
		if head := dom.FindElement(doc, "head"); head != nil {
			t := dom.NewElement("title")
			t.AppendChild(dom.NewText(baseTitle(filename)))
			head.AppendChild(t)
		}
	}
	return doc, nil
}

// fragmentDocument wraps an HTML fragment in a fresh document.
func fragmentDocument(title, fragment string) (*html.Node, error) {
	doc, body := doctree.NewDocument(title)
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return doc, nil
}

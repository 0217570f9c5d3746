// Package doctree is the section tree produced by the non-HTML parsers and
// its rendering into an HTML document the annotation engine can observe.
package doctree

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/iparuby/internal/dom"
)

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page/line (0 if N/A)
	Children []*DocNode // Subsections
}

// NewDocument returns an empty HTML document and its body.
func NewDocument(title string) (doc, body *html.Node) {
	doc = &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := dom.NewElement("html")
	head := dom.NewElement("head")
	head.AppendChild(dom.NewElement("meta", "charset", "utf-8"))
	if title != "" {
		t := dom.NewElement("title")
		t.AppendChild(dom.NewText(title))
		head.AppendChild(t)
	}
	body = dom.NewElement("body")
	root.AppendChild(head)
	root.AppendChild(body)
	doc.AppendChild(root)
	return doc, body
}

// Render turns the tree into an HTML document. Titled nodes become
// <section> elements with a heading matching their depth; text is split
// into <p> paragraphs on blank lines.
func Render(t *DocTree) *html.Node {
	doc, body := NewDocument(t.Title)
	for _, c := range t.Children {
		renderNode(body, c, 1)
	}
	return doc
}

func renderNode(parent *html.Node, n *DocNode, depth int) {
	target := parent
	if n.Title != "" || n.Page > 0 {
		section := dom.NewElement("section")
		if n.Page > 0 {
			dom.SetAttr(section, "data-page", strconv.Itoa(n.Page))
		}
		if n.Title != "" {
			h := dom.NewElement("h" + strconv.Itoa(min(depth, 6)))
			h.AppendChild(dom.NewText(n.Title))
			section.AppendChild(h)
		}
		parent.AppendChild(section)
		target = section
	}
	for _, para := range Paragraphs(n.Text) {
		p := dom.NewElement("p")
		p.AppendChild(dom.NewText(para))
		target.AppendChild(p)
	}
	for _, c := range n.Children {
		renderNode(target, c, depth+1)
	}
}

// Paragraphs splits text on blank lines, dropping empty paragraphs.
func Paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package parser

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"

	"github.com/dgallion1/iparuby/internal/doctree"
)

// DOCXParser handles .docx files. Heading styles open nested sections.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*html.Node, error) {
	tree, err := p.Tree(r, filename)
	if err != nil {
		return nil, err
	}
	return doctree.Render(tree), nil
}

func (p *DOCXParser) Tree(r io.Reader, filename string) (*doctree.DocTree, error) {
	// go-docx needs a ReaderAt and size.
	tmp, err := os.CreateTemp("", "iparuby-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	doc, err := docx.Parse(tmp, size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	b := newSectionBuilder()
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if level := docxHeadingLevel(para); level > 0 && text != "" {
			b.heading(level, text)
			continue
		}
		b.paragraph(text)
	}
	return b.tree(baseTitle(filename)), nil
}

// docxHeadingLevel reads "Heading3" or "heading 3" style names.
func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	name := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	rest, ok := strings.CutPrefix(name, "heading")
	if !ok {
		return 0
	}
	level, err := strconv.Atoi(rest)
	if err != nil || level < 1 || level > 6 {
		return 0
	}
	return level
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

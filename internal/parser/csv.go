package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/iparuby/internal/doctree"
)

// CSVParser handles CSV files. Rows are rendered as labelled paragraphs
// rather than a <table>, since tables are never annotated.
type CSVParser struct{}

const csvRowsPerSection = 20

func (p *CSVParser) Parse(r io.Reader, filename string) (*html.Node, error) {
	tree, err := p.Tree(r, filename)
	if err != nil {
		return nil, err
	}
	return doctree.Render(tree), nil
}

// Tree groups data rows into sections of csvRowsPerSection. Each row becomes
// one paragraph of "header: cell" pairs.
func (p *CSVParser) Tree(r io.Reader, filename string) (*doctree.DocTree, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	if len(records) == 0 {
		return tree, nil
	}
	headers := records[0]
	dataRows := records[1:]

	for i := 0; i < len(dataRows); i += csvRowsPerSection {
		end := min(i+csvRowsPerSection, len(dataRows))
		rows := make([]string, 0, end-i)
		for _, row := range dataRows[i:end] {
			rows = append(rows, csvRow(headers, row))
		}
		tree.Children = append(tree.Children, &doctree.DocNode{
			Title: fmt.Sprintf("Rows %d-%d", i+2, end+1), // 1-indexed, skip header
			Text:  strings.Join(rows, "\n\n"),
		})
	}
	return tree, nil
}

func csvRow(headers, row []string) string {
	parts := make([]string, 0, len(row))
	for j, cell := range row {
		if j < len(headers) && headers[j] != "" {
			parts = append(parts, headers[j]+": "+cell)
		} else {
			parts = append(parts, cell)
		}
	}
	return strings.Join(parts, "; ")
}

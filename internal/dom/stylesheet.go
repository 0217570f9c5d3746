package dom

import "golang.org/x/net/html"

// Annotation markup written by the tokenizer and read back by the stylesheet.
const (
	RubyTag       = "ruby"
	SinkTag       = "rt"
	SinkClass     = "ipa-additional-rt"
	SinkValueAttr = "data-rt"
)

const stylesheetID = "ipa-additional-style"

// AnnotationCSS renders the sink's data attribute in front of the ruby text.
const AnnotationCSS = "rt." + SinkClass + "::before { content: attr(" + SinkValueAttr +
	"); font-size: clamp(10pt, 5vw, 70%); opacity: 0.6; }"

// InjectStylesheet appends the annotation rule to <head> once. It reports
// false when the document has no head or the rule is already present.
func InjectStylesheet(doc *html.Node) bool {
	head := FindElement(doc, "head")
	if head == nil {
		return false
	}
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if id, _ := Attr(c, "id"); Tag(c) == "style" && id == stylesheetID {
			return false
		}
	}
	style := NewElement("style", "id", stylesheetID, "type", "text/css")
	style.AppendChild(NewText(AnnotationCSS))
	head.AppendChild(style)
	return true
}

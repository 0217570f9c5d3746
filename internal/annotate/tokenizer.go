package annotate

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/iparuby/internal/dom"
)

var wordPattern = regexp.MustCompile(`[A-Za-z']{2,}`)

// Tokenizer wraps one word per call in ruby markup and queues its sink.
type Tokenizer struct {
	queue *PendingQueue
	skip  *SkipSet
}

// NewTokenizer returns a tokenizer that registers sinks in queue and marks
// inserted markup in skip.
func NewTokenizer(queue *PendingQueue, skip *SkipSet) *Tokenizer {
	return &Tokenizer{queue: queue, skip: skip}
}

// Normalize turns matched text into a phrase key.
func Normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

// FindWord returns the byte span of the first annotatable word in s.
// Candidates with fewer than two distinct letters ("aaaa", "''") are skipped.
func FindWord(s string) (start, end int, ok bool) {
	for _, m := range wordPattern.FindAllStringIndex(s, -1) {
		if distinctLetters(s[m[0]:m[1]]) >= 2 {
			return m[0], m[1], true
		}
	}
	return 0, 0, false
}

// distinctLetters counts the distinct ASCII letters in word, case-folded.
// Apostrophes do not count.
func distinctLetters(word string) int {
	var seen [26]bool
	n := 0
	for i := 0; i < len(word); i++ {
		c := word[i] | 0x20
		if c < 'a' || c > 'z' {
			continue
		}
		if !seen[c-'a'] {
			seen[c-'a'] = true
			n++
		}
	}
	return n
}

// Next annotates the first word in text. The text node keeps the prefix, a
// <ruby>word<rt/></ruby> is inserted after it, and the suffix becomes a new
// text node which is returned so the caller can continue. ok is false when
// the segment holds no further word.
//
//	<span>[start word rest]</span> => <span>start <ruby>word<rt/></ruby>[ rest]</span>
func (t *Tokenizer) Next(text *html.Node) (suffix *html.Node, ok bool) {
	if text == nil || text.Type != html.TextNode || text.Parent == nil {
		return nil, false
	}
	start, end, found := FindWord(text.Data)
	if !found {
		return nil, false
	}

	word := text.Data[start:end]
	phrase := Normalize(word)

	ruby := dom.NewElement(dom.RubyTag)
	ruby.AppendChild(dom.NewText(word))
	rt := dom.NewElement(dom.SinkTag, "class", dom.SinkClass, dom.SinkValueAttr, "")
	ruby.AppendChild(rt)

	after := dom.NewText(text.Data[end:])
	text.Data = text.Data[:start]

	parent := text.Parent
	parent.InsertBefore(ruby, text.NextSibling)
	parent.InsertBefore(after, ruby.NextSibling)

	t.skip.Add(ruby)
	t.skip.Add(rt)
	t.queue.Add(phrase, &Sink{Node: rt, Phrase: phrase})
	return after, true
}

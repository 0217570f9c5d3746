package annotate

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/dgallion1/iparuby/internal/dom"
	"github.com/dgallion1/iparuby/internal/lookup"
)

func parseDoc(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func render(t *testing.T, n *html.Node) string {
	t.Helper()
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		t.Fatalf("render: %v", err)
	}
	return b.String()
}

// byID returns the first element whose id attribute equals id.
func byID(n *html.Node, id string) *html.Node {
	if v, ok := dom.Attr(n, "id"); ok && v == id && n.Type == html.ElementNode {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := byID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// sinks returns every annotation sink under n in document order.
func sinks(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && dom.Tag(n) == dom.SinkTag && dom.HasClass(n, dom.SinkClass) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// rubyWord returns the visible word of the ruby holding sink.
func rubyWord(sink *html.Node) string {
	if sink.Parent == nil || sink.Parent.FirstChild == nil {
		return ""
	}
	return sink.Parent.FirstChild.Data
}

func sinkValue(sink *html.Node) string {
	v, _ := dom.Attr(sink, dom.SinkValueAttr)
	return v
}

// scriptedLookup answers from a fixed table and counts calls per phrase.
type scriptedLookup struct {
	mu      sync.Mutex
	answers map[string]string
	errs    map[string]error
	calls   map[string]int
}

func newScriptedLookup(answers map[string]string) *scriptedLookup {
	return &scriptedLookup{answers: answers, errs: map[string]error{}, calls: map[string]int{}}
}

func (l *scriptedLookup) Lookup(_ context.Context, phrase string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[phrase]++
	if err := l.errs[phrase]; err != nil {
		return "", err
	}
	return l.answers[phrase], nil
}

func (l *scriptedLookup) Calls(phrase string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[phrase]
}

func (l *scriptedLookup) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		n += c
	}
	return n
}

// mapCache is an in-memory lookup.Cache.
type mapCache struct {
	m map[string]string
}

func newMapCache() *mapCache { return &mapCache{m: map[string]string{}} }

func (c *mapCache) Get(_ context.Context, phrase string) (string, bool, error) {
	v, ok := c.m[phrase]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, phrase, value string) error {
	c.m[phrase] = value
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	engine *Engine
	clock  *FakeClock
	lookup *scriptedLookup
	cache  *mapCache
	doc    *html.Node
}

const testWindow = 200 * time.Millisecond

// newHarness builds an engine over src whose lookups run inline.
func newHarness(t *testing.T, src string, answers map[string]string) *harness {
	t.Helper()
	h := &harness{
		clock:  NewFakeClock(),
		lookup: newScriptedLookup(answers),
		cache:  newMapCache(),
		doc:    parseDoc(t, src),
	}
	fetcher := lookup.NewFetcher(h.lookup,
		lookup.WithDispatcher(func(fn func()) { fn() }),
		lookup.WithLogger(discardLogger()))
	e, err := New(h.doc, Options{
		Fetcher:     fetcher,
		Cache:       h.cache,
		Clock:       h.clock,
		QuietWindow: testWindow,
		Logger:      discardLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.engine = e
	return h
}

// settle drains the engine and advances the clock until no timer is armed.
func (h *harness) settle(t *testing.T) {
	t.Helper()
	for i := 0; i < 20; i++ {
		h.engine.drain()
		if h.clock.Pending() == 0 {
			return
		}
		h.clock.Advance(testWindow)
	}
	t.Fatal("engine did not settle")
}

func (h *harness) body() *html.Node {
	return dom.FindBody(h.doc)
}

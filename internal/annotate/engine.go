// Package annotate inserts phonetic ruby annotations into a live HTML tree.
//
// An Engine observes structural changes to one document. Added nodes are
// debounced by a Scheduler, scanned through the eligibility Filter, and
// split by the Tokenizer into <ruby>word<rt/></ruby> constructs whose empty
// <rt> sinks wait in a PendingQueue. The translate pass resolves each queued
// phrase from the cache or through exactly one remote lookup, writes the
// transcription into every sink and widens the surrounding paragraph.
//
// All engine state is owned by the goroutine running Run. Lookup completions
// and notifications are posted to its mailbox, so no lock guards the tree,
// the queue or the skip set.
package annotate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/dgallion1/iparuby/internal/dom"
	"github.com/dgallion1/iparuby/internal/lookup"
	"github.com/dgallion1/iparuby/internal/metrics"
	"github.com/dgallion1/iparuby/internal/style"
)

// DefaultQuietWindow is the debounce window used when Options leaves it zero.
const DefaultQuietWindow = 200 * time.Millisecond

// Fetcher issues one asynchronous lookup and reports it through done.
type Fetcher interface {
	Fetch(ctx context.Context, phrase string, done func(lookup.Result))
}

// Options configures an Engine. Fetcher is required.
type Options struct {
	Fetcher     Fetcher
	Cache       lookup.Cache // nil disables caching
	Clock       Clock        // nil means SystemClock
	Style       style.Oracle // nil means style.InlineOracle
	Rules       *Rules       // nil means DefaultRules
	QuietWindow time.Duration
	Logger      *slog.Logger
}

// Stats counts engine activity since construction.
type Stats struct {
	Passes      int `json:"passes"`
	Annotations int `json:"annotations"`
	Lookups     int `json:"lookups"`
	LookupErrs  int `json:"lookup_errors"`
	CacheHits   int `json:"cache_hits"`
	CacheMisses int `json:"cache_misses"`
	Resolved    int `json:"resolved"`
	Empty       int `json:"empty"`
	Fallbacks   int `json:"fallbacks"`
	Queued      int `json:"queued"`
}

// Engine annotates one document.
type Engine struct {
	root    *html.Node
	fetcher Fetcher
	cache   lookup.Cache
	log     *slog.Logger

	skip     *SkipSet
	filter   *Filter
	tok      *Tokenizer
	queue    *PendingQueue
	layout   *LayoutReconciler
	sched    *Scheduler
	inflight map[string]bool
	fetchCtx context.Context

	mu      sync.Mutex
	mailbox []func()
	wake    chan struct{}
	quiet   bool
	changed chan struct{}
	stats   Stats
}

// New builds an engine observing root.
func New(root *html.Node, opts Options) (*Engine, error) {
	if root == nil {
		return nil, errors.New("annotate: nil root")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("annotate: fetcher is required")
	}
	rules := DefaultRules()
	if opts.Rules != nil {
		rules = *opts.Rules
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Style == nil {
		opts.Style = style.InlineOracle{}
	}
	if opts.QuietWindow <= 0 {
		opts.QuietWindow = DefaultQuietWindow
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Engine{
		root:     root,
		fetcher:  opts.Fetcher,
		cache:    opts.Cache,
		log:      opts.Logger,
		skip:     NewSkipSet(),
		queue:    NewPendingQueue(),
		layout:   NewLayoutReconciler(opts.Style),
		inflight: make(map[string]bool),
		fetchCtx: context.Background(),
		wake:     make(chan struct{}, 1),
		quiet:    true,
		changed:  make(chan struct{}),
	}
	e.filter = NewFilter(rules, e.skip, opts.Style)
	e.tok = NewTokenizer(e.queue, e.skip)
	e.sched = NewScheduler(opts.Clock, opts.QuietWindow, func(gen uint64) {
		e.post(func() { e.onQuiet(gen) })
	})
	return e, nil
}

// Observe reports nodes added to the document. Safe for concurrent use.
func (e *Engine) Observe(nodes ...*html.Node) {
	if len(nodes) == 0 {
		return
	}
	e.post(func() { e.sched.Notify(nodes) })
}

// Run processes notifications, timer expiries and lookup completions until
// ctx is cancelled. Lookups are issued with ctx.
func (e *Engine) Run(ctx context.Context) error {
	e.post(func() { e.fetchCtx = ctx })
	for {
		e.drain()
		select {
		case <-ctx.Done():
			e.sched.Stop()
			return nil
		case <-e.wake:
		}
	}
}

// Do runs fn on the engine loop and waits for it. Use it to read or render
// the document while Run is active.
func (e *Engine) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	e.post(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Settled blocks until no pass is pending and no lookup is in flight.
// Stalled phrases do not keep the engine busy.
func (e *Engine) Settled(ctx context.Context) error {
	for {
		e.mu.Lock()
		if e.quiet && len(e.mailbox) == 0 {
			e.mu.Unlock()
			return nil
		}
		ch := e.changed
		e.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine) count(fn func(s *Stats)) {
	e.mu.Lock()
	fn(&e.stats)
	e.mu.Unlock()
}

func (e *Engine) post(fn func()) {
	e.mu.Lock()
	e.mailbox = append(e.mailbox, fn)
	e.mu.Unlock()
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// drain runs queued events until the mailbox is empty, then publishes
// whether the engine is quiet.
func (e *Engine) drain() {
	for {
		e.mu.Lock()
		batch := e.mailbox
		e.mailbox = nil
		if len(batch) == 0 {
			e.quiet = e.sched.State() == Idle && len(e.inflight) == 0
			e.stats.Queued = e.queue.Len()
			close(e.changed)
			e.changed = make(chan struct{})
			e.mu.Unlock()
			return
		}
		e.quiet = false
		e.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
	}
}

func (e *Engine) onQuiet(gen uint64) {
	batch, ok := e.sched.Expire(gen)
	if !ok {
		return
	}
	e.count(func(s *Stats) { s.Passes++ })
	metrics.PassesTotal.Inc()

	before := e.Stats().Annotations
	for _, n := range batch {
		e.scan(n)
	}
	e.translate()
	e.log.Debug("annotation pass",
		"nodes", len(batch),
		"annotations", e.Stats().Annotations-before,
		"queued", e.queue.Len(),
		"in_flight", len(e.inflight))
}

type scanItem struct {
	node            *html.Node
	parentValidated bool
}

// scan walks the subtree at start with an explicit stack. Containers are
// validated before their children are pushed; the last child is visited first.
func (e *Engine) scan(start *html.Node) {
	if !dom.Contains(e.root, start) {
		return
	}
	stack := []scanItem{{node: start}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := it.node

		switch n.Type {
		case html.DocumentNode:
			for _, c := range dom.Children(n) {
				stack = append(stack, scanItem{node: c})
			}
		case html.ElementNode:
			if e.filter.Element(n) != EligibleContainer {
				continue
			}
			for _, c := range dom.Children(n) {
				stack = append(stack, scanItem{node: c, parentValidated: true})
			}
		case html.TextNode:
			if e.filter.Text(n, it.parentValidated) != EligibleText {
				continue
			}
			e.tokenize(n)
		}
	}
}

func (e *Engine) tokenize(text *html.Node) {
	inserted := 0
	for cur := text; ; {
		next, ok := e.tok.Next(cur)
		if !ok {
			break
		}
		inserted++
		cur = next
	}
	if inserted > 0 {
		e.count(func(s *Stats) { s.Annotations += inserted })
		metrics.AnnotationsTotal.Add(float64(inserted))
	}
}

// translate resolves every queued phrase that is neither in flight nor
// stalled, from cache when possible and otherwise with one lookup.
func (e *Engine) translate() {
	for _, phrase := range e.queue.Phrases() {
		if e.inflight[phrase] || e.queue.Stalled(phrase) {
			continue
		}
		if !e.queue.Has(phrase) {
			continue
		}
		if ipa, ok := e.cacheGet(phrase); ok {
			e.resolve(phrase, ipa)
			continue
		}

		e.inflight[phrase] = true
		e.count(func(s *Stats) { s.Lookups++ })
		e.fetcher.Fetch(e.fetchCtx, phrase, func(r lookup.Result) {
			e.post(func() { e.complete(r) })
		})
	}
}

func (e *Engine) complete(r lookup.Result) {
	delete(e.inflight, r.Phrase)
	if r.Err != nil {
		e.count(func(s *Stats) { s.LookupErrs++ })
		e.log.Error("lookup failed, phrase left unannotated", "phrase", r.Phrase, "error", r.Err)
		e.queue.Stall(r.Phrase)
		return
	}
	if e.cache != nil {
		if err := e.cache.Set(e.fetchCtx, r.Phrase, r.IPA); err != nil {
			e.log.Warn("cache set failed", "phrase", r.Phrase, "error", err)
		}
	}
	e.resolve(r.Phrase, r.IPA)
}

func (e *Engine) cacheGet(phrase string) (string, bool) {
	if e.cache == nil {
		return "", false
	}
	v, ok, err := e.cache.Get(e.fetchCtx, phrase)
	switch {
	case err != nil:
		e.log.Warn("cache get failed", "phrase", phrase, "error", err)
		metrics.CacheTotal.WithLabelValues("error").Inc()
		e.count(func(s *Stats) { s.CacheMisses++ })
		return "", false
	case ok:
		metrics.CacheTotal.WithLabelValues("hit").Inc()
		e.count(func(s *Stats) { s.CacheHits++ })
		return v, true
	default:
		metrics.CacheTotal.WithLabelValues("miss").Inc()
		e.count(func(s *Stats) { s.CacheMisses++ })
		return "", false
	}
}

// resolve writes ipa into every sink queued for phrase. An empty ipa moves
// the sinks to the phrase's lemma, once per sink, and re-arms the scheduler.
func (e *Engine) resolve(phrase, ipa string) {
	sinks := e.queue.Take(phrase)
	if len(sinks) == 0 {
		return
	}

	if ipa != "" {
		var paragraphs []*html.Node
		seen := make(map[*html.Node]bool)
		for _, s := range sinks {
			dom.SetAttr(s.Node, dom.SinkValueAttr, ipa)
			if p := s.Paragraph(); p != nil && !seen[p] {
				seen[p] = true
				paragraphs = append(paragraphs, p)
			}
		}
		for _, p := range paragraphs {
			e.layout.Reconcile(p)
		}
		e.count(func(s *Stats) { s.Resolved++ })
		metrics.ResolvedTotal.WithLabelValues("ipa").Inc()
		return
	}

	e.count(func(s *Stats) { s.Empty++ })
	base, ok := Lemma(phrase)
	if !ok {
		metrics.ResolvedTotal.WithLabelValues("empty").Inc()
		return
	}
	var moved []*Sink
	for _, s := range sinks {
		if !s.Derived {
			s.Derived = true
			moved = append(moved, s)
		}
	}
	if len(moved) == 0 {
		metrics.ResolvedTotal.WithLabelValues("empty").Inc()
		return
	}
	e.queue.Merge(base, moved)
	e.count(func(s *Stats) { s.Fallbacks++ })
	metrics.ResolvedTotal.WithLabelValues("fallback").Inc()
	e.log.Debug("lemma fallback", "phrase", phrase, "base", base, "sinks", len(moved))
	e.sched.Rearm()
}

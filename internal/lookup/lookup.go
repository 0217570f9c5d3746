// Package lookup dispatches remote transcription lookups. A Fetcher runs one
// lookup per phrase off the caller's goroutine, collapses concurrent
// requests for the same phrase and records latency and outcome.
package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dgallion1/iparuby/internal/metrics"
)

// Lookup resolves a phrase to its transcription. An empty string with a nil
// error means the dictionary has no transcription for the phrase.
type Lookup interface {
	Lookup(ctx context.Context, phrase string) (string, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, phrase string) (string, error)

func (f LookupFunc) Lookup(ctx context.Context, phrase string) (string, error) {
	return f(ctx, phrase)
}

// Cache is a flat phrase -> transcription mapping. An empty value is a
// cached "no transcription", distinct from found=false.
type Cache interface {
	Get(ctx context.Context, phrase string) (value string, found bool, err error)
	Set(ctx context.Context, phrase, value string) error
}

// Outcome classifies a finished lookup.
type Outcome string

const (
	OutcomeOK    Outcome = "ok"
	OutcomeEmpty Outcome = "empty"
	OutcomeError Outcome = "error"
)

// Result is the completion of one Fetch.
type Result struct {
	Phrase   string
	IPA      string
	Err      error
	Duration time.Duration
}

// Outcome classifies r.
func (r Result) Outcome() Outcome {
	switch {
	case r.Err != nil:
		return OutcomeError
	case r.IPA == "":
		return OutcomeEmpty
	default:
		return OutcomeOK
	}
}

// Fetcher issues lookups asynchronously.
type Fetcher struct {
	lookup Lookup
	group  singleflight.Group
	goFn   func(func())
	stats  *Stats
	log    *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithDispatcher replaces the goroutine launcher. Tests pass a function that
// runs the work inline.
func WithDispatcher(goFn func(func())) Option {
	return func(f *Fetcher) { f.goFn = goFn }
}

// WithStats records every finished lookup into s.
func WithStats(s *Stats) Option {
	return func(f *Fetcher) { f.stats = s }
}

// WithLogger sets the logger used for failed lookups.
func WithLogger(log *slog.Logger) Option {
	return func(f *Fetcher) { f.log = log }
}

func NewFetcher(l Lookup, opts ...Option) *Fetcher {
	f := &Fetcher{
		lookup: l,
		goFn:   func(fn func()) { go fn() },
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Stats returns the fetcher's latency recorder, or nil.
func (f *Fetcher) Stats() *Stats {
	return f.stats
}

// Fetch looks phrase up off the calling goroutine and calls done exactly
// once with the result. Concurrent fetches of one phrase share a lookup.
func (f *Fetcher) Fetch(ctx context.Context, phrase string, done func(Result)) {
	f.goFn(func() {
		done(f.Do(ctx, phrase))
	})
}

// Do looks phrase up synchronously.
func (f *Fetcher) Do(ctx context.Context, phrase string) Result {
	start := time.Now()
	v, err, _ := f.group.Do(phrase, func() (any, error) {
		return f.call(ctx, phrase)
	})
	res := Result{Phrase: phrase, Err: err, Duration: time.Since(start)}
	if err == nil {
		res.IPA = v.(string)
	}
	return res
}

func (f *Fetcher) call(ctx context.Context, phrase string) (string, error) {
	metrics.LookupsInFlight.Inc()
	defer metrics.LookupsInFlight.Dec()

	start := time.Now()
	ipa, err := f.lookup.Lookup(ctx, phrase)
	elapsed := time.Since(start)

	res := Result{Phrase: phrase, IPA: ipa, Err: err, Duration: elapsed}
	outcome := res.Outcome()
	metrics.LookupsTotal.WithLabelValues(string(outcome)).Inc()
	metrics.LookupDuration.Observe(elapsed.Seconds())
	if f.stats != nil {
		f.stats.Record(elapsed, outcome)
	}
	if err != nil {
		f.log.Debug("lookup failed", "phrase", phrase, "error", err)
		return "", fmt.Errorf("lookup %q: %w", phrase, err)
	}
	return ipa, nil
}

// Resolve returns the transcription of phrase from cache, falling back to a
// synchronous lookup whose result is written back. Cache errors are logged
// and treated as a miss.
func Resolve(ctx context.Context, c Cache, f *Fetcher, phrase string) (ipa string, cached bool, err error) {
	if c != nil {
		v, ok, err := c.Get(ctx, phrase)
		switch {
		case err != nil:
			f.log.Warn("cache get failed", "phrase", phrase, "error", err)
		case ok:
			return v, true, nil
		}
	}
	res := f.Do(ctx, phrase)
	if res.Err != nil {
		return "", false, res.Err
	}
	if c != nil {
		if err := c.Set(ctx, phrase, res.IPA); err != nil {
			f.log.Warn("cache set failed", "phrase", phrase, "error", err)
		}
	}
	return res.IPA, false, nil
}

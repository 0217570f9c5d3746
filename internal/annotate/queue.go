package annotate

import (
	"slices"

	"golang.org/x/net/html"
)

// Sink is an inserted, initially empty annotation slot waiting for the
// transcription of Phrase.
type Sink struct {
	Node   *html.Node // the <rt> element
	Phrase string
	// Derived is set once the sink has been moved to a lemma fallback phrase.
	Derived bool
}

// Paragraph returns the container holding the sink's ruby, or nil when the
// ruby is detached or sits directly under a non-element.
func (s *Sink) Paragraph() *html.Node {
	ruby := s.Node.Parent
	if ruby == nil {
		return nil
	}
	p := ruby.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return p
}

type queueEntry struct {
	sinks   []*Sink
	stalled bool
}

// PendingQueue maps a normalized phrase to the sinks awaiting it. A phrase
// is a key at most once; keys are kept in insertion order.
type PendingQueue struct {
	entries map[string]*queueEntry
	order   []string
}

// NewPendingQueue returns an empty queue.
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{entries: make(map[string]*queueEntry)}
}

func (q *PendingQueue) entry(phrase string) *queueEntry {
	e, ok := q.entries[phrase]
	if !ok {
		e = &queueEntry{}
		q.entries[phrase] = e
		q.order = append(q.order, phrase)
	}
	return e
}

// Add registers a sink under phrase. A new sink clears a stalled phrase.
func (q *PendingQueue) Add(phrase string, s *Sink) {
	q.Merge(phrase, []*Sink{s})
}

// Merge appends sinks to phrase's list, creating the key if needed.
func (q *PendingQueue) Merge(phrase string, sinks []*Sink) {
	if len(sinks) == 0 {
		return
	}
	e := q.entry(phrase)
	for _, s := range sinks {
		s.Phrase = phrase
	}
	e.sinks = append(e.sinks, sinks...)
	e.stalled = false
}

// Take removes phrase and returns its sinks.
func (q *PendingQueue) Take(phrase string) []*Sink {
	e, ok := q.entries[phrase]
	if !ok {
		return nil
	}
	delete(q.entries, phrase)
	if i := slices.Index(q.order, phrase); i >= 0 {
		q.order = slices.Delete(q.order, i, i+1)
	}
	return e.sinks
}

// Has reports whether phrase is queued.
func (q *PendingQueue) Has(phrase string) bool {
	_, ok := q.entries[phrase]
	return ok
}

// Sinks returns the sinks queued for phrase without removing them.
func (q *PendingQueue) Sinks(phrase string) []*Sink {
	if e, ok := q.entries[phrase]; ok {
		return e.sinks
	}
	return nil
}

// Stall marks phrase as failed; it is skipped until a new sink arrives.
func (q *PendingQueue) Stall(phrase string) {
	if e, ok := q.entries[phrase]; ok {
		e.stalled = true
	}
}

// Stalled reports whether phrase is waiting for a fresh trigger.
func (q *PendingQueue) Stalled(phrase string) bool {
	e, ok := q.entries[phrase]
	return ok && e.stalled
}

// Phrases returns a snapshot of the queued phrases in insertion order.
func (q *PendingQueue) Phrases() []string {
	return slices.Clone(q.order)
}

// Len returns the number of queued phrases.
func (q *PendingQueue) Len() int {
	return len(q.entries)
}

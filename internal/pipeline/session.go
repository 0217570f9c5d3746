package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html"

	"github.com/dgallion1/iparuby/internal/annotate"
	"github.com/dgallion1/iparuby/internal/dom"
)

// Session drives one annotation engine over one parsed document.
type Session struct {
	doc    *html.Node
	engine *annotate.Engine
	cancel context.CancelFunc
	done   chan error
}

// NewSession bootstraps the annotation stylesheet into doc and builds an
// engine rooted at it.
func NewSession(doc *html.Node, opts annotate.Options) (*Session, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	dom.InjectStylesheet(doc)
	eng, err := annotate.New(doc, opts)
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	return &Session{doc: doc, engine: eng}, nil
}

// Start runs the engine loop and observes the document body. Lookups are
// cancelled with ctx or by Close.
func (s *Session) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func() { s.done <- s.engine.Run(runCtx) }()

	root := dom.FindBody(s.doc)
	if root == nil {
		root = s.doc
	}
	s.engine.Observe(root)
}

// Settle waits until the engine is quiet. It reports false when ctx ended
// first; the document is still consistent and can be rendered.
func (s *Session) Settle(ctx context.Context) bool {
	return s.engine.Settled(ctx) == nil
}

// Render writes the document from the engine loop.
func (s *Session) Render(ctx context.Context, w io.Writer) error {
	var renderErr error
	if err := s.engine.Do(ctx, func() { renderErr = html.Render(w, s.doc) }); err != nil {
		return err
	}
	return renderErr
}

// Stats returns the engine counters.
func (s *Session) Stats() annotate.Stats {
	return s.engine.Stats()
}

// Close stops the engine loop and waits for it.
func (s *Session) Close() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	err := <-s.done
	s.cancel = nil
	return err
}

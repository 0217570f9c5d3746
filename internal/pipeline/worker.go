package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/net/html"

	"github.com/dgallion1/iparuby/internal/annotate"
	"github.com/dgallion1/iparuby/internal/dom"
	"github.com/dgallion1/iparuby/internal/lookup"
	"github.com/dgallion1/iparuby/internal/metrics"
	"github.com/dgallion1/iparuby/internal/parser"
)

// Deps are the collaborators shared by every job's engine.
type Deps struct {
	Fetcher annotate.Fetcher
	Cache   lookup.Cache
	Rules   *annotate.Rules
}

// WorkerConfig holds per-job limits.
type WorkerConfig struct {
	QuietWindow   time.Duration
	SettleTimeout time.Duration
	PDFFallback   bool
	// ProgressEvery is how often engine counters are copied into the job
	// while it settles.
	ProgressEvery time.Duration
}

// Worker processes a single document job.
type Worker struct {
	deps Deps
	cfg  WorkerConfig
	log  *slog.Logger
}

func NewWorker(deps Deps, cfg WorkerConfig, log *slog.Logger) *Worker {
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = time.Second
	}
	return &Worker{deps: deps, cfg: cfg, log: log}
}

// Options returns the engine options used for a job.
func (w *Worker) Options(log *slog.Logger) annotate.Options {
	return annotate.Options{
		Fetcher:     w.deps.Fetcher,
		Cache:       w.deps.Cache,
		Rules:       w.deps.Rules,
		QuietWindow: w.cfg.QuietWindow,
		Logger:      log,
	}
}

// Process runs parse, annotate and render for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	status := w.process(ctx, job, log)
	metrics.JobsTotal.WithLabelValues(string(status)).Inc()
}

func (w *Worker) process(ctx context.Context, job *Job, log *slog.Logger) JobStatus {
	fail := func(phase, msg string) JobStatus {
		job.AddError(msg)
		job.SetStatus(StatusFailed, phase)
		return StatusFailed
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.cfg.PDFFallback)
	if err != nil {
		log.Error("unsupported format", "error", err)
		return fail("parsing", err.Error())
	}
	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		return fail("parsing", fmt.Sprintf("parse: %s", err))
	}
	if job.Title != "" {
		SetTitle(doc, job.Title)
	}

	// Phase 2: Annotate
	job.SetStatus(StatusAnnotating, "annotating")
	sess, err := NewSession(doc, w.Options(log))
	if err != nil {
		log.Error("engine setup failed", "error", err)
		return fail("annotating", err.Error())
	}
	sess.Start(ctx)
	defer sess.Close()

	settled := w.settle(ctx, sess, job)
	if ctx.Err() != nil {
		return fail("annotating", "cancelled")
	}

	// Phase 3: Render
	job.SetStatus(StatusRendering, "rendering")
	var buf bytes.Buffer
	if err := sess.Render(ctx, &buf); err != nil {
		log.Error("render failed", "error", err)
		return fail("rendering", fmt.Sprintf("render: %s", err))
	}
	st := sess.Stats()
	job.SetProgress(st)
	job.SetResult(buf.Bytes())

	status := StatusCompleted
	if !settled {
		job.AddError(fmt.Sprintf("settle timeout after %s", w.cfg.SettleTimeout))
		status = StatusPartial
	}
	if st.LookupErrs > 0 {
		job.AddError(fmt.Sprintf("%d lookups failed", st.LookupErrs))
		status = StatusPartial
	}
	job.SetStatus(status, "done")
	log.Info("annotation finished",
		"status", status,
		"annotations", st.Annotations,
		"lookups", st.Lookups,
		"cache_hits", st.CacheHits,
		"fallbacks", st.Fallbacks,
		"bytes", buf.Len())
	return status
}

// settle waits for the session bounded by SettleTimeout, copying engine
// counters into the job meanwhile.
func (w *Worker) settle(ctx context.Context, sess *Session, job *Job) bool {
	settleCtx := ctx
	if w.cfg.SettleTimeout > 0 {
		var cancel context.CancelFunc
		settleCtx, cancel = context.WithTimeout(ctx, w.cfg.SettleTimeout)
		defer cancel()
	}

	done := make(chan bool, 1)
	go func() { done <- sess.Settle(settleCtx) }()

	ticker := time.NewTicker(w.cfg.ProgressEvery)
	defer ticker.Stop()
	for {
		select {
		case ok := <-done:
			job.SetProgress(sess.Stats())
			return ok
		case <-ticker.C:
			job.SetProgress(sess.Stats())
		}
	}
}

// SetTitle replaces or adds the document <title>.
func SetTitle(doc *html.Node, title string) {
	t := dom.FindElement(doc, "title")
	if t == nil {
		head := dom.FindElement(doc, "head")
		if head == nil {
			return
		}
		t = dom.NewElement("title")
		head.AppendChild(t)
	}
	for c := t.FirstChild; c != nil; c = t.FirstChild {
		t.RemoveChild(c)
	}
	t.AppendChild(dom.NewText(title))
}

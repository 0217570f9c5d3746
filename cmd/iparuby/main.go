// Command iparuby annotates documents with IPA ruby text from the command
// line. It reads the same environment configuration as the server.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"

	"github.com/dgallion1/iparuby/internal/annotate"
	"github.com/dgallion1/iparuby/internal/config"
	"github.com/dgallion1/iparuby/internal/lookup"
	"github.com/dgallion1/iparuby/internal/parser"
	"github.com/dgallion1/iparuby/internal/pipeline"
)

// CLI defines the command-line interface.
var CLI struct {
	Verbose bool `short:"v" help:"Log engine activity to stderr"`

	Annotate AnnotateCmd `cmd:"" help:"Annotate a document and write HTML"`
	Lookup   LookupCmd   `cmd:"" help:"Print the transcription of each phrase"`
	Lemma    LemmaCmd    `cmd:"" help:"Print the lemma fallback of each phrase"`
}

var errUnsettled = errors.New("lookups still pending; output written with unresolved phrases")

// env is bound into every command.
type env struct {
	cfg config.Config
	log *slog.Logger
	out io.Writer
}

// AnnotateCmd runs one document through the same flow as a server job.
type AnnotateCmd struct {
	Path   string        `arg:"" help:"Document to annotate (html, md, txt, csv, pdf, docx)" type:"existingfile"`
	Out    string        `short:"o" help:"Output file (default stdout)" type:"path"`
	Title  string        `help:"Override the document title"`
	Settle time.Duration `help:"Maximum time to wait for lookups (default SETTLE_TIMEOUT)"`
}

func (c *AnnotateCmd) Run(e *env) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	setup, err := pipeline.NewSetup(e.cfg, e.log)
	if err != nil {
		return err
	}
	defer setup.Close()

	p, err := parser.ForFile(c.Path, e.cfg.PDFFallbackPdftotext)
	if err != nil {
		return err
	}
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	doc, err := p.Parse(f, filepath.Base(c.Path))
	f.Close()
	if err != nil {
		return fmt.Errorf("parse %s: %w", c.Path, err)
	}
	if c.Title != "" {
		pipeline.SetTitle(doc, c.Title)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := pipeline.NewWorker(setup.Deps, pipeline.WorkerConfig{QuietWindow: e.cfg.QuietWindow}, e.log)
	sess, err := pipeline.NewSession(doc, w.Options(e.log))
	if err != nil {
		return err
	}
	sess.Start(ctx)
	defer sess.Close()

	settle := c.Settle
	if settle <= 0 {
		settle = e.cfg.SettleTimeout
	}
	settleCtx, cancel := context.WithTimeout(ctx, settle)
	settled := sess.Settle(settleCtx)
	cancel()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var buf bytes.Buffer
	if err := sess.Render(ctx, &buf); err != nil {
		return err
	}
	if c.Out == "" {
		_, err = e.out.Write(buf.Bytes())
	} else {
		err = os.WriteFile(c.Out, buf.Bytes(), 0o644)
	}
	if err != nil {
		return err
	}

	st := sess.Stats()
	e.log.Info("annotated",
		"path", c.Path,
		"annotations", st.Annotations,
		"lookups", st.Lookups,
		"cache_hits", st.CacheHits,
		"fallbacks", st.Fallbacks,
		"settled", settled)
	if !settled {
		return fmt.Errorf("after %s: %w", settle, errUnsettled)
	}
	return nil
}

// LookupCmd resolves phrases through the configured cache and provider.
type LookupCmd struct {
	Phrases []string `arg:"" help:"Phrases to look up"`
}

func (c *LookupCmd) Run(e *env) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	setup, err := pipeline.NewSetup(e.cfg, e.log)
	if err != nil {
		return err
	}
	defer setup.Close()

	ctx := context.Background()
	for _, raw := range c.Phrases {
		phrase := annotate.Normalize(raw)
		ipa, cached, err := lookup.Resolve(ctx, setup.Store, setup.Lookups, phrase)
		if err != nil {
			return err
		}
		src := "remote"
		if cached {
			src = "cache"
		}
		fmt.Fprintf(e.out, "%s\t%s\t%s\n", phrase, ipa, src)
	}
	return nil
}

// LemmaCmd prints the fallback base form used when a phrase has no
// transcription.
type LemmaCmd struct {
	Phrases []string `arg:"" help:"Phrases to reduce"`
}

func (c *LemmaCmd) Run(e *env) error {
	for _, raw := range c.Phrases {
		base, ok := annotate.Lemma(raw)
		if !ok {
			base = "-"
		}
		fmt.Fprintf(e.out, "%s\t%s\n", annotate.Normalize(raw), base)
	}
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("iparuby"),
		kong.Description("Annotate English text with IPA ruby transcriptions."),
		kong.UsageOnError(),
	)

	cfg := config.Load()
	level := slog.LevelWarn
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	err := ctx.Run(&env{cfg: cfg, log: log, out: os.Stdout})
	if errors.Is(err, errUnsettled) {
		log.Warn(err.Error())
		os.Exit(2)
	}
	ctx.FatalIfErrorf(err)
}

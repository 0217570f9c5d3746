package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/dgallion1/iparuby/internal/cache"
	"github.com/dgallion1/iparuby/internal/config"
	"github.com/dgallion1/iparuby/internal/dom"
	"github.com/dgallion1/iparuby/internal/lookup"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var testDictionary = map[string]string{
	"the":       "ðə",
	"community": "kəˈmjuːnəti",
	"hall":      "hɔːl",
}

func dictLookup(ctx context.Context, phrase string) (string, error) {
	return testDictionary[phrase], nil
}

func testWorker(l lookup.LookupFunc, c lookup.Cache, settle time.Duration) *Worker {
	return NewWorker(
		Deps{Fetcher: lookup.NewFetcher(l, lookup.WithLogger(discard)), Cache: c},
		WorkerConfig{QuietWindow: 5 * time.Millisecond, SettleTimeout: settle, ProgressEvery: 5 * time.Millisecond},
		discard,
	)
}

func TestWorkerAnnotatesText(t *testing.T) {
	c := cache.NewMemory()
	w := testWorker(dictLookup, c, 5*time.Second)
	job, _ := NewJob("hall.txt", "Village", []byte("the community hall"))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Annotations != 3 || snap.Progress.Resolved != 3 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	out, ok := job.Result()
	if !ok {
		t.Fatal("expected a result")
	}
	for _, want := range []string{
		`data-rt="kəˈmjuːnəti"`,
		`class="ipa-additional-rt"`,
		`<title>Village</title>`,
		`id="ipa-additional-style"`,
	} {
		if !strings.Contains(string(out), want) {
			t.Errorf("expected %q in %s", want, out)
		}
	}
	if v, found, _ := c.Get(context.Background(), "hall"); !found || v != "hɔːl" {
		t.Errorf("expected hall cached, got %q %v", v, found)
	}
}

func TestWorkerLookupErrorsArePartial(t *testing.T) {
	w := testWorker(func(ctx context.Context, phrase string) (string, error) {
		if phrase == "hall" {
			return "", errors.New("dictionary down")
		}
		return testDictionary[phrase], nil
	}, nil, 5*time.Second)
	job, _ := NewJob("hall.txt", "", []byte("the community hall"))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected partial, got %q", snap.Status)
	}
	if snap.Progress.LookupErrs != 1 {
		t.Errorf("expected 1 lookup error, got %+v", snap.Progress)
	}
	out, ok := job.Result()
	if !ok || !strings.Contains(string(out), `data-rt="ðə"`) {
		t.Errorf("expected resolved phrases in partial result, got %s", out)
	}
}

func TestWorkerSettleTimeoutIsPartial(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	w := testWorker(func(ctx context.Context, phrase string) (string, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "", ctx.Err()
	}, nil, 50*time.Millisecond)
	job, _ := NewJob("slow.txt", "", []byte("community"))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusPartial {
		t.Fatalf("expected partial, got %q", snap.Status)
	}
	if len(snap.Progress.Errors) == 0 || !strings.Contains(snap.Progress.Errors[0], "settle timeout") {
		t.Errorf("expected settle timeout error, got %v", snap.Progress.Errors)
	}
	out, _ := job.Result()
	if !strings.Contains(string(out), `<rt class="ipa-additional-rt" data-rt=""></rt>`) {
		t.Errorf("expected an unresolved sink, got %s", out)
	}
}

func TestWorkerUnsupportedFormatFails(t *testing.T) {
	w := testWorker(dictLookup, nil, time.Second)
	job, _ := NewJob("tool.exe", "", []byte("MZ"))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "parsing" {
		t.Errorf("expected failed in parsing, got %q/%q", snap.Status, snap.Phase)
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected one error, got %v", snap.Progress.Errors)
	}
}

func TestSessionRenderAfterSettle(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<html><head></head><body><p>hall <code>hall</code></p></body></html>`))
	if err != nil {
		t.Fatal(err)
	}
	w := testWorker(dictLookup, nil, time.Second)
	sess, err := NewSession(doc, w.Options(discard))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sess.Start(ctx)
	if !sess.Settle(ctx) {
		t.Fatal("session did not settle")
	}
	var buf bytes.Buffer
	if err := sess.Render(ctx, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	if st := sess.Stats(); st.Annotations != 1 {
		t.Errorf("expected the <code> copy to be skipped, got %+v", st)
	}
	if !strings.Contains(buf.String(), "<code>hall</code>") {
		t.Errorf("code element changed: %s", buf.String())
	}
	if dom.FindElement(doc, "style") == nil {
		t.Error("expected stylesheet injected")
	}
}

func TestNewSessionRejectsNilDocument(t *testing.T) {
	if _, err := NewSession(nil, testWorker(dictLookup, nil, time.Second).Options(discard)); err == nil {
		t.Error("expected error for nil document")
	}
}

func TestOrchestratorProcessesJobs(t *testing.T) {
	cfg := config.Config{
		WorkerCount:   2,
		MaxQueueSize:  4,
		JobTTL:        time.Hour,
		QuietWindow:   5 * time.Millisecond,
		SettleTimeout: 5 * time.Second,
	}
	o := NewOrchestrator(cfg, Deps{Fetcher: lookup.NewFetcher(lookup.LookupFunc(dictLookup))}, discard)
	o.Start(context.Background())
	defer o.Stop()

	job, _ := NewJob("a.txt", "", []byte("the hall"))
	if err := o.Submit(job); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if o.GetJob(job.ID) != job {
		t.Fatal("job not registered")
	}

	deadline := time.Now().Add(5 * time.Second)
	for !job.Snapshot().Status.Done() {
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, status %q", job.Snapshot().Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if s := job.Snapshot().Status; s != StatusCompleted {
		t.Errorf("expected completed, got %q", s)
	}
}

func TestOrchestratorQueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 0, MaxQueueSize: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, Deps{}, discard)

	first, _ := NewJob("a.txt", "", nil)
	if err := o.Submit(first); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, _ := NewJob("b.txt", "", nil)
	if err := o.Submit(second); err == nil {
		t.Fatal("expected queue full error")
	}
	if s := second.Snapshot().Status; s != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %q", s)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected depth 1, got %d", o.QueueDepth())
	}
}

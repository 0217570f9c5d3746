package pipeline

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/iparuby/internal/annotate"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestNewJob(t *testing.T) {
	job, err := NewJob("notes.txt", "Notes", []byte("hello world"))
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	id, err := uuid.Parse(job.ID)
	if err != nil {
		t.Fatalf("job id %q is not a uuid: %v", job.ID, err)
	}
	if id.Version() != 7 {
		t.Errorf("expected uuid v7, got v%d", id.Version())
	}
	if job.Status != StatusQueued || job.Phase != "queued" {
		t.Errorf("unexpected initial state %q/%q", job.Status, job.Phase)
	}
	if job.ContentHash != ContentHashHex([]byte("hello world")) {
		t.Errorf("unexpected content hash %q", job.ContentHash)
	}
	if string(job.FileData()) != "hello world" {
		t.Errorf("file data not kept")
	}

	other, _ := NewJob("notes.txt", "", nil)
	if other.ID <= job.ID {
		t.Errorf("expected time-ordered ids, got %q then %q", job.ID, other.ID)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusParsing, "parsing"},
		{StatusAnnotating, "annotating"},
		{StatusRendering, "rendering"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJobStatus_Done(t *testing.T) {
	for _, s := range []JobStatus{StatusCompleted, StatusFailed, StatusPartial} {
		if !s.Done() {
			t.Errorf("%q should be terminal", s)
		}
	}
	for _, s := range []JobStatus{StatusQueued, StatusParsing, StatusAnnotating, StatusRendering} {
		if s.Done() {
			t.Errorf("%q should not be terminal", s)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("settle timeout")
	job.AddError("2 lookups failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "settle timeout" {
		t.Errorf("expected first error %q, got %q", "settle timeout", snap.Progress.Errors[0])
	}
}

func TestJob_SetProgress(t *testing.T) {
	job := &Job{ID: "progress-test", UpdatedAt: time.Now()}
	job.SetProgress(annotate.Stats{Annotations: 7, Lookups: 4, LookupErrs: 1, CacheHits: 3, Resolved: 5, Empty: 1, Fallbacks: 2, Queued: 1})

	p := job.Snapshot().Progress
	if p.Annotations != 7 || p.Lookups != 4 || p.LookupErrs != 1 || p.CacheHits != 3 ||
		p.Resolved != 5 || p.Empty != 1 || p.Fallbacks != 2 || p.Pending != 1 {
		t.Errorf("unexpected progress %+v", p)
	}
}

func TestJob_ResultOnlyWhenFinished(t *testing.T) {
	job, _ := NewJob("a.txt", "", []byte("x"))
	job.SetStatus(StatusRendering, "rendering")
	job.SetResult([]byte("<html></html>"))
	if _, ok := job.Result(); ok {
		t.Error("result should not be available while rendering")
	}
	if job.FileData() != nil {
		t.Error("upload should be dropped once rendered")
	}

	job.SetStatus(StatusPartial, "done")
	got, ok := job.Result()
	if !ok || string(got) != "<html></html>" {
		t.Errorf("expected result for partial job, got %q %v", got, ok)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 job, got %d", store.Len())
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

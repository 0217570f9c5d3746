package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/iparuby/internal/cache"
	"github.com/dgallion1/iparuby/internal/config"
	"github.com/dgallion1/iparuby/internal/dictionary"
	"github.com/dgallion1/iparuby/internal/lookup"
	"github.com/dgallion1/iparuby/internal/pipeline"
)

const testKey = "secret"

type testServer struct {
	*httptest.Server
	cache cache.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dict := map[string]string{"the": "ðə", "community": "kəˈmjuːnəti", "hall": "hɔːl"}
	l := lookup.LookupFunc(func(ctx context.Context, phrase string) (string, error) {
		switch phrase {
		case "throttled":
			return "", &dictionary.StatusError{StatusCode: http.StatusTooManyRequests, Message: "slow down"}
		case "broken":
			return "", errors.New("connection reset")
		}
		return dict[phrase], nil
	})
	fetcher := lookup.NewFetcher(l, lookup.WithStats(lookup.NewStats(time.Hour)), lookup.WithLogger(log))
	store := cache.NewMemory()

	cfg := config.Config{
		APIKey:         testKey,
		LookupProvider: config.ProviderBing,
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
		QuietWindow:    5 * time.Millisecond,
		SettleTimeout:  5 * time.Second,
	}
	orch := pipeline.NewOrchestrator(cfg, pipeline.Deps{Fetcher: fetcher, Cache: store}, log)
	orch.Start(context.Background())

	ts := &testServer{Server: httptest.NewServer(NewServer(orch, store, fetcher, log, cfg)), cache: store}
	t.Cleanup(func() {
		ts.Close()
		orch.Stop()
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return m
}

func upload(t *testing.T, filename, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.WriteField("title", "Hall")
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHealthIsPublic(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestMetricsIsPublic(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/api/lookup/hall", nil, "")

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "iparuby_http_requests_total") {
		t.Errorf("expected http metrics in exposition")
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)
	for _, auth := range []string{"", "Bearer wrong", "Basic " + testKey} {
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/lookup/hall", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("auth %q: expected 401, got %d", auth, resp.StatusCode)
		}
	}
}

func TestLookupUsesCacheOnSecondCall(t *testing.T) {
	ts := newTestServer(t)

	first := decode(t, ts.do(t, http.MethodGet, "/api/lookup/Hall", nil, ""))
	if first["phrase"] != "hall" || first["ipa"] != "hɔːl" || first["cached"] != false {
		t.Errorf("unexpected first response %v", first)
	}
	second := decode(t, ts.do(t, http.MethodGet, "/api/lookup/hall", nil, ""))
	if second["cached"] != true || second["ipa"] != "hɔːl" {
		t.Errorf("expected cached hit, got %v", second)
	}
}

func TestLookupEmptySuggestsLemma(t *testing.T) {
	ts := newTestServer(t)
	got := decode(t, ts.do(t, http.MethodGet, "/api/lookup/halls", nil, ""))
	if got["ipa"] != "" || got["lemma"] != "hall" {
		t.Errorf("unexpected response %v", got)
	}
}

func TestLookupErrors(t *testing.T) {
	ts := newTestServer(t)
	if resp := ts.do(t, http.MethodGet, "/api/lookup/throttled", nil, ""); resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", resp.StatusCode)
	}
	if resp := ts.do(t, http.MethodGet, "/api/lookup/broken", nil, ""); resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", resp.StatusCode)
	}
	if _, found, _ := ts.cache.Get(context.Background(), "broken"); found {
		t.Error("failed lookups must not be cached")
	}
}

func TestCacheDelete(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	ts.cache.Set(ctx, "hall", "stale")

	resp := ts.do(t, http.MethodDelete, "/api/cache/hall", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if _, found, _ := ts.cache.Get(ctx, "hall"); found {
		t.Error("expected phrase removed from cache")
	}
}

func TestLookupStats(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/api/lookup/hall", nil, "")

	got := decode(t, ts.do(t, http.MethodGet, "/api/stats/lookup", nil, ""))
	stats, ok := got["stats"].(map[string]any)
	if !ok {
		t.Fatalf("missing stats: %v", got)
	}
	if stats["count"] != float64(1) || stats["ok"] != float64(1) {
		t.Errorf("unexpected stats %v", stats)
	}
	if got["provider"] != config.ProviderBing {
		t.Errorf("unexpected provider %v", got["provider"])
	}
}

func TestAnnotateRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	body, ct := upload(t, "hall.txt", "the community hall")

	resp := ts.do(t, http.MethodPost, "/api/annotate", body, ct)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	accepted := decode(t, resp)
	jobID, _ := accepted["job_id"].(string)
	if jobID == "" || accepted["poll_url"] != "/api/annotate/"+jobID+"/status" {
		t.Fatalf("unexpected accept body %v", accepted)
	}

	deadline := time.Now().Add(5 * time.Second)
	var status string
	for {
		snap := decode(t, ts.do(t, http.MethodGet, "/api/annotate/"+jobID+"/status", nil, ""))
		status, _ = snap["status"].(string)
		if pipeline.JobStatus(status).Done() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %q", status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if status != string(pipeline.StatusCompleted) {
		t.Fatalf("expected completed, got %q", status)
	}

	res := ts.do(t, http.MethodGet, "/api/annotate/"+jobID+"/result", nil, "")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if !strings.HasPrefix(res.Header.Get("Content-Type"), "text/html") {
		t.Errorf("unexpected content type %q", res.Header.Get("Content-Type"))
	}
	out, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(out), `data-rt="hɔːl"`) || !strings.Contains(string(out), "<title>Hall</title>") {
		t.Errorf("unexpected result %s", out)
	}
}

func TestAnnotateRejectsUnsupportedType(t *testing.T) {
	ts := newTestServer(t)
	body, ct := upload(t, "tool.exe", "MZ")
	if resp := ts.do(t, http.MethodPost, "/api/annotate", body, ct); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAnnotateUnknownJob(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/api/annotate/nope/status", "/api/annotate/nope/result"} {
		if resp := ts.do(t, http.MethodGet, path, nil, ""); resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"../../etc/passwd.txt": "passwd.txt",
		"a..b.md":              "a_b.md",
		"":                     "unnamed",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/gridengine/pkg/broadcast"
	gerrors "github.com/matzehuels/gridengine/pkg/errors"
	"github.com/matzehuels/gridengine/pkg/grid"
	"github.com/matzehuels/gridengine/pkg/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev broadcast.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var errDiskFull = errors.New("disk full")

// flakyStore fails every Set while failing is true.
type flakyStore struct {
	store.Store
	failing atomic.Bool
}

func (s *flakyStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if s.failing.Load() {
		return errDiskFull
	}
	return s.Store.Set(ctx, key, data, ttl)
}

func newTestServer(t *testing.T, layouts *store.Layouts, opts ...Option) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(layouts, opts...).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func fileLayouts(t *testing.T, dir string) *store.Layouts {
	t.Helper()
	fs, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store.NewLayouts(fs, nil, 0, nil)
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, data
}

func mustDo(t *testing.T, ts *httptest.Server, method, path, body string, want int) []byte {
	t.Helper()
	status, data := do(t, ts, method, path, body)
	if status != want {
		t.Fatalf("%s %s = %d, want %d: %s", method, path, status, want, data)
	}
	return data
}

func errorCode(t *testing.T, data []byte) gerrors.Code {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode error body %q: %v", data, err)
	}
	return body.Error.Code
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	data := mustDo(t, ts, http.MethodGet, "/healthz", "", http.StatusOK)
	if !bytes.Contains(data, []byte(`"ok"`)) {
		t.Errorf("body = %s", data)
	}
}

func TestLayoutLifecycle(t *testing.T) {
	pub := &recordingPublisher{}
	ts := newTestServer(t, nil, WithPublisher(pub))

	mustDo(t, ts, http.MethodPost, "/layouts/home", `{"rows":4,"cols":4}`, http.StatusCreated)
	status, data := do(t, ts, http.MethodPost, "/layouts/home", `{"rows":4,"cols":4}`)
	if status != http.StatusConflict || errorCode(t, data) != gerrors.ErrCodeLayoutExists {
		t.Errorf("duplicate create = %d %s", status, data)
	}

	mustDo(t, ts, http.MethodPost, "/layouts/home/items", `{"id":"a","x":0,"y":0,"w":2,"h":2}`, http.StatusCreated)
	data = mustDo(t, ts, http.MethodPost, "/layouts/home/items", `{"id":"b","x":0,"y":0,"w":2,"h":2}`, http.StatusCreated)

	var added itemResponse
	if err := json.Unmarshal(data, &added); err != nil {
		t.Fatal(err)
	}
	wantChanges := []grid.Change{
		grid.MoveChange(grid.NewNode("a", 0, 0, 2, 2), grid.NewNode("a", 0, 2, 2, 2)),
		grid.AddChange(grid.NewNode("b", 0, 0, 2, 2)),
	}
	if diff := cmp.Diff(wantChanges, added.Changes); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}

	data = mustDo(t, ts, http.MethodPatch, "/layouts/home/items/b", `{"x":2,"y":0}`, http.StatusOK)
	var moved itemResponse
	if err := json.Unmarshal(data, &moved); err != nil {
		t.Fatal(err)
	}
	if moved.Node != grid.NewNode("b", 2, 0, 2, 2) {
		t.Errorf("moved node = %v", moved.Node)
	}

	data = mustDo(t, ts, http.MethodGet, "/layouts/home/nodes", "", http.StatusOK)
	var nodes struct{ Nodes []grid.Node }
	if err := json.Unmarshal(data, &nodes); err != nil {
		t.Fatal(err)
	}
	wantNodes := []grid.Node{grid.NewNode("a", 0, 2, 2, 2), grid.NewNode("b", 2, 0, 2, 2)}
	if diff := cmp.Diff(wantNodes, nodes.Nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}

	mustDo(t, ts, http.MethodGet, "/layouts/home/check", "", http.StatusOK)
	mustDo(t, ts, http.MethodDelete, "/layouts/home/items/a", "", http.StatusOK)

	text := mustDo(t, ts, http.MethodGet, "/layouts/home/text", "", http.StatusOK)
	if !bytes.Contains(text, []byte("[b]")) || bytes.Contains(text, []byte("[a]")) {
		t.Errorf("text rendering:\n%s", text)
	}

	mustDo(t, ts, http.MethodDelete, "/layouts/home", "", http.StatusNoContent)
	status, data = do(t, ts, http.MethodGet, "/layouts/home", "")
	if status != http.StatusNotFound || errorCode(t, data) != gerrors.ErrCodeLayoutNotFound {
		t.Errorf("get after delete = %d %s", status, data)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.events) != 4 {
		t.Fatalf("published %d events, want 4", len(pub.events))
	}
	for _, ev := range pub.events {
		if ev.Layout != "home" {
			t.Errorf("event layout = %q", ev.Layout)
		}
	}
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t, nil)
	mustDo(t, ts, http.MethodPost, "/layouts/home", `{"rows":2,"cols":3}`, http.StatusCreated)
	mustDo(t, ts, http.MethodPost, "/layouts/home/items", `{"id":"a","x":0,"y":0,"w":1,"h":1}`, http.StatusCreated)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   gerrors.Code
	}{
		{"missing layout", http.MethodGet, "/layouts/nope/nodes", "", http.StatusNotFound, gerrors.ErrCodeLayoutNotFound},
		{"bad layout name", http.MethodGet, "/layouts/a%20b", "", http.StatusBadRequest, gerrors.ErrCodeInvalidInput},
		{"bad dimensions", http.MethodPost, "/layouts/other", `{"rows":2,"cols":0}`, http.StatusBadRequest, gerrors.ErrCodeInvalidInput},
		{"duplicate item", http.MethodPost, "/layouts/home/items", `{"id":"a","x":1,"y":0,"w":1,"h":1}`, http.StatusConflict, gerrors.ErrCodeItemAlreadyExists},
		{"out of bounds", http.MethodPost, "/layouts/home/items", `{"id":"b","x":2,"y":0,"w":2,"h":1}`, http.StatusUnprocessableEntity, gerrors.ErrCodeOutOfBounds},
		{"negative size", http.MethodPost, "/layouts/home/items", `{"id":"b","x":0,"y":0,"w":-1,"h":1}`, http.StatusBadRequest, gerrors.ErrCodeInvalidInput},
		{"malformed body", http.MethodPost, "/layouts/home/items", `{"id":`, http.StatusBadRequest, gerrors.ErrCodeInvalidFormat},
		{"unknown field", http.MethodPost, "/layouts/home/items", `{"id":"b","z":1}`, http.StatusBadRequest, gerrors.ErrCodeInvalidFormat},
		{"move missing item", http.MethodPatch, "/layouts/home/items/ghost", `{"x":0,"y":0}`, http.StatusNotFound, gerrors.ErrCodeItemNotFound},
		{"move without y", http.MethodPatch, "/layouts/home/items/a", `{"x":0}`, http.StatusBadRequest, gerrors.ErrCodeInvalidInput},
		{"remove missing item", http.MethodDelete, "/layouts/home/items/ghost", "", http.StatusNotFound, gerrors.ErrCodeItemNotFound},
		{"far below grid", http.MethodPost, "/layouts/home/items", `{"id":"b","x":0,"y":4611686018427387904,"w":1,"h":1}`, http.StatusBadRequest, gerrors.ErrCodeInvalidInput},
		{"move far below grid", http.MethodPatch, "/layouts/home/items/a", `{"x":0,"y":4611686018427387904}`, http.StatusBadRequest, gerrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := do(t, ts, tt.method, tt.path, tt.body)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", status, tt.wantStatus, data)
			}
			if code := errorCode(t, data); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}

	// Failed calls leave the layout untouched.
	data := mustDo(t, ts, http.MethodGet, "/layouts/home/nodes", "", http.StatusOK)
	if !bytes.Contains(data, []byte(`"id":"a","x":0,"y":0`)) || bytes.Contains(data, []byte(`"b"`)) {
		t.Errorf("nodes after failures: %s", data)
	}
}

func TestLayoutsPersistAcrossServers(t *testing.T) {
	dir := t.TempDir()

	first := newTestServer(t, fileLayouts(t, dir))
	mustDo(t, first, http.MethodPost, "/layouts/office", `{"rows":3,"cols":3}`, http.StatusCreated)
	mustDo(t, first, http.MethodPost, "/layouts/office/items", `{"id":"desk","x":1,"y":1,"w":2,"h":1}`, http.StatusCreated)

	second := newTestServer(t, fileLayouts(t, dir))
	data := mustDo(t, second, http.MethodGet, "/layouts/office/nodes", "", http.StatusOK)
	if !bytes.Contains(data, []byte(`"id":"desk","x":1,"y":1,"w":2,"h":1`)) {
		t.Errorf("nodes = %s", data)
	}

	data = mustDo(t, second, http.MethodGet, "/layouts", "", http.StatusOK)
	var list struct{ Layouts []string }
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"office"}, list.Layouts); diff != "" {
		t.Errorf("layouts mismatch (-want +got):\n%s", diff)
	}

	doc := mustDo(t, second, http.MethodGet, "/layouts/office", "", http.StatusOK)
	if !bytes.Contains(doc, []byte(`"version":1`)) {
		t.Errorf("document = %s", doc)
	}
}

func TestConcurrentAdds(t *testing.T) {
	ts := newTestServer(t, nil)
	mustDo(t, ts, http.MethodPost, "/layouts/busy", `{"rows":2,"cols":4}`, http.StatusCreated)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body := `{"id":"n` + string(rune('a'+i)) + `","x":0,"y":0,"w":2,"h":1}`
			if status, data := do(t, ts, http.MethodPost, "/layouts/busy/items", body); status != http.StatusCreated {
				t.Errorf("add = %d: %s", status, data)
			}
		}()
	}
	wg.Wait()

	mustDo(t, ts, http.MethodGet, "/layouts/busy/check", "", http.StatusOK)
	data := mustDo(t, ts, http.MethodGet, "/layouts/busy/nodes", "", http.StatusOK)
	var nodes struct{ Nodes []grid.Node }
	if err := json.Unmarshal(data, &nodes); err != nil {
		t.Fatal(err)
	}
	if len(nodes.Nodes) != 16 {
		t.Errorf("nodes = %d, want 16", len(nodes.Nodes))
	}
}

func TestFailedSaveDiscardsChange(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	st := &flakyStore{Store: fs}
	pub := &recordingPublisher{}
	ts := newTestServer(t, store.NewLayouts(st, nil, 0, nil), WithPublisher(pub))

	mustDo(t, ts, http.MethodPost, "/layouts/home", `{"rows":3,"cols":3}`, http.StatusCreated)
	mustDo(t, ts, http.MethodPost, "/layouts/home/items", `{"id":"a","x":0,"y":0,"w":1,"h":1}`, http.StatusCreated)

	st.failing.Store(true)
	failed := []struct{ method, path, body string }{
		{http.MethodPost, "/layouts/home/items", `{"id":"b","x":0,"y":0,"w":2,"h":1}`},
		{http.MethodPatch, "/layouts/home/items/a", `{"x":2,"y":2}`},
		{http.MethodDelete, "/layouts/home/items/a", ""},
	}
	for _, f := range failed {
		if status, data := do(t, ts, f.method, f.path, f.body); status != http.StatusInternalServerError {
			t.Errorf("%s %s with failing store = %d, want 500: %s", f.method, f.path, status, data)
		}
	}

	data := mustDo(t, ts, http.MethodGet, "/layouts/home/nodes", "", http.StatusOK)
	var nodes struct{ Nodes []grid.Node }
	if err := json.Unmarshal(data, &nodes); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]grid.Node{grid.NewNode("a", 0, 0, 1, 1)}, nodes.Nodes); diff != "" {
		t.Errorf("nodes after failed saves (-want +got):\n%s", diff)
	}
	pub.mu.Lock()
	published := len(pub.events)
	pub.mu.Unlock()
	if published != 1 {
		t.Errorf("published %d events, want 1", published)
	}

	st.failing.Store(false)
	mustDo(t, ts, http.MethodPost, "/layouts/home/items", `{"id":"b","x":0,"y":0,"w":2,"h":1}`, http.StatusCreated)
	pub.mu.Lock()
	published = len(pub.events)
	pub.mu.Unlock()
	if published != 2 {
		t.Errorf("published %d events after retry, want 2", published)
	}
}

func TestRowLimit(t *testing.T) {
	ts := newTestServer(t, nil, WithMaxRows(100))
	mustDo(t, ts, http.MethodPost, "/layouts/home", `{"rows":4,"cols":4}`, http.StatusCreated)
	mustDo(t, ts, http.MethodPost, "/layouts/home/items", `{"id":"a","x":0,"y":98,"w":1,"h":2}`, http.StatusCreated)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"tall layout", http.MethodPost, "/layouts/tall", `{"rows":101,"cols":4}`},
		{"bottom edge past limit", http.MethodPost, "/layouts/home/items", `{"id":"b","x":1,"y":99,"w":1,"h":2}`},
		{"taller than limit", http.MethodPost, "/layouts/home/items", `{"id":"b","x":1,"y":0,"w":1,"h":101}`},
		{"huge height", http.MethodPost, "/layouts/home/items", `{"id":"b","x":1,"y":1,"w":1,"h":9223372036854775807}`},
		{"move past limit", http.MethodPatch, "/layouts/home/items/a", `{"x":0,"y":99}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := do(t, ts, tt.method, tt.path, tt.body)
			if status != http.StatusBadRequest {
				t.Errorf("status = %d, want %d: %s", status, http.StatusBadRequest, data)
			}
			if code := errorCode(t, data); code != gerrors.ErrCodeInvalidInput {
				t.Errorf("code = %q, want %q", code, gerrors.ErrCodeInvalidInput)
			}
		})
	}

	data := mustDo(t, ts, http.MethodGet, "/layouts/home/nodes", "", http.StatusOK)
	var nodes struct{ Nodes []grid.Node }
	if err := json.Unmarshal(data, &nodes); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]grid.Node{grid.NewNode("a", 0, 98, 1, 2)}, nodes.Nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	mustDo(t, ts, http.MethodGet, "/layouts/tall", "", http.StatusNotFound)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "gridengine_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	ts := newTestServer(t, nil, WithMetrics(reg))
	data := mustDo(t, ts, http.MethodGet, "/metrics", "", http.StatusOK)
	if !bytes.Contains(data, []byte("gridengine_test_total 1")) {
		t.Errorf("metrics = %s", data)
	}

	plain := newTestServer(t, nil)
	mustDo(t, plain, http.MethodGet, "/metrics", "", http.StatusNotFound)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&grid.ItemNotFoundError{ID: "a"}, http.StatusNotFound},
		{&grid.ItemExistsError{ID: "a"}, http.StatusConflict},
		{gerrors.New(gerrors.ErrCodeNetwork, "down"), http.StatusServiceUnavailable},
		{gerrors.New(gerrors.ErrCodeUnsupported, "no"), http.StatusNotImplemented},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

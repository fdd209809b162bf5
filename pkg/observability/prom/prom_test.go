package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/gridengine/pkg/grid"
	"github.com/matzehuels/gridengine/pkg/observability"
)

func TestEngineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Register(reg)
	t.Cleanup(observability.Reset)

	e := grid.New(6, 6)
	if _, err := e.AddItem("a", 0, 0, 2, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddItem("b", 0, 0, 2, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddItem("b", 0, 0, 1, 1); err == nil {
		t.Fatal("duplicate add should fail")
	}

	if got := testutil.ToFloat64(m.operations.WithLabelValues("add")); got != 3 {
		t.Errorf("operations{add} = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.operationErrors.WithLabelValues("add")); got != 1 {
		t.Errorf("operation_errors{add} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.cascades); got != 1 {
		t.Errorf("cascade series = %d, want 1", got)
	}
}

func TestStoreAndHTTPMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()

	m.OnLoad(ctx, "file", true)
	m.OnLoad(ctx, "file", false)
	m.OnLoad(ctx, "file", false)
	m.OnSave(ctx, "file", 512)
	m.OnError(ctx, "redis", "save", errors.New("down"))

	if got := testutil.ToFloat64(m.storeLoads.WithLabelValues("file", "miss")); got != 2 {
		t.Errorf("loads{miss} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.storeErrors.WithLabelValues("redis", "save")); got != 1 {
		t.Errorf("errors{redis,save} = %v, want 1", got)
	}

	m.OnRequest(ctx, "GET", "/layouts")
	if got := testutil.ToFloat64(m.inflight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	m.OnResponse(ctx, "GET", "/layouts", 200, 3*time.Millisecond)
	if got := testutil.ToFloat64(m.inflight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/layouts", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Error("registering twice on one registry should panic")
		}
	}()
	New(reg)
}

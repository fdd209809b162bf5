package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/gridengine/pkg/grid"
)

func TestOpenLayoutNamesSkipsPending(t *testing.T) {
	open := newOpenLayouts()

	loaded := &layout{name: "office", engine: grid.New(2, 2)}
	loaded.ready.Store(true)
	open.items["office"] = loaded
	open.items["loading"] = &layout{name: "loading"}

	if diff := cmp.Diff([]string{"office"}, open.names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestListSkipsFailedLoad(t *testing.T) {
	ts := newTestServer(t, nil)
	mustDo(t, ts, http.MethodGet, "/layouts/ghost/nodes", "", http.StatusNotFound)
	mustDo(t, ts, http.MethodPost, "/layouts/home", `{"rows":2,"cols":2}`, http.StatusCreated)

	data := mustDo(t, ts, http.MethodGet, "/layouts", "", http.StatusOK)
	var list struct{ Layouts []string }
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"home"}, list.Layouts); diff != "" {
		t.Errorf("layouts mismatch (-want +got):\n%s", diff)
	}
}

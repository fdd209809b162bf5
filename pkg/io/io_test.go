package io

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	gerrors "github.com/matzehuels/gridengine/pkg/errors"
	"github.com/matzehuels/gridengine/pkg/grid"
)

func sampleEngine(t *testing.T) *grid.Engine {
	t.Helper()
	e := grid.New(4, 3)
	if _, err := e.AddItem("a", 0, 0, 2, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddItem("b", 0, 0, 1, 2); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestJSONRoundTrip(t *testing.T) {
	e := sampleEngine(t)

	var buf bytes.Buffer
	if err := WriteJSON(e, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"version": 1`) {
		t.Errorf("output missing version:\n%s", buf.String())
	}

	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if diff := cmp.Diff(e.Snapshot(), got.Snapshot()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	e := sampleEngine(t)
	data, err := Marshal(e)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(e.Nodes(), got.Nodes()); diff != "" {
		t.Errorf("Nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestExportImportFile(t *testing.T) {
	e := sampleEngine(t)
	path := filepath.Join(t.TempDir(), "layout.json")

	if err := ExportJSON(e, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if diff := cmp.Diff(e.Snapshot(), got.Snapshot()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := ImportJSON(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ImportJSON of a missing file should fail")
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  gerrors.Code
	}{
		{"malformed", `{"rows":`, gerrors.ErrCodeInvalidFormat},
		{"future version", `{"version": 9, "rows": 1, "cols": 1, "cells": [[""]]}`, gerrors.ErrCodeUnsupported},
		{"row mismatch", `{"rows": 2, "cols": 1, "cells": [[""]]}`, gerrors.ErrCodeInvalidSnapshot},
		{
			"unknown item",
			`{"rows": 1, "cols": 1, "cells": [["ghost"]], "items": {}}`,
			gerrors.ErrCodeInvalidSnapshot,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.input))
			if !gerrors.Is(err, tt.code) {
				t.Errorf("ReadJSON err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestReadJSONWithoutVersion(t *testing.T) {
	input := `{
	  "rows": 1, "cols": 2, "can_expand_y": true,
	  "cells": [["a", ""]],
	  "items": {"a": {"id": "a", "x": 0, "y": 0, "w": 1, "h": 1}}
	}`
	e, err := ReadJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if n, ok := e.Node("a"); !ok || n != grid.NewNode("a", 0, 0, 1, 1) {
		t.Errorf("Node(a) = %v, %v", n, ok)
	}
}

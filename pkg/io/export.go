package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/gridengine/pkg/grid"
)

// Version is the layout document version written by this package.
const Version = 1

type document struct {
	Version int `json:"version"`
	grid.Snapshot
}

// WriteJSON encodes the engine's current layout as indented JSON and writes
// it to w. The output can be re-imported with [ReadJSON].
func WriteJSON(e *grid.Engine, w io.Writer) error {
	return WriteSnapshot(e.Snapshot(), w)
}

// WriteSnapshot encodes s as indented JSON and writes it to w.
func WriteSnapshot(s grid.Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(document{Version: Version, Snapshot: s}); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Marshal returns the compact JSON document for the engine's layout.
func Marshal(e *grid.Engine) ([]byte, error) {
	data, err := json.Marshal(document{Version: Version, Snapshot: e.Snapshot()})
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// ExportJSON writes the engine's layout to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(e *grid.Engine, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(e, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

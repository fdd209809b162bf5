package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	gerrors "github.com/matzehuels/gridengine/pkg/errors"
	"github.com/matzehuels/gridengine/pkg/grid"
)

// ReadJSON decodes a layout document from r and rebuilds an engine from it.
// opts are passed to [grid.FromSnapshot].
//
// ReadJSON returns an INVALID_FORMAT error for malformed JSON, UNSUPPORTED for
// a newer document version and INVALID_SNAPSHOT when the decoded layout breaks
// the grid/registry invariant. ReadJSON does not close r.
func ReadJSON(r io.Reader, opts ...grid.Option) (*grid.Engine, error) {
	s, err := ReadSnapshot(r)
	if err != nil {
		return nil, err
	}
	return grid.FromSnapshot(s, opts...)
}

// ReadSnapshot decodes a layout document from r without validating it.
func ReadSnapshot(r io.Reader) (grid.Snapshot, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return grid.Snapshot{}, gerrors.Wrap(gerrors.ErrCodeInvalidFormat, err, "decode layout")
	}
	switch doc.Version {
	case 0, Version:
	default:
		return grid.Snapshot{}, gerrors.New(gerrors.ErrCodeUnsupported, "layout version %d (max %d)", doc.Version, Version)
	}
	if doc.Items == nil {
		doc.Items = map[string]grid.Node{}
	}
	return doc.Snapshot, nil
}

// Unmarshal is [ReadJSON] for a byte slice.
func Unmarshal(data []byte, opts ...grid.Option) (*grid.Engine, error) {
	return ReadJSON(bytes.NewReader(data), opts...)
}

// ImportJSON reads a JSON file at path and returns the rebuilt engine.
// The error wraps the underlying cause with the file path for context.
func ImportJSON(path string, opts ...grid.Option) (*grid.Engine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	e, err := ReadJSON(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

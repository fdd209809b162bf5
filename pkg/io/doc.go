// Package io provides JSON import and export for grid layouts.
//
// # Overview
//
// A layout document is a versioned [grid.Snapshot]: the grid dimensions,
// every cell's item reference and the item registry. The format is used by
// the CLI (--out, render), by every store backend and by the HTTP API, and
// round-trips exactly: import, mutate, export and re-import identically.
//
// # JSON Format
//
//	{
//	  "version": 1,
//	  "rows": 3,
//	  "cols": 2,
//	  "can_expand_y": true,
//	  "cells": [
//	    ["a", "a"],
//	    ["", ""],
//	    ["", ""]
//	  ],
//	  "items": {
//	    "a": {"id": "a", "x": 0, "y": 0, "w": 2, "h": 1}
//	  }
//	}
//
// Empty cells are encoded as "". A document without a version field is read
// as version 1.
//
// # Import
//
// Use [ImportJSON] to read a layout from a file path, or [ReadJSON] to read
// from any io.Reader. Both validate the document with [grid.Snapshot.Validate]
// before building an engine, so a successfully imported engine always
// satisfies the grid/registry consistency invariant.
//
// # Export
//
// Use [ExportJSON] to write a layout to a file, or [WriteJSON] to write to any
// io.Writer. [Marshal] and [Unmarshal] work on byte slices for storage.
package io

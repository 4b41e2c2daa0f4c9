// Package source parses external byte streams into transient row values.
//
// A reader takes a line stream plus a format descriptor and produces a lazy
// RowStream. Rows are intermediate: the environment constructors consume them
// immediately and never expose them downstream. Format errors are reported
// per-record and skipped with a warning unless the reader is strict, in which
// case the first malformed record aborts the stream. Structural errors (an
// unreadable header, a missing file) always abort.
package source

import (
	"fmt"
	"sort"
)

// Row is the transient intermediate value produced by a reader: a mapping
// from feature identifier to scalar value plus an optional label.
type Row struct {
	// Index is the zero-based logical record index within the source.
	Index int
	// Features maps feature identifiers to values. Absent keys imply zero,
	// so sparse formats only populate the indices a record names.
	Features map[string]float64
	// Label is the row's primary label, empty when the source is unlabeled.
	Label string
	// Labels carries every label of a multi-label record. Labels[0] == Label
	// when present.
	Labels []string
	// Missing lists the columns whose value was absent ("?" or empty) in
	// this record. Missing columns get no Features entry, so downstream
	// imputation can tell "missing" apart from "sparse zero".
	Missing []string
}

// FeatureKeys returns the row's feature identifiers in ascending order.
func (r Row) FeatureKeys() []string {
	keys := make([]string, 0, len(r.Features))
	for k := range r.Features {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RowStream is a pull-based lazy sequence of rows. Finite for file-backed
// sources. The consumer calls Next until false, then checks Err.
type RowStream interface {
	Next() bool
	Row() Row
	Err() error
}

// rowSliceStream adapts a materialized row slice to RowStream.
type rowSliceStream struct {
	rows []Row
	pos  int
}

// NewRowSliceStream returns a RowStream over in-memory rows.
func NewRowSliceStream(rows []Row) RowStream {
	return &rowSliceStream{rows: rows, pos: -1}
}

func (s *rowSliceStream) Next() bool {
	if s.pos+1 >= len(s.rows) {
		return false
	}
	s.pos++
	return true
}

func (s *rowSliceStream) Row() Row   { return s.rows[s.pos] }
func (s *rowSliceStream) Err() error { return nil }

// CollectRows drains a RowStream into a slice.
func CollectRows(s RowStream) ([]Row, error) {
	var out []Row
	for s.Next() {
		out = append(out, s.Row())
	}
	return out, s.Err()
}

// UnavailableError reports that a file or network source could not be
// accessed at all. Always structural.
type UnavailableError struct {
	Source string
	Cause  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("source %q unavailable: %v", e.Source, e.Cause)
}

func (e *UnavailableError) Unwrap() error { return e.Cause }

// MalformedRecordError reports a single-record parse failure with enough
// context to locate the record without re-running under extra logging.
type MalformedRecordError struct {
	Source string
	Row    int
	Value  string
	Cause  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("source %q row %d: malformed record %q: %v", e.Source, e.Row, e.Value, e.Cause)
}

func (e *MalformedRecordError) Unwrap() error { return e.Cause }

package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// NominalEncoding selects how nominal (non-numeric) columns become features.
type NominalEncoding string

const (
	// EncodeOneHot emits one "col=value" feature with value 1 per nominal
	// cell. This is the default and matches how classification datasets are
	// usually prepared for bandit conversion.
	EncodeOneHot NominalEncoding = "onehot"
	// EncodeIndex emits the column name with the value's first-seen ordinal.
	// Deterministic for a fixed input sequence.
	EncodeIndex NominalEncoding = "index"
)

// CSVReader parses dense RFC-4180-like rows. Column types are inferred per
// cell: cells that parse as floats are numeric, everything else is nominal
// and encoded per Encoding.
type CSVReader struct {
	// HasHeader consumes the first record as column names. Without a header
	// columns are named by position ("0", "1", ...).
	HasHeader bool
	// LabelColumn names the label column; empty selects the last column.
	// Set to "-" for unlabeled data.
	LabelColumn string
	// Encoding is the nominal encoding policy, EncodeOneHot when empty.
	Encoding NominalEncoding
	// Strict aborts the stream on the first malformed record instead of
	// skipping it with a warning.
	Strict bool
	// Comma overrides the field delimiter (',' when zero).
	Comma rune
}

// Read returns a lazy RowStream over src. The source is opened on the first
// pull and closed when the stream ends.
func (r CSVReader) Read(src ByteSource) RowStream {
	return &csvStream{cfg: r, src: src}
}

type csvStream struct {
	cfg CSVReader
	src ByteSource

	rc      io.ReadCloser
	cr      *csv.Reader
	header  []string
	label   int // label column index, -1 for unlabeled
	ordinal map[string]map[string]float64

	row  Row
	next int
	err  error
	done bool
}

func (s *csvStream) Row() Row   { return s.row }
func (s *csvStream) Err() error { return s.err }

func (s *csvStream) Next() bool {
	if s.done {
		return false
	}
	if s.cr == nil && !s.open() {
		return false
	}

	for {
		record, err := s.cr.Read()
		if err == io.EOF {
			s.finish(nil)
			return false
		}
		if err != nil {
			malformed := &MalformedRecordError{Source: s.src.ID(), Row: s.next, Value: strings.Join(record, ","), Cause: err}
			s.next++
			if s.cfg.Strict {
				s.finish(malformed)
				return false
			}
			logrus.Warnf("skipping record: %v", malformed)
			continue
		}

		row, convErr := s.convert(record)
		if convErr != nil {
			s.next++
			if s.cfg.Strict {
				s.finish(convErr)
				return false
			}
			logrus.Warnf("skipping record: %v", convErr)
			continue
		}

		row.Index = s.next
		s.next++
		s.row = row
		return true
	}
}

func (s *csvStream) open() bool {
	rc, err := s.src.Open()
	if err != nil {
		s.err = err
		s.done = true
		return false
	}
	s.rc = rc
	s.cr = csv.NewReader(rc)
	s.cr.FieldsPerRecord = -1 // field count validated in convert
	if s.cfg.Comma != 0 {
		s.cr.Comma = s.cfg.Comma
	}
	s.ordinal = make(map[string]map[string]float64)
	s.label = -1

	if s.cfg.HasHeader {
		header, err := s.cr.Read()
		if err == io.EOF {
			s.finish(nil) // empty file is an empty sequence, not an error
			return false
		}
		if err != nil {
			s.finish(&UnavailableError{Source: s.src.ID(), Cause: fmt.Errorf("unreadable header: %w", err)})
			return false
		}
		s.header = header
	}
	return true
}

// convert maps one record to a Row, resolving the header and label column on
// the first data record when no header row exists.
func (s *csvStream) convert(record []string) (Row, error) {
	if s.header == nil {
		s.header = make([]string, len(record))
		for i := range record {
			s.header[i] = strconv.Itoa(i)
		}
	}
	if s.label == -1 {
		s.label = s.resolveLabel()
	}
	if len(record) != len(s.header) {
		return Row{}, &MalformedRecordError{
			Source: s.src.ID(),
			Row:    s.next,
			Value:  strings.Join(record, ","),
			Cause:  fmt.Errorf("expected %d fields, got %d", len(s.header), len(record)),
		}
	}

	row := Row{Features: make(map[string]float64, len(record))}
	for i, cell := range record {
		if i == s.label {
			row.Label = cell
			row.Labels = []string{cell}
			continue
		}
		if missing := s.encodeCell(s.header[i], cell, row.Features); missing {
			row.Missing = append(row.Missing, s.header[i])
		}
	}
	return row, nil
}

func (s *csvStream) resolveLabel() int {
	switch s.cfg.LabelColumn {
	case "-":
		return -2 // unlabeled, matches no column
	case "":
		return len(s.header) - 1
	default:
		for i, name := range s.header {
			if name == s.cfg.LabelColumn {
				return i
			}
		}
		return -2
	}
}

// encodeCell writes one cell into features under the configured policy and
// reports whether the cell was a missing value ("?" or empty), which
// produces no entry so imputation can fill it later.
func (s *csvStream) encodeCell(col, cell string, features map[string]float64) bool {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "?" {
		return true
	}
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		features[col] = v
		return false
	}
	if s.cfg.Encoding == EncodeIndex {
		seen, ok := s.ordinal[col]
		if !ok {
			seen = make(map[string]float64)
			s.ordinal[col] = seen
		}
		idx, ok := seen[cell]
		if !ok {
			idx = float64(len(seen))
			seen[cell] = idx
		}
		features[col] = idx
		return false
	}
	features[col+"="+cell] = 1
	return false
}

func (s *csvStream) finish(err error) {
	if err != nil && s.err == nil {
		s.err = err
	}
	if s.rc != nil {
		if closeErr := s.rc.Close(); closeErr != nil && s.err == nil {
			s.err = closeErr
		}
		s.rc = nil
	}
	s.done = true
}

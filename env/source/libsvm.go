package source

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// LibSVMReader parses the SVMLight-family sparse text format:
//
//	<label>[,<label>...] <index>:<value> <index>:<value> ...
//
// Feature indices absent from a row imply zero. Plain LIBSVM rows carry one
// label; the Manik multi-label variant carries a comma-separated label list
// and prefixes the payload with a "rows features labels" header line, which
// is detected and skipped automatically.
type LibSVMReader struct {
	// Strict aborts the stream on the first malformed record.
	Strict bool
}

// Read returns a lazy RowStream over src.
func (r LibSVMReader) Read(src ByteSource) RowStream {
	return &libsvmStream{cfg: r, src: src}
}

type libsvmStream struct {
	cfg LibSVMReader
	src ByteSource

	rc      io.ReadCloser
	scanner *bufio.Scanner
	first   bool

	row  Row
	next int
	err  error
	done bool
}

func (s *libsvmStream) Row() Row   { return s.row }
func (s *libsvmStream) Err() error { return s.err }

func (s *libsvmStream) Next() bool {
	if s.done {
		return false
	}
	if s.scanner == nil {
		rc, err := s.src.Open()
		if err != nil {
			s.err = err
			s.done = true
			return false
		}
		s.rc = rc
		s.scanner = bufio.NewScanner(rc)
		s.scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		s.first = true
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if s.first {
			s.first = false
			if isManikHeader(line) {
				continue
			}
		}

		row, err := s.convert(line)
		if err != nil {
			s.next++
			if s.cfg.Strict {
				s.finish(err)
				return false
			}
			logrus.Warnf("skipping record: %v", err)
			continue
		}

		row.Index = s.next
		s.next++
		s.row = row
		return true
	}
	s.finish(s.scanner.Err())
	return false
}

// isManikHeader reports whether line is the Manik-format size header: three
// whitespace-separated integers and no index:value pair.
func isManikHeader(line string) bool {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return false
	}
	for _, f := range fields {
		if _, err := strconv.Atoi(f); err != nil {
			return false
		}
	}
	return true
}

func (s *libsvmStream) convert(line string) (Row, error) {
	fields := strings.Fields(line)

	malformed := func(value string, cause error) error {
		return &MalformedRecordError{Source: s.src.ID(), Row: s.next, Value: value, Cause: cause}
	}

	// The label block is the first field unless the row starts directly with
	// an index:value pair (unlabeled ranking rows do this in the wild).
	start := 0
	var labels []string
	if len(fields) > 0 && !strings.Contains(fields[0], ":") {
		start = 1
		for _, l := range strings.Split(fields[0], ",") {
			if l != "" {
				labels = append(labels, l)
			}
		}
	}

	row := Row{Features: make(map[string]float64, len(fields)-start), Labels: labels}
	if len(labels) > 0 {
		row.Label = labels[0]
	}

	for _, f := range fields[start:] {
		colon := strings.IndexByte(f, ':')
		if colon <= 0 || colon == len(f)-1 {
			return Row{}, malformed(f, fmt.Errorf("expected index:value pair"))
		}
		idx, err := strconv.Atoi(f[:colon])
		if err != nil {
			return Row{}, malformed(f, fmt.Errorf("feature index: %w", err))
		}
		if idx < 0 {
			return Row{}, malformed(f, fmt.Errorf("negative feature index %d", idx))
		}
		val, err := strconv.ParseFloat(f[colon+1:], 64)
		if err != nil {
			return Row{}, malformed(f, fmt.Errorf("feature value: %w", err))
		}
		row.Features[strconv.Itoa(idx)] = val
	}
	return row, nil
}

func (s *libsvmStream) finish(err error) {
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

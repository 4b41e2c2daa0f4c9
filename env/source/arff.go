package source

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// arffAttribute is one @attribute declaration from an ARFF header.
type arffAttribute struct {
	name    string
	numeric bool
	// values holds the declared nominal domain, nil for numeric and string
	// attributes. String attributes behave like undeclared nominals.
	values []string
}

// ARFFReader parses attribute-typed dense ARFF payloads. Attribute types are
// declared, not inferred: numeric/real/integer attributes parse as floats,
// nominal attributes encode per Encoding, and '?' cells are treated as
// missing (no feature entry).
type ARFFReader struct {
	// LabelAttribute names the label attribute; empty selects the last one.
	LabelAttribute string
	// Encoding is the nominal encoding policy, EncodeOneHot when empty.
	Encoding NominalEncoding
	// Strict aborts the stream on the first malformed record.
	Strict bool
}

// Read returns a lazy RowStream over src. The header is parsed on the first
// pull; a payload without a valid @data section is structural and aborts.
func (r ARFFReader) Read(src ByteSource) RowStream {
	return &arffStream{cfg: r, src: src}
}

type arffStream struct {
	cfg ARFFReader
	src ByteSource

	rc      io.ReadCloser
	scanner *bufio.Scanner
	attrs   []arffAttribute
	label   int
	ordinal []map[string]float64

	row  Row
	next int
	err  error
	done bool
}

func (s *arffStream) Row() Row   { return s.row }
func (s *arffStream) Err() error { return s.err }

func (s *arffStream) Next() bool {
	if s.done {
		return false
	}
	if s.scanner == nil && !s.open() {
		return false
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
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

// open reads the header through the @data marker. An empty payload is an
// empty sequence; a payload with data lines but no parsable header aborts.
func (s *arffStream) open() bool {
	rc, err := s.src.Open()
	if err != nil {
		s.err = err
		s.done = true
		return false
	}
	s.rc = rc
	s.scanner = bufio.NewScanner(rc)
	s.scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	sawData := false
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		lower := strings.ToLower(line)
		switch {
		case line == "" || strings.HasPrefix(line, "%"):
		case strings.HasPrefix(lower, "@relation"):
		case strings.HasPrefix(lower, "@attribute"):
			attr, err := parseAttribute(line)
			if err != nil {
				s.finish(&UnavailableError{Source: s.src.ID(), Cause: err})
				return false
			}
			s.attrs = append(s.attrs, attr)
		case strings.HasPrefix(lower, "@data"):
			sawData = true
		}
		if sawData {
			break
		}
	}
	if err := s.scanner.Err(); err != nil {
		s.finish(&UnavailableError{Source: s.src.ID(), Cause: err})
		return false
	}
	if !sawData {
		// No @data section: empty file yields an empty sequence.
		s.finish(nil)
		return false
	}
	if len(s.attrs) == 0 {
		s.finish(&UnavailableError{Source: s.src.ID(), Cause: fmt.Errorf("@data section without @attribute declarations")})
		return false
	}

	s.label = len(s.attrs) - 1
	if s.cfg.LabelAttribute != "" {
		s.label = -1
		for i, a := range s.attrs {
			if a.name == s.cfg.LabelAttribute {
				s.label = i
				break
			}
		}
		if s.label == -1 {
			s.finish(&UnavailableError{Source: s.src.ID(), Cause: fmt.Errorf("label attribute %q not declared", s.cfg.LabelAttribute)})
			return false
		}
	}
	s.ordinal = make([]map[string]float64, len(s.attrs))
	return true
}

// parseAttribute handles `@attribute name type` where type is numeric,
// real, integer, string, or a {v1,v2,...} nominal domain. Names may be quoted.
func parseAttribute(line string) (arffAttribute, error) {
	rest := strings.TrimSpace(line[len("@attribute"):])
	if rest == "" {
		return arffAttribute{}, fmt.Errorf("attribute declaration %q missing name", line)
	}

	var name string
	if rest[0] == '\'' || rest[0] == '"' {
		quote := rest[0]
		end := strings.IndexByte(rest[1:], quote)
		if end < 0 {
			return arffAttribute{}, fmt.Errorf("attribute declaration %q has unterminated quote", line)
		}
		name = rest[1 : 1+end]
		rest = strings.TrimSpace(rest[2+end:])
	} else {
		fields := strings.Fields(rest)
		name = fields[0]
		rest = strings.TrimSpace(rest[len(fields[0]):])
	}
	if rest == "" {
		return arffAttribute{}, fmt.Errorf("attribute %q missing type", name)
	}

	if rest[0] == '{' {
		domain := strings.TrimSuffix(strings.TrimPrefix(rest, "{"), "}")
		var values []string
		for _, v := range strings.Split(domain, ",") {
			values = append(values, strings.Trim(strings.TrimSpace(v), `'"`))
		}
		return arffAttribute{name: name, values: values}, nil
	}

	switch strings.ToLower(strings.Fields(rest)[0]) {
	case "numeric", "real", "integer":
		return arffAttribute{name: name, numeric: true}, nil
	case "string", "date":
		return arffAttribute{name: name}, nil
	default:
		return arffAttribute{}, fmt.Errorf("attribute %q has unsupported type %q", name, rest)
	}
}

func (s *arffStream) convert(line string) (Row, error) {
	cells := splitARFFLine(line)
	if len(cells) != len(s.attrs) {
		return Row{}, &MalformedRecordError{
			Source: s.src.ID(),
			Row:    s.next,
			Value:  line,
			Cause:  fmt.Errorf("expected %d values, got %d", len(s.attrs), len(cells)),
		}
	}

	row := Row{Features: make(map[string]float64, len(cells))}
	for i, cell := range cells {
		if i == s.label {
			row.Label = cell
			row.Labels = []string{cell}
			continue
		}
		attr := s.attrs[i]
		if cell == "?" || cell == "" {
			row.Missing = append(row.Missing, attr.name)
			continue
		}
		if attr.numeric {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return Row{}, &MalformedRecordError{
					Source: s.src.ID(),
					Row:    s.next,
					Value:  cell,
					Cause:  fmt.Errorf("attribute %q declared numeric: %w", attr.name, err),
				}
			}
			row.Features[attr.name] = v
			continue
		}
		if s.cfg.Encoding == EncodeIndex {
			row.Features[attr.name] = s.ordinalFor(i, cell)
		} else {
			row.Features[attr.name+"="+cell] = 1
		}
	}
	return row, nil
}

// ordinalFor resolves a nominal value's ordinal, preferring the declared
// domain position and falling back to first-seen order for undeclared values.
func (s *arffStream) ordinalFor(attr int, cell string) float64 {
	for i, v := range s.attrs[attr].values {
		if v == cell {
			return float64(i)
		}
	}
	seen := s.ordinal[attr]
	if seen == nil {
		seen = make(map[string]float64)
		s.ordinal[attr] = seen
	}
	idx, ok := seen[cell]
	if !ok {
		idx = float64(len(s.attrs[attr].values) + len(seen))
		seen[cell] = idx
	}
	return idx
}

// splitARFFLine splits a data line on commas while honoring single and
// double quotes, trimming whitespace and quotes from each cell.
func splitARFFLine(line string) []string {
	var cells []string
	var cur strings.Builder
	var quote byte

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ',':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	cells = append(cells, strings.TrimSpace(cur.String()))
	return cells
}

func (s *arffStream) finish(err error) {
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

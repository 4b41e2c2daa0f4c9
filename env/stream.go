package env

// Stream is a pull-based, lazily evaluated sequence of interactions. The
// consumer calls Next until it returns false, reading Interaction after each
// successful call, then checks Err. Stopping early costs nothing beyond what
// has already been pulled.
//
// A Stream is a single cursor: it is consumed once and is not restartable.
// Restart semantics live on Environment, which hands out a fresh Stream per
// Interactions() call.
type Stream interface {
	// Next advances to the next interaction. It returns false when the
	// sequence is exhausted or a non-recoverable error occurred.
	Next() bool
	// Interaction returns the interaction for the current position. Only
	// valid after a Next call that returned true.
	Interaction() Interaction
	// Err returns the first non-recoverable error encountered, or nil when
	// the stream ended normally.
	Err() error
}

// sliceStream adapts a materialized slice to the Stream interface.
type sliceStream struct {
	items []Interaction
	pos   int
}

// NewSliceStream returns a Stream over an in-memory slice.
func NewSliceStream(items []Interaction) Stream {
	return &sliceStream{items: items, pos: -1}
}

func (s *sliceStream) Next() bool {
	if s.pos+1 >= len(s.items) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceStream) Interaction() Interaction { return s.items[s.pos] }
func (s *sliceStream) Err() error               { return nil }

// funcStream adapts a pull function to the Stream interface. The function
// returns the next interaction, ok=false on exhaustion, or a non-nil error to
// abort the stream.
type funcStream struct {
	pull func() (Interaction, bool, error)
	cur  Interaction
	err  error
	done bool
}

// NewFuncStream returns a Stream driven by pull.
func NewFuncStream(pull func() (Interaction, bool, error)) Stream {
	return &funcStream{pull: pull}
}

func (s *funcStream) Next() bool {
	if s.done {
		return false
	}
	in, ok, err := s.pull()
	if err != nil {
		s.err = err
		s.done = true
		return false
	}
	if !ok {
		s.done = true
		return false
	}
	s.cur = in
	return true
}

func (s *funcStream) Interaction() Interaction { return s.cur }
func (s *funcStream) Err() error               { return s.err }

// errStream is a Stream that fails on the first pull. Used by filters whose
// upstream materialization failed.
type errStream struct{ err error }

func (s errStream) Next() bool               { return false }
func (s errStream) Interaction() Interaction { return nil }
func (s errStream) Err() error               { return s.err }

// Collect drains a stream into a slice. Filters that need whole-sequence
// statistics use this; everything else should stay streaming.
func Collect(s Stream) ([]Interaction, error) {
	var out []Interaction
	for s.Next() {
		out = append(out, s.Interaction())
	}
	return out, s.Err()
}

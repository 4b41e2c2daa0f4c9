package env

import (
	"fmt"
	"sort"
	"strings"
)

// Params describes an environment specification. These become columns in the
// environment table of an experiment result, so values should be small
// scalars or short strings.
type Params map[string]any

// String renders params with sorted keys so the rendering is stable.
func (p Params) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, p[k])
	}
	b.WriteByte('}')
	return b.String()
}

// merged returns a copy of p with overlay's entries added, overlay winning
// on key collisions.
func (p Params) merged(overlay Params) Params {
	out := make(Params, len(p)+len(overlay))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

// Environment is a named, parameterized, re-enterable specification of an
// interaction sequence. It is a specification, not an iterator: calling
// Interactions twice with the same configuration and seed yields two
// independent cursors over the identical sequence.
//
// Implementations are immutable value objects after construction, so
// interleaved iterations over one specification are safe without locking.
type Environment interface {
	// Params returns the parameters describing this environment.
	Params() Params
	// Interactions returns a fresh Stream over the environment's sequence.
	Interactions() Stream
}

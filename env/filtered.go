package env

import (
	"time"

	"github.com/sirupsen/logrus"
)

// FilteredEnvironment wraps a base environment with an ordered filter chain.
// Filters execute strictly in attachment order on every iteration. The
// wrapper is immutable: attaching more filters returns a new environment.
type FilteredEnvironment struct {
	base    Environment
	filters []Filter
	params  Params
}

// NewFilteredEnvironment validates filters and attaches them to base.
// Validation happens here, at composition time, so a bad filter parameter
// can never abort an iteration mid-stream.
func NewFilteredEnvironment(base Environment, filters ...Filter) (*FilteredEnvironment, error) {
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}

	params := base.Params()
	for _, f := range filters {
		params = params.merged(f.Params())
	}

	if fe, ok := base.(*FilteredEnvironment); ok {
		chain := make([]Filter, 0, len(fe.filters)+len(filters))
		chain = append(chain, fe.filters...)
		chain = append(chain, filters...)
		return &FilteredEnvironment{base: fe.base, filters: chain, params: params}, nil
	}
	return &FilteredEnvironment{base: base, filters: filters, params: params}, nil
}

func (fe *FilteredEnvironment) Params() Params { return fe.params }

// Base returns the wrapped environment.
func (fe *FilteredEnvironment) Base() Environment { return fe.base }

// Filters returns the attached chain in execution order.
func (fe *FilteredEnvironment) Filters() []Filter { return fe.filters }

// Interactions runs the chain over a fresh base iteration. Every seeded
// filter gets a random stream seeded with its own seed alone, so a given
// seed draws the same values wherever the filter sits in the chain and
// concurrent iterations cannot interfere. A seeded filter without a seed
// draws from the wall clock and is flagged as non-reproducible.
func (fe *FilteredEnvironment) Interactions() Stream {
	s := fe.base.Interactions()
	for i, f := range fe.filters {
		var rng *Rand
		if sf, ok := f.(seeded); ok {
			seed, ok := sf.seedValue()
			if !ok {
				seed = time.Now().UnixNano()
				logrus.Warnf("filter %s[%d] has no seed; this iteration is not reproducible", f.Name(), i)
			}
			rng = NewRand(seed)
		}
		s = f.Apply(s, rng)
	}
	return s
}

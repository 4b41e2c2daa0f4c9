package env

import "sort"

// Filter is a pure transformation specification from one interaction
// sequence to another. Filters are immutable value objects: reapplying the
// same filter with the same seed to the same input yields the same output.
//
// Filters that require whole-sequence statistics (Scale, Impute, Reservoir,
// Cycle, Shuffle, Sort) materialize the upstream; everything else streams.
type Filter interface {
	// Name identifies the filter kind, used for random-stream derivation
	// and parameter reporting.
	Name() string
	// Params returns the filter's parameters for environment descriptions.
	Params() Params
	// Validate reports configuration errors. Called at composition time so
	// a bad parameter never fails mid-stream.
	Validate() error
	// Apply transforms the upstream sequence. rng is the filter's isolated
	// random stream for this iteration, nil for filters that declare no
	// seed requirement.
	Apply(upstream Stream, rng *Rand) Stream
}

// seeded is implemented by filters that consume randomness. A false ok
// means no seed was supplied: the chain runner derives a time-based seed
// and flags the iteration as non-reproducible.
type seeded interface {
	seedValue() (int64, bool)
}

// Seed is a convenience for the optional seed fields on random filters.
func Seed(v int64) *int64 { return &v }

// Identity passes the sequence through unchanged.
type Identity struct{}

func (Identity) Name() string    { return "identity" }
func (Identity) Params() Params  { return Params{} }
func (Identity) Validate() error { return nil }

func (Identity) Apply(upstream Stream, _ *Rand) Stream { return upstream }

// Take truncates the sequence to its first N interactions.
type Take struct {
	N int
}

func (Take) Name() string { return "take" }

func (t Take) Params() Params { return Params{"take": t.N} }

func (t Take) Validate() error {
	if t.N < 0 {
		return &InvalidConfigurationError{Component: "Take", Reason: "count must be >= 0"}
	}
	return nil
}

func (t Take) Apply(upstream Stream, _ *Rand) Stream {
	taken := 0
	return NewFuncStream(func() (Interaction, bool, error) {
		if taken >= t.N || !upstream.Next() {
			return nil, false, upstream.Err()
		}
		taken++
		return upstream.Interaction(), true, nil
	})
}

// Where drops interactions for which the predicate returns false.
type Where struct {
	Predicate func(Interaction) bool
}

func (Where) Name() string   { return "where" }
func (Where) Params() Params { return Params{"where": "predicate"} }

func (w Where) Validate() error {
	if w.Predicate == nil {
		return &InvalidConfigurationError{Component: "Where", Reason: "predicate is required"}
	}
	return nil
}

func (w Where) Apply(upstream Stream, _ *Rand) Stream {
	return NewFuncStream(func() (Interaction, bool, error) {
		for upstream.Next() {
			if w.Predicate(upstream.Interaction()) {
				return upstream.Interaction(), true, nil
			}
		}
		return nil, false, upstream.Err()
	})
}

// Sort orders interactions ascending by a key, with a stable tie-break on
// upstream position. SortByFeature is the common key.
type Sort struct {
	Key func(Interaction) float64
}

// SortByFeature keys interactions on the context feature at index i.
func SortByFeature(i int) Sort {
	return Sort{Key: func(in Interaction) float64 {
		if in.Context() == nil {
			return 0
		}
		return in.Context().At(i)
	}}
}

func (Sort) Name() string   { return "sort" }
func (Sort) Params() Params { return Params{"sort": "key"} }

func (s Sort) Validate() error {
	if s.Key == nil {
		return &InvalidConfigurationError{Component: "Sort", Reason: "key function is required"}
	}
	return nil
}

func (s Sort) Apply(upstream Stream, _ *Rand) Stream {
	items, err := Collect(upstream)
	if err != nil {
		return errStream{err: err}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return s.Key(items[i]) < s.Key(items[j])
	})
	return NewSliceStream(items)
}

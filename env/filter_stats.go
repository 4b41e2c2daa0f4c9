package env

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// replaceContext rebuilds an interaction around a new context, preserving
// the variant and everything else.
func replaceContext(in Interaction, ctx Context) Interaction {
	switch v := in.(type) {
	case SimulatedInteraction:
		return NewSimulatedInteraction(ctx, v.Actions(), v.Rewards())
	case LoggedInteraction:
		return NewLoggedInteraction(ctx, v.Actions(), v.Taken(), v.Reward(), v.propensity)
	default:
		return in
	}
}

// featureValues gathers the explicit, non-NaN values of every context
// feature across the materialized sequence, keyed by dense index.
func featureValues(items []Interaction) map[int][]float64 {
	values := make(map[int][]float64)
	for _, in := range items {
		switch ctx := in.Context().(type) {
		case Dense:
			for i, v := range ctx {
				if !math.IsNaN(v) {
					values[i] = append(values[i], v)
				}
			}
		case Sparse:
			for _, i := range ctx.Keys() {
				if v := ctx[i]; !math.IsNaN(v) {
					values[i] = append(values[i], v)
				}
			}
		}
	}
	return values
}

// mapExplicit applies fn to every explicit context value of in, returning a
// new interaction. Sparse contexts keep their sparsity: absent keys stay
// absent (they mean zero, not missing).
func mapExplicit(in Interaction, fn func(feature int, v float64) float64) Interaction {
	switch ctx := in.Context().(type) {
	case Dense:
		out := make(Dense, len(ctx))
		for i, v := range ctx {
			out[i] = fn(i, v)
		}
		return replaceContext(in, out)
	case Sparse:
		out := make(Sparse, len(ctx))
		for k, v := range ctx {
			out[k] = fn(k, v)
		}
		return replaceContext(in, out)
	default:
		return in
	}
}

// Scale applies a per-feature affine transform to context features. The
// statistics come from one full pass over the upstream; the transform itself
// is applied lazily per pull.
type Scale struct {
	// Mode selects the transform: "standardize" (default, zero mean and
	// unit variance) or "minmax" (map observed range onto [0,1]).
	Mode string
}

const (
	ScaleStandardize = "standardize"
	ScaleMinMax      = "minmax"
)

func (Scale) Name() string { return "scale" }

func (s Scale) Params() Params { return Params{"scale": s.mode()} }

func (s Scale) mode() string {
	if s.Mode == "" {
		return ScaleStandardize
	}
	return s.Mode
}

func (s Scale) Validate() error {
	switch s.mode() {
	case ScaleStandardize, ScaleMinMax:
		return nil
	default:
		return &InvalidConfigurationError{Component: "Scale", Reason: "mode must be standardize or minmax"}
	}
}

func (s Scale) Apply(upstream Stream, _ *Rand) Stream {
	items, err := Collect(upstream)
	if err != nil {
		return errStream{err: err}
	}

	// shift/scale per feature: out = (v - shift) * scale
	shift := make(map[int]float64)
	scale := make(map[int]float64)
	for feature, vals := range featureValues(items) {
		switch s.mode() {
		case ScaleMinMax:
			lo, hi := vals[0], vals[0]
			for _, v := range vals {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
			shift[feature] = lo
			if hi > lo {
				scale[feature] = 1 / (hi - lo)
			}
		default:
			mean, std := stat.MeanStdDev(vals, nil)
			shift[feature] = mean
			if std > 0 && !math.IsNaN(std) {
				scale[feature] = 1 / std
			}
		}
	}

	pos := 0
	return NewFuncStream(func() (Interaction, bool, error) {
		if pos >= len(items) {
			return nil, false, nil
		}
		in := mapExplicit(items[pos], func(feature int, v float64) float64 {
			if math.IsNaN(v) {
				return v
			}
			return (v - shift[feature]) * scale[feature]
		})
		pos++
		return in, true, nil
	})
}

// Impute fills missing context feature values, marked as NaN, using a
// strategy computed from the observed values of the same feature.
type Impute struct {
	// Strategy is "mean" (default), "median", or "constant".
	Strategy string
	// Constant is the fill value for the constant strategy.
	Constant float64
}

const (
	ImputeMean     = "mean"
	ImputeMedian   = "median"
	ImputeConstant = "constant"
)

func (Impute) Name() string { return "impute" }

func (i Impute) Params() Params {
	p := Params{"impute": i.strategy()}
	if i.strategy() == ImputeConstant {
		p["impute_constant"] = i.Constant
	}
	return p
}

func (i Impute) strategy() string {
	if i.Strategy == "" {
		return ImputeMean
	}
	return i.Strategy
}

func (i Impute) Validate() error {
	switch i.strategy() {
	case ImputeMean, ImputeMedian, ImputeConstant:
		return nil
	default:
		return &InvalidConfigurationError{Component: "Impute", Reason: "strategy must be mean, median or constant"}
	}
}

func (i Impute) Apply(upstream Stream, _ *Rand) Stream {
	items, err := Collect(upstream)
	if err != nil {
		return errStream{err: err}
	}

	fills := make(map[int]float64)
	if i.strategy() != ImputeConstant {
		for feature, vals := range featureValues(items) {
			switch i.strategy() {
			case ImputeMedian:
				sort.Float64s(vals)
				fills[feature] = stat.Quantile(0.5, stat.Empirical, vals, nil)
			default:
				fills[feature] = stat.Mean(vals, nil)
			}
		}
	}

	fill := func(feature int) float64 {
		if i.strategy() == ImputeConstant {
			return i.Constant
		}
		return fills[feature]
	}

	pos := 0
	return NewFuncStream(func() (Interaction, bool, error) {
		if pos >= len(items) {
			return nil, false, nil
		}
		in := mapExplicit(items[pos], func(feature int, v float64) float64 {
			if math.IsNaN(v) {
				return fill(feature)
			}
			return v
		})
		pos++
		return in, true, nil
	})
}

// Binary thresholds rewards into {0,1}: rewards at or above Threshold become
// 1, everything below becomes 0. Applies to every oracle reward of a
// simulated interaction and to the observed reward of a logged one.
type Binary struct {
	Threshold float64
}

func (Binary) Name() string { return "binary" }

func (b Binary) Params() Params { return Params{"binary": b.Threshold} }

func (Binary) Validate() error { return nil }

func (b Binary) Apply(upstream Stream, _ *Rand) Stream {
	threshold := func(v float64) float64 {
		if v >= b.Threshold {
			return 1
		}
		return 0
	}
	return NewFuncStream(func() (Interaction, bool, error) {
		if !upstream.Next() {
			return nil, false, upstream.Err()
		}
		switch v := upstream.Interaction().(type) {
		case SimulatedInteraction:
			rewards := make([]float64, len(v.Rewards()))
			for i, r := range v.Rewards() {
				rewards[i] = threshold(r)
			}
			return NewSimulatedInteraction(v.Context(), v.Actions(), rewards), true, nil
		case LoggedInteraction:
			return NewLoggedInteraction(v.Context(), v.Actions(), v.Taken(), threshold(v.Reward()), v.propensity), true, nil
		default:
			return upstream.Interaction(), true, nil
		}
	})
}

// Sparsify converts context representations between dense and sparse. The
// default direction is dense → sparse; ToDense reverses it, materializing
// each sparse context at its own natural width.
type Sparsify struct {
	ToDense bool
}

func (Sparsify) Name() string { return "sparsify" }

func (s Sparsify) Params() Params {
	if s.ToDense {
		return Params{"sparsify": "to_dense"}
	}
	return Params{"sparsify": "to_sparse"}
}

func (Sparsify) Validate() error { return nil }

func (s Sparsify) Apply(upstream Stream, _ *Rand) Stream {
	return NewFuncStream(func() (Interaction, bool, error) {
		if !upstream.Next() {
			return nil, false, upstream.Err()
		}
		in := upstream.Interaction()
		ctx := in.Context()
		if ctx == nil {
			return in, true, nil
		}
		if s.ToDense {
			return replaceContext(in, Dense(ctx.Dense(maxIndex(ctx)))), true, nil
		}
		return replaceContext(in, Sparse(ctx.Sparse())), true, nil
	})
}

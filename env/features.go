package env

import "sort"

// Features is a feature vector attached to a context or an action. Two
// representations exist: Dense (ordered scalars) and Sparse (key → scalar,
// absent keys are zero). Values are never mutated after construction; filters
// that rewrite features allocate new vectors.
type Features interface {
	// Len reports the number of explicit entries.
	Len() int
	// At returns the value for the dense index i, or 0 when absent.
	At(i int) float64
	// Dense materializes the vector as ordered scalars of length n.
	Dense(n int) []float64
	// Sparse materializes the vector as a key → value mapping.
	Sparse() map[int]float64
}

// Dense is an ordered sequence of scalars.
type Dense []float64

func (d Dense) Len() int { return len(d) }

func (d Dense) At(i int) float64 {
	if i < 0 || i >= len(d) {
		return 0
	}
	return d[i]
}

func (d Dense) Dense(n int) []float64 {
	out := make([]float64, n)
	copy(out, d)
	return out
}

func (d Dense) Sparse() map[int]float64 {
	out := make(map[int]float64, len(d))
	for i, v := range d {
		if v != 0 {
			out[i] = v
		}
	}
	return out
}

// Sparse maps feature indices to values. Absent indices imply zero.
type Sparse map[int]float64

func (s Sparse) Len() int { return len(s) }

func (s Sparse) At(i int) float64 { return s[i] }

func (s Sparse) Dense(n int) []float64 {
	out := make([]float64, n)
	for i, v := range s {
		if i >= 0 && i < n {
			out[i] = v
		}
	}
	return out
}

func (s Sparse) Sparse() map[int]float64 {
	out := make(map[int]float64, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Keys returns the sparse indices in ascending order. Iteration order of the
// underlying map is not deterministic, so anything seed-sensitive must walk
// features in this order.
func (s Sparse) Keys() []int {
	keys := make([]int, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// maxIndex returns one past the largest explicit index of f, the natural
// width for a dense materialization.
func maxIndex(f Features) int {
	switch v := f.(type) {
	case Dense:
		return len(v)
	case Sparse:
		max := 0
		for k := range v {
			if k+1 > max {
				max = k + 1
			}
		}
		return max
	case nil:
		return 0
	default:
		return f.Len()
	}
}

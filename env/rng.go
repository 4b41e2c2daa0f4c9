package env

import (
	"hash/fnv"
	"math"
)

// === IterationKey ===

// IterationKey uniquely identifies a reproducible environment iteration.
// Two iterations with the same IterationKey and identical configuration
// MUST produce bit-for-bit identical interaction sequences.
type IterationKey int64

// NewIterationKey creates an IterationKey from a seed value.
func NewIterationKey(seed int64) IterationKey {
	return IterationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemGenerate is the RNG subsystem for interaction generation.
	// Uses the master seed directly so a bare environment reproduces the
	// sequences of earlier single-seed versions.
	SubsystemGenerate = "generate"
)

// SubsystemInteraction returns the subsystem name for interaction index i.
// Each index gets an isolated stream so that interaction i is a function of
// (seed, i) alone and any prefix of a sequence can be regenerated without
// replaying earlier indices.
func SubsystemInteraction(i int) string {
	return "interaction_" + itoa(i)
}

// itoa avoids fmt for a hot path called once per iteration.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// === Rand ===
//
// Rand is a linear congruential generator with the constants from
// L'Ecuyer (1999). The standard library's generator is free to change its
// stream between releases; benchmark reproducibility requires a generator
// whose output is fixed by this package alone.

const (
	lcgM = 1 << 30
	lcgA = 116646453
	lcgC = 9
)

// Rand is a deterministic uniform random number generator.
// Not safe for concurrent use; create one per iteration.
type Rand struct {
	state int64
}

// NewRand creates a Rand seeded with the given value.
func NewRand(seed int64) *Rand {
	return &Rand{state: seed & (lcgM - 1)}
}

// next advances the generator and returns an integer in [0, m-1].
func (r *Rand) next() int64 {
	r.state = (lcgA*r.state + lcgC) & (lcgM - 1)
	return r.state
}

// Float64 returns a uniform random number in [0,1].
func (r *Rand) Float64() float64 {
	return float64(r.next()) / float64(lcgM-1)
}

// Floats returns n uniform random numbers in [0,1].
func (r *Rand) Floats(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = r.Float64()
	}
	return out
}

// Intn returns a uniform random integer in [0, n).
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(float64(n) * r.Float64())
	if v > n-1 {
		v = n - 1 // Float64 can return exactly 1
	}
	return v
}

// NormFloat64 returns a normally distributed value with mean 0 and stddev 1,
// via Box-Muller on two uniform draws.
func (r *Rand) NormFloat64() float64 {
	u1 := r.Float64()
	for u1 == 0 {
		u1 = r.Float64()
	}
	u2 := r.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// Shuffled returns a new slice with the order of items permuted.
// The permutation for a given seed and length is fixed.
func Shuffled[T any](r *Rand, items []T) []T {
	n := len(items)
	draws := r.Floats(n)
	out := make([]T, n)
	copy(out, items)
	for i := 0; i < n; i++ {
		j := i + int(draws[i]*float64(n-i))
		if j > n-1 {
			j = n - 1 // draws[i] == 1 edge case
		}
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// === PartitionedRand ===

// PartitionedRand provides deterministic, isolated Rand instances per
// subsystem of a single iteration.
//
// Derivation:
//   - SubsystemGenerate uses the master seed directly
//   - all other subsystems use masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. One PartitionedRand per iteration.
type PartitionedRand struct {
	key        IterationKey
	subsystems map[string]*Rand
}

// NewPartitionedRand creates a PartitionedRand from an IterationKey.
func NewPartitionedRand(key IterationKey) *PartitionedRand {
	return &PartitionedRand{
		key:        key,
		subsystems: make(map[string]*Rand),
	}
}

// ForSubsystem returns a deterministically-seeded Rand for the named
// subsystem. The same name always returns the same *Rand instance (cached).
// Never returns nil.
func (p *PartitionedRand) ForSubsystem(name string) *Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemGenerate {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := NewRand(derivedSeed)
	p.subsystems[name] = rng
	return rng
}

// Key returns the IterationKey used to create this PartitionedRand.
func (p *PartitionedRand) Key() IterationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

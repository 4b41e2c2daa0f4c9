package env

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffleSameSeedSameOrder(t *testing.T) {
	items := testInteractions(8)
	first := applyFilter(t, Shuffle{}, items, NewRand(42))
	second := applyFilter(t, Shuffle{}, items, NewRand(42))
	assert.Equal(t, contextOrder(t, first), contextOrder(t, second))
}

func TestShufflePermutes(t *testing.T) {
	items := testInteractions(10)
	out := applyFilter(t, Shuffle{}, items, NewRand(42))

	got := contextOrder(t, out)
	sort.Float64s(got)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestReservoirSmallerUpstreamPassesWhole(t *testing.T) {
	items := testInteractions(4)
	out := applyFilter(t, Reservoir{N: 10}, items, NewRand(1))
	assert.Equal(t, []float64{0, 1, 2, 3}, contextOrder(t, out))
}

func TestReservoirSamplesWithoutReplacement(t *testing.T) {
	items := testInteractions(20)
	out := applyFilter(t, Reservoir{N: 5}, items, NewRand(7))

	require.Len(t, out, 5)
	seen := make(map[float64]bool)
	for _, v := range contextOrder(t, out) {
		assert.False(t, seen[v])
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 20.0)
		seen[v] = true
	}
}

func TestReservoirSameSeedSameSample(t *testing.T) {
	items := testInteractions(20)
	first := applyFilter(t, Reservoir{N: 5}, items, NewRand(7))
	second := applyFilter(t, Reservoir{N: 5}, items, NewRand(7))
	assert.Equal(t, contextOrder(t, first), contextOrder(t, second))
}

func TestReservoirNegativeIsInvalid(t *testing.T) {
	assert.Error(t, Reservoir{N: -1}.Validate())
}

func TestReservoirInclusionIsRoughlyUniform(t *testing.T) {
	const (
		m      = 10
		n      = 5
		trials = 400
	)
	items := testInteractions(m)
	counts := make([]int, m)
	for trial := 0; trial < trials; trial++ {
		out := applyFilter(t, Reservoir{N: n}, items, NewRand(int64(trial)))
		for _, v := range contextOrder(t, out) {
			counts[int(v)]++
		}
	}

	// Each element should land in the sample with probability about n/m.
	for i, c := range counts {
		freq := float64(c) / trials
		assert.InDelta(t, float64(n)/float64(m), freq, 0.12, "element %d", i)
	}
}

func TestCycleRepeatsInOrder(t *testing.T) {
	items := testInteractions(3)
	out := applyFilter(t, Cycle{Length: 7}, items, nil)
	assert.Equal(t, []float64{0, 1, 2, 0, 1, 2, 0}, contextOrder(t, out))
}

func TestCycleShorterThanUpstreamTruncates(t *testing.T) {
	items := testInteractions(5)
	out := applyFilter(t, Cycle{Length: 2}, items, nil)
	assert.Equal(t, []float64{0, 1}, contextOrder(t, out))
}

func TestCycleEmptyUpstreamIsEmpty(t *testing.T) {
	out := applyFilter(t, Cycle{Length: 5}, nil, nil)
	assert.Empty(t, out)
}

func TestCycleReshufflePermutesEachPass(t *testing.T) {
	items := testInteractions(4)
	out := applyFilter(t, Cycle{Length: 12, Reshuffle: true}, items, NewRand(3))

	require.Len(t, out, 12)
	got := contextOrder(t, out)

	// First pass is unshuffled; every later pass is a permutation of the set.
	assert.Equal(t, []float64{0, 1, 2, 3}, got[:4])
	for _, pass := range [][]float64{got[4:8], got[8:12]} {
		sorted := append([]float64(nil), pass...)
		sort.Float64s(sorted)
		assert.Equal(t, []float64{0, 1, 2, 3}, sorted)
	}
}

func TestWarmStartConvertsPrefix(t *testing.T) {
	items := testInteractions(5)
	out := applyFilter(t, WarmStart{K: 2}, items, NewRand(11))
	require.Len(t, out, 5)

	for i, in := range out[:2] {
		logged, ok := in.(LoggedInteraction)
		require.True(t, ok, "interaction %d should be logged", i)
		assert.InDelta(t, 0.5, logged.Propensity(), 1e-12)

		// The observed reward matches the oracle reward of the taken action.
		oracle := items[i].(SimulatedInteraction)
		assert.Equal(t, oracle.Reward(logged.Taken()), logged.Reward())
	}
	for i, in := range out[2:] {
		_, ok := in.(SimulatedInteraction)
		assert.True(t, ok, "interaction %d should stay simulated", i+2)
	}
}

func TestWarmStartBeyondLengthConvertsAll(t *testing.T) {
	items := testInteractions(3)
	out := applyFilter(t, WarmStart{K: 10}, items, NewRand(11))
	require.Len(t, out, 3)
	for _, in := range out {
		_, ok := in.(LoggedInteraction)
		assert.True(t, ok)
	}
}

func TestWarmStartSameSeedSameActions(t *testing.T) {
	items := testInteractions(6)
	takens := func(items []Interaction) []int {
		var out []int
		for _, in := range items {
			if logged, ok := in.(LoggedInteraction); ok {
				out = append(out, logged.Taken())
			}
		}
		return out
	}
	first := applyFilter(t, WarmStart{K: 6}, items, NewRand(11))
	second := applyFilter(t, WarmStart{K: 6}, items, NewRand(11))
	assert.Equal(t, takens(first), takens(second))
}

func TestSeedParamsReportsMissingSeed(t *testing.T) {
	assert.Equal(t, Params{"shuffle_seed": nil}, Shuffle{}.Params())
	assert.Equal(t, Params{"shuffle_seed": int64(3)}, Shuffle{Seed: Seed(3)}.Params())
}

package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testInteractions builds n two-action simulated interactions whose context
// is the single feature [i], so order assertions can read positions back.
func testInteractions(n int) []Interaction {
	actions := []Action{{Index: 0}, {Index: 1}}
	out := make([]Interaction, n)
	for i := range out {
		out[i] = NewSimulatedInteraction(Dense{float64(i)}, actions, []float64{1, 0})
	}
	return out
}

// contextOrder reads back the first context feature of every interaction.
func contextOrder(t *testing.T, items []Interaction) []float64 {
	t.Helper()
	out := make([]float64, len(items))
	for i, in := range items {
		require.NotNil(t, in.Context())
		out[i] = in.Context().At(0)
	}
	return out
}

func applyFilter(t *testing.T, f Filter, items []Interaction, rng *Rand) []Interaction {
	t.Helper()
	require.NoError(t, f.Validate())
	out, err := Collect(f.Apply(NewSliceStream(items), rng))
	require.NoError(t, err)
	return out
}

func TestIdentityPassesThrough(t *testing.T) {
	items := testInteractions(4)
	out := applyFilter(t, Identity{}, items, nil)
	assert.Equal(t, []float64{0, 1, 2, 3}, contextOrder(t, out))
}

func TestTakeTruncates(t *testing.T) {
	out := applyFilter(t, Take{N: 2}, testInteractions(5), nil)
	assert.Equal(t, []float64{0, 1}, contextOrder(t, out))
}

func TestTakeZeroIsEmpty(t *testing.T) {
	out := applyFilter(t, Take{N: 0}, testInteractions(5), nil)
	assert.Empty(t, out)
}

func TestTakeBeyondLengthKeepsEverything(t *testing.T) {
	out := applyFilter(t, Take{N: 10}, testInteractions(3), nil)
	assert.Equal(t, []float64{0, 1, 2}, contextOrder(t, out))
}

func TestTakeNegativeIsInvalid(t *testing.T) {
	err := Take{N: -1}.Validate()
	require.Error(t, err)
	var invalid *InvalidConfigurationError
	assert.ErrorAs(t, err, &invalid)
}

func TestWhereKeepsMatches(t *testing.T) {
	even := Where{Predicate: func(in Interaction) bool {
		return int(in.Context().At(0))%2 == 0
	}}
	out := applyFilter(t, even, testInteractions(6), nil)
	assert.Equal(t, []float64{0, 2, 4}, contextOrder(t, out))
}

func TestWhereRequiresPredicate(t *testing.T) {
	assert.Error(t, Where{}.Validate())
}

func TestSortByFeatureOrdersAscending(t *testing.T) {
	actions := []Action{{Index: 0}, {Index: 1}}
	items := []Interaction{
		NewSimulatedInteraction(Dense{3}, actions, []float64{1, 0}),
		NewSimulatedInteraction(Dense{1}, actions, []float64{1, 0}),
		NewSimulatedInteraction(Dense{2}, actions, []float64{1, 0}),
	}
	out := applyFilter(t, SortByFeature(0), items, nil)
	assert.Equal(t, []float64{1, 2, 3}, contextOrder(t, out))
}

func TestSortIsStable(t *testing.T) {
	actions := []Action{{Index: 0}, {Index: 1}}
	items := []Interaction{
		NewSimulatedInteraction(Dense{1, 0}, actions, []float64{1, 0}),
		NewSimulatedInteraction(Dense{1, 1}, actions, []float64{1, 0}),
		NewSimulatedInteraction(Dense{1, 2}, actions, []float64{1, 0}),
	}
	out := applyFilter(t, SortByFeature(0), items, nil)

	// Equal keys keep their upstream positions.
	for i, in := range out {
		assert.Equal(t, float64(i), in.Context().At(1))
	}
}

func TestSortRequiresKey(t *testing.T) {
	assert.Error(t, Sort{}.Validate())
}

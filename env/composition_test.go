package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnvironments(t *testing.T, sizes ...int) Environments {
	t.Helper()
	envs := make([]Environment, len(sizes))
	for i, n := range sizes {
		sim, err := NewMemorySimulation(testInteractions(n))
		require.NoError(t, err)
		envs[i] = sim
	}
	return FromEnvironments(envs...)
}

func TestCompositionCrossProduct(t *testing.T) {
	composed := newTestEnvironments(t, 5, 5).
		Cross(Shuffle{Seed: Seed(1)}, Shuffle{Seed: Seed(2)}).
		Cross(Take{N: 2}, Take{N: 3}, Take{N: 4})

	// 2 bases x 2 shuffles x 3 takes
	assert.Equal(t, 12, composed.Len())
	assert.NoError(t, composed.Err())
}

func TestCompositionCrossWithoutAlternativesIsIdentity(t *testing.T) {
	composed := newTestEnvironments(t, 3)
	assert.Equal(t, 1, composed.Cross().Len())
}

func TestCompositionApplyChainsInOrder(t *testing.T) {
	composed := newTestEnvironments(t, 5).Apply(Shuffle{Seed: Seed(1)}, Take{N: 2})
	require.Equal(t, 1, composed.Len())

	out, err := Collect(composed.All()[0].Interactions())
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestCompositionIsImmutable(t *testing.T) {
	base := newTestEnvironments(t, 3)
	derived := base.Apply(Take{N: 1})

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 1, derived.Len())
	if base.All()[0] == derived.All()[0] {
		t.Fatal("Apply must wrap, not mutate, the composed environments")
	}
}

func TestCompositionAllReturnsACopy(t *testing.T) {
	composed := newTestEnvironments(t, 3, 4)
	all := composed.All()
	all[0] = nil
	assert.NotNil(t, composed.All()[0])
}

func TestCompositionInvalidFilterExcludesEnvironment(t *testing.T) {
	composed := newTestEnvironments(t, 3).Apply(Take{N: -1})
	assert.Error(t, composed.Err())
	assert.Equal(t, 0, composed.Len())
}

func TestCompositionErrorDoesNotSinkSiblings(t *testing.T) {
	composed := newTestEnvironments(t, 3, 4).Cross(Take{N: 2})
	require.Equal(t, 2, composed.Len())

	// A later bad expansion reports the error but keeps prior state intact.
	bad := composed.Cross(Take{N: -1}, Take{N: 1})
	assert.Error(t, bad.Err())
	assert.Equal(t, 2, bad.Len())
}

func TestCompositionShuffles(t *testing.T) {
	composed := newTestEnvironments(t, 6).Shuffles(1, 2, 3)
	require.Equal(t, 3, composed.Len())

	// Each repetition is a distinct seeded shuffle of the same base.
	for i, e := range composed.All() {
		assert.Equal(t, int64(i+1), e.Params()["shuffle_seed"])
		out, err := Collect(e.Interactions())
		require.NoError(t, err)
		assert.Len(t, out, 6)
	}
}

func TestCompositionTakes(t *testing.T) {
	composed := newTestEnvironments(t, 6).Takes(2, 4)
	require.Equal(t, 2, composed.Len())

	for i, want := range []int{2, 4} {
		out, err := Collect(composed.All()[i].Interactions())
		require.NoError(t, err)
		assert.Len(t, out, want)
	}
}

package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCountingLambda(t *testing.T, n int, seed int64) *LambdaSimulation {
	t.Helper()
	sim, err := NewLambdaSimulation(n, seed,
		func(_ int, rng *Rand) Context { return Dense{rng.Float64()} },
		func(_ int, _ Context, _ *Rand) []Action {
			return []Action{{Index: 0}, {Index: 1}}
		},
		func(_ int, ctx Context, a Action, rng *Rand) float64 {
			return ctx.At(0) * float64(a.Index+1) * rng.Float64()
		},
	)
	require.NoError(t, err)
	return sim
}

func TestLambdaSimulationIsRestartable(t *testing.T) {
	sim := newCountingLambda(t, 10, 42)

	first, err := Collect(sim.Interactions())
	require.NoError(t, err)
	second, err := Collect(sim.Interactions())
	require.NoError(t, err)

	require.Len(t, first, 10)
	for i := range first {
		a := first[i].(SimulatedInteraction)
		b := second[i].(SimulatedInteraction)
		assert.Equal(t, a.Context().At(0), b.Context().At(0))
		assert.Equal(t, a.Rewards(), b.Rewards())
	}
}

func TestLambdaSimulationSeedChangesSequence(t *testing.T) {
	a, err := Collect(newCountingLambda(t, 5, 1).Interactions())
	require.NoError(t, err)
	b, err := Collect(newCountingLambda(t, 5, 2).Interactions())
	require.NoError(t, err)
	assert.NotEqual(t,
		a[0].(SimulatedInteraction).Context().At(0),
		b[0].(SimulatedInteraction).Context().At(0))
}

func TestLambdaSimulationIndexStreamsAreIndependent(t *testing.T) {
	// Truncating the iteration must not change what later indices generate.
	sim := newCountingLambda(t, 10, 7)

	full, err := Collect(sim.Interactions())
	require.NoError(t, err)

	partial := sim.Interactions()
	require.True(t, partial.Next())
	require.True(t, partial.Next())
	require.True(t, partial.Next())
	got := partial.Interaction().(SimulatedInteraction)
	want := full[2].(SimulatedInteraction)
	assert.Equal(t, want.Context().At(0), got.Context().At(0))
	assert.Equal(t, want.Rewards(), got.Rewards())
}

func TestLambdaSimulationValidation(t *testing.T) {
	ctx := func(_ int, _ *Rand) Context { return nil }
	acts := func(_ int, _ Context, _ *Rand) []Action { return []Action{{Index: 0}} }
	rew := func(_ int, _ Context, _ Action, _ *Rand) float64 { return 0 }

	_, err := NewLambdaSimulation(-1, 0, ctx, acts, rew)
	assert.Error(t, err)
	_, err = NewLambdaSimulation(5, 0, nil, acts, rew)
	assert.Error(t, err)
	_, err = NewLambdaSimulation(5, 0, ctx, nil, rew)
	assert.Error(t, err)
	_, err = NewLambdaSimulation(5, 0, ctx, acts, nil)
	assert.Error(t, err)
}

func TestLambdaSimulationEmptyActionSetFailsStream(t *testing.T) {
	sim, err := NewLambdaSimulation(3, 0,
		func(_ int, _ *Rand) Context { return nil },
		func(_ int, _ Context, _ *Rand) []Action { return nil },
		func(_ int, _ Context, _ Action, _ *Rand) float64 { return 0 },
	)
	require.NoError(t, err)

	s := sim.Interactions()
	assert.False(t, s.Next())
	var invalid *InvalidConfigurationError
	assert.ErrorAs(t, s.Err(), &invalid)
}

func TestLambdaSimulationZeroInteractions(t *testing.T) {
	sim := newCountingLambda(t, 0, 1)
	out, err := Collect(sim.Interactions())
	require.NoError(t, err)
	assert.Empty(t, out)
}

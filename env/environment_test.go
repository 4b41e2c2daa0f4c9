package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsStringIsStable(t *testing.T) {
	p := Params{"type": "MemorySimulation", "n": 3, "seed": int64(7)}
	assert.Equal(t, "{n=3, seed=7, type=MemorySimulation}", p.String())
	assert.Equal(t, p.String(), p.String())
}

func TestParamsMergedOverlayWins(t *testing.T) {
	base := Params{"type": "a", "n": 1}
	out := base.merged(Params{"n": 2, "extra": true})

	assert.Equal(t, Params{"type": "a", "n": 2, "extra": true}, out)
	assert.Equal(t, Params{"type": "a", "n": 1}, base)
}

func TestMemorySimulationRoundTrip(t *testing.T) {
	items := testInteractions(3)
	sim, err := NewMemorySimulation(items)
	require.NoError(t, err)

	out, err := Collect(sim.Interactions())
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, contextOrder(t, out))
	assert.Equal(t, Params{"type": "MemorySimulation", "n": 3}, sim.Params())
}

func TestMemorySimulationIsRestartable(t *testing.T) {
	sim, err := NewMemorySimulation(testInteractions(4))
	require.NoError(t, err)

	first, err := Collect(sim.Interactions())
	require.NoError(t, err)
	second, err := Collect(sim.Interactions())
	require.NoError(t, err)
	assert.Equal(t, contextOrder(t, first), contextOrder(t, second))
}

func TestMemorySimulationRejectsEmptyActionSet(t *testing.T) {
	_, err := NewMemorySimulation([]Interaction{
		NewSimulatedInteraction(nil, nil, nil),
	})
	var invalid *InvalidConfigurationError
	assert.ErrorAs(t, err, &invalid)
}

func TestMemorySimulationRejectsRewardMismatch(t *testing.T) {
	actions := []Action{{Index: 0}, {Index: 1}}
	_, err := NewMemorySimulation([]Interaction{
		NewSimulatedInteraction(nil, actions, []float64{1}),
	})
	var invalid *InvalidConfigurationError
	assert.ErrorAs(t, err, &invalid)
}

func TestCollectPropagatesStreamError(t *testing.T) {
	s := errStream{err: &InvalidConfigurationError{Component: "x", Reason: "y"}}
	_, err := Collect(s)
	assert.Error(t, err)
}

func TestFuncStreamStopsAfterError(t *testing.T) {
	calls := 0
	s := NewFuncStream(func() (Interaction, bool, error) {
		calls++
		if calls == 1 {
			return testInteractions(1)[0], true, nil
		}
		return nil, false, &InvalidConfigurationError{Component: "x", Reason: "y"}
	})

	assert.True(t, s.Next())
	assert.False(t, s.Next())
	assert.Error(t, s.Err())
	assert.False(t, s.Next())
	assert.Equal(t, 2, calls)
}

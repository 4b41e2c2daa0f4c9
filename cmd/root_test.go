package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banditlab/banditenv/env"
)

func TestSummarizeReportsRewardsOutsideUnitRange(t *testing.T) {
	actions := []env.Action{{Index: 0, Label: "a"}, {Index: 1, Label: "b"}}
	sim, err := env.NewMemorySimulation([]env.Interaction{
		env.NewSimulatedInteraction(env.Dense{0}, actions, []float64{2, 5}),
		env.NewSimulatedInteraction(env.Dense{1}, actions, []float64{-1, 3}),
	})
	require.NoError(t, err)

	summary, err := summarize(sim, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.n)
	assert.Equal(t, 2, summary.actions)
	assert.Equal(t, -1.0, summary.minReward)
	assert.Equal(t, 5.0, summary.maxReward)
}

func TestSummarizeLoggedRewards(t *testing.T) {
	actions := []env.Action{{Index: 0, Label: "a"}, {Index: 1, Label: "b"}}
	sim, err := env.NewMemorySimulation([]env.Interaction{
		env.NewLoggedInteraction(env.Dense{0}, actions, 0, 4, 0.5),
		env.NewLoggedInteraction(env.Dense{1}, actions, 1, 1.5, 0.5),
	})
	require.NoError(t, err)

	summary, err := summarize(sim, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.5, summary.minReward)
	assert.Equal(t, 4.0, summary.maxReward)
}

func TestSummarizeEmptyEnvironment(t *testing.T) {
	sim, err := env.NewMemorySimulation(nil)
	require.NoError(t, err)

	summary, err := summarize(sim, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.n)
	assert.Equal(t, 0.0, summary.minReward)
	assert.Equal(t, 0.0, summary.maxReward)
}

func TestSummarizeHonorsPullLimit(t *testing.T) {
	actions := []env.Action{{Index: 0, Label: "a"}, {Index: 1, Label: "b"}}
	var interactions []env.Interaction
	for i := 0; i < 10; i++ {
		interactions = append(interactions, env.NewSimulatedInteraction(env.Dense{float64(i)}, actions, []float64{1, 0}))
	}
	sim, err := env.NewMemorySimulation(interactions)
	require.NoError(t, err)

	summary, err := summarize(sim, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.n)
}

package env

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DistanceKernel maps a context-to-centroid distance to a reward in [0,1].
type DistanceKernel func(distance float64) float64

// InverseDistanceKernel is the default neighbor kernel: 1/(1+d).
func InverseDistanceKernel(d float64) float64 {
	return 1 / (1 + d)
}

// LinearSyntheticConfig parameterizes LinearSyntheticSimulation. Zero values
// fall back to the defaults noted per field.
type LinearSyntheticConfig struct {
	NInteractions  int     // number of interactions (default 500)
	NActions       int     // actions per interaction (default 10)
	NContextFeats  int     // context feature count (default 10)
	NActionFeats   int     // action feature count; 0 = opaque one-hot actions
	RewardNoiseVar float64 // variance of the uniform reward noise (default 0.001)
	Seed           int64
}

func (c *LinearSyntheticConfig) setDefaults() {
	if c.NInteractions == 0 {
		c.NInteractions = 500
	}
	if c.NActions == 0 {
		c.NActions = 10
	}
	if c.NContextFeats == 0 {
		c.NContextFeats = 10
	}
	if c.RewardNoiseVar == 0 {
		c.RewardNoiseVar = 1.0 / 1000
	}
}

// NewLinearSyntheticSimulation generates contexts uniformly in [0,1]^d and a
// fixed random linear reward coefficient per feature term. The reward for an
// action is the linear form over the action features and the context-action
// products, plus uniform noise of the configured variance, clamped to [0,1].
// Weights are normalized so the noiseless reward cannot exceed 1.
// Deterministic given the seed.
func NewLinearSyntheticSimulation(cfg LinearSyntheticConfig) (*LambdaSimulation, error) {
	cfg.setDefaults()
	if cfg.NActions < 2 {
		return nil, &InvalidConfigurationError{Component: "LinearSyntheticSimulation", Reason: "need at least 2 actions"}
	}
	if cfg.RewardNoiseVar < 0 {
		return nil, &InvalidConfigurationError{Component: "LinearSyntheticSimulation", Reason: "reward noise variance must be >= 0"}
	}

	actionDim := cfg.NActionFeats
	if actionDim == 0 {
		actionDim = cfg.NActions // one-hot
	}
	featureCount := actionDim + cfg.NContextFeats*actionDim

	// Weight construction draws from the master seed once, at build time,
	// so every iteration shares one reward surface.
	setup := NewRand(cfg.Seed)
	raw := setup.Floats(featureCount)
	sum := floats.Sum(raw)
	weights := make([]float64, featureCount)
	for i, x := range raw {
		weights[i] = setup.Float64() * x / sum
	}

	noiseScale := math.Sqrt(12) * math.Sqrt(cfg.RewardNoiseVar)

	contextFn := func(_ int, rng *Rand) Context {
		return Dense(rng.Floats(cfg.NContextFeats))
	}

	actionsFn := func(_ int, _ Context, rng *Rand) []Action {
		actions := make([]Action, cfg.NActions)
		for k := range actions {
			if cfg.NActionFeats > 0 {
				actions[k] = Action{Index: k, Features: Dense(rng.Floats(cfg.NActionFeats))}
			} else {
				oneHot := make(Dense, cfg.NActions)
				oneHot[k] = 1
				actions[k] = Action{Index: k, Features: oneHot}
			}
		}
		return actions
	}

	rewardFn := func(_ int, context Context, action Action, rng *Rand) float64 {
		x := context.Dense(cfg.NContextFeats)
		a := action.Features.Dense(actionDim)

		// Terms: the action features themselves, then all context-action
		// products, matching the weight layout above.
		r := floats.Dot(weights[:actionDim], a)
		w := weights[actionDim:]
		for i, xi := range x {
			for j, aj := range a {
				r += w[i*actionDim+j] * xi * aj
			}
		}

		e := (rng.Float64() - 0.5) * noiseScale
		return math.Min(1, math.Max(0, r+e))
	}

	sim, err := NewLambdaSimulation(cfg.NInteractions, cfg.Seed, contextFn, actionsFn, rewardFn)
	if err != nil {
		return nil, err
	}
	sim.params = Params{
		"type": "LinearSyntheticSimulation", "n": cfg.NInteractions, "actions": cfg.NActions,
		"context_feats": cfg.NContextFeats, "action_feats": cfg.NActionFeats,
		"noise_var": cfg.RewardNoiseVar, "seed": cfg.Seed,
	}
	return sim, nil
}

// NeighborsSyntheticConfig parameterizes NewNeighborsSyntheticSimulation.
type NeighborsSyntheticConfig struct {
	NInteractions int            // number of interactions (default 500)
	NActions      int            // actions per interaction (default 10)
	NContextFeats int            // context feature count (default 2)
	NNeighbors    int            // centroids per action (default 10)
	Kernel        DistanceKernel // distance-to-reward transform, InverseDistanceKernel when nil
	Seed          int64
}

func (c *NeighborsSyntheticConfig) setDefaults() {
	if c.NInteractions == 0 {
		c.NInteractions = 500
	}
	if c.NActions == 0 {
		c.NActions = 10
	}
	if c.NContextFeats == 0 {
		c.NContextFeats = 2
	}
	if c.NNeighbors == 0 {
		c.NNeighbors = 10
	}
	if c.Kernel == nil {
		c.Kernel = InverseDistanceKernel
	}
}

// NewNeighborsSyntheticSimulation places a fixed set of random centroids per
// action and generates contexts uniformly in [0,1]^d. An action's reward is
// a decreasing function of the distance from the context to that action's
// nearest centroid, producing reward surfaces with local structure rather
// than global linearity. Deterministic given the seed.
func NewNeighborsSyntheticSimulation(cfg NeighborsSyntheticConfig) (*LambdaSimulation, error) {
	cfg.setDefaults()
	if cfg.NActions < 2 {
		return nil, &InvalidConfigurationError{Component: "NeighborsSyntheticSimulation", Reason: "need at least 2 actions"}
	}
	if cfg.NNeighbors < 1 {
		return nil, &InvalidConfigurationError{Component: "NeighborsSyntheticSimulation", Reason: "need at least 1 centroid per action"}
	}

	// Centroids are fixed at build time from the master seed; contexts vary
	// per interaction through the per-index streams.
	setup := NewRand(cfg.Seed)
	centroids := make([][][]float64, cfg.NActions)
	for a := range centroids {
		centroids[a] = make([][]float64, cfg.NNeighbors)
		for c := range centroids[a] {
			centroids[a][c] = setup.Floats(cfg.NContextFeats)
		}
	}

	actions := make([]Action, cfg.NActions)
	for k := range actions {
		actions[k] = Action{Index: k}
	}

	contextFn := func(_ int, rng *Rand) Context {
		return Dense(rng.Floats(cfg.NContextFeats))
	}

	actionsFn := func(_ int, _ Context, _ *Rand) []Action {
		return actions
	}

	rewardFn := func(_ int, context Context, action Action, _ *Rand) float64 {
		x := context.Dense(cfg.NContextFeats)
		nearest := math.Inf(1)
		for _, c := range centroids[action.Index] {
			if d := floats.Distance(x, c, 2); d < nearest {
				nearest = d
			}
		}
		return cfg.Kernel(nearest)
	}

	sim, err := NewLambdaSimulation(cfg.NInteractions, cfg.Seed, contextFn, actionsFn, rewardFn)
	if err != nil {
		return nil, err
	}
	sim.params = Params{
		"type": "NeighborsSyntheticSimulation", "n": cfg.NInteractions, "actions": cfg.NActions,
		"context_feats": cfg.NContextFeats, "neighbors": cfg.NNeighbors, "seed": cfg.Seed,
	}
	return sim, nil
}

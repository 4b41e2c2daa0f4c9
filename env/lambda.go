package env

import (
	"math"

	"github.com/sirupsen/logrus"
)

// ContextFunc produces the context for interaction index i.
type ContextFunc func(i int, rng *Rand) Context

// ActionsFunc produces the action set for interaction index i.
type ActionsFunc func(i int, context Context, rng *Rand) []Action

// RewardFunc produces the reward for one action of interaction index i.
type RewardFunc func(i int, context Context, action Action, rng *Rand) float64

// LambdaSimulation generates interactions from caller-supplied functions.
// The core seeds and sequences; determinism is a caller obligation: the
// functions MUST be pure given (index, rng state). Purity cannot be enforced,
// so the first interaction of every iteration is generated twice with
// identical random state and a mismatch logs a NonDeterministicInputError
// warning (non-fatal, since a false negative is always possible).
//
// Each index draws from its own derived random stream, so interaction i is a
// function of (seed, i) alone and any prefix of the sequence can be
// regenerated without replaying earlier indices.
type LambdaSimulation struct {
	n       int
	seed    int64
	context ContextFunc
	actions ActionsFunc
	reward  RewardFunc
	params  Params
}

// NewLambdaSimulation builds a LambdaSimulation of n interactions.
func NewLambdaSimulation(n int, seed int64, context ContextFunc, actions ActionsFunc, reward RewardFunc) (*LambdaSimulation, error) {
	if n < 0 {
		return nil, &InvalidConfigurationError{Component: "LambdaSimulation", Reason: "interaction count must be >= 0"}
	}
	if context == nil || actions == nil || reward == nil {
		return nil, &InvalidConfigurationError{Component: "LambdaSimulation", Reason: "context, actions and reward functions are all required"}
	}
	return &LambdaSimulation{
		n:       n,
		seed:    seed,
		context: context,
		actions: actions,
		reward:  reward,
		params:  Params{"type": "LambdaSimulation", "n": n, "seed": seed},
	}, nil
}

func (l *LambdaSimulation) Params() Params { return l.params }

func (l *LambdaSimulation) Interactions() Stream {
	i := 0
	checked := false
	return NewFuncStream(func() (Interaction, bool, error) {
		if i >= l.n {
			return nil, false, nil
		}
		in, err := l.generate(i)
		if err != nil {
			return nil, false, err
		}
		if !checked {
			checked = true
			l.spotCheck(i, in)
		}
		i++
		return in, true, nil
	})
}

// rngFor returns a fresh random stream for interaction index i, partitioned
// off the master seed. A new PartitionedRand per call keeps the stream state
// independent of how often an index is regenerated.
func (l *LambdaSimulation) rngFor(i int) *Rand {
	return NewPartitionedRand(NewIterationKey(l.seed)).ForSubsystem(SubsystemInteraction(i))
}

func (l *LambdaSimulation) generate(i int) (Interaction, error) {
	rng := l.rngFor(i)

	context := l.context(i, rng)
	actions := l.actions(i, context, rng)
	if len(actions) == 0 {
		return nil, &InvalidConfigurationError{
			Component: "LambdaSimulation",
			Reason:    "actions function returned an empty action set at index " + itoa(i),
		}
	}
	rewards := make([]float64, len(actions))
	for k, a := range actions {
		rewards[k] = l.reward(i, context, a, rng)
	}
	return NewSimulatedInteraction(context, actions, rewards), nil
}

// spotCheck regenerates interaction i with identical random state and warns
// when the output disagrees, which means the caller's functions consult
// state beyond (index, rng).
func (l *LambdaSimulation) spotCheck(i int, first Interaction) {
	second, err := l.generate(i)
	if err != nil {
		return
	}
	if !sameInteraction(first, second) {
		logrus.Warnf("%v", &NonDeterministicInputError{Component: "LambdaSimulation", Index: i})
	}
}

func sameInteraction(a, b Interaction) bool {
	sa, okA := a.(SimulatedInteraction)
	sb, okB := b.(SimulatedInteraction)
	if !okA || !okB {
		return okA == okB
	}
	if !sameFeatures(sa.Context(), sb.Context()) {
		return false
	}
	if len(sa.Actions()) != len(sb.Actions()) || len(sa.Rewards()) != len(sb.Rewards()) {
		return false
	}
	for i := range sa.Actions() {
		if !sameFeatures(sa.Actions()[i].Features, sb.Actions()[i].Features) {
			return false
		}
		if sa.Actions()[i].Label != sb.Actions()[i].Label {
			return false
		}
	}
	for i := range sa.Rewards() {
		if sa.Rewards()[i] != sb.Rewards()[i] {
			return false
		}
	}
	return true
}

func sameFeatures(a, b Features) bool {
	if a == nil || b == nil {
		return (a == nil) == (b == nil)
	}
	n := maxIndex(a)
	if m := maxIndex(b); m > n {
		n = m
	}
	for i := 0; i < n; i++ {
		av, bv := a.At(i), b.At(i)
		if av != bv && !(math.IsNaN(av) && math.IsNaN(bv)) {
			return false
		}
	}
	return true
}

package env

// Context is the feature representation of the situation at a decision point.
// A nil Context models a non-contextual (multi-armed) bandit interaction.
type Context = Features

// Action is one member of an interaction's finite action set. Actions either
// carry their own feature vectors or are opaque indices into the set.
type Action struct {
	// Index is the action's position in the global action set, used when the
	// action is opaque (no features).
	Index int
	// Features describes the action when context-action interactions are
	// modeled. Nil for opaque actions.
	Features Features
	// Label is the original label value for actions built from supervised
	// data, kept so round-trips recover labels exactly.
	Label string
}

// Interaction is one decision-point record yielded by an Environment.
// Exactly two variants exist: SimulatedInteraction (oracle knowledge of every
// action's reward) and LoggedInteraction (one observed reward).
type Interaction interface {
	// Context returns the interaction's context, nil for non-contextual
	// environments.
	Context() Context
	// Actions returns the finite action set available at this decision point.
	Actions() []Action
}

// SimulatedInteraction carries a reward for every available action. Rewards
// align with Actions by position.
type SimulatedInteraction struct {
	context Context
	actions []Action
	rewards []float64
}

// NewSimulatedInteraction builds a SimulatedInteraction. len(rewards) must
// equal len(actions); the caller validates before constructing.
func NewSimulatedInteraction(context Context, actions []Action, rewards []float64) SimulatedInteraction {
	return SimulatedInteraction{context: context, actions: actions, rewards: rewards}
}

func (si SimulatedInteraction) Context() Context  { return si.context }
func (si SimulatedInteraction) Actions() []Action { return si.actions }

// Rewards returns the per-action reward table, aligned with Actions().
func (si SimulatedInteraction) Rewards() []float64 { return si.rewards }

// Reward returns the reward for the action at position i.
func (si SimulatedInteraction) Reward(i int) float64 {
	if i < 0 || i >= len(si.rewards) {
		return 0
	}
	return si.rewards[i]
}

// LoggedInteraction carries the single action a logging policy actually took,
// the reward observed for that action only, and optionally the probability
// the logging policy assigned to it.
type LoggedInteraction struct {
	context Context
	actions []Action
	taken   int
	reward  float64
	// propensity is the logging policy's selection probability for the taken
	// action; <= 0 means unknown, in which case off-policy correction is
	// impossible and consumers must not divide by it.
	propensity float64
}

// NewLoggedInteraction builds a LoggedInteraction. taken indexes into actions.
func NewLoggedInteraction(context Context, actions []Action, taken int, reward, propensity float64) LoggedInteraction {
	return LoggedInteraction{context: context, actions: actions, taken: taken, reward: reward, propensity: propensity}
}

func (li LoggedInteraction) Context() Context  { return li.context }
func (li LoggedInteraction) Actions() []Action { return li.actions }

// Taken returns the index of the action the logging policy selected.
func (li LoggedInteraction) Taken() int { return li.taken }

// Reward returns the reward observed for the taken action.
func (li LoggedInteraction) Reward() float64 { return li.reward }

// Propensity returns the logging policy's selection probability for the taken
// action, or 0 when unknown.
func (li LoggedInteraction) Propensity() float64 {
	if li.propensity <= 0 {
		return 0
	}
	return li.propensity
}

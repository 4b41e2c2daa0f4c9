package env

// MemorySimulation wraps a finite, already-materialized interaction list.
// The simplest environment: no randomness, trivially deterministic, and the
// usual base case for filter tests.
type MemorySimulation struct {
	interactions []Interaction
	params       Params
}

// NewMemorySimulation builds a MemorySimulation over interactions. Every
// interaction must carry at least one action, and simulated interactions
// must carry exactly one reward per action.
func NewMemorySimulation(interactions []Interaction) (*MemorySimulation, error) {
	for i, in := range interactions {
		if len(in.Actions()) == 0 {
			return nil, &InvalidConfigurationError{
				Component: "MemorySimulation",
				Reason:    "interaction " + itoa(i) + " has an empty action set",
			}
		}
		if si, ok := in.(SimulatedInteraction); ok && len(si.Rewards()) != len(si.Actions()) {
			return nil, &InvalidConfigurationError{
				Component: "MemorySimulation",
				Reason:    "interaction " + itoa(i) + " has " + itoa(len(si.Rewards())) + " rewards for " + itoa(len(si.Actions())) + " actions",
			}
		}
	}
	return &MemorySimulation{
		interactions: interactions,
		params:       Params{"type": "MemorySimulation", "n": len(interactions)},
	}, nil
}

func (m *MemorySimulation) Params() Params { return m.params }

func (m *MemorySimulation) Interactions() Stream {
	return NewSliceStream(m.interactions)
}

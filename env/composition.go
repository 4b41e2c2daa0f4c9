package env

// Environments is the composition facility: a set of fully configured,
// ready-to-iterate environment specifications. Compositions are immutable;
// every operation returns a new Environments and never iterates anything.
type Environments struct {
	envs []Environment
	err  error
}

// FromEnvironments starts a composition from base specifications.
func FromEnvironments(envs ...Environment) Environments {
	out := make([]Environment, len(envs))
	copy(out, envs)
	return Environments{envs: out}
}

// Err returns the first construction error accumulated while composing.
// Environments whose construction failed are excluded from All; the rest of
// the composed set is unaffected.
func (e Environments) Err() error { return e.err }

// All returns the composed environment set. The slice is a copy; mutating
// it does not disturb the composition.
func (e Environments) All() []Environment {
	out := make([]Environment, len(e.envs))
	copy(out, e.envs)
	return out
}

// Len returns the number of composed environments.
func (e Environments) Len() int { return len(e.envs) }

// Apply attaches the filter chain to every composed environment, in order,
// yielding one new environment per existing one.
func (e Environments) Apply(filters ...Filter) Environments {
	next := Environments{err: e.err}
	for _, base := range e.envs {
		fe, err := NewFilteredEnvironment(base, filters...)
		if err != nil {
			if next.err == nil {
				next.err = err
			}
			continue
		}
		next.envs = append(next.envs, fe)
	}
	return next
}

// Cross composes the cross-product of the current set with the given filter
// alternatives: each environment is wrapped once per alternative, so
// Cross(Shuffle{1}, Shuffle{2}) doubles the set. An empty alternative list
// leaves the composition unchanged.
func (e Environments) Cross(alternatives ...Filter) Environments {
	if len(alternatives) == 0 {
		return e
	}
	next := Environments{err: e.err}
	for _, base := range e.envs {
		for _, f := range alternatives {
			fe, err := NewFilteredEnvironment(base, f)
			if err != nil {
				if next.err == nil {
					next.err = err
				}
				continue
			}
			next.envs = append(next.envs, fe)
		}
	}
	return next
}

// Shuffles is shorthand for Cross over one Shuffle per seed, the most common
// way experiment definitions fan a dataset out into repetitions.
func (e Environments) Shuffles(seeds ...int64) Environments {
	alternatives := make([]Filter, len(seeds))
	for i, s := range seeds {
		alternatives[i] = Shuffle{Seed: Seed(s)}
	}
	return e.Cross(alternatives...)
}

// Takes is shorthand for Cross over one Take per count.
func (e Environments) Takes(counts ...int) Environments {
	alternatives := make([]Filter, len(counts))
	for i, n := range counts {
		alternatives[i] = Take{N: n}
	}
	return e.Cross(alternatives...)
}

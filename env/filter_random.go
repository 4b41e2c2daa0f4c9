package env

// Shuffle permutes the interaction order using the given seed. The
// permutation is a pure function of the seed and the input length, so the
// same seed reproduces the same order run after run.
type Shuffle struct {
	Seed *int64
}

func (Shuffle) Name() string { return "shuffle" }

func (s Shuffle) Params() Params { return seedParams("shuffle_seed", s.Seed) }

func (Shuffle) Validate() error { return nil }

func (s Shuffle) seedValue() (int64, bool) {
	if s.Seed == nil {
		return 0, false
	}
	return *s.Seed, true
}

func (s Shuffle) Apply(upstream Stream, rng *Rand) Stream {
	items, err := Collect(upstream)
	if err != nil {
		return errStream{err: err}
	}
	return NewSliceStream(Shuffled(rng, items))
}

// Reservoir draws a uniform-random sample of N interactions from a stream of
// unknown length in a single pass with O(N) memory. An upstream shorter than
// N passes through whole.
type Reservoir struct {
	N    int
	Seed *int64
}

func (Reservoir) Name() string { return "reservoir" }

func (r Reservoir) Params() Params {
	p := seedParams("reservoir_seed", r.Seed)
	p["reservoir"] = r.N
	return p
}

func (r Reservoir) Validate() error {
	if r.N < 0 {
		return &InvalidConfigurationError{Component: "Reservoir", Reason: "sample size must be >= 0"}
	}
	return nil
}

func (r Reservoir) seedValue() (int64, bool) {
	if r.Seed == nil {
		return 0, false
	}
	return *r.Seed, true
}

func (r Reservoir) Apply(upstream Stream, rng *Rand) Stream {
	sample := make([]Interaction, 0, r.N)
	seen := 0
	for upstream.Next() {
		in := upstream.Interaction()
		if seen < r.N {
			sample = append(sample, in)
		} else if j := rng.Intn(seen + 1); j < r.N {
			sample[j] = in
		}
		seen++
	}
	if err := upstream.Err(); err != nil {
		return errStream{err: err}
	}
	return NewSliceStream(sample)
}

// Cycle repeats a finite upstream until the target length is reached,
// optionally re-shuffling each pass so repeats do not arrive in lockstep.
type Cycle struct {
	Length    int
	Reshuffle bool
	Seed      *int64
}

func (Cycle) Name() string { return "cycle" }

func (c Cycle) Params() Params {
	p := seedParams("cycle_seed", c.Seed)
	p["cycle"] = c.Length
	p["cycle_reshuffle"] = c.Reshuffle
	return p
}

func (c Cycle) Validate() error {
	if c.Length < 0 {
		return &InvalidConfigurationError{Component: "Cycle", Reason: "target length must be >= 0"}
	}
	return nil
}

func (c Cycle) seedValue() (int64, bool) {
	if c.Seed == nil {
		return 0, false
	}
	return *c.Seed, true
}

func (c Cycle) Apply(upstream Stream, rng *Rand) Stream {
	items, err := Collect(upstream)
	if err != nil {
		return errStream{err: err}
	}
	if len(items) == 0 {
		return NewSliceStream(nil) // nothing to repeat
	}

	pass := items
	emitted, pos := 0, 0
	return NewFuncStream(func() (Interaction, bool, error) {
		if emitted >= c.Length {
			return nil, false, nil
		}
		if pos >= len(pass) {
			pos = 0
			if c.Reshuffle {
				pass = Shuffled(rng, items)
			}
		}
		in := pass[pos]
		pos++
		emitted++
		return in, true, nil
	})
}

// WarmStart splits a simulated sequence into a logged-style prefix followed
// by the remaining simulated interactions. The prefix simulates a uniform
// logging policy: one action is sampled per interaction, its oracle reward
// becomes the observed reward, and the propensity is 1/len(actions). A
// sequence shorter than K converts entirely, leaving no simulated remainder.
type WarmStart struct {
	K    int
	Seed *int64
}

func (WarmStart) Name() string { return "warmstart" }

func (w WarmStart) Params() Params {
	p := seedParams("warmstart_seed", w.Seed)
	p["warmstart"] = w.K
	return p
}

func (w WarmStart) Validate() error {
	if w.K < 0 {
		return &InvalidConfigurationError{Component: "WarmStart", Reason: "prefix length must be >= 0"}
	}
	return nil
}

func (w WarmStart) seedValue() (int64, bool) {
	if w.Seed == nil {
		return 0, false
	}
	return *w.Seed, true
}

func (w WarmStart) Apply(upstream Stream, rng *Rand) Stream {
	converted := 0
	return NewFuncStream(func() (Interaction, bool, error) {
		if !upstream.Next() {
			return nil, false, upstream.Err()
		}
		in := upstream.Interaction()
		if converted >= w.K {
			return in, true, nil
		}
		converted++

		si, ok := in.(SimulatedInteraction)
		if !ok {
			return in, true, nil // already logged, nothing to simulate
		}
		taken := rng.Intn(len(si.Actions()))
		propensity := 1 / float64(len(si.Actions()))
		return NewLoggedInteraction(si.Context(), si.Actions(), taken, si.Reward(taken), propensity), true, nil
	})
}

func seedParams(key string, seed *int64) Params {
	if seed == nil {
		return Params{key: nil}
	}
	return Params{key: *seed}
}

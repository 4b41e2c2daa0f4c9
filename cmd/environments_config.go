package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/banditlab/banditenv/env"
	"github.com/banditlab/banditenv/env/source"
)

// EnvironmentsSpec is the top-level experiment-definition file: a set of
// base environments, a shared filter chain, and optional cross-product
// expansions. Loaded from YAML via LoadEnvironmentsSpec(path).
type EnvironmentsSpec struct {
	Environments []EnvironmentSpec `yaml:"environments"`
	Filters      []FilterSpec      `yaml:"filters,omitempty"`
	ShuffleSeeds []int64           `yaml:"shuffle_seeds,omitempty"`
	Takes        []int             `yaml:"takes,omitempty"`
}

// EnvironmentSpec defines a single base environment.
type EnvironmentSpec struct {
	Type string `yaml:"type"` // linear, neighbors, openml, csv, arff, libsvm

	// Synthetic parameters
	Seed         int64 `yaml:"seed,omitempty"`
	N            int   `yaml:"n,omitempty"`
	Actions      int   `yaml:"actions,omitempty"`
	ContextFeats int   `yaml:"context_features,omitempty"`
	ActionFeats  int   `yaml:"action_features,omitempty"`
	Neighbors    int   `yaml:"neighbors,omitempty"`

	// Dataset parameters
	DataID     int    `yaml:"data_id,omitempty"` // openml
	Path       string `yaml:"path,omitempty"`    // csv, arff, libsvm
	Label      string `yaml:"label,omitempty"`   // label column/attribute
	Regression bool   `yaml:"regression,omitempty"`
	Strict     bool   `yaml:"strict,omitempty"`
}

// FilterSpec defines one filter chain stage.
type FilterSpec struct {
	Type      string  `yaml:"type"`
	Seed      *int64  `yaml:"seed,omitempty"`
	N         int     `yaml:"n,omitempty"`
	K         int     `yaml:"k,omitempty"`
	Length    int     `yaml:"length,omitempty"`
	Reshuffle bool    `yaml:"reshuffle,omitempty"`
	Threshold float64 `yaml:"threshold,omitempty"`
	Strategy  string  `yaml:"strategy,omitempty"`
	Constant  float64 `yaml:"constant,omitempty"`
	Mode      string  `yaml:"mode,omitempty"`
	ToDense   bool    `yaml:"to_dense,omitempty"`
	Feature   int     `yaml:"feature,omitempty"`
}

// LoadEnvironmentsSpec reads and parses an EnvironmentsSpec YAML file.
func LoadEnvironmentsSpec(path string) (*EnvironmentsSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read environments config: %w", err)
	}
	var spec EnvironmentsSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("unable to parse environments config: %w", err)
	}
	if len(spec.Environments) == 0 {
		return nil, fmt.Errorf("environments config %q defines no environments", path)
	}
	return &spec, nil
}

// Compose builds the full environment set the spec describes. Environments
// that fail to construct are logged and skipped so one bad definition does
// not sink the whole set; the first error is reported alongside the result.
func (s *EnvironmentsSpec) Compose() (env.Environments, error) {
	var bases []env.Environment
	var firstErr error
	for i, es := range s.Environments {
		e, err := es.Build()
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("environment %d: %w", i, err)
			}
			continue
		}
		bases = append(bases, e)
	}

	composed := env.FromEnvironments(bases...)
	if len(s.Filters) > 0 {
		filters := make([]env.Filter, 0, len(s.Filters))
		for i, fs := range s.Filters {
			f, err := fs.Build()
			if err != nil {
				return composed, fmt.Errorf("filter %d: %w", i, err)
			}
			filters = append(filters, f)
		}
		composed = composed.Apply(filters...)
	}
	if len(s.ShuffleSeeds) > 0 {
		composed = composed.Shuffles(s.ShuffleSeeds...)
	}
	if len(s.Takes) > 0 {
		composed = composed.Takes(s.Takes...)
	}
	if firstErr == nil {
		firstErr = composed.Err()
	}
	return composed, firstErr
}

// Build constructs the base environment this spec describes.
func (es EnvironmentSpec) Build() (env.Environment, error) {
	switch es.Type {
	case "linear":
		return env.NewLinearSyntheticSimulation(env.LinearSyntheticConfig{
			NInteractions: es.N,
			NActions:      es.Actions,
			NContextFeats: es.ContextFeats,
			NActionFeats:  es.ActionFeats,
			Seed:          es.Seed,
		})
	case "neighbors":
		return env.NewNeighborsSyntheticSimulation(env.NeighborsSyntheticConfig{
			NInteractions: es.N,
			NActions:      es.Actions,
			NContextFeats: es.ContextFeats,
			NNeighbors:    es.Neighbors,
			Seed:          es.Seed,
		})
	case "openml":
		return env.NewOpenmlSimulation(es.DataID, env.SupervisedConfig{Regression: es.Regression, Strict: es.Strict})
	case "csv":
		reader := source.CSVReader{HasHeader: true, LabelColumn: es.Label, Strict: es.Strict}
		return env.NewSupervisedSimulation(reader.Read(source.DiskSource{Path: es.Path}),
			env.SupervisedConfig{Regression: es.Regression, Strict: es.Strict})
	case "arff":
		reader := source.ARFFReader{LabelAttribute: es.Label, Strict: es.Strict}
		return env.NewSupervisedSimulation(reader.Read(source.DiskSource{Path: es.Path}),
			env.SupervisedConfig{Regression: es.Regression, Strict: es.Strict})
	case "libsvm":
		reader := source.LibSVMReader{Strict: es.Strict}
		return env.NewSupervisedSimulation(reader.Read(source.DiskSource{Path: es.Path}),
			env.SupervisedConfig{Regression: es.Regression, Strict: es.Strict})
	default:
		return nil, fmt.Errorf("unknown environment type %q", es.Type)
	}
}

// Build constructs the filter this spec describes.
func (fs FilterSpec) Build() (env.Filter, error) {
	switch fs.Type {
	case "identity":
		return env.Identity{}, nil
	case "shuffle":
		return env.Shuffle{Seed: fs.Seed}, nil
	case "sort":
		return env.SortByFeature(fs.Feature), nil
	case "take":
		return env.Take{N: fs.N}, nil
	case "reservoir":
		return env.Reservoir{N: fs.N, Seed: fs.Seed}, nil
	case "cycle":
		return env.Cycle{Length: fs.Length, Reshuffle: fs.Reshuffle, Seed: fs.Seed}, nil
	case "scale":
		return env.Scale{Mode: fs.Mode}, nil
	case "impute":
		return env.Impute{Strategy: fs.Strategy, Constant: fs.Constant}, nil
	case "binary":
		return env.Binary{Threshold: fs.Threshold}, nil
	case "sparsify":
		return env.Sparsify{ToDense: fs.ToDense}, nil
	case "warmstart":
		return env.WarmStart{K: fs.K, Seed: fs.Seed}, nil
	default:
		return nil, fmt.Errorf("unknown filter type %q", fs.Type)
	}
}

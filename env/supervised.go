package env

import (
	"math"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/banditlab/banditenv/env/source"
)

// RewardShaper maps a regression row's true label and a candidate action
// value to a reward. Pluggable because no single transform is canonical.
type RewardShaper func(label, action float64) float64

// AbsErrorShaper is the default regression shaper: 1 minus the absolute
// error, clamped to [0,1].
func AbsErrorShaper(label, action float64) float64 {
	r := 1 - math.Abs(label-action)
	if r < 0 {
		return 0
	}
	return r
}

// SupervisedConfig parameterizes the dataset-to-bandit conversion.
type SupervisedConfig struct {
	// Regression treats labels as numeric targets instead of classes.
	Regression bool
	// Shaper is the regression reward transform, AbsErrorShaper when nil.
	// Ignored for classification.
	Shaper RewardShaper
	// Strict aborts construction on the first unusable row instead of
	// skipping it with a warning.
	Strict bool
}

// SupervisedSimulation converts a labeled dataset into bandit form: each
// row's feature vector becomes the context, the label domain becomes the
// action set, and rewards are 1-vs-0 on the true label (classification) or a
// shaped error transform (regression).
//
// The action set is global: it is built from every row's label before any
// interaction is produced, so all interactions share one stable action set.
type SupervisedSimulation struct {
	interactions []Interaction
	featureNames []string
	labels       []string
	params       Params
}

// NewSupervisedSimulation materializes rows and builds the simulation.
// Construction fails fast when fewer than two distinct labels survive,
// because a one-action bandit problem is degenerate.
func NewSupervisedSimulation(rows source.RowStream, cfg SupervisedConfig) (*SupervisedSimulation, error) {
	materialized, err := source.CollectRows(rows)
	if err != nil {
		return nil, err
	}
	return newSupervisedFromRows(materialized, cfg)
}

func newSupervisedFromRows(rows []source.Row, cfg SupervisedConfig) (*SupervisedSimulation, error) {
	usable := rows[:0:0]
	for _, row := range rows {
		// "?" is the ARFF missing marker; a missing label makes the row
		// unusable the same way no label does.
		if row.Label == "" || row.Label == "?" {
			if cfg.Strict {
				return nil, &InvalidConfigurationError{
					Component: "SupervisedSimulation",
					Reason:    "row " + itoa(row.Index) + " has no label",
				}
			}
			logrus.Warnf("skipping unlabeled row %d", row.Index)
			continue
		}
		usable = append(usable, row)
	}

	featureNames := featureIndex(usable)
	featureAt := make(map[string]int, len(featureNames))
	for i, name := range featureNames {
		featureAt[name] = i
	}

	if cfg.Regression {
		return newRegression(usable, featureNames, featureAt, cfg)
	}
	return newClassification(usable, featureNames, featureAt)
}

// featureIndex assigns every feature identifier appearing in any row a
// stable dense index (sorted identifier order).
func featureIndex(rows []source.Row) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row.Features {
			seen[k] = struct{}{}
		}
		for _, k := range row.Missing {
			seen[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// contextOf builds the row's sparse context. Missing values become explicit
// NaN entries so downstream imputation can see them; absent keys stay absent
// and mean zero.
func contextOf(row source.Row, featureAt map[string]int) Context {
	ctx := make(Sparse, len(row.Features)+len(row.Missing))
	for k, v := range row.Features {
		ctx[featureAt[k]] = v
	}
	for _, k := range row.Missing {
		ctx[featureAt[k]] = math.NaN()
	}
	return ctx
}

func newClassification(rows []source.Row, featureNames []string, featureAt map[string]int) (*SupervisedSimulation, error) {
	labelSet := make(map[string]struct{})
	for _, row := range rows {
		labelSet[row.Label] = struct{}{}
	}
	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	if len(labels) < 2 {
		return nil, &InvalidConfigurationError{
			Component: "SupervisedSimulation",
			Reason:    "need at least 2 distinct labels, got " + itoa(len(labels)),
		}
	}

	actions := make([]Action, len(labels))
	labelAt := make(map[string]int, len(labels))
	for i, l := range labels {
		actions[i] = Action{Index: i, Label: l}
		labelAt[l] = i
	}

	interactions := make([]Interaction, 0, len(rows))
	for _, row := range rows {
		rewards := make([]float64, len(actions))
		rewards[labelAt[row.Label]] = 1
		interactions = append(interactions, NewSimulatedInteraction(contextOf(row, featureAt), actions, rewards))
	}

	return &SupervisedSimulation{
		interactions: interactions,
		featureNames: featureNames,
		labels:       labels,
		params:       Params{"type": "SupervisedSimulation", "problem": "classification", "n": len(interactions), "actions": len(actions)},
	}, nil
}

func newRegression(rows []source.Row, featureNames []string, featureAt map[string]int, cfg SupervisedConfig) (*SupervisedSimulation, error) {
	shaper := cfg.Shaper
	if shaper == nil {
		shaper = AbsErrorShaper
	}

	type labeled struct {
		row   source.Row
		value float64
	}

	valueSet := make(map[float64]string)
	usable := make([]labeled, 0, len(rows))
	for _, row := range rows {
		v, err := strconv.ParseFloat(row.Label, 64)
		if err != nil {
			malformed := &MalformedRecordError{Source: "regression label", Row: row.Index, Value: row.Label, Cause: err}
			if cfg.Strict {
				return nil, malformed
			}
			logrus.Warnf("skipping record: %v", malformed)
			continue
		}
		valueSet[v] = row.Label
		usable = append(usable, labeled{row: row, value: v})
	}

	values := make([]float64, 0, len(valueSet))
	for v := range valueSet {
		values = append(values, v)
	}
	sort.Float64s(values)

	if len(values) < 2 {
		return nil, &InvalidConfigurationError{
			Component: "SupervisedSimulation",
			Reason:    "need at least 2 distinct label values, got " + itoa(len(values)),
		}
	}

	actions := make([]Action, len(values))
	labels := make([]string, len(values))
	for i, v := range values {
		actions[i] = Action{Index: i, Label: valueSet[v]}
		labels[i] = valueSet[v]
	}

	interactions := make([]Interaction, 0, len(usable))
	for _, l := range usable {
		rewards := make([]float64, len(values))
		for i, v := range values {
			rewards[i] = shaper(l.value, v)
		}
		interactions = append(interactions, NewSimulatedInteraction(contextOf(l.row, featureAt), actions, rewards))
	}

	return &SupervisedSimulation{
		interactions: interactions,
		featureNames: featureNames,
		labels:       labels,
		params:       Params{"type": "SupervisedSimulation", "problem": "regression", "n": len(interactions), "actions": len(actions)},
	}, nil
}

func (s *SupervisedSimulation) Params() Params { return s.params }

func (s *SupervisedSimulation) Interactions() Stream {
	return NewSliceStream(s.interactions)
}

// FeatureNames returns the identifier behind each dense context index,
// letting callers map contexts back to the source's columns.
func (s *SupervisedSimulation) FeatureNames() []string { return s.featureNames }

// Labels returns the label behind each action index.
func (s *SupervisedSimulation) Labels() []string { return s.labels }

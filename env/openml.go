package env

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/banditlab/banditenv/env/cache"
	"github.com/banditlab/banditenv/env/source"
)

// DefaultCacher is the process-wide cache for OpenML payloads, initialized
// on first use and never torn down. Each dataset identifier is fetched at
// most once per process; the ConcurrentCacher collapses concurrent fetches
// of the same key without holding a global lock across the fetch.
var DefaultCacher cache.Cacher = cache.NewConcurrentCacher(cache.NewMemoryCacher())

const openmlBaseURL = "https://www.openml.org"

// OpenmlSource resolves an OpenML dataset identifier to labeled rows: it
// fetches the dataset description, the feature descriptions, and the ARFF
// payload, then drops ignored columns and rows with missing values. Network
// and protocol failures surface as SourceUnavailableError, never as a
// silently substituted payload.
type OpenmlSource struct {
	// DataID is the dataset identifier (openml.org/d/{id}).
	DataID int
	// Regression selects the regression task list when the dataset itself
	// declares no target; the default is classification.
	Regression bool
	// APIKey is appended to API requests when set.
	APIKey string
	// Cacher overrides DefaultCacher when set.
	Cacher cache.Cacher
	// Client overrides http.DefaultClient when set.
	Client *http.Client
	// BaseURL overrides the production endpoint, for tests.
	BaseURL string
}

type openmlDataDescription struct {
	Status                 string      `json:"status"`
	FileID                 json.Number `json:"file_id"`
	DefaultTargetAttribute string      `json:"default_target_attribute"`
}

type openmlFeature struct {
	Name            string `json:"name"`
	DataType        string `json:"data_type"`
	IsTarget        string `json:"is_target"`
	IsIgnore        string `json:"is_ignore"`
	IsRowIdentifier string `json:"is_row_identifier"`
}

// Read fetches (or reads back from cache) and parses the dataset. It returns
// the rows plus whether the resolved target is numeric, which decides the
// downstream classification-vs-regression conversion.
func (o *OpenmlSource) Read() ([]source.Row, bool, error) {
	id := fmt.Sprintf("openml %d", o.DataID)

	descr, err := o.dataDescription()
	if err != nil {
		return nil, false, err
	}
	if descr.Status == "deactivated" {
		return nil, false, &SourceUnavailableError{Source: id, Cause: fmt.Errorf("dataset has been deactivated, often due to flags on the data")}
	}

	features, err := o.featureDescriptions()
	if err != nil {
		return nil, false, err
	}

	target := strings.TrimSpace(descr.DefaultTargetAttribute)
	ignored := make(map[string]bool)
	for _, f := range features {
		name := strings.Trim(strings.TrimSpace(f.Name), `'"`)
		if f.IsIgnore == "true" || f.IsRowIdentifier == "true" || (f.DataType != "numeric" && f.DataType != "nominal") {
			ignored[name] = true
		}
		if target == "" && f.IsTarget == "true" {
			target = name
		}
	}
	if target == "" {
		// Some datasets declare their target only through the task list.
		target, err = o.targetFromTasks()
		if err != nil {
			return nil, false, err
		}
	}
	numericTarget := false
	for _, f := range features {
		name := strings.Trim(strings.TrimSpace(f.Name), `'"`)
		if name == target && f.DataType == "numeric" {
			numericTarget = true
		}
	}
	delete(ignored, target)

	payload, err := o.arffPayload(descr.FileID.String())
	if err != nil {
		return nil, false, err
	}

	reader := source.ARFFReader{LabelAttribute: target}
	rows, err := source.CollectRows(reader.Read(source.BytesSource{Name: id, Payload: payload}))
	if err != nil {
		return nil, false, err
	}

	kept := rows[:0]
	for _, row := range rows {
		if len(row.Missing) > 0 || row.Label == "?" || row.Label == "" {
			continue // rows with missing values are dropped, not imputed
		}
		for name := range ignored {
			delete(row.Features, name)
			for k := range row.Features {
				if strings.HasPrefix(k, name+"=") {
					delete(row.Features, k)
				}
			}
		}
		kept = append(kept, row)
	}
	return kept, numericTarget, nil
}

func (o *OpenmlSource) cacher() cache.Cacher {
	if o.Cacher != nil {
		return o.Cacher
	}
	return DefaultCacher
}

func (o *OpenmlSource) baseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}
	return openmlBaseURL
}

func (o *OpenmlSource) dataDescription() (*openmlDataDescription, error) {
	body, err := o.fetch(
		fmt.Sprintf("%s/api/v1/json/data/%d", o.baseURL(), o.DataID),
		fmt.Sprintf("openml_%06d_data", o.DataID),
	)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		DataSetDescription openmlDataDescription `json:"data_set_description"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, &SourceUnavailableError{Source: fmt.Sprintf("openml %d", o.DataID), Cause: fmt.Errorf("data description: %w", err)}
	}
	return &wrapper.DataSetDescription, nil
}

func (o *OpenmlSource) featureDescriptions() ([]openmlFeature, error) {
	body, err := o.fetch(
		fmt.Sprintf("%s/api/v1/json/data/features/%d", o.baseURL(), o.DataID),
		fmt.Sprintf("openml_%06d_feat", o.DataID),
	)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		DataFeatures struct {
			Feature []openmlFeature `json:"feature"`
		} `json:"data_features"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, &SourceUnavailableError{Source: fmt.Sprintf("openml %d", o.DataID), Cause: fmt.Errorf("feature descriptions: %w", err)}
	}
	return wrapper.DataFeatures.Feature, nil
}

// targetFromTasks resolves the target column from the dataset's task list,
// used when neither the data description nor the feature descriptions declare
// one. The first task matching the problem type wins; its first target_feature
// input names the column.
func (o *OpenmlSource) targetFromTasks() (string, error) {
	id := fmt.Sprintf("openml %d", o.DataID)
	body, err := o.fetch(
		fmt.Sprintf("%s/api/v1/json/task/list/data_id/%d", o.baseURL(), o.DataID),
		fmt.Sprintf("openml_%06d_task", o.DataID),
	)
	if err != nil {
		return "", err
	}
	var wrapper struct {
		Tasks struct {
			Task []struct {
				TaskTypeID json.Number `json:"task_type_id"`
				Input      []struct {
					Name  string `json:"name"`
					Value string `json:"value"`
				} `json:"input"`
			} `json:"task"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return "", &SourceUnavailableError{Source: id, Cause: fmt.Errorf("task list: %w", err)}
	}

	problem := problemName(o.Regression)
	wantType := "1"
	if o.Regression {
		wantType = "2"
	}
	for _, task := range wrapper.Tasks.Task {
		if task.TaskTypeID.String() != wantType {
			continue
		}
		for _, in := range task.Input {
			if in.Name == "target_feature" {
				return strings.Trim(strings.TrimSpace(in.Value), `'"`), nil
			}
		}
	}
	return "", &SourceUnavailableError{Source: id, Cause: fmt.Errorf("dataset does not appear to have a %s task", problem)}
}

func (o *OpenmlSource) arffPayload(fileID string) ([]byte, error) {
	return o.fetch(
		fmt.Sprintf("%s/data/v1/download/%s", o.baseURL(), fileID),
		fmt.Sprintf("openml_%06d_arff", o.DataID),
	)
}

// fetch returns the payload for url, going to the network only when the
// cache misses.
func (o *OpenmlSource) fetch(url, key string) ([]byte, error) {
	return o.cacher().GetPut(key, func() ([]byte, error) {
		logrus.Debugf("fetching %s", url)

		requestURL := url
		if o.APIKey != "" {
			requestURL += "?api_key=" + o.APIKey
		}
		src := source.HTTPSource{URL: requestURL, Client: o.Client}
		rc, err := src.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		payload, err := io.ReadAll(rc)
		if err != nil {
			return nil, &SourceUnavailableError{Source: url, Cause: err}
		}
		return payload, nil
	})
}

// OpenmlSimulation is a SupervisedSimulation specialized to data fetched
// from OpenML. The fetch and conversion run once, on the first iteration,
// and the built simulation is reused by every later iteration.
type OpenmlSimulation struct {
	src    *OpenmlSource
	cfg    SupervisedConfig
	params Params

	once  sync.Once
	built *SupervisedSimulation
	err   error
}

// NewOpenmlSimulation creates an OpenmlSimulation for the given dataset id.
func NewOpenmlSimulation(dataID int, cfg SupervisedConfig) (*OpenmlSimulation, error) {
	if dataID <= 0 {
		return nil, &InvalidConfigurationError{Component: "OpenmlSimulation", Reason: "data id must be > 0"}
	}
	return &OpenmlSimulation{
		src:    &OpenmlSource{DataID: dataID, Regression: cfg.Regression},
		cfg:    cfg,
		params: Params{"type": "OpenmlSimulation", "openml": dataID, "problem": problemName(cfg.Regression)},
	}, nil
}

// Source exposes the underlying OpenmlSource so callers can redirect it at a
// mirror or inject a cacher before the first iteration.
func (o *OpenmlSimulation) Source() *OpenmlSource { return o.src }

func problemName(regression bool) string {
	if regression {
		return "regression"
	}
	return "classification"
}

func (o *OpenmlSimulation) Params() Params { return o.params }

func (o *OpenmlSimulation) Interactions() Stream {
	o.once.Do(func() {
		rows, numericTarget, err := o.src.Read()
		if err != nil {
			o.err = err
			return
		}

		cfg := o.cfg
		if !cfg.Regression && numericTarget {
			// A numeric target still classifies when the caller asked for
			// classification; labels keep their string form from the ARFF.
			logrus.Debugf("openml %d: numeric target used as nominal labels", o.src.DataID)
		}
		o.built, o.err = newSupervisedFromRows(rows, cfg)
	})
	if o.err != nil {
		return errStream{err: o.err}
	}
	return o.built.Interactions()
}

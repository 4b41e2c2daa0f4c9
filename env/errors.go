package env

import (
	"fmt"

	"github.com/banditlab/banditenv/env/source"
)

// The per-record half of the error taxonomy is defined next to the readers
// in env/source; aliased here so consumers match every variant through one
// package.

// SourceUnavailableError reports that a file or network source could not be
// accessed at all. It is structural: iteration aborts rather than skipping.
type SourceUnavailableError = source.UnavailableError

// MalformedRecordError reports a single-record parse failure. Recoverable:
// the default policy logs a warning and skips the record; strict mode
// converts it into an iteration abort.
type MalformedRecordError = source.MalformedRecordError

// InvalidConfigurationError reports a construction-time configuration
// problem, e.g. a degenerate label set or a filter parameter out of range.
// It is always raised before iteration begins, never mid-stream.
type InvalidConfigurationError struct {
	Component string // the environment or filter being configured
	Reason    string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s configuration: %s", e.Component, e.Reason)
}

// NonDeterministicInputError reports that a user-supplied generator produced
// different output for the same index and seed. Purity cannot be verified in
// general, so this is raised only when a spot re-invocation disagrees.
type NonDeterministicInputError struct {
	Component string
	Index     int
}

func (e *NonDeterministicInputError) Error() string {
	return fmt.Sprintf("%s produced differing output on re-invocation at index %d; generator functions must be deterministic given the same random state", e.Component, e.Index)
}

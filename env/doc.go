// Package env provides reproducible, composable contextual-bandit
// environments: lazy, seed-deterministic interaction sequences assembled
// from tabular data sources or synthetic generators and transformed through
// a chain of composable filters.
//
// # Reading Guide
//
// Start with these three files to understand the pipeline:
//   - interaction.go: the typed records consumers receive (SimulatedInteraction, LoggedInteraction)
//   - environment.go: the Environment specification contract and its determinism invariant
//   - filter.go: the EnvironmentFilter contract and the streaming model
//
// # Architecture
//
// Data flows source → rows → environment → filter chain → interaction
// stream:
//   - env/source/: raw readers (CSV, ARFF, LIBSVM/Manik) producing transient rows
//   - env/cache/: fetch-once payload caching for remote datasets
//   - memory.go, lambda.go, supervised.go, synthetics.go, openml.go: environment variants
//   - filter.go, filter_random.go, filter_stats.go: the filter chain stages
//   - composition.go: the immutable cross-product builder experiments consume
//
// # Determinism
//
// Every random draw comes from a seed-scoped generator created fresh per
// iteration (rng.go). Environments and filters are immutable value objects,
// so interleaved iterations over one specification are independent and two
// iterations with equal seeds see identical sequences.
package env

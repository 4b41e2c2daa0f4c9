package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/banditlab/banditenv/env"
	"github.com/banditlab/banditenv/env/cache"
)

var (
	// CLI flags
	configPath string // Path to the environments YAML definition
	logLevel   string // Log verbosity level
	cacheDir   string // On-disk cache directory for remote datasets
	maxPull    int    // Cap on interactions pulled per environment (0 = all)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "banditenv",
	Short: "Reproducible contextual-bandit environment pipelines",
}

// setupLogging applies the --log flag before any subcommand work.
func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// setupCache redirects remote dataset fetches at a disk cache when requested.
func setupCache() {
	if cacheDir == "" {
		return
	}
	env.DefaultCacher = cache.NewConcurrentCacher(cache.NewDiskCacher(cacheDir))
	logrus.Debugf("caching remote datasets under %s", cacheDir)
}

// runCmd iterates every composed environment and prints a per-environment
// summary: interaction count, action set size, and the observed reward range.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Iterate the composed environments and summarize their sequences",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()
		setupCache()

		spec, err := LoadEnvironmentsSpec(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		composed, err := spec.Compose()
		if err != nil {
			logrus.Warnf("composition incomplete: %v", err)
		}

		for _, e := range composed.All() {
			start := time.Now()
			summary, err := summarize(e, maxPull)
			if err != nil {
				logrus.Errorf("environment %s: %v", e.Params(), err)
				continue
			}
			fmt.Printf("%s: n=%d actions=%d reward=[%.4f, %.4f] elapsed=%s\n",
				e.Params(), summary.n, summary.actions, summary.minReward, summary.maxReward,
				time.Since(start).Round(time.Millisecond))
		}
	},
}

// inspectCmd prints the composed environment parameters without iterating.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the composed environment set without iterating",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		spec, err := LoadEnvironmentsSpec(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		composed, err := spec.Compose()
		if err != nil {
			logrus.Warnf("composition incomplete: %v", err)
		}
		for i, e := range composed.All() {
			fmt.Printf("[%d] %s\n", i, e.Params())
		}
	},
}

type envSummary struct {
	n         int
	actions   int
	minReward float64
	maxReward float64
}

// summarize pulls up to limit interactions (0 = all) from one fresh
// iteration of e.
func summarize(e env.Environment, limit int) (envSummary, error) {
	s := e.Interactions()
	var summary envSummary
	first := true
	sawReward := false
	observe := func(r float64) {
		if !sawReward {
			summary.minReward, summary.maxReward = r, r
			sawReward = true
			return
		}
		summary.minReward = min(summary.minReward, r)
		summary.maxReward = max(summary.maxReward, r)
	}
	for s.Next() {
		in := s.Interaction()
		if first {
			summary.actions = len(in.Actions())
			first = false
		}
		switch v := in.(type) {
		case env.SimulatedInteraction:
			for _, r := range v.Rewards() {
				observe(r)
			}
		case env.LoggedInteraction:
			observe(v.Reward())
		}
		summary.n++
		if limit > 0 && summary.n >= limit {
			break
		}
	}
	return summary, s.Err()
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{runCmd, inspectCmd} {
		c.Flags().StringVar(&configPath, "config", "environments.yaml", "Path to the environments YAML definition")
		c.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	}
	runCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory for caching remote dataset payloads")
	runCmd.Flags().IntVar(&maxPull, "max-pull", 0, "Maximum interactions to pull per environment (0 = all)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
}

// qosrouter is the operator-facing CLI: it loads a topology, drives the
// experiment matrix or a one-shot k-path benchmark, and writes the report
// decks spec §6 names. The command tree is grounded on jhkimqd-chaos-utils's
// cobra-based cmd/chaos-runner, the one pack repo that builds its CLI on
// cobra rather than the flag package.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:     "qosrouter",
	Short:   "QoS-constrained routing optimizer comparison harness",
	Long:    "qosrouter loads a weighted topology, runs one or more stochastic path optimizers against it under a hard bandwidth constraint, and reports normalized multi-objective cost comparisons across algorithms.",
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML hyperparameter config file (defaults used if omitted)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(genCasesCmd)
	rootCmd.AddCommand(benchKPathsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInvalidInput)
	}
}

// Exit codes per spec §6.
const (
	exitSuccess          = 0
	exitInvalidInput      = 2
	exitGraphDisconnected = 3
	exitTimeoutExhausted  = 4
)

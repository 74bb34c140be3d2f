package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/netstrata/qosrouter/internal/engine"
	"github.com/netstrata/qosrouter/pkg/config"
	"github.com/netstrata/qosrouter/pkg/experiment"
	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/testcasegen"
)

var (
	runGraphDir string
	runCases    string
	runRepeats  int
	runAlgos    string
	runSeed     int64
	runTimeout  time.Duration
	runOut      string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Run the full experiment matrix against a topology",
	Long:  "run loads a topology from --graph (a directory containing nodes.csv and edges.csv), builds the test-case deck named by --cases, drives every named --algos optimizer over it, and writes report.json / comparison.csv under --out.",
	RunE:  runExperiment,
}

func init() {
	runCmd.Flags().StringVar(&runGraphDir, "graph", "", "directory containing nodes.csv and edges.csv (required)")
	runCmd.Flags().StringVar(&runCases, "cases", "predefined", `"predefined" for the 25-scenario deck, or an integer N for N random cases`)
	runCmd.Flags().IntVar(&runRepeats, "repeats", 0, "repeats per (case, algorithm) cell; 0 keeps the config default")
	runCmd.Flags().StringVar(&runAlgos, "algos", "GA,ACO,PSO,SA,QL,SARSA", "comma-separated list of algorithms to run")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "master RNG seed; 0 keeps the config default")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "per-cell wall-clock timeout; 0 disables cancellation")
	runCmd.Flags().StringVar(&runOut, "out", ".", "output directory for report.json and comparison.csv")
	runCmd.MarkFlagRequired("graph")
}

func runExperiment(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInvalidInput)
	}
	if runRepeats > 0 {
		cfg.Engine.NRepeats = runRepeats
	}
	if runSeed != 0 {
		cfg.Engine.MasterSeed = runSeed
	}

	g, err := loadGraphDir(runGraphDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInvalidInput)
	}

	if !g.Connected() {
		fmt.Fprintf(os.Stderr, "qosrouter: graph is disconnected (%d nodes, %d edges)\n", g.NodeCount(), g.EdgeCount())
		os.Exit(exitGraphDisconnected)
	}

	eng, err := engine.New(g, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInvalidInput)
	}

	algoNames := splitCommaList(runAlgos)
	for _, name := range algoNames {
		if _, ok := eng.Registry()[name]; !ok {
			fmt.Fprintf(os.Stderr, "qosrouter: unknown algorithm %q\n", name)
			os.Exit(exitInvalidInput)
		}
	}

	cases, err := resolveCases(eng, runCases)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInvalidInput)
	}

	report, err := eng.RunExperiment(cases, algoNames, runTimeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInvalidInput)
	}

	if err := writeReport(runOut, report); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitInvalidInput)
	}

	if runTimeout > 0 && timeoutRate(report) >= 0.5 {
		fmt.Fprintf(os.Stderr, "qosrouter: timed out on %.0f%% of cells (threshold 50%%)\n", timeoutRate(report)*100)
		os.Exit(exitTimeoutExhausted)
	}

	fmt.Printf("qosrouter: wrote report for %d cases x %d algorithms to %s\n", report.NTestCases, len(algoNames), runOut)
	return nil
}

// resolveCases builds the test-case deck named by the --cases flag: the
// literal "predefined" for the 25-scenario deck, or an integer N for a deck
// of N random cases (without the predefined ones).
func resolveCases(eng *engine.Engine, spec string) ([]testcasegen.TestCase, error) {
	if spec == "predefined" || spec == "" {
		return eng.PredefinedCases(), nil
	}
	n, err := strconv.Atoi(spec)
	if err != nil {
		return nil, fmt.Errorf("qosrouter: --cases must be \"predefined\" or an integer, got %q", spec)
	}
	if n <= 0 {
		return nil, fmt.Errorf("qosrouter: --cases integer must be positive, got %d", n)
	}
	return eng.GeneratedCases(n), nil
}

func timeoutRate(report *experiment.Report) float64 {
	total, timedOut := 0, 0
	for _, sc := range report.ScenarioResults {
		for _, rec := range sc.Repeats {
			total++
			if rec.FailureReason == "TIMEOUT" {
				timedOut++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(timedOut) / float64(total)
}

func writeReport(outDir string, report *experiment.Report) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("qosrouter: creating output directory: %w", err)
	}

	jsonPath := filepath.Join(outDir, "report.json")
	jf, err := os.Create(jsonPath)
	if err != nil {
		return fmt.Errorf("qosrouter: creating %s: %w", jsonPath, err)
	}
	defer jf.Close()
	if err := experiment.WriteJSON(jf, report); err != nil {
		return fmt.Errorf("qosrouter: writing %s: %w", jsonPath, err)
	}

	csvPath := filepath.Join(outDir, "comparison.csv")
	cf, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("qosrouter: creating %s: %w", csvPath, err)
	}
	defer cf.Close()
	if err := experiment.WriteComparisonCSV(cf, report); err != nil {
		return fmt.Errorf("qosrouter: writing %s: %w", csvPath, err)
	}
	return nil
}

// loadGraphDir builds a Graph from <dir>/nodes.csv and <dir>/edges.csv.
func loadGraphDir(dir string) (*graph.Graph, error) {
	g := graph.New()

	nodesPath := filepath.Join(dir, "nodes.csv")
	nf, err := os.Open(nodesPath)
	if err != nil {
		return nil, fmt.Errorf("qosrouter: opening %s: %w", nodesPath, err)
	}
	defer nf.Close()
	if err := graph.LoadNodesCSV(g, nf); err != nil {
		return nil, err
	}

	edgesPath := filepath.Join(dir, "edges.csv")
	ef, err := os.Open(edgesPath)
	if err != nil {
		return nil, fmt.Errorf("qosrouter: opening %s: %w", edgesPath, err)
	}
	defer ef.Close()
	if err := graph.LoadEdgesCSV(g, ef); err != nil {
		return nil, err
	}

	return g, nil
}

func splitCommaList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

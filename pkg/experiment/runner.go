// Package experiment implements the (test case × algorithm × repeat) runner
// of spec §4.9: it drives every optimizer over every case for N_repeats
// deterministic seeds, aggregates per-cell statistics with gonum/stat,
// ranks algorithms with an explicit tie-break, and tabulates the failure
// taxonomy.
package experiment

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/netstrata/qosrouter/pkg/graph"
	"github.com/netstrata/qosrouter/pkg/optimize"
	"github.com/netstrata/qosrouter/pkg/pathutil"
	"github.com/netstrata/qosrouter/pkg/testcasegen"
)

// CellRecord is one (case, algorithm, repeat) observation, per spec §4.9.
type CellRecord struct {
	CaseID           string  `json:"case_id"`
	Algorithm        string  `json:"algorithm"`
	Seed             int64   `json:"seed"`
	Success          bool    `json:"success"`
	MinBandwidth     float64 `json:"min_bandwidth"`
	Cost             float64 `json:"cost"`
	TotalDelay       float64 `json:"total_delay"`
	TotalReliability float64 `json:"total_reliability"`
	ResourceCost     float64 `json:"resource_cost"`
	TimeMs           float64 `json:"time_ms"`
	FailureReason    string  `json:"failure_reason,omitempty"`
}

// ScenarioResult is the aggregate over one (case, algorithm) cell.
type ScenarioResult struct {
	CaseID                    string       `json:"case_id"`
	Algorithm                 string       `json:"algorithm"`
	Repeats                   []CellRecord `json:"repeats"`
	SuccessRate               float64      `json:"success_rate"`
	BandwidthSatisfactionRate float64      `json:"bandwidth_satisfaction_rate"`
	MeanCost                  float64      `json:"mean_cost"`
	StdCost                   float64      `json:"std_cost"`
	MinCost                   float64      `json:"min_cost"`
	MaxCost                   float64      `json:"max_cost"`
	MeanTimeMs                float64      `json:"mean_time_ms"`
	StdTimeMs                 float64      `json:"std_time_ms"`
	MinTimeMs                 float64      `json:"min_time_ms"`
	MaxTimeMs                 float64      `json:"max_time_ms"`
	BestCost                  float64      `json:"best_cost"`
	BestSeed                  int64        `json:"best_seed"`
}

// ComparisonRow is one line of the §6 comparison_table, aggregated across
// every scenario for a single algorithm.
type ComparisonRow struct {
	Algorithm                 string  `json:"algorithm"`
	SuccessRate               float64 `json:"success_rate"`
	BandwidthSatisfactionRate float64 `json:"bandwidth_satisfaction_rate"`
	OverallAvgCost            float64 `json:"overall_avg_cost"`
	OverallAvgTimeMs          float64 `json:"overall_avg_time_ms"`
	BestCost                  float64 `json:"best_cost"`
	BestSeed                  int64   `json:"best_seed"`
}

// RankingEntry counts how often an algorithm placed 1st/2nd/3rd by mean
// cost across scenarios.
type RankingEntry struct {
	Algorithm          string `json:"algorithm"`
	FirstPlaceCount    int    `json:"first_place_count"`
	SecondPlaceCount   int    `json:"second_place_count"`
	ThirdPlaceCount    int    `json:"third_place_count"`
}

// FailureDetail is one (reason, algorithm) breakdown line of the failure
// report.
type FailureDetail struct {
	Reason    string `json:"reason"`
	Algorithm string `json:"algorithm"`
	Count     int    `json:"count"`
}

// FailureReport groups failures by reason and algorithm, per spec §4.9.
type FailureReport struct {
	TotalFailures int             `json:"total_failures"`
	Details       []FailureDetail `json:"details"`
}

// Report is the full ExperimentReport of spec §6.
type Report struct {
	Timestamp       time.Time         `json:"timestamp"`
	NTestCases      int               `json:"n_test_cases"`
	NRepeats        int               `json:"n_repeats"`
	TotalTimeSec    float64           `json:"total_time_sec"`
	ComparisonTable []ComparisonRow   `json:"comparison_table"`
	ScenarioResults []ScenarioResult  `json:"scenario_results"`
	RankingSummary  []RankingEntry    `json:"ranking_summary"`
	FailureReport   FailureReport     `json:"failure_report"`
}

// Runner drives the experiment matrix described in spec §4.9/§5.
type Runner struct {
	Graph    *graph.Graph
	Registry optimize.Registry
	Logger   *zap.Logger
	Metrics  *PromMetrics // optional, nil is a no-op
	Cache    *pathutil.Cache // optional, nil disables path-lookup caching
}

// NewRunner constructs a Runner; a nil logger defaults to zap.NewNop(). Use
// the Cache field to wire in the process-wide shortest-path cache so the
// experiment matrix's heuristic-seed lookups (spec §5/§9) share it across
// every cell rather than recomputing Dijkstra from scratch each time.
func NewRunner(g *graph.Graph, registry optimize.Registry, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Graph: g, Registry: registry, Logger: logger}
}

// Run executes every (case, algorithm) cell n_repeats times, per spec §4.9.
// A zero timeout disables per-cell cancellation.
func (r *Runner) Run(cases []testcasegen.TestCase, algoNames []string, nRepeats int, masterSeed int64, timeout time.Duration) (*Report, error) {
	start := time.Now()

	algos, err := r.Registry.Select(algoNames)
	if err != nil {
		return nil, fmt.Errorf("experiment: %w", err)
	}

	var scenarios []ScenarioResult
	for ci, tc := range cases {
		for ai, algo := range algos {
			sr := r.runCell(tc, algo, ci, ai, nRepeats, masterSeed, timeout)
			scenarios = append(scenarios, sr)
			r.Logger.Debug("cell complete",
				zap.String("case", tc.ID),
				zap.String("algorithm", algo.Name()),
				zap.Float64("mean_cost", sr.MeanCost),
				zap.Float64("success_rate", sr.SuccessRate),
			)
		}
	}

	report := &Report{
		Timestamp:       time.Now(),
		NTestCases:      len(cases),
		NRepeats:        nRepeats,
		TotalTimeSec:    time.Since(start).Seconds(),
		ScenarioResults: scenarios,
		ComparisonTable: buildComparisonTable(scenarios),
		RankingSummary:  buildRanking(scenarios),
		FailureReport:   buildFailureReport(scenarios),
	}
	return report, nil
}

// runCell executes one (case, algorithm) cell for n_repeats deterministic
// seeds derived from (master_seed, case_index, algorithm_index, repeat),
// per spec §5's per-task seeding discipline.
func (r *Runner) runCell(tc testcasegen.TestCase, algo optimize.Optimizer, caseIdx, algoIdx, nRepeats int, masterSeed int64, timeout time.Duration) ScenarioResult {
	cellSeed := optimize.DeriveSeed(masterSeed, caseIdx, algoIdx)

	records := make([]CellRecord, 0, nRepeats)
	for rep := 0; rep < nRepeats; rep++ {
		seed := optimize.DeriveSeed(cellSeed, rep, 0)

		var deadline time.Time
		if timeout > 0 {
			deadline = time.Now().Add(timeout)
		}
		req := optimize.Request{
			Graph:       r.Graph,
			Source:      tc.Source,
			Destination: tc.Destination,
			Weights:     tc.Weights,
			Bandwidth:   tc.Bandwidth,
			Seed:        seed,
			Cache:       r.Cache,
		}
		if !deadline.IsZero() {
			req.Cancel = func() bool { return time.Now().After(deadline) }
		}

		result, err := algo.Optimize(req)
		rec := CellRecord{
			CaseID:    tc.ID,
			Algorithm: algo.Name(),
			Seed:      seed,
			TimeMs:    result.ComputationTimeMs,
		}
		if err != nil {
			r.Logger.Error("optimizer call aborted",
				zap.String("algorithm", algo.Name()),
				zap.String("case", tc.ID),
				zap.Error(err),
			)
			rec.Success = false
			rec.FailureReason = "ALGORITHM_ERROR"
			records = append(records, rec)
			r.Metrics.recordFailure(algo.Name(), "ALGORITHM_ERROR")
			continue
		}

		rec.Success = result.Success
		rec.MinBandwidth = result.MinBandwidth
		rec.Cost = result.Fitness
		rec.TotalDelay = result.TotalDelay
		rec.TotalReliability = result.TotalReliability
		rec.ResourceCost = result.ResourceCost
		rec.FailureReason = string(result.FailureReason)
		records = append(records, rec)

		r.Metrics.recordCell(algo.Name(), result.Success, result.Fitness)
		if !result.Success {
			r.Metrics.recordFailure(algo.Name(), string(result.FailureReason))
		}
	}

	return aggregate(tc.ID, algo.Name(), records)
}

// aggregate computes the per-cell statistics of spec §4.9. Cost statistics
// are computed over successful repeats only (a failed repeat carries no
// path and records cost 0, which would otherwise drag the mean down);
// time_ms statistics are
// computed over every repeat, since computation time is meaningful even on
// failure.
func aggregate(caseID, algorithm string, records []CellRecord) ScenarioResult {
	sr := ScenarioResult{CaseID: caseID, Algorithm: algorithm, Repeats: records}

	var costs, times []float64
	successCount := 0
	bandwidthOK := 0
	bestCost := math.Inf(1)
	var bestSeed int64

	for _, rec := range records {
		times = append(times, rec.TimeMs)
		if rec.Success {
			successCount++
			costs = append(costs, rec.Cost)
			bandwidthOK++
			if rec.Cost < bestCost {
				bestCost = rec.Cost
				bestSeed = rec.Seed
			}
		}
	}

	n := float64(len(records))
	if n > 0 {
		sr.SuccessRate = float64(successCount) / n
		sr.BandwidthSatisfactionRate = float64(bandwidthOK) / n
		sr.MeanTimeMs, sr.StdTimeMs = stat.MeanStdDev(times, nil)
		sr.MinTimeMs, sr.MaxTimeMs = minMax(times)
	}
	if len(costs) > 0 {
		sr.MeanCost, sr.StdCost = stat.MeanStdDev(costs, nil)
		sr.MinCost, sr.MaxCost = minMax(costs)
		sr.BestCost = bestCost
		sr.BestSeed = bestSeed
	} else {
		sr.MeanCost = math.Inf(1)
		sr.BestCost = math.Inf(1)
	}

	return sr
}

func minMax(xs []float64) (min, max float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	min, max = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	return min, max
}

// buildComparisonTable aggregates every scenario result into one row per
// algorithm, per spec §6's comparison_table columns.
func buildComparisonTable(scenarios []ScenarioResult) []ComparisonRow {
	type acc struct {
		successRates, bwRates, costs, times []float64
		bestCost                            float64
		bestSeed                            int64
	}
	byAlgo := make(map[string]*acc)
	var order []string

	for _, sr := range scenarios {
		a, ok := byAlgo[sr.Algorithm]
		if !ok {
			a = &acc{bestCost: math.Inf(1)}
			byAlgo[sr.Algorithm] = a
			order = append(order, sr.Algorithm)
		}
		a.successRates = append(a.successRates, sr.SuccessRate)
		a.bwRates = append(a.bwRates, sr.BandwidthSatisfactionRate)
		if !math.IsInf(sr.MeanCost, 1) {
			a.costs = append(a.costs, sr.MeanCost)
		}
		a.times = append(a.times, sr.MeanTimeMs)
		if sr.BestCost < a.bestCost {
			a.bestCost = sr.BestCost
			a.bestSeed = sr.BestSeed
		}
	}

	sort.Strings(order)
	rows := make([]ComparisonRow, 0, len(order))
	for _, name := range order {
		a := byAlgo[name]
		row := ComparisonRow{
			Algorithm:                 name,
			SuccessRate:               mean(a.successRates),
			BandwidthSatisfactionRate: mean(a.bwRates),
			OverallAvgCost:            mean(a.costs),
			OverallAvgTimeMs:          mean(a.times),
			BestCost:                  a.bestCost,
			BestSeed:                  a.bestSeed,
		}
		rows = append(rows, row)
	}
	return rows
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// buildRanking orders algorithms per scenario by mean cost ascending, with
// the tie-break the Open Question in spec §9 asks for: lower mean time_ms,
// then alphabetical algorithm name.
func buildRanking(scenarios []ScenarioResult) []RankingEntry {
	byCase := make(map[string][]ScenarioResult)
	var caseOrder []string
	for _, sr := range scenarios {
		if _, ok := byCase[sr.CaseID]; !ok {
			caseOrder = append(caseOrder, sr.CaseID)
		}
		byCase[sr.CaseID] = append(byCase[sr.CaseID], sr)
	}

	counts := make(map[string]*RankingEntry)
	var order []string
	ensure := func(name string) *RankingEntry {
		e, ok := counts[name]
		if !ok {
			e = &RankingEntry{Algorithm: name}
			counts[name] = e
			order = append(order, name)
		}
		return e
	}

	for _, caseID := range caseOrder {
		rows := byCase[caseID]
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].MeanCost != rows[j].MeanCost {
				return rows[i].MeanCost < rows[j].MeanCost
			}
			if rows[i].MeanTimeMs != rows[j].MeanTimeMs {
				return rows[i].MeanTimeMs < rows[j].MeanTimeMs
			}
			return rows[i].Algorithm < rows[j].Algorithm
		})
		for place, sr := range rows {
			e := ensure(sr.Algorithm)
			switch place {
			case 0:
				e.FirstPlaceCount++
			case 1:
				e.SecondPlaceCount++
			case 2:
				e.ThirdPlaceCount++
			}
		}
	}

	sort.Strings(order)
	out := make([]RankingEntry, 0, len(order))
	for _, name := range order {
		out = append(out, *counts[name])
	}
	return out
}

// buildFailureReport groups failed repeats by (reason, algorithm), per
// spec §4.9.
func buildFailureReport(scenarios []ScenarioResult) FailureReport {
	type key struct{ reason, algo string }
	counts := make(map[key]int)
	var order []key
	total := 0

	for _, sr := range scenarios {
		for _, rec := range sr.Repeats {
			if rec.Success {
				continue
			}
			reason := rec.FailureReason
			if reason == "" {
				reason = "ALGORITHM_ERROR"
			}
			k := key{reason, rec.Algorithm}
			if _, ok := counts[k]; !ok {
				order = append(order, k)
			}
			counts[k]++
			total++
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].reason != order[j].reason {
			return order[i].reason < order[j].reason
		}
		return order[i].algo < order[j].algo
	})

	details := make([]FailureDetail, 0, len(order))
	for _, k := range order {
		details = append(details, FailureDetail{Reason: k.reason, Algorithm: k.algo, Count: counts[k]})
	}

	return FailureReport{TotalFailures: total, Details: details}
}

// WriteJSON serializes the report exactly per spec §6's key names.
func WriteJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteComparisonCSV writes the comparison table in the column order spec
// §6 names: algorithm, success_rate, bandwidth_satisfaction_rate,
// overall_avg_cost, overall_avg_time_ms, best_cost, best_seed.
func WriteComparisonCSV(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"algorithm", "success_rate", "bandwidth_satisfaction_rate", "overall_avg_cost", "overall_avg_time_ms", "best_cost", "best_seed"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range report.ComparisonTable {
		record := []string{
			row.Algorithm,
			fmt.Sprintf("%.6f", row.SuccessRate),
			fmt.Sprintf("%.6f", row.BandwidthSatisfactionRate),
			fmt.Sprintf("%.6f", row.OverallAvgCost),
			fmt.Sprintf("%.6f", row.OverallAvgTimeMs),
			fmt.Sprintf("%.6f", row.BestCost),
			fmt.Sprintf("%d", row.BestSeed),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// PromMetrics is the optional prometheus wiring of the DOMAIN STACK: a nil
// *PromMetrics is a no-op, matching the teacher's optional metrics
// collector pattern.
type PromMetrics struct {
	CellsRun    *prometheus.CounterVec
	Failures    *prometheus.CounterVec
	CostByAlgo  *prometheus.HistogramVec
}

// NewPromMetrics registers the experiment counters/histograms on reg and
// returns the wired PromMetrics. Pass a nil *Runner.Metrics to disable.
func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	m := &PromMetrics{
		CellsRun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qosrouter_experiment_cells_total",
			Help: "Number of (case, algorithm, repeat) cells executed.",
		}, []string{"algorithm"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qosrouter_experiment_failures_total",
			Help: "Number of failed cells by reason.",
		}, []string{"algorithm", "reason"}),
		CostByAlgo: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qosrouter_experiment_cost",
			Help:    "Distribution of successful cell cost by algorithm.",
			Buckets: prometheus.DefBuckets,
		}, []string{"algorithm"}),
	}
	reg.MustRegister(m.CellsRun, m.Failures, m.CostByAlgo)
	return m
}

func (m *PromMetrics) recordCell(algo string, success bool, cost float64) {
	if m == nil {
		return
	}
	m.CellsRun.WithLabelValues(algo).Inc()
	if success {
		m.CostByAlgo.WithLabelValues(algo).Observe(cost)
	}
}

func (m *PromMetrics) recordFailure(algo, reason string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(algo, reason).Inc()
}

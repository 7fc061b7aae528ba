package cmd

import (
	gocontext "context"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"lidarpt/config"
	runctx "lidarpt/context"
	"lidarpt/decode"
	"lidarpt/eventgraph"
	"lidarpt/executor"
	"lidarpt/graph"
	"lidarpt/ioformats"
	"lidarpt/milp"
	"lidarpt/model"
	"lidarpt/preprocess"
	"lidarpt/solver"
)

var (
	planNetworkPath  string
	planRequestsPath string
	planConfigPath   string
	planOutDir       string
	planHistoryPath  string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run the full pipeline once over a static set of requests",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planNetworkPath, "network", "", "network JSON file (required)")
	planCmd.Flags().StringVar(&planRequestsPath, "requests", "", "requests CSV file (required)")
	planCmd.Flags().StringVar(&planConfigPath, "config", "", "planning config JSON file (required)")
	planCmd.Flags().StringVar(&planOutDir, "out", "", "output directory (required)")
	planCmd.Flags().StringVar(&planHistoryPath, "history", "", "optional sqlite history store to append this run's record to")
	for _, name := range []string{"network", "requests", "config", "out"} {
		_ = planCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	logger := newRunLogger(runID)
	start := time.Now()

	cfg, err := config.Load(planConfigPath)
	if err != nil {
		return errors.Wrap(err, "loading config")
	}
	telemetry := config.NewTelemetry()

	networkFile, err := os.Open(planNetworkPath)
	if err != nil {
		return errors.Wrap(err, "opening network file")
	}
	defer networkFile.Close()
	network, err := ioformats.LoadNetwork(networkFile, cfg.CapacityPerLine)
	if err != nil {
		return errors.Wrap(err, "loading network")
	}
	logger.Printf("loaded network: %d stops, %d lines, %d buses", len(network.Stops), len(network.Lines), len(network.Buses))

	lineGraph := graph.NewLineGraph(network.Lines, cfg.KmPerUnit, cfg.AverageKmh)

	model.ResetSplitIDs()
	eventgraph.ResetEventIDs()

	requestsFile, err := os.Open(planRequestsPath)
	if err != nil {
		return errors.Wrap(err, "opening requests file")
	}
	defer requestsFile.Close()
	requests, err := ioformats.LoadRequests(requestsFile, lineGraph, network.Lines, network.Stops, cfg)
	if err != nil {
		return errors.Wrap(err, "loading requests")
	}
	logger.Printf("loaded %d requests", len(requests))

	planner := func(active []*model.Request) ([]*model.Route, error) {
		return planRoutes(active, network, cfg, telemetry, logger)
	}
	validator := func(routes []*model.Route) error {
		return executor.New(network.Buses, requests, cfg).ValidateRoutes(routes)
	}

	ctx := runctx.NewStatic(requests, planner, validator)
	routes, err := ctx.Start()
	if err != nil {
		return errors.Wrap(err, "running static context")
	}

	report := ioformats.BuildReport(routes, requests, cfg, telemetry)
	logger.Printf("accepted %d of %d requests, %.3f km travelled",
		report.Overall.RequestsAccepted, len(requests), report.Overall.KmTravelledTotal)

	if err := os.MkdirAll(planOutDir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	if err := writePlanOutputs(planOutDir, network, routes, report, cfg); err != nil {
		return err
	}

	if planHistoryPath != "" {
		store, err := ioformats.OpenHistoryStore(planHistoryPath)
		if err != nil {
			return errors.Wrap(err, "opening history store")
		}
		defer store.Close()
		record := ioformats.RunRecord{
			RunID:            runID,
			NetworkName:      filepath.Base(planNetworkPath),
			RequestsAccepted: report.Overall.RequestsAccepted,
			RequestsDenied:   report.Overall.RequestsDenied,
			KmTravelledTotal: report.Overall.KmTravelledTotal,
			IntegralityGap:   telemetry.IntegralityGapSecond,
			ElapsedSeconds:   time.Since(start).Seconds(),
		}
		if err := store.Append(record); err != nil {
			return errors.Wrap(err, "appending run record")
		}
	}

	logger.Printf("run complete in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// planRoutes runs the two-phase MILP solve (maximize acceptance, then
// minimize distance subject to that acceptance count) and decodes the
// winning assignment into routes, using SPEC_FULL.md 4.5's two-phase mode
// with a 900s budget for phase one and 600s plus phase one's unused time for
// phase two.
func planRoutes(requests []*model.Request, network *model.Network, cfg config.PlanningConfig, telemetry *config.Telemetry, logger *log.Logger) ([]*model.Route, error) {
	splits := flattenSplits(requests)
	eg, err := eventgraph.BuildEventGraph(network.Lines, splits, cfg, telemetry)
	if err != nil {
		return nil, errors.Wrap(err, "building event graph")
	}
	logger.Printf("event graph: %d nodes, %d edges, %d splits", telemetry.EventGraphNodes, telemetry.EventGraphEdges, telemetry.NumberOfSplits)

	problem := milp.BuildProblem(eg, requests, network.Buses, network.Lines, cfg, true)

	phaseOneBudget := 900 * time.Second
	phaseOne := solver.NewBranchAndBound()
	if _, err := problem.LoadInto(phaseOne); err != nil {
		return nil, errors.Wrap(err, "loading phase-one problem into solver")
	}
	phaseOne.SetParameters(solver.Parameters{TimeLimitSeconds: phaseOneBudget.Seconds(), Threads: runtime.NumCPU()})

	phaseOneStart := time.Now()
	phaseOneCtx, cancelOne := gocontext.WithTimeout(gocontext.Background(), phaseOneBudget)
	defer cancelOne()
	if _, err := phaseOne.Solve(phaseOneCtx); err != nil {
		return nil, errors.Wrap(err, "solving phase one")
	}
	telemetry.IntegralityGapFirst = phaseOne.Gap()
	telemetry.RecordPhase("phase_one", time.Since(phaseOneStart))
	logger.Printf("phase one: accepted %.0f requests, gap %.4f", phaseOne.Objective(), telemetry.IntegralityGapFirst)

	active := activeRequests(requests)
	acceptedCount := math.Round(phaseOne.Objective())
	milp.BuildPhaseTwo(problem, active, acceptedCount, eg, cfg)

	remaining := phaseOneBudget - time.Since(phaseOneStart)
	if remaining < 0 {
		remaining = 0
	}
	phaseTwoBudget := 600*time.Second + remaining

	phaseTwo := solver.NewBranchAndBound()
	refsTwo, err := problem.LoadInto(phaseTwo)
	if err != nil {
		return nil, errors.Wrap(err, "loading phase-two problem into solver")
	}
	phaseTwo.SetParameters(solver.Parameters{TimeLimitSeconds: phaseTwoBudget.Seconds(), Threads: runtime.NumCPU()})

	phaseTwoStart := time.Now()
	phaseTwoCtx, cancelTwo := gocontext.WithTimeout(gocontext.Background(), phaseTwoBudget)
	defer cancelTwo()
	if _, err := phaseTwo.Solve(phaseTwoCtx); err != nil {
		return nil, errors.Wrap(err, "solving phase two")
	}
	telemetry.IntegralityGapSecond = phaseTwo.Gap()
	telemetry.RecordPhase("phase_two", time.Since(phaseTwoStart))
	logger.Printf("phase two: distance %.3f, gap %.4f", phaseTwo.Objective(), telemetry.IntegralityGapSecond)

	return decode.DecodePlan(eg, network.Lines, network.Buses, phaseTwo, refsTwo, cfg), nil
}

// activeRequests mirrors milp.activeRequests, which is unexported: only
// non-denied requests with at least one enumerated route option are ever
// handed to the MIP builder.
func activeRequests(requests []*model.Request) []*model.Request {
	out := make([]*model.Request, 0, len(requests))
	for _, r := range requests {
		if !r.Denied && len(r.RouteOptions) > 0 {
			out = append(out, r)
		}
	}
	return out
}

// flattenSplits collects every SplitRequest leg across every request's
// route options, sorted by request id then option index so the event
// graph is built in a deterministic order regardless of map iteration.
func flattenSplits(requests []*model.Request) []*model.SplitRequest {
	sorted := append([]*model.Request(nil), requests...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var out []*model.SplitRequest
	for _, req := range sorted {
		for _, key := range preprocess.SortedOptionKeys(req.RouteOptions) {
			out = append(out, req.RouteOptions[key]...)
		}
	}
	return out
}

func writePlanOutputs(outDir string, network *model.Network, routes []*model.Route, report ioformats.Report, cfg config.PlanningConfig) error {
	for _, route := range routes {
		path := filepath.Join(outDir, "bus_"+strconv.Itoa(route.Bus.ID)+".csv")
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrapf(err, "creating %s", path)
		}
		err = ioformats.WriteBusRoute(f, route)
		f.Close()
		if err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
	}

	if err := writeToFile(filepath.Join(outDir, "requests_out.csv"), func(f *os.File) error {
		return ioformats.WriteRequestsReport(f, report.Requests)
	}); err != nil {
		return err
	}

	if err := writeToFile(filepath.Join(outDir, "overall_out.csv"), func(f *os.File) error {
		return ioformats.WriteOverallReport(f, report.Overall)
	}); err != nil {
		return err
	}

	vizPlan := ioformats.BuildVizPlan(network, routes, cfg.KmPerUnit)
	if err := writeToFile(filepath.Join(outDir, "plan.viz.json"), func(f *os.File) error {
		return ioformats.WriteVizSidecar(f, vizPlan)
	}); err != nil {
		return err
	}

	return nil
}

func writeToFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()
	if err := write(f); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

func newRunLogger(runID string) *log.Logger {
	return log.New(os.Stderr, "["+runID+"] ", log.LstdFlags)
}

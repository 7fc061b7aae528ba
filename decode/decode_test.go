package decode

import (
	"context"
	"testing"

	"lidarpt/config"
	"lidarpt/eventgraph"
	"lidarpt/milp"
	"lidarpt/model"
	"lidarpt/solver"
	"lidarpt/timeutil"
)

func testConfig(t *testing.T) config.PlanningConfig {
	t.Helper()
	expr, err := config.ParseMaxDelayExpr("x/2")
	if err != nil {
		t.Fatalf("parsing max delay expr: %v", err)
	}
	return config.PlanningConfig{
		AverageKmh:        30.0,
		KmPerUnit:         1.0,
		MaxDelayEquation:  expr,
		TransferSeconds:   120,
		TimeWindowSeconds: 600,
	}
}

func TestDecodePlanBuildsOneStopRouteForIdleBus(t *testing.T) {
	model.ResetSplitIDs()
	eventgraph.ResetEventIDs()
	cfg := testConfig(t)

	a := model.NewStop(1, 0, 0)
	b := model.NewStop(2, 10, 0)
	start, _ := timeutil.New(0, 0, 0)
	end, _ := timeutil.New(23, 59, 0)
	line := &model.Line{ID: 1, Stops: []*model.Stop{a, b}, Depot: a, Capacity: 4, StartTime: start, EndTime: end}
	lines := map[int]*model.Line{1: line}
	buses := []*model.Bus{{ID: 1, Line: line}}

	g, err := eventgraph.BuildEventGraph(lines, nil, cfg, config.NewTelemetry())
	if err != nil {
		t.Fatalf("BuildEventGraph: %v", err)
	}

	p := milp.NewProblem(milp.Minimize)
	bb := solver.NewBranchAndBound()
	refs, err := p.LoadInto(bb)
	if err != nil {
		t.Fatalf("LoadInto: %v", err)
	}

	routes := DecodePlan(g, lines, buses, bb, refs, cfg)
	if len(routes) != 1 {
		t.Fatalf("expected one route, got %d", len(routes))
	}
	if len(routes[0].StopList) != 1 {
		t.Fatalf("expected idle bus to produce a single stop-in-place, got %d stops", len(routes[0].StopList))
	}
	stop := routes[0].StopList[0]
	if stop.ArrivalTime != line.StartTime || stop.DepartTime != line.EndTime {
		t.Fatal("expected idle bus to span the full service window at its depot")
	}
}

func TestDecodePlanRoutesSingleRequest(t *testing.T) {
	model.ResetSplitIDs()
	eventgraph.ResetEventIDs()
	cfg := testConfig(t)

	a := model.NewStop(1, 0, 0)
	b := model.NewStop(2, 10, 0)
	start, _ := timeutil.New(0, 0, 0)
	end, _ := timeutil.New(23, 59, 0)
	line := &model.Line{ID: 1, Stops: []*model.Stop{a, b}, Depot: a, Capacity: 4, StartTime: start, EndTime: end}
	lines := map[int]*model.Line{1: line}
	buses := []*model.Bus{{ID: 1, Line: line}}

	earliestStart, _ := timeutil.New(8, 0, 0)
	parent := &model.Request{ID: 1, GroupSize: 1, EarliestStart: earliestStart, LatestStart: earliestStart.Add(600)}
	parent.EarliestArrival = earliestStart.Add(1200)
	parent.LatestArrival = earliestStart.Add(2400)
	sr := model.NewSplitRequest(parent, line, a, b)
	sr.WidenStart(parent.EarliestStart, parent.LatestStart)
	sr.WidenArrival(parent.EarliestArrival, parent.LatestArrival)
	parent.RouteOptions = map[int][]*model.SplitRequest{0: {sr}}
	requests := []*model.Request{parent}

	g, err := eventgraph.BuildEventGraph(lines, []*model.SplitRequest{sr}, cfg, config.NewTelemetry())
	if err != nil {
		t.Fatalf("BuildEventGraph: %v", err)
	}

	p := milp.BuildProblem(g, requests, buses, lines, cfg, true)
	bb := solver.NewBranchAndBound()
	bb.SetParameters(solver.Parameters{Threads: 2, TimeLimitSeconds: 5})
	refs, err := p.LoadInto(bb)
	if err != nil {
		t.Fatalf("LoadInto: %v", err)
	}
	if _, err := bb.Solve(context.Background()); err != nil {
		t.Fatalf("Solve: %v", err)
	}

	routes := DecodePlan(g, lines, buses, bb, refs, cfg)
	if len(routes) != 1 {
		t.Fatalf("expected one route, got %d", len(routes))
	}
}

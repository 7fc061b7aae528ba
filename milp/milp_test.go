package milp

import (
	"testing"

	"lidarpt/config"
	"lidarpt/eventgraph"
	"lidarpt/model"
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

func singleRequestFixture(t *testing.T) (*eventgraph.Graph, []*model.Request, []*model.Bus, map[int]*model.Line) {
	t.Helper()
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

	g, err := eventgraph.BuildEventGraph(lines, []*model.SplitRequest{sr}, cfg, config.NewTelemetry())
	if err != nil {
		t.Fatalf("BuildEventGraph: %v", err)
	}
	return g, []*model.Request{parent}, buses, lines
}

func TestBuildProblemCreatesCoreVariables(t *testing.T) {
	g, requests, buses, lines := singleRequestFixture(t)
	cfg := testConfig(t)

	p := BuildProblem(g, requests, buses, lines, cfg, false)

	if !p.HasVariable(AcceptanceVar(1)) {
		t.Fatal("expected acceptance variable q_1")
	}
	if !p.HasVariable(OptionVar(1, 0)) {
		t.Fatal("expected option variable z_1_0")
	}
	sr := requests[0].RouteOptions[0][0]
	if !p.HasVariable(DepartPlusVar(sr.SplitID)) || !p.HasVariable(DepartMinusVar(sr.SplitID)) {
		t.Fatal("expected departure-time variables for the split request")
	}
	if len(p.Constraints) == 0 {
		t.Fatal("expected at least one constraint")
	}
	if len(p.Objective) == 0 {
		t.Fatal("expected a non-empty objective")
	}
}

func TestBuildProblemMultiObjectiveMaximizesAcceptance(t *testing.T) {
	g, requests, buses, lines := singleRequestFixture(t)
	cfg := testConfig(t)

	p := BuildProblem(g, requests, buses, lines, cfg, true)
	if p.ObjSense != Maximize {
		t.Fatal("phase one must maximize")
	}
	found := false
	for _, t := range p.Objective {
		if t.Var == AcceptanceVar(1) && t.Coeff == 1 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected phase one objective to credit q_1")
	}
}

func TestBuildPhaseTwoSwitchesToDistanceMinimization(t *testing.T) {
	g, requests, buses, lines := singleRequestFixture(t)
	cfg := testConfig(t)

	p := BuildProblem(g, requests, buses, lines, cfg, true)
	before := len(p.Constraints)
	BuildPhaseTwo(p, requests, 1, g, cfg)

	if p.ObjSense != Minimize {
		t.Fatal("phase two must minimize")
	}
	if len(p.Constraints) != before+1 {
		t.Fatal("expected phase two to add exactly one acceptance-floor constraint")
	}
	for _, term := range p.Objective {
		if term.Var == AcceptanceVar(1) {
			t.Fatal("phase two objective must not reference acceptance variables")
		}
	}
}

func TestAcceptanceIdentityConstraintLinksOptionsToAcceptance(t *testing.T) {
	g, requests, buses, lines := singleRequestFixture(t)
	cfg := testConfig(t)
	p := BuildProblem(g, requests, buses, lines, cfg, false)

	var found bool
	for _, c := range p.Constraints {
		if c.Sense != EQ || c.RHS != 0 {
			continue
		}
		hasOption, hasAcceptance := false, false
		for _, t := range c.Terms {
			if t.Var == OptionVar(1, 0) && t.Coeff == 1 {
				hasOption = true
			}
			if t.Var == AcceptanceVar(1) && t.Coeff == -1 {
				hasAcceptance = true
			}
		}
		if hasOption && hasAcceptance {
			found = true
		}
	}
	if !found {
		t.Fatal("expected z_1_0 - q_1 = 0 identity constraint")
	}
}

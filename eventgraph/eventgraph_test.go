package eventgraph

import (
	"testing"

	"lidarpt/config"
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

func TestEventBeforeAfterSets(t *testing.T) {
	a := model.NewStop(1, 0, 0)
	b := model.NewStop(2, 1, 0)
	start, _ := timeutil.New(8, 0, 0)
	end, _ := timeutil.New(9, 0, 0)
	line := &model.Line{ID: 1, Stops: []*model.Stop{a, b}, Depot: a, Capacity: 4, StartTime: start, EndTime: end}
	parent := &model.Request{ID: 1, GroupSize: 1}
	sr := model.NewSplitRequest(parent, line, a, b)
	other := model.NewSplitRequest(parent, line, a, b)

	pickUp := NewPickUpEvent(sr, map[int]*model.SplitRequest{other.SplitID: other}, start, start)
	before := pickUp.BeforeSet()
	after := pickUp.AfterSet()
	if before[sr.SplitID] {
		t.Fatal("sr should not be in its own pick-up event's before-set")
	}
	if !after[sr.SplitID] {
		t.Fatal("sr should be in its own pick-up event's after-set")
	}
	if !before[other.SplitID] || !after[other.SplitID] {
		t.Fatal("co-passenger should be in both before and after sets")
	}
}

func TestHashIntSliceDeterministicAndDistinguishesSets(t *testing.T) {
	h1 := hashIntSlice([]int{1, 2, 3})
	h2 := hashIntSlice([]int{1, 2, 3})
	if h1 != h2 {
		t.Fatal("equal slices must hash equal")
	}
	if !intSliceEqual([]int{1, 2, 3}, []int{1, 2, 3}) {
		t.Fatal("intSliceEqual should report equal slices as equal")
	}
	if intSliceEqual([]int{1, 2}, []int{1, 2, 3}) {
		t.Fatal("intSliceEqual should reject slices of different length")
	}
}

func TestBuildEventGraphSingleRequestConnected(t *testing.T) {
	model.ResetSplitIDs()
	ResetEventIDs()
	cfg := testConfig(t)

	a := model.NewStop(1, 0, 0)
	b := model.NewStop(2, 10, 0)
	start, _ := timeutil.New(0, 0, 0)
	end, _ := timeutil.New(23, 59, 0)
	line := &model.Line{ID: 1, Stops: []*model.Stop{a, b}, Depot: a, Capacity: 4, StartTime: start, EndTime: end}
	lines := map[int]*model.Line{1: line}

	earliestStart, _ := timeutil.New(8, 0, 0)
	parent := &model.Request{ID: 1, GroupSize: 1, EarliestStart: earliestStart, LatestStart: earliestStart.Add(600)}
	parent.EarliestArrival = earliestStart.Add(1200)
	parent.LatestArrival = earliestStart.Add(2400)
	sr := model.NewSplitRequest(parent, line, a, b)
	sr.WidenStart(parent.EarliestStart, parent.LatestStart)
	sr.WidenArrival(parent.EarliestArrival, parent.LatestArrival)

	telemetry := config.NewTelemetry()
	g, err := BuildEventGraph(lines, []*model.SplitRequest{sr}, cfg, telemetry)
	if err != nil {
		t.Fatalf("BuildEventGraph: %v", err)
	}
	if g.NodeCount() < 3 {
		t.Fatalf("expected at least idle+pickup+dropoff nodes, got %d", g.NodeCount())
	}
	if telemetry.EventGraphNodes != g.NodeCount() {
		t.Fatal("telemetry node count not recorded")
	}
	if len(g.PickUpEvents(sr.SplitID)) == 0 {
		t.Fatal("expected at least one pick-up event for the split request")
	}
	if len(g.DropOffEvents(sr.SplitID)) == 0 {
		t.Fatal("expected at least one drop-off event for the split request")
	}
}

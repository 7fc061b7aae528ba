package ioformats

import (
	"strings"
	"testing"

	"lidarpt/config"
	"lidarpt/model"
	"lidarpt/timeutil"
)

const sampleNetwork = `{
  "stops": [
    {"id": 1, "coordinates": [0, 0]},
    {"id": 2, "coordinates": [10, 0]}
  ],
  "lines": [
    {"id": 1, "stops": [1, 2], "depot": [0, 0], "capacity": 4, "startTime": "00:00:00", "endTime": "23:59:00"}
  ],
  "buses": [
    {"id": 1, "line": 1}
  ]
}`

func TestLoadNetworkBuildsStopsLinesAndBuses(t *testing.T) {
	net, err := LoadNetwork(strings.NewReader(sampleNetwork), nil)
	if err != nil {
		t.Fatalf("LoadNetwork: %v", err)
	}
	if len(net.Stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(net.Stops))
	}
	if len(net.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(net.Lines))
	}
	if len(net.Buses) != 1 {
		t.Fatalf("expected 1 bus, got %d", len(net.Buses))
	}
	line := net.Lines[1]
	if line.Depot != net.Stops[1] {
		t.Fatal("expected depot to resolve to the declared stop at (0,0), not a synthetic one")
	}
}

func TestLoadNetworkCreatesSyntheticDepotStop(t *testing.T) {
	const withSyntheticDepot = `{
	  "stops": [{"id": 1, "coordinates": [0, 0]}, {"id": 2, "coordinates": [10, 0]}],
	  "lines": [{"id": 1, "stops": [1, 2], "depot": [20, 20], "capacity": 4, "startTime": "00:00:00", "endTime": "23:59:00"}],
	  "buses": []
	}`
	net, err := LoadNetwork(strings.NewReader(withSyntheticDepot), nil)
	if err != nil {
		t.Fatalf("LoadNetwork: %v", err)
	}
	depot := net.Lines[1].Depot
	if depot.ID == 1 || depot.ID == 2 {
		t.Fatalf("expected a freshly assigned synthetic stop id, got %d", depot.ID)
	}
	if net.Stops[depot.ID] != depot {
		t.Fatal("synthetic depot stop should be registered under its own fresh id, not collide with a declared stop")
	}
}

func TestBuildReportComputesKmAndAcceptance(t *testing.T) {
	cfg := config.PlanningConfig{AverageKmh: 36.0, KmPerUnit: 1.0, TransferSeconds: 120}

	a := model.NewStop(1, 0, 0)
	b := model.NewStop(2, 10, 0)
	line := &model.Line{ID: 1, Stops: []*model.Stop{a, b}, Depot: a, Capacity: 4}
	bus := &model.Bus{ID: 1, Line: line}

	earliestStart, _ := timeutil.New(8, 0, 0)
	req := &model.Request{
		ID: 1, GroupSize: 1, PickUp: a, DropOff: b,
		EarliestStart: earliestStart, LatestStart: earliestStart.Add(600),
		EarliestArrival: earliestStart.Add(1000), LatestArrival: earliestStart.Add(2000),
		FastestTime: 1000, NumbTransfer: 0,
		ActualStart: earliestStart, ActualEnd: earliestStart.Add(1000), HasActualStart: true, HasActualEnd: true,
	}
	sr := model.NewSplitRequest(req, line, a, b)

	stop1 := model.NewRouteStop(bus, a, earliestStart.Sub(120), earliestStart)
	stop1.PickUp[sr.SplitID] = sr
	stop2 := model.NewRouteStop(bus, b, earliestStart.Add(1000), earliestStart.Add(1000))
	stop2.DropOff[sr.SplitID] = sr

	route := &model.Route{Bus: bus, StopList: []*model.RouteStop{stop1, stop2}}

	report := BuildReport([]*model.Route{route}, []*model.Request{req}, cfg, nil)
	if report.Overall.RequestsAccepted != 1 {
		t.Fatalf("expected 1 accepted request, got %d", report.Overall.RequestsAccepted)
	}
	if report.Overall.KmTravelledTotal != 10 {
		t.Fatalf("expected 10km travelled, got %v", report.Overall.KmTravelledTotal)
	}
	if report.Overall.KmEmptyTotal != 0 {
		t.Fatalf("expected zero empty km (passenger onboard the whole leg), got %v", report.Overall.KmEmptyTotal)
	}
	if len(report.Requests) != 1 || report.Requests[0].UserID != 1 {
		t.Fatal("expected one request report row for request 1")
	}
}

func TestFormatIntsJoinsWithSemicolons(t *testing.T) {
	if got := formatInts([]int{3, 1, 2}); got != "3;1;2" {
		t.Fatalf("unexpected join: %q", got)
	}
	if got := formatInts(nil); got != "-" {
		t.Fatalf("expected dash for empty list, got %q", got)
	}
}

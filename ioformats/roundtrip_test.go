package ioformats

import (
	"bytes"
	"testing"

	"lidarpt/model"
	"lidarpt/timeutil"
)

func TestReadBusRouteRoundTripsWriteBusRoute(t *testing.T) {
	model.ResetSplitIDs()
	a := model.NewStop(1, 0, 0)
	b := model.NewStop(2, 10, 0)
	line := &model.Line{ID: 1, Stops: []*model.Stop{a, b}, Depot: a, Capacity: 4}
	bus := &model.Bus{ID: 1, Line: line}
	req := &model.Request{ID: 7}

	arriveA, _ := timeutil.New(8, 0, 0)
	arriveB, _ := timeutil.New(8, 20, 0)
	stop1 := model.NewRouteStop(bus, a, arriveA, arriveA)
	sr := model.NewSplitRequest(req, line, a, b)
	stop1.PickUp[sr.SplitID] = sr
	stop2 := model.NewRouteStop(bus, b, arriveB, arriveB)
	stop2.DropOff[sr.SplitID] = sr

	route := &model.Route{Bus: bus, StopList: []*model.RouteStop{stop1, stop2}}

	var buf bytes.Buffer
	if err := WriteBusRoute(&buf, route); err != nil {
		t.Fatalf("WriteBusRoute: %v", err)
	}

	stops := map[int]*model.Stop{1: a, 2: b}
	requests := map[int]*model.Request{7: req}
	got, err := ReadBusRoute(&buf, bus, requests, stops)
	if err != nil {
		t.Fatalf("ReadBusRoute: %v", err)
	}

	if len(got.StopList) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(got.StopList))
	}
	if len(got.StopList[0].PickUp) != 1 {
		t.Fatal("expected a pickup reconstructed at the first stop")
	}
	if len(got.StopList[1].DropOff) != 1 {
		t.Fatal("expected a dropoff reconstructed at the second stop")
	}
	for _, sr := range got.StopList[1].DropOff {
		if sr.Parent.ID != 7 {
			t.Fatalf("expected reconstructed split's parent to be request 7, got %d", sr.Parent.ID)
		}
		if sr.PickUp.ID != 1 || sr.DropOff.ID != 2 {
			t.Fatalf("expected reconstructed split to run stop 1 -> stop 2, got %d -> %d", sr.PickUp.ID, sr.DropOff.ID)
		}
	}
}

func TestParseIntsInverseOfFormatInts(t *testing.T) {
	if got := parseInts("-"); got != nil {
		t.Fatalf("expected nil for dash, got %v", got)
	}
	got := parseInts("3;1;2")
	want := []int{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

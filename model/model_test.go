package model

import (
	"testing"

	"lidarpt/timeutil"
)

func TestStopDistance(t *testing.T) {
	a := NewStop(1, 0, 0)
	b := NewStop(2, 3, 4)
	if got, want := a.DistanceUnits(b), 5.0; got != want {
		t.Fatalf("DistanceUnits = %v, want %v", got, want)
	}
	if got, want := a.DistanceKm(b, 2.0), 10.0; got != want {
		t.Fatalf("DistanceKm = %v, want %v", got, want)
	}
}

func TestLineStopIndex(t *testing.T) {
	s1, s2, s3 := NewStop(1, 0, 0), NewStop(2, 1, 0), NewStop(3, 2, 0)
	l := &Line{ID: 1, Stops: []*Stop{s1, s2, s3}, Depot: s1, Capacity: 4}
	if l.StopIndex(2) != 1 {
		t.Fatalf("StopIndex(2) = %d, want 1", l.StopIndex(2))
	}
	if l.StopIndex(99) != -1 {
		t.Fatal("expected -1 for unknown stop")
	}
	if !l.HasStop(3) || l.HasStop(99) {
		t.Fatal("HasStop broken")
	}
}

func TestSplitRequestDirection(t *testing.T) {
	ResetSplitIDs()
	s1, s2, s3 := NewStop(1, 0, 0), NewStop(2, 1, 0), NewStop(3, 2, 0)
	l := &Line{ID: 1, Stops: []*Stop{s1, s2, s3}, Depot: s1, Capacity: 4}
	req := &Request{ID: 1, GroupSize: 1, PickUp: s1, DropOff: s3}
	forward := NewSplitRequest(req, l, s1, s3)
	if forward.Direction() != 0 {
		t.Fatalf("expected direction 0, got %d", forward.Direction())
	}
	backward := NewSplitRequest(req, l, s3, s1)
	if backward.Direction() != 1 {
		t.Fatalf("expected direction 1, got %d", backward.Direction())
	}
	if forward.SplitID == backward.SplitID {
		t.Fatal("split ids must be distinct")
	}
}

func TestSplitRequestWiden(t *testing.T) {
	ResetSplitIDs()
	s1, s2 := NewStop(1, 0, 0), NewStop(2, 1, 0)
	l := &Line{ID: 1, Stops: []*Stop{s1, s2}, Depot: s1, Capacity: 4}
	req := &Request{ID: 1, GroupSize: 1, PickUp: s1, DropOff: s2}
	sr := NewSplitRequest(req, l, s1, s2)

	e1, _ := timeutil.New(8, 0, 0)
	l1, _ := timeutil.New(8, 10, 0)
	sr.WidenStart(e1, l1)

	e2, _ := timeutil.New(7, 55, 0)
	l2, _ := timeutil.New(8, 5, 0)
	sr.WidenStart(e2, l2)

	if !sr.EarliestStart.Equal(e2) {
		t.Fatalf("expected widened earliest to %v, got %v", e2, sr.EarliestStart)
	}
	if !sr.LatestStart.Equal(l1) {
		t.Fatalf("expected widened latest to stay at %v, got %v", l1, sr.LatestStart)
	}
}

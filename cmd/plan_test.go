package cmd

import (
	"testing"

	"lidarpt/model"
)

func TestActiveRequestsFiltersDeniedAndEmptyOptions(t *testing.T) {
	accepted := &model.Request{ID: 1, RouteOptions: map[int][]*model.SplitRequest{0: {}}}
	denied := &model.Request{ID: 2, Denied: true, RouteOptions: map[int][]*model.SplitRequest{0: {}}}
	noOptions := &model.Request{ID: 3}

	active := activeRequests([]*model.Request{accepted, denied, noOptions})
	if len(active) != 1 || active[0].ID != 1 {
		t.Fatalf("expected only request 1 to be active, got %+v", active)
	}
}

func TestFlattenSplitsOrdersByRequestIDThenOption(t *testing.T) {
	model.ResetSplitIDs()
	a := model.NewStop(1, 0, 0)
	b := model.NewStop(2, 10, 0)
	line := &model.Line{ID: 1, Stops: []*model.Stop{a, b}, Depot: a, Capacity: 4}

	reqTwo := &model.Request{ID: 2}
	reqOne := &model.Request{ID: 1}
	srTwo := model.NewSplitRequest(reqTwo, line, a, b)
	srOne := model.NewSplitRequest(reqOne, line, a, b)
	reqTwo.RouteOptions = map[int][]*model.SplitRequest{0: {srTwo}}
	reqOne.RouteOptions = map[int][]*model.SplitRequest{0: {srOne}}

	splits := flattenSplits([]*model.Request{reqTwo, reqOne})
	if len(splits) != 2 {
		t.Fatalf("expected 2 splits, got %d", len(splits))
	}
	if splits[0].Parent.ID != 1 || splits[1].Parent.ID != 2 {
		t.Fatalf("expected splits ordered by parent request id, got parents %d, %d", splits[0].Parent.ID, splits[1].Parent.ID)
	}
}

package ioformats

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"lidarpt/model"
	"lidarpt/timeutil"
)

// ReadBusRoute parses a bus route CSV previously written by WriteBusRoute
// back into a model.Route. It reconstructs one SplitRequest per (request,
// this bus leg) pair from the pickup/dropoff id columns, which is exactly
// what the executor needs: checkPlan only ever inspects a SplitRequest's
// parent id and the stop pair it boarded/alighted at on this one bus, never
// the split id itself or the other legs of a transferring request.
func ReadBusRoute(r io.Reader, bus *model.Bus, requests map[int]*model.Request, stops map[int]*model.Stop) (*model.Route, error) {
	var rows []*BusStopRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrapf(err, "unmarshaling bus %d route csv", bus.ID)
	}

	route := &model.Route{Bus: bus}

	type pending struct {
		stop      *model.Stop
		routeStop *model.RouteStop
	}
	open := map[int]pending{}

	for _, row := range rows {
		stop, ok := stops[row.StopID]
		if !ok {
			return nil, errors.Errorf("bus %d route: unknown stop id %d", bus.ID, row.StopID)
		}
		arrive, err := timeutil.Parse(row.ArrivalTime)
		if err != nil {
			return nil, errors.Wrapf(err, "bus %d route: arrival time", bus.ID)
		}
		depart, err := timeutil.Parse(row.DepartureTime)
		if err != nil {
			return nil, errors.Wrapf(err, "bus %d route: departure time", bus.ID)
		}
		rs := model.NewRouteStop(bus, stop, arrive, depart)

		for _, reqID := range parseInts(row.DropOffIDs) {
			p, ok := open[reqID]
			if !ok {
				return nil, errors.Errorf("bus %d route: dropoff for request %d with no prior pickup on this bus", bus.ID, reqID)
			}
			req, ok := requests[reqID]
			if !ok {
				return nil, errors.Errorf("bus %d route: unknown request id %d", bus.ID, reqID)
			}
			sr := model.NewSplitRequest(req, bus.Line, p.stop, stop)
			p.routeStop.PickUp[sr.SplitID] = sr
			rs.DropOff[sr.SplitID] = sr
			delete(open, reqID)
		}

		route.StopList = append(route.StopList, rs)

		for _, reqID := range parseInts(row.PickUpIDs) {
			open[reqID] = pending{stop: stop, routeStop: rs}
		}
	}

	return route, nil
}

func parseInts(s string) []int {
	if s == "" || s == "-" {
		return nil
	}
	var out []int
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ';' {
			if i > start {
				out = append(out, atoi(s[start:i]))
			}
			start = i + 1
		}
	}
	return out
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

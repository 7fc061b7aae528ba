// Package executor chronologically replays a decoded plan, validating that
// every pick-up/drop-off and inter-stop travel time respects the requests'
// time windows and the network's minimum travel times. It ports
// original_source/main/scope/Executor.py's check_plan/execute_plan for the
// static (single-shot, non-rolling-horizon) context only -- see
// SPEC_FULL.md 4.8 for the documented dynamic-path extension point this
// intentionally leaves open.
package executor

import (
	"sort"

	"github.com/pkg/errors"

	"lidarpt/config"
	"lidarpt/model"
)

// Executor tracks onboard/waiting state across one replay of a plan.
type Executor struct {
	userLocations map[int]*model.Stop  // request id -> stop it's waiting at
	passengers    map[int]map[int]bool // bus id -> set of onboard request ids
	busLocations  map[int]*model.Stop  // bus id -> current stop
	requests      []*model.Request
	cfg           config.PlanningConfig
}

// New builds an Executor with every request initially waiting at its
// pick-up location and every bus parked at its line's depot.
func New(buses []*model.Bus, requests []*model.Request, cfg config.PlanningConfig) *Executor {
	e := &Executor{
		userLocations: map[int]*model.Stop{},
		passengers:    map[int]map[int]bool{},
		busLocations:  map[int]*model.Stop{},
		requests:      requests,
		cfg:           cfg,
	}
	for _, r := range requests {
		e.userLocations[r.ID] = r.PickUp
	}
	for _, b := range buses {
		e.passengers[b.ID] = map[int]bool{}
		e.busLocations[b.ID] = b.Line.Depot
	}
	return e
}

// ValidateRoutes replays every route to completion (the static case: no
// final_time cutoff), checking inter-stop travel times and the full
// pick-up/drop-off/window/max-ride-time invariant set. Any violation is
// fatal, per SPEC_FULL.md 4.7.
func (e *Executor) ValidateRoutes(routes []*model.Route) error {
	sorted := append([]*model.Route(nil), routes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Bus.ID < sorted[j].Bus.ID })

	if err := checkTravelTimes(sorted, e.cfg); err != nil {
		return err
	}

	var allStops []*model.RouteStop
	for _, r := range sorted {
		allStops = append(allStops, r.StopList...)
	}
	sort.SliceStable(allStops, func(i, j int) bool { return allStops[i].ArrivalTime.Before(allStops[j].ArrivalTime) })

	return e.checkPlan(allStops)
}

func checkTravelTimes(routes []*model.Route, cfg config.PlanningConfig) error {
	for _, route := range routes {
		for i := 0; i+1 < len(route.StopList); i++ {
			curr, next := route.StopList[i], route.StopList[i+1]
			minTravel := curr.Stop.DistanceKm(next.Stop, cfg.KmPerUnit) * 3600.0 / cfg.AverageKmh
			needed := float64(next.ArrivalTime.Minus(curr.DepartTime).Seconds())
			if needed < minTravel-0.1 {
				return errors.Errorf("travel time not respected on bus %d: minimum %.1fs, needed %.1fs", route.Bus.ID, minTravel, needed)
			}
		}
	}
	return nil
}

func (e *Executor) checkPlan(stops []*model.RouteStop) error {
	var waiting []*model.RouteStop

	for _, rs := range stops {
		currTime := rs.ArrivalTime

		var stillWaiting []*model.RouteStop
		for _, w := range waiting {
			if w.DepartTime.BeforeEqual(currTime) {
				if err := e.boardWaiting(w); err != nil {
					return err
				}
			} else {
				stillWaiting = append(stillWaiting, w)
			}
		}
		waiting = stillWaiting

		e.busLocations[rs.Bus.ID] = rs.Stop

		for _, sr := range rs.DropOff {
			req := sr.Parent
			if !e.passengers[rs.Bus.ID][req.ID] {
				return errors.Errorf("request %d not supposed to be in bus %d", req.ID, rs.Bus.ID)
			}
			delete(e.passengers[rs.Bus.ID], req.ID)
			if rs.Stop != req.DropOff {
				e.userLocations[req.ID] = rs.Stop
			} else {
				req.ActualEnd, req.HasActualEnd = rs.ArrivalTime, true
			}
		}

		insertSorted(&waiting, rs)
	}

	for _, w := range waiting {
		if err := e.boardWaiting(w); err != nil {
			return err
		}
	}

	return e.checkWindows()
}

func (e *Executor) boardWaiting(w *model.RouteStop) error {
	for _, sr := range w.PickUp {
		req := sr.Parent
		loc, ok := e.userLocations[req.ID]
		if !ok {
			return errors.Errorf("request %d not marked as waiting", req.ID)
		}
		if loc != w.Stop {
			return errors.Errorf("request %d: mismatch between expected pick-up stop and actual", req.ID)
		}
		delete(e.userLocations, req.ID)
		e.passengers[w.Bus.ID][req.ID] = true
		if w.Stop == req.PickUp {
			req.ActualStart = w.DepartTime.Sub(e.cfg.TransferSeconds)
			req.HasActualStart = true
		}
	}
	return nil
}

func (e *Executor) checkWindows() error {
	for _, req := range e.requests {
		if !req.HasActualStart {
			continue
		}
		if req.ActualStart.Before(req.EarliestStart) || req.ActualStart.After(req.LatestStart) {
			return errors.Errorf("pick-up window not respected for request %d: window [%s, %s], actual %s",
				req.ID, req.EarliestStart, req.LatestStart, req.ActualStart)
		}
		if !req.HasActualEnd {
			return errors.Errorf("request %d was picked up but not delivered", req.ID)
		}
		if req.ActualEnd.Before(req.EarliestArrival) || req.ActualEnd.After(req.LatestArrival) {
			return errors.Errorf("drop-off window not respected for request %d: window [%s, %s], actual %s",
				req.ID, req.EarliestArrival, req.LatestArrival, req.ActualEnd)
		}
		travelled := req.ActualEnd.Minus(req.ActualStart).Seconds()
		maxTravel := req.MaxTravelTime()
		if travelled > maxTravel {
			return errors.Errorf("maximum travel time not respected for request %d: travelled %ds, maximum %ds",
				req.ID, travelled, maxTravel)
		}
	}
	return nil
}

func insertSorted(waiting *[]*model.RouteStop, rs *model.RouteStop) {
	list := *waiting
	i := 0
	for i < len(list) && list[i].DepartTime.Before(rs.DepartTime) {
		i++
	}
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = rs
	*waiting = list
}

// Package decode turns a solved MIP back into executable per-bus routes,
// porting original_source/main/plan/CplexModel.py's convert_to_plan: walk
// each bus from its line's idle event along the arcs the solver selected,
// building RouteStops and skipping events that turned out to be unused or
// double-serviced.
package decode

import (
	"log"
	"sort"

	"lidarpt/config"
	"lidarpt/eventgraph"
	"lidarpt/milp"
	"lidarpt/model"
	"lidarpt/solver"
	"lidarpt/timeutil"
)

const roundEpsilon = 0.5

func round(v float64) int64 {
	if v < 0 {
		return int64(v - roundEpsilon)
	}
	return int64(v + roundEpsilon)
}

func addValue(s *model.SplitRequest, startBool bool) int64 {
	if startBool {
		return s.EarliestStart.Seconds()
	}
	return s.EarliestArrival.Seconds()
}

func legDurationKm(a, b *model.Stop, cfg config.PlanningConfig) int64 {
	return timeutil.DistanceToDuration(a.DistanceKm(b, cfg.KmPerUnit), cfg.AverageKmh)
}

func arcValue(s solver.Solver, refs map[string]solver.VarRef, from, to int) bool {
	ref, ok := refs[milp.ArcVar(from, to)]
	if !ok {
		return false
	}
	return round(s.Value(ref)) == 1
}

// selectedLegs returns the route option chosen for req (the one whose z
// variable rounds to 1), or nil if none was (the request was denied or
// rejected by the solver).
func selectedLegs(req *model.Request, s solver.Solver, refs map[string]solver.VarRef) []*model.SplitRequest {
	keys := make([]int, 0, len(req.RouteOptions))
	for k := range req.RouteOptions {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		ref, ok := refs[milp.OptionVar(req.ID, k)]
		if !ok {
			continue
		}
		if round(s.Value(ref)) == 1 {
			return req.RouteOptions[k]
		}
	}
	return nil
}

func legContains(legs []*model.SplitRequest, splitID int) bool {
	for _, l := range legs {
		if l.SplitID == splitID {
			return true
		}
	}
	return false
}

// nextArcEvent returns the unique successor of event whose arc variable the
// solver set to 1, or nil if the event was never visited.
func nextArcEvent(g *eventgraph.Graph, event *eventgraph.Event, s solver.Solver, refs map[string]solver.VarRef) *eventgraph.Event {
	for _, succ := range g.EdgesOut(event) {
		if arcValue(s, refs, event.ID, succ.ID) {
			return succ
		}
	}
	return nil
}

// DecodePlan builds one Route per bus from a solved model.
func DecodePlan(g *eventgraph.Graph, lines map[int]*model.Line, buses []*model.Bus, s solver.Solver, refs map[string]solver.VarRef, cfg config.PlanningConfig) []*model.Route {
	busesByLine := map[int][]*model.Bus{}
	for _, b := range buses {
		busesByLine[b.Line.ID] = append(busesByLine[b.Line.ID], b)
	}

	var lineIDs []int
	for id := range busesByLine {
		lineIDs = append(lineIDs, id)
	}
	sort.Ints(lineIDs)

	processedPickUp := map[int]bool{}
	processedDropOff := map[int]bool{}

	var routes []*model.Route
	for _, lineID := range lineIDs {
		line := lines[lineID]
		fleet := busesByLine[lineID]
		sort.Slice(fleet, func(i, j int) bool { return fleet[i].ID < fleet[j].ID })

		idle := g.IdleEventForLine(lineID)
		if idle == nil {
			continue
		}
		succs := g.EdgesOut(idle)
		arcOnes := make([]bool, len(succs))
		for i, succ := range succs {
			arcOnes[i] = arcValue(s, refs, idle.ID, succ.ID)
		}

		for busIdx, bus := range fleet {
			route := model.NewRoute(bus)
			counter, j := -1, -1
			for counter < busIdx && j < len(arcOnes)-1 {
				j++
				if arcOnes[j] {
					counter++
				}
			}

			if counter < busIdx {
				route.StopList = append(route.StopList, model.NewRouteStop(bus, idle.Location, line.StartTime, line.EndTime))
				routes = append(routes, route)
				continue
			}

			nextEvent := succs[j]
			duration := legDurationKm(idle.Location, nextEvent.Location, cfg)
			startVar := int64(0)
			if ref, ok := refs[milp.DepartPlusVar(nextEvent.First.SplitID)]; ok {
				startVar = round(s.Value(ref))
			}
			depart := startVar - cfg.TransferSeconds - duration + addValue(nextEvent.First, true)
			curr := model.NewRouteStop(bus, idle.Location, line.StartTime, timeutil.FromSeconds(depart))
			route.StopList = append(route.StopList, curr)

			for nextEvent != idle {
				legs := selectedLegs(nextEvent.First.Parent, s, refs)
				matched := legContains(legs, nextEvent.First.SplitID)

				if matched {
					sameLocation := nextEvent.Location == curr.Stop
					var timeVar int64
					haveTimeVar := false

					if !sameLocation {
						d := legDurationKm(curr.Stop, nextEvent.Location, cfg)
						if nextEvent.Kind == eventgraph.PickUp {
							if !processedPickUp[nextEvent.First.SplitID] {
								ref := refs[milp.DepartPlusVar(nextEvent.First.SplitID)]
								timeVar = round(s.Value(ref))
								arrive := curr.DepartTime.Add(d)
								depart := timeutil.FromSeconds(timeVar + addValue(nextEvent.First, true))
								curr = model.NewRouteStop(bus, nextEvent.Location, arrive, depart)
								route.StopList = append(route.StopList, curr)
								curr.PickUp[nextEvent.First.SplitID] = nextEvent.First
								processedPickUp[nextEvent.First.SplitID] = true
							} else {
								log.Printf("decode: double-serviced pick-up removed for split %d", nextEvent.First.SplitID)
							}
						} else {
							if !processedDropOff[nextEvent.First.SplitID] {
								ref := refs[milp.DepartMinusVar(nextEvent.First.SplitID)]
								timeVar = round(s.Value(ref))
								arrive := curr.DepartTime.Add(d)
								depart := timeutil.FromSeconds(timeVar + addValue(nextEvent.First, false))
								curr = model.NewRouteStop(bus, nextEvent.Location, arrive, depart)
								route.StopList = append(route.StopList, curr)
								curr.DropOff[nextEvent.First.SplitID] = nextEvent.First
								processedDropOff[nextEvent.First.SplitID] = true
							} else {
								log.Printf("decode: double-serviced drop-off removed for split %d", nextEvent.First.SplitID)
							}
						}
					} else {
						if nextEvent.Kind == eventgraph.PickUp {
							if !processedPickUp[nextEvent.First.SplitID] {
								ref := refs[milp.DepartPlusVar(nextEvent.First.SplitID)]
								timeVar = round(s.Value(ref)) + addValue(nextEvent.First, true)
								haveTimeVar = true
								curr.PickUp[nextEvent.First.SplitID] = nextEvent.First
								processedPickUp[nextEvent.First.SplitID] = true
							} else {
								log.Printf("decode: double-serviced pick-up removed for split %d", nextEvent.First.SplitID)
							}
						} else {
							if !processedDropOff[nextEvent.First.SplitID] {
								ref := refs[milp.DepartMinusVar(nextEvent.First.SplitID)]
								timeVar = round(s.Value(ref)) + addValue(nextEvent.First, false)
								haveTimeVar = true
								curr.DropOff[nextEvent.First.SplitID] = nextEvent.First
								processedDropOff[nextEvent.First.SplitID] = true
							} else {
								log.Printf("decode: double-serviced drop-off removed for split %d", nextEvent.First.SplitID)
							}
						}
						if haveTimeVar {
							curr.DepartTime = timeutil.FromSeconds(timeVar)
						}
					}
				} else {
					log.Printf("decode: unnecessary event removed: split %d", nextEvent.First.SplitID)
				}

				following := nextArcEvent(g, nextEvent, s, refs)
				if following == nil {
					break
				}
				nextEvent = following
			}

			if curr.Stop == line.Depot {
				curr.DepartTime = line.EndTime
			} else if nextEvent != nil {
				d := legDurationKm(curr.Stop, nextEvent.Location, cfg)
				route.StopList = append(route.StopList, model.NewRouteStop(bus, nextEvent.Location, curr.DepartTime.Add(d), line.EndTime))
			}

			routes = append(routes, route)
		}
	}

	return routes
}

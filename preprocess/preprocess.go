// Package preprocess implements request preprocessing per SPEC_FULL.md 4.3:
// fastest-path computation with transfer bookkeeping, DFS enumeration of
// feasible multi-leg route options, and per-option time-window tightening.
package preprocess

import (
	"sort"

	"lidarpt/config"
	"lidarpt/graph"
	"lidarpt/model"
	"lidarpt/timeutil"
)

// reachState tracks, for a node reached during Dijkstra, the set of lines by
// which it was reached without incurring an additional transfer, and the
// transfer count accumulated so far (mirrors pred_dict in the source).
type reachState struct {
	linesNoTransfer map[int]bool
	transfers       int
}

// FastestResult is the output of the Dijkstra fastest-path pass.
type FastestResult struct {
	Seconds      int64
	NumbTransfer int
	Feasible     bool
}

// CalcFastest computes the fastest feasible travel time (in seconds) and
// minimal transfer count from pickUp to dropOff for a group of the given
// size, filtering out edges whose line capacity is below groupSize.
func CalcFastest(g *graph.LineGraph, pickUp, dropOff *model.Stop, groupSize int, cfg config.PlanningConfig) FastestResult {
	dist := map[int]int64{}
	state := map[int]reachState{}
	pq := graph.NewPriorityQueue()

	seedDist := cfg.TransferSeconds
	dist[pickUp.ID] = seedDist
	state[pickUp.ID] = reachState{linesNoTransfer: linesServingAsSet(g, pickUp.ID), transfers: 0}
	pq.AddNode(pickUp.ID, seedDist)

	visited := map[int]bool{}

	for !pq.IsEmpty() {
		u, uDist, ok := pq.Pop()
		if !ok {
			break
		}
		if visited[u] {
			continue
		}
		visited[u] = true
		if u == dropOff.ID {
			return FastestResult{Seconds: uDist, NumbTransfer: state[u].transfers, Feasible: true}
		}
		for _, e := range g.Out(u) {
			if e.Line.Capacity < groupSize {
				continue
			}
			st := state[u]
			transferNeeded := !st.linesNoTransfer[e.Line.ID]
			add := e.Duration
			transfers := st.transfers
			if transferNeeded {
				add += cfg.TransferSeconds
				transfers++
			}
			cand := uDist + add
			prev, seen := dist[e.To.ID]
			if !seen || cand < prev || (cand == prev && transfers < state[e.To.ID].transfers) {
				dist[e.To.ID] = cand
				newLines := map[int]bool{e.Line.ID: true}
				state[e.To.ID] = reachState{linesNoTransfer: newLines, transfers: transfers}
				pq.AddNode(e.To.ID, cand)
				pq.Replace(e.To.ID, cand)
			}
		}
	}
	return FastestResult{Feasible: false}
}

func linesServingAsSet(g *graph.LineGraph, stopID int) map[int]bool {
	out := map[int]bool{}
	for _, e := range g.Out(stopID) {
		out[e.Line.ID] = true
	}
	return out
}

// CompleteRequest computes fastest_time, numb_transfer and derives the
// request's latest_arrival_time via the configured max-delay expression.
// Returns ok=false when no path exists (deny-and-continue redesign, see
// SPEC_FULL.md 4.3 and DESIGN.md Open Question decisions).
func CompleteRequest(g *graph.LineGraph, pickUp, dropOff *model.Stop, groupSize int, cfg config.PlanningConfig) (fastestSeconds int64, numbTransfer int, maxDelaySeconds int64, ok bool) {
	res := CalcFastest(g, pickUp, dropOff, groupSize, cfg)
	if !res.Feasible {
		return 0, 0, 0, false
	}
	minutes := float64(res.Seconds) / 60.0
	delayMinutes := cfg.MaxDelayEquation.Eval(minutes)
	return res.Seconds, res.NumbTransfer, int64(delayMinutes*60.0 + 0.5), true
}

// PreprocessRequest runs the full preprocessing pipeline for one request:
// fastest path, route-option enumeration, and time-window tightening. The
// request's RouteOptions field is populated in place; Denied is set if no
// path exists.
func PreprocessRequest(g *graph.LineGraph, lines map[int]*model.Line, req *model.Request, cfg config.PlanningConfig) {
	g.AddRequest(req.PickUp, req.DropOff, lines)
	defer g.DeleteRequest(req.PickUp, req.DropOff)

	fastest, transfers, maxDelay, ok := CompleteRequest(g, req.PickUp, req.DropOff, req.GroupSize, cfg)
	if !ok {
		req.Denied = true
		req.DeniedReason = "no feasible route"
		return
	}
	req.FastestTime = fastest
	req.NumbTransfer = transfers
	req.LatestStart = req.EarliestStart.Add(cfg.TimeWindowSeconds)
	req.EarliestArrival = req.EarliestStart.Add(fastest)
	req.LatestArrival = req.EarliestStart.Add(fastest + maxDelay)

	options := findSplitRequests(g, lines, req, cfg)
	req.RouteOptions = map[int][]*model.SplitRequest{}
	for i, opt := range options {
		req.RouteOptions[i] = opt
		fillTimeWindows(req, opt, cfg)
	}
	if len(req.RouteOptions) == 0 {
		req.Denied = true
		req.DeniedReason = "no feasible route option within transfer/time bounds"
	}
}

type dfsState struct {
	edge        *graph.Edge
	seconds     int64
	transfers   int
	visited     map[int]bool
	path        []*model.SplitRequest
}

// findSplitRequests enumerates every feasible route option via DFS from
// pickUp's outgoing edges, per SPEC_FULL.md 4.3. A shared edge->SplitRequest
// map ensures one SplitRequest object represents each "edge on this line"
// segment across all enumerated options.
func findSplitRequests(g *graph.LineGraph, lines map[int]*model.Line, req *model.Request, cfg config.PlanningConfig) [][]*model.SplitRequest {
	lookup := map[*graph.Edge]*model.SplitRequest{}
	maxHops := req.NumbTransfer + cfg.NumberOfExtraTransfers
	maxSeconds := req.MaxTravelTime()

	var options [][]*model.SplitRequest

	var recurse func(st dfsState)
	recurse = func(st dfsState) {
		if st.transfers > maxHops || st.seconds > maxSeconds {
			return
		}
		sr, ok := lookup[st.edge]
		if !ok {
			sr = model.NewSplitRequest(req, st.edge.Line, st.edge.From, st.edge.To)
			lookup[st.edge] = sr
		}
		path := append(append([]*model.SplitRequest{}, st.path...), sr)

		if st.edge.To.ID == req.DropOff.ID {
			options = append(options, path)
			return
		}

		visited := copyVisitedSet(st.visited)
		visited[st.edge.To.ID] = true

		for _, next := range g.Out(st.edge.To.ID) {
			if next.Line.ID == st.edge.Line.ID {
				continue // a transfer is forced between legs
			}
			if visited[next.To.ID] {
				continue
			}
			if next.Line.Capacity < req.GroupSize {
				continue
			}
			recurse(dfsState{
				edge:      next,
				seconds:   st.seconds + cfg.TransferSeconds + next.Duration,
				transfers: st.transfers + 1,
				visited:   visited,
				path:      path,
			})
		}
	}

	for _, e := range g.Out(req.PickUp.ID) {
		if e.Line.Capacity < req.GroupSize {
			continue
		}
		recurse(dfsState{
			edge:      e,
			seconds:   e.Duration,
			transfers: 0,
			visited:   map[int]bool{req.PickUp.ID: true},
			path:      nil,
		})
	}
	return options
}

func copyVisitedSet(in map[int]bool) map[int]bool {
	out := make(map[int]bool, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

// fillTimeWindows performs the per-option time-window tightening walk
// described in SPEC_FULL.md 4.3, widening each SplitRequest's cached window
// across options that happen to share its identity.
func fillTimeWindows(req *model.Request, option []*model.SplitRequest, cfg config.PlanningConfig) {
	totalDistance := 0.0
	for _, sr := range option {
		totalDistance += sr.PickUp.DistanceKm(sr.DropOff, cfg.KmPerUnit)
	}
	shortestTime := timeutil.DistanceToDuration(totalDistance, cfg.AverageKmh) + int64(len(option))*cfg.TransferSeconds

	cum := int64(0)
	for i, sr := range option {
		segTime := sr.SegmentDurationSeconds(cfg.KmPerUnit, cfg.AverageKmh)

		var earliestStart timeutil.Time
		if i == 0 {
			earliestStart = req.EarliestStart
		} else {
			earliestStart = req.EarliestStart.Add(cum)
		}
		earliestArrival := earliestStart.Add(segTime + cfg.TransferSeconds)

		cumIncludingSeg := cum + segTime + cfg.TransferSeconds
		latestArrival := req.LatestArrival.Sub(shortestTime - cumIncludingSeg)

		var latestStart timeutil.Time
		if i == 0 {
			latestStart = req.LatestStart
		} else {
			latestStart = latestArrival.Sub(segTime + cfg.TransferSeconds)
		}

		sr.WidenStart(earliestStart, latestStart)
		sr.WidenArrival(earliestArrival, latestArrival)

		cum = cumIncludingSeg
	}
}

// SortedOptionKeys returns an option map's keys in stable ascending order,
// used everywhere downstream code must iterate route options deterministically.
func SortedOptionKeys(options map[int][]*model.SplitRequest) []int {
	keys := make([]int, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

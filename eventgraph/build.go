package eventgraph

import (
	"sort"

	"lidarpt/config"
	"lidarpt/model"
)

// generatePermutations recursively enumerates every capacity- and
// window-feasible subset of candList to accompany eventUser in one event,
// mirroring original_source EventBasedMILP.get_permutations: candidates are
// tried in index order, a request already represented (by parent request
// id, not split id -- one request can only occupy one leg at a time) is
// skipped, and each valid addition both emits an event and recurses to grow
// the subset further.
func generatePermutations(eventUser *model.SplitRequest, candList []*model.SplitRequest, curr map[int]*model.SplitRequest, usedParents map[int]bool, startIndex int, isPickup bool, cfg config.PlanningConfig) []*Event {
	var result []*Event
	for index := startIndex; index < len(candList); index++ {
		cand := candList[index]
		if usedParents[cand.Parent.ID] {
			continue
		}
		next := copySplitMap(curr)
		next[cand.SplitID] = cand

		total := eventUser.Parent.GroupSize
		for _, sr := range next {
			total += sr.Parent.GroupSize
		}
		if total > eventUser.Line.Capacity {
			continue
		}

		earliest, latest, ok := eventWindow(eventUser, next, isPickup, cfg)
		if !ok {
			continue
		}

		var ev *Event
		if isPickup {
			ev = NewPickUpEvent(eventUser, next, earliest, latest)
		} else {
			ev = NewDropOffEvent(eventUser, next, earliest, latest)
		}
		result = append(result, ev)

		nextUsed := copyParentSet(usedParents)
		nextUsed[cand.Parent.ID] = true
		result = append(result, generatePermutations(eventUser, candList, next, nextUsed, index+1, isPickup, cfg)...)
	}
	return result
}

func copySplitMap(in map[int]*model.SplitRequest) map[int]*model.SplitRequest {
	out := make(map[int]*model.SplitRequest, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyParentSet(in map[int]bool) map[int]bool {
	out := make(map[int]bool, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func sortedSplitSlice(in map[int]*model.SplitRequest) []*model.SplitRequest {
	ids := make([]int, 0, len(in))
	for id := range in {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*model.SplitRequest, len(ids))
	for i, id := range ids {
		out[i] = in[id]
	}
	return out
}

// BuildEventGraph constructs the full event graph over every line in lines
// (a line with no split requests gets only its idle event) plus any line a
// split request rides, per SPEC_FULL.md 4.4's pipeline:
// direction partitioning, local+temporal sweep-line candidate generation,
// intersection, recursive event-subset enumeration under capacity, and
// hash-bucketed edge construction, followed by a per-line connectivity
// check against that line's idle event.
func BuildEventGraph(lines map[int]*model.Line, splits []*model.SplitRequest, cfg config.PlanningConfig, telemetry *config.Telemetry) (*Graph, error) {
	type dirSplits struct {
		byDirection [2]map[int]*model.SplitRequest
	}
	perLine := map[int]*dirSplits{}
	for lineID := range lines {
		perLine[lineID] = &dirSplits{byDirection: [2]map[int]*model.SplitRequest{{}, {}}}
	}
	for _, sr := range splits {
		ds, ok := perLine[sr.Line.ID]
		if !ok {
			ds = &dirSplits{byDirection: [2]map[int]*model.SplitRequest{{}, {}}}
			perLine[sr.Line.ID] = ds
		}
		ds.byDirection[sr.Direction()][sr.SplitID] = sr
	}

	var lineIDs []int
	for id := range perLine {
		lineIDs = append(lineIDs, id)
	}
	sort.Ints(lineIDs)

	g := New(cfg)

	for _, lineID := range lineIDs {
		line := lines[lineID]
		ds := perLine[lineID]
		idle := NewIdleEvent(line)
		permutations := []*Event{idle}

		for direction := 0; direction < 2; direction++ {
			usersHere := ds.byDirection[direction]
			if len(usersHere) == 0 {
				continue
			}
			local := sweepLineLocal(usersHere, line, direction)
			temporal := sweepLineTime(usersHere)
			agg := intersectCandidates(local, temporal)

			splitIDs := make([]int, 0, len(agg))
			for id := range agg {
				splitIDs = append(splitIDs, id)
			}
			sort.Ints(splitIDs)

			for _, splitID := range splitIDs {
				eventUser := usersHere[splitID]
				cands := agg[splitID]

				permutations = append(permutations, NewPickUpEvent(eventUser, map[int]*model.SplitRequest{}, eventUser.EarliestStart, eventUser.LatestStart))
				permutations = append(permutations, generatePermutations(eventUser, sortedSplitSlice(cands.pickCandidates), map[int]*model.SplitRequest{}, map[int]bool{}, 0, true, cfg)...)

				permutations = append(permutations, NewDropOffEvent(eventUser, map[int]*model.SplitRequest{}, eventUser.EarliestArrival, eventUser.LatestArrival))
				permutations = append(permutations, generatePermutations(eventUser, sortedSplitSlice(cands.dropCandidates), map[int]*model.SplitRequest{}, map[int]bool{}, 0, false, cfg)...)
			}
		}

		g.AddEvents(permutations)
		if err := g.CheckConnectivity(idle); err != nil {
			return nil, err
		}
	}

	if telemetry != nil {
		telemetry.EventGraphNodes = g.NodeCount()
		telemetry.EventGraphEdges = g.EdgeCount()
		telemetry.NumberOfSplits = len(g.requestPickUps)
	}

	return g, nil
}

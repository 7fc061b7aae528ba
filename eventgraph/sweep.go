package eventgraph

import (
	"sort"

	"lidarpt/model"
	"lidarpt/timeutil"
)

// candidateSet holds, per split request, the other split requests that are
// candidates to be grouped into the same pick-up (resp. drop-off) event.
type candidateSet struct {
	pickCandidates map[int]*model.SplitRequest
	dropCandidates map[int]*model.SplitRequest
}

func newCandidateDict(splits map[int]*model.SplitRequest) map[int]*candidateSet {
	out := make(map[int]*candidateSet, len(splits))
	for id := range splits {
		out[id] = &candidateSet{pickCandidates: map[int]*model.SplitRequest{}, dropCandidates: map[int]*model.SplitRequest{}}
	}
	return out
}

// sweepLineLocal is a spatial sweep along line's stop order (reversed for
// direction 1): at each stop, requests dropping off there become drop-off
// candidates for everything still aboard, and requests picking up there
// become pick-up candidates for everything still aboard, per
// SPEC_FULL.md 4.4 / original_source EventBasedMILP.sweep_line_local.
func sweepLineLocal(splits map[int]*model.SplitRequest, line *model.Line, direction int) map[int]*candidateSet {
	type stopQueue struct {
		boarding  map[int]*model.SplitRequest
		alighting map[int]*model.SplitRequest
	}
	queues := make(map[int]*stopQueue, len(line.Stops))
	for _, s := range line.Stops {
		queues[s.ID] = &stopQueue{boarding: map[int]*model.SplitRequest{}, alighting: map[int]*model.SplitRequest{}}
	}
	for _, sr := range splits {
		queues[sr.PickUp.ID].boarding[sr.SplitID] = sr
		queues[sr.DropOff.ID].alighting[sr.SplitID] = sr
	}

	stops := append([]*model.Stop{}, line.Stops...)
	if direction == 1 {
		reverseStops(stops)
	}

	status := map[int]*model.SplitRequest{}
	out := newCandidateDict(splits)

	for _, stop := range stops {
		q := queues[stop.ID]

		for _, leaving := range q.alighting {
			for _, other := range q.alighting {
				if leaving.Parent.ID != other.Parent.ID && !leaving.LatestArrival.After(other.LatestArrival) {
					out[leaving.SplitID].dropCandidates[other.SplitID] = other
				}
			}
			for _, other := range status {
				if other.Parent.ID != leaving.Parent.ID {
					out[leaving.SplitID].dropCandidates[other.SplitID] = other
				}
			}
		}
		for id := range q.alighting {
			delete(status, id)
		}

		for _, arriving := range q.boarding {
			for _, other := range q.boarding {
				if arriving.Parent.ID != other.Parent.ID && !arriving.LatestStart.After(other.LatestStart) {
					out[arriving.SplitID].pickCandidates[other.SplitID] = other
				}
			}
			for _, other := range status {
				if other.Parent.ID != arriving.Parent.ID {
					out[arriving.SplitID].pickCandidates[other.SplitID] = other
				}
			}
		}
		for id, sr := range q.boarding {
			status[id] = sr
		}
	}
	return out
}

func reverseStops(s []*model.Stop) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// sweepLineTime is a temporal sweep across every split's four window
// timestamps (earliest/latest start, earliest/latest arrival), tracking
// which requests have an open pick-up or drop-off interval at each instant,
// per original_source EventBasedMILP.sweep_line_time.
func sweepLineTime(splits map[int]*model.SplitRequest) map[int]*candidateSet {
	type bucket struct {
		earlStart, latestStart, earlArr, latestArr map[int]*model.SplitRequest
	}
	buckets := map[timeutil.Time]*bucket{}
	ensure := func(t timeutil.Time) *bucket {
		b, ok := buckets[t]
		if !ok {
			b = &bucket{
				earlStart:   map[int]*model.SplitRequest{},
				latestStart: map[int]*model.SplitRequest{},
				earlArr:     map[int]*model.SplitRequest{},
				latestArr:   map[int]*model.SplitRequest{},
			}
			buckets[t] = b
		}
		return b
	}
	for _, sr := range splits {
		ensure(sr.EarliestStart).earlStart[sr.SplitID] = sr
		ensure(sr.LatestStart).latestStart[sr.SplitID] = sr
		ensure(sr.EarliestArrival).earlArr[sr.SplitID] = sr
		ensure(sr.LatestArrival).latestArr[sr.SplitID] = sr
	}

	var timePoints []timeutil.Time
	for t := range buckets {
		timePoints = append(timePoints, t)
	}
	sort.Slice(timePoints, func(i, j int) bool { return timePoints[i].Before(timePoints[j]) })

	openPickup := map[int]*model.SplitRequest{}  // status_tuple[0]
	openDropoff := map[int]*model.SplitRequest{} // status_tuple[1]
	totalOpen := map[int]*model.SplitRequest{}   // total_status

	out := newCandidateDict(splits)

	for _, t := range timePoints {
		b := buckets[t]
		for id, sr := range b.earlArr {
			openDropoff[id] = sr
		}
		for id, sr := range b.earlStart {
			openPickup[id] = sr
			totalOpen[id] = sr
		}

		for id, dropOpen := range b.earlArr {
			for oid, other := range totalOpen {
				if other.Parent.ID != dropOpen.Parent.ID {
					out[id].dropCandidates[oid] = other
				}
			}
		}

		for id, pickOpen := range b.earlStart {
			for oid, other := range totalOpen {
				if other.Parent.ID == pickOpen.Parent.ID {
					continue
				}
				out[id].pickCandidates[oid] = other
				if _, isOpenPickup := openPickup[oid]; isOpenPickup {
					out[oid].pickCandidates[id] = pickOpen
				}
				if _, isOpenDropoff := openDropoff[oid]; isOpenDropoff {
					out[oid].dropCandidates[id] = pickOpen
				}
			}
		}

		for id := range b.latestStart {
			delete(openPickup, id)
		}
		for id := range b.latestArr {
			delete(openDropoff, id)
			delete(totalOpen, id)
		}
	}
	return out
}

// intersectCandidates keeps only candidates present in both the spatial and
// temporal sweeps, per SPEC_FULL.md 4.4's intersection step.
func intersectCandidates(local, temporal map[int]*candidateSet) map[int]*candidateSet {
	out := make(map[int]*candidateSet, len(local))
	for id, l := range local {
		t := temporal[id]
		merged := &candidateSet{pickCandidates: map[int]*model.SplitRequest{}, dropCandidates: map[int]*model.SplitRequest{}}
		if t != nil {
			for oid, sr := range l.pickCandidates {
				if _, ok := t.pickCandidates[oid]; ok {
					merged.pickCandidates[oid] = sr
				}
			}
			for oid, sr := range l.dropCandidates {
				if _, ok := t.dropCandidates[oid]; ok {
					merged.dropCandidates[oid] = sr
				}
			}
		}
		out[id] = merged
	}
	return out
}

package eventgraph

import (
	"fmt"

	"github.com/pkg/errors"

	"lidarpt/config"
	"lidarpt/model"
	"lidarpt/timeutil"
)

// Graph is the event graph itself: nodes are Events, edges connect an event
// to every event that could immediately chronologically/spatially follow it
// on the same bus.
type Graph struct {
	kmPerUnit       float64
	averageKmh      float64
	transferSeconds int64

	events map[int]*Event
	in     map[int][]*Event
	out    map[int][]*Event

	// requestPickUps and requestDropOffs track, per split id, the PickUp and
	// DropOff events it appears as First in -- mirrors request_dict in the source.
	requestPickUps  map[int][]*Event
	requestDropOffs map[int][]*Event

	idleByLine map[int]*Event
	splits     map[int]*model.SplitRequest
}

// New builds an empty graph parameterized by the planning config's speed
// and transfer-time constants.
func New(cfg config.PlanningConfig) *Graph {
	return &Graph{
		kmPerUnit:       cfg.KmPerUnit,
		averageKmh:      cfg.AverageKmh,
		transferSeconds: cfg.TransferSeconds,
		events:          map[int]*Event{},
		in:              map[int][]*Event{},
		out:             map[int][]*Event{},
		requestPickUps:  map[int][]*Event{},
		requestDropOffs: map[int][]*Event{},
		idleByLine:      map[int]*Event{},
		splits:          map[int]*model.SplitRequest{},
	}
}

// IdleEventForLine returns the single idle anchor event of a line, or nil if
// that line has no events in the graph.
func (g *Graph) IdleEventForLine(lineID int) *Event { return g.idleByLine[lineID] }

// Splits returns every split request referenced by a non-idle event, sorted
// by split id for deterministic downstream iteration.
func (g *Graph) Splits() []*model.SplitRequest {
	ids := make([]int, 0, len(g.splits))
	for id := range g.splits {
		ids = append(ids, id)
	}
	sortInts(ids)
	out := make([]*model.SplitRequest, len(ids))
	for i, id := range ids {
		out[i] = g.splits[id]
	}
	return out
}

func sortInts(ids []int) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// sortUint64s sorts bucket hash keys before iteration so edge construction
// never depends on Go's randomized map iteration order (SPEC_FULL.md 5's
// determinism rule).
func sortUint64s(ids []uint64) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// EdgesIn returns the events that may immediately precede e.
func (g *Graph) EdgesIn(e *Event) []*Event { return g.in[e.ID] }

// EdgesOut returns the events that may immediately follow e.
func (g *Graph) EdgesOut(e *Event) []*Event { return g.out[e.ID] }

// PickUpEvents returns every PickUp event whose First has the given split id.
func (g *Graph) PickUpEvents(splitID int) []*Event { return g.requestPickUps[splitID] }

// DropOffEvents returns every DropOff event whose First has the given split id.
func (g *Graph) DropOffEvents(splitID int) []*Event { return g.requestDropOffs[splitID] }

// NodeCount is the number of events in the graph.
func (g *Graph) NodeCount() int { return len(g.events) }

// EdgeCount is the total number of directed edges in the graph.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, out := range g.out {
		n += len(out)
	}
	return n
}

// Events returns every event in insertion order (stable: event ids are
// assigned monotonically at construction time).
func (g *Graph) Events() []*Event {
	out := make([]*Event, 0, len(g.events))
	for _, e := range g.events {
		out = append(out, e)
	}
	sortEventsByID(out)
	return out
}

func sortEventsByID(events []*Event) {
	for i := 1; i < len(events); i++ {
		for j := i; j > 0 && events[j-1].ID > events[j].ID; j-- {
			events[j-1], events[j] = events[j], events[j-1]
		}
	}
}

func (g *Graph) String() string {
	return fmt.Sprintf("event graph: %d split requests, %d nodes, %d edges",
		len(g.requestPickUps), len(g.events), g.EdgeCount())
}

type bucketEntry struct {
	key  []int
	pred []*Event // events whose AFTER-state equals key
	succ []*Event // events whose BEFORE-state equals key
}

// bucketFor finds (or creates) the bucket entry for a canonical key,
// verifying exact slice equality against every same-hash entry rather than
// trusting the hash alone.
func bucketFor(buckets map[uint64][]*bucketEntry, key []int) *bucketEntry {
	h := hashIntSlice(key)
	for _, be := range buckets[h] {
		if intSliceEqual(be.key, key) {
			return be
		}
	}
	be := &bucketEntry{key: key}
	buckets[h] = append(buckets[h], be)
	return be
}

// AddEvents registers a set of events generated for one line (covering both
// directions) and connects every pair whose onboard passenger state is
// continuous and whose timing permits travel between their locations, per
// SPEC_FULL.md 4.4's hash-bucketed edge construction.
func (g *Graph) AddEvents(events []*Event) {
	buckets := map[uint64][]*bucketEntry{}

	for _, e := range events {
		g.events[e.ID] = e
		if _, ok := g.in[e.ID]; !ok {
			g.in[e.ID] = nil
		}
		if _, ok := g.out[e.ID]; !ok {
			g.out[e.ID] = nil
		}
		switch e.Kind {
		case Idle:
			g.idleByLine[e.Line.ID] = e
		case PickUp:
			g.requestPickUps[e.First.SplitID] = append(g.requestPickUps[e.First.SplitID], e)
			g.splits[e.First.SplitID] = e.First
		case DropOff:
			g.requestDropOffs[e.First.SplitID] = append(g.requestDropOffs[e.First.SplitID], e)
			g.splits[e.First.SplitID] = e.First
		}

		beforeKey := sortedKeys(e.BeforeSet())
		afterKey := sortedKeys(e.AfterSet())
		bucketFor(buckets, beforeKey).succ = append(bucketFor(buckets, beforeKey).succ, e)
		bucketFor(buckets, afterKey).pred = append(bucketFor(buckets, afterKey).pred, e)
	}

	hashes := make([]uint64, 0, len(buckets))
	for h := range buckets {
		hashes = append(hashes, h)
	}
	sortUint64s(hashes)

	for _, h := range hashes {
		for _, be := range buckets[h] {
			for _, pred := range be.pred {
				for _, succ := range be.succ {
					if pred == succ {
						continue
					}
					g.tryConnect(pred, succ)
				}
			}
		}
	}
}

func (g *Graph) tryConnect(before, after *Event) {
	dist := before.Location.DistanceKm(after.Location, g.kmPerUnit)
	duration := timeutil.DistanceToDuration(dist, g.averageKmh)
	serviceTime := int64(0)
	if duration > 0 {
		serviceTime = g.transferSeconds
	}
	if before.EarliestDepart.Add(duration + serviceTime).BeforeEqual(after.LatestDepart) {
		g.in[after.ID] = append(g.in[after.ID], before)
		g.out[before.ID] = append(g.out[before.ID], after)
	}
}

// CheckConnectivity verifies every non-idle event belonging to idle's line
// has a path to and from idle, returning an error describing the orphaned
// events rather than panicking (the distilled spec treats this as a
// constructed-model invariant, not a user-facing failure mode; see
// SPEC_FULL.md 4.4 and invariant I-* coverage for "every event reachable").
func (g *Graph) CheckConnectivity(idle *Event) error {
	relevant := map[int]bool{idle.ID: true}
	for _, e := range g.events {
		if e.Kind != Idle && e.First.Line.ID == idle.Line.ID {
			relevant[e.ID] = true
		}
	}

	reachableForward := g.bfs(idle, relevant, g.out)
	reachableBackward := g.bfs(idle, relevant, g.in)

	var unconnected []int
	for id := range relevant {
		if !reachableForward[id] || !reachableBackward[id] {
			unconnected = append(unconnected, id)
		}
	}
	if len(unconnected) > 0 {
		return errors.Errorf("event graph: %d events on line %d not connected to idle event", len(unconnected), idle.Line.ID)
	}
	return nil
}

func (g *Graph) bfs(start *Event, relevant map[int]bool, adjacency map[int][]*Event) map[int]bool {
	visited := map[int]bool{start.ID: true}
	frontier := []*Event{start}
	for len(frontier) > 0 {
		var next []*Event
		for _, e := range frontier {
			for _, nb := range adjacency[e.ID] {
				if relevant[nb.ID] && !visited[nb.ID] {
					visited[nb.ID] = true
					next = append(next, nb)
				}
			}
		}
		frontier = next
	}
	return visited
}

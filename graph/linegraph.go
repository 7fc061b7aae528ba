// Package graph implements the line graph (a directed multigraph over stops,
// edges labeled by line) and the decrease-key priority queue request
// preprocessing's Dijkstra pass runs on, per SPEC_FULL.md 4.2.
package graph

import (
	"lidarpt/model"
	"lidarpt/timeutil"
)

// Edge connects two stops via one line, with a precomputed travel duration.
type Edge struct {
	From, To *model.Stop
	Line     *model.Line
	Duration int64 // seconds
}

type adjacency struct {
	in, out []*Edge
}

// LineGraph is a directed multigraph over stops built from a Network's
// lines: for each line, edges connect every pair of its transfer stops (the
// stops it shares with at least one other line) in line-direction order.
type LineGraph struct {
	kmPerUnit  float64
	averageKmh float64

	adj map[int]*adjacency // stop id -> adjacency
	stopByID map[int]*model.Stop

	// tempEdges tracks edges added by AddRequest, keyed by the (pickup,
	// dropoff) pair that introduced them, so DeleteRequest can remove
	// exactly what was added -- the add/delete exact-inverse contract.
	tempEdges map[requestKey][]*Edge
	// tempNodes tracks which endpoint stops were newly introduced as nodes
	// by a request (as opposed to already being transfer nodes), so they
	// can be dropped again once orphaned.
	tempNodes map[requestKey][]int
}

type requestKey struct {
	pickUp, dropOff int
}

// NewLineGraph builds the base graph (no requests added) from a network.
func NewLineGraph(lines map[int]*model.Line, kmPerUnit, averageKmh float64) *LineGraph {
	g := &LineGraph{
		kmPerUnit:  kmPerUnit,
		averageKmh: averageKmh,
		adj:        map[int]*adjacency{},
		stopByID:   map[int]*model.Stop{},
		tempEdges:  map[requestKey][]*Edge{},
		tempNodes:  map[requestKey][]int{},
	}
	g.build(lines)
	return g
}

func (g *LineGraph) build(lines map[int]*model.Line) {
	for _, line := range lines {
		transfers := g.transferStops(line, lines)
		for _, a := range transfers {
			g.ensureNode(a)
			for _, b := range transfers {
				if a.ID == b.ID {
					continue
				}
				g.addEdge(a, b, line)
			}
		}
	}
}

// transferStops returns line's stops that also appear on at least one other
// line (SPEC_FULL.md 4.2's T_L).
func (g *LineGraph) transferStops(line *model.Line, lines map[int]*model.Line) []*model.Stop {
	others := map[int]bool{}
	for _, other := range lines {
		if other.ID == line.ID {
			continue
		}
		for _, s := range other.Stops {
			others[s.ID] = true
		}
	}
	var out []*model.Stop
	for _, s := range line.Stops {
		if others[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

func (g *LineGraph) duration(a, b *model.Stop) int64 {
	dist := a.DistanceKm(b, g.kmPerUnit)
	return timeutil.DistanceToDuration(dist, g.averageKmh)
}

func (g *LineGraph) ensureNode(s *model.Stop) *adjacency {
	a, ok := g.adj[s.ID]
	if !ok {
		a = &adjacency{}
		g.adj[s.ID] = a
		g.stopByID[s.ID] = s
	}
	return a
}

func (g *LineGraph) addEdge(from, to *model.Stop, line *model.Line) *Edge {
	e := &Edge{From: from, To: to, Line: line, Duration: g.duration(from, to)}
	g.ensureNode(from).out = append(g.ensureNode(from).out, e)
	g.ensureNode(to).in = append(g.ensureNode(to).in, e)
	return e
}

// Out returns the outgoing edges from a stop id (nil if the stop is not a
// node of the graph).
func (g *LineGraph) Out(stopID int) []*Edge {
	a, ok := g.adj[stopID]
	if !ok {
		return nil
	}
	return a.out
}

// In returns the incoming edges to a stop id.
func (g *LineGraph) In(stopID int) []*Edge {
	a, ok := g.adj[stopID]
	if !ok {
		return nil
	}
	return a.in
}

// HasNode reports whether a stop is already a node of the graph.
func (g *LineGraph) HasNode(stopID int) bool {
	_, ok := g.adj[stopID]
	return ok
}

// uniqueLine finds the single line containing stopID among the given lines.
// The distilled spec assumes pickup/dropoff each belong to exactly one line
// when not already a transfer node.
func uniqueLine(stopID int, lines map[int]*model.Line) *model.Line {
	for _, l := range lines {
		if l.HasStop(stopID) {
			return l
		}
	}
	return nil
}

// AddRequest augments the graph with temporary edges for a request's pickup
// and dropoff, per SPEC_FULL.md 4.2's per-request augmentation. lines is the
// full line set (needed to find the owning line of a non-transfer stop).
func (g *LineGraph) AddRequest(pickUp, dropOff *model.Stop, lines map[int]*model.Line) {
	key := requestKey{pickUp.ID, dropOff.ID}
	if _, already := g.tempEdges[key]; already {
		return
	}
	var edges []*Edge
	var newNodes []int

	addForStop := func(s *model.Stop) {
		if g.HasNode(s.ID) {
			return
		}
		line := uniqueLine(s.ID, lines)
		if line == nil {
			return
		}
		newNodes = append(newNodes, s.ID)
		transfers := g.transferStops(line, lines)
		idx := line.StopIndex(s.ID)
		for _, t := range transfers {
			tIdx := line.StopIndex(t.ID)
			if tIdx == idx {
				continue
			}
			if tIdx < idx {
				edges = append(edges, g.addEdge(t, s, line))
			} else {
				edges = append(edges, g.addEdge(s, t, line))
			}
		}
	}

	addForStop(pickUp)
	addForStop(dropOff)

	g.tempEdges[key] = edges
	g.tempNodes[key] = newNodes
}

// DeleteRequest removes exactly what the matching AddRequest call added,
// restoring the base graph byte-for-byte (the add/delete exact-inverse
// contract tested by invariant 1 in SPEC_FULL.md 8).
func (g *LineGraph) DeleteRequest(pickUp, dropOff *model.Stop) {
	key := requestKey{pickUp.ID, dropOff.ID}
	edges, ok := g.tempEdges[key]
	if !ok {
		return
	}
	for _, e := range edges {
		g.removeEdge(e)
	}
	for _, stopID := range g.tempNodes[key] {
		if a, ok := g.adj[stopID]; ok && len(a.in) == 0 && len(a.out) == 0 {
			delete(g.adj, stopID)
			delete(g.stopByID, stopID)
		}
	}
	delete(g.tempEdges, key)
	delete(g.tempNodes, key)
}

func (g *LineGraph) removeEdge(e *Edge) {
	if a, ok := g.adj[e.From.ID]; ok {
		a.out = removeEdgeFromSlice(a.out, e)
	}
	if a, ok := g.adj[e.To.ID]; ok {
		a.in = removeEdgeFromSlice(a.in, e)
	}
}

func removeEdgeFromSlice(edges []*Edge, target *Edge) []*Edge {
	out := edges[:0]
	for _, e := range edges {
		if e != target {
			out = append(out, e)
		}
	}
	return out
}

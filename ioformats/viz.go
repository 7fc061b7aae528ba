package ioformats

import (
	"io"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"lidarpt/model"
)

// VizStop is one stop's plottable coordinate.
type VizStop struct {
	ID int       `json:"id"`
	X  float64   `json:"x"`
	Y  float64   `json:"y"`
}

// VizSegment is one travelled network edge, aggregated across every bus
// that drove it, for a plan-plot renderer's line thickness.
type VizSegment struct {
	FromStopID int     `json:"fromStopId"`
	ToStopID   int     `json:"toStopId"`
	LineID     int     `json:"lineId"`
	KmTotal    float64 `json:"kmTotal"`
}

// VizPlan is the plan.viz.json sidecar's shape: the data a plan-plot
// renderer needs, without this repository fabricating a plotting
// dependency itself (see DESIGN.md's ioformats entry).
type VizPlan struct {
	Stops    []VizStop    `json:"stops"`
	Segments []VizSegment `json:"segments"`
}

// BuildVizPlan aggregates per-network-segment travelled distance across
// every route, mirroring IOHandler.py's visualize_plan segment_dict pass.
func BuildVizPlan(network *model.Network, routes []*model.Route, kmPerUnit float64) VizPlan {
	stops := make([]VizStop, 0, len(network.Stops))
	ids := make([]int, 0, len(network.Stops))
	for id := range network.Stops {
		ids = append(ids, id)
	}
	sortInts(ids)
	for _, id := range ids {
		s := network.Stops[id]
		stops = append(stops, VizStop{ID: s.ID, X: s.Point[0], Y: s.Point[1]})
	}

	type segKey struct{ a, b int }
	totals := map[segKey]float64{}
	lineOf := map[segKey]int{}
	var order []segKey

	for _, route := range routes {
		for i := 0; i+1 < len(route.StopList); i++ {
			a, b := route.StopList[i].Stop.ID, route.StopList[i+1].Stop.ID
			if a == b {
				continue
			}
			key := segKey{a, b}
			if a > b {
				key = segKey{b, a}
			}
			if _, ok := totals[key]; !ok {
				order = append(order, key)
				lineOf[key] = route.Bus.Line.ID
			}
			totals[key] += route.StopList[i].Stop.DistanceKm(route.StopList[i+1].Stop, kmPerUnit)
		}
	}

	segments := make([]VizSegment, 0, len(order))
	for _, key := range order {
		segments = append(segments, VizSegment{
			FromStopID: key.a,
			ToStopID:   key.b,
			LineID:     lineOf[key],
			KmTotal:    round3(totals[key]),
		})
	}

	return VizPlan{Stops: stops, Segments: segments}
}

// WriteVizSidecar writes plan.viz.json.
func WriteVizSidecar(w io.Writer, plan VizPlan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plan); err != nil {
		return errors.Wrap(err, "writing plan.viz.json")
	}
	return nil
}

func sortInts(ids []int) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

package ioformats

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"lidarpt/graph"
	"lidarpt/model"
	"lidarpt/preprocess"
	"lidarpt/timeutil"

	"lidarpt/config"
)

// RequestRow is the on-disk shape of one requests.csv row (distilled §6:
// "id, registerTime, earliestStart, pickupStopId, dropoffStopId, groupSize").
type RequestRow struct {
	ID            int    `csv:"id"`
	RegisterTime  string `csv:"registerTime"`
	EarliestStart string `csv:"earliestStart"`
	PickUpStopID  int    `csv:"pickupStopId"`
	DropOffStopID int    `csv:"dropoffStopId"`
	GroupSize     int    `csv:"groupSize"`
}

// LoadRequests decodes the requests CSV and runs each row through the full
// preprocessing pipeline (fastest path, route-option enumeration, time
// window tightening), mirroring IOHandler.py's read_requests: the line
// graph is mutated (add then delete) around each request so its fastest
// path and route options are computed against the base network plus only
// that request's own pick-up/drop-off edges.
func LoadRequests(r io.Reader, g *graph.LineGraph, lines map[int]*model.Line, stops map[int]*model.Stop, cfg config.PlanningConfig) ([]*model.Request, error) {
	var rows []*RequestRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(err, "unmarshaling requests csv")
	}

	requests := make([]*model.Request, 0, len(rows))
	for _, row := range rows {
		pickUp, ok := stops[row.PickUpStopID]
		if !ok {
			return nil, errors.Errorf("request %d: unknown pickup stop %d", row.ID, row.PickUpStopID)
		}
		dropOff, ok := stops[row.DropOffStopID]
		if !ok {
			return nil, errors.Errorf("request %d: unknown dropoff stop %d", row.ID, row.DropOffStopID)
		}
		registerTime, err := timeutil.Parse(row.RegisterTime)
		if err != nil {
			return nil, errors.Wrapf(err, "request %d registerTime", row.ID)
		}
		earliestStart, err := timeutil.Parse(row.EarliestStart)
		if err != nil {
			return nil, errors.Wrapf(err, "request %d earliestStart", row.ID)
		}

		req := &model.Request{
			ID:            row.ID,
			GroupSize:     row.GroupSize,
			PickUp:        pickUp,
			DropOff:       dropOff,
			RegisterTime:  registerTime,
			EarliestStart: earliestStart,
		}

		preprocess.PreprocessRequest(g, lines, req, cfg)
		requests = append(requests, req)
	}

	return requests, nil
}

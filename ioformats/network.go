// Package ioformats is the liDARPT system's boundary with the outside world:
// network/requests loading, CSV/JSON report writing, and a sqlite-backed
// run-history store. It ports IOHandler.py's read_bus_network, read_requests,
// and create_output, grounded in the teacher's model/route_loader.go JSON
// decode shape and tidbyt-gtfs's gocsv-based CSV layer.
package ioformats

import (
	"io"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"lidarpt/model"
	"lidarpt/timeutil"
)

type rawStop struct {
	ID          int       `json:"id"`
	Coordinates []float64 `json:"coordinates"`
}

type rawLine struct {
	ID        int       `json:"id"`
	Stops     []int     `json:"stops"`
	Depot     []float64 `json:"depot"`
	Capacity  *int      `json:"capacity"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
}

type rawBus struct {
	ID   int `json:"id"`
	Line int `json:"line"`
}

type rawNetwork struct {
	Stops []rawStop `json:"stops"`
	Lines []rawLine `json:"lines"`
	Buses []rawBus  `json:"buses"`
}

// LoadNetwork decodes the network JSON file ({stops, lines, buses}) into a
// model.Network. A line depot coordinate that matches no declared stop
// induces a synthetic stop with a freshly assigned id, per distilled §6.
func LoadNetwork(r io.Reader, capacityPerLine *int) (*model.Network, error) {
	var raw rawNetwork
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decoding network JSON")
	}

	stops := map[int]*model.Stop{}
	maxID := 0
	depotByCoord := map[[2]float64]*model.Stop{}
	for _, rs := range raw.Stops {
		if len(rs.Coordinates) != 2 {
			return nil, errors.Errorf("stop %d: expected 2 coordinates, got %d", rs.ID, len(rs.Coordinates))
		}
		s := model.NewStop(rs.ID, rs.Coordinates[0], rs.Coordinates[1])
		stops[rs.ID] = s
		if rs.ID > maxID {
			maxID = rs.ID
		}
		depotByCoord[[2]float64{rs.Coordinates[0], rs.Coordinates[1]}] = s
	}

	lines := map[int]*model.Line{}
	for _, rl := range raw.Lines {
		if len(rl.Depot) != 2 {
			return nil, errors.Errorf("line %d: expected 2 depot coordinates, got %d", rl.ID, len(rl.Depot))
		}
		key := [2]float64{rl.Depot[0], rl.Depot[1]}
		depot, ok := depotByCoord[key]
		if !ok {
			maxID++
			depot = model.NewStop(maxID, rl.Depot[0], rl.Depot[1])
			depotByCoord[key] = depot
			stops[depot.ID] = depot
		}

		lineStops := make([]*model.Stop, 0, len(rl.Stops))
		for _, stopID := range rl.Stops {
			s, ok := stops[stopID]
			if !ok {
				return nil, errors.Errorf("line %d: unknown stop id %d", rl.ID, stopID)
			}
			lineStops = append(lineStops, s)
		}

		capacity, err := resolveCapacity(rl, capacityPerLine)
		if err != nil {
			return nil, err
		}

		start, err := timeutil.Parse(rl.StartTime)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d startTime", rl.ID)
		}
		end, err := timeutil.Parse(rl.EndTime)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d endTime", rl.ID)
		}

		lines[rl.ID] = &model.Line{
			ID:        rl.ID,
			Stops:     lineStops,
			Depot:     depot,
			Capacity:  capacity,
			StartTime: start,
			EndTime:   end,
		}
	}

	var buses []*model.Bus
	for _, rb := range raw.Buses {
		line, ok := lines[rb.Line]
		if !ok {
			return nil, errors.Errorf("bus %d: unknown line id %d", rb.ID, rb.Line)
		}
		buses = append(buses, &model.Bus{ID: rb.ID, Line: line})
	}

	return &model.Network{Stops: stops, Lines: lines, Buses: buses}, nil
}

func resolveCapacity(rl rawLine, capacityPerLine *int) (int, error) {
	if capacityPerLine != nil {
		return *capacityPerLine, nil
	}
	if rl.Capacity == nil {
		return 0, errors.Errorf("line %d: no global capacity configured and line specifies none", rl.ID)
	}
	return *rl.Capacity, nil
}

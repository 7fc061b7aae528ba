package ioformats

import (
	"sort"

	"lidarpt/config"
	"lidarpt/model"
)

// RequestReportRow is one row of requests_out.csv.
type RequestReportRow struct {
	UserID          int    `csv:"user id"`
	BusesUsed       string `csv:"buses used"`
	TransferStops   string `csv:"transfer stops"`
	WaitMinutes     string `csv:"wait min"`
	RideMinutes     string `csv:"ride min"`
	ShortestMinutes float64 `csv:"shortest min"`
	Transfers       int    `csv:"transfers"`
}

// OverallReport is overall_out.csv's KPI set.
type OverallReport struct {
	KmTravelledTotal    float64
	KmEmptyTotal        float64
	KmUsedTotal         float64
	SystemEfficiency    float64
	DeviationFactor     float64
	VehicleUtilization  float64
	EmptyKmShare        float64
	RequestsAccepted    int
	RequestsDenied      int
	IntegralityGapFirst float64
	IntegralityGapSecond float64
	NumberOfSplits      int
	EventGraphNodes     int
	EventGraphEdges     int
}

// Report bundles both output tables for one completed run.
type Report struct {
	Requests []RequestReportRow
	Overall  OverallReport
}

// BuildReport replays every route's stop list in order, attributing
// travelled distance to either onboard requests or empty running, then
// assembles both output tables. It ports IOHandler.py's create_output KPI
// pass.
func BuildReport(routes []*model.Route, requests []*model.Request, cfg config.PlanningConfig, telemetry *config.Telemetry) Report {
	reqKm := map[int]float64{}
	reqTransferStops := map[int][]int{}
	reqBuses := map[int][]int{}
	for _, r := range requests {
		reqKm[r.ID] = 0
		if r.HasActualStart {
			reqTransferStops[r.ID] = []int{r.PickUp.ID}
		}
	}

	var busKmTotal, busKmEmpty float64

	for _, route := range routes {
		if len(route.StopList) == 0 {
			continue
		}
		passengers := map[int]bool{}
		for _, sr := range route.StopList[0].PickUp {
			passengers[sr.Parent.ID] = true
		}

		prev := route.StopList[0]
		for _, curr := range route.StopList[1:] {
			km := prev.Stop.DistanceKm(curr.Stop, cfg.KmPerUnit)
			busKmTotal += km
			if len(passengers) == 0 {
				busKmEmpty += km
			} else {
				for reqID := range passengers {
					reqKm[reqID] += km
				}
			}

			for _, sr := range curr.DropOff {
				reqTransferStops[sr.Parent.ID] = append(reqTransferStops[sr.Parent.ID], curr.Stop.ID)
				reqBuses[sr.Parent.ID] = append(reqBuses[sr.Parent.ID], route.Bus.ID)
				delete(passengers, sr.Parent.ID)
			}
			for _, sr := range curr.PickUp {
				passengers[sr.Parent.ID] = true
			}

			prev = curr
		}
	}

	sorted := append([]*model.Request(nil), requests...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var rows []RequestReportRow
	accepted := 0
	var kmBooked float64
	for _, req := range sorted {
		shortestMinutes := round2(float64(req.FastestTime) / 60.0)
		if req.HasActualStart {
			accepted++
			kmReq := reqKm[req.ID]
			kmBooked += timeDistanceBooked(req, cfg)
			travelled := req.ActualEnd.Minus(req.ActualStart).Seconds()
			rideSeconds := kmToSeconds(kmReq, cfg.AverageKmh)
			waitSeconds := travelled - rideSeconds
			rows = append(rows, RequestReportRow{
				UserID:          req.ID,
				BusesUsed:       formatInts(reqBuses[req.ID]),
				TransferStops:   formatInts(reqTransferStops[req.ID]),
				WaitMinutes:      formatMinutes(waitSeconds),
				RideMinutes:      formatMinutes(rideSeconds),
				ShortestMinutes: shortestMinutes,
				Transfers:       req.NumbTransfer,
			})
		} else {
			rows = append(rows, RequestReportRow{
				UserID:          req.ID,
				BusesUsed:       "-",
				TransferStops:   "-",
				WaitMinutes:      "-",
				RideMinutes:      "-",
				ShortestMinutes: shortestMinutes,
				Transfers:       req.NumbTransfer,
			})
		}
	}

	overall := OverallReport{
		KmTravelledTotal:     round3(busKmTotal),
		KmEmptyTotal:         round3(busKmEmpty),
		KmUsedTotal:          round3(busKmTotal - busKmEmpty),
		RequestsAccepted:     accepted,
		RequestsDenied:       len(requests) - accepted,
		IntegralityGapFirst:  0,
		IntegralityGapSecond: 0,
		NumberOfSplits:       0,
		EventGraphNodes:      0,
		EventGraphEdges:      0,
	}
	if telemetry != nil {
		overall.IntegralityGapFirst = telemetry.IntegralityGapFirst
		overall.IntegralityGapSecond = telemetry.IntegralityGapSecond
		overall.NumberOfSplits = telemetry.NumberOfSplits
		overall.EventGraphNodes = telemetry.EventGraphNodes
		overall.EventGraphEdges = telemetry.EventGraphEdges
	}

	var accumulatedReqKm float64
	for _, km := range reqKm {
		accumulatedReqKm += km
	}
	if busKmTotal > 0 {
		overall.SystemEfficiency = round3(kmBooked / busKmTotal)
		overall.EmptyKmShare = round3(busKmEmpty / busKmTotal)
	}
	if kmBooked > 0 {
		overall.DeviationFactor = round3(accumulatedReqKm / kmBooked)
	}
	if overall.KmUsedTotal > 0 {
		overall.VehicleUtilization = round3(accumulatedReqKm / overall.KmUsedTotal)
	}

	return Report{Requests: rows, Overall: overall}
}

func timeDistanceBooked(req *model.Request, cfg config.PlanningConfig) float64 {
	directSeconds := req.FastestTime - cfg.TransferSeconds*int64(req.NumbTransfer)
	if directSeconds < 0 {
		directSeconds = 0
	}
	return float64(directSeconds) * cfg.AverageKmh / 3600.0
}

func kmToSeconds(km, averageKmh float64) int64 {
	if averageKmh == 0 {
		return 0
	}
	return int64(km*3600.0/averageKmh + 0.5)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func round3(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}

func formatMinutes(seconds int64) string {
	return formatFloat(round2(float64(seconds) / 60.0))
}

func formatFloat(v float64) string {
	return trimTrailingZeros(v)
}

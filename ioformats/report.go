package ioformats

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"lidarpt/model"
)

// BusStopRow is one row of a per-bus output CSV.
type BusStopRow struct {
	Number        int    `csv:"number"`
	StopID        int    `csv:"stop ID"`
	ArrivalTime   string `csv:"arrival"`
	DepartureTime string `csv:"departure"`
	PickUpIDs     string `csv:"pickup ids"`
	DropOffIDs    string `csv:"dropoff ids"`
}

// WriteBusRoute writes one bus's stop list as CSV, numbered from 1.
func WriteBusRoute(w io.Writer, route *model.Route) error {
	rows := make([]*BusStopRow, 0, len(route.StopList))
	for i, stop := range route.StopList {
		rows = append(rows, &BusStopRow{
			Number:        i + 1,
			StopID:        stop.Stop.ID,
			ArrivalTime:   stop.ArrivalTime.String(),
			DepartureTime: stop.DepartTime.String(),
			PickUpIDs:     formatInts(parentIDs(stop.PickUp)),
			DropOffIDs:    formatInts(parentIDs(stop.DropOff)),
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return errors.Wrapf(err, "writing bus %d route csv", route.Bus.ID)
	}
	return nil
}

func parentIDs(splits map[int]*model.SplitRequest) []int {
	ids := make([]int, 0, len(splits))
	for _, sr := range splits {
		ids = append(ids, sr.Parent.ID)
	}
	return ids
}

// WriteRequestsReport writes requests_out.csv.
func WriteRequestsReport(w io.Writer, rows []RequestReportRow) error {
	ptrs := make([]*RequestReportRow, len(rows))
	for i := range rows {
		ptrs[i] = &rows[i]
	}
	if err := gocsv.Marshal(ptrs, w); err != nil {
		return errors.Wrap(err, "writing requests report csv")
	}
	return nil
}

type overallRow struct {
	Metric string  `csv:"metric"`
	Value  string  `csv:"value"`
}

// WriteOverallReport writes overall_out.csv's KPI rows.
func WriteOverallReport(w io.Writer, o OverallReport) error {
	rows := []*overallRow{
		{"km travelled total", trimTrailingZeros(o.KmTravelledTotal)},
		{"empty km total", trimTrailingZeros(o.KmEmptyTotal)},
		{"used km total", trimTrailingZeros(o.KmUsedTotal)},
		{"system efficiency", trimTrailingZeros(o.SystemEfficiency)},
		{"deviation factor", trimTrailingZeros(o.DeviationFactor)},
		{"vehicle utilization", trimTrailingZeros(o.VehicleUtilization)},
		{"empty km share", trimTrailingZeros(o.EmptyKmShare)},
		{"requests accepted", trimTrailingZeros(float64(o.RequestsAccepted))},
		{"requests denied", trimTrailingZeros(float64(o.RequestsDenied))},
		{"relative MIP gap requests", trimTrailingZeros(o.IntegralityGapFirst)},
		{"relative MIP gap km travelled", trimTrailingZeros(o.IntegralityGapSecond)},
		{"number of split requests", trimTrailingZeros(float64(o.NumberOfSplits))},
		{"event graph nodes", trimTrailingZeros(float64(o.EventGraphNodes))},
		{"event graph edges", trimTrailingZeros(float64(o.EventGraphEdges))},
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return errors.Wrap(err, "writing overall report csv")
	}
	return nil
}

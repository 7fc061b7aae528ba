package model

import "lidarpt/timeutil"

// Request is a passenger transportation request: move a group of riders from
// a pickup stop to a dropoff stop within a time window, possibly across
// multiple lines.
type Request struct {
	ID               int
	GroupSize        int
	PickUp           *Stop
	DropOff          *Stop
	RegisterTime     timeutil.Time
	EarliestStart    timeutil.Time
	LatestStart      timeutil.Time
	EarliestArrival  timeutil.Time
	LatestArrival    timeutil.Time
	FastestTime      int64 // seconds
	NumbTransfer     int

	// RouteOptions holds every feasible multi-leg path from PickUp to
	// DropOff, keyed by an arbitrary stable option index assigned during
	// preprocessing (DFS emission order).
	RouteOptions map[int][]*SplitRequest

	// Denied is set during preprocessing when no feasible path exists
	// between PickUp and DropOff (see SPEC_FULL.md 4.3's deny-and-continue
	// redesign); such requests are never handed to the MIP builder.
	Denied       bool
	DeniedReason string

	// ActualStart/ActualEnd are filled in by the executor/validator after a
	// plan is decoded; HasActualStart/HasActualEnd false means the request
	// was not served.
	ActualStart    timeutil.Time
	ActualEnd      timeutil.Time
	HasActualStart bool
	HasActualEnd   bool
}

// MaxTravelTime is latest_arrival - latest_start, the per-request bound on
// total in-vehicle-plus-transfer time used to prune DFS route enumeration.
func (r *Request) MaxTravelTime() int64 {
	return r.LatestArrival.Minus(r.LatestStart).Seconds()
}

// nextSplitID is a process-wide monotonic counter mirroring the Python
// source's class-level id_counter. A counter, not a global container, so it
// carries no planning state and does not affect determinism of the pipeline
// itself (split identity within one run is still driven by the stable
// LineEdge->SplitRequest map built during preprocessing).
var nextSplitID int

// ResetSplitIDs reseeds the split-id counter; exposed for tests and for
// successive runs within one process that must not let ids drift across
// calls (the CLI calls this once per `plan` invocation).
func ResetSplitIDs() { nextSplitID = 0 }

// SplitRequest is one leg of one route option of one request: ride line L
// from PickUp to DropOff, with its own tightened time windows.
type SplitRequest struct {
	SplitID int
	Parent  *Request
	Line    *Line
	PickUp  *Stop
	DropOff *Stop

	EarliestStart   timeutil.Time
	LatestStart     timeutil.Time
	EarliestArrival timeutil.Time
	LatestArrival   timeutil.Time

	startWindowSet   bool
	arrivalWindowSet bool
}

// NewSplitRequest allocates a new SplitRequest with the next stable split id.
func NewSplitRequest(parent *Request, line *Line, pickUp, dropOff *Stop) *SplitRequest {
	nextSplitID++
	return &SplitRequest{
		SplitID: nextSplitID,
		Parent:  parent,
		Line:    line,
		PickUp:  pickUp,
		DropOff: dropOff,
	}
}

// Direction reports 0 if PickUp precedes DropOff in the line's stop order,
// else 1, per SPEC_FULL.md 4.4's direction-partitioning rule.
func (s *SplitRequest) Direction() int {
	if s.Line.StopIndex(s.PickUp.ID) < s.Line.StopIndex(s.DropOff.ID) {
		return 0
	}
	return 1
}

// SegmentDurationSeconds is the minimum travel time for this leg alone, at
// the configured average speed, used by time-window tightening.
func (s *SplitRequest) SegmentDurationSeconds(kmPerUnit, averageKmh float64) int64 {
	dist := s.PickUp.DistanceKm(s.DropOff, kmPerUnit)
	return timeutil.DistanceToDuration(dist, averageKmh)
}

// WidenStart widens the leg's pickup window to the most permissive bounds
// seen across every route option sharing this SplitRequest identity (the
// distilled spec's "when multiple options share a SplitRequest identity,
// widen" rule in 4.3).
func (s *SplitRequest) WidenStart(earliest, latest timeutil.Time) {
	if !s.startWindowSet {
		s.EarliestStart, s.LatestStart, s.startWindowSet = earliest, latest, true
		return
	}
	if earliest.Before(s.EarliestStart) {
		s.EarliestStart = earliest
	}
	if latest.After(s.LatestStart) {
		s.LatestStart = latest
	}
}

// WidenArrival is WidenStart's dropoff-window counterpart.
func (s *SplitRequest) WidenArrival(earliest, latest timeutil.Time) {
	if !s.arrivalWindowSet {
		s.EarliestArrival, s.LatestArrival, s.arrivalWindowSet = earliest, latest, true
		return
	}
	if earliest.Before(s.EarliestArrival) {
		s.EarliestArrival = earliest
	}
	if latest.After(s.LatestArrival) {
		s.LatestArrival = latest
	}
}

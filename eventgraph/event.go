// Package eventgraph builds the event graph an event-based MILP is built
// over: nodes are "events" (a split request being picked up or dropped off
// alongside some set of co-passengers already aboard), edges connect an
// event to every event that could chronologically and spatially follow it
// on the same bus, per SPEC_FULL.md 4.4.
package eventgraph

import (
	"lidarpt/model"
	"lidarpt/timeutil"
)

// Kind distinguishes the three event shapes. A plain enum rather than an
// Event subclass hierarchy: the fields that vary (First, Remaining) are
// nil/empty for IdleEvent instead of being modeled as separate types.
type Kind int

const (
	Idle Kind = iota
	PickUp
	DropOff
)

// Event is one node of the event graph.
type Event struct {
	ID   int
	Kind Kind
	Line *model.Line

	// First is the split request this event is about; nil for Idle.
	First *model.SplitRequest
	// Remaining holds the other split requests assumed aboard alongside
	// First, keyed by split id for deterministic iteration.
	Remaining map[int]*model.SplitRequest

	Location       *model.Stop
	EarliestDepart timeutil.Time
	LatestDepart   timeutil.Time
}

var nextEventID int

// ResetEventIDs reseeds the event-id counter; exposed for tests and for
// successive `plan` invocations within one process.
func ResetEventIDs() { nextEventID = 0 }

func allocEventID() int {
	nextEventID++
	return nextEventID
}

// NewIdleEvent creates the single per-line anchor event marking a bus idle
// at its depot, spanning the whole service day.
func NewIdleEvent(line *model.Line) *Event {
	return &Event{
		ID:             allocEventID(),
		Kind:           Idle,
		Line:           line,
		Location:       line.Depot,
		EarliestDepart: line.StartTime,
		LatestDepart:   line.EndTime,
	}
}

// NewPickUpEvent creates an event where First is boarded alongside remaining.
func NewPickUpEvent(first *model.SplitRequest, remaining map[int]*model.SplitRequest, earliest, latest timeutil.Time) *Event {
	return &Event{
		ID:             allocEventID(),
		Kind:           PickUp,
		Line:           first.Line,
		First:          first,
		Remaining:      remaining,
		Location:       first.PickUp,
		EarliestDepart: earliest,
		LatestDepart:   latest,
	}
}

// NewDropOffEvent creates an event where First alights alongside remaining.
func NewDropOffEvent(first *model.SplitRequest, remaining map[int]*model.SplitRequest, earliest, latest timeutil.Time) *Event {
	return &Event{
		ID:             allocEventID(),
		Kind:           DropOff,
		Line:           first.Line,
		First:          first,
		Remaining:      remaining,
		Location:       first.DropOff,
		EarliestDepart: earliest,
		LatestDepart:   latest,
	}
}

// BeforeSet is the set of split ids assumed aboard the bus just before this
// event occurs.
func (e *Event) BeforeSet() map[int]bool {
	switch e.Kind {
	case Idle:
		return map[int]bool{}
	case PickUp:
		return idsOf(e.Remaining)
	case DropOff:
		return idsOf(e.Remaining, e.First.SplitID)
	}
	return map[int]bool{}
}

// AfterSet is the set of split ids assumed aboard the bus just after this
// event occurs.
func (e *Event) AfterSet() map[int]bool {
	switch e.Kind {
	case Idle:
		return map[int]bool{}
	case PickUp:
		return idsOf(e.Remaining, e.First.SplitID)
	case DropOff:
		return idsOf(e.Remaining)
	}
	return map[int]bool{}
}

func idsOf(splits map[int]*model.SplitRequest, extra ...int) map[int]bool {
	out := make(map[int]bool, len(splits)+len(extra))
	for id := range splits {
		out[id] = true
	}
	for _, id := range extra {
		out[id] = true
	}
	return out
}

package model

import "lidarpt/timeutil"

// RouteStop is one stop visit on a decoded bus route: the bus arrives,
// possibly picks up and drops off requests, and departs.
type RouteStop struct {
	Bus         *Bus
	Stop        *Stop
	ArrivalTime timeutil.Time
	DepartTime  timeutil.Time
	PickUp      map[int]*SplitRequest // keyed by split id
	DropOff     map[int]*SplitRequest
}

// NewRouteStop builds an empty RouteStop at a given stop/time.
func NewRouteStop(bus *Bus, stop *Stop, arrive, depart timeutil.Time) *RouteStop {
	return &RouteStop{
		Bus:         bus,
		Stop:        stop,
		ArrivalTime: arrive,
		DepartTime:  depart,
		PickUp:      map[int]*SplitRequest{},
		DropOff:     map[int]*SplitRequest{},
	}
}

// Route is one bus's full ordered list of stop visits for a planning run.
type Route struct {
	Bus       *Bus
	StopList  []*RouteStop
}

// NewRoute builds an empty route for a bus.
func NewRoute(bus *Bus) *Route {
	return &Route{Bus: bus}
}

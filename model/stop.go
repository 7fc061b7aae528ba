// Package model holds the liDARPT data model: Stop, Line, Bus, Request,
// SplitRequest, and the decoded Route/RouteStop types a plan is expressed in.
package model

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Stop is a fixed location in the network, identified by an integer id and a
// 2-D coordinate pair. Distance between stops is Euclidean in coordinate
// units, scaled by a configured km-per-unit factor at the call site.
type Stop struct {
	ID    int
	Point orb.Point
}

// NewStop builds a Stop from raw x/y coordinates.
func NewStop(id int, x, y float64) *Stop {
	return &Stop{ID: id, Point: orb.Point{x, y}}
}

// DistanceUnits returns the Euclidean distance to another stop in raw
// coordinate units (not yet scaled to km).
func (s *Stop) DistanceUnits(other *Stop) float64 {
	return planar.Distance(s.Point, other.Point)
}

// DistanceKm returns the distance to another stop in kilometers, given the
// configured km-per-unit scale factor.
func (s *Stop) DistanceKm(other *Stop, kmPerUnit float64) float64 {
	return s.DistanceUnits(other) * kmPerUnit
}

func (s *Stop) String() string {
	if s == nil {
		return "<nil stop>"
	}
	return fmt.Sprintf("%d", s.ID)
}

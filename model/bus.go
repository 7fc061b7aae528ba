package model

import "lidarpt/timeutil"

// Line is an ordered sequence of stops serviced by one or more buses sharing
// capacity; the reverse of Stops is the line's other direction. Depot may be
// a synthetic stop not present in Stops, introduced at load time per the
// depot's own coordinate.
type Line struct {
	ID        int
	Stops     []*Stop
	Depot     *Stop
	Capacity  int
	StartTime timeutil.Time
	EndTime   timeutil.Time
}

// StopIndex returns the position of a stop id within the line's stop
// sequence, or -1 if the line does not visit it.
func (l *Line) StopIndex(stopID int) int {
	for i, s := range l.Stops {
		if s.ID == stopID {
			return i
		}
	}
	return -1
}

// HasStop reports whether the line visits the given stop.
func (l *Line) HasStop(stopID int) bool {
	return l.StopIndex(stopID) >= 0
}

// Bus is bound to exactly one line; multiple buses may share a line.
type Bus struct {
	ID   int
	Line *Line
}

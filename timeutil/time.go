// Package timeutil implements wall-clock time as a seconds-within-day offset,
// the arithmetic liDARPT's schedules are built on. It deliberately does not use
// time.Time: there is no calendar date anywhere in the domain, only a service
// window within one operating day.
package timeutil

import (
	"fmt"

	"github.com/pkg/errors"
)

// Time is a non-negative count of seconds since midnight. Values are not
// wrapped at 24h: arithmetic on a bus service window that runs past midnight
// is allowed to produce values >= 86400.
type Time int64

// Zero is midnight.
const Zero Time = 0

// New builds a Time from an hour/minute/second triple, validating the
// conventional 0-23/0-59/0-59 ranges the way the source format does.
func New(hour, minute, second int) (Time, error) {
	if hour < 0 || hour > 23 {
		return 0, errors.Errorf("hour not in range 0 to 23; was %d", hour)
	}
	if minute < 0 || minute > 59 {
		return 0, errors.Errorf("minute not in range 0 to 59; was %d", minute)
	}
	if second < 0 || second > 59 {
		return 0, errors.Errorf("second not in range 0 to 59; was %d", second)
	}
	return Time(hour*3600 + minute*60 + second), nil
}

// FromSeconds builds a Time directly from a signed seconds offset, without
// the New range checks (needed since add/sub can legitimately exceed
// 23:59:59).
func FromSeconds(seconds int64) Time {
	return Time(seconds)
}

// Parse reads the "HH:MM:SS" format used by the requests CSV and network JSON.
func Parse(s string) (Time, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0, errors.Wrapf(err, "parsing time %q", s)
	}
	return New(h, m, sec)
}

// Seconds returns the total seconds since midnight.
func (t Time) Seconds() int64 { return int64(t) }

// Add returns t advanced by seconds.
func (t Time) Add(seconds int64) Time { return Time(int64(t) + seconds) }

// Sub returns t moved back by seconds.
func (t Time) Sub(seconds int64) Time { return Time(int64(t) - seconds) }

// Plus returns the sum of two Times as a Time (mirrors TimeImpl.__add__).
func (t Time) Plus(o Time) Time { return Time(int64(t) + int64(o)) }

// Minus returns the signed delta between two Times, itself representable as
// a Time (mirrors TimeImpl.__sub__, used for duration arithmetic).
func (t Time) Minus(o Time) Time { return Time(int64(t) - int64(o)) }

func (t Time) Before(o Time) bool     { return t < o }
func (t Time) After(o Time) bool      { return t > o }
func (t Time) BeforeEqual(o Time) bool { return t <= o }
func (t Time) AfterEqual(o Time) bool  { return t >= o }
func (t Time) Equal(o Time) bool       { return t == o }

// String formats as zero-padded HH:MM:SS; a negative offset is printed as a
// minus sign followed by its absolute value, and hours past 23 are not wrapped.
func (t Time) String() string {
	sec := int64(t)
	neg := sec < 0
	if neg {
		sec = -sec
	}
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
}

// DistanceToDuration converts a distance in km to a travel duration in
// seconds at the given average speed, rounding to the nearest second the way
// the original Timer.calc_time does.
func DistanceToDuration(distanceKm, averageKmh float64) int64 {
	if averageKmh == 0 {
		return 0
	}
	return roundHalfAwayFromZero(distanceKm * 3600.0 / averageKmh)
}

// DurationToDistance is the inverse of DistanceToDuration (Timer.conv_time_to_dist).
func DurationToDistance(durationSeconds int64, averageKmh float64) float64 {
	return float64(durationSeconds) * averageKmh / 3600.0
}

func roundHalfAwayFromZero(v float64) int64 {
	if v >= 0 {
		return int64(v + 0.5)
	}
	return -int64(-v + 0.5)
}

// Package context orchestrates one planning run: partition requests into a
// time table, then for each time bucket in order, plan and validate. It
// ports original_source/main/scope/Context.py's Context/Static classes.
//
// Only the static variant is implemented: a single time-table entry holding
// every request, planned and executed once. The dynamic rolling-horizon
// variant (Context.trigger_event's repeated replan-as-time-advances loop,
// driven by a time table with more than one bucket) is an explicit
// Non-goal; TimeTable is exposed as map[timeutil.Time][]*model.Request so a
// future dynamic implementation can populate it with more than one key
// without changing Context's Start loop.
package context

import (
	"lidarpt/model"
	"lidarpt/timeutil"
)

// Planner turns one batch of requests into a set of bus routes.
type Planner func(requests []*model.Request) ([]*model.Route, error)

// Validator checks a set of routes for time-window and travel-time
// consistency, returning an error on the first violation found.
type Validator func(routes []*model.Route) error

// Context drives repeated plan/execute cycles against a time table.
type Context struct {
	TimeTable map[timeutil.Time][]*model.Request
	Plan      Planner
	Validate  Validator
}

// NewStatic builds a Context whose entire time table is a single bucket at
// time zero holding every request, mirroring Static.create_time_table.
func NewStatic(requests []*model.Request, plan Planner, validate Validator) *Context {
	return &Context{
		TimeTable: map[timeutil.Time][]*model.Request{timeutil.Zero: requests},
		Plan:      plan,
		Validate:  validate,
	}
}

// Start walks the time table in chronological order, planning and
// validating each bucket in turn, and returns the routes produced by the
// final bucket. For a Static context this is exactly one plan/validate
// cycle.
func (c *Context) Start() ([]*model.Route, error) {
	times := make([]timeutil.Time, 0, len(c.TimeTable))
	for t := range c.TimeTable {
		times = append(times, t)
	}
	sortTimes(times)

	var routes []*model.Route
	for _, t := range times {
		var err error
		routes, err = c.Plan(c.TimeTable[t])
		if err != nil {
			return nil, err
		}
		if err := c.Validate(routes); err != nil {
			return nil, err
		}
	}
	return routes, nil
}

func sortTimes(times []timeutil.Time) {
	for i := 1; i < len(times); i++ {
		for j := i; j > 0 && times[j-1] > times[j]; j-- {
			times[j-1], times[j] = times[j], times[j-1]
		}
	}
}

package context

import (
	"testing"

	"lidarpt/model"
)

func TestStaticContextBuildsSingleBucketTimeTable(t *testing.T) {
	requests := []*model.Request{{ID: 1}, {ID: 2}}
	c := NewStatic(requests, func([]*model.Request) ([]*model.Route, error) {
		return nil, nil
	}, func([]*model.Route) error { return nil })

	if len(c.TimeTable) != 1 {
		t.Fatalf("expected exactly one time bucket, got %d", len(c.TimeTable))
	}
	for _, reqs := range c.TimeTable {
		if len(reqs) != 2 {
			t.Fatalf("expected both requests in the single bucket, got %d", len(reqs))
		}
	}
}

func TestStaticContextStartRunsPlanThenValidate(t *testing.T) {
	var planned, validated bool
	route := &model.Route{}

	c := NewStatic(nil, func([]*model.Request) ([]*model.Route, error) {
		planned = true
		return []*model.Route{route}, nil
	}, func(routes []*model.Route) error {
		validated = true
		if len(routes) != 1 || routes[0] != route {
			t.Fatal("validator did not receive the planner's routes")
		}
		return nil
	})

	routes, err := c.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !planned || !validated {
		t.Fatal("expected both plan and validate to run")
	}
	if len(routes) != 1 || routes[0] != route {
		t.Fatal("expected Start to return the planner's routes")
	}
}

func TestStaticContextPropagatesValidationError(t *testing.T) {
	wantErr := errTestValidation
	c := NewStatic(nil, func([]*model.Request) ([]*model.Route, error) {
		return nil, nil
	}, func([]*model.Route) error {
		return wantErr
	})

	if _, err := c.Start(); err != wantErr {
		t.Fatalf("expected validation error to propagate, got %v", err)
	}
}

var errTestValidation = &testError{"validation failed"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

package milp

import (
	"context"
	"testing"

	"lidarpt/solver"
)

func TestLoadIntoRoundTripsThroughBranchAndBound(t *testing.T) {
	g, requests, buses, lines := singleRequestFixture(t)
	cfg := testConfig(t)
	p := BuildProblem(g, requests, buses, lines, cfg, true)

	b := solver.NewBranchAndBound()
	b.SetParameters(solver.Parameters{Threads: 2, TimeLimitSeconds: 5})
	refs, err := p.LoadInto(b)
	if err != nil {
		t.Fatalf("LoadInto: %v", err)
	}
	if _, ok := refs[AcceptanceVar(1)]; !ok {
		t.Fatal("expected acceptance variable to be registered with the solver")
	}

	status, err := b.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if status != solver.Optimal && status != solver.Feasible {
		t.Fatalf("expected optimal or feasible status, got %v", status)
	}
}

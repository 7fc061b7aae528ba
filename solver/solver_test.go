package solver

import (
	"context"
	"math"
	"testing"
)

func TestSolveRelaxationSimpleLP(t *testing.T) {
	// maximize 3x + 2y s.t. x+y<=4, x+3y<=6, x,y>=0 (x,y<=10)
	res := solveRelaxation(
		[]float64{3, 2},
		[]float64{10, 10},
		Maximize,
		[]lpRow{
			{coeffs: []float64{1, 1}, sense: LE, rhs: 4},
			{coeffs: []float64{1, 3}, sense: LE, rhs: 6},
		},
	)
	if !res.feasible {
		t.Fatal("expected feasible relaxation")
	}
	if math.Abs(res.objective-12) > 1e-4 {
		t.Fatalf("expected optimal objective 12, got %v", res.objective)
	}
}

func TestSolveRelaxationInfeasible(t *testing.T) {
	res := solveRelaxation(
		[]float64{1},
		[]float64{5},
		Minimize,
		[]lpRow{
			{coeffs: []float64{1}, sense: GE, rhs: 10},
			{coeffs: []float64{1}, sense: LE, rhs: 2},
		},
	)
	if res.feasible {
		t.Fatal("expected infeasible relaxation (x<=2 and x>=10 with ub=5 conflict)")
	}
}

func TestBranchAndBoundSimpleKnapsack(t *testing.T) {
	b := NewBranchAndBound()
	x1 := b.AddBinaryVar("x1")
	x2 := b.AddBinaryVar("x2")
	x3 := b.AddBinaryVar("x3")

	b.AddLinearConstraint("capacity", []Term{
		{Var: x1, Coeff: 2}, {Var: x2, Coeff: 3}, {Var: x3, Coeff: 4},
	}, LE, 5)
	b.SetObjective([]Term{
		{Var: x1, Coeff: 3}, {Var: x2, Coeff: 4}, {Var: x3, Coeff: 5},
	}, Maximize)
	b.SetParameters(Parameters{Threads: 2, TimeLimitSeconds: 5})

	status, err := b.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if status != Optimal {
		t.Fatalf("expected optimal status, got %v", status)
	}
	if b.Objective() < 7-1e-6 {
		t.Fatalf("expected objective >= 7 (x2+x3), got %v", b.Objective())
	}
	weight := 2*b.Value(x1) + 3*b.Value(x2) + 4*b.Value(x3)
	if weight > 5+1e-6 {
		t.Fatalf("solution violates capacity constraint: weight=%v", weight)
	}
}

func TestBranchAndBoundInfeasibleReportsInfeasible(t *testing.T) {
	b := NewBranchAndBound()
	x := b.AddBinaryVar("x")
	b.AddLinearConstraint("lower", []Term{{Var: x, Coeff: 1}}, GE, 2)
	b.SetObjective([]Term{{Var: x, Coeff: 1}}, Maximize)
	b.SetParameters(Parameters{Threads: 1, TimeLimitSeconds: 2})

	status, err := b.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if status != Infeasible {
		t.Fatalf("expected infeasible status, got %v", status)
	}
}

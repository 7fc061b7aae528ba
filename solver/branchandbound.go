package solver

import (
	"context"
	"math"
	"sync"
	"time"
)

type varInfo struct {
	name   string
	binary bool
	lb, ub float64
}

type constraintInfo struct {
	name  string
	terms []Term
	sense Sense
	rhs   float64
}

// node is one branch-and-bound subproblem: the binary variables whose
// bounds have been fixed (0 or 1) relative to the root model.
type node struct {
	fixed map[VarRef]float64
}

// BranchAndBound is the bundled from-scratch MIP solver: a dense-tableau
// Big-M primal simplex LP relaxation (simplex.go) explored by a
// goroutine worker pool doing depth-first (LIFO) branch-and-bound on fractional
// binary variables. It is the repository's one deliberately
// standard-library-only component -- see DESIGN.md's "milp + solver"
// entry.
type BranchAndBound struct {
	vars        []varInfo
	constraints []constraintInfo
	objTerms    []Term
	objSense    Sense
	params      Parameters

	mu          sync.Mutex
	incumbent   []float64
	incumbentOk bool
	incumbentObj float64
	bestBound   float64
}

// NewBranchAndBound returns an empty solver with default parameters.
func NewBranchAndBound() *BranchAndBound {
	return &BranchAndBound{
		objSense: Minimize,
		params:   Parameters{Threads: 1},
	}
}

func (b *BranchAndBound) AddBinaryVar(name string) VarRef {
	b.vars = append(b.vars, varInfo{name: name, binary: true, lb: 0, ub: 1})
	return VarRef(len(b.vars) - 1)
}

func (b *BranchAndBound) AddContinuousVar(name string, lb, ub float64) VarRef {
	b.vars = append(b.vars, varInfo{name: name, binary: false, lb: lb, ub: ub})
	return VarRef(len(b.vars) - 1)
}

func (b *BranchAndBound) AddLinearConstraint(name string, terms []Term, sense Sense, rhs float64) {
	b.constraints = append(b.constraints, constraintInfo{name: name, terms: terms, sense: sense, rhs: rhs})
}

func (b *BranchAndBound) SetObjective(terms []Term, sense Sense) {
	b.objTerms = terms
	b.objSense = sense
}

func (b *BranchAndBound) SetParameters(p Parameters) {
	b.params = p
}

func (b *BranchAndBound) Value(v VarRef) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.incumbentOk || int(v) >= len(b.incumbent) {
		return 0
	}
	return b.incumbent[v]
}

func (b *BranchAndBound) Objective() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.incumbentObj
}

// Gap is (bestBound-incumbent)/incumbent in the direction that makes it
// non-negative, reported as zero once every node has been closed out
// (proven optimal) or no incumbent exists yet.
func (b *BranchAndBound) Gap() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.incumbentOk || b.incumbentObj == 0 {
		return 0
	}
	gap := (b.bestBound - b.incumbentObj) / b.incumbentObj
	if b.objSense == Minimize {
		gap = -gap
	}
	if gap < 0 {
		gap = 0
	}
	return gap
}

func (b *BranchAndBound) objCoeffs() []float64 {
	c := make([]float64, len(b.vars))
	for _, t := range b.objTerms {
		c[t.Var] += t.Coeff
	}
	return c
}

func (b *BranchAndBound) rows(fixed map[VarRef]float64) ([]lpRow, []float64) {
	ub := make([]float64, len(b.vars))
	lb := make([]float64, len(b.vars))
	for i, v := range b.vars {
		lb[i], ub[i] = v.lb, v.ub
	}
	for ref, val := range fixed {
		lb[ref], ub[ref] = val, val
	}

	rows := make([]lpRow, len(b.constraints))
	for i, c := range b.constraints {
		coeffs := make([]float64, len(b.vars))
		shiftRHS := c.rhs
		for _, t := range c.terms {
			coeffs[t.Var] += t.Coeff
			shiftRHS -= t.Coeff * lb[t.Var]
		}
		rows[i] = lpRow{coeffs: coeffs, sense: c.sense, rhs: shiftRHS}
	}

	width := make([]float64, len(b.vars))
	for i := range b.vars {
		width[i] = ub[i] - lb[i]
	}
	return rows, width
}

// solveNode solves one subproblem's LP relaxation and returns the
// resulting variable values in ORIGINAL (unshifted) space.
func (b *BranchAndBound) solveNode(fixed map[VarRef]float64) (lpResult, []float64) {
	rowsIn, width := b.rows(fixed)
	c := b.objCoeffs()
	res := solveRelaxation(c, width, b.objSense, rowsIn)
	if !res.feasible {
		return res, nil
	}
	x := make([]float64, len(b.vars))
	for i, v := range b.vars {
		lb := v.lb
		if val, ok := fixed[VarRef(i)]; ok {
			lb = val
		}
		x[i] = lb + res.y[i]
	}
	res.objective = 0
	for i, ci := range c {
		res.objective += ci * x[i]
	}
	return res, x
}

func mostFractionalBinary(b *BranchAndBound, x []float64, fixed map[VarRef]float64) (VarRef, bool) {
	best := -1
	bestDist := 0.0
	for i, v := range b.vars {
		if !v.binary {
			continue
		}
		if _, ok := fixed[VarRef(i)]; ok {
			continue
		}
		frac := x[i] - math.Floor(x[i])
		dist := math.Min(frac, 1-frac)
		if dist > 1e-6 && dist > bestDist {
			bestDist = dist
			best = i
		}
	}
	if best == -1 {
		return 0, false
	}
	return VarRef(best), true
}

func (b *BranchAndBound) betterThanIncumbent(obj float64) bool {
	if !b.incumbentOk {
		return true
	}
	if b.objSense == Maximize {
		return obj > b.incumbentObj+1e-9
	}
	return obj < b.incumbentObj-1e-9
}

// Solve explores the branch-and-bound tree with a worker pool bounded by
// Parameters.Threads, stopping early on ctx cancellation or the configured
// time limit.
func (b *BranchAndBound) Solve(ctx context.Context) (Status, error) {
	if b.params.TimeLimitSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(b.params.TimeLimitSeconds*float64(time.Second)))
		defer cancel()
	}

	workers := b.params.Threads
	if workers < 1 {
		workers = 1
	}

	stack := []node{{fixed: map[VarRef]float64{}}}
	var stackMu sync.Mutex
	pop := func() (node, bool) {
		stackMu.Lock()
		defer stackMu.Unlock()
		if len(stack) == 0 {
			return node{}, false
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return n, true
	}
	push := func(n node) {
		stackMu.Lock()
		defer stackMu.Unlock()
		stack = append(stack, n)
	}
	pending := func() bool {
		stackMu.Lock()
		defer stackMu.Unlock()
		return len(stack) > 0
	}

	b.bestBound = math.Inf(1)
	if b.objSense == Maximize {
		b.bestBound = math.Inf(-1)
	}

	var wg sync.WaitGroup
	var timedOut bool
	var timedOutMu sync.Mutex

	worker := func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				timedOutMu.Lock()
				timedOut = true
				timedOutMu.Unlock()
				return
			default:
			}

			n, ok := pop()
			if !ok {
				if !pending() {
					return
				}
				continue
			}

			res, x := b.solveNode(n.fixed)
			if !res.feasible || res.unbounded {
				continue
			}

			b.mu.Lock()
			if b.objSense == Maximize && res.objective > b.bestBound {
				b.bestBound = res.objective
			}
			if b.objSense == Minimize && res.objective < b.bestBound {
				b.bestBound = res.objective
			}
			beat := b.betterThanIncumbent(res.objective)
			b.mu.Unlock()
			if !beat {
				continue
			}

			branchVar, needsBranch := mostFractionalBinary(b, x, n.fixed)
			if !needsBranch {
				b.mu.Lock()
				if b.betterThanIncumbent(res.objective) {
					b.incumbent = x
					b.incumbentObj = res.objective
					b.incumbentOk = true
				}
				b.mu.Unlock()
				continue
			}

			for _, v := range []float64{0, 1} {
				child := node{fixed: make(map[VarRef]float64, len(n.fixed)+1)}
				for k, val := range n.fixed {
					child.fixed[k] = val
				}
				child.fixed[branchVar] = v
				push(child)
			}
		}
	}

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go worker()
	}
	wg.Wait()

	timedOutMu.Lock()
	to := timedOut
	timedOutMu.Unlock()

	if !to && b.incumbentOk {
		b.bestBound = b.incumbentObj
	}

	switch {
	case to && b.incumbentOk:
		return Feasible, nil
	case to:
		return TimedOut, nil
	case b.incumbentOk:
		return Optimal, nil
	default:
		return Infeasible, nil
	}
}

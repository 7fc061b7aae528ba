package milp

import (
	"fmt"

	"lidarpt/solver"
)

// LoadInto replays this Problem's variables, constraints and objective into
// a solver.Solver -- the bridge between the builder's solver-agnostic
// representation and the Solver interface described in SPEC_FULL.md 4.5.
func (p *Problem) LoadInto(s solver.Solver) (map[string]solver.VarRef, error) {
	refs := make(map[string]solver.VarRef, len(p.Variables))
	for _, v := range p.Variables {
		switch v.Kind {
		case Binary:
			refs[v.Name] = s.AddBinaryVar(v.Name)
		case Continuous:
			refs[v.Name] = s.AddContinuousVar(v.Name, v.LB, v.UB)
		}
	}

	for _, c := range p.Constraints {
		terms, err := resolveTerms(c.Terms, refs)
		if err != nil {
			return nil, fmt.Errorf("constraint %q: %w", c.Name, err)
		}
		s.AddLinearConstraint(c.Name, terms, toSolverSense(c.Sense), c.RHS)
	}

	objTerms, err := resolveTerms(p.Objective, refs)
	if err != nil {
		return nil, fmt.Errorf("objective: %w", err)
	}
	objSense := solver.Minimize
	if p.ObjSense == Maximize {
		objSense = solver.Maximize
	}
	s.SetObjective(objTerms, objSense)

	return refs, nil
}

func resolveTerms(terms []Term, refs map[string]solver.VarRef) ([]solver.Term, error) {
	out := make([]solver.Term, 0, len(terms))
	for _, t := range terms {
		ref, ok := refs[t.Var]
		if !ok {
			return nil, fmt.Errorf("unregistered variable %q", t.Var)
		}
		out = append(out, solver.Term{Var: ref, Coeff: t.Coeff})
	}
	return out, nil
}

func toSolverSense(s Sense) solver.Sense {
	switch s {
	case LE:
		return solver.LE
	case GE:
		return solver.GE
	default:
		return solver.EQ
	}
}

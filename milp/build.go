package milp

import (
	"sort"

	"lidarpt/config"
	"lidarpt/eventgraph"
	"lidarpt/model"
	"lidarpt/preprocess"
)

// BuildProblem assembles the full MILP for one planning run, porting
// original_source/main/plan/CplexModel.py's build_model: acceptance (q),
// option (z), arc (x) and departure-time (B+/B-) variables, and the eight
// constraint families binding them. Only non-denied requests (those that
// survived preprocess.PreprocessRequest with at least one route option) are
// modeled; denied requests never enter the MIP, per SPEC_FULL.md 4.3/4.5's
// deny-and-continue redesign.
//
// multiObjective selects the distilled spec's two-phase mode: phase one
// maximizes accepted request count; BuildPhaseTwo then re-solves minimizing
// total distance subject to that acceptance count, using RelativeConstraints'
// departure-time encoding (variables are relative to each split's earliest
// bound, not absolute clock time) throughout.
func BuildProblem(g *eventgraph.Graph, requests []*model.Request, buses []*model.Bus, lines map[int]*model.Line, cfg config.PlanningConfig, multiObjective bool) *Problem {
	sense := Minimize
	if multiObjective {
		sense = Maximize
	}
	p := NewProblem(sense)

	active := activeRequests(requests)

	addAcceptanceAndOptionVars(p, active)
	addDepartureVars(p, g, cfg)
	addArcVars(p, g)

	if multiObjective {
		for _, req := range active {
			p.AddObjectiveTerm(AcceptanceVar(req.ID), 1)
		}
	} else {
		penalty := 2.0*totalNetworkSize(lines)*float64(len(active)) + 1
		for _, req := range active {
			p.AddObjectiveTerm(AcceptanceVar(req.ID), -penalty)
		}
		addDistanceObjectiveTerms(p, g, cfg)
	}

	addFlowConservation(p, g)
	addOptionTriggering(p, g, active)
	addFleetSizeConstraints(p, g, buses, lines)
	addIdleTimingConstraints(p, g, lines, cfg)
	addPrecedenceConstraints(p, g, cfg)
	addMaxRideTimeConstraints(p, active, cfg)
	addLegSequenceConstraints(p, active, cfg)
	addAcceptanceIdentityConstraints(p, active)

	return p
}

// BuildPhaseTwo re-targets an already-solved phase-one problem's objective
// to minimize total event-graph distance, adding the constraint that at
// least `acceptedCount` requests remain accepted (the distilled spec's
// two-phase multi-objective mode, see SPEC_FULL.md 4.5).
func BuildPhaseTwo(p *Problem, active []*model.Request, acceptedCount float64, g *eventgraph.Graph, cfg config.PlanningConfig) {
	terms := make([]Term, 0, len(active))
	for _, req := range active {
		terms = append(terms, Term{Var: AcceptanceVar(req.ID), Coeff: 1})
	}
	p.AddConstraint(Constraint{
		Name:  "phase_two_min_acceptance",
		Terms: terms,
		Sense: GE,
		RHS:   acceptedCount * 0.99999,
	})
	p.ResetObjective(Minimize)
	addDistanceObjectiveTerms(p, g, cfg)
}

func activeRequests(requests []*model.Request) []*model.Request {
	var out []*model.Request
	for _, r := range requests {
		if !r.Denied && len(r.RouteOptions) > 0 {
			out = append(out, r)
		}
	}
	return out
}

func addAcceptanceAndOptionVars(p *Problem, active []*model.Request) {
	for _, req := range active {
		p.AddVariable(Variable{Name: AcceptanceVar(req.ID), Kind: Binary, LB: 0, UB: 1})
		for _, key := range preprocess.SortedOptionKeys(req.RouteOptions) {
			p.AddVariable(Variable{Name: OptionVar(req.ID, key), Kind: Binary, LB: 0, UB: 1})
		}
	}
}

func addDepartureVars(p *Problem, g *eventgraph.Graph, cfg config.PlanningConfig) {
	for _, s := range g.Splits() {
		startRange := float64(s.LatestStart.Minus(s.EarliestStart).Seconds())
		arrRange := float64(s.LatestArrival.Minus(s.EarliestArrival).Seconds())
		transfer := float64(cfg.TransferSeconds)
		p.AddVariable(Variable{Name: DepartPlusVar(s.SplitID), Kind: Continuous, LB: transfer, UB: startRange + transfer})
		p.AddVariable(Variable{Name: DepartMinusVar(s.SplitID), Kind: Continuous, LB: transfer, UB: arrRange + transfer})
	}
}

func addArcVars(p *Problem, g *eventgraph.Graph) {
	for _, e := range g.Events() {
		for _, succ := range g.EdgesOut(e) {
			p.AddVariable(Variable{Name: ArcVar(e.ID, succ.ID), Kind: Binary, LB: 0, UB: 1})
		}
	}
}

func addDistanceObjectiveTerms(p *Problem, g *eventgraph.Graph, cfg config.PlanningConfig) {
	for _, e := range g.Events() {
		for _, succ := range g.EdgesOut(e) {
			dist := e.Location.DistanceKm(succ.Location, cfg.KmPerUnit)
			p.AddObjectiveTerm(ArcVar(e.ID, succ.ID), dist)
		}
	}
}

func totalNetworkSize(lines map[int]*model.Line) float64 {
	total := 0.0
	for _, line := range lines {
		for i := 0; i+1 < len(line.Stops); i++ {
			total += line.Stops[i].DistanceUnits(line.Stops[i+1])
		}
	}
	return total
}

// sortedLineIDs returns lines' keys in ascending order, so constraint
// builders that range over the line map add constraints in a deterministic
// order regardless of Go's randomized map iteration.
func sortedLineIDs(lines map[int]*model.Line) []int {
	ids := make([]int, 0, len(lines))
	for id := range lines {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// addFlowConservation: for every event, inflow arcs minus outflow arcs sum
// to zero (a bus passing through an event must leave it).
func addFlowConservation(p *Problem, g *eventgraph.Graph) {
	for _, e := range g.Events() {
		var terms []Term
		for _, pred := range g.EdgesIn(e) {
			terms = append(terms, Term{Var: ArcVar(pred.ID, e.ID), Coeff: 1})
		}
		for _, succ := range g.EdgesOut(e) {
			terms = append(terms, Term{Var: ArcVar(e.ID, succ.ID), Coeff: -1})
		}
		if len(terms) == 0 {
			continue
		}
		p.AddConstraint(Constraint{Terms: terms, Sense: EQ, RHS: 0})
	}
}

// addOptionTriggering: choosing option z_{r,k} requires every leg of that
// option to actually be entered by some arc into one of its pick-up events.
func addOptionTriggering(p *Problem, g *eventgraph.Graph, active []*model.Request) {
	for _, req := range active {
		for _, key := range preprocess.SortedOptionKeys(req.RouteOptions) {
			for _, leg := range req.RouteOptions[key] {
				var terms []Term
				for _, pickUpEvent := range g.PickUpEvents(leg.SplitID) {
					for _, pred := range g.EdgesIn(pickUpEvent) {
						terms = append(terms, Term{Var: ArcVar(pred.ID, pickUpEvent.ID), Coeff: 1})
					}
				}
				terms = append(terms, Term{Var: OptionVar(req.ID, key), Coeff: -1})
				p.AddConstraint(Constraint{Terms: terms, Sense: GE, RHS: 0})
			}
		}
	}
}

// addFleetSizeConstraints: outgoing arcs from a line's idle event are capped
// at the number of buses actually assigned to that line.
func addFleetSizeConstraints(p *Problem, g *eventgraph.Graph, buses []*model.Bus, lines map[int]*model.Line) {
	busCount := map[int]int{}
	for _, b := range buses {
		busCount[b.Line.ID]++
	}
	for _, lineID := range sortedLineIDs(lines) {
		idle := g.IdleEventForLine(lineID)
		if idle == nil {
			continue
		}
		var terms []Term
		for _, succ := range g.EdgesOut(idle) {
			terms = append(terms, Term{Var: ArcVar(idle.ID, succ.ID), Coeff: 1})
		}
		p.AddConstraint(Constraint{Terms: terms, Sense: LE, RHS: float64(busCount[lineID])})
	}
}

// addIdleTimingConstraints binds the first/last split of each bus tour to
// the line's service-day bounds, both on return to depot and on departure.
func addIdleTimingConstraints(p *Problem, g *eventgraph.Graph, lines map[int]*model.Line, cfg config.PlanningConfig) {
	for _, lineID := range sortedLineIDs(lines) {
		line := lines[lineID]
		idle := g.IdleEventForLine(lineID)
		if idle == nil {
			continue
		}

		incomingBySplit := map[int][]Term{}
		var incomingSplits []*model.SplitRequest
		for _, pred := range g.EdgesIn(idle) {
			if pred.First == nil {
				continue
			}
			id := pred.First.SplitID
			if _, ok := incomingBySplit[id]; !ok {
				incomingSplits = append(incomingSplits, pred.First)
			}
			incomingBySplit[id] = append(incomingBySplit[id], Term{Var: ArcVar(pred.ID, idle.ID), Coeff: 1})
		}
		for _, split := range incomingSplits {
			terms := incomingBySplit[split.SplitID]
			duration := legDurationKm(split.DropOff, idle.Location, cfg)
			scaled := make([]Term, len(terms))
			for i, t := range terms {
				scaled[i] = Term{Var: t.Var, Coeff: float64(duration)}
			}
			scaled = append(scaled, Term{Var: DepartMinusVar(split.SplitID), Coeff: 1})
			rhs := float64(line.EndTime.Seconds()) - float64(addValue(split, false))
			p.AddConstraint(Constraint{Terms: scaled, Sense: LE, RHS: rhs})
		}

		outgoingBySplit := map[int][]Term{}
		var outgoingSplits []*model.SplitRequest
		for _, succ := range g.EdgesOut(idle) {
			if succ.First == nil {
				continue
			}
			id := succ.First.SplitID
			if _, ok := outgoingBySplit[id]; !ok {
				outgoingSplits = append(outgoingSplits, succ.First)
			}
			outgoingBySplit[id] = append(outgoingBySplit[id], Term{Var: ArcVar(idle.ID, succ.ID), Coeff: 1})
		}
		for _, split := range outgoingSplits {
			terms := outgoingBySplit[split.SplitID]
			duration := legDurationKm(idle.Location, split.PickUp, cfg)
			scaled := make([]Term, len(terms))
			for i, t := range terms {
				scaled[i] = Term{Var: t.Var, Coeff: -float64(duration)}
			}
			scaled = append(scaled, Term{Var: DepartPlusVar(split.SplitID), Coeff: 1})
			rhs := float64(line.StartTime.Seconds()+cfg.TransferSeconds) - float64(addValue(split, true))
			p.AddConstraint(Constraint{Terms: scaled, Sense: GE, RHS: rhs})
		}
	}
}

type precKey struct {
	otherSplitID int
	isPickUp     bool
}

// addPrecedenceConstraints adds the big-M timing link between every split's
// pick-up/drop-off event and whatever event could immediately follow it,
// per original_source's "make timing constraints for all subsequent splits".
func addPrecedenceConstraints(p *Problem, g *eventgraph.Graph, cfg config.PlanningConfig) {
	for _, s := range g.Splits() {
		for side := 0; side < 2; side++ {
			var sideEvents []*eventgraph.Event
			if side == 0 {
				sideEvents = g.PickUpEvents(s.SplitID)
			} else {
				sideEvents = g.DropOffEvents(s.SplitID)
			}

			groups := map[precKey][]Term{}
			var order []precKey
			for _, sideEvent := range sideEvents {
				for _, succ := range g.EdgesOut(sideEvent) {
					if succ.Kind == eventgraph.Idle {
						continue
					}
					key := precKey{otherSplitID: succ.First.SplitID, isPickUp: succ.Kind == eventgraph.PickUp}
					if _, ok := groups[key]; !ok {
						order = append(order, key)
					}
					groups[key] = append(groups[key], Term{Var: ArcVar(sideEvent.ID, succ.ID), Coeff: 1})
				}
			}

			boolFirst := side == 0
			var firstVar string
			var firstLocation = s.PickUp
			if boolFirst {
				firstVar = DepartPlusVar(s.SplitID)
			} else {
				firstVar = DepartMinusVar(s.SplitID)
				firstLocation = s.DropOff
			}

			for _, key := range order {
				other := findSplit(g, key.otherSplitID)
				if other == nil {
					continue
				}
				var secondVar string
				var secondLocation = other.PickUp
				if key.isPickUp {
					secondVar = DepartPlusVar(other.SplitID)
				} else {
					secondVar = DepartMinusVar(other.SplitID)
					secondLocation = other.DropOff
				}

				duration := legDurationKm(firstLocation, secondLocation, cfg)
				bigM := getBigM(s, boolFirst, float64(duration), float64(addValue(other, key.isPickUp)), cfg)

				terms := make([]Term, 0, len(groups[key])+2)
				for _, t := range groups[key] {
					terms = append(terms, Term{Var: t.Var, Coeff: -bigM})
				}
				terms = append(terms, Term{Var: firstVar, Coeff: -1})
				terms = append(terms, Term{Var: secondVar, Coeff: 1})

				serviceTime := 0.0
				if duration > 0 {
					serviceTime = float64(cfg.TransferSeconds)
				}
				rhs := serviceTime - bigM + float64(duration) + float64(addValue(s, boolFirst)) - float64(addValue(other, key.isPickUp))
				p.AddConstraint(Constraint{Terms: terms, Sense: GE, RHS: rhs})
			}
		}
	}
}

func findSplit(g *eventgraph.Graph, splitID int) *model.SplitRequest {
	for _, s := range g.Splits() {
		if s.SplitID == splitID {
			return s
		}
	}
	return nil
}

// addMaxRideTimeConstraints bounds total in-vehicle time for the first and
// last leg of every distinct route option.
func addMaxRideTimeConstraints(p *Problem, active []*model.Request, cfg config.PlanningConfig) {
	for _, req := range active {
		seen := map[[2]int]bool{}
		for _, key := range preprocess.SortedOptionKeys(req.RouteOptions) {
			option := req.RouteOptions[key]
			if len(option) == 0 {
				continue
			}
			start, end := option[0], option[len(option)-1]
			pairKey := [2]int{start.SplitID, end.SplitID}
			if seen[pairKey] {
				continue
			}
			seen[pairKey] = true

			maxRideTime := float64(req.LatestArrival.Minus(req.LatestStart).Seconds())
			rhs := maxRideTime + float64(addValue(start, true)) - float64(addValue(end, false))
			p.AddConstraint(Constraint{
				Terms: []Term{
					{Var: DepartPlusVar(start.SplitID), Coeff: -1},
					{Var: DepartMinusVar(end.SplitID), Coeff: 1},
				},
				Sense: LE,
				RHS:   rhs,
			})
		}
	}
}

// addLegSequenceConstraints links each option's consecutive legs: the next
// leg's pick-up cannot be scheduled before the previous leg's drop-off.
func addLegSequenceConstraints(p *Problem, active []*model.Request, cfg config.PlanningConfig) {
	for _, req := range active {
		for _, key := range preprocess.SortedOptionKeys(req.RouteOptions) {
			option := req.RouteOptions[key]
			for i := 0; i+1 < len(option); i++ {
				prev, next := option[i], option[i+1]
				rhs := float64(addValue(prev, false)) - float64(addValue(next, true))
				p.AddConstraint(Constraint{
					Terms: []Term{
						{Var: DepartMinusVar(prev.SplitID), Coeff: -1},
						{Var: DepartPlusVar(next.SplitID), Coeff: 1},
					},
					Sense: GE,
					RHS:   rhs,
				})
			}
		}
	}
}

// addAcceptanceIdentityConstraints ties q_r to the sum of its option
// variables: accepted iff exactly one route option is chosen.
func addAcceptanceIdentityConstraints(p *Problem, active []*model.Request) {
	for _, req := range active {
		terms := make([]Term, 0, len(req.RouteOptions)+1)
		for _, key := range preprocess.SortedOptionKeys(req.RouteOptions) {
			terms = append(terms, Term{Var: OptionVar(req.ID, key), Coeff: 1})
		}
		terms = append(terms, Term{Var: AcceptanceVar(req.ID), Coeff: -1})
		p.AddConstraint(Constraint{Terms: terms, Sense: EQ, RHS: 0})
	}
}

// addValue is RelativeConstraints.add_value: the absolute clock offset a
// split's relative B-variable must be added to.
func addValue(s *model.SplitRequest, startBool bool) int64 {
	if startBool {
		return s.EarliestStart.Seconds()
	}
	return s.EarliestArrival.Seconds()
}

// getBigM is RelativeConstraints.get_big_m.
func getBigM(precSplit *model.SplitRequest, precBool bool, duration, sucAbsolute float64, cfg config.PlanningConfig) float64 {
	var maxRel float64
	if precBool {
		maxRel = float64(precSplit.LatestStart.Minus(precSplit.EarliestStart).Seconds())
	} else {
		maxRel = float64(precSplit.LatestArrival.Minus(precSplit.EarliestArrival).Seconds())
	}
	diff := float64(addValue(precSplit, precBool)) - sucAbsolute
	if diff < 0 {
		diff = 0
	}
	return maxRel + duration + float64(cfg.TransferSeconds) + diff
}

func legDurationKm(a, b *model.Stop, cfg config.PlanningConfig) int64 {
	return int64(a.DistanceKm(b, cfg.KmPerUnit)*3600.0/cfg.AverageKmh + 0.5)
}

package solver

import "math"

// lpRow is one constraint row in shifted (lb-subtracted) variable space:
// sum(coeffs[i]*y_i) sense rhs. rhs may be negative; solveRelaxation
// normalizes it to be non-negative.
type lpRow struct {
	coeffs []float64
	sense  Sense
	rhs    float64
}

// lpResult is one LP relaxation's solve outcome.
type lpResult struct {
	feasible  bool
	unbounded bool
	y         []float64 // shifted structural variable values
	objective float64    // in the caller's original minimize/maximize sense
}

const simplexEpsilon = 1e-7

// solveRelaxation solves min/max c^T y subject to rows, 0 <= y_i <= ub[i],
// using the two-phase-free Big-M primal simplex method over a dense
// tableau. ub[i] may be +Inf for unbounded-above variables.
//
// This is the one component of the repository with no library home
// anywhere in the retrieval pack (see DESIGN.md's "milp + solver" entry):
// a compact, from-scratch Big-M simplex written against the standard
// library's math package only.
func solveRelaxation(c []float64, ub []float64, sense Sense, rows []lpRow) lpResult {
	n := len(c)

	allRows := make([]lpRow, 0, len(rows)+n)
	allRows = append(allRows, rows...)
	for i := 0; i < n; i++ {
		if math.IsInf(ub[i], 1) {
			continue
		}
		coeffs := make([]float64, n)
		coeffs[i] = 1
		allRows = append(allRows, lpRow{coeffs: coeffs, sense: LE, rhs: ub[i]})
	}

	numRows := len(allRows)
	if numRows == 0 {
		return lpResult{feasible: true, y: make([]float64, n), objective: 0}
	}

	maximize := sense == Maximize
	objCoeff := make([]float64, n)
	for i, v := range c {
		if maximize {
			objCoeff[i] = v
		} else {
			objCoeff[i] = -v
		}
	}

	// Normalize every row to non-negative RHS, then classify its sense so
	// the right extra column (slack for <=, surplus+artificial for >=,
	// artificial for =) gets added below.
	numSlack, numArtificial := 0, 0
	kinds := make([]Sense, numRows)
	rhs := make([]float64, numRows)
	coeffRows := make([][]float64, numRows)
	for i, r := range allRows {
		coeffs := append([]float64(nil), r.coeffs...)
		s := r.sense
		b := r.rhs
		if b < 0 {
			for j := range coeffs {
				coeffs[j] = -coeffs[j]
			}
			b = -b
			switch s {
			case LE:
				s = GE
			case GE:
				s = LE
			}
		}
		coeffRows[i] = coeffs
		kinds[i] = s
		rhs[i] = b
		switch s {
		case LE:
			numSlack++
		case GE:
			numArtificial++
		case EQ:
			numArtificial++
		}
	}

	totalCols := n + numSlack + numArtificial
	slackBase := n
	artBase := n + numSlack

	tableau := make([][]float64, numRows+1)
	for i := range tableau {
		tableau[i] = make([]float64, totalCols+1)
	}

	basis := make([]int, numRows)
	bigM := 0.0
	for _, v := range objCoeff {
		if math.Abs(v) > bigM {
			bigM = math.Abs(v)
		}
	}
	bigM = bigM*1e4 + 1e6

	slackIdx, artIdx := 0, 0
	for i := 0; i < numRows; i++ {
		copy(tableau[i][:n], coeffRows[i])
		tableau[i][totalCols] = rhs[i]

		switch kinds[i] {
		case LE:
			col := slackBase + slackIdx
			tableau[i][col] = 1
			basis[i] = col
			slackIdx++
		case GE:
			surplusCol := slackBase + slackIdx
			tableau[i][surplusCol] = -1
			slackIdx++
			artCol := artBase + artIdx
			tableau[i][artCol] = 1
			basis[i] = artCol
			artIdx++
		case EQ:
			artCol := artBase + artIdx
			tableau[i][artCol] = 1
			basis[i] = artCol
			artIdx++
		}
	}

	cost := make([]float64, totalCols)
	copy(cost[:n], objCoeff)
	for j := artBase; j < totalCols; j++ {
		cost[j] = -bigM
	}

	objRow := tableau[numRows]
	for j := 0; j < totalCols; j++ {
		z := 0.0
		for i := 0; i < numRows; i++ {
			z += cost[basis[i]] * tableau[i][j]
		}
		objRow[j] = cost[j] - z
	}
	objRow[totalCols] = 0
	for i := 0; i < numRows; i++ {
		objRow[totalCols] += cost[basis[i]] * tableau[i][totalCols]
	}

	const maxIterations = 20000
	for iter := 0; iter < maxIterations; iter++ {
		enter := -1
		best := simplexEpsilon
		for j := 0; j < totalCols; j++ {
			if objRow[j] > best {
				best = objRow[j]
				enter = j
			}
		}
		if enter == -1 {
			break
		}

		leave := -1
		bestRatio := math.Inf(1)
		for i := 0; i < numRows; i++ {
			if tableau[i][enter] > simplexEpsilon {
				ratio := tableau[i][totalCols] / tableau[i][enter]
				if ratio < bestRatio-1e-12 {
					bestRatio = ratio
					leave = i
				}
			}
		}
		if leave == -1 {
			return lpResult{unbounded: true}
		}

		pivot := tableau[leave][enter]
		for j := 0; j <= totalCols; j++ {
			tableau[leave][j] /= pivot
		}
		for i := 0; i <= numRows; i++ {
			if i == leave {
				continue
			}
			factor := tableau[i][enter]
			if factor == 0 {
				continue
			}
			for j := 0; j <= totalCols; j++ {
				tableau[i][j] -= factor * tableau[leave][j]
			}
		}
		basis[leave] = enter
	}

	for i := 0; i < numRows; i++ {
		if basis[i] >= artBase && tableau[i][totalCols] > 1e-6 {
			return lpResult{feasible: false}
		}
	}

	y := make([]float64, n)
	for i := 0; i < numRows; i++ {
		if basis[i] < n {
			y[basis[i]] = tableau[i][totalCols]
		}
	}

	rawObj := 0.0
	for i, v := range y {
		rawObj += c[i] * v
	}

	return lpResult{feasible: true, y: y, objective: rawObj}
}

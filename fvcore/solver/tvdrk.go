package solver

import "github.com/pdrersin/FVENS/fvcore/errs"

// tvdrkStage holds one (α,β,γ) row of a TVD-RK coefficient table (§3),
// used at §4.F step 2c:
//   U_stage[i,v] <- α*U[i,v] + β*U_stage[i,v] - γ*(Δt_min*CFL/area[i])*R[i,v]
type tvdrkStage struct {
	alpha, beta, gamma float64
}

// tvdrkTable holds the fixed coefficient tables for TVD-RK orders 1, 2 and
// 3 (Shu-Osher form), the only orders the spec recognises.
var tvdrkTable = map[int][]tvdrkStage{
	1: {
		{alpha: 1, beta: 0, gamma: 1},
	},
	2: {
		{alpha: 1, beta: 0, gamma: 1},
		{alpha: 0.5, beta: 0.5, gamma: 0.5},
	},
	3: {
		{alpha: 1, beta: 0, gamma: 1},
		{alpha: 0.75, beta: 0.25, gamma: 0.25},
		{alpha: 1.0 / 3, beta: 2.0 / 3, gamma: 2.0 / 3},
	},
}

// tvdrkStages returns the coefficient table for the given order, or a
// ConfigError if order is not 1, 2 or 3.
func tvdrkStages(order int) ([]tvdrkStage, error) {
	stages, ok := tvdrkTable[order]
	if !ok {
		return nil, errs.Config("solver: unsupported TVD-RK order %d (only 1, 2, 3 are defined)", order)
	}
	return stages, nil
}

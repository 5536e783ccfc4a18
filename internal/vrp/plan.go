// Package vrp plans capacity-constrained vehicle routes from a single depot.
//
// The pipeline is: validate input → build or accept the distance matrix →
// capacity-constrained nearest-neighbor construction → optional 2-opt local
// search → assemble the result. Solve is a pure function of its arguments:
// no package state, no I/O, no caching between calls, so concurrent calls
// never interfere.
package vrp

import "time"

// Solve runs the full planning pipeline. Validation failures abort the call
// with one of the sentinel errors and no partial result; infeasible points
// and exhausted budgets are normal outcomes reported inside the Result.
func Solve(p Problem, cfg Config) (Result, error) {
	start := time.Now()
	if err := validate(p); err != nil {
		return Result{}, err
	}

	var (
		m   *Matrix
		err error
	)
	if p.Matrix != nil {
		m, err = NewSuppliedMatrix(p.Matrix, len(p.Nodes))
		if err != nil {
			return Result{}, err
		}
	} else {
		m = NewEuclideanMatrix(p.Nodes)
	}

	demands := make([]float64, len(p.Nodes))
	for i, nd := range p.Nodes {
		demands[i] = nd.Demand
	}

	routes, unassigned := construct(m, demands, p.VehicleCount, p.Capacity)

	initial := 0.0
	for i := range routes {
		initial += routes[i].Distance
	}

	iters := 0
	if cfg.ApplyLocalSearch {
		iters = optimizeRoutes(m, routes, cfg)
	}

	// Always recompute the total from the final routes under the matrix, so
	// construction-time and optimization-time bookkeeping cannot drift.
	total := 0.0
	for i := range routes {
		total += m.RouteDistance(routes[i].Stops)
	}

	res := Result{
		Routes:        make([][]ID, len(routes)),
		Unassigned:    make([]ID, len(unassigned)),
		TotalDistance: total,
	}
	for i, r := range routes {
		ids := make([]ID, len(r.Stops))
		for k, idx := range r.Stops {
			ids[k] = p.Nodes[idx].ID
		}
		res.Routes[i] = ids
	}
	for i, idx := range unassigned {
		res.Unassigned[i] = p.Nodes[idx].ID
	}
	res.Stats = Stats{
		InitialDistance: initial,
		FinalDistance:   total,
		Iterations:      iters,
		Elapsed:         time.Since(start),
	}
	if initial > 0 {
		res.Stats.ImprovementPct = (initial - total) / initial * 100
	}
	return res, nil
}

func validate(p Problem) error {
	if len(p.Nodes) < 1 {
		return ErrNoPoints
	}
	if p.VehicleCount <= 0 {
		return ErrBadVehicleCount
	}
	if p.Capacity <= 0 {
		return ErrBadCapacity
	}
	if p.Nodes[0].Demand != 0 {
		return ErrDepotDemand
	}
	for _, nd := range p.Nodes {
		if nd.Demand < 0 {
			return ErrNegativeDemand
		}
	}
	return nil
}

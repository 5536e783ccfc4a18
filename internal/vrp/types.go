package vrp

import "time"

// Node is one demand point: an external identifier, a planar coordinate and
// a non-negative demand. Node 0 of a problem is always the depot and must
// carry zero demand. Nodes are immutable once handed to Solve.
type Node struct {
	ID     ID
	X, Y   float64
	Demand float64
}

// Problem is the full input of one planning call.
type Problem struct {
	Nodes        []Node
	VehicleCount int
	Capacity     float64     // uniform per-vehicle load limit
	Matrix       [][]float64 // optional precomputed distances; Euclidean when nil
}

// Config carries the heuristic knobs of one call. They are threaded
// explicitly rather than read from package state so concurrent calls with
// different budgets cannot interfere.
type Config struct {
	ApplyLocalSearch bool          // run 2-opt after construction
	TimeBudget       time.Duration // wall-clock bound for the whole optimization pass; 0 = unbounded
	MaxIterations    int           // cap on applied moves across all routes; 0 = unbounded
	Workers          int           // concurrent per-route optimizers; <=1 = sequential
	Eps              float64       // improvement tolerance; 0 = defaultEps
}

// DefaultConfig matches the caller-facing defaults: local search on,
// no budgets, sequential optimization.
func DefaultConfig() Config {
	return Config{ApplyLocalSearch: true}
}

// Route is one vehicle's tour. Stops are point indices starting and ending
// at the depot (index 0); Load is the demand sum of the interior stops and
// Distance the consecutive-edge sum under the matrix. A depot→depot route
// with no interior stops is a legal, empty route.
type Route struct {
	Stops    []int
	Load     float64
	Distance float64
}

// Stats reports how the optimization pass went. Budget exhaustion is a
// normal termination and shows up here, not as an error.
type Stats struct {
	InitialDistance float64       `json:"initialDistance"`
	FinalDistance   float64       `json:"finalDistance"`
	ImprovementPct  float64       `json:"improvementPct"`
	Iterations      int           `json:"iterations"`
	Elapsed         time.Duration `json:"elapsedNs"`
}

// Result is the outcome of one planning call, expressed in external
// identifiers. Structural infeasibility (a point no route could take) is
// reported through Unassigned, never as an error.
type Result struct {
	Routes        [][]ID
	Unassigned    []ID
	TotalDistance float64
	Stats         Stats
}

package vrp

import (
	"sync"
	"sync/atomic"
	"time"
)

// defaultEps is the improvement tolerance: a move is applied only when its
// delta is below -eps, which keeps floating-point noise from thrashing the
// scan near a local optimum.
const defaultEps = 1e-9

// budget bounds one optimization pass across all routes. The iteration
// counter and deadline are shared; both are enforced cooperatively between
// move evaluations, never mid-evaluation. The counter is atomic so that
// concurrent per-route workers can share it.
type budget struct {
	deadline    time.Time
	hasDeadline bool
	maxIters    int64
	iters       atomic.Int64
}

func newBudget(cfg Config) *budget {
	b := &budget{maxIters: int64(cfg.MaxIterations)}
	if cfg.TimeBudget > 0 {
		b.hasDeadline = true
		b.deadline = time.Now().Add(cfg.TimeBudget)
	}
	return b
}

// exhausted reports whether the pass must stop. The iteration cap is exact;
// the wall clock is polled every 1024 checks to keep the hot loop cheap.
func (b *budget) exhausted(step *int) bool {
	if b.maxIters > 0 && b.iters.Load() >= b.maxIters {
		return true
	}
	*step++
	if !b.hasDeadline || *step&1023 != 0 {
		return false
	}
	return time.Now().After(b.deadline)
}

// optimizeRoutes runs 2-opt on every route under one shared budget and
// returns the number of applied moves. Routes never exchange points, so the
// per-route passes are independent; with cfg.Workers > 1 they run
// concurrently, each worker exclusively owning its route's slice. The
// matrix is read-only throughout.
func optimizeRoutes(m *Matrix, routes []Route, cfg Config) int {
	eps := cfg.Eps
	if eps <= 0 {
		eps = defaultEps
	}
	b := newBudget(cfg)

	if cfg.Workers > 1 {
		sem := make(chan struct{}, cfg.Workers)
		var wg sync.WaitGroup
		for i := range routes {
			wg.Add(1)
			sem <- struct{}{}
			go func(r *Route) {
				defer wg.Done()
				twoOptRoute(m, r, b, eps)
				<-sem
			}(&routes[i])
		}
		wg.Wait()
	} else {
		for i := range routes {
			twoOptRoute(m, &routes[i], b, eps)
		}
	}
	return int(b.iters.Load())
}

// twoOptRoute drives one route to a 2-opt local optimum, or as far as the
// budget allows. First-improvement: (i, j) pairs are scanned in a fixed
// nested order and the first move with delta < -eps is applied, then the
// scan restarts on the mutated route. A full scan with no improvement means
// the route is locally optimal.
//
// Routes shorter than 4 positions have no candidate pair and are returned
// unchanged.
func twoOptRoute(m *Matrix, r *Route, b *budget, eps float64) {
	stops := r.Stops
	n := len(stops)
	if n < 4 {
		return
	}
	step := 0
scan:
	for {
		for i := 1; i <= n-3; i++ {
			for j := i + 1; j <= n-2; j++ {
				if b.exhausted(&step) {
					break scan
				}
				// Reversing [i..j] swaps exactly the four boundary edges;
				// edges inside the segment keep their cost under a
				// symmetric matrix.
				delta := m.At(stops[i-1], stops[j]) + m.At(stops[i], stops[j+1]) -
					m.At(stops[i-1], stops[i]) - m.At(stops[j], stops[j+1])
				if delta < -eps {
					reverse(stops, i, j)
					b.iters.Add(1)
					continue scan
				}
			}
		}
		break // local optimum
	}
	// membership and load are untouched; only the edge sum moved
	r.Distance = m.RouteDistance(stops)
}

// reverse swaps stops[i..j] in place.
func reverse(stops []int, i, j int) {
	for ; i < j; i, j = i+1, j-1 {
		stops[i], stops[j] = stops[j], stops[i]
	}
}

package vrp

// construct partitions the non-depot points into exactly vehicleCount routes
// with a capacity-constrained nearest-neighbor walk, one vehicle at a time.
//
// At each step the closest still-unassigned point whose demand fits the
// vehicle's remaining capacity is appended. Ties on distance go to the point
// that appears first in the input order, which makes construction fully
// deterministic for identical input. When nothing fits, the route closes
// back at the depot and the next vehicle starts.
//
// Points left over after the last vehicle — including any point whose demand
// alone exceeds capacity, which no vehicle can ever take — are returned as
// the unassigned list, in input order.
func construct(m *Matrix, demands []float64, vehicleCount int, capacity float64) ([]Route, []int) {
	n := m.Size()
	assigned := make([]bool, n)
	assigned[0] = true // depot

	routes := make([]Route, 0, vehicleCount)
	for v := 0; v < vehicleCount; v++ {
		r := Route{Stops: []int{0}}
		cur := 0
		for {
			best := -1
			bestDist := 0.0
			for i := 1; i < n; i++ {
				if assigned[i] || r.Load+demands[i] > capacity {
					continue
				}
				d := m.At(cur, i)
				// strict < keeps the first occurrence on equal distance
				if best == -1 || d < bestDist {
					best = i
					bestDist = d
				}
			}
			if best == -1 {
				break
			}
			r.Stops = append(r.Stops, best)
			r.Load += demands[best]
			r.Distance += bestDist
			assigned[best] = true
			cur = best
		}
		// close the tour; empty routes stay as depot→depot
		r.Distance += m.At(cur, 0)
		r.Stops = append(r.Stops, 0)
		routes = append(routes, r)
	}

	unassigned := []int{}
	for i := 1; i < n; i++ {
		if !assigned[i] {
			unassigned = append(unassigned, i)
		}
	}
	return routes, unassigned
}

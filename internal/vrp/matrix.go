package vrp

import "math"

// Matrix is a dense N×N travel-cost table keyed by point index. It is built
// once per planning call and shared read-only by the constructor and the
// optimizer, so no locking is needed around it. Weights are stored
// row-major in a single slice to keep the hot loops free of pointer chasing.
type Matrix struct {
	n int
	w []float64
}

// NewEuclideanMatrix computes planar Euclidean distances between all node
// pairs. The diagonal is zero and the result is symmetric by construction.
func NewEuclideanMatrix(nodes []Node) *Matrix {
	n := len(nodes)
	m := &Matrix{n: n, w: make([]float64, n*n)}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Hypot(nodes[i].X-nodes[j].X, nodes[i].Y-nodes[j].Y)
			m.w[i*n+j] = d
			m.w[j*n+i] = d
		}
	}
	return m
}

// NewSuppliedMatrix wraps a caller-provided table. Only the shape is
// enforced: the table must be exactly n×n or ErrShapeMismatch is returned.
// Symmetry and triangle inequality are the caller's business; values are
// used exactly as given, in the direction they are read.
func NewSuppliedMatrix(table [][]float64, n int) (*Matrix, error) {
	if len(table) != n {
		return nil, ErrShapeMismatch
	}
	m := &Matrix{n: n, w: make([]float64, n*n)}
	for i, row := range table {
		if len(row) != n {
			return nil, ErrShapeMismatch
		}
		copy(m.w[i*n:(i+1)*n], row)
	}
	return m, nil
}

// Size returns N, the number of points including the depot.
func (m *Matrix) Size() int { return m.n }

// At returns the travel cost from point index i to point index j.
func (m *Matrix) At(i, j int) float64 { return m.w[i*m.n+j] }

// RouteDistance sums consecutive-edge costs over a stop sequence.
func (m *Matrix) RouteDistance(stops []int) float64 {
	total := 0.0
	for i := 0; i < len(stops)-1; i++ {
		total += m.At(stops[i], stops[i+1])
	}
	return total
}

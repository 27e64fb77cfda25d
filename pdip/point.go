package pdip

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// point holds the primal-dual unknowns, or a residual or direction with the same
// block layout.
type point struct {
	x, lam, xsi, eta, s []float64
}

func newPoint(n, m int) *point {
	return &point{
		x:   make([]float64, n),
		lam: make([]float64, m),
		xsi: make([]float64, n),
		eta: make([]float64, n),
		s:   make([]float64, m),
	}
}

// initialPoint keeps x0 where it is strictly inside (alpha, beta) and uses the
// box midpoint elsewhere.
func initialPoint(x0, alpha, beta []float64, m int) (w *point) {
	w = newPoint(len(x0), m)
	for i, xi := range x0 {
		if !(xi > alpha[i] && xi < beta[i]) {
			xi = 0.5 * (alpha[i] + beta[i])
		}
		w.x[i] = xi
		w.xsi[i] = math.Max(1/(xi-alpha[i]), 1)
		w.eta[i] = math.Max(1/(beta[i]-xi), 1)
	}
	for j := 0; j < m; j++ {
		w.lam[j], w.s[j] = 1, 1
	}
	return
}

func (w *point) blocks() [5][]float64 {
	return [5][]float64{w.x, w.lam, w.xsi, w.eta, w.s}
}

// step returns w + a·dw as a new point.
func (w *point) step(a float64, dw *point) (r *point) {
	r = newPoint(len(w.x), len(w.lam))
	rb, wb, db := r.blocks(), w.blocks(), dw.blocks()
	for k := range rb {
		floats.AddScaledTo(rb[k], wb[k], a, db[k])
	}
	return
}

func (w *point) norm() float64 {
	var sum float64
	for _, b := range w.blocks() {
		sum += floats.Dot(b, b)
	}
	return math.Sqrt(sum)
}

func (w *point) maxAbs() (m float64) {
	for _, b := range w.blocks() {
		m = math.Max(m, floats.Norm(b, math.Inf(1)))
	}
	return
}

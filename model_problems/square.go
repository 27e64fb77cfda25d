package model_problems

import (
	"fmt"

	"github.com/notargets/gosao/utils"
)

// Square minimises Σ x_i² subject to Σ x_i >= 1 on [0, 1]ⁿ, the optimum is
// x_i = 1/n.
type Square struct {
	n int
}

func NewSquare(n int) *Square {
	if n < 1 {
		panic(fmt.Errorf("square problem needs at least one variable, have %d", n))
	}
	return &Square{n: n}
}

func (p *Square) Name() string     { return fmt.Sprintf("Square(%d)", p.n) }
func (p *Square) Dims() (n, m int) { return p.n, 1 }
func (p *Square) Bounds() (xmin, xmax []float64) {
	return make([]float64, p.n), utils.ConstArray(p.n, 1)
}

func (p *Square) X0() (x []float64) {
	x = utils.ConstArray(p.n, 0.8)
	if p.n > 1 {
		for i := range x {
			x[i] += 0.1 * float64(i) / float64(p.n-1)
		}
	}
	return
}

func (p *Square) G(x []float64) (f []float64) {
	f = []float64{0, 1}
	for _, xi := range x {
		f[0] += xi * xi
		f[1] -= xi
	}
	return
}

func (p *Square) DG(x []float64) (df utils.Matrix) {
	df = utils.NewMatrix(2, p.n)
	for i, xi := range x {
		df.Set(0, i, 2*xi)
		df.Set(1, i, -1)
	}
	return
}

func (p *Square) DDG(x []float64) (ddf utils.Matrix) {
	ddf = utils.NewMatrix(2, p.n)
	for i := range x {
		ddf.Set(0, i, 2)
	}
	return
}

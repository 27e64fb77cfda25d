package model_problems

import (
	"github.com/notargets/gosao/utils"
)

// Polynomial is a one variable convex quadratic pair on [0, 2]
//
//	f0 = x²
//	f1 = (x - 2)² - 1.25 <= 0
//
// with the constrained minimum at x = 2 - √1.25.
type Polynomial struct{}

func NewPolynomial() *Polynomial { return &Polynomial{} }

func (p *Polynomial) Name() string                   { return "Polynomial" }
func (p *Polynomial) Dims() (n, m int)               { return 1, 1 }
func (p *Polynomial) Bounds() (xmin, xmax []float64) { return []float64{0}, []float64{2} }
func (p *Polynomial) X0() []float64                  { return []float64{1} }

func (p *Polynomial) G(x []float64) []float64 {
	return []float64{x[0] * x[0], utils.POW(x[0]-2, 2) - 1.25}
}

func (p *Polynomial) DG(x []float64) utils.Matrix {
	return utils.NewMatrix(2, 1, []float64{2 * x[0], 2 * (x[0] - 2)})
}

func (p *Polynomial) DDG(x []float64) utils.Matrix {
	return utils.NewMatrix(2, 1, []float64{2, 2})
}

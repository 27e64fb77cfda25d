package model_problems

import (
	"github.com/notargets/gosao/utils"
)

// Problem supplies responses f (objective at index 0, constraints f_j <= 0 after)
// and their sensitivities df of size (m+1) x n.
type Problem interface {
	Name() string
	Dims() (n, m int)
	Bounds() (xmin, xmax []float64)
	X0() []float64
	G(x []float64) []float64
	DG(x []float64) utils.Matrix
}

// SecondOrder problems also supply the diagonal of every response Hessian.
type SecondOrder interface {
	Problem
	DDG(x []float64) utils.Matrix
}

// NewProblem looks up a model problem by name, size is used by the problems that
// scale with it.
func NewProblem(name string, size int) (p Problem, ok bool) {
	ok = true
	switch name {
	case "Square":
		p = NewSquare(size)
	case "Polynomial":
		p = NewPolynomial()
	case "TwoBarTruss":
		p = NewTwoBarTruss()
	case "Cantilever":
		p = NewCantilever(size)
	default:
		ok = false
	}
	return
}

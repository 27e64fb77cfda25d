// Package intervening holds the change of variables y(x) used to build convex
// separable approximations. Every transform is indexed by (response j,
// variable i) so that different responses may bend the same variable in
// different directions.
package intervening

import (
	"github.com/notargets/gosao/utils"
)

// Transform is an intervening variable y_ji(x_i) with its first and second
// derivatives with respect to x_i.
type Transform interface {
	// Update is called once per outer iteration with the current design and the
	// response sensitivities, (m+1) x n.
	Update(x []float64, df utils.Matrix)
	Y(j, i int, x float64) float64
	DY(j, i int, x float64) float64
	DDY(j, i int, x float64) float64
	Name() string
}

// Linear is y = x
type Linear struct{}

func (Linear) Update([]float64, utils.Matrix)  {}
func (Linear) Y(_, _ int, x float64) float64   { return x }
func (Linear) DY(_, _ int, _ float64) float64  { return 1 }
func (Linear) DDY(_, _ int, _ float64) float64 { return 0 }
func (Linear) Name() string                    { return "Linear" }

// Reciprocal is y = 1/x, valid for x > 0
type Reciprocal struct{}

func (Reciprocal) Update([]float64, utils.Matrix)  {}
func (Reciprocal) Y(_, _ int, x float64) float64   { return 1 / x }
func (Reciprocal) DY(_, _ int, x float64) float64  { return -utils.POW(x, -2) }
func (Reciprocal) DDY(_, _ int, x float64) float64 { return 2 * utils.POW(x, -3) }
func (Reciprocal) Name() string                    { return "Reciprocal" }

// ConLin is linear on pairs with df >= 0 and reciprocal where df < 0, which makes
// the first order approximation convex for x > 0.
type ConLin struct {
	branches BranchSet
}

func (c *ConLin) Update(_ []float64, df utils.Matrix) {
	c.branches = NewBranchSet(df)
}

func (c *ConLin) Branches() BranchSet { return c.branches }

func (c *ConLin) Y(j, i int, x float64) float64 {
	if c.branches.At(j, i) == LowerAsymptoteBranch {
		return Reciprocal{}.Y(j, i, x)
	}
	return x
}

func (c *ConLin) DY(j, i int, x float64) float64 {
	if c.branches.At(j, i) == LowerAsymptoteBranch {
		return Reciprocal{}.DY(j, i, x)
	}
	return 1
}

func (c *ConLin) DDY(j, i int, x float64) float64 {
	if c.branches.At(j, i) == LowerAsymptoteBranch {
		return Reciprocal{}.DDY(j, i, x)
	}
	return 0
}

func (c *ConLin) Name() string { return "ConLin" }

// NewTransform maps an input deck name onto a non MMA transform.
func NewTransform(name string) (t Transform, ok bool) {
	switch name {
	case "Linear", "linear":
		return Linear{}, true
	case "Reciprocal", "reciprocal":
		return Reciprocal{}, true
	case "ConLin", "conlin", "CONLIN":
		return &ConLin{}, true
	}
	return nil, false
}

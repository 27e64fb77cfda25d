package sao

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gosao/utils"
)

// Iterate is what a Criterion sees after each subproblem solve. F and DF are
// evaluated at XPrev, X is the solution of the subproblem built there and Lam its
// constraint multipliers. FPrev is nil on the first iteration.
type Iterate struct {
	Iteration  int
	X, XPrev   []float64
	F, FPrev   []float64
	DF         utils.Matrix
	Lam        []float64
	XMin, XMax []float64
}

// MaxViolation is max(0, f_1, ..., f_m).
func (it *Iterate) MaxViolation() (v float64) {
	for _, fj := range it.F[1:] {
		v = math.Max(v, fj)
	}
	return
}

type Criterion interface {
	// Assess returns the criterion value and whether it is satisfied.
	Assess(it *Iterate) (value float64, converged bool)
	Name() string
}

// KKT measures the norm of the Lagrangian gradient ∇f0 + Σ lam_j ∇fj, dropping
// components that push against an active global bound.
type KKT struct {
	Tol      float64
	BoundTol float64
}

func NewKKT(tol float64) *KKT { return &KKT{Tol: tol, BoundTol: 1e-6} }

func (c *KKT) Name() string { return "KKT" }

func (c *KKT) Assess(it *Iterate) (value float64, converged bool) {
	var (
		_, n = it.DF.Dims()
		grad = utils.CopyArray(it.DF.Row(0))
	)
	for j, l := range it.Lam {
		floats.AddScaled(grad, l, it.DF.Row(j+1))
	}
	for i := 0; i < n; i++ {
		dx := it.XMax[i] - it.XMin[i]
		atLower := it.X[i]-it.XMin[i] <= c.BoundTol*dx
		atUpper := it.XMax[i]-it.X[i] <= c.BoundTol*dx
		if (atLower && grad[i] > 0) || (atUpper && grad[i] < 0) {
			grad[i] = 0
		}
	}
	value = floats.Norm(grad, 2)
	converged = value < c.Tol
	return
}

// ObjectiveChange is |f0 - f0_prev| / max(|f0_prev|, 1), taken as 1 on the first
// iteration.
type ObjectiveChange struct {
	Tol float64
}

func (c *ObjectiveChange) Name() string { return "ObjectiveChange" }

func (c *ObjectiveChange) Assess(it *Iterate) (value float64, converged bool) {
	if it.FPrev == nil {
		return 1, false
	}
	value = math.Abs(it.F[0]-it.FPrev[0]) / math.Max(math.Abs(it.FPrev[0]), 1)
	converged = value < c.Tol
	return
}

// VariableChange is the largest design step scaled by the global box width.
type VariableChange struct {
	Tol float64
}

func (c *VariableChange) Name() string { return "VariableChange" }

func (c *VariableChange) Assess(it *Iterate) (value float64, converged bool) {
	for i, xi := range it.X {
		value = math.Max(value, math.Abs(xi-it.XPrev[i])/(it.XMax[i]-it.XMin[i]))
	}
	converged = value < c.Tol
	return
}

// Feasibility is satisfied once no constraint exceeds Tol.
type Feasibility struct {
	Tol float64
}

func (c *Feasibility) Name() string { return "Feasibility" }

func (c *Feasibility) Assess(it *Iterate) (value float64, converged bool) {
	value = it.MaxViolation()
	converged = value <= c.Tol
	return
}

// IterationCount stops after Max outer iterations.
type IterationCount struct {
	Max int
}

func (c *IterationCount) Name() string { return "IterationCount" }

func (c *IterationCount) Assess(it *Iterate) (value float64, converged bool) {
	value = float64(it.Iteration + 1)
	converged = it.Iteration+1 >= c.Max
	return
}

// All is satisfied when every member is, its value is the largest member value.
type All []Criterion

func (c All) Name() string {
	var names []string
	for _, cc := range c {
		names = append(names, cc.Name())
	}
	return fmt.Sprintf("All(%s)", strings.Join(names, ","))
}

func (c All) Assess(it *Iterate) (value float64, converged bool) {
	converged = len(c) != 0
	for _, cc := range c {
		v, ok := cc.Assess(it)
		value = math.Max(value, v)
		converged = converged && ok
	}
	return
}

// NewCriterion builds a criterion by name, "All" combines KKT, ObjectiveChange,
// VariableChange and Feasibility with the same tolerance.
func NewCriterion(name string, tol float64, maxIter int) (c Criterion, err error) {
	switch name {
	case "KKT":
		c = NewKKT(tol)
	case "ObjectiveChange":
		c = &ObjectiveChange{Tol: tol}
	case "VariableChange":
		c = &VariableChange{Tol: tol}
	case "Feasibility":
		c = &Feasibility{Tol: tol}
	case "IterationCount":
		c = &IterationCount{Max: maxIter}
	case "All":
		c = All{NewKKT(tol), &ObjectiveChange{Tol: tol}, &VariableChange{Tol: tol}, &Feasibility{Tol: tol}}
	default:
		err = errors.Errorf("unknown convergence criterion %q", name)
	}
	return
}

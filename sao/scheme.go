package sao

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/notargets/gosao/intervening"
	"github.com/notargets/gosao/mma"
	"github.com/notargets/gosao/subproblem"
	"github.com/notargets/gosao/utils"
)

// Scheme builds one convex separable subproblem per outer iteration. Reset is
// called once at the start of an optimization run.
type Scheme interface {
	Build(x, f []float64, df, ddf utils.Matrix) (*subproblem.Separable, error)
	Reset()
}

var _ Scheme = (*mma.Scheme)(nil)

// MoveLimitScheme pairs a fixed intervening transform with a box move limit
//
//	alpha = max(x - Move·dx, xmin),  beta = min(x + Move·dx, xmax)
//
// Transforms with reciprocal branches additionally keep alpha above Floor.
type MoveLimitScheme struct {
	Transform  string
	XMin, XMax []float64
	Move       float64
	Floor      float64
	Logger     logrus.FieldLogger
	iteration  int
}

func NewMoveLimitScheme(transform string, xmin, xmax []float64, move float64) (s *MoveLimitScheme, err error) {
	if transform == "MMA" {
		err = errors.New("MMA asymptotes are managed by mma.Scheme")
		return
	}
	tr, ok := intervening.NewTransform(transform)
	if !ok {
		err = errors.Errorf("unknown intervening transform %q", transform)
		return
	}
	if len(xmin) != len(xmax) {
		err = errors.Wrapf(subproblem.ErrShape, "bounds of length %d and %d", len(xmin), len(xmax))
		return
	}
	for i := range xmin {
		if !(xmax[i] > xmin[i]) {
			err = errors.Errorf("empty global box for variable %d: [%g, %g]", i, xmin[i], xmax[i])
			return
		}
	}
	if !(move > 0) {
		err = errors.Errorf("move limit must be positive, have %g", move)
		return
	}
	s = &MoveLimitScheme{
		Transform: tr.Name(),
		XMin:      utils.CopyArray(xmin),
		XMax:      utils.CopyArray(xmax),
		Move:      move,
		Floor:     1e-6,
		Logger:    logrus.StandardLogger(),
	}
	return
}

func (s *MoveLimitScheme) Reset() { s.iteration = 0 }

func (s *MoveLimitScheme) Bounds(x []float64) (alpha, beta []float64) {
	var (
		n          = len(x)
		reciprocal = s.Transform != "Linear"
	)
	alpha, beta = make([]float64, n), make([]float64, n)
	for i, xi := range x {
		dx := s.XMax[i] - s.XMin[i]
		alpha[i] = math.Max(xi-s.Move*dx, s.XMin[i])
		beta[i] = math.Min(xi+s.Move*dx, s.XMax[i])
		if reciprocal {
			alpha[i] = math.Max(alpha[i], s.Floor)
		}
	}
	return
}

func (s *MoveLimitScheme) Build(x, f []float64, df, ddf utils.Matrix) (sp *subproblem.Separable, err error) {
	if len(x) != len(s.XMin) {
		err = errors.Wrapf(subproblem.ErrShape, "design of length %d, expected %d", len(x), len(s.XMin))
		return
	}
	tr, _ := intervening.NewTransform(s.Transform)
	alpha, beta := s.Bounds(x)
	for i := range alpha {
		if !(alpha[i] < beta[i]) {
			err = errors.Errorf("variable %d = %g leaves an empty move limit box [%g, %g]", i, x[i], alpha[i], beta[i])
			return
		}
	}
	if sp, err = subproblem.New(tr, x, f, df, ddf, alpha, beta); err != nil {
		return
	}
	s.Logger.WithFields(logrus.Fields{
		"transform": s.Transform,
		"iteration": s.iteration,
	}).Debug("move limit subproblem built")
	s.iteration++
	return
}

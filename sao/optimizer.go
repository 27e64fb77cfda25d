// Package sao drives sequential approximate optimization: evaluate the model
// problem, build a convex separable subproblem, solve it, assess convergence and
// record the iteration, until the criterion is met.
package sao

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/notargets/gosao/model_problems"
	"github.com/notargets/gosao/pdip"
	"github.com/notargets/gosao/utils"
)

var ErrMaxIterations = errors.New("outer iteration limit reached before convergence")

type Optimizer struct {
	Problem   model_problems.Problem
	Scheme    Scheme
	Solver    pdip.Solver
	Criterion Criterion
	// SecondOrder passes response curvature to the scheme when the problem
	// provides it.
	SecondOrder   bool
	MaxIterations int
	Logger        logrus.FieldLogger
	Records       *Records
}

// Result is the last design reached by Run with the responses evaluated there.
type Result struct {
	X          []float64
	F          []float64
	Lam        []float64
	Iterations int
	Criterion  float64
	Converged  bool
}

func NewOptimizer(p model_problems.Problem, scheme Scheme, solver pdip.Solver, criterion Criterion) *Optimizer {
	return &Optimizer{
		Problem:       p,
		Scheme:        scheme,
		Solver:        solver,
		Criterion:     criterion,
		MaxIterations: 500,
		Logger:        logrus.StandardLogger(),
		Records: &Records{
			Problem:   p.Name(),
			Criterion: criterion.Name(),
		},
	}
}

// Run iterates from the problem's starting design. A non converged run returns
// the last result together with ErrMaxIterations.
func (o *Optimizer) Run() (res *Result, err error) {
	var (
		x          = o.Problem.X0()
		xmin, xmax = o.Problem.Bounds()
		fPrev      []float64
		so, hasDDG = o.Problem.(model_problems.SecondOrder)
	)
	o.Scheme.Reset()
	res = &Result{X: x}
	for it := 0; it < o.MaxIterations; it++ {
		var (
			f   = o.Problem.G(x)
			df  = o.Problem.DG(x)
			ddf utils.Matrix
		)
		if o.SecondOrder && hasDDG {
			ddf = so.DDG(x)
		}
		if utils.IsNan(f) || utils.IsNan(df) || utils.IsNan(ddf) {
			return nil, errors.Errorf("iteration %d: %s responses are NaN at x = %v", it, o.Problem.Name(), x)
		}
		sp, err := o.Scheme.Build(x, f, df, ddf)
		if err != nil {
			return nil, errors.Wrapf(err, "iteration %d: building subproblem", it)
		}
		sub, err := o.Solver.Solve(sp, x)
		if err != nil {
			return nil, errors.Wrapf(err, "iteration %d: solving subproblem", it)
		}
		iterate := &Iterate{
			Iteration: it,
			X:         sub.X,
			XPrev:     x,
			F:         f,
			FPrev:     fPrev,
			DF:        df,
			Lam:       sub.Lam,
			XMin:      xmin,
			XMax:      xmax,
		}
		value, converged := o.Criterion.Assess(iterate)
		o.Logger.WithFields(logrus.Fields{
			"iter":          it,
			"obj":           f[0],
			"criterion":     value,
			"max_violation": iterate.MaxViolation(),
		}).Info(o.Problem.Name())
		if o.Records != nil {
			o.Records.Add(Record{
				Iteration:    it,
				Objective:    f[0],
				MaxViolation: iterate.MaxViolation(),
				Criterion:    value,
				Stages:       len(sub.Stages),
				Newton:       sub.Iterations(),
				X:            x,
			})
		}
		x, fPrev = sub.X, f
		*res = Result{
			X:          x,
			Lam:        sub.Lam,
			Iterations: it + 1,
			Criterion:  value,
			Converged:  converged,
		}
		if converged {
			break
		}
	}
	res.F = o.Problem.G(res.X)
	if !res.Converged {
		err = errors.Wrapf(ErrMaxIterations, "%s after %d iterations, criterion %s = %g",
			o.Problem.Name(), res.Iterations, o.Criterion.Name(), res.Criterion)
	}
	return
}

// Package pdip solves convex separable subproblems
//
//	min   g0(x)
//	s.t.  gj(x) <= 0,        j = 1..m
//	      alpha <= x <= beta
//
// with a primal-dual interior point method. Newton's method is applied to the
// relaxed KKT conditions of w = (x, lam, xsi, eta, s), where the complementarity
// right hand sides are relaxed to epsi, and epsi is halved from 1 until it falls
// below Epsimin. Separability keeps the Lagrangian Hessian diagonal, so the
// Newton system reduces to a symmetric positive definite system of size
// min(n, m).
package pdip

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/notargets/gosao/utils"
)

var (
	// ErrLineSearch is returned when no damped step reduces the residual within
	// IterAMax attempts.
	ErrLineSearch = errors.New("line search failed to reduce the KKT residual")
	// ErrSingular is returned when the reduced Newton system cannot be solved.
	ErrSingular = errors.New("singular reduced Newton system")
	// ErrInnerLoop is returned for a continuation stage that did not converge in
	// IterInMax Newton iterations, only when Options.StrictStages is set.
	ErrInnerLoop = errors.New("newton iterations exhausted before stage tolerance")
	// ErrBounds reports an empty or inconsistent local box.
	ErrBounds = errors.New("invalid subproblem bounds")
)

// Subproblem is the convex separable problem consumed by the solver. Row j of DG
// and DDG holds response j (0 = objective); DDG is the diagonal curvature.
type Subproblem interface {
	Dims() (n, m int)
	Bounds() (alpha, beta []float64)
	G(x []float64) []float64
	DG(x []float64) utils.Matrix
	DDG(x []float64) utils.Matrix
}

// Solver is the strategy interface for subproblem solvers.
type Solver interface {
	Solve(sub Subproblem, x0 []float64) (*Result, error)
}

// Reduction selects which block of the Newton system is kept after elimination.
type Reduction uint8

const (
	// ReduceAuto keeps the smaller of (dx, dlam).
	ReduceAuto Reduction = iota
	// ReduceDual eliminates dx and solves an m x m system for dlam.
	ReduceDual
	// ReducePrimal eliminates dlam and solves an n x n system for dx.
	ReducePrimal
)

func (r Reduction) String() string {
	switch r {
	case ReduceDual:
		return "Dual"
	case ReducePrimal:
		return "Primal"
	}
	return "Auto"
}

func NewReduction(label string) Reduction {
	switch label {
	case "Dual", "dual":
		return ReduceDual
	case "Primal", "primal":
		return ReducePrimal
	}
	return ReduceAuto
}

type Options struct {
	Epsimin   float64 // continuation stops once epsi <= Epsimin
	EpsiFac   float64 // a stage converges when max|r| <= EpsiFac·epsi
	IterAMax  int     // damping attempts per Newton step
	IterInMax int     // Newton iterations per continuation stage
	// Ab scales the fraction to boundary rule, the step keeps every positive
	// quantity at least a fraction 1-1/|Ab| of its current value.
	Ab        float64
	Reduction Reduction
	// StrictStages turns a non converged continuation stage into ErrInnerLoop,
	// otherwise it is reported in Result.Stages and annealing continues.
	StrictStages bool
	Logger       logrus.FieldLogger
}

func DefaultOptions() Options {
	return Options{
		Epsimin:   1e-7,
		EpsiFac:   0.9,
		IterAMax:  50,
		IterInMax: 100,
		Ab:        -1.01,
		Reduction: ReduceAuto,
		Logger:    logrus.StandardLogger(),
	}
}

// Stage records one epsi continuation level.
type Stage struct {
	Epsi         float64
	Iterations   int // Newton iterations
	Attempts     int // line search attempts over all iterations
	ResidualNorm float64
	ResidualMax  float64
	Converged    bool
}

// Result is the KKT point of the subproblem. Y, Z, Mu and Zet belong to the
// artificial variable formulation of the classical MMA subsolver; this
// formulation has no artificial variables and returns them as zeros.
type Result struct {
	X      []float64
	Y      []float64
	Z      float64
	Lam    []float64
	Xsi    []float64
	Eta    []float64
	Mu     []float64
	Zet    float64
	S      []float64
	Stages []Stage
}

// Converged is true when every continuation stage met its tolerance.
func (r *Result) Converged() bool {
	for _, st := range r.Stages {
		if !st.Converged {
			return false
		}
	}
	return true
}

// Iterations is the total number of Newton iterations.
func (r *Result) Iterations() (n int) {
	for _, st := range r.Stages {
		n += st.Iterations
	}
	return
}

// PDIP is the primal-dual interior point solver.
type PDIP struct {
	Options
}

func New(opts Options) *PDIP {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &PDIP{Options: opts}
}

type bounded struct {
	Subproblem
	alpha, beta []float64
}

func (b bounded) Bounds() ([]float64, []float64) { return b.alpha, b.beta }

// Solve runs the default solver on sub restricted to [alpha, beta], starting
// from the design x.
func Solve(sub Subproblem, x, alpha, beta []float64, epsimin float64) (*Result, error) {
	opts := DefaultOptions()
	opts.Epsimin = epsimin
	return New(opts).Solve(bounded{sub, alpha, beta}, x)
}

// Solve drives the primal-dual point from x0 to a KKT point of sub. Every
// accepted point keeps alpha < x < beta and lam, xsi, eta, s > 0.
func (p *PDIP) Solve(sub Subproblem, x0 []float64) (res *Result, err error) {
	var (
		n, m        = sub.Dims()
		alpha, beta = sub.Bounds()
		w           *point
		r           *point
	)
	if len(x0) != n || len(alpha) != n || len(beta) != n {
		err = errors.Wrapf(ErrBounds, "design %d, alpha %d, beta %d entries for n = %d",
			len(x0), len(alpha), len(beta), n)
		return
	}
	for i := range alpha {
		if !(alpha[i] < beta[i]) {
			err = errors.Wrapf(ErrBounds, "variable %d: alpha = %g, beta = %g", i, alpha[i], beta[i])
			return
		}
	}
	ctx := &solveContext{
		sub:   sub,
		opts:  &p.Options,
		alpha: alpha,
		beta:  beta,
		n:     n,
		m:     m,
	}
	w = initialPoint(x0, alpha, beta, m)
	res = &Result{}
	for epsi := 1.0; epsi > p.Epsimin; epsi *= 0.5 {
		st := Stage{Epsi: epsi}
		r = ctx.residual(w, epsi)
		st.ResidualNorm, st.ResidualMax = r.norm(), r.maxAbs()
		for st.ResidualMax > p.EpsiFac*epsi && st.Iterations < p.IterInMax {
			st.Iterations++
			var (
				dw       *point
				attempts int
			)
			if dw, err = ctx.newtonDirection(w, epsi); err != nil {
				err = errors.Wrapf(err, "epsi = %g, newton iteration %d", epsi, st.Iterations)
				return nil, err
			}
			w, r, attempts, err = ctx.lineSearch(w, dw, st.ResidualNorm, epsi)
			st.Attempts += attempts
			if err != nil {
				err = errors.Wrapf(err, "epsi = %g, newton iteration %d", epsi, st.Iterations)
				return nil, err
			}
			st.ResidualNorm, st.ResidualMax = r.norm(), r.maxAbs()
		}
		st.Converged = st.ResidualMax <= p.EpsiFac*epsi
		log := p.Logger.WithFields(logrus.Fields{
			"epsi":       epsi,
			"iterations": st.Iterations,
			"attempts":   st.Attempts,
			"rnorm":      st.ResidualNorm,
			"rmax":       st.ResidualMax,
		})
		res.Stages = append(res.Stages, st)
		if !st.Converged {
			if p.StrictStages {
				err = errors.Wrapf(ErrInnerLoop, "epsi = %g after %d iterations, max residual %g",
					epsi, st.Iterations, st.ResidualMax)
				return nil, err
			}
			log.Warn("continuation stage did not converge")
			continue
		}
		log.Debug("continuation stage converged")
	}
	res.X = w.x
	res.Lam = w.lam
	res.Xsi = w.xsi
	res.Eta = w.eta
	res.S = w.s
	res.Y = make([]float64, m)
	res.Mu = make([]float64, m)
	return
}

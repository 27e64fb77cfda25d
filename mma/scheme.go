// Package mma implements the method of moving asymptotes: per variable
// asymptotes that adapt to the iteration history, and the convex separable
// subproblem they induce at every outer design iterate.
package mma

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/notargets/gosao/intervening"
	"github.com/notargets/gosao/subproblem"
	"github.com/notargets/gosao/utils"
)

// Config holds the asymptote constants, all overridable.
type Config struct {
	Albefa      float64 // keeps the local bounds this fraction away from the asymptotes
	AsyInit     float64 // initial asymptote distance as a fraction of xmax-xmin
	AsyIncr     float64 // expansion factor for monotonically moving variables
	AsyDecr     float64 // contraction factor for oscillating variables
	AsyBound    float64 // asymptotes stay within [dx/AsyBound², AsyBound·dx] of x
	DxMin       float64 // absolute floor on |x-low| and |upp-x|
	MoveLimit   float64 // local bounds move at most MoveLimit·dx from x
	IterInitial float64 // iterations below this use the initial asymptote rule
}

func DefaultConfig() Config {
	return Config{
		Albefa:      0.1,
		AsyInit:     0.5,
		AsyIncr:     1.2,
		AsyDecr:     0.7,
		AsyBound:    10.0,
		DxMin:       1e-5,
		MoveLimit:   0.5,
		IterInitial: 1.5,
	}
}

// State is the persistent part of the scheme. It is mutated once per call to
// Build and reset only by Reset, never during a subproblem solve.
type State struct {
	Low, Upp     []float64
	Factor       []float64
	XOld1, XOld2 []float64
	Iteration    int
}

// Scheme is the asymptote scheme for one design block.
type Scheme struct {
	Config
	XMin, XMax []float64
	State      State
	Logger     logrus.FieldLogger
	dx         []float64
}

func New(xmin, xmax []float64, cfg Config) (s *Scheme, err error) {
	var (
		n = len(xmin)
	)
	if n == 0 || len(xmax) != n {
		err = errors.Wrapf(subproblem.ErrShape, "global bounds of length %d and %d", len(xmin), len(xmax))
		return
	}
	s = &Scheme{
		Config: cfg,
		XMin:   utils.CopyArray(xmin),
		XMax:   utils.CopyArray(xmax),
		Logger: logrus.StandardLogger(),
		dx:     make([]float64, n),
	}
	for i := range xmin {
		s.dx[i] = xmax[i] - xmin[i]
		if !(s.dx[i] > 0) {
			err = errors.Errorf("empty global box for variable %d: [%g, %g]", i, xmin[i], xmax[i])
			return nil, err
		}
	}
	s.Reset()
	return
}

// Reset returns the scheme to the start of an optimisation.
func (s *Scheme) Reset() {
	n := len(s.XMin)
	s.State = State{
		Low:    utils.CopyArray(s.XMin),
		Upp:    utils.CopyArray(s.XMax),
		Factor: utils.ConstArray(n, s.AsyInit),
		XOld1:  make([]float64, n),
		XOld2:  make([]float64, n),
	}
}

// Build updates the asymptotes for the design x and returns the MMA subproblem
// built from the responses f (m+1), sensitivities df ((m+1) x n) and optional
// diagonal curvature ddf. State only changes once the subproblem is built.
func (s *Scheme) Build(x, f []float64, df, ddf utils.Matrix) (sp *subproblem.Separable, err error) {
	var (
		n = len(s.XMin)
	)
	if len(x) != n {
		err = errors.Wrapf(subproblem.ErrShape, "design of length %d, expected %d", len(x), n)
		return
	}
	if _, err = subproblem.CheckShape(n, f, df, ddf); err != nil {
		return
	}
	for i, xi := range x {
		if xi < s.XMin[i]-utils.NODETOL || xi > s.XMax[i]+utils.NODETOL {
			err = errors.Errorf("design variable %d = %g outside global bounds [%g, %g]", i, xi, s.XMin[i], s.XMax[i])
			return
		}
	}
	low, upp, factor := s.updateAsymptotes(x)
	alpha, beta := s.bounds(x, low, upp)
	tr := intervening.NewMMA(utils.CopyArray(low), utils.CopyArray(upp))
	if sp, err = subproblem.New(tr, x, f, df, ddf, alpha, beta); err != nil {
		return
	}
	st := &s.State
	st.Low, st.Upp, st.Factor = low, upp, factor
	copy(st.XOld2, st.XOld1)
	copy(st.XOld1, x)
	st.Iteration++
	return
}

// updateAsymptotes returns the asymptotes and move factors for x, State is not
// modified.
func (s *Scheme) updateAsymptotes(x []float64) (low, upp, factor []float64) {
	var (
		st           = &s.State
		nIncr, nDecr int
		near         = 1 / (s.AsyBound * s.AsyBound)
		far          = s.AsyBound
	)
	low, upp, factor = make([]float64, len(x)), make([]float64, len(x)), utils.CopyArray(st.Factor)
	if float64(st.Iteration) < s.IterInitial {
		for i, xi := range x {
			low[i] = xi - factor[i]*s.dx[i]
			upp[i] = xi + factor[i]*s.dx[i]
		}
	} else {
		for i, xi := range x {
			// zzz > 0: monotone, relax; zzz < 0: oscillating, contract
			zzz := (xi - st.XOld1[i]) * (st.XOld1[i] - st.XOld2[i])
			switch {
			case zzz > 0:
				factor[i] = s.AsyIncr
				nIncr++
			case zzz < 0:
				factor[i] = s.AsyDecr
				nDecr++
			}
			low[i] = xi - factor[i]*(st.XOld1[i]-st.Low[i])
			upp[i] = xi + factor[i]*(st.Upp[i]-st.XOld1[i])
		}
	}
	for i, xi := range x {
		var (
			lowMin = xi - far*s.dx[i]
			lowMax = xi - near*s.dx[i]
			uppMin = xi + near*s.dx[i]
			uppMax = xi + far*s.dx[i]
		)
		low[i] = math.Min(utils.Clamp(low[i], lowMin, lowMax), xi-s.DxMin)
		upp[i] = math.Max(utils.Clamp(upp[i], uppMin, uppMax), xi+s.DxMin)
	}
	s.Logger.WithFields(logrus.Fields{
		"iteration":   st.Iteration,
		"expanding":   nIncr,
		"oscillating": nDecr,
	}).Debug("asymptotes updated")
	return
}

// Bounds returns the local box of the subproblem at x,
//
//	alpha = max(low + albefa·(x-low), x - move·dx, xmin)
//	beta  = min(upp - albefa·(upp-x), x + move·dx, xmax)
func (s *Scheme) Bounds(x []float64) (alpha, beta []float64) {
	return s.bounds(x, s.State.Low, s.State.Upp)
}

func (s *Scheme) bounds(x, low, upp []float64) (alpha, beta []float64) {
	n := len(x)
	alpha, beta = make([]float64, n), make([]float64, n)
	for i, xi := range x {
		alpha[i] = math.Max(math.Max(low[i]+s.Albefa*(xi-low[i]), xi-s.MoveLimit*s.dx[i]), s.XMin[i])
		beta[i] = math.Min(math.Min(upp[i]-s.Albefa*(upp[i]-xi), xi+s.MoveLimit*s.dx[i]), s.XMax[i])
	}
	return
}

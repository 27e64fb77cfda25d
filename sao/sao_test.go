package sao

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gosao/mma"
	"github.com/notargets/gosao/model_problems"
	"github.com/notargets/gosao/pdip"
	"github.com/notargets/gosao/utils"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func newMMAOptimizer(t *testing.T, p model_problems.Problem, criterion Criterion) *Optimizer {
	xmin, xmax := p.Bounds()
	scheme, err := mma.New(xmin, xmax, mma.DefaultConfig())
	require.NoError(t, err)
	scheme.Logger = quietLogger()
	opts := pdip.DefaultOptions()
	opts.Logger = quietLogger()
	o := NewOptimizer(p, scheme, pdip.New(opts), criterion)
	o.Logger = quietLogger()
	o.MaxIterations = 200
	return o
}

func TestPolynomialMMA(t *testing.T) {
	o := newMMAOptimizer(t, model_problems.NewPolynomial(), &VariableChange{Tol: 1e-6})
	res, err := o.Run()
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.InDelta(t, 2-math.Sqrt(1.25), res.X[0], 1e-4)
	assert.Equal(t, res.Iterations, o.Records.Len())
	assert.Equal(t, 1.0, o.Records.History[0].Objective)
	assert.Equal(t, []float64{1}, o.Records.History[0].X)
}

func TestPolynomialSecondOrderLinear(t *testing.T) {
	// Linear intervening variables with exact curvature reproduce the quadratic
	// problem, the first subproblem already solves it.
	var (
		p          = model_problems.NewPolynomial()
		xmin, xmax = p.Bounds()
	)
	scheme, err := NewMoveLimitScheme("Linear", xmin, xmax, 0.5)
	require.NoError(t, err)
	scheme.Logger = quietLogger()
	opts := pdip.DefaultOptions()
	opts.Logger = quietLogger()
	o := NewOptimizer(p, scheme, pdip.New(opts), &VariableChange{Tol: 1e-6})
	o.Logger = quietLogger()
	o.SecondOrder = true
	res, err := o.Run()
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Iterations, 3)
	assert.InDelta(t, 2-math.Sqrt(1.25), o.Records.History[1].X[0], 1e-5)
	assert.InDelta(t, 2-math.Sqrt(1.25), res.X[0], 1e-5)
	assert.InDelta(t, 0, res.F[1], 1e-5)
}

func TestSquareMMA(t *testing.T) {
	for _, n := range []int{2, 3} {
		o := newMMAOptimizer(t, model_problems.NewSquare(n), All{&VariableChange{Tol: 1e-7}, &Feasibility{Tol: 1e-6}})
		o.SecondOrder = true
		res, err := o.Run()
		require.NoError(t, err)
		assert.InDeltaSlice(t, utils.ConstArray(n, 1/float64(n)), res.X, 1e-3)
	}
}

func TestTwoBarTrussMMA(t *testing.T) {
	o := newMMAOptimizer(t, model_problems.NewTwoBarTruss(), All{&VariableChange{Tol: 1e-6}, &Feasibility{Tol: 1e-6}})
	res, err := o.Run()
	require.NoError(t, err)
	assert.InDelta(t, 1.51, res.F[0], 0.01)
	assert.InDelta(t, 1.41, res.X[0], 0.02)
	assert.InDelta(t, 0.38, res.X[1], 0.02)
	assert.Less(t, math.Max(res.F[1], res.F[2]), 1e-3)
}

func TestCantileverMMA(t *testing.T) {
	var (
		p   = model_problems.NewCantilever(5)
		o   = newMMAOptimizer(t, p, NewKKT(1e-3))
		res *Result
		err error
	)
	// m > n, every Newton system is reduced to the design variables
	res, err = o.Run()
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Less(t, res.Iterations, 50)
	// Vanderplaats' five segment beam, V* = 65420
	assert.InEpsilon(t, 65419.66, res.F[0], 1e-3)
	iterate := &Iterate{F: res.F}
	assert.LessOrEqual(t, iterate.MaxViolation(), 1e-4)
	xmin, xmax := p.Bounds()
	for i, xi := range res.X {
		assert.True(t, xi >= xmin[i] && xi <= xmax[i])
	}
}

func TestMaxIterations(t *testing.T) {
	o := newMMAOptimizer(t, model_problems.NewPolynomial(), &VariableChange{Tol: 1e-12})
	o.MaxIterations = 1
	res, err := o.Run()
	assert.True(t, errors.Is(err, ErrMaxIterations))
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Iterations)
	assert.False(t, res.Converged)
	assert.Len(t, res.F, 2)
}

func TestRecordsOutput(t *testing.T) {
	o := newMMAOptimizer(t, model_problems.NewTwoBarTruss(), &IterationCount{Max: 5})
	_, err := o.Run()
	require.NoError(t, err)
	require.Equal(t, 5, o.Records.Len())

	dir := t.TempDir()
	fileName := filepath.Join(dir, "history.yaml")
	require.NoError(t, o.Records.WriteYAML(fileName))
	r, err := ReadRecords(fileName)
	require.NoError(t, err)
	assert.Equal(t, "TwoBarTruss", r.Problem)
	assert.Equal(t, "IterationCount", r.Criterion)
	require.Len(t, r.History, 5)
	assert.InDelta(t, o.Records.History[4].Objective, r.History[4].Objective, 1e-12)
	assert.InDeltaSlice(t, o.Records.History[4].X, r.History[4].X, 1e-12)

	plotName := filepath.Join(dir, "history.png")
	require.NoError(t, o.Records.Plot(plotName))
	info, err := os.Stat(plotName)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
	assert.Error(t, (&Records{}).Plot(plotName))
}

func TestMoveLimitScheme(t *testing.T) {
	var (
		xmin = []float64{0, -1}
		xmax = []float64{2, 1}
	)
	_, err := NewMoveLimitScheme("MMA", xmin, xmax, 0.2)
	assert.Error(t, err)
	_, err = NewMoveLimitScheme("Exponential", xmin, xmax, 0.2)
	assert.Error(t, err)
	_, err = NewMoveLimitScheme("Linear", xmin, xmax, 0)
	assert.Error(t, err)
	_, err = NewMoveLimitScheme("Linear", xmin, []float64{2, -1}, 0.2)
	assert.Error(t, err)

	s, err := NewMoveLimitScheme("Linear", xmin, xmax, 0.2)
	require.NoError(t, err)
	alpha, beta := s.Bounds([]float64{1, 0.9})
	assert.InDeltaSlice(t, []float64{0.6, 0.5}, alpha, 1e-15)
	assert.InDeltaSlice(t, []float64{1.4, 1}, beta, 1e-15)

	s, err = NewMoveLimitScheme("conlin", []float64{0}, []float64{2}, 0.2)
	require.NoError(t, err)
	s.Logger = quietLogger()
	assert.Equal(t, "ConLin", s.Transform)
	alpha, _ = s.Bounds([]float64{0.1})
	assert.Equal(t, s.Floor, alpha[0])
	sp, err := s.Build([]float64{1}, []float64{1, 0}, utils.NewMatrix(2, 1, []float64{1, -1}), utils.Matrix{})
	require.NoError(t, err)
	assert.Equal(t, "ConLin", sp.Transform().Name())
	_, err = s.Build([]float64{1, 1}, []float64{1, 0}, utils.NewMatrix(2, 1, []float64{1, -1}), utils.Matrix{})
	assert.Error(t, err)
}

func TestCriteria(t *testing.T) {
	it := &Iterate{
		Iteration: 0,
		X:         []float64{0, 0.5},
		XPrev:     []float64{0.1, 0.5},
		F:         []float64{2, -0.5, 0.25},
		DF:        utils.NewMatrix(3, 2, []float64{1, 1, 0, -1, 0, 0}),
		Lam:       []float64{1, 0},
		XMin:      []float64{0, 0},
		XMax:      []float64{1, 1},
	}
	{ // Variable 0 sits on its lower bound with a positive gradient
		value, converged := NewKKT(1e-6).Assess(it)
		assert.Zero(t, value)
		assert.True(t, converged)
		it.Lam[0] = 0.5
		value, _ = NewKKT(1e-6).Assess(it)
		assert.InDelta(t, 0.5, value, 1e-15)
		it.Lam[0] = 1
	}
	{
		value, converged := (&ObjectiveChange{Tol: 1e-3}).Assess(it)
		assert.Equal(t, 1.0, value)
		assert.False(t, converged)
		it.FPrev = []float64{2.001}
		value, converged = (&ObjectiveChange{Tol: 1e-3}).Assess(it)
		assert.InDelta(t, 0.001/2.001, value, 1e-12)
		assert.True(t, converged)
	}
	{
		value, converged := (&VariableChange{Tol: 1e-3}).Assess(it)
		assert.InDelta(t, 0.1, value, 1e-15)
		assert.False(t, converged)
	}
	{
		value, converged := (&Feasibility{Tol: 1e-3}).Assess(it)
		assert.Equal(t, 0.25, value)
		assert.False(t, converged)
	}
	{
		c := &IterationCount{Max: 2}
		_, converged := c.Assess(it)
		assert.False(t, converged)
		it.Iteration = 1
		_, converged = c.Assess(it)
		assert.True(t, converged)
	}
	{
		c := All{NewKKT(1e-6), &IterationCount{Max: 2}}
		value, converged := c.Assess(it)
		assert.True(t, converged)
		assert.Equal(t, 2.0, value)
		assert.Equal(t, "All(KKT,IterationCount)", c.Name())
		c = append(c, &Feasibility{Tol: 1e-3})
		_, converged = c.Assess(it)
		assert.False(t, converged)
		_, converged = All{}.Assess(it)
		assert.False(t, converged)
	}
	for _, name := range []string{"KKT", "ObjectiveChange", "VariableChange", "Feasibility", "IterationCount"} {
		c, err := NewCriterion(name, 1e-6, 10)
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}
	c, err := NewCriterion("All", 1e-6, 10)
	require.NoError(t, err)
	assert.Len(t, c.(All), 4)
	_, err = NewCriterion("Gradient", 1e-6, 10)
	assert.Error(t, err)
}

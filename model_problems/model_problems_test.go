package model_problems

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gosao/utils"
)

func checkSensitivities(t *testing.T, p Problem, x []float64, tol float64) {
	var (
		n, m = p.Dims()
		df   = p.DG(x)
		h    = 1e-6
	)
	require.Len(t, p.G(x), m+1, p.Name())
	nr, nc := df.Dims()
	require.Equal(t, m+1, nr)
	require.Equal(t, n, nc)
	for i := 0; i < n; i++ {
		xp, xm := utils.CopyArray(x), utils.CopyArray(x)
		xp[i] += h
		xm[i] -= h
		fp, fm := p.G(xp), p.G(xm)
		for j := 0; j <= m; j++ {
			fd := (fp[j] - fm[j]) / (2 * h)
			assert.InDelta(t, fd, df.At(j, i), tol*math.Max(1, math.Abs(fd)), "%s: df[%d][%d]", p.Name(), j, i)
		}
	}
	so, ok := p.(SecondOrder)
	if !ok {
		return
	}
	ddf := so.DDG(x)
	for i := 0; i < n; i++ {
		xp, xm := utils.CopyArray(x), utils.CopyArray(x)
		xp[i] += h
		xm[i] -= h
		dp, dm := p.DG(xp), p.DG(xm)
		for j := 0; j <= m; j++ {
			fd := (dp.At(j, i) - dm.At(j, i)) / (2 * h)
			assert.InDelta(t, fd, ddf.At(j, i), tol*math.Max(1, math.Abs(fd)), "%s: ddf[%d][%d]", p.Name(), j, i)
		}
	}
}

func TestSensitivities(t *testing.T) {
	for _, p := range []Problem{NewSquare(3), NewPolynomial(), NewTwoBarTruss(), NewCantilever(4)} {
		checkSensitivities(t, p, p.X0(), 1e-5)
		xmin, xmax := p.Bounds()
		n, _ := p.Dims()
		require.Len(t, xmin, n)
		require.Len(t, xmax, n)
		for i, xi := range p.X0() {
			assert.True(t, xi >= xmin[i] && xi <= xmax[i], "%s: x0[%d] = %g", p.Name(), i, xi)
		}
	}
}

func TestSquare(t *testing.T) {
	p := NewSquare(4)
	assert.InDeltaSlice(t, []float64{0.8, 0.8 + 0.1/3, 0.8 + 0.2/3, 0.9}, p.X0(), 1e-15)
	f := p.G(utils.ConstArray(4, 0.25))
	assert.InDelta(t, 0.25, f[0], 1e-15)
	assert.InDelta(t, 0, f[1], 1e-15)
	assert.Equal(t, []float64{0.8}, NewSquare(1).X0())
	assert.Panics(t, func() { NewSquare(0) })
}

func TestPolynomial(t *testing.T) {
	p := NewPolynomial()
	xs := []float64{2 - math.Sqrt(1.25)}
	assert.InDelta(t, 0, p.G(xs)[1], 1e-14)
	assert.Equal(t, []float64{1, -0.25}, p.G(p.X0()))
	assert.Equal(t, []float64{2, -2}, p.DG(p.X0()).Data())
}

func TestTwoBarTruss(t *testing.T) {
	p := NewTwoBarTruss()
	// Optimum reported by Svanberg (1987)
	f := p.G([]float64{1.41, 0.38})
	assert.InDelta(t, 1.51, f[0], 0.005)
	assert.InDelta(t, 0, f[1], 0.01)
	assert.Less(t, f[2], 0.)
}

func TestCantilever(t *testing.T) {
	var (
		N = 5
		p = NewCantilever(N)
		x = p.X0()
	)
	n, m := p.Dims()
	assert.Equal(t, 10, n)
	assert.Equal(t, 11, m)
	// Tip displacement against slope/deflection recursion segment by segment
	{
		var (
			b, h      = p.split(x)
			l         = p.L / float64(N)
			yp, y     float64
			remaining float64
		)
		for k := 1; k <= N; k++ {
			I := b[k-1] * math.Pow(h[k-1], 3) / 12
			remaining = p.L - float64(k)*l
			y += p.P*l*l/(2*p.E*I)*(remaining+2*l/3) + yp*l
			yp += p.P * l / (p.E * I) * (remaining + l/2)
		}
		assert.InDelta(t, y, p.TipDisplacement(x), 1e-12*y)
	}
	// Root segment stress
	{
		f := p.G(x)
		sigma := 6 * p.P * p.L / (x[0] * x[N] * x[N])
		assert.InDelta(t, sigma/p.SigmaMax-1, f[1], 1e-12)
		assert.Equal(t, x[N]-20*x[0], f[1+N])
	}
	_, ok := NewProblem("Cantilever", 3)
	assert.True(t, ok)
	_, ok = NewProblem("Rosenbrock", 3)
	assert.False(t, ok)
}

package subproblem

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gosao/intervening"
	"github.com/notargets/gosao/utils"
)

func responses(x []float64) (f []float64, df, ddf utils.Matrix) {
	f = []float64{
		(x[0]-1)*(x[0]-1) + x[1]*x[1]*x[1],
		x[0]*x[1] - 2,
		1/x[0] - x[1],
	}
	df = utils.NewMatrix(3, 2, []float64{
		2 * (x[0] - 1), 3 * x[1] * x[1],
		x[1], x[0],
		-1 / (x[0] * x[0]), -1,
	})
	ddf = utils.NewMatrix(3, 2, []float64{
		2, 6 * x[1],
		0, 0,
		2 / (x[0] * x[0] * x[0]), 0,
	})
	return
}

func TestSeparableConsistency(t *testing.T) {
	var (
		xk         = []float64{0.5, 1.5}
		alpha      = []float64{0.1, 0.1}
		beta       = []float64{1.9, 1.9}
		f, df, ddf = responses(xk)
		transforms = []intervening.Transform{
			intervening.NewMMA([]float64{-0.5, 0.5}, []float64{1.5, 2.5}),
			intervening.Linear{},
			intervening.Reciprocal{},
			&intervening.ConLin{},
		}
	)
	for _, tr := range transforms {
		for _, second := range []bool{false, true} {
			var curv utils.Matrix
			if second {
				curv = ddf
			}
			sp, err := New(tr, xk, f, df, curv, alpha, beta)
			require.NoError(t, err, tr.Name())
			n, m := sp.Dims()
			assert.Equal(t, 2, n)
			assert.Equal(t, 2, m)
			assert.Equal(t, second, sp.SecondOrder())
			assert.Equal(t, xk, sp.Point())
			g := sp.G(sp.Point())
			dg := sp.DG(sp.Point())
			for j := range f {
				assert.InDeltaf(t, f[j], g[j], 1e-12, "%s zero order, response %d", tr.Name(), j)
				for i := range xk {
					assert.InDeltaf(t, df.At(j, i), dg.At(j, i), 1e-12,
						"%s first order, response %d, variable %d", tr.Name(), j, i)
				}
			}
			// derivatives of the approximation agree with its own values
			h := 1e-6
			x := []float64{0.7, 1.2}
			for i := range x {
				xp, xm := utils.CopyArray(x), utils.CopyArray(x)
				xp[i] += h
				xm[i] -= h
				gp, gm := sp.G(xp), sp.G(xm)
				dgp, dgm := sp.DG(xp), sp.DG(xm)
				for j := range f {
					assert.InDelta(t, (gp[j]-gm[j])/(2*h), sp.DG(x).At(j, i), 1e-5)
					assert.InDelta(t, (dgp.At(j, i)-dgm.At(j, i))/(2*h), sp.DDG(x).At(j, i), 1e-4)
				}
			}
		}
	}
}

func TestSeparableMMAConvexity(t *testing.T) {
	var (
		xk         = []float64{0.5, 1.5}
		f, df, ddf = responses(xk)
		tr         = intervening.NewMMA([]float64{-0.5, 0.5}, []float64{1.5, 2.5})
	)
	sp, err := New(tr, xk, f, df, ddf, []float64{0.1, 0.6}, []float64{1.4, 2.4})
	require.NoError(t, err)
	for _, x := range [][]float64{{0.1, 0.6}, {0.5, 1.5}, {1.4, 2.4}, {1.0, 1.0}} {
		ddg := sp.DDG(x)
		for _, val := range ddg.Data() {
			assert.True(t, val >= 0)
		}
	}
	// constraint 2 curvature 2/x0³ = 16 exceeds the MMA curvature 8, so it is matched
	assert.InDelta(t, ddf.At(2, 0), sp.DDG(xk).At(2, 0), 1e-12)
	// objective curvature 6·x1 = 9 is below the MMA curvature 13.5 and is left alone
	assert.InDelta(t, 13.5, sp.DDG(xk).At(0, 1), 1e-12)

	p, q, r := sp.Coefficients()
	// df0 = [-1, 6.75]: lower branch for x0, upper for x1
	assert.Equal(t, 0., p.At(0, 0))
	assert.InDelta(t, 1*1*1., q.At(0, 0), 1e-12)
	assert.InDelta(t, 6.75*1*1, p.At(0, 1), 1e-12)
	assert.Equal(t, 0., q.At(0, 1))
	for _, val := range append(p.Data(), q.Data()...) {
		assert.True(t, val >= 0)
	}
	assert.Equal(t, 3, len(r))
}

func TestCheckShape(t *testing.T) {
	var (
		xk         = []float64{0.5, 1.5}
		f, df, ddf = responses(xk)
		alpha      = []float64{0, 0}
		beta       = []float64{2, 2}
	)
	{
		_, err := New(intervening.Linear{}, xk, f[:2], df, utils.Matrix{}, alpha, beta)
		assert.True(t, errors.Is(err, ErrShape))
	}
	{
		_, err := New(intervening.Linear{}, []float64{1, 1, 1}, f, df, utils.Matrix{}, alpha, beta)
		assert.True(t, errors.Is(err, ErrShape))
	}
	{
		_, err := New(intervening.Linear{}, xk, f, df, ddf.SubRows(0, 2), alpha, beta)
		assert.True(t, errors.Is(err, ErrShape))
	}
	{
		_, err := New(intervening.Linear{}, xk, f, df, utils.Matrix{}, alpha[:1], beta)
		assert.True(t, errors.Is(err, ErrShape))
	}
	{
		m, err := CheckShape(2, f, df, ddf)
		assert.NoError(t, err)
		assert.Equal(t, 2, m)
	}
}

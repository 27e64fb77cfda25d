// Package subproblem evaluates the convex separable approximation that is built
// once per outer design iteration and handed to the interior point solver.
package subproblem

import (
	"math"

	"github.com/pkg/errors"

	"github.com/notargets/gosao/intervening"
	"github.com/notargets/gosao/utils"
)

// ErrShape reports response, sensitivity or curvature data whose dimensions do
// not agree with (m+1, n).
var ErrShape = errors.New("shape mismatch")

// CheckShape validates f (m+1), df (m+1 x n) and the optional ddf (m+1 x n) for a
// design of size n and returns the number of constraints m.
func CheckShape(n int, f []float64, df, ddf utils.Matrix) (m int, err error) {
	if len(f) == 0 {
		err = errors.Wrap(ErrShape, "no responses, expected objective at index 0")
		return
	}
	m = len(f) - 1
	if df.IsEmpty() {
		err = errors.Wrapf(ErrShape, "expected sensitivities of size %dx%d, received none", m+1, n)
		return
	}
	if nr, nc := df.Dims(); nr != m+1 || nc != n {
		err = errors.Wrapf(ErrShape, "expected sensitivities of size %dx%d, received %dx%d", m+1, n, nr, nc)
		return
	}
	if !ddf.IsEmpty() {
		if nr, nc := ddf.Dims(); nr != m+1 || nc != n {
			err = errors.Wrapf(ErrShape, "expected second order sensitivities of size %dx%d, received %dx%d",
				m+1, n, nr, nc)
			return
		}
	}
	return
}

// Separable is the first order Taylor expansion of every response in the
// intervening variables of a Transform,
//
//	g̃_j(x) = r_j + Σ_i P_ji·y_ji(x_i) + ½ Σ_i C_ji·(x_i - xᵏ_i)²
//
// with P_ji = df_ji / y'_ji(xᵏ_i). The curvature term C is only present when
// second order data was supplied and is clipped at zero, so convexity of the
// transform carries over. Constraints are g̃_j(x) <= 0 for j = 1..m.
type Separable struct {
	n, m        int
	xk          []float64
	tr          intervening.Transform
	P, C        utils.Matrix
	R           []float64
	alpha, beta []float64
}

// New builds the approximation at xk. The transform is updated with df here, any
// asymptotes it references must already be set.
func New(tr intervening.Transform, xk, f []float64, df, ddf utils.Matrix, alpha, beta []float64) (sp *Separable, err error) {
	var (
		n = len(xk)
		m int
	)
	if m, err = CheckShape(n, f, df, ddf); err != nil {
		return
	}
	if len(alpha) != n || len(beta) != n {
		err = errors.Wrapf(ErrShape, "expected bounds of length %d, received %d and %d", n, len(alpha), len(beta))
		return
	}
	tr.Update(xk, df)
	sp = &Separable{
		n:     n,
		m:     m,
		xk:    utils.CopyArray(xk),
		tr:    tr,
		P:     utils.NewMatrix(m+1, n),
		R:     make([]float64, m+1),
		alpha: alpha,
		beta:  beta,
	}
	for j := 0; j <= m; j++ {
		var (
			dfj = df.Row(j)
			pj  = sp.P.Row(j)
			sum float64
		)
		for i, x := range xk {
			pj[i] = dfj[i] / tr.DY(j, i, x)
			sum += pj[i] * tr.Y(j, i, x)
		}
		sp.R[j] = f[j] - sum
	}
	if !ddf.IsEmpty() {
		sp.C = utils.NewMatrix(m+1, n)
		for j := 0; j <= m; j++ {
			var (
				ddfj = ddf.Row(j)
				pj   = sp.P.Row(j)
				cj   = sp.C.Row(j)
			)
			for i, x := range xk {
				cj[i] = math.Max(ddfj[i]-pj[i]*tr.DDY(j, i, x), 0)
			}
		}
	}
	if !utils.IsFinite(sp.P.Data()) || !utils.IsFinite(sp.R) {
		err = errors.Errorf("non finite approximation coefficients for transform %s", tr.Name())
		sp = nil
		return
	}
	sp.P.SetReadOnly("P")
	if sp.SecondOrder() {
		sp.C.SetReadOnly("C")
	}
	return
}

// Dims returns the number of variables and constraints.
func (sp *Separable) Dims() (n, m int) { return sp.n, sp.m }

// Bounds returns the local box, the slices are shared.
func (sp *Separable) Bounds() (alpha, beta []float64) { return sp.alpha, sp.beta }

// Point is the expansion point xᵏ.
func (sp *Separable) Point() []float64 { return sp.xk }

func (sp *Separable) Transform() intervening.Transform { return sp.tr }

func (sp *Separable) SecondOrder() bool { return !sp.C.IsEmpty() }

// G returns the m+1 approximate responses at x.
func (sp *Separable) G(x []float64) (g []float64) {
	g = make([]float64, sp.m+1)
	for j := range g {
		var (
			pj = sp.P.Row(j)
			gj = sp.R[j]
		)
		for i, xi := range x {
			gj += pj[i] * sp.tr.Y(j, i, xi)
		}
		if sp.SecondOrder() {
			cj := sp.C.Row(j)
			for i, xi := range x {
				d := xi - sp.xk[i]
				gj += 0.5 * cj[i] * d * d
			}
		}
		g[j] = gj
	}
	return
}

// DG returns the (m+1) x n sensitivities of the approximation at x. Row j only
// depends on x through x_i in column i.
func (sp *Separable) DG(x []float64) (dg utils.Matrix) {
	dg = utils.NewMatrix(sp.m+1, sp.n)
	for j := 0; j <= sp.m; j++ {
		var (
			pj  = sp.P.Row(j)
			dgj = dg.Row(j)
		)
		for i, xi := range x {
			dgj[i] = pj[i] * sp.tr.DY(j, i, xi)
		}
		if sp.SecondOrder() {
			cj := sp.C.Row(j)
			for i, xi := range x {
				dgj[i] += cj[i] * (xi - sp.xk[i])
			}
		}
	}
	return
}

// DDG returns the diagonal second derivatives, (m+1) x n.
func (sp *Separable) DDG(x []float64) (ddg utils.Matrix) {
	ddg = utils.NewMatrix(sp.m+1, sp.n)
	for j := 0; j <= sp.m; j++ {
		var (
			pj   = sp.P.Row(j)
			ddgj = ddg.Row(j)
		)
		for i, xi := range x {
			ddgj[i] = pj[i] * sp.tr.DDY(j, i, xi)
		}
		if sp.SecondOrder() {
			cj := sp.C.Row(j)
			for i := range ddgj {
				ddgj[i] += cj[i]
			}
		}
	}
	return
}

type branched interface {
	Branches() intervening.BranchSet
}

// Coefficients splits P into the classical MMA form
//
//	g̃_j(x) = r_j + Σ_i [p_ji/(U_i - x_i) + q_ji/(x_i - L_i)]
//
// For transforms without a branch choice every term is reported in p.
func (sp *Separable) Coefficients() (p, q utils.Matrix, r []float64) {
	p = sp.P.Copy()
	q = utils.NewMatrix(sp.m+1, sp.n)
	r = utils.CopyArray(sp.R)
	bt, ok := sp.tr.(branched)
	if !ok {
		return
	}
	bs := bt.Branches()
	for j := 0; j <= sp.m; j++ {
		for i := 0; i < sp.n; i++ {
			if bs.At(j, i) == intervening.LowerAsymptoteBranch {
				q.Set(j, i, p.At(j, i))
				p.Set(j, i, 0)
			}
		}
	}
	return
}

package pdip

import (
	"github.com/pkg/errors"

	"github.com/notargets/gosao/utils"
)

// newtonDirection linearises the relaxed KKT conditions at w. The bound and slack
// multipliers are eliminated in closed form, leaving
//
//	| Dx   Jᵀ  | |dx  |     |deltaX  |
//	| J   -Dλ  | |dlam| = - |deltaLam|
//
// where Dx is diagonal by separability, J holds the constraint gradients and
// Dλ = s/lam. One more block is eliminated depending on the Reduction.
func (c *solveContext) newtonDirection(w *point, epsi float64) (dw *point, err error) {
	var (
		g        = c.sub.G(w.x)
		dg       = c.sub.DG(w.x)
		ddg      = c.sub.DDG(w.x)
		deltaX   = c.gradLagrangian(dg, w.lam)
		diagX    = c.gradLagrangian(ddg, w.lam)
		deltaLam = make([]float64, c.m)
		diagLam  = make([]float64, c.m)
	)
	for i := 0; i < c.n; i++ {
		a, b := w.x[i]-c.alpha[i], c.beta[i]-w.x[i]
		deltaX[i] += -epsi/a + epsi/b
		diagX[i] += w.xsi[i]/a + w.eta[i]/b
	}
	for j := 0; j < c.m; j++ {
		deltaLam[j] = g[j+1] + epsi/w.lam[j]
		diagLam[j] = w.s[j] / w.lam[j]
	}
	dw = newPoint(c.n, c.m)
	switch {
	case c.m == 0:
		err = c.unconstrained(dw, deltaX, diagX)
	case c.reduction() == ReduceDual:
		err = c.dualStep(dw, dg.SubRows(1, c.m+1), deltaX, diagX, deltaLam, diagLam)
	default:
		err = c.primalStep(dw, dg.SubRows(1, c.m+1), deltaX, diagX, deltaLam, diagLam)
	}
	if err != nil {
		dw = nil
		return
	}
	for i := 0; i < c.n; i++ {
		a, b := w.x[i]-c.alpha[i], c.beta[i]-w.x[i]
		dw.xsi[i] = -w.xsi[i] + epsi/a - w.xsi[i]*dw.x[i]/a
		dw.eta[i] = -w.eta[i] + epsi/b + w.eta[i]*dw.x[i]/b
	}
	for j := 0; j < c.m; j++ {
		dw.s[j] = -w.s[j] + epsi/w.lam[j] - w.s[j]*dw.lam[j]/w.lam[j]
	}
	if !utils.IsFinite(dw.x) || !utils.IsFinite(dw.lam) {
		err = errors.Wrap(ErrSingular, "non finite Newton direction")
		dw = nil
	}
	return
}

func (c *solveContext) reduction() Reduction {
	switch c.opts.Reduction {
	case ReduceDual, ReducePrimal:
		return c.opts.Reduction
	}
	if c.m <= c.n {
		return ReduceDual
	}
	return ReducePrimal
}

func (c *solveContext) unconstrained(dw *point, deltaX, diagX []float64) (err error) {
	if err = checkPositive(diagX); err != nil {
		return
	}
	for i := range dw.x {
		dw.x[i] = -deltaX[i] / diagX[i]
	}
	return
}

// dualStep solves (Dλ + J Dx⁻¹ Jᵀ)·dlam = deltaLam - J Dx⁻¹ deltaX, then recovers
// dx = -Dx⁻¹ (deltaX + Jᵀ dlam).
func (c *solveContext) dualStep(dw *point, J utils.Matrix, deltaX, diagX, deltaLam, diagLam []float64) (err error) {
	if err = checkPositive(diagX); err != nil {
		return
	}
	var (
		A   = utils.NewDOK(c.m, c.m)
		rhs = utils.CopyArray(deltaLam)
		col = make([]int, 0, c.m)
	)
	for j := 0; j < c.m; j++ {
		A.AddAt(j, j, diagLam[j])
	}
	for i := 0; i < c.n; i++ {
		col = col[:0]
		for j := 0; j < c.m; j++ {
			if J.At(j, i) != 0 {
				col = append(col, j)
			}
		}
		for _, j := range col {
			gji := J.At(j, i)
			rhs[j] -= gji * deltaX[i] / diagX[i]
			// Upper triangle only
			for _, k := range col {
				if k >= j {
					A.AddAt(j, k, gji*J.At(k, i)/diagX[i])
				}
			}
		}
	}
	if dw.lam, err = utils.SolveSPD(A.ToCSR(), rhs); err != nil {
		err = errors.Wrapf(ErrSingular, "dual %dx%d reduction: %v", c.m, c.m, err)
		return
	}
	jtl := J.TransMulVec(dw.lam)
	for i := range dw.x {
		dw.x[i] = -(deltaX[i] + jtl[i]) / diagX[i]
	}
	return
}

// primalStep solves (Dx + Jᵀ Dλ⁻¹ J)·dx = -deltaX - Jᵀ Dλ⁻¹ deltaLam, then recovers
// dlam = Dλ⁻¹ (J dx + deltaLam).
func (c *solveContext) primalStep(dw *point, J utils.Matrix, deltaX, diagX, deltaLam, diagLam []float64) (err error) {
	if err = checkPositive(diagLam); err != nil {
		return
	}
	var (
		A   = utils.NewDOK(c.n, c.n)
		rhs = make([]float64, c.n)
		nz  = make([]int, 0, c.n)
	)
	for i := 0; i < c.n; i++ {
		A.AddAt(i, i, diagX[i])
		rhs[i] = -deltaX[i]
	}
	for j := 0; j < c.m; j++ {
		row := J.Row(j)
		nz = nz[:0]
		for i, val := range row {
			if val != 0 {
				nz = append(nz, i)
			}
		}
		for _, i := range nz {
			rhs[i] -= row[i] * deltaLam[j] / diagLam[j]
			// Upper triangle only
			for _, k := range nz {
				if k >= i {
					A.AddAt(i, k, row[i]*row[k]/diagLam[j])
				}
			}
		}
	}
	if dw.x, err = utils.SolveSPD(A.ToCSR(), rhs); err != nil {
		err = errors.Wrapf(ErrSingular, "primal %dx%d reduction: %v", c.n, c.n, err)
		return
	}
	jdx := J.MulVec(dw.x)
	for j := 0; j < c.m; j++ {
		dw.lam[j] = (jdx[j] + deltaLam[j]) / diagLam[j]
	}
	return
}

func checkPositive(d []float64) error {
	for i, val := range d {
		if !(val > 0) {
			return errors.Wrapf(ErrSingular, "non positive diagonal %g at %d", val, i)
		}
	}
	return nil
}

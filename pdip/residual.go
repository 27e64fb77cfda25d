package pdip

import (
	"github.com/notargets/gosao/utils"
)

type solveContext struct {
	sub         Subproblem
	opts        *Options
	alpha, beta []float64
	n, m        int
}

// residual evaluates the relaxed KKT conditions at w
//
//	r_x   = ∇g0 + Σ lam_j ∇gj - xsi + eta
//	r_lam = g + s
//	r_xsi = xsi·(x - alpha) - epsi
//	r_eta = eta·(beta - x) - epsi
//	r_s   = lam·s - epsi
func (c *solveContext) residual(w *point, epsi float64) (r *point) {
	var (
		g  = c.sub.G(w.x)
		dg = c.sub.DG(w.x)
	)
	r = newPoint(c.n, c.m)
	copy(r.x, c.gradLagrangian(dg, w.lam))
	for i := range r.x {
		r.x[i] += w.eta[i] - w.xsi[i]
		r.xsi[i] = w.xsi[i]*(w.x[i]-c.alpha[i]) - epsi
		r.eta[i] = w.eta[i]*(c.beta[i]-w.x[i]) - epsi
	}
	for j := range r.lam {
		r.lam[j] = g[j+1] + w.s[j]
		r.s[j] = w.lam[j]*w.s[j] - epsi
	}
	return
}

// gradLagrangian returns ∇g0 + Σ lam_j ∇gj for row major sensitivities, or the
// curvature counterpart when given second derivatives.
func (c *solveContext) gradLagrangian(dg utils.Matrix, lam []float64) []float64 {
	return dg.TransMulVec(append([]float64{1}, lam...))
}

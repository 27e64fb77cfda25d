package pdip

import (
	"math"

	"github.com/pkg/errors"
)

// maxStep applies the fraction to boundary rule along dw. With Ab < -1 the
// returned step keeps x strictly inside (alpha, beta) and every multiplier and
// slack strictly positive.
func (c *solveContext) maxStep(w, dw *point) float64 {
	var (
		ab     = c.opts.Ab
		inv    = 1.0
		wb, db = w.blocks(), dw.blocks()
	)
	// lam, xsi, eta, s
	for k := 1; k < len(wb); k++ {
		for i, val := range wb[k] {
			inv = math.Max(inv, ab*db[k][i]/val)
		}
	}
	for i, xi := range w.x {
		inv = math.Max(inv, ab*dw.x[i]/(xi-c.alpha[i]))
		inv = math.Max(inv, -ab*dw.x[i]/(c.beta[i]-xi))
	}
	return 1 / inv
}

// lineSearch halves the fraction to boundary step until the residual norm falls
// strictly below rnorm.
func (c *solveContext) lineSearch(w, dw *point, rnorm, epsi float64) (wNew, rNew *point, attempts int, err error) {
	step := c.maxStep(w, dw)
	for attempts < c.opts.IterAMax {
		attempts++
		wNew = w.step(step, dw)
		rNew = c.residual(wNew, epsi)
		if rNew.norm() < rnorm {
			return
		}
		step *= 0.5
	}
	wNew, rNew = nil, nil
	err = errors.Wrapf(ErrLineSearch, "residual %g not reduced after %d attempts, last step %g",
		rnorm, attempts, 2*step)
	return
}

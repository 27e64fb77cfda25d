package model_problems

import (
	"math"

	"github.com/notargets/gosao/utils"
)

// TwoBarTruss is the two bar truss of Svanberg (1987). x[0] is the bar cross
// section and x[1] the half span, the weight is minimised subject to a stress
// limit in each bar.
//
//	f0 = c1·x0·√(1+x1²)
//	f1 = c2·√(1+x1²)·(8/x0 + 1/(x0·x1)) - 1
//	f2 = c2·√(1+x1²)·(8/x0 - 1/(x0·x1)) - 1
type TwoBarTruss struct {
	C1, C2 float64
}

func NewTwoBarTruss() *TwoBarTruss {
	return &TwoBarTruss{C1: 1.0, C2: 0.124}
}

func (p *TwoBarTruss) Name() string     { return "TwoBarTruss" }
func (p *TwoBarTruss) Dims() (n, m int) { return 2, 2 }
func (p *TwoBarTruss) Bounds() (xmin, xmax []float64) {
	return []float64{0.2, 0.1}, []float64{4.0, 1.6}
}
func (p *TwoBarTruss) X0() []float64 { return []float64{1.5, 0.5} }

func (p *TwoBarTruss) stress(x []float64) (s, h1, h2 float64) {
	s = math.Sqrt(1 + x[1]*x[1])
	h1 = 8/x[0] + 1/(x[0]*x[1])
	h2 = 8/x[0] - 1/(x[0]*x[1])
	return
}

func (p *TwoBarTruss) G(x []float64) []float64 {
	s, h1, h2 := p.stress(x)
	return []float64{
		p.C1 * x[0] * s,
		p.C2*s*h1 - 1,
		p.C2*s*h2 - 1,
	}
}

func (p *TwoBarTruss) DG(x []float64) (df utils.Matrix) {
	var (
		s, h1, h2 = p.stress(x)
		ds        = x[1] / s
		dh        = 1 / (x[0] * x[1] * x[1])
	)
	df = utils.NewMatrix(3, 2, []float64{
		p.C1 * s, p.C1 * x[0] * ds,
		-p.C2 * s * h1 / x[0], p.C2 * (ds*h1 - s*dh),
		-p.C2 * s * h2 / x[0], p.C2 * (ds*h2 + s*dh),
	})
	return
}

func (p *TwoBarTruss) DDG(x []float64) (ddf utils.Matrix) {
	var (
		s, h1, h2 = p.stress(x)
		ds        = x[1] / s
		dds       = 1 / (s * s * s)
		dh        = 1 / (x[0] * x[1] * x[1])
		ddh       = 2 / (x[0] * x[1] * x[1] * x[1])
		x02       = x[0] * x[0]
	)
	ddf = utils.NewMatrix(3, 2, []float64{
		0, p.C1 * x[0] * dds,
		2 * p.C2 * s * h1 / x02, p.C2 * (dds*h1 - 2*ds*dh + s*ddh),
		2 * p.C2 * s * h2 / x02, p.C2 * (dds*h2 + 2*ds*dh - s*ddh),
	})
	return
}

package intervening

import (
	"github.com/notargets/gosao/utils"
)

// MMA is the moving asymptote transform
//
//	y_ji = 1/(U_i - x_i)   where df_ji >= 0
//	y_ji = 1/(x_i - L_i)   where df_ji <  0
//
// Low and Upp are owned by the asymptote scheme and only read here.
type MMA struct {
	Low, Upp []float64
	branches BranchSet
}

func NewMMA(low, upp []float64) *MMA {
	return &MMA{Low: low, Upp: upp}
}

func (t *MMA) Update(_ []float64, df utils.Matrix) {
	t.branches = NewBranchSet(df)
}

func (t *MMA) Branches() BranchSet { return t.branches }

func (t *MMA) Y(j, i int, x float64) float64 {
	if t.branches.At(j, i) == LowerAsymptoteBranch {
		return 1 / (x - t.Low[i])
	}
	return 1 / (t.Upp[i] - x)
}

func (t *MMA) DY(j, i int, x float64) float64 {
	if t.branches.At(j, i) == LowerAsymptoteBranch {
		return -utils.POW(x-t.Low[i], -2)
	}
	return utils.POW(t.Upp[i]-x, -2)
}

func (t *MMA) DDY(j, i int, x float64) float64 {
	if t.branches.At(j, i) == LowerAsymptoteBranch {
		return 2 * utils.POW(x-t.Low[i], -3)
	}
	return 2 * utils.POW(t.Upp[i]-x, -3)
}

func (t *MMA) Name() string { return "MMA" }

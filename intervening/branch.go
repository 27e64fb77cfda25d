package intervening

import (
	"fmt"

	"github.com/notargets/gosao/utils"
)

// Branch selects which side of a sign dependent transform is used for one
// (response, variable) pair.
type Branch uint8

const (
	// UpperAsymptoteBranch is chosen where df >= 0 (zero included).
	UpperAsymptoteBranch Branch = iota
	// LowerAsymptoteBranch is chosen where df < 0.
	LowerAsymptoteBranch
)

func (b Branch) String() string {
	switch b {
	case UpperAsymptoteBranch:
		return "Upper"
	case LowerAsymptoteBranch:
		return "Lower"
	}
	return fmt.Sprintf("Branch(%d)", uint8(b))
}

// BranchSet holds one Branch per (response, variable) pair packed into a bitset,
// a set bit marks the lower branch. It is computed once per build.
type BranchSet struct {
	nr, nc int
	bits   []uint64
}

func NewBranchSet(df utils.Matrix) (bs BranchSet) {
	var (
		nr, nc = df.Dims()
	)
	bs = BranchSet{
		nr:   nr,
		nc:   nc,
		bits: make([]uint64, (nr*nc+63)/64),
	}
	for j := 0; j < nr; j++ {
		for i, val := range df.Row(j) {
			if val < 0 {
				ind := j*nc + i
				bs.bits[ind/64] |= 1 << uint(ind%64)
			}
		}
	}
	return
}

func (bs BranchSet) Dims() (nr, nc int) { return bs.nr, bs.nc }

func (bs BranchSet) At(j, i int) Branch {
	ind := j*bs.nc + i
	if bs.bits[ind/64]&(1<<uint(ind%64)) != 0 {
		return LowerAsymptoteBranch
	}
	return UpperAsymptoteBranch
}

// Count returns the number of pairs on the lower branch.
func (bs BranchSet) Count() (n int) {
	for j := 0; j < bs.nr; j++ {
		for i := 0; i < bs.nc; i++ {
			if bs.At(j, i) == LowerAsymptoteBranch {
				n++
			}
		}
	}
	return
}

package utils

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrSingularSystem is returned when a linear system cannot be factorised.
var ErrSingularSystem = errors.New("singular linear system")

type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims and At minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }

func (m *DOK) SetReadOnly(name ...string) DOK {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m DOK) Set(i, j int, val float64) DOK { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, val)
	return m
}

// AddAt accumulates val into entry (i,j), structural zeros are skipped.
func (m DOK) AddAt(i, j int, val float64) DOK { // Changes receiver
	if val == 0 {
		return m
	}
	m.checkWritable()
	m.M.Set(i, j, m.M.At(i, j)+val)
	return m
}

func (m DOK) ToCSR() CSR {
	return CSR{
		M:        m.M.ToCSR(),
		readOnly: m.readOnly,
		name:     m.name,
	}
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

type CSR struct {
	M        *sparse.CSR
	readOnly bool
	name     string
}

// Dims and At minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)    { return m.M.Dims() }
func (m CSR) At(i, j int) float64 { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix       { return m.M.T() }
func (m CSR) NNZ() int            { return m.M.NNZ() }

// ToSym expands the stored (symmetric) entries into a dense symmetric matrix.
func (m CSR) ToSym() (S *mat.SymDense) {
	var (
		nr, nc = m.Dims()
	)
	if nr != nc {
		panic(fmt.Errorf("symmetric expansion of a non square matrix: %d x %d", nr, nc))
	}
	S = mat.NewSymDense(nr, nil)
	m.M.DoNonZero(func(i, j int, v float64) {
		if j >= i {
			S.SetSym(i, j, v)
		}
	})
	return
}

// SolveSPD solves A·x = b for a symmetric positive definite A assembled in
// sparse form with a Cholesky factorisation. Indefinite and singular systems are
// both reported as ErrSingularSystem.
func SolveSPD(A CSR, b []float64) (x []float64, err error) {
	var (
		n, _ = A.Dims()
		chol mat.Cholesky
	)
	if len(b) != n {
		err = errors.Errorf("right hand side length %d does not match system size %d", len(b), n)
		return
	}
	if !chol.Factorize(A.ToSym()) {
		err = errors.Wrapf(ErrSingularSystem, "%d x %d system is not positive definite", n, n)
		return
	}
	xv := mat.NewVecDense(n, nil)
	if err = chol.SolveVecTo(xv, mat.NewVecDense(n, b)); !usable(err) {
		err = errors.Wrapf(ErrSingularSystem, "%d x %d system: %v", n, n, err)
		return
	}
	err = nil
	x = xv.RawVector().Data
	if !IsFinite(x) {
		err = errors.Wrapf(ErrSingularSystem, "%d x %d system produced a non finite solution", n, n)
		x = nil
	}
	return
}

// usable accepts an ill-conditioned but finite solve, gonum reports those as a
// mat.Condition alongside a computed solution.
func usable(err error) bool {
	if err == nil {
		return true
	}
	if c, ok := err.(mat.Condition); ok && !math.IsInf(float64(c), 1) {
		return true
	}
	return false
}

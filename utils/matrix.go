package utils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a row-major dense matrix used for response sensitivities, where row j
// is response j (0 = objective) and column i is design variable i.
type Matrix struct {
	M        *mat.Dense
	readOnly bool
	name     string
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{
		m,
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)    { return m.M.Dims() }
func (m Matrix) At(i, j int) float64 { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix       { return m.M.T() }
func (m Matrix) Data() []float64     { return m.M.RawMatrix().Data }

// IsEmpty is true for the zero value, used for optional curvature data.
func (m Matrix) IsEmpty() bool { return m.M == nil }

// Chainable methods
func (m *Matrix) SetReadOnly(name ...string) Matrix {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

func (m Matrix) Copy() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
		dataR  = make([]float64, nr*nc)
	)
	copy(dataR, m.Data())
	R = NewMatrix(nr, nc, dataR)
	return
}

func (m Matrix) Set(i, j int, val float64) Matrix { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, val)
	return m
}

// Row returns a view into row i, writes go through to the matrix.
func (m Matrix) Row(i int) []float64 {
	return m.M.RawRowView(i)
}

// MulVec returns M·x
func (m Matrix) MulVec(x []float64) (y []float64) {
	var (
		nr, nc = m.Dims()
	)
	if len(x) != nc {
		panic(fmt.Errorf("dimension mismatch: matrix has %d columns, vector has %d entries", nc, len(x)))
	}
	yv := mat.NewVecDense(nr, nil)
	yv.MulVec(m.M, mat.NewVecDense(nc, x))
	return yv.RawVector().Data
}

// TransMulVec returns Mᵀ·x
func (m Matrix) TransMulVec(x []float64) (y []float64) {
	var (
		nr, nc = m.Dims()
	)
	if len(x) != nr {
		panic(fmt.Errorf("dimension mismatch: matrix has %d rows, vector has %d entries", nr, len(x)))
	}
	yv := mat.NewVecDense(nc, nil)
	yv.MulVec(m.M.T(), mat.NewVecDense(nr, x))
	return yv.RawVector().Data
}

// SubRows returns a copy of rows [i1, i2)
func (m Matrix) SubRows(i1, i2 int) (R Matrix) {
	var (
		_, nc = m.Dims()
	)
	R = NewMatrix(i2-i1, nc)
	for i := i1; i < i2; i++ {
		copy(R.M.RawRowView(i-i1), m.M.RawRowView(i))
	}
	return
}

func (m Matrix) String() string {
	return fmt.Sprintf("%v", mat.Formatted(m.M, mat.Squeeze()))
}

func (m Matrix) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

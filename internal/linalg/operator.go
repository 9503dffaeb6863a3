package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Operator is a batch of symmetric positive-definite n×n matrices that can
// be applied to a block of vectors.
type Operator interface {
	// Dims returns the batch size and the matrix order.
	Dims() (batch, n int)
	// Apply writes K_i x into dst. x is n×k and dst is an n×k matrix.
	Apply(i int, dst *mat.Dense, x mat.Matrix)
}

// Diagonal is implemented by operators that can report their diagonal
// without materializing the matrix. The Jacobi preconditioner uses it.
type Diagonal interface {
	Diagonal(i int, dst []float64)
}

// Densifier is implemented by operators that hold or can cheaply build the
// dense matrix. The Cholesky path uses it.
type Densifier interface {
	Dense(i int) *mat.Dense
}

// DenseBatch is an Operator over explicit matrices.
type DenseBatch struct {
	mats []*mat.Dense
	n    int
}

// NewDenseBatch wraps square matrices of equal order.
func NewDenseBatch(mats ...*mat.Dense) (*DenseBatch, error) {
	if len(mats) == 0 {
		return nil, ErrEmptyBatch
	}
	n, _ := mats[0].Dims()
	for i, m := range mats {
		r, cc := m.Dims()
		if r != cc {
			return nil, fmt.Errorf("%w: entry %d is %dx%d", ErrNonSquare, i, r, cc)
		}
		if r != n {
			return nil, fmt.Errorf("%w: entry %d is %dx%d, want %dx%d", ErrDimensionMismatch, i, r, cc, n, n)
		}
	}
	return &DenseBatch{mats: mats, n: n}, nil
}

// Dims implements Operator.
func (d *DenseBatch) Dims() (batch, n int) {
	return len(d.mats), d.n
}

// Apply implements Operator.
func (d *DenseBatch) Apply(i int, dst *mat.Dense, x mat.Matrix) {
	dst.Mul(d.mats[i], x)
}

// Diagonal implements Diagonal.
func (d *DenseBatch) Diagonal(i int, dst []float64) {
	for j := range dst {
		dst[j] = d.mats[i].At(j, j)
	}
}

// Dense implements Densifier.
func (d *DenseBatch) Dense(i int) *mat.Dense {
	return d.mats[i]
}

// DenseOf materializes entry i of op, by applying it to the identity when
// the operator cannot hand out its matrix.
func DenseOf(op Operator, i int) *mat.Dense {
	if d, ok := op.(Densifier); ok {
		return d.Dense(i)
	}
	_, n := op.Dims()
	eye := mat.NewDiagDense(n, nil)
	for j := 0; j < n; j++ {
		eye.SetDiag(j, 1)
	}
	out := mat.NewDense(n, n, nil)
	op.Apply(i, out, eye)
	return out
}

// DiagonalOf returns the diagonal of entry i of op.
func DiagonalOf(op Operator, i int) []float64 {
	_, n := op.Dims()
	diag := make([]float64, n)
	if d, ok := op.(Diagonal); ok {
		d.Diagonal(i, diag)
		return diag
	}
	dense := DenseOf(op, i)
	for j := range diag {
		diag[j] = dense.At(j, j)
	}
	return diag
}

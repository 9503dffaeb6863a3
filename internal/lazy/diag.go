package lazy

import (
	"fmt"

	"github.com/uberstig/gpytorch/internal/linalg"
	"github.com/uberstig/gpytorch/internal/tensor"
)

// DiagLazy is diag(d) for d of shape [n] or [b, n].
type DiagLazy[T tensor.DType, B tensor.Backend] struct {
	diag  *tensor.Tensor[T, B]
	batch int
	n     int
}

// NewDiag wraps the diagonal d.
func NewDiag[T tensor.DType, B tensor.Backend](d *tensor.Tensor[T, B]) (*DiagLazy[T, B], error) {
	shape := d.Shape()
	switch len(shape) {
	case 1:
		return &DiagLazy[T, B]{diag: d, n: shape[0]}, nil
	case 2:
		return &DiagLazy[T, B]{diag: d, batch: shape[0], n: shape[1]}, nil
	default:
		return nil, fmt.Errorf("diag: %w: want [n] or [b, n], got %v", ErrShapeMismatch, shape)
	}
}

// Shape implements LazyTensor.
func (d *DiagLazy[T, B]) Shape() tensor.Shape {
	if d.batch > 0 {
		return tensor.Shape{d.batch, d.n, d.n}
	}
	return tensor.Shape{d.n, d.n}
}

// Backend implements LazyTensor.
func (d *DiagLazy[T, B]) Backend() B { return d.diag.Backend() }

// Matmul implements LazyTensor by scaling the rows of rhs. An rhs of the
// diagonal's own shape is scaled elementwise; otherwise its second to last
// axis must have length n and, for a batched diagonal, rhs must be [b, n, k].
// Other shapes panic like any backend shape error.
func (d *DiagLazy[T, B]) Matmul(rhs *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	shape := rhs.Shape()
	if shape.Equal(d.diag.Shape()) {
		return d.diag.Mul(rhs)
	}

	rows := len(shape) >= 2 && shape[len(shape)-2] == d.n
	if d.batch > 0 {
		rows = rows && len(shape) == 3 && shape[0] == d.batch
	}
	if !rows {
		panic(fmt.Sprintf("diag matmul: %v operator cannot multiply rhs %v", d.Shape(), shape))
	}
	return d.diag.Unsqueeze(-1).Mul(rhs)
}

// Evaluate implements LazyTensor as I ∘ dᵀ broadcast over rows.
func (d *DiagLazy[T, B]) Evaluate() *tensor.Tensor[T, B] {
	return tensor.Eye[T](d.n, d.Backend()).Mul(d.diag.Unsqueeze(-2))
}

// Diag implements LazyTensor.
func (d *DiagLazy[T, B]) Diag() *tensor.Tensor[T, B] { return d.diag }

// Representation implements LazyTensor.
func (d *DiagLazy[T, B]) Representation() []*tensor.Tensor[T, B] {
	return []*tensor.Tensor[T, B]{d.diag}
}

// QuadFormDerivative implements LazyTensor: the row sums of left ∘ right.
func (d *DiagLazy[T, B]) QuadFormDerivative(left, right *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.SumDim(backend.Mul(left, right), -1, false)}
}

// Operator implements LazyTensor.
func (d *DiagLazy[T, B]) Operator() linalg.Operator {
	batch := max(d.batch, 1)
	values := d.diag.Raw().Float64s()
	op := &diagOperator{n: d.n, diags: make([][]float64, batch)}
	for i := range op.diags {
		op.diags[i] = values[i*d.n : (i+1)*d.n]
	}
	return op
}

// InvMatmul is InvMatmul(d, rhs, opts...).
func (d *DiagLazy[T, B]) InvMatmul(rhs *tensor.Tensor[T, B], opts ...Option) (*tensor.Tensor[T, B], error) {
	return InvMatmul[T, B](d, rhs, opts...)
}

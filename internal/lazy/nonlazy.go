package lazy

import (
	"fmt"

	"github.com/uberstig/gpytorch/internal/linalg"
	"github.com/uberstig/gpytorch/internal/tensor"
)

// NonLazy wraps an explicit dense matrix.
type NonLazy[T tensor.DType, B tensor.Backend] struct {
	matrix *tensor.Tensor[T, B]
	batch  int
	n      int
}

// NewNonLazy wraps matrix, which must be [n, n] or [b, n, n].
func NewNonLazy[T tensor.DType, B tensor.Backend](matrix *tensor.Tensor[T, B]) (*NonLazy[T, B], error) {
	batch, n, err := squareDims(matrix.Shape())
	if err != nil {
		return nil, fmt.Errorf("non-lazy: %w", err)
	}
	return &NonLazy[T, B]{matrix: matrix, batch: batch, n: n}, nil
}

// Shape implements LazyTensor.
func (m *NonLazy[T, B]) Shape() tensor.Shape { return m.matrix.Shape() }

// Backend implements LazyTensor.
func (m *NonLazy[T, B]) Backend() B { return m.matrix.Backend() }

// Matmul implements LazyTensor.
func (m *NonLazy[T, B]) Matmul(rhs *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return m.matrix.MatMul(rhs)
}

// Evaluate implements LazyTensor.
func (m *NonLazy[T, B]) Evaluate() *tensor.Tensor[T, B] { return m.matrix }

// Diag implements LazyTensor. The result is read off the data and is not
// tracked by autodiff.
func (m *NonLazy[T, B]) Diag() *tensor.Tensor[T, B] {
	shape := tensor.Shape{m.n}
	if m.batch > 0 {
		shape = tensor.Shape{m.batch, m.n}
	}
	out := tensor.Zeros[T](shape, m.Backend())
	src, dst := m.matrix.Data(), out.Data()
	for b := 0; b < max(m.batch, 1); b++ {
		for i := 0; i < m.n; i++ {
			dst[b*m.n+i] = src[b*m.n*m.n+i*m.n+i]
		}
	}
	return out
}

// Representation implements LazyTensor.
func (m *NonLazy[T, B]) Representation() []*tensor.Tensor[T, B] {
	return []*tensor.Tensor[T, B]{m.matrix}
}

// QuadFormDerivative implements LazyTensor: d/dK sum(left ∘ K right) = left rightᵀ.
func (m *NonLazy[T, B]) QuadFormDerivative(left, right *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MatMul(left, transposeLast(right, backend))}
}

// Operator implements LazyTensor.
func (m *NonLazy[T, B]) Operator() linalg.Operator {
	op, err := linalg.NewDenseBatch(denseBlocks(m.matrix.Raw(), max(m.batch, 1), m.n, m.n)...)
	if err != nil {
		panic(fmt.Sprintf("non-lazy: %v", err))
	}
	return op
}

// InvMatmul is InvMatmul(m, rhs, opts...).
func (m *NonLazy[T, B]) InvMatmul(rhs *tensor.Tensor[T, B], opts ...Option) (*tensor.Tensor[T, B], error) {
	return InvMatmul[T, B](m, rhs, opts...)
}

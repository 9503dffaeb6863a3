package lazy

import (
	"github.com/uberstig/gpytorch/internal/linalg"
	"github.com/uberstig/gpytorch/internal/tensor"
)

// ConstantMul is c·K for a fixed scalar c.
type ConstantMul[T tensor.DType, B tensor.Backend] struct {
	inner    LazyTensor[T, B]
	constant float64
}

// NewConstantMul scales lt by c.
func NewConstantMul[T tensor.DType, B tensor.Backend](lt LazyTensor[T, B], c float64) *ConstantMul[T, B] {
	return &ConstantMul[T, B]{inner: lt, constant: c}
}

// Shape implements LazyTensor.
func (c *ConstantMul[T, B]) Shape() tensor.Shape { return c.inner.Shape() }

// Backend implements LazyTensor.
func (c *ConstantMul[T, B]) Backend() B { return c.inner.Backend() }

// Matmul implements LazyTensor.
func (c *ConstantMul[T, B]) Matmul(rhs *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return c.inner.Matmul(rhs).MulScalar(T(c.constant))
}

// Evaluate implements LazyTensor.
func (c *ConstantMul[T, B]) Evaluate() *tensor.Tensor[T, B] {
	return c.inner.Evaluate().MulScalar(T(c.constant))
}

// Diag implements LazyTensor.
func (c *ConstantMul[T, B]) Diag() *tensor.Tensor[T, B] {
	return c.inner.Diag().MulScalar(T(c.constant))
}

// Representation implements LazyTensor.
func (c *ConstantMul[T, B]) Representation() []*tensor.Tensor[T, B] {
	return c.inner.Representation()
}

// QuadFormDerivative implements LazyTensor.
func (c *ConstantMul[T, B]) QuadFormDerivative(left, right *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grads := c.inner.QuadFormDerivative(left, right, backend)
	for i, g := range grads {
		grads[i] = backend.MulScalar(g, c.constant)
	}
	return grads
}

// Operator implements LazyTensor.
func (c *ConstantMul[T, B]) Operator() linalg.Operator {
	return &scaledOperator{inner: c.inner.Operator(), scale: c.constant}
}

// InvMatmul is InvMatmul(c, rhs, opts...).
func (c *ConstantMul[T, B]) InvMatmul(rhs *tensor.Tensor[T, B], opts ...Option) (*tensor.Tensor[T, B], error) {
	return InvMatmul[T, B](c, rhs, opts...)
}

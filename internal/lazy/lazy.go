// Package lazy represents structured covariance matrices without forming
// them, and solves against them with a differentiable InvMatmul.
//
// A LazyTensor knows how to multiply itself with a dense right-hand side,
// how to materialize itself when asked, and how to turn the two vectors of
// a quadratic form into gradients for the tensors it is built from. That is
// all InvMatmul needs for both passes:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	k, _ := lazy.NewNonLazy(matrix)       // [n, n]
//	kn, _ := lazy.AddDiag(k, noise)       // K + diag(noise)
//	x, err := lazy.InvMatmul(kn, rhs)     // K⁻¹ rhs, rhs is [n] or [n, k]
//
//	grads := autodiff.BackwardWithGrad(x, upstream, backend)
//	dK := autodiff.GradOf(grads, matrix)
package lazy

import (
	"errors"
	"fmt"

	"github.com/uberstig/gpytorch/internal/linalg"
	"github.com/uberstig/gpytorch/internal/tensor"
)

// Errors returned by constructors and InvMatmul.
var (
	ErrShapeMismatch = fmt.Errorf("lazy: shape mismatch: %w", linalg.ErrDimensionMismatch)
	ErrNonSquare     = errors.New("lazy: matrix must be square")
	ErrNoTerms       = errors.New("lazy: sum needs at least one term")
)

// LazyTensor is a square matrix, or a batch of them, of shape [n, n] or
// [b, n, n] that is only ever touched through the operations below.
type LazyTensor[T tensor.DType, B tensor.Backend] interface {
	// Shape returns [n, n] or [b, n, n].
	Shape() tensor.Shape

	// Backend returns the backend the representation tensors live on.
	Backend() B

	// Matmul returns K @ rhs using backend ops, so it is differentiable.
	Matmul(rhs *tensor.Tensor[T, B]) *tensor.Tensor[T, B]

	// Evaluate returns the dense matrix. Differentiable.
	Evaluate() *tensor.Tensor[T, B]

	// Diag returns the diagonal with shape [n] or [b, n].
	Diag() *tensor.Tensor[T, B]

	// Representation returns the tensors K is built from, in a fixed order.
	Representation() []*tensor.Tensor[T, B]

	// QuadFormDerivative returns the gradient of sum(left ∘ (K right)) with
	// respect to each representation tensor, in Representation order.
	// left and right are [n, k] or [b, n, k].
	QuadFormDerivative(left, right *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Operator snapshots the current values for the solvers.
	Operator() linalg.Operator
}

// squareDims validates a [n, n] or [b, n, n] shape and returns the batch
// size (0 when unbatched) and n.
func squareDims(shape tensor.Shape) (batch, n int, err error) {
	switch len(shape) {
	case 2:
		batch = 0
	case 3:
		batch = shape[0]
	default:
		return 0, 0, fmt.Errorf("%w: want [n, n] or [b, n, n], got %v", ErrShapeMismatch, shape)
	}
	rows, cols := shape[len(shape)-2], shape[len(shape)-1]
	if rows != cols {
		return 0, 0, fmt.Errorf("%w: got %v", ErrNonSquare, shape)
	}
	return batch, rows, nil
}

// transposeLast swaps the two trailing axes of a 2D or 3D tensor.
func transposeLast(x *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	if len(x.Shape()) == 3 {
		return backend.Transpose(x, 0, 2, 1)
	}
	return backend.Transpose(x)
}

func raws[T tensor.DType, B tensor.Backend](ts []*tensor.Tensor[T, B]) []*tensor.RawTensor {
	out := make([]*tensor.RawTensor, len(ts))
	for i, t := range ts {
		out[i] = t.Raw()
	}
	return out
}

package ops

import (
	"github.com/uberstig/gpytorch/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape.
// This is necessary when broadcasting was used in the forward pass.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()

	// Gradients are shared between ops by pointer; hand out a fresh node.
	if gradShape.Equal(targetShape) {
		return grad.Clone()
	}

	if len(targetShape) == 0 {
		return backend.Sum(grad)
	}

	// NumPy broadcasting aligns shapes from the right, so extra leading
	// dimensions are summed away first.
	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}

	for i, dim := range targetShape {
		if dim == 1 && result.Shape()[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}

	return result
}

// negateGradient returns -grad.
func negateGradient(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	return backend.MulScalar(grad, -1)
}

// transposeLast swaps the two trailing dimensions of a matrix or a batch of
// matrices.
func transposeLast(x *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	ndim := len(x.Shape())
	axes := make([]int, ndim)
	for i := range axes {
		axes[i] = i
	}
	axes[ndim-2], axes[ndim-1] = ndim-1, ndim-2
	return backend.Transpose(x, axes...)
}

// broadcastTo expands grad to shape by multiplying with ones.
func broadcastTo(grad *tensor.RawTensor, shape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	ones := tensor.MustNewRaw(shape, grad.DType(), backend.Device())
	vals := make([]float64, ones.NumElements())
	for i := range vals {
		vals[i] = 1
	}
	ones.SetFloat64s(vals)
	return backend.Mul(ones, grad)
}

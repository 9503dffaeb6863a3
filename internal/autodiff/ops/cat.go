package ops

import (
	"github.com/uberstig/gpytorch/internal/tensor"
)

// CatOp represents a concatenation operation along a dimension.
//
// Forward: output = Cat([input1, input2, ...], dim)
//
// Backward:
//
//	Split gradOutput along dim at input boundaries and distribute to each input.
//	Each input receives the gradient slice corresponding to its contribution.
//
// Example:
//
//	inputs: [1,3,3] and [1,3,3] along dim=0
//	output: [2,3,3]
//	gradInput1 = gradOutput[0:1], gradInput2 = gradOutput[1:2]
type CatOp struct {
	inputs []*tensor.RawTensor // Input tensors that were concatenated
	dim    int                 // Dimension along which concatenation happened
	sizes  []int               // Size of each input along concat dimension
	output *tensor.RawTensor   // Concatenated output tensor
}

// NewCatOp creates a new cat operation.
func NewCatOp(inputs []*tensor.RawTensor, dim int, output *tensor.RawTensor) *CatOp {
	dim = tensor.NormalizeDim(dim, len(output.Shape()))
	sizes := make([]int, len(inputs))
	for i, in := range inputs {
		sizes[i] = in.Shape()[dim]
	}
	return &CatOp{
		inputs: inputs,
		dim:    dim,
		sizes:  sizes,
		output: output,
	}
}

// Inputs returns the input tensors.
func (op *CatOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor.
func (op *CatOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward splits the gradient along the concatenation dimension.
func (op *CatOp) Backward(gradOutput *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(op.inputs))

	offset := 0
	for i, size := range op.sizes {
		grads[i] = narrow(gradOutput, op.dim, offset, size, backend.Device())
		offset += size
	}

	return grads
}

// narrow copies src[..., offset:offset+size, ...] along dim into a new tensor.
func narrow(src *tensor.RawTensor, dim, offset, size int, device tensor.Device) *tensor.RawTensor {
	shape := src.Shape()
	outShape := shape.Clone()
	outShape[dim] = size
	dst := tensor.MustNewRaw(outShape, src.DType(), device)

	outer, inner := 1, 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	for _, d := range shape[dim+1:] {
		inner *= d
	}

	elem := src.DType().Size()
	srcRow := shape[dim] * inner * elem
	dstRow := size * inner * elem
	start := offset * inner * elem
	in, out := src.Data(), dst.Data()
	for j := 0; j < outer; j++ {
		copy(out[j*dstRow:(j+1)*dstRow], in[j*srcRow+start:j*srcRow+start+dstRow])
	}

	return dst
}

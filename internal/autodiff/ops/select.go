package ops

import "github.com/uberstig/gpytorch/internal/tensor"

// SelectOp represents taking one slice along a dimension: output = x[..., index, ...].
//
// Backward:
//
//	grad_x is zero everywhere except the selected slice, which receives
//	grad_output.
type SelectOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	dim    int
	index  int
}

// NewSelectOp creates a new SelectOp.
func NewSelectOp(x, output *tensor.RawTensor, dim, index int) *SelectOp {
	shape := x.Shape()
	dim = tensor.NormalizeDim(dim, len(shape))
	if index < 0 {
		index += shape[dim]
	}
	return &SelectOp{input: x, output: output, dim: dim, index: index}
}

// Backward scatters the gradient back into a zero tensor of the input shape
// by concatenating zero blocks around it.
func (op *SelectOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()
	parts := make([]*tensor.RawTensor, 0, 3)

	if op.index > 0 {
		parts = append(parts, zerosAlong(shape, op.dim, op.index, outputGrad.DType(), backend.Device()))
	}
	parts = append(parts, backend.Unsqueeze(outputGrad, op.dim))
	if after := shape[op.dim] - op.index - 1; after > 0 {
		parts = append(parts, zerosAlong(shape, op.dim, after, outputGrad.DType(), backend.Device()))
	}

	if len(parts) == 1 {
		return parts
	}
	return []*tensor.RawTensor{backend.Cat(parts, op.dim)}
}

// Inputs returns the input tensor [x].
func (op *SelectOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the selected slice.
func (op *SelectOp) Output() *tensor.RawTensor {
	return op.output
}

// zerosAlong allocates zeros shaped like shape with shape[dim] replaced by n.
func zerosAlong(shape tensor.Shape, dim, n int, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	s := shape.Clone()
	s[dim] = n
	return tensor.MustNewRaw(s, dtype, device)
}

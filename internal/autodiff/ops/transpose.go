package ops

import "github.com/uberstig/gpytorch/internal/tensor"

// TransposeOp records output = transpose(input, perm). Its backward pass
// applies the inverse permutation to the output gradient.
type TransposeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	perm   []int
}

// NewTransposeOp records a transpose. Empty axes mean the backend default
// of reversing every dimension.
func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	perm := axes
	if len(perm) == 0 {
		ndim := len(input.Shape())
		perm = make([]int, ndim)
		for i := range perm {
			perm[i] = ndim - 1 - i
		}
	}
	return &TransposeOp{input: input, output: output, perm: perm}
}

// Backward implements Operation.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.perm))
	for i, ax := range op.perm {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

// Inputs implements Operation.
func (op *TransposeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output implements Operation.
func (op *TransposeOp) Output() *tensor.RawTensor {
	return op.output
}

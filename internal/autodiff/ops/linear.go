package ops

import "github.com/uberstig/gpytorch/internal/tensor"

// LinearOp records output = a + sign·b for sign ±1, covering Add and Sub.
// Both gradients are the output gradient, negated for b when subtracting,
// and summed back over any broadcast dimensions.
type LinearOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
	sign   float64
}

// NewAddOp records output = a + b.
func NewAddOp(a, b, output *tensor.RawTensor) *LinearOp {
	return &LinearOp{a: a, b: b, output: output, sign: 1}
}

// NewSubOp records output = a - b.
func NewSubOp(a, b, output *tensor.RawTensor) *LinearOp {
	return &LinearOp{a: a, b: b, output: output, sign: -1}
}

// Backward implements Operation.
func (op *LinearOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradB := outputGrad
	if op.sign < 0 {
		gradB = negateGradient(outputGrad, backend)
	}
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.a.Shape(), backend),
		reduceBroadcast(gradB, op.b.Shape(), backend),
	}
}

// Inputs returns [a, b].
func (op *LinearOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output implements Operation.
func (op *LinearOp) Output() *tensor.RawTensor {
	return op.output
}

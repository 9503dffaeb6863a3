package ops

import "github.com/uberstig/gpytorch/internal/tensor"

// InverseOp represents a dense matrix inverse: output = A⁻¹.
//
// Backward pass, from d(A⁻¹) = -A⁻¹ dA A⁻¹:
//   - grad_A = -(A⁻¹)^T @ outputGrad @ (A⁻¹)^T
//
// The recorded output is the inverse itself, so backward needs no new
// factorization. Batches of matrices are handled matrix by matrix.
type InverseOp struct {
	input  *tensor.RawTensor // A
	output *tensor.RawTensor // A⁻¹
}

// NewInverseOp creates a new InverseOp.
func NewInverseOp(input, output *tensor.RawTensor) *InverseOp {
	return &InverseOp{input: input, output: output}
}

// Backward computes the gradient of the inverse.
func (op *InverseOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	invT := transposeLast(op.output, backend)
	grad := backend.MatMul(backend.MatMul(invT, outputGrad), invT)
	return []*tensor.RawTensor{negateGradient(grad, backend)}
}

// Inputs returns the input tensor [A].
func (op *InverseOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor A⁻¹.
func (op *InverseOp) Output() *tensor.RawTensor {
	return op.output
}

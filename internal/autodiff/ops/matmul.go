package ops

import "github.com/uberstig/gpytorch/internal/tensor"

// MatMulOp represents a matrix multiplication operation: output = a @ b.
//
// Backward pass:
//   - d(A@B)/dA = outputGrad @ B^T
//   - d(A@B)/dB = A^T @ outputGrad
//
// Transposes act on the two trailing dimensions, so the same rule covers
// batches. When one side was a plain matrix shared across the batch, its
// gradient is summed over the batch. A vector right-hand side is treated as
// a single column.
type MatMulOp struct {
	inputs []*tensor.RawTensor // [a, b]
	output *tensor.RawTensor   // a @ b
}

// NewMatMulOp creates a new MatMulOp.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{
		inputs: []*tensor.RawTensor{a, b},
		output: output,
	}
}

// Backward computes input gradients for matrix multiplication.
func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]

	if len(b.Shape()) == 1 {
		return op.backwardMatVec(outputGrad, backend)
	}

	// grad_a = outputGrad @ b^T
	gradA := backend.MatMul(outputGrad, transposeLast(b, backend))
	gradA = reduceBroadcast(gradA, a.Shape(), backend)

	// grad_b = a^T @ outputGrad
	gradB := backend.MatMul(transposeLast(a, backend), outputGrad)
	gradB = reduceBroadcast(gradB, b.Shape(), backend)

	return []*tensor.RawTensor{gradA, gradB}
}

// backwardMatVec handles [M, K] @ [K] -> [M].
func (op *MatMulOp) backwardMatVec(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	m, k := a.Shape()[0], a.Shape()[1]

	// grad_a = outer(outputGrad, b)
	gCol := backend.Reshape(outputGrad, tensor.Shape{m, 1})
	bRow := backend.Reshape(b, tensor.Shape{1, k})
	gradA := backend.MatMul(gCol, bRow)

	// grad_b = a^T @ outputGrad
	gradB := backend.MatMul(backend.Transpose(a, 1, 0), outputGrad)

	return []*tensor.RawTensor{gradA, gradB}
}

// Inputs returns the input tensors [a, b].
func (op *MatMulOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor a @ b.
func (op *MatMulOp) Output() *tensor.RawTensor {
	return op.output
}

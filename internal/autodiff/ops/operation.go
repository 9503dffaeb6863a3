// Package ops defines operation interfaces and implementations for automatic differentiation.
//
// Each operation implements the Operation interface, which provides:
//   - Forward pass: computed by the backend
//   - Backward pass: computes gradients for inputs given output gradient
//
// Supported operations:
//   - LinearOp (Add and Sub), MulOp: element-wise arithmetic with broadcast reduction
//   - MulScalarOp: scaling by a constant
//   - MatMulOp: matrix, matrix-vector and batched products
//   - InverseOp: dense inverse (d(A⁻¹) = -A⁻¹ dA A⁻¹)
//   - TransposeOp, ReshapeOp (also Unsqueeze and Squeeze), CatOp, SelectOp: layout
//   - SumOp, SumDimOp: reductions
package ops

import "github.com/uberstig/gpytorch/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor.
	// A nil entry means no gradient flows to that input.
	//
	// Example for AddOp:
	//   inputs: [a, b]
	//   outputGrad: dL/d(a+b)
	//   returns: [dL/d(a+b), dL/d(a+b)] (gradient flows equally to both inputs)
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}

package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations and panic on
// shape misuse, which is a programming error at this level.
//
// Implementations:
//   - CPU: pure Go kernels, gonum for dense factorizations
//
// Decorators:
//   - autodiff: records every op on a gradient tape
type Backend interface {
	// Element-wise binary operations with NumPy broadcasting
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// MulScalar multiplies every element by a scalar.
	MulScalar(x *RawTensor, scalar float64) *RawTensor

	// MatMul multiplies matrices.
	//   [M, K] @ [K, N]       -> [M, N]
	//   [M, K] @ [K]          -> [M]
	//   [..., M, K] @ [..., K, N] -> [..., M, N] (a missing batch side broadcasts)
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Squeeze(x *RawTensor, dim int) *RawTensor
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Select(x *RawTensor, dim, index int) *RawTensor // drops dim, keeps slice index

	// Reductions
	Sum(x *RawTensor) *RawTensor // total sum (scalar result)
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Inverse inverts a square matrix or a batch of square matrices.
	Inverse(x *RawTensor) *RawTensor

	// Metadata
	Name() string
	Device() Device
}

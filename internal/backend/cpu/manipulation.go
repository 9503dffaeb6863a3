package cpu

import (
	"fmt"

	"github.com/uberstig/gpytorch/internal/tensor"
)

// Cat concatenates tensors along the specified dimension.
//
// All tensors must have the same shape except along the concatenation dimension.
// Supports negative dim indexing (-1 = last dimension).
//
// Example:
//
//	a := tensor.Randn[float64](tensor.Shape{1, 3, 3}, backend)
//	b := tensor.Randn[float64](tensor.Shape{1, 3, 3}, backend)
//	c := backend.Cat([]*tensor.RawTensor{a.Raw(), b.Raw()}, 0) // Shape: [2, 3, 3]
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	shape := tensors[0].Shape()
	ndim := len(shape)
	dtype := tensors[0].DType()
	dim = tensor.NormalizeDim(dim, ndim)

	totalDim := 0
	for i, t := range tensors {
		tShape := t.Shape()
		if len(tShape) != ndim {
			panic(fmt.Sprintf("cat: tensor %d has %d dimensions, expected %d", i, len(tShape), ndim))
		}
		if t.DType() != dtype {
			panic(fmt.Sprintf("cat: tensor %d has dtype %s, expected %s", i, t.DType(), dtype))
		}
		for d := 0; d < ndim; d++ {
			if d == dim {
				totalDim += tShape[d]
			} else if tShape[d] != shape[d] {
				panic(fmt.Sprintf("cat: tensor %d dimension %d is %d, expected %d", i, d, tShape[d], shape[d]))
			}
		}
	}

	outShape := shape.Clone()
	outShape[dim] = totalDim
	result := tensor.MustNewRaw(outShape, dtype, cpu.device)

	// Every input is a run of `outer` blocks; block j of input t lands at
	// row j of the output, after the blocks of the inputs before t.
	outer, inner := splitAround(outShape, dim)
	elem := dtype.Size()
	outRow := totalDim * inner * elem
	out := result.Data()

	offset := 0
	for _, t := range tensors {
		block := t.Shape()[dim] * inner * elem
		src := t.Data()
		for j := 0; j < outer; j++ {
			copy(out[j*outRow+offset:j*outRow+offset+block], src[j*block:(j+1)*block])
		}
		offset += block
	}

	return result
}

// Select returns the slice at index along dim with that dimension removed.
//
// Example:
//
//	x := tensor.Randn[float64](tensor.Shape{2, 3, 3}, backend)
//	y := backend.Select(x.Raw(), 0, 1) // Shape: [3, 3], the second matrix
func (cpu *CPUBackend) Select(x *tensor.RawTensor, dim, index int) *tensor.RawTensor {
	shape := x.Shape()
	dim = tensor.NormalizeDim(dim, len(shape))
	if index < 0 {
		index += shape[dim]
	}
	if index < 0 || index >= shape[dim] {
		panic(fmt.Sprintf("select: index %d out of range for dimension %d of size %d", index, dim, shape[dim]))
	}

	outShape := make(tensor.Shape, 0, len(shape)-1)
	outShape = append(outShape, shape[:dim]...)
	outShape = append(outShape, shape[dim+1:]...)
	result := tensor.MustNewRaw(outShape, x.DType(), cpu.device)

	outer, inner := splitAround(shape, dim)
	elem := x.DType().Size()
	block := inner * elem
	srcRow := shape[dim] * block
	src, out := x.Data(), result.Data()
	for j := 0; j < outer; j++ {
		start := j*srcRow + index*block
		copy(out[j*block:(j+1)*block], src[start:start+block])
	}

	return result
}

// Unsqueeze adds a dimension of size 1 at the specified position.
//
// Supports negative dim indexing.
//
// Example:
//
//	x := tensor.Randn[float32](tensor.Shape{2, 3}, backend)
//	y := backend.Unsqueeze(x.Raw(), 1)  // Shape: [2, 1, 3]
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	// Valid range is [0, ndim]
	if dim < 0 {
		dim = ndim + 1 + dim
	}
	if dim < 0 || dim > ndim {
		panic(fmt.Sprintf("unsqueeze: dimension %d out of range for %dD tensor (valid: [0, %d])", dim, ndim, ndim))
	}

	newShape := make(tensor.Shape, 0, ndim+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)

	return cpu.Reshape(x, newShape)
}

// Squeeze removes a dimension of size 1 at the specified position.
//
// Panics if the dimension size is not 1.
func (cpu *CPUBackend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	dim = tensor.NormalizeDim(dim, ndim)

	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d has size %d, must be 1", dim, shape[dim]))
	}

	newShape := make(tensor.Shape, 0, ndim-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)

	return cpu.Reshape(x, newShape)
}

// splitAround returns the element counts before and after dim.
func splitAround(shape tensor.Shape, dim int) (outer, inner int) {
	outer, inner = 1, 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	for _, d := range shape[dim+1:] {
		inner *= d
	}
	return outer, inner
}

package tensor

// Cat concatenates tensors along the specified dimension.
//
// All tensors must have the same shape except along the concatenation dimension.
// Supports negative dim indexing (-1 = last dimension).
//
// Example:
//
//	rows := []*Tensor[float64, B]{a.Inverse().Unsqueeze(0), b.Inverse().Unsqueeze(0)}
//	batch := tensor.Cat(rows, 0) // Shape: [2, n, n]
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	rawTensors := make([]*RawTensor, len(tensors))
	backend := tensors[0].backend
	for i, t := range tensors {
		rawTensors[i] = t.raw
	}

	return New[T, B](backend.Cat(rawTensors, dim), backend)
}

// Unsqueeze adds a dimension of size 1 at the specified position.
//
// Example:
//
//	x := tensor.Randn[float32](Shape{2, 3}, backend)
//	y := x.Unsqueeze(0)  // Shape: [1, 2, 3]
//	z := x.Unsqueeze(-1) // Shape: [2, 3, 1]
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Unsqueeze(t.raw, dim), t.backend)
}

// Squeeze removes a dimension of size 1 at the specified position.
// Panics if the dimension size is not 1.
func (t *Tensor[T, B]) Squeeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Squeeze(t.raw, dim), t.backend)
}

// Select returns the slice at index along dim, with dim removed.
//
// Example:
//
//	mats := tensor.Randn[float64](Shape{2, 3, 3}, backend)
//	first := mats.Select(0, 0) // Shape: [3, 3]
func (t *Tensor[T, B]) Select(dim, index int) *Tensor[T, B] {
	return New[T, B](t.backend.Select(t.raw, dim, index), t.backend)
}

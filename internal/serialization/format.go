package serialization

import (
	"fmt"

	"github.com/uberstig/gpytorch/internal/tensor"
)

// Format constants.
const (
	MetadataKey = "__metadata__" // Header entry holding string metadata
	ChecksumKey = "sha256"       // Metadata key for the data-section checksum
	sizePrefix  = 8              // Bytes in the little-endian header length
)

// SafeTensors dtype strings.
const (
	DTypeF32 = "F32"
	DTypeF64 = "F64"
)

// TensorHeader is one tensor's entry in the JSON header.
type TensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// TensorMeta is a named header entry flattened for validation.
type TensorMeta struct {
	Name   string
	DType  tensor.DataType
	Shape  tensor.Shape
	Offset int64 // Bytes from the start of the data section
	Size   int64 // Bytes
}

func dtypeToSafeTensors(dt tensor.DataType) (string, error) {
	switch dt {
	case tensor.Float32:
		return DTypeF32, nil
	case tensor.Float64:
		return DTypeF64, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDType, dt)
	}
}

func safeTensorsToDtype(s string) (tensor.DataType, error) {
	switch s {
	case DTypeF32:
		return tensor.Float32, nil
	case DTypeF64:
		return tensor.Float64, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedDType, s)
	}
}

// meta flattens a header entry, checking that the byte range fits the
// dtype and shape.
func (h TensorHeader) meta(name string) (TensorMeta, error) {
	dt, err := safeTensorsToDtype(h.DType)
	if err != nil {
		return TensorMeta{}, &ValidationError{Err: ErrUnsupportedDType, Tensor: name, Details: fmt.Sprintf("dtype %q", h.DType)}
	}
	shape := make(tensor.Shape, len(h.Shape))
	elems := int64(1)
	for i, d := range h.Shape {
		if d < 0 {
			return TensorMeta{}, &ValidationError{Err: ErrSizeMismatch, Tensor: name, Details: fmt.Sprintf("negative dimension %d", d)}
		}
		shape[i] = int(d)
		elems *= d
	}
	m := TensorMeta{
		Name:   name,
		DType:  dt,
		Shape:  shape,
		Offset: h.DataOffsets[0],
		Size:   h.DataOffsets[1] - h.DataOffsets[0],
	}
	if want := elems * int64(dt.Size()); m.Size >= 0 && m.Size != want {
		return TensorMeta{}, &ValidationError{
			Err:     ErrSizeMismatch,
			Tensor:  name,
			Details: fmt.Sprintf("%d bytes for %s %v, want %d", m.Size, dt, shape, want),
		}
	}
	return m, nil
}

package serialization

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name     string
		tensors  []TensorMeta
		dataSize int64
		want     error
	}{
		{
			name: "disjoint",
			tensors: []TensorMeta{
				{Name: "a", Offset: 100, Size: 200},
				{Name: "b", Offset: 0, Size: 100},
				{Name: "c", Offset: 300, Size: 150},
			},
			dataSize: 500,
		},
		{
			name: "overlap by one byte",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 100},
				{Name: "b", Offset: 99, Size: 100},
			},
			dataSize: 200,
			want:     ErrOffsetOverlap,
		},
		{
			name: "exact boundary",
			tensors: []TensorMeta{
				{Name: "a", Offset: 0, Size: 100},
				{Name: "b", Offset: 100, Size: 100},
			},
			dataSize: 200,
		},
		{
			name:     "past the end",
			tensors:  []TensorMeta{{Name: "a", Offset: 50, Size: 100}},
			dataSize: 120,
			want:     ErrOutOfBounds,
		},
		{
			name:     "negative size",
			tensors:  []TensorMeta{{Name: "a", Offset: 0, Size: -1}},
			dataSize: 10,
			want:     ErrNegativeOffset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, tt.dataSize)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateTensorOffsets_ReportsBothNames(t *testing.T) {
	err := ValidateTensorOffsets([]TensorMeta{
		{Name: "matrix", Offset: 0, Size: 72},
		{Name: "rhs", Offset: 64, Size: 24},
	}, 96)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "matrix", verr.Tensor)
	assert.Equal(t, "rhs", verr.Tensor2)
	assert.Contains(t, err.Error(), "overlap")
}

func TestValidateTensorName(t *testing.T) {
	valid := []string{"matrix", "rhs", "grad_matrix", "layer.0.weight"}
	for _, name := range valid {
		assert.NoError(t, ValidateTensorName(name), name)
	}

	invalid := []string{"", MetadataKey, "../etc", "a/b", `a\b`, "a\x00b", strings.Repeat("x", MaxTensorNameLen+1)}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateTensorName(name), ErrInvalidTensorName, "%q", name)
	}
}

func TestValidateChecksum(t *testing.T) {
	data := []byte("tensor bytes")
	sum := ComputeChecksum(data)
	assert.Len(t, sum, 64)
	assert.NoError(t, ValidateChecksum(data, sum))
	assert.ErrorIs(t, ValidateChecksum([]byte("other"), sum), ErrChecksumMismatch)
}

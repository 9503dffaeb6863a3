package serialization

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uberstig/gpytorch/internal/tensor"
)

func rawF64(t *testing.T, shape tensor.Shape, vals ...float64) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	raw.SetFloat64s(vals)
	return raw
}

func rawF32(t *testing.T, shape tensor.Shape, vals ...float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), vals)
	return raw
}

// encode builds a SafeTensors stream from a hand-written header.
func encode(header string, data []byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint64(len(header)))
	buf.WriteString(header)
	buf.Write(data)
	return buf.Bytes()
}

func TestSafeTensorsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problem.safetensors")

	original := map[string]*tensor.RawTensor{
		"matrix": rawF64(t, tensor.Shape{2, 2}, 2, 1, 1, 3),
		"rhs":    rawF64(t, tensor.Shape{2}, 1, -1),
		"noise":  rawF32(t, tensor.Shape{2}, 0.5, 0.25),
	}
	require.NoError(t, WriteSafeTensors(path, original, map[string]string{"source": "test"}))

	loaded, metadata, err := ReadSafeTensors(path)
	require.NoError(t, err)

	assert.Equal(t, "test", metadata["source"])
	assert.Contains(t, metadata, ChecksumKey)
	require.Len(t, loaded, 3)
	for name, want := range original {
		got := loaded[name]
		require.NotNil(t, got, name)
		assert.Equal(t, want.DType(), got.DType(), name)
		assert.Equal(t, want.Shape(), got.Shape(), name)
		assert.Equal(t, want.Data(), got.Data(), name)
	}
}

func TestSafeTensorsAlphabeticalLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, map[string]*tensor.RawTensor{
		"b": rawF64(t, tensor.Shape{1}, 2),
		"a": rawF64(t, tensor.Shape{1}, 1),
	}, nil))

	stream := buf.Bytes()
	headerSize := binary.LittleEndian.Uint64(stream[:8])
	data := stream[8+headerSize:]
	require.Len(t, data, 16)

	loaded, _, err := ReadFrom(bytes.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, data[:8], loaded["a"].Data())
	assert.Equal(t, data[8:], loaded["b"].Data())
}

func TestSafeTensorsChecksumMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.safetensors")
	require.NoError(t, WriteSafeTensors(path, map[string]*tensor.RawTensor{
		"x": rawF64(t, tensor.Shape{2}, 1, 2),
	}, nil))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	contents[len(contents)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	_, _, err = ReadSafeTensors(path)
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestSafeTensorsWithoutChecksum(t *testing.T) {
	// Files from other writers carry no checksum.
	data := make([]byte, 8)
	binary.LittleEndian.PutUint64(data, 0x3FF0000000000000) // 1.0
	stream := encode(`{"x":{"dtype":"F64","shape":[1],"data_offsets":[0,8]}}`, data)

	loaded, metadata, err := ReadFrom(bytes.NewReader(stream))
	require.NoError(t, err)
	assert.Empty(t, metadata)
	assert.Equal(t, []float64{1}, loaded["x"].AsFloat64())
}

func TestSafeTensorsRejectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		stream []byte
		want   error
	}{
		{
			name:   "unsupported dtype",
			stream: encode(`{"x":{"dtype":"I64","shape":[1],"data_offsets":[0,8]}}`, make([]byte, 8)),
			want:   ErrUnsupportedDType,
		},
		{
			name:   "size does not match shape",
			stream: encode(`{"x":{"dtype":"F64","shape":[2],"data_offsets":[0,8]}}`, make([]byte, 8)),
			want:   ErrSizeMismatch,
		},
		{
			name:   "out of bounds",
			stream: encode(`{"x":{"dtype":"F64","shape":[2],"data_offsets":[0,16]}}`, make([]byte, 8)),
			want:   ErrOutOfBounds,
		},
		{
			name: "overlap",
			stream: encode(`{"x":{"dtype":"F64","shape":[2],"data_offsets":[0,16]},`+
				`"y":{"dtype":"F64","shape":[1],"data_offsets":[8,16]}}`, make([]byte, 16)),
			want: ErrOffsetOverlap,
		},
		{
			name:   "negative offset",
			stream: encode(`{"x":{"dtype":"F64","shape":[1],"data_offsets":[8,0]}}`, make([]byte, 8)),
			want:   ErrNegativeOffset,
		},
		{
			name:   "path in name",
			stream: encode(`{"../x":{"dtype":"F64","shape":[1],"data_offsets":[0,8]}}`, make([]byte, 8)),
			want:   ErrInvalidTensorName,
		},
		{
			name:   "truncated header",
			stream: encode(`{"x":{"dtype":"F64"`, nil)[:12],
			want:   ErrTruncated,
		},
		{
			name:   "truncated size prefix",
			stream: []byte{1, 2, 3},
			want:   ErrTruncated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadFrom(bytes.NewReader(tt.stream))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSafeTensorsHeaderTooLarge(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(MaxHeaderSize+1)))

	_, _, err := ReadFrom(&buf)
	assert.ErrorIs(t, err, ErrHeaderTooLarge)
}

func TestWriteRejectsBadNames(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTo(&buf, map[string]*tensor.RawTensor{
		MetadataKey: rawF64(t, tensor.Shape{1}, 1),
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidTensorName)
}

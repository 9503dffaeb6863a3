package tensor

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertEqualShape(t *testing.T, expected, actual Shape, msg string) {
	t.Helper()
	if !expected.Equal(actual) {
		t.Errorf("%s: expected shape %v, got %v", msg, expected, actual)
	}
}

func TestDataTypeSize(t *testing.T) {
	if got := Float32.Size(); got != 4 {
		t.Errorf("Float32.Size() = %d, want 4", got)
	}
	if got := Float64.Size(); got != 8 {
		t.Errorf("Float64.Size() = %d, want 8", got)
	}
}

func TestDataTypeString(t *testing.T) {
	assert.Equal(t, "float32", Float32.String())
	assert.Equal(t, "float64", Float64.String())
	assert.Equal(t, "unknown", DataType(42).String())
}

func TestShapeValidate(t *testing.T) {
	assert.NoError(t, Shape{2, 3}.Validate())
	assert.NoError(t, Shape{}.Validate())
	assert.Error(t, Shape{2, 0}.Validate())
	assert.Error(t, Shape{-1}.Validate())
}

func TestShapeComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())
	assert.Equal(t, []int{}, Shape{}.ComputeStrides())
}

func TestShapeBatch(t *testing.T) {
	tests := []struct {
		shape            Shape
		batch, rows, col int
	}{
		{Shape{3, 4}, 1, 3, 4},
		{Shape{2, 3, 4}, 2, 3, 4},
		{Shape{2, 5, 3, 4}, 10, 3, 4},
	}
	for _, tt := range tests {
		b, r, c := tt.shape.Batch()
		if b != tt.batch || r != tt.rows || c != tt.col {
			t.Errorf("%v.Batch() = (%d, %d, %d), want (%d, %d, %d)", tt.shape, b, r, c, tt.batch, tt.rows, tt.col)
		}
	}
	assert.Panics(t, func() { Shape{3}.Batch() })
}

func TestNormalizeDim(t *testing.T) {
	assert.Equal(t, 2, NormalizeDim(-1, 3))
	assert.Equal(t, 0, NormalizeDim(0, 3))
	assert.Panics(t, func() { NormalizeDim(3, 3) })
	assert.Panics(t, func() { NormalizeDim(-4, 3) })
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b      Shape
		want      Shape
		broadcast bool
		wantErr   bool
	}{
		{Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true, false},
		{Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false, false},
		{Shape{3, 3}, Shape{2, 3, 3}, Shape{2, 3, 3}, true, false},
		{Shape{3, 4}, Shape{3, 5}, nil, false, true},
	}
	for _, tt := range tests {
		got, broadcast, err := BroadcastShapes(tt.a, tt.b)
		if tt.wantErr {
			assert.Error(t, err, "%v vs %v", tt.a, tt.b)
			continue
		}
		require.NoError(t, err)
		assertEqualShape(t, tt.want, got, "BroadcastShapes")
		assert.Equal(t, tt.broadcast, broadcast, "%v vs %v", tt.a, tt.b)
	}
}

func TestRawTensorCloneSharesBuffer(t *testing.T) {
	raw := MustNewRaw(Shape{2, 2}, Float64, CPU)
	clone := raw.Clone()
	assert.NotSame(t, raw, clone)

	clone.AsFloat64()[0] = 7
	assert.Equal(t, 7.0, raw.AsFloat64()[0])
}

func TestRawTensorCopyIsDeep(t *testing.T) {
	raw := MustNewRaw(Shape{3}, Float32, CPU)
	cp := raw.Copy()
	cp.AsFloat32()[1] = 5
	assert.Equal(t, float32(0), raw.AsFloat32()[1])
	assert.Equal(t, 12, cp.ByteSize())
}

func TestNewRawRejectsBadShape(t *testing.T) {
	_, err := NewRaw(Shape{2, 0}, Float64, CPU)
	assert.Error(t, err)
	assert.Panics(t, func() { MustNewRaw(Shape{-1}, Float64, CPU) })
}

func TestRawTensorFloat64RoundTrip(t *testing.T) {
	raw := MustNewRaw(Shape{3}, Float32, CPU)
	raw.SetFloat64s([]float64{1.5, -2, 3.25})
	assert.Equal(t, []float32{1.5, -2, 3.25}, raw.AsFloat32())
	assert.Equal(t, []float64{1.5, -2, 3.25}, raw.Float64s())
	assert.Panics(t, func() { raw.SetFloat64s([]float64{1}) })
}

func TestRawTensorWrongDTypePanics(t *testing.T) {
	raw := MustNewRaw(Shape{2}, Float32, CPU)
	assert.Panics(t, func() { raw.AsFloat64() })
}

func TestRawTensorWithShape(t *testing.T) {
	raw := MustNewRaw(Shape{2, 3}, Float64, CPU)
	view := raw.WithShape(Shape{6})
	view.AsFloat64()[4] = 9
	assert.Equal(t, 9.0, raw.AsFloat64()[4])
	assert.Equal(t, []int{1}, view.Strides())
	assert.Panics(t, func() { raw.WithShape(Shape{5}) })
}

func TestFromSlice(t *testing.T) {
	b := &mockBackend{}
	x, err := FromSlice([]float64{1, 2, 3, 4, 5, 6}, Shape{2, 3}, b)
	require.NoError(t, err)
	assert.Equal(t, 6.0, x.At(1, 2))
	assert.Equal(t, 2.0, x.At(0, 1))

	_, err = FromSlice([]float64{1, 2}, Shape{2, 3}, b)
	assert.Error(t, err)
}

func TestTensorSetAndBounds(t *testing.T) {
	x := Zeros[float32](Shape{2, 2}, &mockBackend{})
	x.Set(3, 1, 0)
	assert.Equal(t, float32(3), x.Data()[2])
	assert.Panics(t, func() { x.At(2, 0) })
	assert.Panics(t, func() { x.At(0) })
}

func TestTensorItem(t *testing.T) {
	b := &mockBackend{}
	s, err := FromSlice([]float64{4}, Shape{}, b)
	require.NoError(t, err)
	assert.Equal(t, 4.0, s.Item())
	assert.Panics(t, func() { Zeros[float64](Shape{2}, b).Item() })
}

func TestTensorCloneIsIndependentLeaf(t *testing.T) {
	x := Ones[float64](Shape{2}, &mockBackend{}).RequireGrad()
	c := x.Clone()
	c.Data()[0] = 5
	assert.Equal(t, 1.0, x.Data()[0])
	assert.False(t, c.RequiresGrad())
	assert.NotSame(t, x.Raw(), c.Raw())
}

func TestTensorDetach(t *testing.T) {
	x := Ones[float64](Shape{2}, &mockBackend{}).RequireGrad()
	d := x.Detach()
	assert.Same(t, x.Raw(), d.Raw())
	assert.False(t, d.RequiresGrad())
}

func TestEye(t *testing.T) {
	e := Eye[float64](3, &mockBackend{})
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.Equal(t, want, e.At(i, j))
		}
	}
}

func TestFull(t *testing.T) {
	x := Full[float32](Shape{2, 2}, 2.5, &mockBackend{})
	for _, v := range x.Data() {
		assert.Equal(t, float32(2.5), v)
	}
}

func TestRandnWithSourceIsReproducible(t *testing.T) {
	b := &mockBackend{}
	a := RandnWithSource[float64](Shape{4, 4}, rand.New(rand.NewSource(7)), b)
	c := RandnWithSource[float64](Shape{4, 4}, rand.New(rand.NewSource(7)), b)
	assert.Equal(t, a.Data(), c.Data())

	nonZero := false
	for _, v := range a.Data() {
		if v != 0 {
			nonZero = true
		}
	}
	assert.True(t, nonZero)
}

func TestTensorMethodsDispatchToBackend(t *testing.T) {
	b := &mockBackend{}
	x := Ones[float64](Shape{2, 2}, b)
	x.Add(x)
	x.Sub(x)
	x.Mul(x)
	x.Neg()
	x.MatMul(x)
	x.Inverse()
	x.T()
	x.Unsqueeze(0)
	x.Select(0, 1)
	x.Sum()
	assert.Equal(t, []string{"Add", "Sub", "Mul", "MulScalar", "MatMul", "Inverse", "Transpose", "Unsqueeze", "Select", "Sum"}, b.calls)
}

func TestApproxEqual(t *testing.T) {
	b := &mockBackend{}
	x, _ := FromSlice([]float64{1, 2, 3}, Shape{3}, b)
	y, _ := FromSlice([]float64{1, 2.00005, 3}, Shape{3}, b)
	z, _ := FromSlice([]float64{1, 2.001, 3}, Shape{3}, b)

	assert.True(t, ApproxEqual(x, y))
	assert.False(t, ApproxEqual(x, z))
	assert.True(t, ApproxEqual(x, z, 1e-2))

	w := Ones[float64](Shape{3, 1}, b)
	assert.False(t, ApproxEqual(x, w), "different shapes never compare equal")

	n, _ := FromSlice([]float64{1, math.NaN(), 3}, Shape{3}, b)
	assert.False(t, ApproxEqual(x, n))
}

func TestRawApproxEqualAcrossDTypes(t *testing.T) {
	a := MustNewRaw(Shape{2}, Float32, CPU)
	b := MustNewRaw(Shape{2}, Float64, CPU)
	a.SetFloat64s([]float64{0.1, 0.2})
	b.SetFloat64s([]float64{0.1, 0.2})
	assert.True(t, RawApproxEqual(a, b))
	assert.InDelta(t, 0, MaxAbsDiff(a, b), 1e-7)
}

package tensor

import "fmt"

var _ Backend = (*mockBackend)(nil)

// mockBackend implements the element-wise subset of Backend naively so the
// tensor package can be tested without importing a real backend. Ops it does
// not need record their name and return the first input.
type mockBackend struct {
	calls []string
}

func (m *mockBackend) Name() string   { return "mock" }
func (m *mockBackend) Device() Device { return CPU }

func (m *mockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.elementWise("Add", a, b, func(x, y float64) float64 { return x + y })
}

func (m *mockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.elementWise("Sub", a, b, func(x, y float64) float64 { return x - y })
}

func (m *mockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.elementWise("Mul", a, b, func(x, y float64) float64 { return x * y })
}

func (m *mockBackend) MulScalar(x *RawTensor, s float64) *RawTensor {
	m.calls = append(m.calls, "MulScalar")
	vals := x.Float64s()
	for i := range vals {
		vals[i] *= s
	}
	out := MustNewRaw(x.Shape(), x.DType(), CPU)
	out.SetFloat64s(vals)
	return out
}

// elementWise only supports equal shapes; broadcasting is covered by the cpu tests.
func (m *mockBackend) elementWise(name string, a, b *RawTensor, op func(float64, float64) float64) *RawTensor {
	m.calls = append(m.calls, name)
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("mock %s: shapes %v and %v differ", name, a.Shape(), b.Shape()))
	}
	av, bv := a.Float64s(), b.Float64s()
	for i := range av {
		av[i] = op(av[i], bv[i])
	}
	out := MustNewRaw(a.Shape(), a.DType(), CPU)
	out.SetFloat64s(av)
	return out
}

func (m *mockBackend) record(name string, x *RawTensor) *RawTensor {
	m.calls = append(m.calls, name)
	return x
}

func (m *mockBackend) MatMul(a, _ *RawTensor) *RawTensor          { return m.record("MatMul", a) }
func (m *mockBackend) Reshape(t *RawTensor, _ Shape) *RawTensor    { return m.record("Reshape", t) }
func (m *mockBackend) Transpose(t *RawTensor, _ ...int) *RawTensor { return m.record("Transpose", t) }
func (m *mockBackend) Unsqueeze(x *RawTensor, _ int) *RawTensor    { return m.record("Unsqueeze", x) }
func (m *mockBackend) Squeeze(x *RawTensor, _ int) *RawTensor      { return m.record("Squeeze", x) }
func (m *mockBackend) Cat(ts []*RawTensor, _ int) *RawTensor       { return m.record("Cat", ts[0]) }
func (m *mockBackend) Select(x *RawTensor, _, _ int) *RawTensor    { return m.record("Select", x) }
func (m *mockBackend) Sum(x *RawTensor) *RawTensor                 { return m.record("Sum", x) }
func (m *mockBackend) SumDim(x *RawTensor, _ int, _ bool) *RawTensor {
	return m.record("SumDim", x)
}
func (m *mockBackend) Inverse(x *RawTensor) *RawTensor { return m.record("Inverse", x) }

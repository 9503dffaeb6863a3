package tensor

import "math"

// DefaultTolerance is the absolute tolerance ApproxEqual uses when none is given.
const DefaultTolerance = 1e-4

// ApproxEqual reports whether a and b have the same shape and every element
// differs by at most eps (DefaultTolerance if omitted). NaN never compares equal.
func ApproxEqual[T DType, B Backend](a, b *Tensor[T, B], eps ...float64) bool {
	return RawApproxEqual(a.raw, b.raw, eps...)
}

// RawApproxEqual is ApproxEqual for raw tensors of possibly different dtypes.
func RawApproxEqual(a, b *RawTensor, eps ...float64) bool {
	return MaxAbsDiff(a, b) <= tolerance(eps)
}

// MaxAbsDiff returns max|a-b| over all elements, or +Inf if the shapes differ.
// A NaN on either side yields NaN.
func MaxAbsDiff(a, b *RawTensor) float64 {
	if !a.Shape().Equal(b.Shape()) {
		return math.Inf(1)
	}
	av, bv := a.Float64s(), b.Float64s()
	worst := 0.0
	for i := range av {
		d := math.Abs(av[i] - bv[i])
		if math.IsNaN(d) {
			return math.NaN()
		}
		if d > worst {
			worst = d
		}
	}
	return worst
}

func tolerance(eps []float64) float64 {
	if len(eps) > 0 {
		return eps[0]
	}
	return DefaultTolerance
}

package cpu

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/uberstig/gpytorch/internal/parallel"
	"github.com/uberstig/gpytorch/internal/tensor"
)

// Inverse inverts a square matrix [n, n] or every matrix of a batch
// [..., n, n]. Factorization runs in float64 through gonum regardless of
// dtype. Panics on a non-square or singular input.
func (cpu *CPUBackend) Inverse(x *tensor.RawTensor) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("inverse: need a matrix, got shape %v", shape))
	}
	batch, n, cols := shape.Batch()
	if n != cols {
		panic(fmt.Sprintf("inverse: matrix is not square: %v", shape))
	}

	src := x.Float64s()
	dst := make([]float64, len(src))
	size := n * n

	err := parallel.ForErr(batch, func(i int) error {
		a := mat.NewDense(n, n, src[i*size:(i+1)*size])
		inv := mat.NewDense(n, n, dst[i*size:(i+1)*size])
		return singular(inv.Inverse(a), i)
	}, cpu.parallel)
	if err != nil {
		panic(fmt.Sprintf("inverse: %v", err))
	}

	result := tensor.MustNewRaw(shape, x.DType(), cpu.device)
	result.SetFloat64s(dst)
	return result
}

// singular filters gonum's inverse error down to exact singularity. A finite
// condition number is only a warning and the computed inverse is kept.
func singular(err error, entry int) error {
	var cond mat.Condition
	if errors.As(err, &cond) && !math.IsInf(float64(cond), 1) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("batch entry %d: %w", entry, err)
	}
	return nil
}

package cpu

import (
	"fmt"

	"github.com/uberstig/gpytorch/internal/parallel"
	"github.com/uberstig/gpytorch/internal/tensor"
)

// MatMul performs matrix multiplication.
//
//	[M, K] @ [K, N]             -> [M, N]
//	[M, K] @ [K]                -> [M]
//	[..., M, K] @ [..., K, N]   -> [..., M, N]
//	[..., M, K] @ [K, N]        -> [..., M, N] (and the mirrored case)
//
// Batch dimensions must match exactly unless one side is a plain matrix,
// which is then shared by every batch entry.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) == 2 && len(bShape) == 1 {
		m, k := aShape[0], aShape[1]
		if k != bShape[0] {
			panic(fmt.Sprintf("matmul: shape mismatch %v @ %v", aShape, bShape))
		}
		col := b.WithShape(tensor.Shape{k, 1})
		return cpu.MatMul(a, col).WithShape(tensor.Shape{m})
	}

	if len(aShape) < 2 || len(bShape) < 2 {
		panic(fmt.Sprintf("matmul: unsupported ranks %dD @ %dD", len(aShape), len(bShape)))
	}

	aBatch, m, k := aShape.Batch()
	bBatch, kAlt, n := bShape.Batch()
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch %v @ %v", aShape, bShape))
	}

	var outShape tensor.Shape
	switch {
	case len(aShape) == 2 && len(bShape) == 2:
		outShape = tensor.Shape{m, n}
	case len(aShape) == 2:
		outShape = append(bShape[:len(bShape)-2].Clone(), m, n)
	case len(bShape) == 2:
		outShape = append(aShape[:len(aShape)-2].Clone(), m, n)
	default:
		if !aShape[:len(aShape)-2].Equal(bShape[:len(bShape)-2]) {
			panic(fmt.Sprintf("matmul: batch dimensions differ %v @ %v", aShape, bShape))
		}
		outShape = append(aShape[:len(aShape)-2].Clone(), m, n)
	}
	batch := max(aBatch, bBatch)

	result := tensor.MustNewRaw(outShape, a.DType(), cpu.device)

	switch a.DType() {
	case tensor.Float32:
		batchedMatMul(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), batch, aBatch > 1, bBatch > 1, m, k, n, cpu.parallel)
	case tensor.Float64:
		batchedMatMul(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), batch, aBatch > 1, bBatch > 1, m, k, n, cpu.parallel)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}

func batchedMatMul[T float](c, a, b []T, batch int, aBatched, bBatched bool, m, k, n int, cfg parallel.Config) {
	aSize, bSize, cSize := m*k, k*n, m*n
	parallel.For(batch, func(i int) {
		aOff, bOff := 0, 0
		if aBatched {
			aOff = i * aSize
		}
		if bBatched {
			bOff = i * bSize
		}
		matmulKernel(c[i*cSize:(i+1)*cSize], a[aOff:aOff+aSize], b[bOff:bOff+bSize], m, k, n)
	}, cfg)
}

// matmulKernel computes C = A @ B for row-major A [m,k] and B [k,n].
// Accumulates in float64 so float32 inputs lose as little as possible.
func matmulKernel[T float](c, a, b []T, m, k, n int) {
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum float64
			for kIdx := 0; kIdx < k; kIdx++ {
				sum += float64(a[i*k+kIdx]) * float64(b[kIdx*n+j])
			}
			c[i*n+j] = T(sum)
		}
	}
}

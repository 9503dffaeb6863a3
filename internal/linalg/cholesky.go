package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// CholeskySolve solves K_entry X = rhs exactly through a dense Cholesky
// factorization. The matrix is symmetrized as (K + Kᵀ)/2 before factoring.
func CholeskySolve(op Operator, entry int, rhs *mat.Dense) (*mat.Dense, EntryReport, error) {
	_, n := op.Dims()
	rows, k := rhs.Dims()
	if rows != n {
		return nil, EntryReport{}, fmt.Errorf("%w: rhs has %d rows, operator order %d", ErrDimensionMismatch, rows, n)
	}

	dense := DenseOf(op, entry)
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, (dense.At(i, j)+dense.At(j, i))/2)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, EntryReport{}, fmt.Errorf("%w: cholesky factorization failed for entry %d", ErrNotPositiveDefinite, entry)
	}

	x := mat.NewDense(n, k, nil)
	if err := chol.SolveTo(x, rhs); err != nil && !isConditionWarning(err) {
		return nil, EntryReport{}, fmt.Errorf("linalg: cholesky solve entry %d: %w", entry, err)
	}

	return x, EntryReport{Residual: relativeResidual(op, entry, x, rhs), Converged: true}, nil
}

// relativeResidual returns max_j ||K x_j - b_j|| / ||b_j||.
func relativeResidual(op Operator, entry int, x, rhs *mat.Dense) float64 {
	n, k := rhs.Dims()
	kx := mat.NewDense(n, k, nil)
	op.Apply(entry, kx, x)
	kx.Sub(kx, rhs)

	resid := mat.DenseCopyOf(kx.T())
	bNorm := make([]float64, k)
	for j := 0; j < k; j++ {
		bNorm[j] = floats.Norm(mat.Col(nil, j, rhs), 2)
	}
	return worstResidual(resid, bNorm)
}

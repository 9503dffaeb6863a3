package linalg

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// EntryReport describes how one batch entry was solved.
type EntryReport struct {
	Iterations int     `cbor:"iterations"`
	Residual   float64 `cbor:"residual"` // worst relative residual over the columns
	Converged  bool    `cbor:"converged"`
}

// CG solves K_entry X = rhs with block preconditioned conjugate gradients.
// Every column runs its own recurrence (own step sizes) but they share the
// operator applications. Iteration stops when every column's relative
// residual is at most cfg.Tolerance or after cfg.MaxIterations; hitting the
// cap is reported, not returned as an error.
//
// Returns ErrNotPositiveDefinite when a search direction has non-positive
// curvature, or when the Jacobi preconditioner meets a non-positive
// diagonal entry.
func CG(ctx context.Context, op Operator, entry int, rhs *mat.Dense, cfg Config) (*mat.Dense, EntryReport, error) {
	_, n := op.Dims()
	rows, k := rhs.Dims()
	if rows != n {
		return nil, EntryReport{}, fmt.Errorf("%w: rhs has %d rows, operator order %d", ErrDimensionMismatch, rows, n)
	}

	var invDiag []float64
	if cfg.Preconditioner == PreconditionerJacobi {
		invDiag = DiagonalOf(op, entry)
		for j, d := range invDiag {
			if d <= 0 {
				return nil, EntryReport{}, fmt.Errorf("%w: diagonal entry %d is %g", ErrNotPositiveDefinite, j, d)
			}
			invDiag[j] = 1 / d
		}
	}

	// Column j of the system lives in row j of these k×n blocks so each
	// vector is contiguous.
	x := mat.NewDense(k, n, nil)
	r := mat.DenseCopyOf(rhs.T())
	z := mat.NewDense(k, n, nil)
	p := mat.NewDense(k, n, nil)
	ap := mat.NewDense(k, n, nil)
	apCols := mat.NewDense(n, k, nil)

	bNorm := make([]float64, k)
	rz := make([]float64, k)
	done := make([]bool, k)
	for j := 0; j < k; j++ {
		bNorm[j] = floats.Norm(r.RawRowView(j), 2)
		done[j] = bNorm[j] == 0
	}

	precondition(z, r, invDiag)
	p.Copy(z)
	for j := 0; j < k; j++ {
		rz[j] = floats.Dot(r.RawRowView(j), z.RawRowView(j))
	}

	report := EntryReport{Residual: worstResidual(r, bNorm)}
	if allTrue(done) || report.Residual <= cfg.Tolerance {
		report.Converged = true
		return mat.DenseCopyOf(x.T()), report, nil
	}

	for iter := 1; iter <= cfg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, report, fmt.Errorf("linalg: cg entry %d: %w", entry, err)
		}

		op.Apply(entry, apCols, p.T())
		ap.Copy(apCols.T())

		for j := 0; j < k; j++ {
			if done[j] {
				continue
			}
			pRow, apRow := p.RawRowView(j), ap.RawRowView(j)
			curvature := floats.Dot(pRow, apRow)
			if curvature <= 0 || math.IsNaN(curvature) {
				return nil, report, fmt.Errorf("%w: curvature %g at iteration %d, column %d", ErrNotPositiveDefinite, curvature, iter, j)
			}
			alpha := rz[j] / curvature
			floats.AddScaled(x.RawRowView(j), alpha, pRow)
			floats.AddScaled(r.RawRowView(j), -alpha, apRow)
		}

		report.Iterations = iter
		report.Residual = worstResidual(r, bNorm)
		for j := 0; j < k; j++ {
			if !done[j] && floats.Norm(r.RawRowView(j), 2)/bNorm[j] <= cfg.Tolerance {
				done[j] = true
			}
		}
		if allTrue(done) {
			report.Converged = true
			break
		}

		precondition(z, r, invDiag)
		for j := 0; j < k; j++ {
			if done[j] {
				continue
			}
			rzNew := floats.Dot(r.RawRowView(j), z.RawRowView(j))
			beta := rzNew / rz[j]
			rz[j] = rzNew
			pRow := p.RawRowView(j)
			floats.Scale(beta, pRow)
			floats.Add(pRow, z.RawRowView(j))
		}
	}

	return mat.DenseCopyOf(x.T()), report, nil
}

// precondition sets z = M⁻¹ r for the Jacobi preconditioner, or z = r.
func precondition(z, r *mat.Dense, invDiag []float64) {
	if invDiag == nil {
		z.Copy(r)
		return
	}
	k, _ := r.Dims()
	for j := 0; j < k; j++ {
		floats.MulTo(z.RawRowView(j), r.RawRowView(j), invDiag)
	}
}

// worstResidual returns the largest ||r_j|| / ||b_j|| over non-zero columns.
func worstResidual(r *mat.Dense, bNorm []float64) float64 {
	var worst float64
	for j, b := range bNorm {
		if b == 0 {
			continue
		}
		worst = math.Max(worst, floats.Norm(r.RawRowView(j), 2)/b)
	}
	return worst
}

func allTrue(v []bool) bool {
	for _, b := range v {
		if !b {
			return false
		}
	}
	return true
}

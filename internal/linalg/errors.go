package linalg

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Sentinel errors returned by the solvers.
var (
	ErrDimensionMismatch   = errors.New("linalg: dimension mismatch")
	ErrNotPositiveDefinite = errors.New("linalg: matrix is not positive definite")
	ErrNonSquare           = errors.New("linalg: matrix is not square")
	ErrEmptyBatch          = errors.New("linalg: empty batch")
)

// isConditionWarning reports whether err is gonum's finite condition number
// notice, which comes with a usable result.
func isConditionWarning(err error) bool {
	var cond mat.Condition
	return errors.As(err, &cond) && !math.IsInf(float64(cond), 1)
}

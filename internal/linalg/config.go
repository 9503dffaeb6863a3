// Package linalg solves batched symmetric positive-definite systems K X = B
// with preconditioned conjugate gradients or a dense Cholesky factorization.
//
// Matrices are reached only through the Operator interface so structured
// operators never have to be materialized for CG.
package linalg

import (
	"fmt"
	"strings"

	"github.com/uberstig/gpytorch/internal/parallel"
)

// Preconditioner selects the CG preconditioner.
type Preconditioner int

// Supported preconditioners.
const (
	PreconditionerNone Preconditioner = iota
	// PreconditionerJacobi scales residuals by the inverse diagonal.
	PreconditionerJacobi
)

// String returns the flag spelling of p.
func (p Preconditioner) String() string {
	switch p {
	case PreconditionerNone:
		return "none"
	case PreconditionerJacobi:
		return "jacobi"
	default:
		return fmt.Sprintf("Preconditioner(%d)", int(p))
	}
}

// ParsePreconditioner maps "none" or "jacobi" to a Preconditioner.
func ParsePreconditioner(s string) (Preconditioner, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return PreconditionerNone, nil
	case "jacobi":
		return PreconditionerJacobi, nil
	default:
		return PreconditionerNone, fmt.Errorf("linalg: unknown preconditioner %q", s)
	}
}

// Method names the algorithm that solved a batch.
type Method string

// Solver methods.
const (
	MethodCG       Method = "cg"
	MethodCholesky Method = "cholesky"
)

// Config controls the solvers.
type Config struct {
	MaxIterations   int     // CG iteration cap per batch entry.
	Tolerance       float64 // Relative residual ||r|| / ||b|| at which CG stops.
	MaxCholeskySize int     // Systems with n <= this use Cholesky; 0 means always CG.
	Preconditioner  Preconditioner
	Parallel        parallel.Config // Fan-out across batch entries.
}

// DefaultConfig returns the solver defaults: CG for every size, 1000
// iterations, relative tolerance 1e-10, no preconditioner.
func DefaultConfig() Config {
	return Config{
		MaxIterations:   1000,
		Tolerance:       1e-10,
		MaxCholeskySize: 0,
		Preconditioner:  PreconditionerNone,
		Parallel:        parallel.BatchConfig(),
	}
}

// method picks the algorithm for an n×n system.
func (c Config) method(n int) Method {
	if n <= c.MaxCholeskySize {
		return MethodCholesky
	}
	return MethodCG
}

func (c Config) validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("linalg: MaxIterations must be positive, got %d", c.MaxIterations)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("linalg: Tolerance must be non-negative, got %g", c.Tolerance)
	}
	if c.Preconditioner != PreconditionerNone && c.Preconditioner != PreconditionerJacobi {
		return fmt.Errorf("linalg: unknown preconditioner %v", c.Preconditioner)
	}
	return nil
}

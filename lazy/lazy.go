// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package lazy provides structured covariance matrices and a differentiable
// solve against them.
//
// InvMatmul computes K⁻¹ rhs with conjugate gradients or a Cholesky
// factorization and never forms K⁻¹. When the backend records gradients,
// the solve is one tape operation whose backward pass costs one more solve.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	k, _ := lazy.NewNonLazy(matrix)
//	kn, _ := lazy.AddDiag(k, noise)
//	x, err := kn.InvMatmul(rhs, lazy.WithPreconditioner(lazy.PreconditionerJacobi))
//
//	grads := autodiff.BackwardWithGrad(x, upstream, backend)
package lazy

import (
	"context"

	"github.com/uberstig/gpytorch/internal/lazy"
	"github.com/uberstig/gpytorch/internal/linalg"
	"github.com/uberstig/gpytorch/tensor"
)

// LazyTensor is a square matrix, or batch of them, used only through
// products, its diagonal and its representation tensors.
type LazyTensor[T tensor.DType, B tensor.Backend] = lazy.LazyTensor[T, B]

// Lazy tensor implementations.
type (
	NonLazy[T tensor.DType, B tensor.Backend]     = lazy.NonLazy[T, B]
	DiagLazy[T tensor.DType, B tensor.Backend]    = lazy.DiagLazy[T, B]
	SumLazy[T tensor.DType, B tensor.Backend]     = lazy.SumLazy[T, B]
	ConstantMul[T tensor.DType, B tensor.Backend] = lazy.ConstantMul[T, B]
)

// Errors.
var (
	ErrShapeMismatch       = lazy.ErrShapeMismatch
	ErrNonSquare           = lazy.ErrNonSquare
	ErrNoTerms             = lazy.ErrNoTerms
	ErrNotPositiveDefinite = linalg.ErrNotPositiveDefinite
)

// Solver configuration.
type (
	Config         = linalg.Config
	Report         = linalg.Report
	Preconditioner = linalg.Preconditioner
	Option         = lazy.Option
)

// Preconditioners.
const (
	PreconditionerNone   = linalg.PreconditionerNone
	PreconditionerJacobi = linalg.PreconditionerJacobi
)

// DefaultConfig returns the solver defaults.
func DefaultConfig() Config { return linalg.DefaultConfig() }

// NewNonLazy wraps a dense [n, n] or [b, n, n] matrix.
func NewNonLazy[T tensor.DType, B tensor.Backend](matrix *tensor.Tensor[T, B]) (*NonLazy[T, B], error) {
	return lazy.NewNonLazy(matrix)
}

// NewDiag wraps a diagonal of shape [n] or [b, n].
func NewDiag[T tensor.DType, B tensor.Backend](d *tensor.Tensor[T, B]) (*DiagLazy[T, B], error) {
	return lazy.NewDiag(d)
}

// NewSum adds lazy tensors of equal shape.
func NewSum[T tensor.DType, B tensor.Backend](terms ...LazyTensor[T, B]) (*SumLazy[T, B], error) {
	return lazy.NewSum(terms...)
}

// AddDiag returns lt + diag(d).
func AddDiag[T tensor.DType, B tensor.Backend](lt LazyTensor[T, B], d *tensor.Tensor[T, B]) (*SumLazy[T, B], error) {
	return lazy.AddDiag(lt, d)
}

// NewConstantMul returns c·lt.
func NewConstantMul[T tensor.DType, B tensor.Backend](lt LazyTensor[T, B], c float64) *ConstantMul[T, B] {
	return lazy.NewConstantMul(lt, c)
}

// InvMatmul returns K⁻¹ rhs for rhs of shape [n], [n, k] or [b, n, k].
func InvMatmul[T tensor.DType, B tensor.Backend](lt LazyTensor[T, B], rhs *tensor.Tensor[T, B], opts ...Option) (*tensor.Tensor[T, B], error) {
	return lazy.InvMatmul(lt, rhs, opts...)
}

// InvMatmulContext is InvMatmul bounded by ctx.
func InvMatmulContext[T tensor.DType, B tensor.Backend](ctx context.Context, lt LazyTensor[T, B], rhs *tensor.Tensor[T, B], opts ...Option) (*tensor.Tensor[T, B], error) {
	return lazy.InvMatmulContext(ctx, lt, rhs, opts...)
}

// WithConfig replaces the whole solver configuration.
func WithConfig(cfg Config) Option { return lazy.WithConfig(cfg) }

// WithPreconditioner selects the CG preconditioner.
func WithPreconditioner(p Preconditioner) Option { return lazy.WithPreconditioner(p) }

// WithMaxIterations caps CG iterations per batch entry.
func WithMaxIterations(n int) Option { return lazy.WithMaxIterations(n) }

// WithTolerance sets the relative residual at which CG stops.
func WithTolerance(tol float64) Option { return lazy.WithTolerance(tol) }

// WithMaxCholeskySize routes systems of order n <= size through Cholesky.
func WithMaxCholeskySize(size int) Option { return lazy.WithMaxCholeskySize(size) }

// WithReport stores the forward solve's report in dst.
func WithReport(dst *Report) Option { return lazy.WithReport(dst) }

// ParsePreconditioner maps "none" or "jacobi" to a Preconditioner.
func ParsePreconditioner(s string) (Preconditioner, error) { return linalg.ParsePreconditioner(s) }

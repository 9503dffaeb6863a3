// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides automatic differentiation capabilities.
//
// This package implements reverse-mode automatic differentiation (backpropagation)
// using a gradient tape. It wraps any backend to add autodiff capabilities.
//
// Example:
//
//	import (
//	    "github.com/uberstig/gpytorch/autodiff"
//	    "github.com/uberstig/gpytorch/backend/cpu"
//	    "github.com/uberstig/gpytorch/tensor"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//	    backend.Tape().StartRecording()
//
//	    x := tensor.Ones[float64](tensor.Shape{3}, backend)
//	    y := x.Mul(x).Sum()
//
//	    grads := autodiff.Backward(y, backend)
//	    dx := autodiff.GradOf(grads, x) // 2x
//	}
package autodiff

import (
	"github.com/uberstig/gpytorch/internal/autodiff"
	"github.com/uberstig/gpytorch/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
//
// Example:
//
//	base := cpu.New()
//	backend := autodiff.New(base)
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable interface for backends that support backpropagation.
type BackwardCapable = autodiff.BackwardCapable

// Gradients maps each tensor reached by a backward pass to its gradient.
type Gradients = autodiff.Gradients

// Backward computes gradients of t seeded with ones.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) Gradients {
	return autodiff.Backward(t, backend)
}

// BackwardWithGrad computes gradients of t seeded with an explicit upstream
// gradient of t's shape.
func BackwardWithGrad[T tensor.DType, B BackwardCapable](t, grad *tensor.Tensor[T, B], backend B) Gradients {
	return autodiff.BackwardWithGrad(t, grad, backend)
}

// GradOf returns the gradient of t, or nil if none reached it.
func GradOf[T tensor.DType, B tensor.Backend](grads Gradients, t *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return autodiff.GradOf(grads, t)
}

// Paused runs fn with recording suspended on backend's tape.
func Paused(backend BackwardCapable, fn func()) {
	autodiff.Paused(backend, fn)
}

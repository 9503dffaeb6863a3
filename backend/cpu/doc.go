// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Float32 and Float64 support, accumulating in float64
//   - NumPy-compatible broadcasting
//   - Batched matrix products and inverses (gonum LU per entry)
//
// # Basic Usage
//
//	backend := cpu.New()
//	k := tensor.Eye[float64](3, backend)
//	y := tensor.Ones[float64](tensor.Shape{3, 2}, backend)
//	z := k.MatMul(y)
//
// Wrap the backend with autodiff.New to record operations for gradients.
package cpu

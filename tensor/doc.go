// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensors for lazy Gaussian-process linear
// algebra.
//
// # Overview
//
// Tensors are the data every other package works on:
//   - Generic type-safe tensors (Tensor[T, B]) over float32 and float64
//   - NumPy-style broadcasting for element-wise operations
//   - Batched matrix products and inverses over the leading dimension
//   - Backend abstraction, so the same code runs with or without autodiff
//
// # Basic Usage
//
//	import (
//	    "github.com/uberstig/gpytorch/backend/cpu"
//	    "github.com/uberstig/gpytorch/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    k, _ := tensor.FromSlice([]float64{2, 1, 1, 3}, tensor.Shape{2, 2}, backend)
//	    y := tensor.Ones[float64](tensor.Shape{2}, backend)
//
//	    x := k.Inverse().MatMul(y) // dense reference solve
//	}
//
// # Broadcasting
//
// Element-wise operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros[float64](tensor.Shape{3, 1}, backend)     // (3, 1)
//	b := tensor.Ones[float64](tensor.Shape{3, 4}, backend)      // (3, 4)
//	c := a.Add(b)                                                // (3, 4)
//
// # Memory
//
// Backends never write their inputs. RawTensor views made with Clone or
// WithShape share a buffer, and Set and Data expose it directly, so they are
// meant for freshly created tensors.
package tensor

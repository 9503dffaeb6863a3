// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient-based optimizers for tensors that feed a
// differentiable solve.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
// Fit a per-point noise vector so that the kernel ridge predictor
// K_val (K + diag(noise))⁻¹ y matches held-out targets:
//
//	backend := autodiff.New(cpu.New())
//	noise := tensor.Full[float64](tensor.Shape{n}, 0.5, backend)
//	optimizer := optim.NewAdam([]*tensor.Tensor[float64, *autodiff.Backend[*cpu.Backend]]{noise},
//	    optim.AdamConfig{LR: 0.05})
//
//	for range steps {
//	    backend.Tape().Clear()
//	    backend.Tape().StartRecording()
//
//	    k, _ := lazy.AddDiag(kernel, noise)
//	    alpha, _ := lazy.InvMatmul(k, y)
//	    resid := kVal.MatMul(alpha).Sub(yVal)
//	    loss := resid.Mul(resid).Sum()
//
//	    grads := autodiff.Backward(loss, backend)
//	    optimizer.Step(grads)
//	}
package optim

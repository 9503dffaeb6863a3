// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/uberstig/gpytorch/internal/optim"
	"github.com/uberstig/gpytorch/tensor"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Config represents the base configuration for optimizers.
type Config = optim.Config

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD optimizer with optional momentum.
type SGD[T tensor.DType, B tensor.Backend] = optim.SGD[T, B]

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer over params.
//
// Example:
//
//	optimizer := optim.NewSGD(
//	    []*tensor.Tensor[float64, B]{noise},
//	    optim.SGDConfig{
//	        LR:       0.01,
//	        Momentum: 0.9,
//	    },
//	)
func NewSGD[T tensor.DType, B tensor.Backend](params []*tensor.Tensor[T, B], config SGDConfig) *SGD[T, B] {
	return optim.NewSGD(params, config)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam optimizer.
type Adam[T tensor.DType, B tensor.Backend] = optim.Adam[T, B]

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	optimizer := optim.NewAdam(
//	    []*tensor.Tensor[float64, B]{noise},
//	    optim.AdamConfig{
//	        LR:    0.01,
//	        Betas: [2]float64{0.9, 0.999},
//	    },
//	)
func NewAdam[T tensor.DType, B tensor.Backend](params []*tensor.Tensor[T, B], config AdamConfig) *Adam[T, B] {
	return optim.NewAdam(params, config)
}

// Package optim implements gradient-based optimizers for the leaf tensors of
// a differentiable computation, such as the noise or kernel entries fed to
// lazy.InvMatmul.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Parameters are plain tensors updated in place. Moment and velocity state is
// kept in float64 regardless of the parameter dtype.
//
// Example usage:
//
//	noise := tensor.Full[float64](tensor.Shape{n}, 0.1, backend)
//	optimizer := optim.NewAdam([]*tensor.Tensor[float64, B]{noise}, optim.AdamConfig{LR: 0.01})
//
//	for range steps {
//	    backend.Tape().Clear()
//	    backend.Tape().StartRecording()
//	    loss := objective(noise)
//	    grads := autodiff.Backward(loss, backend)
//	    optimizer.Step(grads)
//	}
package optim

import (
	"github.com/uberstig/gpytorch/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to all parameters.
	//
	// Takes a gradient map from Backward() and updates parameters in-place.
	// Parameters missing from the map are left untouched.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears the gradient attached to every parameter.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float64
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// getGradient returns the gradient recorded for param, or nil if param
// was not part of the computation.
func getGradient[T tensor.DType, B tensor.Backend](param *tensor.Tensor[T, B], grads map[*tensor.RawTensor]*tensor.RawTensor) []float64 {
	if param == nil {
		return nil
	}
	grad, ok := grads[param.Raw()]
	if !ok || grad == nil {
		return nil
	}
	return grad.Float64s()
}

func zeroGrads[T tensor.DType, B tensor.Backend](params []*tensor.Tensor[T, B]) {
	for _, p := range params {
		p.SetGrad(nil)
	}
}

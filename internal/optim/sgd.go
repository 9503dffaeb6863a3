package optim

import (
	"fmt"

	"github.com/uberstig/gpytorch/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD[T tensor.DType, B tensor.Backend] struct {
	params     []*tensor.Tensor[T, B]
	lr         float64
	momentum   float64
	velocities map[*tensor.Tensor[T, B]][]float64
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	sgd := optim.NewSGD(params, optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
func NewSGD[T tensor.DType, B tensor.Backend](params []*tensor.Tensor[T, B], config SGDConfig) *SGD[T, B] {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD[T, B]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*tensor.Tensor[T, B]][]float64),
	}
}

// Step performs a single optimization step.
//
// Parameters with no gradient (not in computational graph) are skipped.
func (s *SGD[T, B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		update := grad
		if s.momentum != 0 {
			velocity, ok := s.velocities[param]
			if !ok {
				velocity = make([]float64, len(grad))
				s.velocities[param] = velocity
			}
			// velocity = momentum * velocity + grad
			for i, g := range grad {
				velocity[i] = s.momentum*velocity[i] + g
			}
			update = velocity
		}

		values := param.Raw().Float64s()
		for i := range values {
			values[i] -= s.lr * update[i]
		}
		param.Raw().SetFloat64s(values)
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD[T, B]) ZeroGrad() {
	zeroGrads(s.params)
}

// GetLR returns the current learning rate.
func (s *SGD[T, B]) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD[T, B]) SetLR(lr float64) {
	s.lr = lr
}

// StateDict returns the optimizer state for serialization.
//
// For SGD with momentum, this exports velocity buffers for each parameter as
// float64 tensors. Without momentum, returns an empty map.
//
// State keys: "velocity.{param_index}" -> velocity tensor.
func (s *SGD[T, B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	if s.momentum == 0 {
		return stateDict
	}

	for i, param := range s.params {
		velocity, ok := s.velocities[param]
		if !ok {
			continue
		}
		raw := tensor.MustNewRaw(param.Shape(), tensor.Float64, tensor.CPU)
		raw.SetFloat64s(velocity)
		stateDict[fmt.Sprintf("velocity.%d", i)] = raw
	}
	return stateDict
}

// LoadStateDict restores velocity buffers saved by StateDict.
//
// Returns an error if velocity shapes don't match parameter shapes.
func (s *SGD[T, B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if s.momentum == 0 {
		return nil
	}

	velocities := make(map[*tensor.Tensor[T, B]][]float64)
	for i, param := range s.params {
		raw, ok := stateDict[fmt.Sprintf("velocity.%d", i)]
		if !ok {
			continue
		}
		if !raw.Shape().Equal(param.Shape()) {
			return fmt.Errorf("velocity shape mismatch for parameter %d: expected %v, got %v",
				i, param.Shape(), raw.Shape())
		}
		velocities[param] = raw.Float64s()
	}
	s.velocities = velocities
	return nil
}

package autodiff

import (
	"fmt"

	"github.com/uberstig/gpytorch/internal/tensor"
)

// Gradients maps each tensor reached by a backward pass to its gradient.
type Gradients map[*tensor.RawTensor]*tensor.RawTensor

// BackwardCapable is an interface for backends that support backward pass.
// AutodiffBackend implements this interface.
type BackwardCapable interface {
	tensor.Backend
	// GetTape returns the gradient tape for backward computation.
	GetTape() *GradientTape
}

// GetTape returns the gradient tape (implements BackwardCapable interface).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward computes gradients of t seeded with ones.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x := tensor.Ones[float32](Shape{2}, backend)
//	y := x.Mul(x).Sum() // y = Σx²
//	gradients := autodiff.Backward(y, backend)
//	grad := gradients[x.Raw()] // 2x
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) Gradients {
	seed := tensor.Ones[T](t.Shape(), backend)
	return BackwardWithGrad(t, seed, backend)
}

// BackwardWithGrad computes gradients of t seeded with an explicit upstream
// gradient, the vector in a vector-Jacobian product. grad must have t's shape.
func BackwardWithGrad[T tensor.DType, B BackwardCapable](t, grad *tensor.Tensor[T, B], backend B) Gradients {
	tape := backend.GetTape()

	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}
	if !grad.Shape().Equal(t.Shape()) {
		panic(fmt.Sprintf("backward: gradient shape %v does not match output shape %v", grad.Shape(), t.Shape()))
	}

	return tape.Backward(t.Raw(), grad.Raw(), backend)
}

// GradOf returns the gradient of t as a tensor on the same backend, or nil
// if no gradient reached it.
func GradOf[T tensor.DType, B tensor.Backend](grads Gradients, t *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	raw, ok := grads[t.Raw()]
	if !ok {
		return nil
	}
	return tensor.New[T, B](raw, t.Backend())
}

// Paused runs fn with recording suspended on backend's tape and restores the
// previous state afterwards. Custom operations use it to compute their
// forward pass without recording the arithmetic inside.
func Paused(backend BackwardCapable, fn func()) {
	tape := backend.GetTape()
	wasRecording := tape.IsRecording()
	tape.StopRecording()
	defer func() {
		if wasRecording {
			tape.StartRecording()
		}
	}()
	fn()
}

// NoGrad runs fn without recording operations on this backend's tape.
func (b *AutodiffBackend[B]) NoGrad(fn func()) {
	Paused(b, fn)
}

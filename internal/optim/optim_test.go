package optim_test

import (
	"math"
	"testing"

	"github.com/uberstig/gpytorch/internal/autodiff"
	"github.com/uberstig/gpytorch/internal/backend/cpu"
	"github.com/uberstig/gpytorch/internal/optim"
	"github.com/uberstig/gpytorch/internal/tensor"
)

type testBackend = autodiff.AutodiffBackend[*cpu.CPUBackend]

// Helper to check float equality with tolerance.
func floatEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func param(t *testing.T, backend *testBackend, values ...float32) *tensor.Tensor[float32, *testBackend] {
	t.Helper()
	x, err := tensor.FromSlice(values, tensor.Shape{len(values)}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	return x
}

func gradOf(x *tensor.Tensor[float32, *testBackend], values ...float64) map[*tensor.RawTensor]*tensor.RawTensor {
	grad := tensor.MustNewRaw(x.Shape(), tensor.Float32, tensor.CPU)
	grad.SetFloat64s(values)
	return map[*tensor.RawTensor]*tensor.RawTensor{x.Raw(): grad}
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := param(t, backend, 2.0)

	optimizer := optim.NewSGD([]*tensor.Tensor[float32, *testBackend]{x}, optim.SGDConfig{LR: 0.1})
	optimizer.Step(gradOf(x, 1.0))

	// Expected: x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0 = 1.9
	if got := float64(x.Data()[0]); !floatEqual(got, 1.9, 1e-6) {
		t.Errorf("SGD update: got %f, want 1.9", got)
	}
}

// TestSGD_WithMomentum tests SGD with momentum.
func TestSGD_WithMomentum(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := param(t, backend, 1.0)

	optimizer := optim.NewSGD([]*tensor.Tensor[float32, *testBackend]{x},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9},
	)

	// v_1 = 1.0, x_1 = 1.0 - 0.1 * 1.0 = 0.9
	optimizer.Step(gradOf(x, 1.0))
	if got := float64(x.Data()[0]); !floatEqual(got, 0.9, 1e-6) {
		t.Errorf("SGD momentum step 1: got %f, want 0.9", got)
	}

	// v_2 = 0.9 * 1.0 + 1.0 = 1.9, x_2 = 0.9 - 0.1 * 1.9 = 0.71
	optimizer.Step(gradOf(x, 1.0))
	if got := float64(x.Data()[0]); !floatEqual(got, 0.71, 1e-5) {
		t.Errorf("SGD momentum step 2: got %f, want 0.71", got)
	}
}

// TestSGD_StateDict tests that velocities survive a save and restore.
func TestSGD_StateDict(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := param(t, backend, 1.0, 1.0)
	cfg := optim.SGDConfig{LR: 0.1, Momentum: 0.9}

	first := optim.NewSGD([]*tensor.Tensor[float32, *testBackend]{x}, cfg)
	first.Step(gradOf(x, 1.0, 2.0))
	state := first.StateDict()
	if len(state) != 1 {
		t.Fatalf("StateDict: got %d entries, want 1", len(state))
	}

	y := param(t, backend, 0.9, 0.8)
	second := optim.NewSGD([]*tensor.Tensor[float32, *testBackend]{y}, cfg)
	if err := second.LoadStateDict(state); err != nil {
		t.Fatalf("LoadStateDict failed: %v", err)
	}

	first.Step(gradOf(x, 1.0, 2.0))
	second.Step(gradOf(y, 1.0, 2.0))
	for i := range 2 {
		if !floatEqual(float64(x.Data()[i]), float64(y.Data()[i]), 1e-6) {
			t.Errorf("restored optimizer diverged at %d: got %f, want %f", i, y.Data()[i], x.Data()[i])
		}
	}

	bad := optim.NewSGD([]*tensor.Tensor[float32, *testBackend]{param(t, backend, 1.0)}, cfg)
	if err := bad.LoadStateDict(state); err == nil {
		t.Error("LoadStateDict accepted a velocity of the wrong shape")
	}
}

// TestSGD_ZeroGrad tests ZeroGrad method.
func TestSGD_ZeroGrad(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := param(t, backend, 1.0)
	x.SetGrad(param(t, backend, 5.0))

	optimizer := optim.NewSGD([]*tensor.Tensor[float32, *testBackend]{x}, optim.SGDConfig{LR: 0.1})
	optimizer.ZeroGrad()

	if x.Grad() != nil {
		t.Error("Grad should be nil after ZeroGrad")
	}
}

// TestSGD_GetSetLR tests learning rate getter/setter.
func TestSGD_GetSetLR(t *testing.T) {
	backend := autodiff.New(cpu.New())
	var optimizer optim.Optimizer = optim.NewSGD([]*tensor.Tensor[float32, *testBackend]{param(t, backend, 1.0)},
		optim.SGDConfig{LR: 0.01},
	)

	if optimizer.GetLR() != 0.01 {
		t.Errorf("GetLR: got %f, want 0.01", optimizer.GetLR())
	}

	optimizer.(*optim.SGD[float32, *testBackend]).SetLR(0.001)
	if optimizer.GetLR() != 0.001 {
		t.Errorf("GetLR after SetLR: got %f, want 0.001", optimizer.GetLR())
	}
}

// TestAdam_SimpleUpdate tests Adam optimizer update.
func TestAdam_SimpleUpdate(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := param(t, backend, 1.0)

	optimizer := optim.NewAdam([]*tensor.Tensor[float32, *testBackend]{x}, optim.AdamConfig{
		LR:    0.001,
		Betas: [2]float64{0.9, 0.999},
		Eps:   1e-8,
	})
	optimizer.Step(gradOf(x, 1.0))

	// m_hat = v_hat = 1.0 after bias correction, so x = 1.0 - 0.001
	if got := float64(x.Data()[0]); !floatEqual(got, 0.999, 1e-5) {
		t.Errorf("Adam first step: got %f, want 0.999", got)
	}
}

// TestAdam_BiasCorrection tests that Adam applies bias correction correctly.
func TestAdam_BiasCorrection(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := param(t, backend, 1.0)

	optimizer := optim.NewAdam([]*tensor.Tensor[float32, *testBackend]{x}, optim.AdamConfig{LR: 0.01})
	if optimizer.GetTimestep() != 0 {
		t.Errorf("Initial timestep: got %d, want 0", optimizer.GetTimestep())
	}

	for i := 1; i <= 3; i++ {
		optimizer.Step(gradOf(x, 1.0))
		if optimizer.GetTimestep() != i {
			t.Errorf("After step %d, timestep: got %d, want %d", i, optimizer.GetTimestep(), i)
		}
	}

	// A constant gradient moves the parameter by lr each step.
	if got := float64(x.Data()[0]); !floatEqual(got, 0.97, 1e-5) {
		t.Errorf("After 3 Adam steps: got %f, want 0.97", got)
	}
}

// TestAdam_SkipsMissingGradients tests that parameters outside the graph stay put.
func TestAdam_SkipsMissingGradients(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := param(t, backend, 1.0)
	y := param(t, backend, 2.0)

	optimizer := optim.NewAdam([]*tensor.Tensor[float32, *testBackend]{x, y}, optim.AdamConfig{LR: 0.1})
	optimizer.Step(gradOf(x, 1.0))

	if got := y.Data()[0]; got != 2.0 {
		t.Errorf("parameter without gradient changed: got %f, want 2", got)
	}
}

// TestConvergence_SimpleQuadratic tests optimizer convergence on f(x) = sum(x²)
// with gradients from the tape.
func TestConvergence_SimpleQuadratic(t *testing.T) {
	tests := []struct {
		name string
		new  func(params []*tensor.Tensor[float64, *testBackend]) optim.Optimizer
	}{
		{"SGD", func(p []*tensor.Tensor[float64, *testBackend]) optim.Optimizer {
			return optim.NewSGD(p, optim.SGDConfig{LR: 0.1, Momentum: 0.9})
		}},
		{"Adam", func(p []*tensor.Tensor[float64, *testBackend]) optim.Optimizer {
			return optim.NewAdam(p, optim.AdamConfig{LR: 0.1})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := autodiff.New(cpu.New())
			x, err := tensor.FromSlice([]float64{3.0, -2.0}, tensor.Shape{2}, backend)
			if err != nil {
				t.Fatal(err)
			}
			optimizer := tt.new([]*tensor.Tensor[float64, *testBackend]{x})

			for range 200 {
				backend.Tape().Clear()
				backend.Tape().StartRecording()
				loss := x.Mul(x).Sum()
				grads := autodiff.Backward(loss, backend)
				backend.Tape().StopRecording()
				optimizer.Step(grads)
			}

			for i, v := range x.Data() {
				if math.Abs(v) > 0.1 {
					t.Errorf("%s convergence: x[%d] = %f, expected close to 0", tt.name, i, v)
				}
			}
		})
	}
}

// TestMultipleParameters tests optimizers with multiple parameters.
func TestMultipleParameters(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x1 := param(t, backend, 1.0, 2.0)
	x2 := param(t, backend, 3.0)

	optimizer := optim.NewSGD([]*tensor.Tensor[float32, *testBackend]{x1, x2}, optim.SGDConfig{LR: 0.1})

	grads := gradOf(x1, 1.0, 2.0)
	for k, v := range gradOf(x2, 0.5) {
		grads[k] = v
	}
	optimizer.Step(grads)

	// [1.0, 2.0] - 0.1 * [1.0, 2.0] = [0.9, 1.8]
	p1 := x1.Data()
	if !floatEqual(float64(p1[0]), 0.9, 1e-6) || !floatEqual(float64(p1[1]), 1.8, 1e-6) {
		t.Errorf("param1: got [%f, %f], want [0.9, 1.8]", p1[0], p1[1])
	}
	// 3.0 - 0.1 * 0.5 = 2.95
	if got := float64(x2.Data()[0]); !floatEqual(got, 2.95, 1e-6) {
		t.Errorf("param2: got %f, want 2.95", got)
	}
}

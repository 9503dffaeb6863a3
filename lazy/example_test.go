// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package lazy_test

import (
	"fmt"

	"github.com/uberstig/gpytorch/autodiff"
	"github.com/uberstig/gpytorch/backend/cpu"
	"github.com/uberstig/gpytorch/lazy"
	"github.com/uberstig/gpytorch/tensor"
)

func ExampleInvMatmul() {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	d, _ := tensor.FromSlice([]float64{2, 4}, tensor.Shape{2}, backend)
	rhs, _ := tensor.FromSlice([]float64{2, 2}, tensor.Shape{2}, backend)

	k, _ := lazy.NewDiag(d)
	x, err := k.InvMatmul(rhs)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("x = [%.3f %.3f]\n", x.At(0), x.At(1))

	grads := autodiff.Backward(x, backend)
	dd := autodiff.GradOf(grads, d)
	fmt.Printf("dx/dd = [%.3f %.3f]\n", dd.At(0), dd.At(1))
	// Output:
	// x = [1.000 0.500]
	// dx/dd = [-0.500 -0.125]
}

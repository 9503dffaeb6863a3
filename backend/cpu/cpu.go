// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/uberstig/gpytorch/internal/backend/cpu"
	"github.com/uberstig/gpytorch/internal/parallel"
	"github.com/uberstig/gpytorch/tensor"
)

// Backend represents the CPU backend implementation.
//
// The CPU backend provides pure Go implementations of all tensor operations.
// Batched matrix products and inverses fan out across goroutines.
type Backend = internalcpu.CPUBackend

// ParallelConfig controls how batched kernels fan out across goroutines.
type ParallelConfig = parallel.Config

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend that parallelizes over batch entries.
//
// Example:
//
//	import (
//	    "github.com/uberstig/gpytorch/backend/cpu"
//	    "github.com/uberstig/gpytorch/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float64](tensor.Shape{2, 3}, backend)
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewWithParallel creates a CPU backend with an explicit fan-out policy.
// Use SequentialConfig for deterministic single-goroutine execution.
func NewWithParallel(cfg ParallelConfig) *Backend {
	return internalcpu.NewWithParallel(cfg)
}

// SequentialConfig disables goroutine fan-out.
func SequentialConfig() ParallelConfig {
	return parallel.Sequential()
}

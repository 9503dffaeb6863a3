package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uberstig/gpytorch/internal/serialization"
	"github.com/uberstig/gpytorch/lazy"
	"github.com/uberstig/gpytorch/tensor"
)

func raw64(t *testing.T, shape tensor.Shape, data ...float64) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(shape, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	r.SetFloat64s(data)
	return r
}

func writeProblem(t *testing.T, tensors map[string]*tensor.RawTensor) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "problem.safetensors")
	require.NoError(t, serialization.WriteSafeTensors(path, tensors, nil))
	return path
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"version"}, &out))
	assert.Equal(t, "gpytorch "+version+"\n", out.String())
}

func TestUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"frobnicate"}, &out)
	require.ErrorIs(t, err, errUsage)
	assert.Contains(t, out.String(), "Commands:")
}

func TestSolve(t *testing.T) {
	in := writeProblem(t, map[string]*tensor.RawTensor{
		keyMatrix: raw64(t, tensor.Shape{2, 2}, 4, 1, 1, 3),
		keyRHS:    raw64(t, tensor.Shape{2}, 1, 2),
	})
	out := filepath.Join(t.TempDir(), "solution.safetensors")

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{
		"solve", "-in", in, "-out", out, "-log-level", "warn", "-metrics",
	}, &stdout))

	tensors, metadata, err := serialization.ReadSafeTensors(out)
	require.NoError(t, err)
	require.Contains(t, tensors, keySolution)
	assert.NotContains(t, tensors, keyGradMatrix)
	assert.InDeltaSlice(t, []float64{1.0 / 11, 7.0 / 11}, tensors[keySolution].Float64s(), 1e-9)
	assert.Equal(t, "cg", metadata["method"])
	assert.Equal(t, "true", metadata["converged"])
}

func TestSolveBackward(t *testing.T) {
	in := writeProblem(t, map[string]*tensor.RawTensor{
		keyMatrix: raw64(t, tensor.Shape{2, 2}, 4, 1, 1, 3),
		keyRHS:    raw64(t, tensor.Shape{2}, 1, 2),
		keyNoise:  raw64(t, tensor.Shape{2}, 1, 1),
		keyGrad:   raw64(t, tensor.Shape{2}, 1, 0),
	})
	dir := t.TempDir()
	out := filepath.Join(dir, "solution.safetensors")
	reportPath := filepath.Join(dir, "report.cbor")

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{
		"solve", "-in", in, "-out", out, "-report", reportPath,
		"-method", "cholesky", "-log-level", "warn",
	}, &stdout))

	tensors, metadata, err := serialization.ReadSafeTensors(out)
	require.NoError(t, err)
	assert.Equal(t, "cholesky", metadata["method"])

	// (K + I)^-1 = [[4, -1], [-1, 5]] / 19
	x := []float64{2.0 / 19, 9.0 / 19}
	y := []float64{4.0 / 19, -1.0 / 19}
	assert.InDeltaSlice(t, x, tensors[keySolution].Float64s(), 1e-9)
	assert.InDeltaSlice(t, y, tensors[keyGradRHS].Float64s(), 1e-9)
	assert.InDeltaSlice(t, []float64{
		-y[0] * x[0], -y[0] * x[1],
		-y[1] * x[0], -y[1] * x[1],
	}, tensors[keyGradMatrix].Float64s(), 1e-9)
	assert.InDeltaSlice(t, []float64{-y[0] * x[0], -y[1] * x[1]}, tensors[keyGradNoise].Float64s(), 1e-9)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var report lazy.Report
	require.NoError(t, cbor.Unmarshal(data, &report))
	assert.EqualValues(t, "cholesky", report.Method)
	assert.Equal(t, 1, report.Batch)
	assert.Equal(t, 2, report.N)
	assert.Equal(t, 1, report.Columns)
	assert.True(t, report.Converged)
}

func TestSolveTrace(t *testing.T) {
	in := writeProblem(t, map[string]*tensor.RawTensor{
		keyMatrix: raw64(t, tensor.Shape{1, 2, 2}, 2, 0, 0, 2),
		keyRHS:    raw64(t, tensor.Shape{1, 2, 1}, 2, 4),
	})
	out := filepath.Join(t.TempDir(), "solution.safetensors")

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{
		"solve", "-in", in, "-out", out, "-precond", "jacobi", "-trace", "-log-level", "warn",
	}, &stdout))
	assert.Contains(t, stdout.String(), "gpytorch.solve")
	assert.Contains(t, stdout.String(), "lazy.InvMatmul")

	tensors, _, err := serialization.ReadSafeTensors(out)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2}, tensors[keySolution].Float64s(), 1e-9)
}

func TestSolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		tensors map[string]*tensor.RawTensor
		args    []string
		wantErr error
	}{
		{
			name:    "missing rhs",
			tensors: map[string]*tensor.RawTensor{keyMatrix: raw64(t, tensor.Shape{1, 1}, 1)},
			wantErr: errMissingTensor,
		},
		{
			name: "unknown method",
			tensors: map[string]*tensor.RawTensor{
				keyMatrix: raw64(t, tensor.Shape{1, 1}, 1),
				keyRHS:    raw64(t, tensor.Shape{1}, 1),
			},
			args:    []string{"-method", "lu"},
			wantErr: errUsage,
		},
		{
			name: "unknown preconditioner",
			tensors: map[string]*tensor.RawTensor{
				keyMatrix: raw64(t, tensor.Shape{1, 1}, 1),
				keyRHS:    raw64(t, tensor.Shape{1}, 1),
			},
			args:    []string{"-precond", "ilu"},
			wantErr: errUsage,
		},
		{
			name: "scalar matrix",
			tensors: map[string]*tensor.RawTensor{
				keyMatrix: raw64(t, tensor.Shape{}, 2),
				keyRHS:    raw64(t, tensor.Shape{1}, 1),
			},
			args:    []string{"-method", "cholesky"},
			wantErr: lazy.ErrShapeMismatch,
		},
		{
			name: "shape mismatch",
			tensors: map[string]*tensor.RawTensor{
				keyMatrix: raw64(t, tensor.Shape{2, 2}, 1, 0, 0, 1),
				keyRHS:    raw64(t, tensor.Shape{3}, 1, 2, 3),
			},
			wantErr: lazy.ErrShapeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := writeProblem(t, tt.tensors)
			out := filepath.Join(t.TempDir(), "solution.safetensors")
			args := append([]string{"solve", "-in", in, "-out", out, "-log-level", "error"}, tt.args...)

			var stdout bytes.Buffer
			err := run(context.Background(), args, &stdout)
			require.ErrorIs(t, err, tt.wantErr)
			assert.NoFileExists(t, out)
		})
	}
}

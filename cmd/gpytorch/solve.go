package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fxamacker/cbor/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/uberstig/gpytorch/autodiff"
	"github.com/uberstig/gpytorch/backend/cpu"
	"github.com/uberstig/gpytorch/internal/serialization"
	"github.com/uberstig/gpytorch/lazy"
	"github.com/uberstig/gpytorch/tensor"
)

// Tensor names in problem and solution files.
const (
	keyMatrix     = "matrix"
	keyRHS        = "rhs"
	keyNoise      = "noise"
	keyGrad       = "grad"
	keySolution   = "solution"
	keyGradMatrix = "grad_matrix"
	keyGradRHS    = "grad_rhs"
	keyGradNoise  = "grad_noise"
)

var errMissingTensor = errors.New("missing tensor")

type solveFlags struct {
	in       string
	out      string
	report   string
	method   string
	maxIter  int
	tol      float64
	precond  string
	logLevel string
	trace    bool
	metrics  bool
}

func parseSolveFlags(args []string, stdout io.Writer) (*solveFlags, error) {
	defaults := lazy.DefaultConfig()

	f := &solveFlags{}
	fs := flag.NewFlagSet("solve", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.StringVar(&f.in, "in", "", "Problem file (SafeTensors with matrix, rhs, optional noise and grad)")
	fs.StringVar(&f.out, "out", "", "Solution file to write")
	fs.StringVar(&f.report, "report", "", "Write the solver report as CBOR to this file")
	fs.StringVar(&f.method, "method", "cg", "Solver: cg or cholesky")
	fs.IntVar(&f.maxIter, "max-iter", defaults.MaxIterations, "CG iteration cap")
	fs.Float64Var(&f.tol, "tol", defaults.Tolerance, "CG relative residual tolerance")
	fs.StringVar(&f.precond, "precond", "none", "CG preconditioner: none or jacobi")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.BoolVar(&f.trace, "trace", false, "Export trace spans to stdout")
	fs.BoolVar(&f.metrics, "metrics", false, "Log solver metrics when done")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, errUsage
		}
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if f.in == "" || f.out == "" {
		fs.Usage()
		return nil, fmt.Errorf("%w: -in and -out are required", errUsage)
	}
	if f.method != "cg" && f.method != "cholesky" {
		return nil, fmt.Errorf("%w: unknown method %q", errUsage, f.method)
	}
	return f, nil
}

func runSolve(ctx context.Context, args []string, stdout io.Writer) (err error) {
	f, err := parseSolveFlags(args, stdout)
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(f.logLevel)
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	zerolog.SetGlobalLevel(level)

	if f.trace {
		shutdown, terr := initTracer(stdout)
		if terr != nil {
			return fmt.Errorf("failed to init tracer: %w", terr)
		}
		defer func() {
			if serr := shutdown(context.Background()); serr != nil && err == nil {
				err = fmt.Errorf("failed to flush traces: %w", serr)
			}
		}()
	}

	ctx, span := otel.Tracer("github.com/uberstig/gpytorch/cmd/gpytorch").Start(ctx, "gpytorch.solve")
	defer span.End()
	span.SetAttributes(attribute.String("in", f.in), attribute.String("method", f.method))

	if err := solveFile(ctx, f); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if f.metrics {
		return logMetrics(prometheus.DefaultGatherer)
	}
	return nil
}

type problem struct {
	matrix, rhs, noise, grad *tensor.RawTensor
}

func loadProblem(path string) (problem, error) {
	tensors, _, err := serialization.ReadSafeTensors(path)
	if err != nil {
		return problem{}, err
	}

	p := problem{
		matrix: tensors[keyMatrix],
		rhs:    tensors[keyRHS],
		noise:  tensors[keyNoise],
		grad:   tensors[keyGrad],
	}
	if p.matrix == nil {
		return problem{}, fmt.Errorf("%s: %w %q", path, errMissingTensor, keyMatrix)
	}
	if p.rhs == nil {
		return problem{}, fmt.Errorf("%s: %w %q", path, errMissingTensor, keyRHS)
	}
	if dims := len(p.matrix.Shape()); dims != 2 && dims != 3 {
		return problem{}, fmt.Errorf("%s: %w: matrix must be [n, n] or [b, n, n], got %v",
			path, lazy.ErrShapeMismatch, p.matrix.Shape())
	}
	for name, raw := range tensors {
		if raw.DType() != p.matrix.DType() {
			return problem{}, fmt.Errorf("%s: tensor %q is %s, matrix is %s", path, name, raw.DType(), p.matrix.DType())
		}
	}
	return p, nil
}

func (f *solveFlags) options(p problem) ([]lazy.Option, error) {
	precond, err := lazy.ParsePreconditioner(f.precond)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}

	cholesky := 0
	if f.method == "cholesky" {
		shape := p.matrix.Shape()
		cholesky = shape[len(shape)-1]
	}

	return []lazy.Option{
		lazy.WithMaxIterations(f.maxIter),
		lazy.WithTolerance(f.tol),
		lazy.WithPreconditioner(precond),
		lazy.WithMaxCholeskySize(cholesky),
	}, nil
}

func solveFile(ctx context.Context, f *solveFlags) error {
	p, err := loadProblem(f.in)
	if err != nil {
		return err
	}
	opts, err := f.options(p)
	if err != nil {
		return err
	}

	log.Info().
		Str("in", f.in).
		Interface("matrix", p.matrix.Shape()).
		Interface("rhs", p.rhs.Shape()).
		Str("dtype", p.matrix.DType().String()).
		Bool("noise", p.noise != nil).
		Bool("backward", p.grad != nil).
		Msg("Loaded problem")

	var (
		out    map[string]*tensor.RawTensor
		report lazy.Report
	)
	switch p.matrix.DType() {
	case tensor.Float32:
		out, report, err = solveProblem[float32](ctx, p, opts)
	case tensor.Float64:
		out, report, err = solveProblem[float64](ctx, p, opts)
	default:
		err = fmt.Errorf("unsupported dtype %s", p.matrix.DType())
	}
	if err != nil {
		return err
	}

	log.Info().
		Str("method", string(report.Method)).
		Int("iterations", report.Iterations).
		Float64("residual", report.Residual).
		Bool("converged", report.Converged).
		Msg("Solved")

	metadata := map[string]string{
		"method":     string(report.Method),
		"iterations": strconv.Itoa(report.Iterations),
		"residual":   strconv.FormatFloat(report.Residual, 'g', -1, 64),
		"converged":  strconv.FormatBool(report.Converged),
	}
	if err := serialization.WriteSafeTensors(f.out, out, metadata); err != nil {
		return err
	}
	log.Info().Str("out", f.out).Int("tensors", len(out)).Msg("Wrote solution")

	if f.report != "" {
		if err := writeReport(f.report, report); err != nil {
			return err
		}
	}
	return nil
}

type solveBackend = autodiff.Backend[*cpu.Backend]

// solveProblem runs the solve on an autodiff CPU backend, recording only
// when an upstream gradient asks for a backward pass.
func solveProblem[T tensor.DType](ctx context.Context, p problem, opts []lazy.Option) (map[string]*tensor.RawTensor, lazy.Report, error) {
	backend := autodiff.New(cpu.New())
	if p.grad != nil {
		backend.Tape().StartRecording()
	}

	var report lazy.Report
	opts = append(opts, lazy.WithReport(&report))

	matrix := tensor.New[T](p.matrix, backend)
	rhs := tensor.New[T](p.rhs, backend)

	kernel, err := lazy.NewNonLazy(matrix)
	if err != nil {
		return nil, report, err
	}
	var (
		lt    lazy.LazyTensor[T, *solveBackend] = kernel
		noise *tensor.Tensor[T, *solveBackend]
	)
	if p.noise != nil {
		noise = tensor.New[T](p.noise, backend)
		sum, err := lazy.AddDiag[T, *solveBackend](kernel, noise)
		if err != nil {
			return nil, report, err
		}
		lt = sum
	}

	x, err := lazy.InvMatmulContext[T, *solveBackend](ctx, lt, rhs, opts...)
	if err != nil {
		return nil, report, err
	}

	out := map[string]*tensor.RawTensor{keySolution: x.Raw()}
	if p.grad == nil {
		return out, report, nil
	}

	grad := tensor.New[T](p.grad, backend)
	if !grad.Shape().Equal(x.Shape()) {
		return nil, report, fmt.Errorf("grad shape %v does not match solution shape %v", grad.Shape(), x.Shape())
	}
	grads := autodiff.BackwardWithGrad(x, grad, backend)

	if g := autodiff.GradOf(grads, matrix); g != nil {
		out[keyGradMatrix] = g.Raw()
	}
	if g := autodiff.GradOf(grads, rhs); g != nil {
		out[keyGradRHS] = g.Raw()
	}
	if noise != nil {
		if g := autodiff.GradOf(grads, noise); g != nil {
			out[keyGradNoise] = g.Raw()
		}
	}
	return out, report, nil
}

func writeReport(path string, report lazy.Report) error {
	data, err := cbor.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	log.Info().Str("report", path).Int("bytes", len(data)).Msg("Wrote report")
	return nil
}

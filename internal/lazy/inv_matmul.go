package lazy

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/mat"

	"github.com/uberstig/gpytorch/internal/autodiff"
	"github.com/uberstig/gpytorch/internal/linalg"
	"github.com/uberstig/gpytorch/internal/tensor"
)

var tracer = otel.Tracer("github.com/uberstig/gpytorch/internal/lazy")

// InvMatmul returns K⁻¹ rhs without forming K⁻¹. See InvMatmulContext.
func InvMatmul[T tensor.DType, B tensor.Backend](lt LazyTensor[T, B], rhs *tensor.Tensor[T, B], opts ...Option) (*tensor.Tensor[T, B], error) {
	return InvMatmulContext(context.Background(), lt, rhs, opts...)
}

// InvMatmulContext solves K x = rhs for every batch entry of lt.
//
// rhs is [n] or [n, k] for an unbatched lt and [b, n, k] for a batched one;
// the result has rhs's shape. When lt's backend is recording, the solve is
// recorded as a single operation whose backward pass runs one more solve:
//
//	grad_rhs = K⁻¹ g
//	grad_K   = -(K⁻¹ g)(K⁻¹ rhs)ᵀ, pushed through QuadFormDerivative
//
// ctx bounds the forward solve only. The backward solve reuses the options
// but not the cancellation.
func InvMatmulContext[T tensor.DType, B tensor.Backend](ctx context.Context, lt LazyTensor[T, B], rhs *tensor.Tensor[T, B], opts ...Option) (*tensor.Tensor[T, B], error) {
	o := buildOptions(opts)

	shape, err := solveShape(lt.Shape(), rhs.Shape())
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "lazy.InvMatmul", trace.WithAttributes(
		attribute.String("lazy", fmt.Sprintf("%T", lt)),
		attribute.String("rhs_shape", fmt.Sprint(rhs.Shape())),
	))
	defer span.End()

	backend := lt.Backend()

	var (
		op       linalg.Operator
		solution []*mat.Dense
		report   linalg.Report
	)
	solve := func() {
		op = lt.Operator()
		solution, report, err = linalg.Solve(ctx, op, denseBlocks(rhs.Raw(), shape.batch, shape.n, shape.k), o.cfg)
	}
	// Nothing computed while building the operator belongs on the tape.
	bc, recordable := any(backend).(autodiff.BackwardCapable)
	if recordable {
		autodiff.Paused(bc, solve)
	} else {
		solve()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("inv_matmul: %w", err)
	}
	if o.report != nil {
		*o.report = report
	}

	out := tensor.MustNewRaw(rhs.Shape(), rhs.DType(), rhs.Device())
	fillFromBlocks(out, solution)

	log.Debug().
		Str("method", string(report.Method)).
		Int("iterations", report.Iterations).
		Float64("residual", report.Residual).
		Msg("inv_matmul forward solve")

	if recordable && bc.GetTape().IsRecording() {
		bc.GetTape().Record(&InvMatmulOp[T, B]{
			lazy:   lt,
			op:     op,
			inputs: append(raws(lt.Representation()), rhs.Raw()),
			output: out,
			shape:  shape,
			cfg:    o.cfg,
			ctx:    context.WithoutCancel(ctx),
		})
	}

	return tensor.New[T, B](out, backend), nil
}

// solveLayout is how an rhs maps onto per-entry n×k blocks.
type solveLayout struct {
	batch   int // number of blocks, at least 1
	batched bool
	n, k    int
}

// matShape is the block layout as a tensor shape: [n, k] or [b, n, k].
func (s solveLayout) matShape() tensor.Shape {
	if s.batched {
		return tensor.Shape{s.batch, s.n, s.k}
	}
	return tensor.Shape{s.n, s.k}
}

func solveShape(lt, rhs tensor.Shape) (solveLayout, error) {
	batch, n, err := squareDims(lt)
	if err != nil {
		return solveLayout{}, err
	}
	mismatch := func() (solveLayout, error) {
		return solveLayout{}, fmt.Errorf("inv_matmul: %w: operator %v, rhs %v", ErrShapeMismatch, lt, rhs)
	}

	if batch == 0 {
		switch {
		case len(rhs) == 1 && rhs[0] == n:
			return solveLayout{batch: 1, n: n, k: 1}, nil
		case len(rhs) == 2 && rhs[0] == n:
			return solveLayout{batch: 1, n: n, k: rhs[1]}, nil
		default:
			return mismatch()
		}
	}
	if len(rhs) == 3 && rhs[0] == batch && rhs[1] == n {
		return solveLayout{batch: batch, batched: true, n: n, k: rhs[2]}, nil
	}
	return mismatch()
}

// InvMatmulOp is the recorded form of InvMatmul: output = K⁻¹ rhs.
//
// Inputs are K's representation tensors followed by rhs. Backward solves
// K y = g once more and returns
//   - grad_rhs = y,
//   - the representation gradients QuadFormDerivative(-y, output).
type InvMatmulOp[T tensor.DType, B tensor.Backend] struct {
	lazy   LazyTensor[T, B]
	op     linalg.Operator
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	shape  solveLayout
	cfg    linalg.Config
	ctx    context.Context //nolint:containedctx // trace parent for the backward solve
}

// Backward computes the representation and rhs gradients.
func (o *InvMatmulOp[T, B]) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	s := o.shape
	y, _, err := linalg.Solve(o.ctx, o.op, denseBlocks(outputGrad, s.batch, s.n, s.k), o.cfg)
	if err != nil {
		panic(fmt.Sprintf("inv_matmul backward: %v", err))
	}

	gradRHS := tensor.MustNewRaw(outputGrad.Shape(), o.output.DType(), o.output.Device())
	fillFromBlocks(gradRHS, y)

	left := backend.MulScalar(gradRHS.WithShape(s.matShape()), -1)
	right := o.output.WithShape(s.matShape())
	grads := o.lazy.QuadFormDerivative(left, right, backend)

	return append(grads, gradRHS)
}

// Inputs returns the representation tensors followed by rhs.
func (o *InvMatmulOp[T, B]) Inputs() []*tensor.RawTensor {
	return o.inputs
}

// Output returns K⁻¹ rhs.
func (o *InvMatmulOp[T, B]) Output() *tensor.RawTensor {
	return o.output
}

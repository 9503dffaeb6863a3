package linalg

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/mat"

	"github.com/uberstig/gpytorch/internal/parallel"
)

var tracer = otel.Tracer("github.com/uberstig/gpytorch/internal/linalg")

// Report summarizes a batched solve.
type Report struct {
	Method     Method        `cbor:"method"`
	Batch      int           `cbor:"batch"`
	N          int           `cbor:"n"`
	Columns    int           `cbor:"columns"`
	Iterations int           `cbor:"iterations"` // max over entries
	Residual   float64       `cbor:"residual"`   // max over entries
	Converged  bool          `cbor:"converged"`  // every entry converged
	Entries    []EntryReport `cbor:"entries"`
}

// Solve solves K_i X_i = rhs[i] for every entry of op. Systems of order at
// most cfg.MaxCholeskySize are factored with Cholesky, larger ones go
// through CG. Entries are solved concurrently according to cfg.Parallel.
//
// An entry where CG runs out of iterations is not an error: its last
// iterate is returned, a warning is logged, and the report says so.
func Solve(ctx context.Context, op Operator, rhs []*mat.Dense, cfg Config) ([]*mat.Dense, Report, error) {
	if err := cfg.validate(); err != nil {
		return nil, Report{}, err
	}

	batch, n := op.Dims()
	if batch == 0 || n == 0 {
		return nil, Report{}, ErrEmptyBatch
	}
	if len(rhs) != batch {
		return nil, Report{}, fmt.Errorf("%w: %d right-hand sides for a batch of %d", ErrDimensionMismatch, len(rhs), batch)
	}
	_, k := rhs[0].Dims()
	for i, b := range rhs {
		rows, cols := b.Dims()
		if rows != n || cols != k {
			return nil, Report{}, fmt.Errorf("%w: rhs %d is %dx%d, want %dx%d", ErrDimensionMismatch, i, rows, cols, n, k)
		}
	}

	method := cfg.method(n)
	ctx, span := tracer.Start(ctx, "linalg.Solve", trace.WithAttributes(
		attribute.Int("batch", batch),
		attribute.Int("n", n),
		attribute.Int("k", k),
		attribute.String("method", string(method)),
		attribute.String("preconditioner", cfg.Preconditioner.String()),
	))
	defer span.End()

	out := make([]*mat.Dense, batch)
	entries := make([]EntryReport, batch)
	err := parallel.ForErr(batch, func(i int) error {
		var err error
		if method == MethodCholesky {
			out[i], entries[i], err = CholeskySolve(op, i, rhs[i])
		} else {
			out[i], entries[i], err = CG(ctx, op, i, rhs[i], cfg)
		}
		return err
	}, cfg.Parallel)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, Report{}, err
	}

	report := Report{
		Method:    method,
		Batch:     batch,
		N:         n,
		Columns:   k,
		Converged: true,
		Entries:   entries,
	}
	for i, e := range entries {
		report.Iterations = max(report.Iterations, e.Iterations)
		report.Residual = math.Max(report.Residual, e.Residual)
		report.Converged = report.Converged && e.Converged

		if method != MethodCG {
			continue
		}
		cgIterations.Observe(float64(e.Iterations))
		if !e.Converged {
			cgNotConverged.Inc()
			log.Warn().
				Int("entry", i).
				Int("iterations", e.Iterations).
				Float64("residual", e.Residual).
				Float64("tolerance", cfg.Tolerance).
				Msg("CG reached the iteration limit before converging, returning last iterate")
		}
	}
	solvesTotal.WithLabelValues(string(method)).Inc()

	span.SetAttributes(
		attribute.Int("iterations", report.Iterations),
		attribute.Float64("residual", report.Residual),
		attribute.Bool("converged", report.Converged),
	)

	return out, report, nil
}

package lazy

import "github.com/uberstig/gpytorch/internal/linalg"

// Option configures InvMatmul.
type Option func(*options)

type options struct {
	cfg    linalg.Config
	report *linalg.Report
}

func buildOptions(opts []Option) options {
	o := options{cfg: linalg.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithConfig replaces the whole solver configuration.
func WithConfig(cfg linalg.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithPreconditioner selects the CG preconditioner.
func WithPreconditioner(p linalg.Preconditioner) Option {
	return func(o *options) { o.cfg.Preconditioner = p }
}

// WithMaxIterations caps CG iterations per batch entry.
func WithMaxIterations(n int) Option {
	return func(o *options) { o.cfg.MaxIterations = n }
}

// WithTolerance sets the relative residual at which CG stops.
func WithTolerance(tol float64) Option {
	return func(o *options) { o.cfg.Tolerance = tol }
}

// WithMaxCholeskySize routes systems of order n <= size through Cholesky.
func WithMaxCholeskySize(size int) Option {
	return func(o *options) { o.cfg.MaxCholeskySize = size }
}

// WithReport stores the forward solve's report in dst.
func WithReport(dst *linalg.Report) Option {
	return func(o *options) { o.report = dst }
}

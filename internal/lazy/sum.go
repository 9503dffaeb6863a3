package lazy

import (
	"fmt"

	"github.com/uberstig/gpytorch/internal/linalg"
	"github.com/uberstig/gpytorch/internal/tensor"
)

// SumLazy is the sum of lazy tensors of equal shape.
type SumLazy[T tensor.DType, B tensor.Backend] struct {
	terms []LazyTensor[T, B]
}

// NewSum adds terms, which must all have the same shape.
func NewSum[T tensor.DType, B tensor.Backend](terms ...LazyTensor[T, B]) (*SumLazy[T, B], error) {
	if len(terms) == 0 {
		return nil, ErrNoTerms
	}
	shape := terms[0].Shape()
	for i, term := range terms[1:] {
		if !term.Shape().Equal(shape) {
			return nil, fmt.Errorf("sum: %w: term %d is %v, term 0 is %v", ErrShapeMismatch, i+1, term.Shape(), shape)
		}
	}
	return &SumLazy[T, B]{terms: append([]LazyTensor[T, B](nil), terms...)}, nil
}

// AddDiag returns lt + diag(d). d is [n] for an unbatched lt and [b, n]
// for a batched one.
func AddDiag[T tensor.DType, B tensor.Backend](lt LazyTensor[T, B], d *tensor.Tensor[T, B]) (*SumLazy[T, B], error) {
	diag, err := NewDiag(d)
	if err != nil {
		return nil, err
	}
	return NewSum[T, B](lt, diag)
}

// Shape implements LazyTensor.
func (s *SumLazy[T, B]) Shape() tensor.Shape { return s.terms[0].Shape() }

// Backend implements LazyTensor.
func (s *SumLazy[T, B]) Backend() B { return s.terms[0].Backend() }

// Matmul implements LazyTensor.
func (s *SumLazy[T, B]) Matmul(rhs *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	out := s.terms[0].Matmul(rhs)
	for _, term := range s.terms[1:] {
		out = out.Add(term.Matmul(rhs))
	}
	return out
}

// Evaluate implements LazyTensor.
func (s *SumLazy[T, B]) Evaluate() *tensor.Tensor[T, B] {
	out := s.terms[0].Evaluate()
	for _, term := range s.terms[1:] {
		out = out.Add(term.Evaluate())
	}
	return out
}

// Diag implements LazyTensor.
func (s *SumLazy[T, B]) Diag() *tensor.Tensor[T, B] {
	out := s.terms[0].Diag()
	for _, term := range s.terms[1:] {
		out = out.Add(term.Diag())
	}
	return out
}

// Representation implements LazyTensor: the terms' representations in order.
func (s *SumLazy[T, B]) Representation() []*tensor.Tensor[T, B] {
	var out []*tensor.Tensor[T, B]
	for _, term := range s.terms {
		out = append(out, term.Representation()...)
	}
	return out
}

// QuadFormDerivative implements LazyTensor.
func (s *SumLazy[T, B]) QuadFormDerivative(left, right *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	var out []*tensor.RawTensor
	for _, term := range s.terms {
		out = append(out, term.QuadFormDerivative(left, right, backend)...)
	}
	return out
}

// Operator implements LazyTensor.
func (s *SumLazy[T, B]) Operator() linalg.Operator {
	op := &sumOperator{terms: make([]linalg.Operator, len(s.terms))}
	for i, term := range s.terms {
		op.terms[i] = term.Operator()
	}
	return op
}

// InvMatmul is InvMatmul(s, rhs, opts...).
func (s *SumLazy[T, B]) InvMatmul(rhs *tensor.Tensor[T, B], opts ...Option) (*tensor.Tensor[T, B], error) {
	return InvMatmul[T, B](s, rhs, opts...)
}

package lazy

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/uberstig/gpytorch/internal/linalg"
	"github.com/uberstig/gpytorch/internal/tensor"
)

var (
	_ linalg.Operator  = (*diagOperator)(nil)
	_ linalg.Diagonal  = (*diagOperator)(nil)
	_ linalg.Densifier = (*diagOperator)(nil)
	_ linalg.Operator  = (*sumOperator)(nil)
	_ linalg.Diagonal  = (*sumOperator)(nil)
	_ linalg.Densifier = (*sumOperator)(nil)
	_ linalg.Operator  = (*scaledOperator)(nil)
	_ linalg.Diagonal  = (*scaledOperator)(nil)
	_ linalg.Densifier = (*scaledOperator)(nil)
)

type diagOperator struct {
	n     int
	diags [][]float64
}

func (d *diagOperator) Dims() (int, int) { return len(d.diags), d.n }

func (d *diagOperator) Apply(i int, dst *mat.Dense, x mat.Matrix) {
	dst.Copy(x)
	for r, v := range d.diags[i] {
		floats.Scale(v, dst.RawRowView(r))
	}
}

func (d *diagOperator) Diagonal(i int, dst []float64) { copy(dst, d.diags[i]) }

func (d *diagOperator) Dense(i int) *mat.Dense {
	out := mat.NewDense(d.n, d.n, nil)
	for j, v := range d.diags[i] {
		out.Set(j, j, v)
	}
	return out
}

type sumOperator struct {
	terms []linalg.Operator
}

func (s *sumOperator) Dims() (int, int) { return s.terms[0].Dims() }

func (s *sumOperator) Apply(i int, dst *mat.Dense, x mat.Matrix) {
	rows, cols := x.Dims()
	s.terms[0].Apply(i, dst, x)
	tmp := mat.NewDense(rows, cols, nil)
	for _, term := range s.terms[1:] {
		term.Apply(i, tmp, x)
		dst.Add(dst, tmp)
	}
}

func (s *sumOperator) Diagonal(i int, dst []float64) {
	copy(dst, linalg.DiagonalOf(s.terms[0], i))
	for _, term := range s.terms[1:] {
		floats.Add(dst, linalg.DiagonalOf(term, i))
	}
}

func (s *sumOperator) Dense(i int) *mat.Dense {
	out := mat.DenseCopyOf(linalg.DenseOf(s.terms[0], i))
	for _, term := range s.terms[1:] {
		out.Add(out, linalg.DenseOf(term, i))
	}
	return out
}

type scaledOperator struct {
	inner linalg.Operator
	scale float64
}

func (s *scaledOperator) Dims() (int, int) { return s.inner.Dims() }

func (s *scaledOperator) Apply(i int, dst *mat.Dense, x mat.Matrix) {
	s.inner.Apply(i, dst, x)
	dst.Scale(s.scale, dst)
}

func (s *scaledOperator) Diagonal(i int, dst []float64) {
	copy(dst, linalg.DiagonalOf(s.inner, i))
	floats.Scale(s.scale, dst)
}

func (s *scaledOperator) Dense(i int) *mat.Dense {
	var out mat.Dense
	out.Scale(s.scale, linalg.DenseOf(s.inner, i))
	return &out
}

// denseBlocks splits a contiguous [batch, rows, cols] buffer into float64
// matrices. The values are copied.
func denseBlocks(raw *tensor.RawTensor, batch, rows, cols int) []*mat.Dense {
	values := raw.Float64s()
	out := make([]*mat.Dense, batch)
	size := rows * cols
	for i := range out {
		out[i] = mat.NewDense(rows, cols, values[i*size:(i+1)*size])
	}
	return out
}

// fillFromBlocks writes mats back into raw in row-major batch order.
func fillFromBlocks(raw *tensor.RawTensor, mats []*mat.Dense) {
	values := make([]float64, 0, raw.NumElements())
	for _, m := range mats {
		rows, _ := m.Dims()
		for r := 0; r < rows; r++ {
			values = append(values, m.RawRowView(r)...)
		}
	}
	raw.SetFloat64s(values)
}

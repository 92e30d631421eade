package sparse

import (
	"github.com/tevino/abool"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// Problem is a training set of L sparse rows over N features.
//
// Every X[i] is a view into one contiguous arena owned by the Problem. When Bias >= 0
// each row ends with a bias node whose index is N, the last feature column.
type Problem struct {
	L    int
	N    int
	Bias float64
	Y    []float64
	X    []Vector

	space    []Node
	released abool.AtomicBool
}

// NewProblem converts a dense row-major numData x numFeat matrix into a Problem.
//
// Every column yields a node, zero or not. A bias >= 0 appends a constant feature
// at index numFeat+1; a negative bias disables it.
func NewProblem(data, labels []float64, numData, numFeat int, bias float64) (*Problem, error) {
	if numData < 0 {
		return nil, errors.NewValidationError("num_data", "must be non-negative", numData)
	}
	if numFeat < 0 {
		return nil, errors.NewValidationError("num_feat", "must be non-negative", numFeat)
	}
	if len(labels) != numData {
		return nil, errors.NewDimensionError("sparse.NewProblem", numData, len(labels), 0)
	}
	if len(data) != numData*numFeat {
		return nil, errors.NewDimensionError("sparse.NewProblem", numData*numFeat, len(data), 1)
	}

	prob := &Problem{
		L:    numData,
		N:    numFeat,
		Bias: bias,
		Y:    append([]float64(nil), labels...),
		X:    make([]Vector, numData),
	}
	if bias >= 0 {
		prob.N = numFeat + 1
	}

	// One slot per column, the bias slot and the sentinel.
	stride := numFeat + 2
	prob.space = make([]Node, 0, numData*stride)
	for i := 0; i < numData; i++ {
		start := i * stride
		prob.space = AppendDense(prob.space, data[i*numFeat:(i+1)*numFeat], bias, prob.N)
		prob.space = prob.space[:start+stride]
		rowLen := numFeat + 1
		if bias >= 0 {
			rowLen++
		}
		prob.X[i] = prob.space[start : start+rowLen : start+rowLen]
	}

	if bias >= 0 {
		for i := 0; i < numData; i++ {
			prob.X[i][numFeat].Index = prob.N
		}
	}
	return prob, nil
}

// NewProblemFromMatrix builds a Problem from a gonum matrix, omitting zero entries.
func NewProblemFromMatrix(X mat.Matrix, y []float64, bias float64) (*Problem, error) {
	rows, cols := X.Dims()
	if len(y) != rows {
		return nil, errors.NewDimensionError("sparse.NewProblemFromMatrix", rows, len(y), 0)
	}

	nnz := 0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if X.At(i, j) != 0 {
				nnz++
			}
		}
	}

	prob := &Problem{
		L:    rows,
		N:    cols,
		Bias: bias,
		Y:    append([]float64(nil), y...),
		X:    make([]Vector, rows),
	}
	perRow := 1
	if bias >= 0 {
		prob.N = cols + 1
		perRow = 2
	}

	prob.space = make([]Node, 0, nnz+rows*perRow)
	for i := 0; i < rows; i++ {
		start := len(prob.space)
		for j := 0; j < cols; j++ {
			if v := X.At(i, j); v != 0 {
				prob.space = append(prob.space, Node{Index: j + 1, Value: v})
			}
		}
		if bias >= 0 {
			prob.space = append(prob.space, Node{Index: prob.N, Value: bias})
		}
		prob.space = append(prob.space, Node{Index: Sentinel})
		end := len(prob.space)
		prob.X[i] = prob.space[start:end:end]
	}
	return prob, nil
}

// NewProblemFromRows copies already sparse rows over n features into a new arena.
func NewProblemFromRows(rows []Vector, y []float64, n int, bias float64) (*Problem, error) {
	if len(rows) != len(y) {
		return nil, errors.NewDimensionError("sparse.NewProblemFromRows", len(rows), len(y), 0)
	}
	if n < 0 {
		return nil, errors.NewValidationError("n", "must be non-negative", n)
	}

	total := 0
	for i, row := range rows {
		if err := ValidateVector(row); err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		if row.MaxIndex() > n {
			return nil, errors.NewDimensionError("sparse.NewProblemFromRows", n, row.MaxIndex(), 1)
		}
		total += row.Len() + 2
	}

	prob := &Problem{
		L:     len(rows),
		N:     n,
		Bias:  bias,
		Y:     append([]float64(nil), y...),
		X:     make([]Vector, len(rows)),
		space: make([]Node, 0, total),
	}
	if bias >= 0 {
		prob.N = n + 1
	}
	for i, row := range rows {
		start := len(prob.space)
		prob.space = append(prob.space, row[:row.Len()]...)
		if bias >= 0 {
			prob.space = append(prob.space, Node{Index: prob.N, Value: bias})
		}
		prob.space = append(prob.space, Node{Index: Sentinel})
		end := len(prob.space)
		prob.X[i] = prob.space[start:end:end]
	}
	return prob, nil
}

// Validate checks row count consistency and that every row is a valid vector within N.
func (p *Problem) Validate() error {
	if p.Released() {
		return errors.NewModelError("sparse.Problem", "use after release", errors.ErrReleased)
	}
	if len(p.X) != p.L || len(p.Y) != p.L {
		return errors.NewDimensionError("sparse.Problem", p.L, len(p.Y), 0)
	}
	for i, row := range p.X {
		if err := ValidateVector(row); err != nil {
			return errors.Wrapf(err, "row %d", i)
		}
		if row.MaxIndex() > p.N {
			return errors.NewDimensionError("sparse.Problem", p.N, row.MaxIndex(), 1)
		}
	}
	return nil
}

// Subset returns a problem over the selected rows. Rows share this problem's arena.
func (p *Problem) Subset(idx []int) *Problem {
	sub := &Problem{
		L:     len(idx),
		N:     p.N,
		Bias:  p.Bias,
		Y:     make([]float64, len(idx)),
		X:     make([]Vector, len(idx)),
		space: p.space,
	}
	for k, i := range idx {
		sub.X[k] = p.X[i]
		sub.Y[k] = p.Y[i]
	}
	return sub
}

// Release drops the arena. A second call is a no-op.
func (p *Problem) Release() {
	if p.released.SetToIf(false, true) {
		p.space = nil
		p.X = nil
		p.Y = nil
	}
}

// Released reports whether Release has been called.
func (p *Problem) Released() bool {
	return p.released.IsSet()
}

// Package sparse holds the sentinel-terminated sparse vectors and the arena-backed
// training problem consumed by the linear solvers.
package sparse

import (
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// Sentinel is the index that terminates every Vector.
const Sentinel = -1

// Node is one (index, value) entry of a sparse vector. Indices are 1-based.
type Node struct {
	Index int
	Value float64
}

// Vector is a sparse feature vector terminated by a Sentinel node.
// Indices before the sentinel are strictly increasing.
type Vector []Node

// Len returns the number of entries before the sentinel.
func (v Vector) Len() int {
	for i, nd := range v {
		if nd.Index == Sentinel {
			return i
		}
	}
	return len(v)
}

// MaxIndex returns the largest index before the sentinel, or 0 for an empty vector.
func (v Vector) MaxIndex() int {
	n := v.Len()
	if n == 0 {
		return 0
	}
	return v[n-1].Index
}

// NewVector builds a sentinel-terminated vector from parallel index/value slices.
func NewVector(indices []int, values []float64) (Vector, error) {
	if len(indices) != len(values) {
		return nil, errors.NewDimensionError("sparse.NewVector", len(indices), len(values), 1)
	}
	v := make(Vector, 0, len(indices)+1)
	for i, idx := range indices {
		v = append(v, Node{Index: idx, Value: values[i]})
	}
	v = append(v, Node{Index: Sentinel})
	if err := ValidateVector(v); err != nil {
		return nil, err
	}
	return v, nil
}

// ValidateVector checks sentinel termination and strictly increasing indices >= 1.
func ValidateVector(v Vector) error {
	prev := 0
	for pos, nd := range v {
		if nd.Index == Sentinel {
			return nil
		}
		if nd.Index <= prev {
			return errors.NewValidationError("index",
				"sparse indices must be >= 1 and strictly increasing", map[string]int{"position": pos, "index": nd.Index})
		}
		prev = nd.Index
	}
	return errors.NewValidationError("sentinel", "sparse vector is not terminated by index -1", len(v))
}

// AppendDense appends one node per entry of values using 1-based indices, zeros included,
// then a bias node at biasIndex when bias >= 0, then the sentinel.
func AppendDense(dst []Node, values []float64, bias float64, biasIndex int) []Node {
	for j, val := range values {
		dst = append(dst, Node{Index: j + 1, Value: val})
	}
	if bias >= 0 {
		dst = append(dst, Node{Index: biasIndex, Value: bias})
	}
	return append(dst, Node{Index: Sentinel})
}

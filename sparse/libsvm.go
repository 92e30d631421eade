package sparse

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// maxLineBytes bounds a single data line.
const maxLineBytes = 64 << 20

// ReadLibSVM parses the LIBSVM text format, one example per line:
//
//	<label> <index>:<value> <index>:<value> ...
//
// Indices are 1-based and strictly increasing within a line. N is the largest
// index seen; a bias >= 0 appends the bias node at index N+1 to every row.
// Blank lines are skipped.
func ReadLibSVM(r io.Reader, bias float64) (*Problem, error) {
	const op = "sparse.ReadLibSVM"
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		y       []float64
		space   []Node
		offsets []int
		maxIdx  int
	)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		label, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errors.NewValueError(op, fmt.Sprintf("line %d: invalid label %q", line, fields[0]))
		}

		offsets = append(offsets, len(space))
		prev := 0
		for _, f := range fields[1:] {
			idxText, valText, ok := strings.Cut(f, ":")
			if !ok {
				return nil, errors.NewValueError(op, fmt.Sprintf("line %d: expected index:value, got %q", line, f))
			}
			idx, err := strconv.Atoi(idxText)
			if err != nil || idx <= prev {
				return nil, errors.NewValueError(op,
					fmt.Sprintf("line %d: index %q must be a positive integer above %d", line, idxText, prev))
			}
			val, err := strconv.ParseFloat(valText, 64)
			if err != nil {
				return nil, errors.NewValueError(op, fmt.Sprintf("line %d: invalid value %q", line, valText))
			}
			space = append(space, Node{Index: idx, Value: val})
			prev = idx
		}
		maxIdx = max(maxIdx, prev)
		if bias >= 0 {
			// index は全行を読んだ後に N で埋める
			space = append(space, Node{Value: bias})
		}
		space = append(space, Node{Index: Sentinel})
		y = append(y, label)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, op)
	}

	prob := &Problem{
		L:     len(y),
		N:     maxIdx,
		Bias:  bias,
		Y:     y,
		X:     make([]Vector, len(y)),
		space: space,
	}
	if bias >= 0 {
		prob.N = maxIdx + 1
	}
	for i := range offsets {
		end := len(space)
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		row := space[offsets[i]:end:end]
		if bias >= 0 {
			row[len(row)-2].Index = prob.N
		}
		prob.X[i] = row
	}
	return prob, nil
}

// ReadLibSVMFile reads a LIBSVM-format file.
func ReadLibSVMFile(path string, bias float64) (*Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "sparse.ReadLibSVMFile %s", path)
	}
	defer f.Close()
	return ReadLibSVM(f, bias)
}

// WriteLibSVM writes prob in the LIBSVM text format. The bias node is not
// written, so reading the output back with the same bias rebuilds the problem.
func WriteLibSVM(w io.Writer, prob *Problem) error {
	if prob.Released() {
		return errors.NewModelError("sparse.WriteLibSVM", "problem used after release", errors.ErrReleased)
	}
	bw := bufio.NewWriter(w)
	biasIndex := -2
	if prob.Bias >= 0 {
		biasIndex = prob.N
	}
	buf := make([]byte, 0, 64)
	for i, row := range prob.X {
		buf = strconv.AppendFloat(buf[:0], prob.Y[i], 'g', -1, 64)
		for _, nd := range row[:row.Len()] {
			if nd.Index == biasIndex {
				break
			}
			buf = append(buf, ' ')
			buf = strconv.AppendInt(buf, int64(nd.Index), 10)
			buf = append(buf, ':')
			buf = strconv.AppendFloat(buf, nd.Value, 'g', -1, 64)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return errors.Wrap(err, "sparse.WriteLibSVM")
		}
	}
	return errors.Wrap(bw.Flush(), "sparse.WriteLibSVM")
}

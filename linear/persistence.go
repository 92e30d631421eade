package linear

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// Save writes the model in liblinear's text format:
//
//	solver_type L2R_LR
//	nr_class 2
//	label 1 -1
//	nr_feature 3
//	bias 1
//	w
//	<one line of nr_w weights per feature column>
//
// One-class models carry a rho line after bias and no label line.
func (m *Model) Save(w io.Writer) error {
	release, err := m.acquire("linear.Model.Save")
	if err != nil {
		return err
	}
	defer release()

	bw := bufio.NewWriter(w)
	fmtFloat := func(v float64) string { return strconv.FormatFloat(v, 'g', 17, 64) }

	bw.WriteString("solver_type " + m.solver.String() + "\n")
	bw.WriteString("nr_class " + strconv.Itoa(m.nrClass) + "\n")
	if m.label != nil && !m.solver.IsOneClass() {
		bw.WriteString("label")
		for _, lab := range m.label {
			bw.WriteString(" " + strconv.Itoa(lab))
		}
		bw.WriteString("\n")
	}
	bw.WriteString("nr_feature " + strconv.Itoa(m.nrFeature) + "\n")
	bw.WriteString("bias " + fmtFloat(m.bias) + "\n")
	if m.solver.IsOneClass() {
		bw.WriteString("rho " + fmtFloat(m.rho) + "\n")
	}
	bw.WriteString("w\n")
	nrW := m.numDecision()
	for i := 0; i+nrW <= len(m.w); i += nrW {
		for _, v := range m.w[i : i+nrW] {
			bw.WriteString(fmtFloat(v) + " ")
		}
		bw.WriteString("\n")
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, "golinear: write model")
	}
	return nil
}

// SaveFile writes the model to path.
func (m *Model) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "golinear: create model file %s", path)
	}
	if err := m.Save(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "golinear: close model file")
}

// Load reads a model written by Save or by liblinear's save_model.
func Load(r io.Reader) (*Model, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	sc.Split(bufio.ScanWords)

	next := func(what string) (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", errors.Wrap(err, "golinear: read model")
			}
			return "", errors.NewValueError("linear.Load", "unexpected end of model while reading "+what)
		}
		return sc.Text(), nil
	}
	nextInt := func(what string) (int, error) {
		tok, err := next(what)
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			return 0, errors.Wrapf(err, "golinear: parse %s", what)
		}
		return v, nil
	}
	nextFloat := func(what string) (float64, error) {
		tok, err := next(what)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "golinear: parse %s", what)
		}
		return v, nil
	}

	m := &Model{}
	haveSolver := false
	for {
		cmd, err := next("header")
		if err != nil {
			return nil, err
		}
		switch cmd {
		case "solver_type":
			name, err := next("solver_type")
			if err != nil {
				return nil, err
			}
			if m.solver, err = ParseSolverType(name); err != nil {
				return nil, err
			}
			haveSolver = true
		case "nr_class":
			if m.nrClass, err = nextInt("nr_class"); err != nil {
				return nil, err
			}
			if m.nrClass < 1 {
				return nil, errors.NewValidationError("nr_class", "must be positive", m.nrClass)
			}
		case "nr_feature":
			if m.nrFeature, err = nextInt("nr_feature"); err != nil {
				return nil, err
			}
			if m.nrFeature < 0 {
				return nil, errors.NewValidationError("nr_feature", "must not be negative", m.nrFeature)
			}
		case "bias":
			if m.bias, err = nextFloat("bias"); err != nil {
				return nil, err
			}
		case "rho":
			if m.rho, err = nextFloat("rho"); err != nil {
				return nil, err
			}
		case "label":
			if m.nrClass < 1 {
				return nil, errors.NewValueError("linear.Load", "label before nr_class")
			}
			m.label = make([]int, 0, min(m.nrClass, 1<<16))
			for len(m.label) < m.nrClass {
				v, err := nextInt("label")
				if err != nil {
					return nil, err
				}
				m.label = append(m.label, v)
			}
		case "w":
			if !haveSolver || m.nrClass < 1 {
				return nil, errors.NewValueError("linear.Load", "solver_type and nr_class must precede w")
			}
			n := m.nrFeature
			if m.bias >= 0 {
				n++
			}
			nrW := m.numDecision()
			if n > math.MaxInt/nrW {
				return nil, errors.NewValidationError("nr_feature", "too large for nr_class", m.nrFeature)
			}
			// ヘッダを信用せず、読めた分だけ確保する
			total := n * nrW
			m.w = make([]float64, 0, min(total, 1<<16))
			for len(m.w) < total {
				v, err := nextFloat("w")
				if err != nil {
					return nil, err
				}
				m.w = append(m.w, v)
			}
			if m.solver.IsOneClass() && m.label == nil {
				m.label = []int{1, -1}
			}
			if !m.solver.IsRegression() && len(m.label) != m.nrClass {
				return nil, errors.NewDimensionError("linear.Load labels", m.nrClass, len(m.label), 0)
			}
			return m, nil
		default:
			return nil, errors.NewValueError("linear.Load", "unknown text in model file: ["+cmd+"]")
		}
	}
}

// LoadFile reads a model from path.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "golinear: open model file %s", path)
	}
	defer f.Close()
	return Load(f)
}

package linear

import (
	"math"

	"github.com/YuminosukeSato/golinear/core/parallel"
	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/sparse"
)

// batchThreshold is the row count below which PredictBatch stays on one goroutine.
const batchThreshold = 256

// PredictValues writes the decision values of x into dec and returns the
// predicted label. dec needs one slot per decision function (1 for binary,
// regression and one-class models, NumClasses otherwise) and may be nil.
// Feature indices beyond the training dimension are ignored.
func (m *Model) PredictValues(x sparse.Vector, dec []float64) (float64, error) {
	release, err := m.acquire("linear.Model.PredictValues")
	if err != nil {
		return 0, err
	}
	defer release()
	return m.predictValues(x, dec)
}

func (m *Model) predictValues(x sparse.Vector, dec []float64) (float64, error) {
	nrW := m.numDecision()
	if dec == nil {
		dec = make([]float64, nrW)
	} else if len(dec) < nrW {
		return 0, errors.NewDimensionError("linear.Model.PredictValues dec_values", nrW, len(dec), 0)
	}

	n := m.nrFeature
	if m.bias >= 0 {
		n++
	}
	for i := 0; i < nrW; i++ {
		dec[i] = 0
	}
	for _, nd := range x {
		if nd.Index == sparse.Sentinel {
			break
		}
		if nd.Index < 1 || nd.Index > n {
			continue
		}
		row := m.w[(nd.Index-1)*nrW : nd.Index*nrW]
		for i, wi := range row {
			dec[i] += wi * nd.Value
		}
	}

	switch {
	case m.solver.IsRegression():
		return dec[0], nil
	case m.solver.IsOneClass():
		dec[0] -= m.rho
		if dec[0] > 0 {
			return 1, nil
		}
		return -1, nil
	case nrW == 1:
		if dec[0] > 0 || m.nrClass == 1 {
			return float64(m.label[0]), nil
		}
		return float64(m.label[1]), nil
	}
	best := 0
	for i := 1; i < nrW; i++ {
		if dec[i] > dec[best] {
			best = i
		}
	}
	return float64(m.label[best]), nil
}

// Predict returns the predicted label, or the regression value, for x.
func (m *Model) Predict(x sparse.Vector) (float64, error) {
	return m.PredictValues(x, nil)
}

// PredictProbability writes one probability per class, in Labels order, into
// probs and returns the predicted label. Only logistic regression models
// produce probabilities.
func (m *Model) PredictProbability(x sparse.Vector, probs []float64) (float64, error) {
	if !m.IsProbabilityModel() {
		return 0, errors.NewUnsupportedOperationError("PredictProbability", m.solver.String(),
			"probability outputs are only supported for logistic regression")
	}
	release, err := m.acquire("linear.Model.PredictProbability")
	if err != nil {
		return 0, err
	}
	defer release()
	if len(probs) != m.nrClass {
		return 0, errors.NewDimensionError("linear.Model.PredictProbability", m.nrClass, len(probs), 0)
	}

	label, err := m.predictValues(x, probs)
	if err != nil {
		return 0, err
	}
	nrW := m.numDecision()
	for i := 0; i < nrW; i++ {
		probs[i] = 1 / (1 + math.Exp(-probs[i]))
	}
	if m.nrClass == 2 {
		probs[1] = 1 - probs[0]
		return label, nil
	}
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	for i := range probs {
		probs[i] /= sum
	}
	return label, nil
}

// PredictBatch predicts every row, in parallel for large batches.
func (m *Model) PredictBatch(rows []sparse.Vector) ([]float64, error) {
	release, err := m.acquire("linear.Model.PredictBatch")
	if err != nil {
		return nil, err
	}
	defer release()

	out := make([]float64, len(rows))
	nrW := m.numDecision()
	err = parallel.ParallelizeErrWithThreshold(len(rows), batchThreshold, func(start, end int) error {
		dec := make([]float64, nrW)
		for i := start; i < end; i++ {
			label, err := m.predictValues(rows[i], dec)
			if err != nil {
				return errors.Wrapf(err, "row %d", i)
			}
			out[i] = label
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DenseVector converts one dense sample into the node layout the model expects:
// 1-based indices, the bias node at NumFeatures+1 when the model has a bias,
// then the sentinel.
func (m *Model) DenseVector(data []float64) (sparse.Vector, error) {
	if len(data) != m.nrFeature {
		return nil, errors.NewDimensionError("linear.Model.DenseVector", m.nrFeature, len(data), 1)
	}
	size := len(data) + 1
	if m.bias >= 0 {
		size++
	}
	return sparse.AppendDense(make([]sparse.Node, 0, size), data, m.bias, m.nrFeature+1), nil
}

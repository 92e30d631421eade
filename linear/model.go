package linear

import (
	"sync"

	"github.com/tevino/abool"

	"github.com/YuminosukeSato/golinear/core/model"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// Model is a trained linear model. It is immutable after Train returns and
// safe for concurrent prediction.
//
// w holds one column per decision function: for nrW > 1 the weight of feature
// j for class i is w[j*nrW+i].
type Model struct {
	solver     SolverType
	nrClass    int
	nrFeature  int
	w          []float64
	label      []int
	bias       float64
	rho        float64
	iterations int

	mu       sync.RWMutex
	released abool.AtomicBool
}

// acquire takes the read lock for one prediction. The returned func must be called.
func (m *Model) acquire(op string) (func(), error) {
	m.mu.RLock()
	if m.released.IsSet() {
		m.mu.RUnlock()
		return nil, errors.NewModelError(op, "model used after release", errors.ErrReleased)
	}
	return m.mu.RUnlock, nil
}

// Release waits for in-flight predictions and drops the weights. Later
// predictions fail and a second call is a no-op.
func (m *Model) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released.SetToIf(false, true) {
		m.w = nil
		m.label = nil
	}
	return nil
}

// Released reports whether Release has been called.
func (m *Model) Released() bool { return m.released.IsSet() }

// SolverType returns the solver the model was trained with.
func (m *Model) SolverType() SolverType { return m.solver }

// NumClasses returns the number of classes; 2 for regression and one-class models.
func (m *Model) NumClasses() int { return m.nrClass }

// NumFeatures returns the number of input features, excluding the bias.
func (m *Model) NumFeatures() int { return m.nrFeature }

// Bias returns the bias value appended to each input, or a negative value.
func (m *Model) Bias() float64 { return m.bias }

// Rho returns the one-class offset. It is zero for other models.
func (m *Model) Rho() float64 { return m.rho }

// Iterations returns the outer iterations the solver used, summed over
// one-vs-rest sub-problems.
func (m *Model) Iterations() int { return m.iterations }

// Labels returns a copy of the class labels in decision-function order, or nil
// for regression models.
func (m *Model) Labels() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.label == nil {
		return nil
	}
	return append([]int(nil), m.label...)
}

// Weights returns a copy of the weight vector.
func (m *Model) Weights() []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]float64(nil), m.w...)
}

func (m *Model) IsProbabilityModel() bool { return m.solver.IsLogisticRegression() }
func (m *Model) IsRegressionModel() bool  { return m.solver.IsRegression() }
func (m *Model) IsOneClassModel() bool    { return m.solver.IsOneClass() }

// numDecision is the number of weight columns.
func (m *Model) numDecision() int {
	if m.nrClass == 2 && m.solver != MCSVMCS {
		return 1
	}
	return m.nrClass
}

// weightAt follows liblinear's get_w_value: idx is 0-based and may name the
// bias column; the second decision of a binary model is the negated first.
func (m *Model) weightAt(idx, labelIdx int) float64 {
	if idx < 0 || idx > m.nrFeature || m.w == nil {
		return 0
	}
	if m.solver.IsRegression() || m.solver.IsOneClass() {
		return m.w[idx]
	}
	if labelIdx < 0 || labelIdx >= m.nrClass {
		return 0
	}
	if m.numDecision() == 1 {
		if labelIdx == 0 {
			return m.w[idx]
		}
		return -m.w[idx]
	}
	return m.w[idx*m.nrClass+labelIdx]
}

// DecisionCoefficient returns the coefficient of feature featIdx (1-based) in
// the decision function of class labelIdx. labelIdx is ignored for regression
// and one-class models. Out-of-range indices give 0.
func (m *Model) DecisionCoefficient(featIdx, labelIdx int) (float64, error) {
	release, err := m.acquire("linear.Model.DecisionCoefficient")
	if err != nil {
		return 0, err
	}
	defer release()
	if featIdx > m.nrFeature {
		return 0, nil
	}
	return m.weightAt(featIdx-1, labelIdx), nil
}

// DecisionBias returns the intercept of the decision function of class labelIdx.
// One-class models have no intercept; use Rho.
func (m *Model) DecisionBias(labelIdx int) (float64, error) {
	if m.solver.IsOneClass() {
		return 0, errors.NewUnsupportedOperationError("DecisionBias", m.solver.String(),
			"one-class models expose rho instead of a bias")
	}
	release, err := m.acquire("linear.Model.DecisionBias")
	if err != nil {
		return 0, err
	}
	defer release()
	if m.bias <= 0 {
		return 0, nil
	}
	return m.bias * m.weightAt(m.nrFeature, labelIdx), nil
}

// ExportWeights returns the model as sealed ModelWeights.
func (m *Model) ExportWeights() (*model.ModelWeights, error) {
	release, err := m.acquire("linear.Model.ExportWeights")
	if err != nil {
		return nil, err
	}
	defer release()

	mw := &model.ModelWeights{
		ModelType:    "liblinear",
		Version:      model.WeightsVersion,
		Solver:       m.solver.String(),
		NrClass:      m.nrClass,
		NrFeature:    m.nrFeature,
		Bias:         m.bias,
		Rho:          m.rho,
		Coefficients: append([]float64(nil), m.w...),
		Hyperparameters: map[string]interface{}{
			"iterations": m.iterations,
		},
	}
	if m.label != nil {
		mw.Labels = append([]int(nil), m.label...)
	}
	return mw.Seal(), nil
}

// ModelFromWeights rebuilds a Model from exported weights.
func ModelFromWeights(mw *model.ModelWeights) (*Model, error) {
	if err := mw.Validate(); err != nil {
		return nil, err
	}
	solver, err := ParseSolverType(mw.Solver)
	if err != nil {
		return nil, err
	}
	m := &Model{
		solver:    solver,
		nrClass:   mw.NrClass,
		nrFeature: mw.NrFeature,
		bias:      mw.Bias,
		rho:       mw.Rho,
		w:         append([]float64(nil), mw.Coefficients...),
	}
	if mw.Labels != nil {
		m.label = append([]int(nil), mw.Labels...)
	}
	// JSON を経由すると数値は float64 になる
	switch it := mw.Hyperparameters["iterations"].(type) {
	case int:
		m.iterations = it
	case float64:
		m.iterations = int(it)
	}
	if want := mw.NumFeatureColumns() * m.numDecision(); len(m.w) != want {
		return nil, errors.NewDimensionError("linear.ModelFromWeights", want, len(m.w), 0)
	}
	if !solver.IsRegression() && len(m.label) != m.nrClass {
		return nil, errors.NewDimensionError("linear.ModelFromWeights labels", m.nrClass, len(m.label), 0)
	}
	if err := errors.CheckNumericalStability("linear.ModelFromWeights", m.w, m.iterations); err != nil {
		return nil, err
	}
	return m, nil
}

package linear_model

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/core/model"
	"github.com/YuminosukeSato/golinear/linear"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// LogisticRegression is a scikit-learn compatible logistic regression
// classifier trained with the liblinear solvers. Multi-class problems are fit
// one-vs-rest.
type LogisticRegression struct {
	libLinear

	// Hyperparameters
	penalty          string  // "l1" or "l2"
	dual             bool    // dual formulation, l2 only
	C                float64 // inverse regularization strength
	tol              float64 // stopping tolerance
	fitIntercept     bool
	interceptScaling float64
	classWeight      classWeight
	maxIter          int
	randomState      int64 // < 0 uses the solver default seed
}

var (
	_ model.ProbabilisticClassifier = (*LogisticRegression)(nil)
	_ model.LinearModel             = (*LogisticRegression)(nil)
)

// LogisticRegressionOption is a functional option for LogisticRegression.
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		libLinear:        newLibLinear("LogisticRegression"),
		penalty:          "l2",
		C:                1.0,
		tol:              1e-4,
		fitIntercept:     true,
		interceptScaling: 1.0,
		maxIter:          100,
		randomState:      -1,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRPenalty sets the regularization type.
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.penalty = penalty }
}

// WithLRDual selects the dual formulation.
func WithLRDual(dual bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.dual = dual }
}

// WithLRC sets the inverse regularization strength.
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.C = c }
}

// WithLRTol sets the tolerance for stopping criteria.
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.tol = tol }
}

// WithLogisticFitIntercept sets whether to fit intercept.
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.fitIntercept = fit }
}

// WithLRInterceptScaling sets the value of the synthetic bias feature.
func WithLRInterceptScaling(scaling float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.interceptScaling = scaling }
}

// WithLRClassWeight sets per-class multipliers of C.
func WithLRClassWeight(weights map[int]float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { _ = lr.classWeight.set(weights) }
}

// WithLRBalancedClassWeight weights classes inversely to their frequency.
func WithLRBalancedClassWeight() LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.classWeight = classWeight{balanced: true} }
}

// WithLRMaxIter sets the maximum number of solver iterations.
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.maxIter = maxIter }
}

// WithLRRandomState sets the seed of the coordinate permutations.
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.randomState = seed }
}

// solverType は penalty と dual から liblinear のソルバーを選ぶ
func (lr *LogisticRegression) solverType() (linear.SolverType, error) {
	const op = "LogisticRegression"
	if err := oneOf(op, "penalty", lr.penalty, "l1", "l2"); err != nil {
		return 0, err
	}
	switch {
	case lr.penalty == "l1" && lr.dual:
		return 0, errors.NewConfigurationError(op, "penalty=l1 is only supported with dual=false")
	case lr.penalty == "l1":
		return linear.L1RLR, nil
	case lr.dual:
		return linear.L2RLRDual, nil
	default:
		return linear.L2RLR, nil
	}
}

func (lr *LogisticRegression) parameter(labels []float64) (*linear.Parameter, error) {
	solver, err := lr.solverType()
	if err != nil {
		return nil, err
	}
	return newParameter(solver, lr.C, lr.tol, lr.maxIter, lr.randomState, lr.classWeight.resolve(labels))
}

// Fit trains the model on X (n_samples x n_features) and the column vector y.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	return lr.FitContext(context.Background(), X, y)
}

// FitContext is Fit with cancellation.
func (lr *LogisticRegression) FitContext(ctx context.Context, X, y mat.Matrix) error {
	labels, err := targets("LogisticRegression.Fit", X, y, true)
	if err != nil {
		return err
	}
	param, err := lr.parameter(labels)
	if err != nil {
		return err
	}
	return lr.fit(ctx, X, labels, biasFor(lr.fitIntercept, lr.interceptScaling), param)
}

// Predict returns the predicted class of every row as an n x 1 matrix.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	return lr.predict(X)
}

// PredictProba returns class probabilities with one column per entry of Classes.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return lr.predictProba(X)
}

// DecisionFunction returns the signed distances to the decision boundaries.
// Binary models return a single column scoring Classes()[1].
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	return lr.decisionFunction(X)
}

// Score returns the mean accuracy on X and y.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	return lr.accuracy(X, y)
}

// Classes returns the class labels in ascending order.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes...)
}

// Coef returns the coefficients as (n_decision, n_features).
func (lr *LogisticRegression) Coef() (mat.Matrix, error) { return lr.coef() }

// Intercept returns one intercept per decision row, zero without fit_intercept.
func (lr *LogisticRegression) Intercept() ([]float64, error) { return lr.intercept() }

// NIter returns the solver iterations of the last Fit, summed over one-vs-rest problems.
func (lr *LogisticRegression) NIter() int { return lr.nIter() }

// IsFitted reports whether Fit has succeeded.
func (lr *LogisticRegression) IsFitted() bool { return lr.state.IsFitted() }

// ExportWeights returns the trained weights with the hyperparameters attached.
func (lr *LogisticRegression) ExportWeights() (*model.ModelWeights, error) {
	return lr.exportWeights(lr.GetParams())
}

// ImportWeights restores a model exported by ExportWeights.
func (lr *LogisticRegression) ImportWeights(mw *model.ModelWeights) error {
	return lr.importWeights(mw)
}

// GetParams returns the model hyperparameters.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":           lr.penalty,
		"dual":              lr.dual,
		"C":                 lr.C,
		"tol":               lr.tol,
		"fit_intercept":     lr.fitIntercept,
		"intercept_scaling": lr.interceptScaling,
		"class_weight":      lr.classWeight.value(),
		"max_iter":          lr.maxIter,
		"random_state":      lr.randomState,
	}
}

// SetParams sets the model hyperparameters.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var err error
		switch key {
		case "penalty":
			err = assign(key, value, &lr.penalty)
		case "dual":
			err = assign(key, value, &lr.dual)
		case "C":
			err = assign(key, value, &lr.C)
		case "tol":
			err = assign(key, value, &lr.tol)
		case "fit_intercept":
			err = assign(key, value, &lr.fitIntercept)
		case "intercept_scaling":
			err = assign(key, value, &lr.interceptScaling)
		case "class_weight":
			err = lr.classWeight.set(value)
		case "max_iter":
			err = assign(key, value, &lr.maxIter)
		case "random_state":
			err = assign(key, value, &lr.randomState)
		default:
			err = errUnknownParam(key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

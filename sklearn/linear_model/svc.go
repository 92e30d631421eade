package linear_model

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/core/model"
	"github.com/YuminosukeSato/golinear/linear"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// LinearSVC is a linear support vector classifier.
//
// loss, penalty and dual select one of the liblinear SVC solvers; multi_class
// "crammer_singer" trains a single joint multi-class machine instead of
// one-vs-rest.
type LinearSVC struct {
	libLinear

	penalty          string
	loss             string
	dual             bool
	C                float64
	tol              float64
	multiClass       string
	fitIntercept     bool
	interceptScaling float64
	classWeight      classWeight
	maxIter          int
	randomState      int64
}

var (
	_ model.Classifier  = (*LinearSVC)(nil)
	_ model.LinearModel = (*LinearSVC)(nil)
)

// LinearSVCOption is a functional option for LinearSVC.
type LinearSVCOption func(*LinearSVC)

// NewLinearSVC creates a LinearSVC with scikit-learn defaults.
func NewLinearSVC(opts ...LinearSVCOption) *LinearSVC {
	svc := &LinearSVC{
		libLinear:        newLibLinear("LinearSVC"),
		penalty:          "l2",
		loss:             "squared_hinge",
		dual:             true,
		C:                1.0,
		tol:              1e-4,
		multiClass:       "ovr",
		fitIntercept:     true,
		interceptScaling: 1.0,
		maxIter:          1000,
		randomState:      -1,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithSVCPenalty sets "l1" or "l2".
func WithSVCPenalty(penalty string) LinearSVCOption {
	return func(s *LinearSVC) { s.penalty = penalty }
}

// WithSVCLoss sets "hinge" or "squared_hinge".
func WithSVCLoss(loss string) LinearSVCOption {
	return func(s *LinearSVC) { s.loss = loss }
}

// WithSVCDual selects the dual formulation.
func WithSVCDual(dual bool) LinearSVCOption {
	return func(s *LinearSVC) { s.dual = dual }
}

// WithSVCC sets the penalty parameter C.
func WithSVCC(c float64) LinearSVCOption {
	return func(s *LinearSVC) { s.C = c }
}

// WithSVCTol sets the stopping tolerance.
func WithSVCTol(tol float64) LinearSVCOption {
	return func(s *LinearSVC) { s.tol = tol }
}

// WithSVCMultiClass sets "ovr" or "crammer_singer".
func WithSVCMultiClass(strategy string) LinearSVCOption {
	return func(s *LinearSVC) { s.multiClass = strategy }
}

// WithSVCFitIntercept sets whether to fit an intercept.
func WithSVCFitIntercept(fit bool) LinearSVCOption {
	return func(s *LinearSVC) { s.fitIntercept = fit }
}

// WithSVCInterceptScaling sets the value of the synthetic bias feature.
func WithSVCInterceptScaling(scaling float64) LinearSVCOption {
	return func(s *LinearSVC) { s.interceptScaling = scaling }
}

// WithSVCClassWeight sets per-class multipliers of C.
func WithSVCClassWeight(weights map[int]float64) LinearSVCOption {
	return func(s *LinearSVC) { _ = s.classWeight.set(weights) }
}

// WithSVCBalancedClassWeight weights classes inversely to their frequency.
func WithSVCBalancedClassWeight() LinearSVCOption {
	return func(s *LinearSVC) { s.classWeight = classWeight{balanced: true} }
}

// WithSVCMaxIter sets the iteration cap.
func WithSVCMaxIter(n int) LinearSVCOption {
	return func(s *LinearSVC) { s.maxIter = n }
}

// WithSVCRandomState sets the seed of the coordinate permutations.
func WithSVCRandomState(seed int64) LinearSVCOption {
	return func(s *LinearSVC) { s.randomState = seed }
}

// solverType follows scikit-learn's liblinear solver table.
func (s *LinearSVC) solverType() (linear.SolverType, error) {
	const op = "LinearSVC"
	if err := oneOf(op, "multi_class", s.multiClass, "ovr", "crammer_singer"); err != nil {
		return 0, err
	}
	if s.multiClass == "crammer_singer" {
		return linear.MCSVMCS, nil
	}
	if err := oneOf(op, "penalty", s.penalty, "l1", "l2"); err != nil {
		return 0, err
	}
	if err := oneOf(op, "loss", s.loss, "hinge", "squared_hinge"); err != nil {
		return 0, err
	}

	switch {
	case s.loss == "hinge" && s.penalty == "l2" && s.dual:
		return linear.L2RL1LossSVCDual, nil
	case s.loss == "hinge":
		return 0, errors.NewConfigurationError(op, "loss=hinge requires penalty=l2 and dual=true")
	case s.penalty == "l1" && !s.dual:
		return linear.L1RL2LossSVC, nil
	case s.penalty == "l1":
		return 0, errors.NewConfigurationError(op, "penalty=l1 with loss=squared_hinge requires dual=false")
	case s.dual:
		return linear.L2RL2LossSVCDual, nil
	default:
		return linear.L2RL2LossSVC, nil
	}
}

// Fit trains the classifier.
func (s *LinearSVC) Fit(X, y mat.Matrix) error {
	return s.FitContext(context.Background(), X, y)
}

// FitContext is Fit with cancellation.
func (s *LinearSVC) FitContext(ctx context.Context, X, y mat.Matrix) error {
	labels, err := targets("LinearSVC.Fit", X, y, true)
	if err != nil {
		return err
	}
	solver, err := s.solverType()
	if err != nil {
		return err
	}
	param, err := newParameter(solver, s.C, s.tol, s.maxIter, s.randomState, s.classWeight.resolve(labels))
	if err != nil {
		return err
	}
	return s.fit(ctx, X, labels, biasFor(s.fitIntercept, s.interceptScaling), param)
}

// Predict returns the predicted class of every row.
func (s *LinearSVC) Predict(X mat.Matrix) (mat.Matrix, error) { return s.predict(X) }

// DecisionFunction returns the decision values. Binary one-vs-rest models
// return a single column scoring Classes()[1]; crammer_singer always returns
// one column per class.
func (s *LinearSVC) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	return s.decisionFunction(X)
}

// Score returns the mean accuracy on X and y.
func (s *LinearSVC) Score(X, y mat.Matrix) (float64, error) { return s.accuracy(X, y) }

// Classes returns the class labels in ascending order.
func (s *LinearSVC) Classes() []int { return append([]int(nil), s.classes...) }

// Coef returns the coefficients as (n_decision, n_features).
func (s *LinearSVC) Coef() (mat.Matrix, error) { return s.coef() }

// Intercept returns one intercept per decision row.
func (s *LinearSVC) Intercept() ([]float64, error) { return s.intercept() }

// NIter returns the solver iterations of the last Fit.
func (s *LinearSVC) NIter() int { return s.nIter() }

// IsFitted reports whether Fit has succeeded.
func (s *LinearSVC) IsFitted() bool { return s.state.IsFitted() }

// ExportWeights returns the trained weights with the hyperparameters attached.
func (s *LinearSVC) ExportWeights() (*model.ModelWeights, error) {
	return s.exportWeights(s.GetParams())
}

// ImportWeights restores a model exported by ExportWeights.
func (s *LinearSVC) ImportWeights(mw *model.ModelWeights) error { return s.importWeights(mw) }

// GetParams returns the hyperparameters.
func (s *LinearSVC) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":           s.penalty,
		"loss":              s.loss,
		"dual":              s.dual,
		"C":                 s.C,
		"tol":               s.tol,
		"multi_class":       s.multiClass,
		"fit_intercept":     s.fitIntercept,
		"intercept_scaling": s.interceptScaling,
		"class_weight":      s.classWeight.value(),
		"max_iter":          s.maxIter,
		"random_state":      s.randomState,
	}
}

// SetParams sets the hyperparameters.
func (s *LinearSVC) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var err error
		switch key {
		case "penalty":
			err = assign(key, value, &s.penalty)
		case "loss":
			err = assign(key, value, &s.loss)
		case "dual":
			err = assign(key, value, &s.dual)
		case "C":
			err = assign(key, value, &s.C)
		case "tol":
			err = assign(key, value, &s.tol)
		case "multi_class":
			err = assign(key, value, &s.multiClass)
		case "fit_intercept":
			err = assign(key, value, &s.fitIntercept)
		case "intercept_scaling":
			err = assign(key, value, &s.interceptScaling)
		case "class_weight":
			err = s.classWeight.set(value)
		case "max_iter":
			err = assign(key, value, &s.maxIter)
		case "random_state":
			err = assign(key, value, &s.randomState)
		default:
			err = errUnknownParam(key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

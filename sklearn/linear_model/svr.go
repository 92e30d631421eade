package linear_model

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/core/model"
	"github.com/YuminosukeSato/golinear/linear"
	"github.com/YuminosukeSato/golinear/metrics"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// LinearSVR is a linear support vector regressor with an
// epsilon-insensitive loss.
type LinearSVR struct {
	libLinear

	epsilon          float64
	tol              float64
	C                float64
	loss             string
	dual             bool
	fitIntercept     bool
	interceptScaling float64
	maxIter          int
	randomState      int64
}

var (
	_ model.Regressor   = (*LinearSVR)(nil)
	_ model.LinearModel = (*LinearSVR)(nil)
)

// LinearSVROption is a functional option for LinearSVR.
type LinearSVROption func(*LinearSVR)

// NewLinearSVR creates a LinearSVR with scikit-learn defaults.
func NewLinearSVR(opts ...LinearSVROption) *LinearSVR {
	svr := &LinearSVR{
		libLinear:        newLibLinear("LinearSVR"),
		epsilon:          0,
		tol:              1e-4,
		C:                1.0,
		loss:             "epsilon_insensitive",
		dual:             true,
		fitIntercept:     true,
		interceptScaling: 1.0,
		maxIter:          1000,
		randomState:      -1,
	}
	for _, opt := range opts {
		opt(svr)
	}
	return svr
}

// WithSVREpsilon sets the width of the insensitive tube.
func WithSVREpsilon(eps float64) LinearSVROption {
	return func(s *LinearSVR) { s.epsilon = eps }
}

// WithSVRTol sets the stopping tolerance.
func WithSVRTol(tol float64) LinearSVROption {
	return func(s *LinearSVR) { s.tol = tol }
}

// WithSVRC sets the penalty parameter C.
func WithSVRC(c float64) LinearSVROption {
	return func(s *LinearSVR) { s.C = c }
}

// WithSVRLoss sets "epsilon_insensitive" or "squared_epsilon_insensitive".
func WithSVRLoss(loss string) LinearSVROption {
	return func(s *LinearSVR) { s.loss = loss }
}

// WithSVRDual selects the dual formulation.
func WithSVRDual(dual bool) LinearSVROption {
	return func(s *LinearSVR) { s.dual = dual }
}

// WithSVRFitIntercept sets whether to fit an intercept.
func WithSVRFitIntercept(fit bool) LinearSVROption {
	return func(s *LinearSVR) { s.fitIntercept = fit }
}

// WithSVRInterceptScaling sets the value of the synthetic bias feature.
func WithSVRInterceptScaling(scaling float64) LinearSVROption {
	return func(s *LinearSVR) { s.interceptScaling = scaling }
}

// WithSVRMaxIter sets the iteration cap.
func WithSVRMaxIter(n int) LinearSVROption {
	return func(s *LinearSVR) { s.maxIter = n }
}

// WithSVRRandomState sets the seed of the coordinate permutations.
func WithSVRRandomState(seed int64) LinearSVROption {
	return func(s *LinearSVR) { s.randomState = seed }
}

func (s *LinearSVR) solverType() (linear.SolverType, error) {
	const op = "LinearSVR"
	if err := oneOf(op, "loss", s.loss, "epsilon_insensitive", "squared_epsilon_insensitive"); err != nil {
		return 0, err
	}
	switch {
	case s.loss == "epsilon_insensitive" && s.dual:
		return linear.L2RL1LossSVRDual, nil
	case s.loss == "epsilon_insensitive":
		return 0, errors.NewConfigurationError(op, "loss=epsilon_insensitive requires dual=true")
	case s.dual:
		return linear.L2RL2LossSVRDual, nil
	default:
		return linear.L2RL2LossSVR, nil
	}
}

// Fit trains the regressor.
func (s *LinearSVR) Fit(X, y mat.Matrix) error {
	return s.FitContext(context.Background(), X, y)
}

// FitContext is Fit with cancellation.
func (s *LinearSVR) FitContext(ctx context.Context, X, y mat.Matrix) error {
	values, err := targets("LinearSVR.Fit", X, y, false)
	if err != nil {
		return err
	}
	solver, err := s.solverType()
	if err != nil {
		return err
	}
	param, err := newParameter(solver, s.C, s.tol, s.maxIter, s.randomState, nil, linear.WithP(s.epsilon))
	if err != nil {
		return err
	}
	return s.fit(ctx, X, values, biasFor(s.fitIntercept, s.interceptScaling), param)
}

// Predict returns the predicted value of every row.
func (s *LinearSVR) Predict(X mat.Matrix) (mat.Matrix, error) { return s.predict(X) }

// Score returns the coefficient of determination R^2 on X and y.
func (s *LinearSVR) Score(X, y mat.Matrix) (float64, error) {
	preds, err := s.predict(X)
	if err != nil {
		return 0, err
	}
	yTrue, err := targets("LinearSVR.Score", X, y, false)
	if err != nil {
		return 0, err
	}
	n := len(yTrue)
	return metrics.R2Score(mat.NewVecDense(n, yTrue), mat.NewVecDense(n, preds.RawMatrix().Data))
}

// Coef returns the coefficients as a 1 x n_features matrix.
func (s *LinearSVR) Coef() (mat.Matrix, error) { return s.coef() }

// Intercept returns the intercept, zero without fit_intercept.
func (s *LinearSVR) Intercept() ([]float64, error) { return s.intercept() }

// NIter returns the solver iterations of the last Fit.
func (s *LinearSVR) NIter() int { return s.nIter() }

// IsFitted reports whether Fit has succeeded.
func (s *LinearSVR) IsFitted() bool { return s.state.IsFitted() }

// ExportWeights returns the trained weights with the hyperparameters attached.
func (s *LinearSVR) ExportWeights() (*model.ModelWeights, error) {
	return s.exportWeights(s.GetParams())
}

// ImportWeights restores a model exported by ExportWeights.
func (s *LinearSVR) ImportWeights(mw *model.ModelWeights) error { return s.importWeights(mw) }

// GetParams returns the hyperparameters.
func (s *LinearSVR) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"epsilon":           s.epsilon,
		"tol":               s.tol,
		"C":                 s.C,
		"loss":              s.loss,
		"dual":              s.dual,
		"fit_intercept":     s.fitIntercept,
		"intercept_scaling": s.interceptScaling,
		"max_iter":          s.maxIter,
		"random_state":      s.randomState,
	}
}

// SetParams sets the hyperparameters.
func (s *LinearSVR) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var err error
		switch key {
		case "epsilon":
			err = assign(key, value, &s.epsilon)
		case "tol":
			err = assign(key, value, &s.tol)
		case "C":
			err = assign(key, value, &s.C)
		case "loss":
			err = assign(key, value, &s.loss)
		case "dual":
			err = assign(key, value, &s.dual)
		case "fit_intercept":
			err = assign(key, value, &s.fitIntercept)
		case "intercept_scaling":
			err = assign(key, value, &s.interceptScaling)
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

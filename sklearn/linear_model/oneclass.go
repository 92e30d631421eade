package linear_model

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/core/model"
	"github.com/YuminosukeSato/golinear/linear"
)

// OneClassSVM is a linear one-class SVM for novelty detection. Predict returns
// +1 for inliers and -1 for outliers; the decision function is w·x - rho.
type OneClassSVM struct {
	libLinear

	nu          float64
	tol         float64
	maxIter     int
	randomState int64
}

var (
	_ model.Estimator   = (*OneClassSVM)(nil)
	_ model.LinearModel = (*OneClassSVM)(nil)
)

// OneClassSVMOption is a functional option for OneClassSVM.
type OneClassSVMOption func(*OneClassSVM)

// NewOneClassSVM creates a OneClassSVM with nu 0.5.
func NewOneClassSVM(opts ...OneClassSVMOption) *OneClassSVM {
	oc := &OneClassSVM{
		libLinear:   newLibLinear("OneClassSVM"),
		nu:          0.5,
		tol:         1e-2,
		maxIter:     1000,
		randomState: -1,
	}
	for _, opt := range opts {
		opt(oc)
	}
	return oc
}

// WithOneClassNu sets the upper bound on the fraction of outliers, in (0, 1].
func WithOneClassNu(nu float64) OneClassSVMOption {
	return func(oc *OneClassSVM) { oc.nu = nu }
}

// WithOneClassTol sets the stopping tolerance.
func WithOneClassTol(tol float64) OneClassSVMOption {
	return func(oc *OneClassSVM) { oc.tol = tol }
}

// WithOneClassMaxIter sets the iteration cap.
func WithOneClassMaxIter(n int) OneClassSVMOption {
	return func(oc *OneClassSVM) { oc.maxIter = n }
}

// WithOneClassRandomState sets the seed of the coordinate permutations.
func WithOneClassRandomState(seed int64) OneClassSVMOption {
	return func(oc *OneClassSVM) { oc.randomState = seed }
}

// Fit learns the support of X. y is ignored and may be nil.
func (oc *OneClassSVM) Fit(X, _ mat.Matrix) error {
	return oc.FitContext(context.Background(), X)
}

// FitContext is Fit with cancellation.
func (oc *OneClassSVM) FitContext(ctx context.Context, X mat.Matrix) error {
	nSamples, _ := X.Dims()
	// ラベルは使われないが Problem の形を満たすために +1 を入れる
	labels := make([]float64, nSamples)
	for i := range labels {
		labels[i] = 1
	}
	param, err := newParameter(linear.OneClassSVM, 1, oc.tol, oc.maxIter, oc.randomState, nil,
		linear.WithNu(oc.nu))
	if err != nil {
		return err
	}
	return oc.fit(ctx, X, labels, -1, param)
}

// Predict returns +1 for inliers and -1 for outliers.
func (oc *OneClassSVM) Predict(X mat.Matrix) (mat.Matrix, error) { return oc.predict(X) }

// DecisionFunction returns w·x - rho for every row; positive values are inliers.
func (oc *OneClassSVM) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	return oc.decisionFunction(X)
}

// Coef returns the weights as a 1 x n_features matrix.
func (oc *OneClassSVM) Coef() (mat.Matrix, error) { return oc.coef() }

// Intercept returns -rho.
func (oc *OneClassSVM) Intercept() ([]float64, error) { return oc.intercept() }

// Offset returns rho, the threshold of the decision function.
func (oc *OneClassSVM) Offset() (float64, error) {
	if err := oc.require("Offset", nil); err != nil {
		return 0, err
	}
	return oc.model.Rho(), nil
}

// NIter returns the solver iterations of the last Fit.
func (oc *OneClassSVM) NIter() int { return oc.nIter() }

// IsFitted reports whether Fit has succeeded.
func (oc *OneClassSVM) IsFitted() bool { return oc.state.IsFitted() }

// ExportWeights returns the trained weights with the hyperparameters attached.
func (oc *OneClassSVM) ExportWeights() (*model.ModelWeights, error) {
	return oc.exportWeights(oc.GetParams())
}

// ImportWeights restores a model exported by ExportWeights.
func (oc *OneClassSVM) ImportWeights(mw *model.ModelWeights) error { return oc.importWeights(mw) }

// GetParams returns the hyperparameters.
func (oc *OneClassSVM) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"nu":           oc.nu,
		"tol":          oc.tol,
		"max_iter":     oc.maxIter,
		"random_state": oc.randomState,
	}
}

// SetParams sets the hyperparameters.
func (oc *OneClassSVM) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var err error
		switch key {
		case "nu":
			err = assign(key, value, &oc.nu)
		case "tol":
			err = assign(key, value, &oc.tol)
		case "max_iter":
			err = assign(key, value, &oc.maxIter)
		case "random_state":
			err = assign(key, value, &oc.randomState)
		default:
			err = errUnknownParam(key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

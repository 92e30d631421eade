package linear_model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

func TestLogisticRegressionBinary(t *testing.T) {
	X, y := blobs([]float64{0, 1}, 40, 4, 0.5)
	lr := NewLogisticRegression(WithLRRandomState(0))
	require.NoError(t, lr.Fit(X, y))

	assert.True(t, lr.IsFitted())
	assert.Equal(t, []int{0, 1}, lr.Classes())
	assert.Greater(t, lr.NIter(), 0)

	score, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.95)

	preds, err := lr.Predict(X)
	require.NoError(t, err)
	proba, err := lr.PredictProba(X)
	require.NoError(t, err)
	dec, err := lr.DecisionFunction(X)
	require.NoError(t, err)
	coef, err := lr.Coef()
	require.NoError(t, err)
	intercept, err := lr.Intercept()
	require.NoError(t, err)

	rows, cols := dec.Dims()
	assert.Equal(t, 80, rows)
	assert.Equal(t, 1, cols)
	r, c := coef.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, 2, c)
	require.Len(t, intercept, 1)

	for i := 0; i < rows; i++ {
		assert.InDelta(t, 1.0, proba.At(i, 0)+proba.At(i, 1), 1e-12)
		// 正の決定値は Classes()[1] を意味する
		want := 0.0
		if dec.At(i, 0) > 0 {
			want = 1
		}
		assert.Equal(t, want, preds.At(i, 0))
		assert.Equal(t, proba.At(i, 1) > 0.5, dec.At(i, 0) > 0)
		assert.InDelta(t, rowDecision(coef, intercept, X, i, 0), dec.At(i, 0), 1e-9)
	}
}

func TestLogisticRegressionMulticlass(t *testing.T) {
	X, y := blobs([]float64{3, 1, 2}, 30, 4, 0.5)
	lr := NewLogisticRegression()
	require.NoError(t, lr.Fit(X, y))

	assert.Equal(t, []int{1, 2, 3}, lr.Classes())

	score, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.95)

	preds, err := lr.Predict(X)
	require.NoError(t, err)
	proba, err := lr.PredictProba(X)
	require.NoError(t, err)
	dec, err := lr.DecisionFunction(X)
	require.NoError(t, err)
	coef, err := lr.Coef()
	require.NoError(t, err)
	intercept, err := lr.Intercept()
	require.NoError(t, err)

	r, _ := coef.Dims()
	assert.Equal(t, 3, r)
	require.Len(t, intercept, 3)

	classes := lr.Classes()
	n, _ := X.Dims()
	for i := 0; i < n; i++ {
		best, sum := 0, 0.0
		for k := 0; k < 3; k++ {
			sum += proba.At(i, k)
			if dec.At(i, k) > dec.At(i, best) {
				best = k
			}
			assert.InDelta(t, rowDecision(coef, intercept, X, i, k), dec.At(i, k), 1e-9)
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
		assert.Equal(t, float64(classes[best]), preds.At(i, 0))
	}
}

func TestLogisticRegressionSolvers(t *testing.T) {
	X, y := blobs([]float64{-1, 1}, 40, 4, 0.5)
	tests := []struct {
		name string
		opts []LogisticRegressionOption
	}{
		{"l2 primal", nil},
		{"l2 dual", []LogisticRegressionOption{WithLRDual(true)}},
		{"l1 primal", []LogisticRegressionOption{WithLRPenalty("l1")}},
		{"no intercept", []LogisticRegressionOption{WithLogisticFitIntercept(false)}},
		{"intercept scaling", []LogisticRegressionOption{WithLRInterceptScaling(10)}},
		{"balanced", []LogisticRegressionOption{WithLRBalancedClassWeight()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := NewLogisticRegression(tt.opts...)
			require.NoError(t, lr.Fit(X, y))
			score, err := lr.Score(X, y)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, score, 0.95)
		})
	}
}

func TestLogisticRegressionNoIntercept(t *testing.T) {
	X, y := blobs([]float64{0, 1}, 20, 4, 0.5)
	lr := NewLogisticRegression(WithLogisticFitIntercept(false))
	require.NoError(t, lr.Fit(X, y))
	intercept, err := lr.Intercept()
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, intercept)
}

func TestLogisticRegressionInvalidConfig(t *testing.T) {
	X, y := blobs([]float64{0, 1}, 10, 4, 0.5)
	tests := []struct {
		name string
		lr   *LogisticRegression
	}{
		{"l1 dual", NewLogisticRegression(WithLRPenalty("l1"), WithLRDual(true))},
		{"unknown penalty", NewLogisticRegression(WithLRPenalty("elasticnet"))},
		{"non-positive C", NewLogisticRegression(WithLRC(0))},
		{"non-positive tol", NewLogisticRegression(WithLRTol(0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.lr.Fit(X, y)
			var cfg *errors.ConfigurationError
			assert.True(t, errors.As(err, &cfg), "unexpected error: %v", err)
			assert.False(t, tt.lr.IsFitted())
		})
	}
}

func TestLogisticRegressionNotFitted(t *testing.T) {
	lr := NewLogisticRegression()
	X := mat.NewDense(1, 2, []float64{1, 2})

	_, err := lr.Predict(X)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
	_, err = lr.PredictProba(X)
	assert.True(t, errors.As(err, &nf))
	_, err = lr.Coef()
	assert.True(t, errors.As(err, &nf))
	_, err = lr.ExportWeights()
	assert.True(t, errors.As(err, &nf))
	assert.Zero(t, lr.NIter())
}

func TestLogisticRegressionInputValidation(t *testing.T) {
	X, y := blobs([]float64{0, 1}, 10, 4, 0.5)
	lr := NewLogisticRegression()
	var dim *errors.DimensionError

	err := lr.Fit(X, mat.NewDense(3, 1, nil))
	assert.True(t, errors.As(err, &dim))
	err = lr.Fit(X, mat.NewDense(20, 2, nil))
	assert.True(t, errors.As(err, &dim))

	require.NoError(t, lr.Fit(X, y))
	_, err = lr.Predict(mat.NewDense(2, 3, nil))
	assert.True(t, errors.As(err, &dim))
}

func TestLogisticRegressionTruncatesLabels(t *testing.T) {
	warnings := captureWarnings(t)
	X, y := blobs([]float64{0.2, 1.7}, 10, 4, 0.5)
	lr := NewLogisticRegression()
	require.NoError(t, lr.Fit(X, y))

	assert.Equal(t, []int{0, 1}, lr.Classes())
	require.NotEmpty(t, *warnings)
	var conv *errors.DataConversionWarning
	assert.True(t, errors.As((*warnings)[0], &conv))
}

func TestLogisticRegressionParams(t *testing.T) {
	lr := NewLogisticRegression()
	require.NoError(t, lr.SetParams(map[string]interface{}{
		"C":            0.5,
		"penalty":      "l1",
		"class_weight": map[int]float64{1: 2},
		"max_iter":     50,
	}))
	params := lr.GetParams()
	assert.Equal(t, 0.5, params["C"])
	assert.Equal(t, "l1", params["penalty"])
	assert.Equal(t, map[int]float64{1: 2}, params["class_weight"])
	assert.Equal(t, 50, params["max_iter"])

	require.NoError(t, lr.SetParams(map[string]interface{}{"class_weight": "balanced"}))
	assert.Equal(t, "balanced", lr.GetParams()["class_weight"])
	require.NoError(t, lr.SetParams(map[string]interface{}{"class_weight": nil}))
	assert.Nil(t, lr.GetParams()["class_weight"])

	var verr *errors.ValidationError
	assert.True(t, errors.As(lr.SetParams(map[string]interface{}{"C": "big"}), &verr))
	assert.True(t, errors.As(lr.SetParams(map[string]interface{}{"solver": "lbfgs"}), &verr))
	assert.True(t, errors.As(lr.SetParams(map[string]interface{}{"class_weight": "auto"}), &verr))
}

func TestLogisticRegressionExportImport(t *testing.T) {
	X, y := blobs([]float64{1, 2, 3}, 20, 4, 0.5)
	lr := NewLogisticRegression()
	require.NoError(t, lr.Fit(X, y))

	mw, err := lr.ExportWeights()
	require.NoError(t, err)
	assert.Equal(t, "LogisticRegression", mw.ModelType)
	assert.Equal(t, 1.0, mw.Hyperparameters["C"])

	data, err := mw.ToJSON()
	require.NoError(t, err)

	restored := NewLogisticRegression()
	decoded := mw.Clone()
	require.NoError(t, decoded.FromJSON(data))
	require.NoError(t, restored.ImportWeights(decoded))

	want, err := lr.PredictProba(X)
	require.NoError(t, err)
	got, err := restored.PredictProba(X)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))
	assert.Equal(t, lr.Classes(), restored.Classes())

	svc := NewLinearSVC()
	var verr *errors.ValidationError
	assert.True(t, errors.As(svc.ImportWeights(mw), &verr))
}

func TestLogisticRegressionRefit(t *testing.T) {
	X2, y2 := blobs([]float64{0, 1}, 20, 4, 0.5)
	X3, y3 := blobs([]float64{0, 1, 2}, 20, 4, 0.5)
	lr := NewLogisticRegression()
	require.NoError(t, lr.Fit(X3, y3))
	require.NoError(t, lr.Fit(X2, y2))

	assert.Equal(t, []int{0, 1}, lr.Classes())
	proba, err := lr.PredictProba(X2)
	require.NoError(t, err)
	_, cols := proba.Dims()
	assert.Equal(t, 2, cols)
}

func TestLogisticRegressionFitCanceled(t *testing.T) {
	X, y := blobs([]float64{0, 1}, 20, 4, 0.5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	lr := NewLogisticRegression()
	err := lr.FitContext(ctx, X, y)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, lr.IsFitted())
}

func BenchmarkLogisticRegressionFit(b *testing.B) {
	X, y := blobs([]float64{1, 2, 3}, 200, 4, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lr := NewLogisticRegression()
		if err := lr.Fit(X, y); err != nil {
			b.Fatal(err)
		}
	}
}

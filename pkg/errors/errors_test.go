package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("LogisticRegression", "Predict")
	assert.Equal(t,
		"golinear: LogisticRegression: this model is not fitted yet. Call Fit() before using Predict()",
		err.Error())

	var nfe *NotFittedError
	require.True(t, As(err, &nfe))
	assert.Equal(t, "Predict", nfe.Method)
}

func TestDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 3, 2, 1)
	assert.Contains(t, err.Error(), "axis 1 (features)")
	assert.Contains(t, err.Error(), "Expected 3, got 2")

	err = NewDimensionError("Fit", 4, 5, 0)
	assert.Contains(t, err.Error(), "axis 0 (rows)")
}

func TestConfigurationError(t *testing.T) {
	tests := []struct {
		name   string
		solver string
		reason string
		want   string
	}{
		{"with solver", "L2R_LR", "C <= 0", "golinear: invalid configuration for solver L2R_LR: C <= 0"},
		{"without solver", "", "unknown solver type 99", "golinear: invalid configuration: unknown solver type 99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfigurationError(tt.solver, tt.reason)
			assert.Equal(t, tt.want, err.Error())

			var ce *ConfigurationError
			require.True(t, As(err, &ce))
			assert.Equal(t, tt.reason, ce.Reason)
		})
	}
}

func TestUnsupportedOperationError(t *testing.T) {
	err := NewUnsupportedOperationError("PredictProbability", "L2R_L2LOSS_SVC", "probability output is only supported for logistic regression")
	var uoe *UnsupportedOperationError
	require.True(t, As(err, &uoe))
	assert.Equal(t, "L2R_L2LOSS_SVC", uoe.Solver)
	assert.Contains(t, err.Error(), "PredictProbability: not supported by solver L2R_L2LOSS_SVC")
}

func TestModelErrorUnwrap(t *testing.T) {
	err := NewModelError("Load", "parse failure", ErrEmptyData)
	assert.True(t, Is(err, ErrEmptyData))
	assert.Equal(t, "golinear: Load: parse failure: empty data", err.Error())
}

func TestNumericalInstabilityErrorTruncatesValues(t *testing.T) {
	err := NewNumericalInstabilityError("tron.fun", []float64{1, 2, 3, 4, 5, 6, 7}, 3)
	assert.Contains(t, err.Error(), "tron.fun at iteration 3")
	assert.Contains(t, err.Error(), "...")
}

func TestCheckScalar(t *testing.T) {
	assert.NoError(t, CheckScalar("op", 1.5, 0))

	nan := 0.0
	nan = nan / nan
	err := CheckScalar("op", nan, 2)
	var nie *NumericalInstabilityError
	require.True(t, As(err, &nie))
	assert.Equal(t, 2, nie.Iteration)
}

func TestCheckNumericalStabilityKeepsOffenders(t *testing.T) {
	assert.NoError(t, CheckNumericalStability("op", []float64{0, 1, -2}, 0))

	inf := 1.0
	for i := 0; i < 2000; i++ {
		inf *= 10
	}
	values := make([]float64, 20)
	for i := range values {
		values[i] = inf
	}
	err := CheckNumericalStability("linear.Train", values, 7)
	var nie *NumericalInstabilityError
	require.True(t, As(err, &nie))
	assert.Equal(t, "linear.Train", nie.Operation)
	assert.Equal(t, 7, nie.Iteration)
	assert.Len(t, nie.Values, 10)
}

func TestWarnPrefersExplicitHandler(t *testing.T) {
	var fromZerolog, fromHandler []error
	SetZerologWarnFunc(func(w error) { fromZerolog = append(fromZerolog, w) })
	defer SetZerologWarnFunc(nil)

	SetWarningHandler(func(w error) { fromHandler = append(fromHandler, w) })
	Warn(NewConvergenceWarning("tron", 1000, ""))
	assert.Len(t, fromHandler, 1)
	assert.Empty(t, fromZerolog)

	SetWarningHandler(nil)
	Warn(NewClassWeightWarning(7, 2))
	assert.Len(t, fromHandler, 1)
	require.Len(t, fromZerolog, 1)

	var cw *ClassWeightWarning
	require.True(t, As(fromZerolog[0], &cw))
	assert.Equal(t, 7, cw.Label)
}

func TestWarningMessages(t *testing.T) {
	assert.Equal(t,
		"tron failed to converge after 10 iterations. Consider increasing max_iter or loosening eps.",
		NewConvergenceWarning("tron", 10, "").Error())
	assert.Equal(t,
		"class label 3 specified in weight is not found (weight 0.5 ignored)",
		NewClassWeightWarning(3, 0.5).Error())
	assert.Contains(t, NewUndefinedMetricWarning("AUC", "only one class present", 0.5).Error(), "'AUC' is ill-defined")
	assert.Contains(t, NewDataConversionWarning("float64", "int", "class labels").Error(), "float64 to int")
}

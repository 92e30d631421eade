package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	err := s.RequireFitted("LinearSVC", "Predict")
	var nfe *errors.NotFittedError
	require.True(t, errors.As(err, &nfe))
	assert.Equal(t, "LinearSVC", nfe.ModelName)

	s.SetDimensions(3, 10)
	s.SetFitted()
	assert.NoError(t, s.RequireFitted("LinearSVC", "Predict"))
	assert.NoError(t, s.RequireFeatures("Predict", 3))

	var de *errors.DimensionError
	require.True(t, errors.As(s.RequireFeatures("Predict", 2), &de))
	assert.Equal(t, 3, de.Expected)

	s.Reset()
	assert.False(t, s.IsFitted())
	nf, ns := s.GetDimensions()
	assert.Zero(t, nf)
	assert.Zero(t, ns)
}

func sampleWeights() *ModelWeights {
	return (&ModelWeights{
		ModelType:    "liblinear",
		Version:      WeightsVersion,
		Solver:       "L2R_LR",
		NrClass:      3,
		NrFeature:    2,
		Labels:       []int{1, 2, 3},
		Bias:         1,
		Coefficients: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9},
	}).Seal()
}

func TestModelWeightsJSON(t *testing.T) {
	mw := sampleWeights()
	data, err := mw.ToJSON()
	require.NoError(t, err)

	var decoded ModelWeights
	require.NoError(t, decoded.FromJSON(data))
	assert.Equal(t, mw.Coefficients, decoded.Coefficients)
	assert.Equal(t, mw.Checksum, decoded.Checksum)
	assert.Equal(t, 3, decoded.NumFeatureColumns())
}

func TestModelWeightsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ModelWeights)
	}{
		{"missing type", func(mw *ModelWeights) { mw.ModelType = "" }},
		{"missing version", func(mw *ModelWeights) { mw.Version = "" }},
		{"label count", func(mw *ModelWeights) { mw.Labels = []int{1} }},
		{"coefficient count", func(mw *ModelWeights) { mw.Coefficients = mw.Coefficients[:4] }},
		{"checksum", func(mw *ModelWeights) { mw.Coefficients[0] = 42 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := sampleWeights()
			tt.mutate(mw)
			assert.Error(t, mw.Validate())
		})
	}
	assert.NoError(t, sampleWeights().Validate())
}

func TestModelWeightsClone(t *testing.T) {
	mw := sampleWeights()
	mw.Hyperparameters = map[string]interface{}{"C": 1.0}
	clone := mw.Clone()
	clone.Coefficients[0] = 99
	clone.Labels[0] = 99
	clone.Hyperparameters["C"] = 2.0

	assert.Equal(t, 0.1, mw.Coefficients[0])
	assert.Equal(t, 1, mw.Labels[0])
	assert.Equal(t, 1.0, mw.Hyperparameters["C"])
}

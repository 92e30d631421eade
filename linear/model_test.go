package linear

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/golinear/core/model"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

func TestDecisionCoefficientBinary(t *testing.T) {
	m := &Model{solver: L2RLR, nrClass: 2, nrFeature: 2, bias: 2, w: []float64{0.5, -1, 0.25}, label: []int{1, -1}}
	assert.Equal(t, 0.5, coefAt(t, m, 1, 0))
	assert.Equal(t, -0.5, coefAt(t, m, 1, 1))
	assert.Equal(t, 0.0, coefAt(t, m, 3, 0))
	assert.Equal(t, 0.0, coefAt(t, m, 1, 2))

	b, err := m.DecisionBias(0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, b)
	b, err = m.DecisionBias(1)
	require.NoError(t, err)
	assert.Equal(t, -0.5, b)
}

func TestDecisionCoefficientMultiClass(t *testing.T) {
	// two features, no bias, three classes
	m := &Model{solver: MCSVMCS, nrClass: 3, nrFeature: 2, bias: -1, w: []float64{1, 2, 3, 4, 5, 6}, label: []int{1, 2, 3}}
	assert.Equal(t, 2.0, coefAt(t, m, 1, 1))
	assert.Equal(t, 6.0, coefAt(t, m, 2, 2))
	b, err := m.DecisionBias(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, b)
}

func TestDecisionAccessorsAfterRelease(t *testing.T) {
	m := &Model{solver: L2RLR, nrClass: 2, nrFeature: 1, bias: 1, w: []float64{1, 0.5}, label: []int{1, -1}}
	require.NoError(t, m.Release())

	_, err := m.DecisionCoefficient(1, 0)
	assert.ErrorIs(t, err, errors.ErrReleased)
	_, err = m.DecisionBias(0)
	assert.ErrorIs(t, err, errors.ErrReleased)
}

func TestAccessorsCopy(t *testing.T) {
	m := &Model{solver: L2RLR, nrClass: 2, nrFeature: 1, bias: -1, w: []float64{1}, label: []int{1, -1}}
	m.Weights()[0] = 9
	m.Labels()[0] = 9
	assert.Equal(t, []float64{1}, m.w)
	assert.Equal(t, []int{1, -1}, m.label)
}

func TestExportWeightsRoundTrip(t *testing.T) {
	prob := blobs(t, []float64{1, 2, 3}, 10, 2, 0.5, 1)
	m, err := Train(context.Background(), prob, mustParam(t))
	require.NoError(t, err)

	mw, err := m.ExportWeights()
	require.NoError(t, err)
	assert.Equal(t, "liblinear", mw.ModelType)
	assert.Equal(t, "L2R_LR", mw.Solver)
	assert.Equal(t, mw.ComputeChecksum(), mw.Checksum)

	data, err := mw.ToJSON()
	require.NoError(t, err)
	var decoded model.ModelWeights
	require.NoError(t, decoded.FromJSON(data))

	restored, err := ModelFromWeights(&decoded)
	require.NoError(t, err)
	assert.Equal(t, m.Weights(), restored.Weights())
	assert.Equal(t, m.Labels(), restored.Labels())
	assert.Equal(t, m.Iterations(), restored.Iterations())
	for _, x := range prob.X {
		want, _ := m.Predict(x)
		got, err := restored.Predict(x)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	decoded.Coefficients = decoded.Coefficients[:3]
	decoded.Checksum = ""
	_, err = ModelFromWeights(&decoded)
	assert.Error(t, err)
}

func TestExportWeightsAfterRelease(t *testing.T) {
	m := &Model{solver: L2RLR, nrClass: 2, nrFeature: 1, bias: -1, w: []float64{1}, label: []int{1, -1}}
	require.NoError(t, m.Release())
	_, err := m.ExportWeights()
	assert.Error(t, err)
}

func TestModelFromWeightsRejectsNonFinite(t *testing.T) {
	m := &Model{solver: L2RLR, nrClass: 2, nrFeature: 2, bias: -1, w: []float64{1, 2}, label: []int{1, -1}}
	mw, err := m.ExportWeights()
	require.NoError(t, err)
	mw.Coefficients[1] = math.NaN()
	mw.Seal()

	_, err = ModelFromWeights(mw)
	var nie *errors.NumericalInstabilityError
	require.True(t, errors.As(err, &nie))
}

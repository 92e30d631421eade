package capi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// 2 features, 2 well separated classes.
var (
	xorFree = []float64{
		2, 2,
		3, 2,
		2, 3,
		-2, -2,
		-3, -2,
		-2, -3,
	}
	xorFreeLabels = []float64{1, 1, 1, -1, -1, -1}
)

func TestLifecycle(t *testing.T) {
	param, err := PrepareParam(0, 1, 0.01, 0, nil, nil, 0.1, 0.5, nil, 1)
	require.NoError(t, err)
	prob, err := InitProblem(xorFree, xorFreeLabels, 6, 2, 1)
	require.NoError(t, err)

	m, err := TrainModel(prob, param)
	require.NoError(t, err)
	assert.Equal(t, 2, m.NumFeatures())

	pred, err := PredictOne(m, []float64{2.5, 2.5}, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, pred)
	pred, err = PredictOne(m, []float64{-2.5, -2.5}, 2)
	require.NoError(t, err)
	assert.Equal(t, -1.0, pred)

	probs, err := PredictOneProb(m, []float64{2.5, 2.5})
	require.NoError(t, err)
	require.Len(t, probs, 2)
	assert.InDelta(t, 1.0, probs[0]+probs[1], 1e-12)
	assert.Greater(t, probs[0], 0.5)

	require.NoError(t, FreeModel(m))
	require.NoError(t, FreeProblem(prob))
	require.NoError(t, FreeParam(param))

	_, err = PredictOne(m, []float64{1, 1}, 2)
	assert.ErrorIs(t, err, errors.ErrReleased)
	_, err = TrainModel(prob, param)
	assert.ErrorIs(t, err, errors.ErrReleased)
}

func TestPrepareParamCopiesArrays(t *testing.T) {
	labels := []int{1, -1}
	weights := []float64{2, 0.5}
	initSol := []float64{0.1, 0.2, 0.3}

	param, err := PrepareParam(0, 1, 0.01, 2, labels, weights, 0.1, 0.5, initSol, 1)
	require.NoError(t, err)

	labels[0], weights[0], initSol[0] = 99, 99, 99
	require.Len(t, param.ClassWeights, 2)
	assert.Equal(t, 1, param.ClassWeights[0].Label)
	assert.Equal(t, 2.0, param.ClassWeights[0].Weight)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, param.InitSol)
	assert.True(t, param.RegularizeBias)
}

func TestPrepareParamErrors(t *testing.T) {
	tests := []struct {
		name   string
		call   func() error
		target interface{}
	}{
		{
			name: "unknown solver",
			call: func() error {
				_, err := PrepareParam(8, 1, 0.01, 0, nil, nil, 0.1, 0.5, nil, 1)
				return err
			},
			target: new(*errors.ConfigurationError),
		},
		{
			name: "non-positive C",
			call: func() error {
				_, err := PrepareParam(0, 0, 0.01, 0, nil, nil, 0.1, 0.5, nil, 1)
				return err
			},
			target: new(*errors.ConfigurationError),
		},
		{
			name: "weight count mismatch",
			call: func() error {
				_, err := PrepareParam(0, 1, 0.01, 2, []int{1}, []float64{1, 2}, 0.1, 0.5, nil, 1)
				return err
			},
			target: new(*errors.DimensionError),
		},
		{
			name: "negative weight count",
			call: func() error {
				_, err := PrepareParam(0, 1, 0.01, -1, nil, nil, 0.1, 0.5, nil, 1)
				return err
			},
			target: new(*errors.ValidationError),
		},
		{
			name: "init sol on dual solver",
			call: func() error {
				_, err := PrepareParam(1, 1, 0.01, 0, nil, nil, 0.1, 0.5, []float64{0, 0}, 1)
				return err
			},
			target: new(*errors.ConfigurationError),
		},
		{
			name: "unregularized bias on dual solver",
			call: func() error {
				_, err := PrepareParam(3, 1, 0.01, 0, nil, nil, 0.1, 0.5, nil, 0)
				return err
			},
			target: new(*errors.ConfigurationError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, errors.As(err, tt.target), "unexpected error type: %v", err)
		})
	}
}

func TestInitProblemLayout(t *testing.T) {
	prob, err := InitProblem([]float64{1, 0, 2, 3}, []float64{1, -1}, 2, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, prob.N)
	for _, row := range prob.X {
		require.Len(t, row, 4)
		assert.Equal(t, 3, row[2].Index)
		assert.Equal(t, 1.0, row[2].Value)
		assert.Equal(t, -1, row[3].Index)
	}

	noBias, err := InitProblem([]float64{1, 0, 2, 3}, []float64{1, -1}, 2, 2, -1)
	require.NoError(t, err)
	assert.Equal(t, 2, noBias.N)
	assert.Equal(t, -1, noBias.X[0][2].Index)

	_, err = InitProblem([]float64{1, 2, 3}, []float64{1, -1}, 2, 2, 1)
	assert.Error(t, err)
}

func TestPredictOneFeatureCount(t *testing.T) {
	param, err := PrepareParam(2, 1, 0.01, 0, nil, nil, 0.1, 0.5, nil, 1)
	require.NoError(t, err)
	prob, err := InitProblem(xorFree, xorFreeLabels, 6, 2, 1)
	require.NoError(t, err)
	m, err := TrainModel(prob, param)
	require.NoError(t, err)

	_, err = PredictOne(m, []float64{1, 1, 1}, 3)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = PredictOne(m, []float64{1}, 2)
	assert.True(t, errors.As(err, &dimErr))

	// 長すぎる入力も切り詰めずに拒否する
	_, err = PredictOne(m, []float64{1, 1, 1}, 2)
	assert.True(t, errors.As(err, &dimErr))
}

func TestPredictOneProbUnsupported(t *testing.T) {
	param, err := PrepareParam(1, 1, 0.01, 0, nil, nil, 0.1, 0.5, nil, 1)
	require.NoError(t, err)
	prob, err := InitProblem(xorFree, xorFreeLabels, 6, 2, 1)
	require.NoError(t, err)
	m, err := TrainModel(prob, param)
	require.NoError(t, err)

	probs, err := PredictOneProb(m, []float64{1, 1})
	assert.Nil(t, probs)
	var unsupported *errors.UnsupportedOperationError
	assert.True(t, errors.As(err, &unsupported))
}

// PredictOneProb が nr_class ではなく nr_feature の長さで入力を読むこと。
func TestPredictOneProbUsesFeatureCount(t *testing.T) {
	data := make([]float64, 0, 6*3)
	for i := 0; i < 6; i++ {
		data = append(data, xorFree[2*i], xorFree[2*i+1], float64(i%2))
	}
	param, err := PrepareParam(0, 1, 0.01, 0, nil, nil, 0.1, 0.5, nil, 1)
	require.NoError(t, err)
	prob, err := InitProblem(data, xorFreeLabels, 6, 3, 1)
	require.NoError(t, err)
	m, err := TrainModel(prob, param)
	require.NoError(t, err)

	probs, err := PredictOneProb(m, []float64{2.5, 2.5, 0})
	require.NoError(t, err)
	require.Len(t, probs, 2)
	assert.False(t, math.IsNaN(probs[0]))

	var dimErr *errors.DimensionError
	_, err = PredictOneProb(m, []float64{2.5, 2.5})
	assert.True(t, errors.As(err, &dimErr))
	_, err = PredictOneProb(m, []float64{2.5, 2.5, 0, 0})
	assert.True(t, errors.As(err, &dimErr))
}

func TestMulticlassProbabilities(t *testing.T) {
	data := []float64{
		5, 0, 6, 0, 5, 1,
		0, 5, 0, 6, 1, 5,
		-5, -5, -6, -5, -5, -6,
	}
	labels := []float64{1, 1, 1, 2, 2, 2, 3, 3, 3}
	param, err := PrepareParam(7, 1, 0.01, 0, nil, nil, 0.1, 0.5, nil, 1)
	require.NoError(t, err)
	prob, err := InitProblem(data, labels, 9, 2, 1)
	require.NoError(t, err)
	m, err := TrainModel(prob, param)
	require.NoError(t, err)

	probs, err := PredictOneProb(m, []float64{0, 6})
	require.NoError(t, err)
	require.Len(t, probs, 3)
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.Greater(t, probs[1], probs[0])
	assert.Greater(t, probs[1], probs[2])
}

func TestNilArguments(t *testing.T) {
	assert.Error(t, FreeParam(nil))
	assert.Error(t, FreeProblem(nil))
	assert.Error(t, FreeModel(nil))
	_, err := TrainModel(nil, nil)
	assert.Error(t, err)
	_, err = PredictOne(nil, nil, 0)
	assert.Error(t, err)
	_, err = PredictOneProb(nil, nil)
	assert.Error(t, err)
}

package linear

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/sparse"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	cases := []struct {
		solver SolverType
		prob   *sparse.Problem
	}{
		{L2RLR, blobs(t, []float64{1, -1}, 10, 2, 0.5, 1)},
		{MCSVMCS, blobs(t, []float64{1, 2, 3}, 10, 2, 0.5, 1)},
		{L2RL2LossSVCDual, blobs(t, []float64{4, 5, 6}, 10, 2, 0.5, -1)},
		{L2RL2LossSVR, linearTargets(t, 1)},
		{OneClassSVM, linearTargets(t, -1)},
	}
	for _, tc := range cases {
		t.Run(tc.solver.String(), func(t *testing.T) {
			m, err := Train(context.Background(), tc.prob, mustParam(t, WithSolver(tc.solver)))
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, m.Save(&buf))
			text := buf.String()
			assert.True(t, strings.HasPrefix(text, "solver_type "+tc.solver.String()+"\n"))
			assert.Equal(t, tc.solver.IsOneClass(), strings.Contains(text, "\nrho "))

			loaded, err := Load(&buf)
			require.NoError(t, err)
			assert.Equal(t, m.SolverType(), loaded.SolverType())
			assert.Equal(t, m.NumClasses(), loaded.NumClasses())
			assert.Equal(t, m.NumFeatures(), loaded.NumFeatures())
			assert.Equal(t, m.Labels(), loaded.Labels())
			assert.Equal(t, m.Bias(), loaded.Bias())
			assert.Equal(t, m.Rho(), loaded.Rho())
			assert.Equal(t, m.Weights(), loaded.Weights())

			for _, x := range tc.prob.X {
				want, err := m.Predict(x)
				require.NoError(t, err)
				got, err := loaded.Predict(x)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestSaveFileLoadFile(t *testing.T) {
	prob := blobs(t, []float64{1, -1}, 10, 2, 0.5, 1)
	m, err := Train(context.Background(), prob, mustParam(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.txt")
	require.NoError(t, m.SaveFile(path))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.Weights(), loaded.Weights())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoadLiblinearFile(t *testing.T) {
	text := `solver_type L2R_L2LOSS_SVC_DUAL
nr_class 2
label 1 -1
nr_feature 2
bias -1
w
0.5 
-0.25 
`
	m, err := Load(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, L2RL2LossSVCDual, m.SolverType())
	assert.Equal(t, []float64{0.5, -0.25}, m.Weights())

	label, err := m.Predict(sparse.Vector{{Index: 1, Value: 1}, {Index: sparse.Sentinel}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, label)
}

func TestLoadLiblinearOneClassFile(t *testing.T) {
	text := "solver_type ONECLASS_SVM\nnr_class 2\nnr_feature 2\nbias -1\nrho 1.5\nw\n0.5 \n0.25 \n"
	m, err := Load(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, OneClassSVM, m.SolverType())
	assert.Equal(t, 1.5, m.Rho())
	assert.Equal(t, []int{1, -1}, m.Labels())

	inlier, err := m.Predict(sparse.Vector{{Index: 1, Value: 4}, {Index: 2, Value: 4}, {Index: sparse.Sentinel}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, inlier)
	outlier, err := m.Predict(sparse.Vector{{Index: sparse.Sentinel}})
	require.NoError(t, err)
	assert.Equal(t, -1.0, outlier)

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))
	assert.NotContains(t, buf.String(), "label")
}

func TestLoadOversizedHeader(t *testing.T) {
	tests := map[string]string{
		"huge nr_feature":     "solver_type L2R_LR\nnr_class 2\nlabel 1 -1\nnr_feature 9000000000000000000\nbias -1\nw\n0.1\n",
		"overflowing product": "solver_type L2R_LR\nnr_class 4\nlabel 1 2 3 4\nnr_feature 4000000000000000000\nbias 1\nw\n0.1\n",
		"huge nr_class":       "solver_type L2R_LR\nnr_class 9000000000000000000\nlabel 1 2\n",
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { _, err = Load(strings.NewReader(text)) })
			assert.Error(t, err)
		})
	}

	_, err := Load(strings.NewReader(tests["overflowing product"]))
	var verr *errors.ValidationError
	assert.True(t, errors.As(err, &verr), "unexpected error: %v", err)
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"unknown header":   "solver_type L2R_LR\nfoo 1\n",
		"unknown solver":   "solver_type L9\n",
		"truncated w":      "solver_type L2R_LR\nnr_class 2\nlabel 1 -1\nnr_feature 2\nbias -1\nw\n0.1\n",
		"bad number":       "solver_type L2R_LR\nnr_class two\n",
		"label first":      "solver_type L2R_LR\nlabel 1 -1\n",
		"missing labels":   "solver_type L2R_LR\nnr_class 2\nnr_feature 1\nbias -1\nw\n0.1\n",
		"empty":            "",
		"w before solver":  "nr_class 2\nw\n",
		"negative classes": "solver_type L2R_LR\nnr_class -2\n",
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(text))
			assert.Error(t, err)
		})
	}
}

func TestSaveAfterRelease(t *testing.T) {
	m := &Model{solver: L2RLR, nrClass: 2, nrFeature: 1, bias: -1, w: []float64{1}, label: []int{1, -1}}
	require.NoError(t, m.Release())
	assert.Error(t, m.Save(&bytes.Buffer{}))
}

package linear

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/sparse"
)

func TestPredictProbabilitySumsToOne(t *testing.T) {
	binary := blobs(t, []float64{1, -1}, 20, 2, 0.8, 1)
	multi := blobs(t, []float64{1, 2, 3, 4}, 15, 3, 0.8, 1)
	for _, s := range []SolverType{L2RLR, L1RLR, L2RLRDual} {
		for _, prob := range []*sparse.Problem{binary, multi} {
			m, err := Train(context.Background(), prob, mustParam(t, WithSolver(s)))
			require.NoError(t, err)
			require.True(t, m.IsProbabilityModel())

			probs := make([]float64, m.NumClasses())
			for _, x := range prob.X {
				label, err := m.PredictProbability(x, probs)
				require.NoError(t, err)
				sum := 0.0
				best := 0
				for k, p := range probs {
					assert.GreaterOrEqual(t, p, 0.0)
					sum += p
					if p > probs[best] {
						best = k
					}
				}
				assert.InDelta(t, 1.0, sum, 1e-6, s.String())
				assert.Equal(t, float64(m.Labels()[best]), label)
			}
		}
	}
}

func TestPredictProbabilityUnsupported(t *testing.T) {
	cls := blobs(t, []float64{1, -1}, 10, 2, 0.5, 1)
	for _, s := range SolverTypes() {
		if s.IsLogisticRegression() {
			continue
		}
		t.Run(s.String(), func(t *testing.T) {
			prob := cls
			if s.IsRegression() {
				prob = linearTargets(t, 1)
			} else if s.IsOneClass() {
				prob = linearTargets(t, -1)
			}
			m, err := Train(context.Background(), prob, mustParam(t, WithSolver(s)))
			require.NoError(t, err)
			_, err = m.PredictProbability(prob.X[0], make([]float64, m.NumClasses()))
			var unsupported *errors.UnsupportedOperationError
			assert.True(t, errors.As(err, &unsupported))
		})
	}
}

func TestPredictProbabilityLength(t *testing.T) {
	prob := blobs(t, []float64{1, -1}, 10, 2, 0.5, 1)
	m, err := Train(context.Background(), prob, mustParam(t))
	require.NoError(t, err)
	_, err = m.PredictProbability(prob.X[0], make([]float64, 3))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))
}

func TestPredictIdempotent(t *testing.T) {
	prob := blobs(t, []float64{1, 2, 3}, 10, 2, 0.8, 1)
	m, err := Train(context.Background(), prob, mustParam(t))
	require.NoError(t, err)

	probs1 := make([]float64, 3)
	probs2 := make([]float64, 3)
	for _, x := range prob.X {
		l1, err := m.PredictProbability(x, probs1)
		require.NoError(t, err)
		l2, err := m.PredictProbability(x, probs2)
		require.NoError(t, err)
		assert.Equal(t, math.Float64bits(l1), math.Float64bits(l2))
		for k := range probs1 {
			assert.Equal(t, math.Float64bits(probs1[k]), math.Float64bits(probs2[k]))
		}
	}
}

func TestPredictIgnoresUnseenFeatures(t *testing.T) {
	prob := blobs(t, []float64{1, -1}, 10, 2, 0.5, -1)
	m, err := Train(context.Background(), prob, mustParam(t))
	require.NoError(t, err)

	x := sparse.Vector{{Index: 1, Value: 1}, {Index: 2, Value: -1}, {Index: sparse.Sentinel}}
	extended := sparse.Vector{{Index: 1, Value: 1}, {Index: 2, Value: -1}, {Index: 9, Value: 100}, {Index: sparse.Sentinel}}
	d1, d2 := make([]float64, 1), make([]float64, 1)
	_, err = m.PredictValues(x, d1)
	require.NoError(t, err)
	_, err = m.PredictValues(extended, d2)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestPredictValuesMultiClassArgmax(t *testing.T) {
	m := &Model{
		solver:    L2RL2LossSVCDual,
		nrClass:   3,
		nrFeature: 1,
		bias:      -1,
		w:         []float64{1, 3, 3},
		label:     []int{5, 6, 7},
	}
	dec := make([]float64, 3)
	label, err := m.PredictValues(sparse.Vector{{Index: 1, Value: 1}, {Index: sparse.Sentinel}}, dec)
	require.NoError(t, err)
	// ties go to the first class
	assert.Equal(t, 6.0, label)
	assert.Equal(t, []float64{1, 3, 3}, dec)

	_, err = m.PredictValues(sparse.Vector{{Index: sparse.Sentinel}}, make([]float64, 2))
	assert.Error(t, err)
}

func TestPredictBatchMatchesPredict(t *testing.T) {
	prob := blobs(t, []float64{1, 2, 3}, 200, 2, 1, 1)
	m, err := Train(context.Background(), prob, mustParam(t, WithSolver(L2RL2LossSVCDual)))
	require.NoError(t, err)
	batch, err := m.PredictBatch(prob.X)
	require.NoError(t, err)
	for i, x := range prob.X {
		want, err := m.Predict(x)
		require.NoError(t, err)
		assert.Equal(t, want, batch[i])
	}
}

func TestDenseVector(t *testing.T) {
	m := &Model{solver: L2RLR, nrClass: 2, nrFeature: 2, bias: 1, w: []float64{1, 1, 1}, label: []int{1, -1}}
	x, err := m.DenseVector([]float64{0.5, 0})
	require.NoError(t, err)
	assert.Equal(t, sparse.Vector{{Index: 1, Value: 0.5}, {Index: 2, Value: 0}, {Index: 3, Value: 1}, {Index: sparse.Sentinel}}, x)

	_, err = m.DenseVector([]float64{1})
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))
}

func TestModelRelease(t *testing.T) {
	prob := blobs(t, []float64{1, -1}, 10, 2, 0.5, 1)
	m, err := Train(context.Background(), prob, mustParam(t))
	require.NoError(t, err)

	// An in-flight prediction holds the read lock.
	m.mu.RLock()
	done := make(chan struct{})
	go func() {
		_ = m.Release()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("Release returned while a prediction was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	m.mu.RUnlock()
	<-done

	assert.True(t, m.Released())
	_, err = m.Predict(prob.X[0])
	assert.ErrorIs(t, err, errors.ErrReleased)
	_, err = m.PredictBatch(prob.X)
	assert.ErrorIs(t, err, errors.ErrReleased)
	assert.NoError(t, m.Release())
}

func TestConcurrentPredict(t *testing.T) {
	prob := blobs(t, []float64{1, 2, 3}, 30, 2, 0.8, 1)
	m, err := Train(context.Background(), prob, mustParam(t))
	require.NoError(t, err)
	want, err := m.PredictBatch(prob.X)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			probs := make([]float64, 3)
			for i, x := range prob.X {
				got, err := m.PredictProbability(x, probs)
				if assert.NoError(t, err) {
					assert.Equal(t, want[i], got)
				}
			}
		}()
	}
	wg.Wait()
}

package linear

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/golinear/sparse"
)

// blobs draws nPerClass points around one center per label on a circle of
// radius spread, with unit-scale noise.
func blobs(t testing.TB, labels []float64, nPerClass int, spread, noise, bias float64) *sparse.Problem {
	t.Helper()
	rng := rand.New(rand.NewPCG(7, 11))
	var data, y []float64
	for i := 0; i < nPerClass; i++ {
		for k, lab := range labels {
			angle := 2 * math.Pi * float64(k) / float64(len(labels))
			data = append(data,
				spread*math.Cos(angle)+noise*rng.NormFloat64(),
				spread*math.Sin(angle)+noise*rng.NormFloat64())
			y = append(y, lab)
		}
	}
	prob, err := sparse.NewProblem(data, y, len(y), 2, bias)
	require.NoError(t, err)
	return prob
}

// linearTargets builds y = 2*x1 - x2 + 1 on a grid.
func linearTargets(t testing.TB, bias float64) *sparse.Problem {
	t.Helper()
	var data, y []float64
	for i := -3; i <= 3; i++ {
		for j := -3; j <= 3; j++ {
			x1, x2 := float64(i)/2, float64(j)/2
			data = append(data, x1, x2)
			y = append(y, 2*x1-x2+1)
		}
	}
	prob, err := sparse.NewProblem(data, y, len(y), 2, bias)
	require.NoError(t, err)
	return prob
}

func trainingAccuracy(t testing.TB, m *Model, prob *sparse.Problem) float64 {
	t.Helper()
	pred, err := m.PredictBatch(prob.X)
	require.NoError(t, err)
	correct := 0
	for i, p := range pred {
		if p == prob.Y[i] {
			correct++
		}
	}
	return float64(correct) / float64(prob.L)
}

func mustParam(t testing.TB, opts ...Option) *Parameter {
	t.Helper()
	p, err := NewParameter(opts...)
	require.NoError(t, err)
	return p
}

func coefAt(t testing.TB, m *Model, featIdx, labelIdx int) float64 {
	t.Helper()
	v, err := m.DecisionCoefficient(featIdx, labelIdx)
	require.NoError(t, err)
	return v
}

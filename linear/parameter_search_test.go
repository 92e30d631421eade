package linear

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/sparse"
)

func TestFindParametersClassification(t *testing.T) {
	prob := blobs(t, []float64{1, -1}, 20, 2, 0.8, 1)
	for _, s := range []SolverType{L2RLR, L2RL2LossSVC} {
		t.Run(s.String(), func(t *testing.T) {
			res, err := FindParameters(context.Background(), prob, mustParam(t, WithSolver(s)), 5, -1, -1)
			require.NoError(t, err)
			assert.Equal(t, -1.0, res.BestP)
			assert.Positive(t, res.BestC)
			assert.LessOrEqual(t, res.BestC, searchMaxC)
			assert.GreaterOrEqual(t, res.BestScore, 0.85)
			assert.LessOrEqual(t, res.BestScore, 1.0)
			// C values are powers of two from the automatic start
			assert.Equal(t, res.BestC, math.Pow(2, math.Round(math.Log2(res.BestC))))
		})
	}
}

func TestFindParametersRegression(t *testing.T) {
	prob := linearTargets(t, 1)
	res, err := FindParameters(context.Background(), prob, mustParam(t, WithSolver(L2RL2LossSVR)), 3, 0, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.BestP, 0.0)
	assert.Less(t, res.BestP, calcMaxP(prob))
	assert.Less(t, res.BestScore, 0.1)
}

func TestFindParametersUnsupported(t *testing.T) {
	prob := blobs(t, []float64{1, -1}, 5, 2, 0.5, 1)
	_, err := FindParameters(context.Background(), prob, mustParam(t, WithSolver(L2RL1LossSVCDual)), 3, 1, 0)
	var unsupported *errors.UnsupportedOperationError
	assert.True(t, errors.As(err, &unsupported))
}

func TestCalcStartC(t *testing.T) {
	prob, err := sparse.NewProblem([]float64{1, 1, 2, 0}, []float64{1, -1}, 2, 2, -1)
	require.NoError(t, err)
	// max x^T x = 4, l = 2
	assert.Equal(t, 0.125, calcStartC(prob, mustParam(t, WithSolver(L2RLR))))
	assert.Equal(t, 0.0625, calcStartC(prob, mustParam(t, WithSolver(L2RL2LossSVC))))

	// loss = (1-0.5)^2 + (1-0.5)^2 = 0.5, sum|y| = 2: 0.01*0.5/(8*4*4) = 3.90625e-5
	svr := mustParam(t, WithSolver(L2RL2LossSVR), WithP(0.5))
	assert.Equal(t, math.Pow(2, -15), calcStartC(prob, svr))

	assert.True(t, math.IsInf(calcStartC(prob, mustParam(t, WithSolver(L2RL2LossSVR), WithP(2))), 1))
}

package linear_model

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// blobs places nPerClass noisy points around one center per label on a circle
// of radius spread.
func blobs(labels []float64, nPerClass int, spread, noise float64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(3, 5))
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
	return mat.NewDense(len(y), 2, data), mat.NewDense(len(y), 1, y)
}

// plane は y = 2*x1 - x2 + 1 を格子上で生成する
func plane() (*mat.Dense, *mat.Dense) {
	var data, y []float64
	for i := -3; i <= 3; i++ {
		for j := -3; j <= 3; j++ {
			x1, x2 := float64(i)/2, float64(j)/2
			data = append(data, x1, x2)
			y = append(y, 2*x1-x2+1)
		}
	}
	return mat.NewDense(len(y), 2, data), mat.NewDense(len(y), 1, y)
}

func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var got []error
	errors.SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() { errors.SetWarningHandler(nil) })
	return &got
}

// rowDecision computes coef·x + intercept for row i and decision row k.
func rowDecision(coef mat.Matrix, intercept []float64, X mat.Matrix, i, k int) float64 {
	_, n := X.Dims()
	v := intercept[k]
	for j := 0; j < n; j++ {
		v += coef.At(k, j) * X.At(i, j)
	}
	return v
}

// Package metrics scores predictions of the golinear models. Every function takes
// the ground truth first and the prediction second.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// checkPair は入力ベクトルの長さを検証し、生データを返す
func checkPair(op string, yTrue, yPred *mat.VecDense) ([]float64, []float64, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return nil, nil, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return nil, nil, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return mat.Col(nil, 0, yTrue), mat.Col(nil, 0, yPred), nil
}

// columnVectors は (n×1) 行列のペアを VecDense に変換する
func columnVectors(op string, yTrue, yPred mat.Matrix) (*mat.VecDense, *mat.VecDense, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 || cTrue == 0 {
		return nil, nil, errors.NewValueError(op, "empty matrix")
	}
	if rTrue != rPred || cTrue != cPred {
		return nil, nil, errors.NewDimensionError(op, rTrue, rPred, 0)
	}
	if cTrue != 1 {
		return nil, nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}
	return mat.NewVecDense(rTrue, mat.Col(nil, 0, yTrue)), mat.NewVecDense(rPred, mat.Col(nil, 0, yPred)), nil
}

// MSE は平均二乗誤差を計算する。liblinear の交差検証と同じ定義
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := range t {
		d := t[i] - p[i]
		sum += d * d
	}
	return sum / float64(len(t)), nil
}

// MSEMatrix は (n×1) 行列版の MSE
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columnVectors("MSEMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return MSE(t, p)
}

// RMSE は平方根平均二乗誤差
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := range t {
		sum += math.Abs(t[i] - p[i])
	}
	return sum / float64(len(t)), nil
}

// R2Score は決定係数 1 - RSS/TSS を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if stat.Variance(t, nil) == 0 || len(t) == 1 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return stat.RSquaredFrom(p, t, nil), nil
}

// MAPE は平均絶対パーセント誤差。yTrue がゼロの要素は除外する
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p, err := checkPair("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	valid := 0
	for i := range t {
		if t[i] == 0 {
			continue
		}
		sum += math.Abs(t[i]-p[i]) / math.Abs(t[i])
		valid++
	}
	if valid == 0 {
		return 0, errors.Newf("MAPE: all yTrue values are zero")
	}
	return sum / float64(valid) * 100, nil
}

// ExplainedVarianceScore は 1 - Var(yTrue - yPred) / Var(yTrue)
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p, err := checkPair("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if len(t) == 1 {
		return 0, errors.Newf("ExplainedVarianceScore: no variance in yTrue")
	}
	varTrue := stat.Variance(t, nil)
	if varTrue == 0 {
		return 0, errors.Newf("ExplainedVarianceScore: no variance in yTrue")
	}
	diff := make([]float64, len(t))
	for i := range t {
		diff[i] = t[i] - p[i]
	}
	return 1 - stat.Variance(diff, nil)/varTrue, nil
}

// SquaredCorrelation は二乗相関係数 r^2。liblinear が回帰の交差検証で報告する値
func SquaredCorrelation(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p, err := checkPair("SquaredCorrelation", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if len(t) < 2 || stat.Variance(t, nil) == 0 || stat.Variance(p, nil) == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("SquaredCorrelation", "constant input", 0))
		return 0, nil
	}
	r := stat.Correlation(t, p, nil)
	return r * r, nil
}

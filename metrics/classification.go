package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// logLossEps は BinaryLogLoss の確率クリップ幅
const logLossEps = 1e-15

// Accuracy は予測ラベルが一致した割合
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := range t {
		if t[i] == p[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(t)), nil
}

// ClassificationError は 1 - Accuracy
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "ClassificationError")
	}
	return 1 - acc, nil
}

// AUC は ROC 曲線下の面積を順位統計 (Mann-Whitney U) で計算する。
// yTrue は 0/1（または -1/+1）、同順位は平均順位で扱う
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	t, s, err := checkPair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	n := len(t)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return s[order[a]] < s[order[b]] })

	var nPos, nNeg int
	var rankSumPos float64
	for i := 0; i < n; {
		j := i
		for j < n && s[order[j]] == s[order[i]] {
			j++
		}
		// 1-based の平均順位
		rank := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if t[order[k]] > 0 {
				nPos++
				rankSumPos += rank
			} else {
				nNeg++
			}
		}
		i = j
	}
	if nPos == 0 || nNeg == 0 {
		return 0, errors.NewValueError("AUC", "only one class present in yTrue")
	}
	u := rankSumPos - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg)), nil
}

// AUCMatrix は (n×1) 行列版の AUC
func AUCMatrix(yTrue, yScore mat.Matrix) (float64, error) {
	t, s, err := columnVectors("AUCMatrix", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	return AUC(t, s)
}

// BinaryLogLoss は二値交差エントロピー。yTrue は 0/1、yProb は正クラスの確率
func BinaryLogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	t, p, err := checkPair("BinaryLogLoss", yTrue, yProb)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := range t {
		if t[i] != 0 && t[i] != 1 {
			return 0, errors.NewValidationError("yTrue", "must be 0 or 1", t[i])
		}
		q := math.Min(math.Max(p[i], logLossEps), 1-logLossEps)
		sum -= t[i]*math.Log(q) + (1-t[i])*math.Log(1-q)
	}
	return sum / float64(len(t)), nil
}

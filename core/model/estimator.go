// Package model provides the shared estimator interfaces, fitted-state bookkeeping
// and weight export types used by the golinear estimators.
package model

import "gonum.org/v1/gonum/mat"

// Estimator は学習状態とハイパーパラメータを公開するモデルのインターフェース
type Estimator interface {
	// IsFitted はモデルが学習済みかどうかを返す
	IsFitted() bool
	// GetParams はモデルのハイパーパラメータを返す
	GetParams() map[string]interface{}
	// SetParams はハイパーパラメータを設定する
	SetParams(params map[string]interface{}) error
}

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns accuracy for classifiers and R^2 for regressors.
	Score(X, y mat.Matrix) (float64, error)
}

// DecisionFunctioner は決定関数の値を返すモデルのインターフェース
type DecisionFunctioner interface {
	DecisionFunction(X mat.Matrix) (mat.Matrix, error)
}

// Classifier combines interfaces for classification models.
type Classifier interface {
	Estimator
	Fitter
	Predictor
	Scorer
	DecisionFunctioner

	// Classes returns the unique classes seen during fitting, sorted ascending.
	Classes() []int
}

// ProbabilisticClassifier は確率出力をサポートする分類器
type ProbabilisticClassifier interface {
	Classifier

	// PredictProba returns probability estimates, one column per entry of Classes().
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// Regressor combines interfaces for regression models.
type Regressor interface {
	Estimator
	Fitter
	Predictor
	Scorer
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	// Coef は学習された係数を (n_targets, n_features) の行列で返す
	Coef() (mat.Matrix, error)
	// Intercept は学習された切片を返す。切片なしの場合はゼロ
	Intercept() ([]float64, error)
	// ExportWeights は重みをシリアライズ可能な形式で返す
	ExportWeights() (*ModelWeights, error)
}

// Transformer は特徴量を学習済みの統計で変換するインターフェース
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
	// InverseTransform は Transform の逆写像
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}

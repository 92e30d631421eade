// Package preprocessing scales dense feature matrices before they are handed
// to the linear solvers. Both scalers apply a per-column affine map learned on
// the training data and reuse it for prediction-time inputs.
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/golinear/core/model"
	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// constantTol 以下の幅の列は定数列として扱う
const constantTol = 1e-12

// affine は列ごとの写像 x' = (x - shift) * mul + add
type affine struct {
	shift []float64
	mul   []float64
	add   []float64
}

func (a *affine) apply(name, op string, state *model.StateManager, X mat.Matrix, inverse bool) (mat.Matrix, error) {
	if err := state.RequireFitted(name, op); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := state.RequireFeatures(name+"."+op, c); err != nil {
		return nil, err
	}
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		if inverse {
			return (v-a.add[j])/a.mul[j] + a.shift[j]
		}
		return (v-a.shift[j])*a.mul[j] + a.add[j]
	}, X)
	return out, nil
}

func checkFitInput(op string, X mat.Matrix) (int, int, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := X.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, 0, errors.NewValueError(op, fmt.Sprintf("non-finite value at (%d, %d)", i, j))
			}
		}
	}
	return r, c, nil
}

// StandardScaler は各列を平均0、分散1に標準化する（母分散を使う）
type StandardScaler struct {
	state *model.StateManager
	affine

	WithMean bool
	WithStd  bool

	// Mean と Scale は Fit 後に設定される列ごとの平均と標準偏差
	Mean  []float64
	Scale []float64
}

var _ model.Transformer = (*StandardScaler)(nil)

// NewStandardScaler は新しいStandardScalerを作成する
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{state: model.NewStateManager(), WithMean: withMean, WithStd: withStd}
}

// NewStandardScalerDefault は平均の除去と分散の正規化を両方行う
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit learns the column means and standard deviations. Constant columns keep
// a scale of 1.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c, err := checkFitInput("StandardScaler.Fit", X)
	if err != nil {
		return err
	}
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	s.affine = affine{shift: make([]float64, c), mul: make([]float64, c), add: make([]float64, c)}

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, variance := stat.PopMeanVariance(col, nil)
		s.Mean[j] = mean
		s.Scale[j] = math.Sqrt(variance)
		if s.Scale[j] < constantTol {
			s.Scale[j] = 1
		}
		if s.WithMean {
			s.shift[j] = mean
		}
		s.mul[j] = 1
		if s.WithStd {
			s.mul[j] = 1 / s.Scale[j]
		}
	}

	s.state.Reset()
	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return s.apply("StandardScaler", "Transform", s.state, X, false)
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	return s.apply("StandardScaler", "InverseTransform", s.state, X, true)
}

// IsFitted reports whether Fit has succeeded.
func (s *StandardScaler) IsFitted() bool { return s.state.IsFitted() }

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

func (s *StandardScaler) String() string {
	nFeatures, _ := s.state.GetDimensions()
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)", s.WithMean, s.WithStd, nFeatures)
}

// MinMaxScaler maps every column linearly onto FeatureRange. The default
// range is [-1, 1], the usual input range for liblinear. Constant columns map
// to the lower bound.
type MinMaxScaler struct {
	state *model.StateManager
	affine

	FeatureRange [2]float64

	DataMin []float64
	DataMax []float64
}

var _ model.Transformer = (*MinMaxScaler)(nil)

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{state: model.NewStateManager(), FeatureRange: featureRange}
}

// NewMinMaxScalerDefault は [-1, 1] にスケーリングする
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{-1, 1})
}

// Fit learns the column minima and maxima.
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	lower, upper := m.FeatureRange[0], m.FeatureRange[1]
	if !(lower < upper) {
		return errors.NewValidationError("feature_range", "lower bound must be below upper bound", m.FeatureRange)
	}
	r, c, err := checkFitInput("MinMaxScaler.Fit", X)
	if err != nil {
		return err
	}
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.affine = affine{shift: make([]float64, c), mul: make([]float64, c), add: make([]float64, c)}

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		lo, hi := floatsMinMax(col)
		m.DataMin[j], m.DataMax[j] = lo, hi

		width := hi - lo
		if width < constantTol {
			width = 1
		}
		m.shift[j] = lo
		m.mul[j] = (upper - lower) / width
		m.add[j] = lower
	}

	m.state.Reset()
	m.state.SetDimensions(c, r)
	m.state.SetFitted()
	return nil
}

func floatsMinMax(v []float64) (float64, float64) {
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

// Transform は学習した範囲でデータをスケーリングする。範囲外の値はクリップしない。
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return m.apply("MinMaxScaler", "Transform", m.state, X, false)
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	return m.apply("MinMaxScaler", "InverseTransform", m.state, X, true)
}

// IsFitted reports whether Fit has succeeded.
func (m *MinMaxScaler) IsFitted() bool { return m.state.IsFitted() }

// GetParams はスケーラーのパラメータを取得する
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.FeatureRange,
	}
}

func (m *MinMaxScaler) String() string {
	nFeatures, _ := m.state.GetDimensions()
	return fmt.Sprintf("MinMaxScaler(feature_range=[%g, %g], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], nFeatures)
}

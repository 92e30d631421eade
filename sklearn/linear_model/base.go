// Package linear_model provides scikit-learn style estimators over gonum
// matrices. Every estimator maps its hyperparameters onto a liblinear solver
// and delegates training and prediction to package linear.
package linear_model

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/core/model"
	"github.com/YuminosukeSato/golinear/linear"
	"github.com/YuminosukeSato/golinear/metrics"
	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/pkg/log"
	"github.com/YuminosukeSato/golinear/sparse"
)

// libLinear は liblinear ベースの推定器が共有する学習済み状態
type libLinear struct {
	name   string
	state  *model.StateManager
	logger log.Logger

	model *linear.Model
	// classes は昇順のクラスラベル、order[k] は classes[k] のモデル内インデックス
	classes []int
	order   []int
}

func newLibLinear(name string) libLinear {
	return libLinear{
		name:   name,
		state:  model.NewStateManager(),
		logger: log.GetLoggerWithName("sklearn.linear_model").With(log.ModelNameKey, name),
	}
}

// targets は y を長さ n のラベル列に変換する。y は n x 1 の列ベクトルでなければならない。
func targets(op string, X, y mat.Matrix, classification bool) ([]float64, error) {
	nSamples, _ := X.Dims()
	yRows, yCols := y.Dims()
	if yCols != 1 {
		return nil, errors.NewDimensionError(op, 1, yCols, 1)
	}
	if yRows != nSamples {
		return nil, errors.NewDimensionError(op, nSamples, yRows, 0)
	}
	if nSamples == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, op)
	}

	labels := mat.Col(nil, 0, y)
	if lo.SomeBy(labels, func(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }) {
		return nil, errors.NewValueError(op, "y contains NaN or Inf")
	}
	if classification && lo.SomeBy(labels, func(v float64) bool { return v != math.Trunc(v) }) {
		errors.Warn(errors.NewDataConversionWarning("float64", "int", "class labels are truncated toward zero"))
		labels = lo.Map(labels, func(v float64, _ int) float64 { return math.Trunc(v) })
	}
	return labels, nil
}

// biasFor は fit_intercept と intercept_scaling を liblinear の bias に変換する
func biasFor(fitIntercept bool, interceptScaling float64) float64 {
	if !fitIntercept {
		return -1
	}
	return interceptScaling
}

// fit trains a fresh model and replaces the previous one.
func (b *libLinear) fit(ctx context.Context, X mat.Matrix, labels []float64, bias float64, param *linear.Parameter) error {
	nSamples, nFeatures := X.Dims()
	prob, err := sparse.NewProblemFromMatrix(X, labels, bias)
	if err != nil {
		return err
	}
	defer prob.Release()

	b.logger.Debug("fitting",
		log.OperationKey, log.OperationFit,
		log.SolverKey, param.Solver.String(),
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.CKey, param.C,
		log.EpsKey, param.Eps,
	)

	m, err := linear.Train(ctx, prob, param)
	if err != nil {
		return err
	}
	b.install(m, nFeatures, nSamples)
	return nil
}

func (b *libLinear) install(m *linear.Model, nFeatures, nSamples int) {
	if b.model != nil {
		_ = b.model.Release()
	}
	b.model = m
	b.classes, b.order = nil, nil
	if labels := m.Labels(); labels != nil {
		b.classes = append([]int(nil), labels...)
		sort.Ints(b.classes)
		b.order = lo.Map(b.classes, func(c int, _ int) int { return lo.IndexOf(labels, c) })
	}
	b.state.Reset()
	b.state.SetDimensions(nFeatures, nSamples)
	b.state.SetFitted()
}

func (b *libLinear) require(method string, X mat.Matrix) error {
	if err := b.state.RequireFitted(b.name, method); err != nil {
		return err
	}
	if X == nil {
		return nil
	}
	_, cols := X.Dims()
	return b.state.RequireFeatures(b.name+"."+method, cols)
}

func (b *libLinear) rows(X mat.Matrix) ([]sparse.Vector, error) {
	n, _ := X.Dims()
	rows := make([]sparse.Vector, n)
	for i := range rows {
		x, err := b.model.DenseVector(mat.Row(nil, i, X))
		if err != nil {
			return nil, err
		}
		rows[i] = x
	}
	return rows, nil
}

func (b *libLinear) predict(X mat.Matrix) (*mat.Dense, error) {
	if err := b.require("Predict", X); err != nil {
		return nil, err
	}
	rows, err := b.rows(X)
	if err != nil {
		return nil, err
	}
	preds, err := b.model.PredictBatch(rows)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(len(preds), 1, preds), nil
}

// numDecision は決定関数の列数。二値分類（Crammer-Singer 以外）は 1 列。
func (b *libLinear) numDecision() int {
	m := b.model
	if m.IsRegressionModel() || m.IsOneClassModel() {
		return 1
	}
	if m.NumClasses() == 2 && m.SolverType() != linear.MCSVMCS {
		return 1
	}
	return m.NumClasses()
}

// decisionFunction returns one column per class in Classes order, or a single
// column scoring Classes()[1] for binary models.
func (b *libLinear) decisionFunction(X mat.Matrix) (*mat.Dense, error) {
	if err := b.require("DecisionFunction", X); err != nil {
		return nil, err
	}
	rows, err := b.rows(X)
	if err != nil {
		return nil, err
	}
	nDec := b.numDecision()
	out := mat.NewDense(len(rows), nDec, nil)
	dec := make([]float64, b.model.NumClasses())
	for i, x := range rows {
		if _, err := b.model.PredictValues(x, dec); err != nil {
			return nil, err
		}
		switch {
		case b.order == nil:
			out.Set(i, 0, dec[0])
		case nDec == 1:
			out.Set(i, 0, b.binarySign()*dec[0])
		default:
			for k, idx := range b.order {
				out.Set(i, k, dec[idx])
			}
		}
	}
	return out, nil
}

// binarySign は liblinear の label[0] 向きの決定値を classes[1] 向きに直す符号
func (b *libLinear) binarySign() float64 {
	if b.order[1] == 0 {
		return 1
	}
	return -1
}

func (b *libLinear) predictProba(X mat.Matrix) (*mat.Dense, error) {
	if err := b.require("PredictProba", X); err != nil {
		return nil, err
	}
	rows, err := b.rows(X)
	if err != nil {
		return nil, err
	}
	nClass := b.model.NumClasses()
	out := mat.NewDense(len(rows), nClass, nil)
	probs := make([]float64, nClass)
	for i, x := range rows {
		if _, err := b.model.PredictProbability(x, probs); err != nil {
			return nil, err
		}
		for k, idx := range b.order {
			out.Set(i, k, probs[idx])
		}
	}
	return out, nil
}

// coef returns the weights as (n_decision, n_features), bias column excluded.
func (b *libLinear) coef() (*mat.Dense, error) {
	if err := b.require("Coef", nil); err != nil {
		return nil, err
	}
	nFeatures := b.model.NumFeatures()
	if nFeatures == 0 {
		return nil, errors.NewValueError(b.name+".Coef", "model has no features")
	}
	nDec := b.numDecision()
	out := mat.NewDense(nDec, nFeatures, nil)
	for k := 0; k < nDec; k++ {
		labelIdx := b.decisionLabel(k, nDec)
		for j := 0; j < nFeatures; j++ {
			v, err := b.model.DecisionCoefficient(j+1, labelIdx)
			if err != nil {
				return nil, err
			}
			out.Set(k, j, v)
		}
	}
	return out, nil
}

// decisionLabel maps row k of Coef to the model label index it scores.
func (b *libLinear) decisionLabel(k, nDec int) int {
	switch {
	case b.order == nil:
		return 0
	case nDec == 1:
		return b.order[1]
	default:
		return b.order[k]
	}
}

func (b *libLinear) intercept() ([]float64, error) {
	if err := b.require("Intercept", nil); err != nil {
		return nil, err
	}
	if b.model.IsOneClassModel() {
		return []float64{-b.model.Rho()}, nil
	}
	nDec := b.numDecision()
	out := make([]float64, nDec)
	for k := range out {
		v, err := b.model.DecisionBias(b.decisionLabel(k, nDec))
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func (b *libLinear) nIter() int {
	if b.model == nil {
		return 0
	}
	return b.model.Iterations()
}

func (b *libLinear) accuracy(X, y mat.Matrix) (float64, error) {
	preds, err := b.predict(X)
	if err != nil {
		return 0, err
	}
	yTrue, err := targets(b.name+".Score", X, y, true)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(mat.NewVecDense(len(yTrue), yTrue), mat.NewVecDense(len(yTrue), preds.RawMatrix().Data))
}

func (b *libLinear) exportWeights(params map[string]interface{}) (*model.ModelWeights, error) {
	if err := b.require("ExportWeights", nil); err != nil {
		return nil, err
	}
	mw, err := b.model.ExportWeights()
	if err != nil {
		return nil, err
	}
	mw.ModelType = b.name
	for k, v := range params {
		if k == "class_weight" {
			continue
		}
		mw.Hyperparameters[k] = v
	}
	return mw.Seal(), nil
}

// importWeights restores a model exported by exportWeights.
func (b *libLinear) importWeights(mw *model.ModelWeights) error {
	if mw.ModelType != b.name {
		return errors.NewValidationError("model_type", fmt.Sprintf("expected %s", b.name), mw.ModelType)
	}
	m, err := linear.ModelFromWeights(mw)
	if err != nil {
		return err
	}
	b.install(m, m.NumFeatures(), 0)
	return nil
}

// classWeight は class_weight ハイパーパラメータ（nil, "balanced", map[int]float64）
type classWeight struct {
	balanced bool
	weights  map[int]float64
}

func (c classWeight) value() interface{} {
	switch {
	case c.balanced:
		return "balanced"
	case c.weights != nil:
		return lo.Assign(c.weights)
	default:
		return nil
	}
}

func (c *classWeight) set(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*c = classWeight{}
	case string:
		if v != "balanced" {
			return errors.NewValidationError("class_weight", `must be nil, "balanced" or map[int]float64`, v)
		}
		*c = classWeight{balanced: true}
	case map[int]float64:
		*c = classWeight{weights: lo.Assign(v)}
	default:
		return errors.NewValidationError("class_weight", `must be nil, "balanced" or map[int]float64`, value)
	}
	return nil
}

// resolve は学習ラベルからソルバーに渡すクラス重みを作る。balanced は n / (k * count)。
func (c classWeight) resolve(labels []float64) []linear.ClassWeight {
	weights := c.weights
	if c.balanced {
		counts := lo.CountValues(lo.Map(labels, func(v float64, _ int) int { return int(v) }))
		weights = make(map[int]float64, len(counts))
		for label, n := range counts {
			weights[label] = float64(len(labels)) / float64(len(counts)*n)
		}
	}
	if len(weights) == 0 {
		return nil
	}
	keys := lo.Keys(weights)
	sort.Ints(keys)
	return lo.Map(keys, func(label int, _ int) linear.ClassWeight {
		return linear.ClassWeight{Label: label, Weight: weights[label]}
	})
}

// assign は型を検査しながら SetParams の値を代入する
func assign[T any](key string, value interface{}, dst *T) error {
	v, ok := value.(T)
	if !ok {
		return errors.NewValidationError(key, fmt.Sprintf("expected %T", *dst), value)
	}
	*dst = v
	return nil
}

// oneOf は文字列ハイパーパラメータの値域を検査する
func oneOf(op, key, value string, allowed ...string) error {
	if lo.Contains(allowed, value) {
		return nil
	}
	return errors.NewConfigurationError(op, fmt.Sprintf("%s=%q is not one of %v", key, value, allowed))
}

func errUnknownParam(key string) error {
	return errors.NewValidationError(key, "unknown parameter", nil)
}

// newParameter は推定器共通のハイパーパラメータから linear.Parameter を作る
func newParameter(solver linear.SolverType, c, tol float64, maxIter int, randomState int64,
	weights []linear.ClassWeight, extra ...linear.Option) (*linear.Parameter, error) {
	opts := []linear.Option{
		linear.WithSolver(solver),
		linear.WithC(c),
		linear.WithEps(tol),
		linear.WithMaxIter(maxIter),
		linear.WithClassWeights(weights...),
	}
	if randomState >= 0 {
		opts = append(opts, linear.WithSeed(uint64(randomState)))
	}
	return linear.NewParameter(append(opts, extra...)...)
}

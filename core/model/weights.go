package model

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// WeightsVersion はエクスポート形式のバージョン
const WeightsVersion = "1.0"

// ModelWeights は学習済み線形モデルの重みを表す構造体（シリアライゼーション用）
type ModelWeights struct {
	// ModelType はモデルの種類（LogisticRegression, LinearSVC 等、生モデルなら "liblinear"）
	ModelType string `json:"model_type"`

	// Version はエクスポート形式のバージョン（互換性チェック用）
	Version string `json:"version"`

	// Solver は liblinear のソルバー名
	Solver string `json:"solver"`

	NrClass   int   `json:"nr_class"`
	NrFeature int   `json:"nr_feature"`
	Labels    []int `json:"labels,omitempty"`

	// Bias は負値ならバイアス特徴なし
	Bias float64 `json:"bias"`

	// Rho は one-class SVM のオフセット
	Rho float64 `json:"rho,omitempty"`

	// Coefficients は (feature, class) の行優先で並んだ重み
	Coefficients []float64 `json:"coefficients"`

	// Hyperparameters はモデルのハイパーパラメータ
	Hyperparameters map[string]interface{} `json:"hyperparameters,omitempty"`

	// Checksum は Coefficients の SHA-256
	Checksum string `json:"checksum"`
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON はJSON形式からModelWeightsをデシリアライズし、検証する
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return errors.Wrap(err, "golinear: decode model weights")
	}
	return mw.Validate()
}

// NumFeatureColumns はバイアス特徴を含めた重みベクトル1本の長さ
func (mw *ModelWeights) NumFeatureColumns() int {
	if mw.Bias >= 0 {
		return mw.NrFeature + 1
	}
	return mw.NrFeature
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", mw.ModelType)
	}
	if mw.Version == "" {
		return errors.NewValidationError("version", "is required", mw.Version)
	}
	if mw.NrClass < 1 {
		return errors.NewValidationError("nr_class", "must be positive", mw.NrClass)
	}
	if mw.Labels != nil && len(mw.Labels) != mw.NrClass {
		return errors.NewDimensionError("ModelWeights.Validate", mw.NrClass, len(mw.Labels), 0)
	}
	n := mw.NumFeatureColumns()
	if n > 0 {
		cols := len(mw.Coefficients) / n
		if len(mw.Coefficients)%n != 0 || (cols != 1 && cols != mw.NrClass) {
			return errors.NewValidationError("coefficients",
				"length must be n or n*nr_class", len(mw.Coefficients))
		}
	}
	if mw.Checksum != "" && mw.Checksum != mw.ComputeChecksum() {
		return errors.NewValidationError("checksum", "does not match coefficients", mw.Checksum)
	}
	return nil
}

// ComputeChecksum は Coefficients のビット列から SHA-256 を計算する
func (mw *ModelWeights) ComputeChecksum() string {
	h := sha256.New()
	var buf [8]byte
	for _, v := range mw.Coefficients {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Seal はチェックサムを設定する
func (mw *ModelWeights) Seal() *ModelWeights {
	mw.Checksum = mw.ComputeChecksum()
	return mw
}

// Clone はModelWeightsのディープコピーを作成
func (mw *ModelWeights) Clone() *ModelWeights {
	clone := *mw
	clone.Coefficients = append([]float64(nil), mw.Coefficients...)
	if mw.Labels != nil {
		clone.Labels = append([]int(nil), mw.Labels...)
	}
	if mw.Hyperparameters != nil {
		clone.Hyperparameters = make(map[string]interface{}, len(mw.Hyperparameters))
		for k, v := range mw.Hyperparameters {
			clone.Hyperparameters[k] = v
		}
	}
	return &clone
}

// Package capi exposes the flat create/train/predict/free surface of the solver
// library. Each call takes plain slices and scalars, owns copies of what it is
// given and converts panics into errors.
//
// Example:
//
//	param, _ := capi.PrepareParam(0, 1, 0.01, 0, nil, nil, 0.1, 0.5, nil, 1)
//	prob, _ := capi.InitProblem(data, labels, rows, cols, 1)
//	m, _ := capi.TrainModel(prob, param)
//	label, _ := capi.PredictOne(m, sample, cols)
//	_ = capi.FreeModel(m)
package capi

import (
	"context"

	"github.com/YuminosukeSato/golinear/linear"
	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/sparse"
)

// PrepareParam builds a validated Parameter. weightLabel, weight and initSol are
// copied; nrWeight must equal the length of both weight slices. A nil initSol
// means a cold start and regularizeBias is treated as a boolean.
func PrepareParam(solverType int, C, eps float64, nrWeight int, weightLabel []int, weight []float64,
	p, nu float64, initSol []float64, regularizeBias int) (param *linear.Parameter, err error) {
	defer errors.Recover(&err, "PrepareParam")

	if nrWeight < 0 {
		return nil, errors.NewValidationError("nr_weight", "must be non-negative", nrWeight)
	}
	if len(weightLabel) != nrWeight {
		return nil, errors.NewDimensionError("PrepareParam", nrWeight, len(weightLabel), 0)
	}
	if len(weight) != nrWeight {
		return nil, errors.NewDimensionError("PrepareParam", nrWeight, len(weight), 0)
	}

	var weights []linear.ClassWeight
	if nrWeight > 0 {
		weights = make([]linear.ClassWeight, nrWeight)
		for i := range weights {
			weights[i] = linear.ClassWeight{Label: weightLabel[i], Weight: weight[i]}
		}
	}

	return linear.NewParameter(
		linear.WithSolver(linear.SolverType(solverType)),
		linear.WithC(C),
		linear.WithEps(eps),
		linear.WithP(p),
		linear.WithNu(nu),
		linear.WithClassWeights(weights...),
		linear.WithInitSol(initSol),
		linear.WithRegularizeBias(regularizeBias != 0),
	)
}

// FreeParam releases param together with the arrays it owns.
func FreeParam(param *linear.Parameter) (err error) {
	defer errors.Recover(&err, "FreeParam")
	if param == nil {
		return errors.NewValueError("FreeParam", "parameter is nil")
	}
	param.Release()
	return nil
}

// InitProblem converts a dense row-major numData x numFeat matrix into a
// training problem. A negative bias disables the bias feature.
func InitProblem(data, labels []float64, numData, numFeat int, bias float64) (prob *sparse.Problem, err error) {
	defer errors.Recover(&err, "InitProblem")
	return sparse.NewProblem(data, labels, numData, numFeat, bias)
}

// FreeProblem releases the node storage of prob.
func FreeProblem(prob *sparse.Problem) (err error) {
	defer errors.Recover(&err, "FreeProblem")
	if prob == nil {
		return errors.NewValueError("FreeProblem", "problem is nil")
	}
	prob.Release()
	return nil
}

// TrainModel trains a model without a deadline.
func TrainModel(prob *sparse.Problem, param *linear.Parameter) (*linear.Model, error) {
	return TrainModelContext(context.Background(), prob, param)
}

// TrainModelContext trains a model; cancelling ctx stops the solver at its next
// outer iteration.
func TrainModelContext(ctx context.Context, prob *sparse.Problem, param *linear.Parameter) (m *linear.Model, err error) {
	defer errors.Recover(&err, "TrainModel")
	return linear.Train(ctx, prob, param)
}

// FreeModel drops the model weights. It waits for in-flight predictions.
func FreeModel(m *linear.Model) (err error) {
	defer errors.Recover(&err, "FreeModel")
	if m == nil {
		return errors.NewValueError("FreeModel", "model is nil")
	}
	return m.Release()
}

// PredictOne returns the label (or regression value) for one dense sample.
// numFeat and len(data) must both match the number of features the model was
// trained on.
func PredictOne(m *linear.Model, data []float64, numFeat int) (pred float64, err error) {
	defer errors.Recover(&err, "PredictOne")
	if m == nil {
		return 0, errors.NewValueError("PredictOne", "model is nil")
	}
	if numFeat != m.NumFeatures() {
		return 0, errors.NewDimensionError("PredictOne", m.NumFeatures(), numFeat, 1)
	}
	x, err := sample("PredictOne", m, data)
	if err != nil {
		return 0, err
	}
	return m.Predict(x)
}

// PredictOneProb returns a fresh slice of NumClasses probabilities for one
// dense sample of NumFeatures values. Only logistic regression models
// support it.
func PredictOneProb(m *linear.Model, data []float64) (probs []float64, err error) {
	defer errors.Recover(&err, "PredictOneProb")
	if m == nil {
		return nil, errors.NewValueError("PredictOneProb", "model is nil")
	}
	x, err := sample("PredictOneProb", m, data)
	if err != nil {
		return nil, err
	}
	probs = make([]float64, m.NumClasses())
	if _, err := m.PredictProbability(x, probs); err != nil {
		return nil, err
	}
	return probs, nil
}

// sample は dense な 1 サンプルを変換する。長さは NumFeatures と一致しなければならない
func sample(op string, m *linear.Model, data []float64) (sparse.Vector, error) {
	if len(data) != m.NumFeatures() {
		return nil, errors.NewDimensionError(op, m.NumFeatures(), len(data), 1)
	}
	return m.DenseVector(data)
}

package linear

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/golinear/core/parallel"
	"github.com/YuminosukeSato/golinear/metrics"
	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/pkg/log"
	"github.com/YuminosukeSato/golinear/sparse"
)

const (
	searchRatio      = 2.0
	searchMaxC       = 1024.0
	searchMaxCSVR    = 1048576.0
	searchPSteps     = 20
	searchUnchangedW = 5
)

// SearchResult is the outcome of FindParameters. Score is the cross-validation
// accuracy for classifiers and the mean squared error for L2R_L2LOSS_SVR.
// BestP is -1 when p was not searched.
type SearchResult struct {
	BestC     float64
	BestP     float64
	BestScore float64
}

// FindParameters searches C by cross validation, doubling it from startC
// and warm-starting each fold from its previous solution. The search stops
// at the C ceiling or once five consecutive C values leave every fold's
// weights unchanged. For L2R_L2LOSS_SVR p is scanned downward over 20 steps
// of max|y| as well. startC <= 0 (or startP <= 0) picks the start automatically.
func FindParameters(ctx context.Context, prob *sparse.Problem, param *Parameter, nrFold int, startC, startP float64) (*SearchResult, error) {
	if prob == nil || param == nil {
		return nil, errors.NewValueError("linear.FindParameters", "problem and parameter must not be nil")
	}
	if !param.Solver.SupportsParameterSearch() {
		return nil, errors.NewUnsupportedOperationError("FindParameters", param.Solver.String(),
			"parameter search supported only for L2R_LR, L2R_L2LOSS_SVC and L2R_L2LOSS_SVR")
	}
	if nrFold < 2 {
		return nil, errors.NewValidationError("nr_fold", "must be at least 2", nrFold)
	}
	if err := param.ValidateFor(prob); err != nil {
		return nil, err
	}
	if err := prob.Validate(); err != nil {
		return nil, err
	}
	if prob.L == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "linear.FindParameters")
	}

	s := &search{
		ctx:    ctx,
		prob:   prob,
		folds:  makeFolds(prob.L, nrFold, param.Seed),
		logger: param.Logger().With(log.OperationKey, log.OperationFindParameters),
	}
	s.subprobs = make([]*sparse.Problem, s.folds.len())
	for k := range s.subprobs {
		s.subprobs[k] = s.folds.trainSet(prob, k)
	}

	tmp := param.Clone()
	res := &SearchResult{BestP: -1}

	if param.Solver != L2RL2LossSVR {
		if startC <= 0 {
			startC = calcStartC(prob, tmp)
		}
		startC = math.Min(startC, searchMaxC)
		c, score, err := s.findC(tmp, startC, searchMaxC)
		if err != nil {
			return nil, err
		}
		res.BestC, res.BestScore = c, score
		return res, nil
	}

	maxP := calcMaxP(prob)
	res.BestScore = math.Inf(1)
	i := searchPSteps - 1
	if startP > 0 && maxP > 0 {
		i = min(int(startP/(maxP/searchPSteps)), i)
	}
	for ; i >= 0; i-- {
		tmp.P = float64(i) * maxP / searchPSteps
		startCTmp := startC
		if startC <= 0 {
			startCTmp = calcStartC(prob, tmp)
		}
		startCTmp = math.Min(startCTmp, searchMaxCSVR)
		c, score, err := s.findC(tmp, startCTmp, searchMaxCSVR)
		if err != nil {
			return nil, err
		}
		if score < res.BestScore {
			res.BestP, res.BestC, res.BestScore = tmp.P, c, score
		}
	}
	return res, nil
}

type search struct {
	ctx      context.Context
	prob     *sparse.Problem
	folds    *folds
	subprobs []*sparse.Problem
	logger   log.Logger
}

// findC runs the warm-started C sweep for one p.
func (s *search) findC(param *Parameter, startC, maxC float64) (bestC, bestScore float64, err error) {
	nrFold := s.folds.len()
	target := make([]float64, s.prob.L)
	prevW := make([][]float64, nrFold)
	curW := make([][]float64, nrFold)
	numUnchangedW := 0
	isSVR := param.Solver == L2RL2LossSVR

	bestScore = 0
	if isSVR {
		bestScore = math.Inf(1)
	}
	bestC = startC

	c := startC
	for c <= maxC {
		err := parallel.ParallelizeErrWithThreshold(nrFold, 1, func(lo, hi int) error {
			for k := lo; k < hi; k++ {
				foldParam := param.Clone()
				foldParam.C = c
				foldParam.InitSol = prevW[k]
				sub, err := Train(s.ctx, s.subprobs[k], foldParam)
				if err != nil {
					return errors.Wrapf(err, "fold %d", k)
				}
				curW[k] = sub.w
				for _, i := range s.folds.perm[s.folds.start[k]:s.folds.start[k+1]] {
					if target[i], err = sub.Predict(s.prob.X[i]); err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			return 0, 0, err
		}

		for k := 0; k < nrFold; k++ {
			if prevW[k] != nil && numUnchangedW >= 0 {
				diff := 0.0
				for j, v := range curW[k] {
					d := v - prevW[k][j]
					diff += d * d
				}
				if math.Sqrt(diff) > 1e-15 {
					numUnchangedW = -1
				}
			}
			prevW[k] = curW[k]
		}

		score, err := s.score(target, isSVR)
		if err != nil {
			return 0, 0, err
		}
		if (isSVR && score < bestScore) || (!isSVR && score > bestScore) {
			bestC, bestScore = c, score
		}
		s.logger.Debug("parameter search step",
			log.CKey, c, log.PKey, param.P, "score", score)

		numUnchangedW++
		if numUnchangedW == searchUnchangedW {
			break
		}
		c *= searchRatio
	}
	if c > maxC {
		s.logger.Warn("maximum C reached", log.CKey, maxC)
	}
	return bestC, bestScore, nil
}

// score is the accuracy of target, or its mean squared error for regression.
func (s *search) score(target []float64, regression bool) (float64, error) {
	yTrue := mat.NewVecDense(len(s.prob.Y), append([]float64(nil), s.prob.Y...))
	yPred := mat.NewVecDense(len(target), append([]float64(nil), target...))
	if regression {
		return metrics.MSE(yTrue, yPred)
	}
	return metrics.Accuracy(yTrue, yPred)
}

func calcMaxP(prob *sparse.Problem) float64 {
	maxP := 0.0
	for _, y := range prob.Y {
		maxP = math.Max(maxP, math.Abs(y))
	}
	return maxP
}

// calcStartC returns the largest power of two not above a C under which every
// solution is near zero.
func calcStartC(prob *sparse.Problem, param *Parameter) float64 {
	maxXTx := 0.0
	for _, x := range prob.X {
		maxXTx = math.Max(maxXTx, sparse.Nrm2Sq(x))
	}
	l := float64(prob.L)

	minC := 1.0
	switch param.Solver {
	case L2RLR:
		minC = 1.0 / (l * maxXTx)
	case L2RL2LossSVC:
		minC = 1.0 / (2 * l * maxXTx)
	case L2RL2LossSVR:
		const delta2 = 0.1
		sumY, loss := 0.0, 0.0
		for _, y := range prob.Y {
			yAbs := math.Abs(y)
			sumY += yAbs
			r := math.Max(yAbs-param.P, 0)
			loss += r * r
		}
		if loss > 0 {
			minC = delta2 * delta2 * loss / (8 * sumY * sumY * maxXTx)
		} else {
			minC = math.Inf(1)
		}
	}
	return math.Pow(2, math.Floor(math.Log2(minC)))
}

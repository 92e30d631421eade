package linear

import (
	"context"
	"math/rand/v2"

	"github.com/YuminosukeSato/golinear/core/parallel"
	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/pkg/log"
	"github.com/YuminosukeSato/golinear/sparse"
)

// folds is a random split of l examples: fold k is perm[start[k]:start[k+1]].
type folds struct {
	perm  []int
	start []int
}

// makeFolds shuffles 0..l-1 with the parameter seed. nrFold is clamped to l,
// which is leave-one-out.
func makeFolds(l, nrFold int, seed uint64) *folds {
	if nrFold > l {
		nrFold = l
		log.GetLoggerWithName("linear").Warn("# folds > # data, using leave-one-out cross validation",
			log.SamplesKey, l)
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	perm := make([]int, l)
	for i := range perm {
		perm[i] = i
	}
	for i := 0; i < l; i++ {
		j := i + rng.IntN(l-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	start := make([]int, nrFold+1)
	for i := range start {
		start[i] = i * l / nrFold
	}
	return &folds{perm: perm, start: start}
}

func (f *folds) len() int { return len(f.start) - 1 }

// trainSet returns the problem without fold k.
func (f *folds) trainSet(prob *sparse.Problem, k int) *sparse.Problem {
	begin, end := f.start[k], f.start[k+1]
	idx := make([]int, 0, prob.L-(end-begin))
	idx = append(idx, f.perm[:begin]...)
	idx = append(idx, f.perm[end:]...)
	return prob.Subset(idx)
}

// CrossValidation trains on nrFold-1 folds and predicts the held-out one, for
// every fold. The returned slice holds one prediction per example of prob.
// Folds are trained concurrently.
func CrossValidation(ctx context.Context, prob *sparse.Problem, param *Parameter, nrFold int) ([]float64, error) {
	if prob == nil || param == nil {
		return nil, errors.NewValueError("linear.CrossValidation", "problem and parameter must not be nil")
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
		return nil, errors.Wrap(errors.ErrEmptyData, "linear.CrossValidation")
	}

	f := makeFolds(prob.L, nrFold, param.Seed)
	target := make([]float64, prob.L)
	err := parallel.ParallelizeErrWithThreshold(f.len(), 1, func(lo, hi int) error {
		for k := lo; k < hi; k++ {
			sub, err := Train(ctx, f.trainSet(prob, k), param)
			if err != nil {
				return errors.Wrapf(err, "fold %d", k)
			}
			for _, i := range f.perm[f.start[k]:f.start[k+1]] {
				if target[i], err = sub.Predict(prob.X[i]); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

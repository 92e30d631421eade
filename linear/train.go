package linear

import (
	"context"
	"time"

	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/pkg/log"
	"github.com/YuminosukeSato/golinear/sparse"
)

// Train fits a model on prob.
//
// Configuration and input errors are returned before any optimization starts.
// A solver that hits MaxIter emits a ConvergenceWarning and its current weights
// are kept. This holds for the dual solvers too: there is no fallback to the
// primal Newton solver. Weights containing NaN or Inf are reported as a
// NumericalInstabilityError. A cancelled ctx aborts training with the context
// error. Neither prob nor param is modified.
func Train(ctx context.Context, prob *sparse.Problem, param *Parameter) (*Model, error) {
	if prob == nil || param == nil {
		return nil, errors.NewValueError("linear.Train", "problem and parameter must not be nil")
	}
	if prob.Released() {
		return nil, errors.NewModelError("linear.Train", "problem used after release", errors.ErrReleased)
	}
	if err := param.ValidateFor(prob); err != nil {
		return nil, err
	}
	if err := prob.Validate(); err != nil {
		return nil, err
	}
	if prob.L == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "linear.Train")
	}

	started := time.Now()
	t := newTrainer(ctx, param)
	m, err := t.train(prob)
	if err != nil {
		return nil, err
	}
	if err := errors.CheckNumericalStability("linear.Train", m.w, m.iterations); err != nil {
		return nil, err
	}

	t.logger.Info("training finished",
		log.OperationKey, log.OperationTrain,
		log.SamplesKey, prob.L,
		log.FeaturesKey, m.nrFeature,
		log.ClassesKey, m.nrClass,
		log.IterationKey, m.iterations,
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)
	return m, nil
}

func (t *trainer) train(prob *sparse.Problem) (*Model, error) {
	param := t.param
	n := prob.N
	m := &Model{
		solver:    param.Solver,
		nrFeature: n,
		bias:      prob.Bias,
	}
	if prob.Bias >= 0 {
		m.nrFeature = n - 1
	}

	switch {
	case param.Solver.IsRegression():
		if err := param.checkInitSol(n); err != nil {
			return nil, err
		}
		m.w = t.initialWeights(n, 1, 0)
		m.nrClass = 2
		iter, err := t.trainOne(prob, m.w, 0, 0)
		if err != nil {
			return nil, err
		}
		m.iterations = iter
		return m, nil

	case param.Solver.IsOneClass():
		m.w = make([]float64, n)
		m.nrClass = 2
		m.label = []int{+1, -1}
		rho, iter, err := t.solveOneClassSVM(prob, m.w)
		if err != nil {
			return nil, err
		}
		m.rho = rho
		m.iterations = iter
		return m, nil
	}

	groups := groupClasses(prob)
	nrClass := groups.nrClass()
	m.nrClass = nrClass
	m.label = append([]int(nil), groups.labels...)

	weightedC := t.weightedC(groups.labels)
	sub := prob.Subset(groups.perm)

	if param.Solver == MCSVMCS {
		if err := param.checkInitSol(n * nrClass); err != nil {
			return nil, err
		}
		for k := 0; k < nrClass; k++ {
			for j := groups.start[k]; j < groups.start[k]+groups.count[k]; j++ {
				sub.Y[j] = float64(k)
			}
		}
		m.w = make([]float64, n*nrClass)
		iter, err := newMCSVMCS(t, sub, nrClass, weightedC, param.Eps).solve(m.w)
		if err != nil {
			return nil, err
		}
		m.iterations = iter
		return m, nil
	}

	if nrClass == 2 {
		if err := param.checkInitSol(n); err != nil {
			return nil, err
		}
		e0 := groups.start[0] + groups.count[0]
		for k := 0; k < sub.L; k++ {
			if k < e0 {
				sub.Y[k] = +1
			} else {
				sub.Y[k] = -1
			}
		}
		m.w = t.initialWeights(n, 1, 0)
		iter, err := t.trainOne(sub, m.w, weightedC[0], weightedC[1])
		if err != nil {
			return nil, err
		}
		m.iterations = iter
		return m, nil
	}

	// one-vs-rest
	if err := param.checkInitSol(n * nrClass); err != nil {
		return nil, err
	}
	m.w = make([]float64, n*nrClass)
	for i := 0; i < nrClass; i++ {
		si := groups.start[i]
		ei := si + groups.count[i]
		for k := 0; k < sub.L; k++ {
			if k >= si && k < ei {
				sub.Y[k] = +1
			} else {
				sub.Y[k] = -1
			}
		}
		w := t.initialWeights(n, nrClass, i)
		iter, err := t.trainOne(sub, w, weightedC[i], param.C)
		if err != nil {
			return nil, err
		}
		m.iterations += iter
		for j := 0; j < n; j++ {
			m.w[j*nrClass+i] = w[j]
		}
	}
	return m, nil
}

// initialWeights returns column col of the warm start laid out with stride, or zeros.
func (t *trainer) initialWeights(n, stride, col int) []float64 {
	w := make([]float64, n)
	if t.param.InitSol != nil {
		for j := range w {
			w[j] = t.param.InitSol[j*stride+col]
		}
	}
	return w
}

// weightedC scales C per class. Weights for labels absent from the data are
// reported and ignored.
func (t *trainer) weightedC(labels []int) []float64 {
	c := make([]float64, len(labels))
	for i := range c {
		c[i] = t.param.C
	}
	for _, cw := range t.param.ClassWeights {
		found := false
		for j, lab := range labels {
			if cw.Label == lab {
				c[j] *= cw.Weight
				found = true
				break
			}
		}
		if !found {
			errors.Warn(errors.NewClassWeightWarning(cw.Label, cw.Weight))
		}
	}
	return c
}

// trainOne solves one binary or regression sub-problem. y must be +1/-1 for
// classification; cp and cn are the C values of the two classes.
func (t *trainer) trainOne(prob *sparse.Problem, w []float64, cp, cn float64) (int, error) {
	param := t.param
	l := prob.L

	c := make([]float64, l)
	primalSolverTol := param.Eps
	if param.Solver.IsRegression() {
		for i := range c {
			c[i] = param.C
		}
	} else {
		pos := 0
		for i := 0; i < l; i++ {
			if prob.Y[i] > 0 {
				pos++
				c[i] = cp
			} else {
				c[i] = cn
			}
		}
		neg := l - pos
		primalSolverTol = param.Eps * float64(max(min(pos, neg), 1)) / float64(l)
	}

	epsCg := 0.1
	if param.InitSol != nil {
		epsCg = 0.5
	}

	switch param.Solver {
	case L2RLR:
		return newTron(t, newL2RLRFunc(prob, c, param.RegularizeBias), primalSolverTol, epsCg).minimize(w)
	case L2RL2LossSVC:
		return newTron(t, newL2RL2SVCFunc(prob, c, param.RegularizeBias), primalSolverTol, epsCg).minimize(w)
	case L2RL2LossSVR:
		return newTron(t, newL2RL2SVRFunc(prob, c, param.P, param.RegularizeBias), param.Eps, epsCg).minimize(w)
	case L2RL2LossSVCDual:
		return t.solveL2RL1L2SVC(prob, w, param.Eps, cp, cn, false)
	case L2RL1LossSVCDual:
		return t.solveL2RL1L2SVC(prob, w, param.Eps, cp, cn, true)
	case L1RL2LossSVC:
		return t.solveL1RL2SVC(prob.Transpose(), w, primalSolverTol, cp, cn)
	case L1RLR:
		return t.solveL1RLR(prob.Transpose(), w, primalSolverTol, cp, cn)
	case L2RLRDual:
		return t.solveL2RLRDual(prob, w, param.Eps, cp, cn)
	case L2RL1LossSVRDual:
		return t.solveL2RL1L2SVR(prob, w, true)
	case L2RL2LossSVRDual:
		return t.solveL2RL1L2SVR(prob, w, false)
	}
	return 0, errors.NewConfigurationError(param.Solver.String(), "unknown solver type")
}

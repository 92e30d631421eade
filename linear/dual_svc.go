package linear

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/golinear/pkg/log"
	"github.com/YuminosukeSato/golinear/sparse"
)

// solveL2RL1L2SVC is dual coordinate descent with shrinking for the L2-regularized
// L1-loss (l1Loss) and L2-loss SVC:
//
//	min_alpha  0.5(alpha^T (Q + D) alpha) - e^T alpha,
//	  s.t.     0 <= alpha_i <= upper_bound_i
//
// where Qij = yi yj xi^T xj. For L1 loss D = 0 and upper_bound_i = Cp or Cn;
// for L2 loss D_ii = 0.5/Cp or 0.5/Cn and upper_bound_i = Inf.
// y must be +1/-1 and w is overwritten.
func (t *trainer) solveL2RL1L2SVC(prob *sparse.Problem, w []float64, eps, cp, cn float64, l1Loss bool) (int, error) {
	l := prob.L
	qd := make([]float64, l)
	index := make([]int, l)
	alpha := make([]float64, l)
	y := make([]int8, l)
	activeSize := l

	// Indexed by y+1.
	diag := [3]float64{0.5 / cn, 0, 0.5 / cp}
	upperBound := [3]float64{math.Inf(1), 0, math.Inf(1)}
	if l1Loss {
		diag[0], diag[2] = 0, 0
		upperBound[0], upperBound[2] = cn, cp
	}

	clear(w)
	for i := 0; i < l; i++ {
		if prob.Y[i] > 0 {
			y[i] = 1
		} else {
			y[i] = -1
		}
		xi := prob.X[i]
		qd[i] = diag[y[i]+1] + sparse.Nrm2Sq(xi)
		sparse.Axpy(float64(y[i])*alpha[i], xi, w)
		index[i] = i
	}

	pgMaxOld := math.Inf(1)
	pgMinOld := math.Inf(-1)
	iter := 0
	converged := false
	for iter < t.param.MaxIter {
		if err := t.interrupted(); err != nil {
			return iter, err
		}
		pgMaxNew := math.Inf(-1)
		pgMinNew := math.Inf(1)

		t.shuffle(index[:activeSize])

		for s := 0; s < activeSize; s++ {
			i := index[s]
			yi := y[i]
			xi := prob.X[i]

			g := float64(yi)*sparse.Dot(w, xi) - 1
			c := upperBound[yi+1]
			g += alpha[i] * diag[yi+1]

			pg := 0.0
			switch {
			case alpha[i] == 0:
				if g > pgMaxOld {
					activeSize--
					index[s], index[activeSize] = index[activeSize], index[s]
					s--
					continue
				} else if g < 0 {
					pg = g
				}
			case alpha[i] == c:
				if g < pgMinOld {
					activeSize--
					index[s], index[activeSize] = index[activeSize], index[s]
					s--
					continue
				} else if g > 0 {
					pg = g
				}
			default:
				pg = g
			}

			pgMaxNew = math.Max(pgMaxNew, pg)
			pgMinNew = math.Min(pgMinNew, pg)

			if math.Abs(pg) > 1.0e-12 {
				alphaOld := alpha[i]
				alpha[i] = math.Min(math.Max(alpha[i]-g/qd[i], 0), c)
				sparse.Axpy((alpha[i]-alphaOld)*float64(yi), xi, w)
			}
		}

		iter++
		if t.debug && iter%10 == 0 {
			t.logger.Debug("dual coordinate descent", log.IterationKey, iter, log.ActiveSizeKey, activeSize)
		}

		if pgMaxNew-pgMinNew <= eps {
			if activeSize == l {
				converged = true
				break
			}
			activeSize = l
			pgMaxOld = math.Inf(1)
			pgMinOld = math.Inf(-1)
			continue
		}
		pgMaxOld = pgMaxNew
		pgMinOld = pgMinNew
		if pgMaxOld <= 0 {
			pgMaxOld = math.Inf(1)
		}
		if pgMinOld >= 0 {
			pgMinOld = math.Inf(-1)
		}
	}

	if !converged {
		t.notConverged("dual coordinate descent (SVC)", iter)
	}

	if t.debug {
		v := floats.Dot(w, w)
		nSV := 0
		for i := 0; i < l; i++ {
			v += alpha[i] * (alpha[i]*diag[y[i]+1] - 2)
			if alpha[i] > 0 {
				nSV++
			}
		}
		t.logger.Debug("optimization finished", log.IterationKey, iter, log.ObjectiveKey, v/2, "n_sv", nSV)
	}
	return iter, nil
}

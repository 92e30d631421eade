package linear

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/golinear/pkg/log"
	"github.com/YuminosukeSato/golinear/sparse"
)

// solveL2RL1L2SVR is dual coordinate descent with shrinking for L2-regularized
// L1-loss (l1Loss) and L2-loss epsilon-insensitive support vector regression:
//
//	min_beta  0.5(beta^T (Q + lambda I) beta) - sum y_i beta_i + p sum |beta_i|
//	  s.t.    -upper_bound <= beta_i <= upper_bound
//
// where Qij = xi^T xj. For L1 loss lambda = 0 and upper_bound = C;
// for L2 loss lambda = 0.5/C and upper_bound = Inf.
func (t *trainer) solveL2RL1L2SVR(prob *sparse.Problem, w []float64, l1Loss bool) (int, error) {
	l := prob.L
	c := t.param.C
	p := t.param.P
	eps := t.param.Eps
	y := prob.Y
	activeSize := l
	index := make([]int, l)
	beta := make([]float64, l)
	qd := make([]float64, l)

	lambda := 0.5 / c
	upperBound := math.Inf(1)
	if l1Loss {
		lambda = 0
		upperBound = c
	}

	clear(w)
	for i := 0; i < l; i++ {
		xi := prob.X[i]
		qd[i] = sparse.Nrm2Sq(xi)
		sparse.Axpy(beta[i], xi, w)
		index[i] = i
	}

	gMaxOld := math.Inf(1)
	gNorm1Init := -1.0
	iter := 0
	converged := false
	for iter < t.param.MaxIter {
		if err := t.interrupted(); err != nil {
			return iter, err
		}
		gMaxNew := 0.0
		gNorm1New := 0.0

		t.shuffle(index[:activeSize])

		for s := 0; s < activeSize; s++ {
			i := index[s]
			xi := prob.X[i]
			g := -y[i] + lambda*beta[i] + sparse.Dot(w, xi)
			h := qd[i] + lambda

			gp := g + p
			gn := g - p
			violation := 0.0
			switch {
			case beta[i] == 0:
				if gp < 0 {
					violation = -gp
				} else if gn > 0 {
					violation = gn
				} else if gp > gMaxOld && gn < -gMaxOld {
					activeSize--
					index[s], index[activeSize] = index[activeSize], index[s]
					s--
					continue
				}
			case beta[i] >= upperBound:
				if gp > 0 {
					violation = gp
				} else if gp < -gMaxOld {
					activeSize--
					index[s], index[activeSize] = index[activeSize], index[s]
					s--
					continue
				}
			case beta[i] <= -upperBound:
				if gn < 0 {
					violation = -gn
				} else if gn > gMaxOld {
					activeSize--
					index[s], index[activeSize] = index[activeSize], index[s]
					s--
					continue
				}
			case beta[i] > 0:
				violation = math.Abs(gp)
			default:
				violation = math.Abs(gn)
			}

			gMaxNew = math.Max(gMaxNew, violation)
			gNorm1New += violation

			// Newton direction
			var d float64
			switch {
			case gp < h*beta[i]:
				d = -gp / h
			case gn > h*beta[i]:
				d = -gn / h
			default:
				d = -beta[i]
			}
			if math.Abs(d) < 1.0e-12 {
				continue
			}

			betaOld := beta[i]
			beta[i] = math.Min(math.Max(beta[i]+d, -upperBound), upperBound)
			if d = beta[i] - betaOld; d != 0 {
				sparse.Axpy(d, xi, w)
			}
		}

		if iter == 0 {
			gNorm1Init = gNorm1New
		}
		iter++
		if t.debug && iter%10 == 0 {
			t.logger.Debug("dual coordinate descent", log.IterationKey, iter, log.ActiveSizeKey, activeSize)
		}

		if gNorm1New <= eps*gNorm1Init {
			if activeSize == l {
				converged = true
				break
			}
			activeSize = l
			gMaxOld = math.Inf(1)
			continue
		}
		gMaxOld = gMaxNew
	}

	if !converged {
		t.notConverged("dual coordinate descent (SVR)", iter)
	}

	if t.debug {
		v := 0.5 * floats.Dot(w, w)
		nSV := 0
		for i := 0; i < l; i++ {
			v += p*math.Abs(beta[i]) - y[i]*beta[i] + 0.5*lambda*beta[i]*beta[i]
			if beta[i] != 0 {
				nSV++
			}
		}
		t.logger.Debug("optimization finished", log.IterationKey, iter, log.ObjectiveKey, v, "n_sv", nSV)
	}
	return iter, nil
}

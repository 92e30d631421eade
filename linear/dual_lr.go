package linear

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/golinear/pkg/log"
	"github.com/YuminosukeSato/golinear/sparse"
)

// solveL2RLRDual is coordinate descent on the dual of L2-regularized logistic regression
// (Algorithm 5 of Yu et al., MLJ 2010):
//
//	min_alpha  0.5(alpha^T Q alpha) + sum alpha_i log(alpha_i) + (C_i - alpha_i) log(C_i - alpha_i)
//	  s.t.     0 <= alpha_i <= C_i
//
// Each one-variable subproblem is solved by a safeguarded Newton method.
func (t *trainer) solveL2RLRDual(prob *sparse.Problem, w []float64, eps, cp, cn float64) (int, error) {
	l := prob.L
	xTx := make([]float64, l)
	index := make([]int, l)
	// alpha[2i] + alpha[2i+1] = C_i
	alpha := make([]float64, 2*l)
	y := make([]int8, l)
	const maxInnerIter = 100
	innerEps := 1e-2
	innerEpsMin := math.Min(1e-8, eps)
	upperBound := [3]float64{cn, 0, cp}

	clear(w)
	for i := 0; i < l; i++ {
		if prob.Y[i] > 0 {
			y[i] = 1
		} else {
			y[i] = -1
		}
		c := upperBound[y[i]+1]
		alpha[2*i] = math.Min(0.001*c, 1e-8)
		alpha[2*i+1] = c - alpha[2*i]

		xi := prob.X[i]
		xTx[i] = sparse.Nrm2Sq(xi)
		sparse.Axpy(float64(y[i])*alpha[2*i], xi, w)
		index[i] = i
	}

	iter := 0
	converged := false
	for iter < t.param.MaxIter {
		if err := t.interrupted(); err != nil {
			return iter, err
		}
		t.shuffle(index)

		newtonIter := 0
		gMax := 0.0
		for _, i := range index {
			yi := float64(y[i])
			c := upperBound[y[i]+1]
			xi := prob.X[i]
			a := xTx[i]
			b := yi * sparse.Dot(w, xi)

			// Minimize g_1(z) or g_2(z), whichever has its minimum in the interior.
			ind1, ind2, sign := 2*i, 2*i+1, 1.0
			if 0.5*a*(alpha[ind2]-alpha[ind1])+b < 0 {
				ind1, ind2, sign = 2*i+1, 2*i, -1.0
			}

			// g_t(z) = z*log(z) + (C-z)*log(C-z) + 0.5a(z-alpha_old)^2 + sign*b(z-alpha_old)
			alphaOld := alpha[ind1]
			z := alphaOld
			if c-z < 0.5*c {
				z = 0.1 * z
			}
			gp := a*(z-alphaOld) + sign*b + math.Log(z/(c-z))
			gMax = math.Max(gMax, math.Abs(gp))

			const eta = 0.1
			innerIter := 0
			for innerIter <= maxInnerIter {
				if math.Abs(gp) < innerEps {
					break
				}
				gpp := a + c/(c-z)/z
				tmpz := z - gp/gpp
				if tmpz <= 0 {
					z *= eta
				} else {
					z = tmpz
				}
				gp = a*(z-alphaOld) + sign*b + math.Log(z/(c-z))
				newtonIter++
				innerIter++
			}

			if innerIter > 0 {
				alpha[ind1] = z
				alpha[ind2] = c - z
				sparse.Axpy(sign*(z-alphaOld)*yi, xi, w)
			}
		}

		iter++
		if t.debug && iter%10 == 0 {
			t.logger.Debug("dual coordinate descent", log.IterationKey, iter, log.GradNormKey, gMax)
		}

		if gMax < eps {
			converged = true
			break
		}
		if newtonIter <= l/10 {
			innerEps = math.Max(innerEpsMin, 0.1*innerEps)
		}
	}

	if !converged {
		t.notConverged("dual coordinate descent (LR)", iter)
	}

	if t.debug {
		v := 0.5 * floats.Dot(w, w)
		for i := 0; i < l; i++ {
			c := upperBound[y[i]+1]
			v += alpha[2*i]*math.Log(alpha[2*i]) + alpha[2*i+1]*math.Log(alpha[2*i+1]) - c*math.Log(c)
		}
		t.logger.Debug("optimization finished", log.IterationKey, iter, log.ObjectiveKey, v)
	}
	return iter, nil
}

package linear

import (
	"math"

	"github.com/YuminosukeSato/golinear/pkg/log"
	"github.com/YuminosukeSato/golinear/sparse"
)

// maxQPIter caps the coordinate descent cycles of one newGLMNET subproblem.
const maxQPIter = 1000

// solveL1RLR is newGLMNET (Yuan, Ho and Lin, 2011) for
//
//	min_w  sum |w_j| + sum_i C_i log(1 + exp(-y_i w^T x_i))
//
// Each Newton iteration minimizes a quadratic model by coordinate descent and
// then runs a backtracking line search. probCol is the transposed problem.
func (t *trainer) solveL1RLR(probCol *sparse.Problem, w []float64, eps, cp, cn float64) (int, error) {
	l := probCol.L
	wSize := probCol.N
	regularizeBias := t.param.RegularizeBias
	const maxNumLineSearch = 20
	const nu = 1e-12
	const sigma = 0.01
	innerEps := 1.0

	index := make([]int, wSize)
	y := make([]int8, l)
	hDiag := make([]float64, wSize)
	grad := make([]float64, wSize)
	wpd := make([]float64, wSize)
	xjNegSum := make([]float64, wSize)
	xTd := make([]float64, l)
	expWTx := make([]float64, l)
	expWTxNew := make([]float64, l)
	tau := make([]float64, l)
	d := make([]float64, l)
	c := [3]float64{cn, 0, cp}

	isBias := func(j int) bool { return !regularizeBias && j == wSize-1 }
	// l1Norm is the regularizer of v.
	l1Norm := func(v []float64) float64 {
		s := 0.0
		for _, x := range v {
			s += math.Abs(x)
		}
		if !regularizeBias && len(v) > 0 {
			s -= math.Abs(v[len(v)-1])
		}
		return s
	}
	ci := func(i int) float64 { return c[y[i]+1] }
	updateCurvature := func() {
		for i := 0; i < l; i++ {
			tauTmp := 1 / (1 + expWTx[i])
			tau[i] = ci(i) * tauTmp
			d[i] = ci(i) * expWTx[i] * tauTmp * tauTmp
		}
	}

	clear(w)
	for i := 0; i < l; i++ {
		if probCol.Y[i] > 0 {
			y[i] = 1
		} else {
			y[i] = -1
		}
	}
	for j := 0; j < wSize; j++ {
		wpd[j] = w[j]
		index[j] = j
		for _, nd := range probCol.X[j] {
			if nd.Index == sparse.Sentinel {
				break
			}
			ind := nd.Index - 1
			expWTx[ind] += w[j] * nd.Value
			if y[ind] == -1 {
				xjNegSum[j] += ci(ind) * nd.Value
			}
		}
	}
	wNorm := l1Norm(w)
	for i := range expWTx {
		expWTx[i] = math.Exp(expWTx[i])
	}
	updateCurvature()

	gMaxOld := math.Inf(1)
	gNorm1Init := -1.0
	newtonIter := 0
	converged := false
	for newtonIter < t.param.MaxIter {
		if err := t.interrupted(); err != nil {
			return newtonIter, err
		}
		gMaxNew := 0.0
		gNorm1New := 0.0
		activeSize := wSize

		for s := 0; s < activeSize; s++ {
			j := index[s]
			hDiag[j] = nu
			tmp := 0.0
			for _, nd := range probCol.X[j] {
				if nd.Index == sparse.Sentinel {
					break
				}
				ind := nd.Index - 1
				hDiag[j] += nd.Value * nd.Value * d[ind]
				tmp += nd.Value * tau[ind]
			}
			grad[j] = -tmp + xjNegSum[j]

			violation := 0.0
			if isBias(j) {
				violation = math.Abs(grad[j])
			} else {
				gp := grad[j] + 1
				gn := grad[j] - 1
				switch {
				case w[j] == 0:
					if gp < 0 {
						violation = -gp
					} else if gn > 0 {
						violation = gn
					} else if gp > gMaxOld/float64(l) && gn < -gMaxOld/float64(l) {
						// outer-level shrinking
						activeSize--
						index[s], index[activeSize] = index[activeSize], index[s]
						s--
						continue
					}
				case w[j] > 0:
					violation = math.Abs(gp)
				default:
					violation = math.Abs(gn)
				}
			}
			gMaxNew = math.Max(gMaxNew, violation)
			gNorm1New += violation
		}

		if newtonIter == 0 {
			gNorm1Init = gNorm1New
		}
		if gNorm1New <= eps*gNorm1Init {
			converged = true
			break
		}

		iter := 0
		qpGMaxOld := math.Inf(1)
		qpActiveSize := activeSize
		clear(xTd)

		// optimize QP over wpd
		for iter < maxQPIter {
			qpGMaxNew := 0.0
			qpGNorm1New := 0.0

			t.shuffle(index[:qpActiveSize])

			for s := 0; s < qpActiveSize; s++ {
				j := index[s]
				h := hDiag[j]

				g := grad[j] + (wpd[j]-w[j])*nu
				for _, nd := range probCol.X[j] {
					if nd.Index == sparse.Sentinel {
						break
					}
					ind := nd.Index - 1
					g += nd.Value * d[ind] * xTd[ind]
				}

				var violation, z float64
				if isBias(j) {
					violation = math.Abs(g)
					z = -g / h
				} else {
					gp := g + 1
					gn := g - 1
					switch {
					case wpd[j] == 0:
						if gp < 0 {
							violation = -gp
						} else if gn > 0 {
							violation = gn
						} else if gp > qpGMaxOld/float64(l) && gn < -qpGMaxOld/float64(l) {
							// inner-level shrinking
							qpActiveSize--
							index[s], index[qpActiveSize] = index[qpActiveSize], index[s]
							s--
							continue
						}
					case wpd[j] > 0:
						violation = math.Abs(gp)
					default:
						violation = math.Abs(gn)
					}

					switch {
					case gp < h*wpd[j]:
						z = -gp / h
					case gn > h*wpd[j]:
						z = -gn / h
					default:
						z = -wpd[j]
					}
				}
				qpGMaxNew = math.Max(qpGMaxNew, violation)
				qpGNorm1New += violation

				if math.Abs(z) < 1.0e-12 {
					continue
				}
				z = math.Min(math.Max(z, -10.0), 10.0)

				wpd[j] += z
				sparse.Axpy(z, probCol.X[j], xTd)
			}

			iter++

			if qpGNorm1New <= innerEps*gNorm1Init {
				if qpActiveSize == activeSize {
					break
				}
				// active set reactivation
				qpActiveSize = activeSize
				qpGMaxOld = math.Inf(1)
				continue
			}
			qpGMaxOld = qpGMaxNew
		}

		if iter >= maxQPIter {
			t.logger.Debug("reached max number of inner iterations", log.IterationKey, newtonIter)
		}

		delta := 0.0
		for j := 0; j < wSize; j++ {
			delta += grad[j] * (wpd[j] - w[j])
		}
		wNormNew := l1Norm(wpd)
		delta += wNormNew - wNorm

		negSumXTd := 0.0
		for i := 0; i < l; i++ {
			if y[i] == -1 {
				negSumXTd += ci(i) * xTd[i]
			}
		}

		numLineSearch := 0
		for ; numLineSearch < maxNumLineSearch; numLineSearch++ {
			cond := wNormNew - wNorm + negSumXTd - sigma*delta
			for i := 0; i < l; i++ {
				expXTd := math.Exp(xTd[i])
				expWTxNew[i] = expWTx[i] * expXTd
				cond += ci(i) * math.Log((1+expWTxNew[i])/(expXTd+expWTxNew[i]))
			}

			if cond <= 0 {
				wNorm = wNormNew
				copy(w, wpd)
				copy(expWTx, expWTxNew)
				updateCurvature()
				break
			}
			for j := 0; j < wSize; j++ {
				wpd[j] = (w[j] + wpd[j]) * 0.5
			}
			wNormNew = l1Norm(wpd)
			delta *= 0.5
			negSumXTd *= 0.5
			for i := range xTd {
				xTd[i] *= 0.5
			}
		}

		// Recompute exp(w^T x) after too many line search steps.
		if numLineSearch >= maxNumLineSearch {
			clear(expWTx)
			for j := 0; j < wSize; j++ {
				if w[j] != 0 {
					sparse.Axpy(w[j], probCol.X[j], expWTx)
				}
			}
			for i := range expWTx {
				expWTx[i] = math.Exp(expWTx[i])
			}
		}

		if iter == 1 {
			innerEps *= 0.25
		}

		newtonIter++
		gMaxOld = gMaxNew
		if t.debug {
			t.logger.Debug("newGLMNET", log.IterationKey, newtonIter, log.CGIterKey, iter)
		}
	}

	if !converged {
		t.notConverged("newGLMNET (L1R_LR)", newtonIter)
	}

	if t.debug {
		v := 0.0
		nnz := 0
		for j := 0; j < wSize; j++ {
			if w[j] != 0 {
				v += math.Abs(w[j])
				nnz++
			}
		}
		if !regularizeBias && wSize > 0 {
			v -= math.Abs(w[wSize-1])
		}
		for i := 0; i < l; i++ {
			if y[i] == 1 {
				v += ci(i) * math.Log(1+1/expWTx[i])
			} else {
				v += ci(i) * math.Log(1+expWTx[i])
			}
		}
		t.logger.Debug("optimization finished", log.IterationKey, newtonIter, log.ObjectiveKey, v, "nnz", nnz)
	}
	return newtonIter, nil
}

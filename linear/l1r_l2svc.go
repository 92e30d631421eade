package linear

import (
	"math"

	"github.com/YuminosukeSato/golinear/pkg/log"
	"github.com/YuminosukeSato/golinear/sparse"
)

// solveL1RL2SVC is primal coordinate descent with line search for
//
//	min_w  sum |w_j| + sum_i C_i max(0, 1 - y_i w^T x_i)^2
//
// (Yuan et al., JMLR 2010). probCol is the transposed problem; its values are
// multiplied by y in place, so it must be a private copy. When the bias is
// unregularized the last weight is updated by a plain Newton step.
func (t *trainer) solveL1RL2SVC(probCol *sparse.Problem, w []float64, eps, cp, cn float64) (int, error) {
	l := probCol.L
	wSize := probCol.N
	regularizeBias := t.param.RegularizeBias
	activeSize := wSize
	const maxNumLineSearch = 20
	const sigma = 0.01

	index := make([]int, wSize)
	y := make([]int8, l)
	b := make([]float64, l) // b = 1 - ywTx
	xjSq := make([]float64, wSize)
	c := [3]float64{cn, 0, cp}

	clear(w)
	for i := 0; i < l; i++ {
		b[i] = 1
		if probCol.Y[i] > 0 {
			y[i] = 1
		} else {
			y[i] = -1
		}
	}
	for j := 0; j < wSize; j++ {
		index[j] = j
		col := probCol.X[j]
		for k := range col {
			if col[k].Index == sparse.Sentinel {
				break
			}
			ind := col[k].Index - 1
			col[k].Value *= float64(y[ind])
			val := col[k].Value
			b[ind] -= w[j] * val
			xjSq[j] += c[y[ind]+1] * val * val
		}
	}

	isBias := func(j int) bool { return !regularizeBias && j == wSize-1 }

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
			j := index[s]
			gLoss := 0.0
			h := 0.0

			for _, nd := range probCol.X[j] {
				if nd.Index == sparse.Sentinel {
					break
				}
				ind := nd.Index - 1
				if b[ind] > 0 {
					tmp := c[y[ind]+1] * nd.Value
					gLoss -= tmp * b[ind]
					h += tmp * nd.Value
				}
			}
			gLoss *= 2
			g := gLoss
			h = math.Max(2*h, 1e-12)

			gp := g + 1
			gn := g - 1
			violation := 0.0
			if isBias(j) {
				violation = math.Abs(g)
			} else {
				switch {
				case w[j] == 0:
					if gp < 0 {
						violation = -gp
					} else if gn > 0 {
						violation = gn
					} else if gp > gMaxOld/float64(l) && gn < -gMaxOld/float64(l) {
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

			// Newton direction d
			var d float64
			switch {
			case isBias(j):
				d = -g / h
			case gp < h*w[j]:
				d = -gp / h
			case gn > h*w[j]:
				d = -gn / h
			default:
				d = -w[j]
			}
			if math.Abs(d) < 1.0e-12 {
				continue
			}

			var delta float64
			if isBias(j) {
				delta = g * d
			} else {
				delta = math.Abs(w[j]+d) - math.Abs(w[j]) + g*d
			}
			dOld := 0.0
			var lossOld float64
			numLineSearch := 0
			for ; numLineSearch < maxNumLineSearch; numLineSearch++ {
				dDiff := dOld - d
				var cond float64
				if isBias(j) {
					cond = -sigma * delta
				} else {
					cond = math.Abs(w[j]+d) - math.Abs(w[j]) - sigma*delta
				}

				appxcond := xjSq[j]*d*d + gLoss*d + cond
				if appxcond <= 0 {
					sparse.Axpy(dDiff, probCol.X[j], b)
					break
				}

				lossNew := 0.0
				for _, nd := range probCol.X[j] {
					if nd.Index == sparse.Sentinel {
						break
					}
					ind := nd.Index - 1
					if numLineSearch == 0 && b[ind] > 0 {
						lossOld += c[y[ind]+1] * b[ind] * b[ind]
					}
					bNew := b[ind] + dDiff*nd.Value
					b[ind] = bNew
					if bNew > 0 {
						lossNew += c[y[ind]+1] * bNew * bNew
					}
				}

				cond = cond + lossNew - lossOld
				if cond <= 0 {
					break
				}
				dOld = d
				d *= 0.5
				delta *= 0.5
			}

			w[j] += d

			// Recompute b from scratch after too many line search steps.
			if numLineSearch >= maxNumLineSearch {
				t.logger.Debug("line search exhausted, recomputing residuals", "feature", j)
				for i := range b {
					b[i] = 1
				}
				for i := 0; i < wSize; i++ {
					if w[i] != 0 {
						sparse.Axpy(-w[i], probCol.X[i], b)
					}
				}
			}
		}

		if iter == 0 {
			gNorm1Init = gNorm1New
		}
		iter++
		if t.debug && iter%10 == 0 {
			t.logger.Debug("primal coordinate descent", log.IterationKey, iter, log.ActiveSizeKey, activeSize)
		}

		if gNorm1New <= eps*gNorm1Init {
			if activeSize == wSize {
				converged = true
				break
			}
			activeSize = wSize
			gMaxOld = math.Inf(1)
			continue
		}
		gMaxOld = gMaxNew
	}

	if !converged {
		t.notConverged("coordinate descent (L1R_L2LOSS_SVC)", iter)
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
			if b[i] > 0 {
				v += c[y[i]+1] * b[i] * b[i]
			}
		}
		t.logger.Debug("optimization finished", log.IterationKey, iter, log.ObjectiveKey, v, "nnz", nnz)
	}
	return iter, nil
}

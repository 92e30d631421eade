package linear

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/golinear/pkg/log"
	"github.com/YuminosukeSato/golinear/sparse"
)

// mcsvmCS solves the Crammer-Singer multi-class SVM dual
//
//	min_alpha  0.5 sum_m ||w_m(alpha)||^2 + sum_i sum_m e_i^m alpha_i^m
//	  s.t.     alpha_i^m <= C^m_i, sum_m alpha_i^m = 0
//
// with w_m(alpha) = sum_i alpha_i^m x_i, e_i^m = 0 if y_i = m else 1 and
// C^m_i = C_i if m = y_i else 0 (Keerthi et al., KDD 2008).
// prob.Y holds class indices and w is laid out as w[feature*nrClass+class].
type mcsvmCS struct {
	t       *trainer
	prob    *sparse.Problem
	nrClass int
	c       []float64 // per class
	eps     float64

	b, g []float64
}

func newMCSVMCS(t *trainer, prob *sparse.Problem, nrClass int, weightedC []float64, eps float64) *mcsvmCS {
	return &mcsvmCS{
		t:       t,
		prob:    prob,
		nrClass: nrClass,
		c:       weightedC,
		eps:     eps,
		b:       make([]float64, nrClass),
		g:       make([]float64, nrClass),
	}
}

// solveSubProblem computes the closed-form update of one example's alphas
// over its active classes.
func (s *mcsvmCS) solveSubProblem(ai float64, yi int, cyi float64, activeI int, alphaNew []float64) {
	d := make([]float64, activeI)
	copy(d, s.b[:activeI])
	if yi < activeI {
		d[yi] += ai * cyi
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(d)))

	beta := d[0] - ai*cyi
	r := 1
	for ; r < activeI && beta < float64(r)*d[r]; r++ {
		beta += d[r]
	}
	beta /= float64(r)

	for r := 0; r < activeI; r++ {
		if r == yi {
			alphaNew[r] = math.Min(cyi, (beta-s.b[r])/ai)
		} else {
			alphaNew[r] = math.Min(0, (beta-s.b[r])/ai)
		}
	}
}

func (s *mcsvmCS) beShrunk(i, m, yi int, alphaI, minG float64) bool {
	bound := 0.0
	if m == yi {
		bound = s.c[int(s.prob.Y[i])]
	}
	return alphaI == bound && s.g[m] < minG
}

func (s *mcsvmCS) solve(w []float64) (int, error) {
	t := s.t
	l := s.prob.L
	nrClass := s.nrClass
	alpha := make([]float64, l*nrClass)
	alphaNew := make([]float64, nrClass)
	index := make([]int, l)
	qd := make([]float64, l)
	dInd := make([]int, nrClass)
	dVal := make([]float64, nrClass)
	alphaIndex := make([]int, nrClass*l)
	yIndex := make([]int, l)
	activeSize := l
	activeSizeI := make([]int, l)
	epsShrink := math.Max(10.0*s.eps, 1.0)
	startFromAll := true

	clear(w)
	for i := 0; i < l; i++ {
		for m := 0; m < nrClass; m++ {
			alphaIndex[i*nrClass+m] = m
		}
		qd[i] = sparse.Nrm2Sq(s.prob.X[i])
		activeSizeI[i] = nrClass
		yIndex[i] = int(s.prob.Y[i])
		index[i] = i
	}

	iter := 0
	converged := false
	for iter < t.param.MaxIter {
		if err := t.interrupted(); err != nil {
			return iter, err
		}
		stopping := math.Inf(-1)
		t.shuffle(index[:activeSize])

		for k := 0; k < activeSize; k++ {
			i := index[k]
			ai := qd[i]
			if ai <= 0 {
				continue
			}
			alphaI := alpha[i*nrClass : (i+1)*nrClass]
			alphaIndexI := alphaIndex[i*nrClass : (i+1)*nrClass]
			ci := s.c[int(s.prob.Y[i])]
			xi := s.prob.X[i]

			for m := 0; m < activeSizeI[i]; m++ {
				s.g[m] = 1
			}
			if yIndex[i] < activeSizeI[i] {
				s.g[yIndex[i]] = 0
			}
			for _, nd := range xi {
				if nd.Index == sparse.Sentinel {
					break
				}
				wi := w[(nd.Index-1)*nrClass : nd.Index*nrClass]
				for m := 0; m < activeSizeI[i]; m++ {
					s.g[m] += wi[alphaIndexI[m]] * nd.Value
				}
			}

			minG := math.Inf(1)
			maxG := math.Inf(-1)
			for m := 0; m < activeSizeI[i]; m++ {
				if alphaI[alphaIndexI[m]] < 0 && s.g[m] < minG {
					minG = s.g[m]
				}
				if s.g[m] > maxG {
					maxG = s.g[m]
				}
			}
			if yIndex[i] < activeSizeI[i] {
				if alphaI[int(s.prob.Y[i])] < ci && s.g[yIndex[i]] < minG {
					minG = s.g[yIndex[i]]
				}
			}

			for m := 0; m < activeSizeI[i]; m++ {
				if !s.beShrunk(i, m, yIndex[i], alphaI[alphaIndexI[m]], minG) {
					continue
				}
				activeSizeI[i]--
				for activeSizeI[i] > m {
					last := activeSizeI[i]
					if !s.beShrunk(i, last, yIndex[i], alphaI[alphaIndexI[last]], minG) {
						alphaIndexI[m], alphaIndexI[last] = alphaIndexI[last], alphaIndexI[m]
						s.g[m], s.g[last] = s.g[last], s.g[m]
						if yIndex[i] == last {
							yIndex[i] = m
						} else if yIndex[i] == m {
							yIndex[i] = last
						}
						break
					}
					activeSizeI[i]--
				}
			}

			if activeSizeI[i] <= 1 {
				activeSize--
				index[k], index[activeSize] = index[activeSize], index[k]
				k--
				continue
			}

			if maxG-minG <= 1e-12 {
				continue
			}
			stopping = math.Max(maxG-minG, stopping)

			for m := 0; m < activeSizeI[i]; m++ {
				s.b[m] = s.g[m] - ai*alphaI[alphaIndexI[m]]
			}

			s.solveSubProblem(ai, yIndex[i], ci, activeSizeI[i], alphaNew)
			nzD := 0
			for m := 0; m < activeSizeI[i]; m++ {
				d := alphaNew[m] - alphaI[alphaIndexI[m]]
				alphaI[alphaIndexI[m]] = alphaNew[m]
				if math.Abs(d) >= 1e-12 {
					dInd[nzD] = alphaIndexI[m]
					dVal[nzD] = d
					nzD++
				}
			}

			for _, nd := range xi {
				if nd.Index == sparse.Sentinel {
					break
				}
				wi := w[(nd.Index-1)*nrClass : nd.Index*nrClass]
				for m := 0; m < nzD; m++ {
					wi[dInd[m]] += dVal[m] * nd.Value
				}
			}
		}

		iter++
		if t.debug && iter%10 == 0 {
			t.logger.Debug("crammer-singer", log.IterationKey, iter, log.ActiveSizeKey, activeSize)
		}

		if stopping < epsShrink {
			if stopping < s.eps && startFromAll {
				converged = true
				break
			}
			activeSize = l
			for i := range activeSizeI {
				activeSizeI[i] = nrClass
			}
			epsShrink = math.Max(epsShrink/2, s.eps)
			startFromAll = true
		} else {
			startFromAll = false
		}
	}

	if !converged {
		t.notConverged("Crammer-Singer (MCSVM_CS)", iter)
	}

	if t.debug {
		v := 0.5 * floats.Dot(w, w)
		nSV := 0
		for i := 0; i < l*nrClass; i++ {
			v += alpha[i]
			if math.Abs(alpha[i]) > 0 {
				nSV++
			}
		}
		for i := 0; i < l; i++ {
			v -= alpha[i*nrClass+int(s.prob.Y[i])]
		}
		t.logger.Debug("optimization finished", log.IterationKey, iter, log.ObjectiveKey, v, "nSV", nSV)
	}
	return iter, nil
}

package linear

import (
	"container/heap"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/golinear/pkg/log"
	"github.com/YuminosukeSato/golinear/sparse"
)

type heapNode struct {
	index int
	value float64
}

// boundedHeap keeps at most size nodes. A min heap retains the largest values
// seen, a max heap the smallest.
type boundedHeap struct {
	nodes []heapNode
	max   bool
	size  int
}

func (h *boundedHeap) Len() int { return len(h.nodes) }

func (h *boundedHeap) Less(i, j int) bool {
	if h.max {
		return h.nodes[i].value > h.nodes[j].value
	}
	return h.nodes[i].value < h.nodes[j].value
}

func (h *boundedHeap) Swap(i, j int) { h.nodes[i], h.nodes[j] = h.nodes[j], h.nodes[i] }

func (h *boundedHeap) Push(x any) { h.nodes = append(h.nodes, x.(heapNode)) }

func (h *boundedHeap) Pop() any {
	n := len(h.nodes)
	x := h.nodes[n-1]
	h.nodes = h.nodes[:n-1]
	return x
}

func (h *boundedHeap) top() heapNode { return h.nodes[0] }

// offer pushes nd, evicting the top when full and nd beats it.
func (h *boundedHeap) offer(nd heapNode) {
	if h.Len() < h.size {
		heap.Push(h, nd)
		return
	}
	top := h.top()
	if (!h.max && top.value < nd.value) || (h.max && top.value > nd.value) {
		heap.Pop(h)
		heap.Push(h, nd)
	}
}

// solveOneClassSVM solves
//
//	min_alpha  0.5 alpha^T Q alpha,
//	  s.t.     0 <= alpha_i <= 1, e^T alpha = nu*l
//
// with Qij = xi^T xj, by two-variable updates over the most violating pairs.
// It returns rho so that the decision value is w^T x - rho.
func (t *trainer) solveOneClassSVM(prob *sparse.Problem, w []float64) (rho float64, iter int, err error) {
	l := prob.L
	eps := t.param.Eps
	nu := t.param.Nu
	alpha := make([]float64, l)
	qd := make([]float64, l)
	g := make([]float64, l)
	index := make([]int, l)
	mostViolatingI := make([]int, l)
	mostViolatingJ := make([]int, l)
	activeSize := l

	// floor(nu*l) variables start at the upper bound.
	n := int(nu * float64(l))
	for i := 0; i < n; i++ {
		alpha[i] = 1
	}
	if n < l {
		alpha[n] = nu*float64(l) - float64(n)
	}

	clear(w)
	for i := 0; i < l; i++ {
		xi := prob.X[i]
		qd[i] = sparse.Nrm2Sq(xi)
		sparse.Axpy(alpha[i], xi, w)
		index[i] = i
	}

	converged := false
	for iter < t.param.MaxIter {
		if err := t.interrupted(); err != nil {
			return 0, iter, err
		}
		negGMax := math.Inf(-1) // max { -grad(f)_i | alpha_i < 1 }
		negGMin := math.Inf(1)  // min { -grad(f)_i | alpha_i > 0 }

		for s := 0; s < activeSize; s++ {
			i := index[s]
			g[i] = sparse.Dot(w, prob.X[i])
			if alpha[i] < 1 {
				negGMax = math.Max(negGMax, -g[i])
			}
			if alpha[i] > 0 {
				negGMin = math.Min(negGMin, -g[i])
			}
		}

		if negGMax-negGMin < eps {
			if activeSize == l {
				converged = true
				break
			}
			activeSize = l
			continue
		}

		for s := 0; s < activeSize; s++ {
			i := index[s]
			if (alpha[i] == 1 && -g[i] > negGMax) || (alpha[i] == 0 && -g[i] < negGMin) {
				activeSize--
				index[s], index[activeSize] = index[activeSize], index[s]
				s--
			}
		}

		maxInner := max(activeSize/10, 1)
		minHeap := &boundedHeap{size: maxInner}
		maxHeap := &boundedHeap{size: maxInner, max: true}
		for s := 0; s < activeSize; s++ {
			i := index[s]
			nd := heapNode{index: i, value: -g[i]}
			if alpha[i] < 1 {
				minHeap.offer(nd)
			}
			if alpha[i] > 0 {
				maxHeap.offer(nd)
			}
		}
		maxInner = min(minHeap.Len(), maxHeap.Len())
		for maxHeap.Len() > maxInner {
			heap.Pop(maxHeap)
		}
		for minHeap.Len() > maxInner {
			heap.Pop(minHeap)
		}
		// Pop order is weakest first, so fill from the back.
		for s := maxInner - 1; s >= 0; s-- {
			mostViolatingI[s] = heap.Pop(minHeap).(heapNode).index
			mostViolatingJ[s] = heap.Pop(maxHeap).(heapNode).index
		}

		for s := 0; s < maxInner; s++ {
			i := mostViolatingI[s]
			j := mostViolatingJ[s]
			if (alpha[i] == 0 && alpha[j] == 0) || (alpha[i] == 1 && alpha[j] == 1) {
				continue
			}

			xi := prob.X[i]
			xj := prob.X[j]
			gi := sparse.Dot(w, xi)
			gj := sparse.Dot(w, xj)

			violating := (alpha[i] < 1 && alpha[j] > 0 && -gj+1e-12 < -gi) ||
				(alpha[i] > 0 && alpha[j] < 1 && -gi+1e-12 < -gj)
			if !violating {
				continue
			}

			quadCoef := qd[i] + qd[j] - 2*sparse.DotSparse(xi, xj)
			if quadCoef <= 0 {
				quadCoef = 1e-12
			}
			delta := (gi - gj) / quadCoef
			oldAlphaI := alpha[i]
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > 1 {
				if alpha[i] > 1 {
					alpha[i] = 1
					alpha[j] = sum - 1
				}
			} else if alpha[j] < 0 {
				alpha[j] = 0
				alpha[i] = sum
			}
			if sum > 1 {
				if alpha[j] > 1 {
					alpha[j] = 1
					alpha[i] = sum - 1
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = sum
			}
			delta = alpha[i] - oldAlphaI
			sparse.Axpy(delta, xi, w)
			sparse.Axpy(-delta, xj, w)
		}

		iter++
		if t.debug && iter%10 == 0 {
			t.logger.Debug("one-class dual", log.IterationKey, iter, log.ActiveSizeKey, activeSize)
		}
	}

	if !converged {
		t.notConverged("two-variable dual (ONECLASS_SVM)", iter)
	}

	nrFree := 0
	ub, lb, sumFree := math.Inf(1), math.Inf(-1), 0.0
	for i := 0; i < l; i++ {
		gi := sparse.Dot(w, prob.X[i])
		switch alpha[i] {
		case 1:
			lb = math.Max(lb, gi)
		case 0:
			ub = math.Min(ub, gi)
		default:
			nrFree++
			sumFree += gi
		}
	}
	if nrFree > 0 {
		rho = sumFree / float64(nrFree)
	} else {
		rho = (ub + lb) / 2
	}

	if t.debug {
		v := floats.Dot(w, w)
		nSV := 0
		for _, a := range alpha {
			if a > 0 {
				nSV++
			}
		}
		t.logger.Debug("optimization finished", log.IterationKey, iter, log.ObjectiveKey, v/2, "nSV", nSV, "rho", rho)
	}
	return rho, iter, nil
}

package linear

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/golinear/sparse"
)

// function is a twice differentiable objective minimized by tron.
// grad must follow fun at the same w, and hv uses state cached by grad.
type function interface {
	fun(w []float64) float64
	grad(w, g []float64)
	hv(s, hs []float64)
	nrVariable() int
}

// l2rBase carries what the three primal objectives share.
type l2rBase struct {
	prob           *sparse.Problem
	c              []float64
	z              []float64
	regularizeBias bool
}

func newL2RBase(prob *sparse.Problem, c []float64, regularizeBias bool) l2rBase {
	return l2rBase{
		prob:           prob,
		c:              c,
		z:              make([]float64, prob.L),
		regularizeBias: regularizeBias,
	}
}

func (b *l2rBase) nrVariable() int {
	return b.prob.N
}

// regularizer returns w'w without the bias term when the bias is unregularized.
func (b *l2rBase) regularizer(w []float64) float64 {
	wTw := floats.Dot(w, w)
	if !b.regularizeBias {
		last := w[len(w)-1]
		wTw -= last * last
	}
	return wTw
}

// unregularize removes the regularizer contribution of the bias from out = v + ...
func (b *l2rBase) unregularize(v, out []float64) {
	if !b.regularizeBias {
		n := len(v) - 1
		out[n] -= v[n]
	}
}

func (b *l2rBase) xv(v, xv []float64) {
	for i, x := range b.prob.X {
		xv[i] = sparse.Dot(v, x)
	}
}

// l2rLRFunc is the L2-regularized logistic loss.
type l2rLRFunc struct {
	l2rBase
	d []float64
}

func newL2RLRFunc(prob *sparse.Problem, c []float64, regularizeBias bool) *l2rLRFunc {
	return &l2rLRFunc{
		l2rBase: newL2RBase(prob, c, regularizeBias),
		d:       make([]float64, prob.L),
	}
}

func (f *l2rLRFunc) fun(w []float64) float64 {
	y := f.prob.Y
	f.xv(w, f.z)

	var loss float64
	for i, zi := range f.z {
		yz := y[i] * zi
		if yz >= 0 {
			loss += f.c[i] * math.Log1p(math.Exp(-yz))
		} else {
			loss += f.c[i] * (-yz + math.Log1p(math.Exp(yz)))
		}
	}
	return loss + f.regularizer(w)/2
}

func (f *l2rLRFunc) grad(w, g []float64) {
	y := f.prob.Y
	for i := range f.z {
		f.z[i] = 1 / (1 + math.Exp(-y[i]*f.z[i]))
		f.d[i] = f.z[i] * (1 - f.z[i])
		f.z[i] = f.c[i] * (f.z[i] - 1) * y[i]
	}

	for j := range g {
		g[j] = 0
	}
	for i, x := range f.prob.X {
		sparse.Axpy(f.z[i], x, g)
	}
	floats.Add(g, w)
	f.unregularize(w, g)
}

func (f *l2rLRFunc) hv(s, hs []float64) {
	for j := range hs {
		hs[j] = 0
	}
	for i, x := range f.prob.X {
		xTs := f.c[i] * f.d[i] * sparse.Dot(s, x)
		sparse.Axpy(xTs, x, hs)
	}
	floats.Add(hs, s)
	f.unregularize(s, hs)
}

// l2rL2SVCFunc is the L2-regularized squared hinge loss.
// Only the rows in the active set I contribute to the gradient and Hessian.
type l2rL2SVCFunc struct {
	l2rBase
	active []int
	sizeI  int
}

func newL2RL2SVCFunc(prob *sparse.Problem, c []float64, regularizeBias bool) *l2rL2SVCFunc {
	return &l2rL2SVCFunc{
		l2rBase: newL2RBase(prob, c, regularizeBias),
		active:  make([]int, prob.L),
	}
}

func (f *l2rL2SVCFunc) fun(w []float64) float64 {
	y := f.prob.Y
	f.xv(w, f.z)

	var loss float64
	for i := range f.z {
		f.z[i] *= y[i]
		if d := 1 - f.z[i]; d > 0 {
			loss += f.c[i] * d * d
		}
	}
	return loss + f.regularizer(w)/2
}

func (f *l2rL2SVCFunc) grad(w, g []float64) {
	y := f.prob.Y
	f.sizeI = 0
	for i := range f.z {
		if f.z[i] < 1 {
			f.z[f.sizeI] = f.c[i] * y[i] * (f.z[i] - 1)
			f.active[f.sizeI] = i
			f.sizeI++
		}
	}
	f.subXTv(f.z, g)
	for j := range g {
		g[j] = w[j] + 2*g[j]
	}
	f.unregularize(w, g)
}

func (f *l2rL2SVCFunc) subXTv(v, xTv []float64) {
	for j := range xTv {
		xTv[j] = 0
	}
	for k := 0; k < f.sizeI; k++ {
		sparse.Axpy(v[k], f.prob.X[f.active[k]], xTv)
	}
}

func (f *l2rL2SVCFunc) hv(s, hs []float64) {
	for j := range hs {
		hs[j] = 0
	}
	for k := 0; k < f.sizeI; k++ {
		i := f.active[k]
		x := f.prob.X[i]
		sparse.Axpy(f.c[i]*sparse.Dot(s, x), x, hs)
	}
	for j := range hs {
		hs[j] = s[j] + 2*hs[j]
	}
	f.unregularize(s, hs)
}

// l2rL2SVRFunc is the L2-regularized squared epsilon-insensitive loss.
type l2rL2SVRFunc struct {
	l2rL2SVCFunc
	p float64
}

func newL2RL2SVRFunc(prob *sparse.Problem, c []float64, p float64, regularizeBias bool) *l2rL2SVRFunc {
	return &l2rL2SVRFunc{
		l2rL2SVCFunc: *newL2RL2SVCFunc(prob, c, regularizeBias),
		p:            p,
	}
}

func (f *l2rL2SVRFunc) fun(w []float64) float64 {
	y := f.prob.Y
	f.xv(w, f.z)

	var loss float64
	for i, zi := range f.z {
		d := zi - y[i]
		if d < -f.p {
			loss += f.c[i] * (d + f.p) * (d + f.p)
		} else if d > f.p {
			loss += f.c[i] * (d - f.p) * (d - f.p)
		}
	}
	return loss + f.regularizer(w)/2
}

func (f *l2rL2SVRFunc) grad(w, g []float64) {
	y := f.prob.Y
	f.sizeI = 0
	for i := range f.z {
		d := f.z[i] - y[i]
		// sizeI <= i, so z[i] is read before the compaction can overwrite it.
		if d < -f.p {
			f.z[f.sizeI] = f.c[i] * (d + f.p)
			f.active[f.sizeI] = i
			f.sizeI++
		} else if d > f.p {
			f.z[f.sizeI] = f.c[i] * (d - f.p)
			f.active[f.sizeI] = i
			f.sizeI++
		}
	}
	f.subXTv(f.z, g)
	for j := range g {
		g[j] = w[j] + 2*g[j]
	}
	f.unregularize(w, g)
}

package linear

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/pkg/log"
)

// Trust region update constants (Lin and Moré).
const (
	tronEta0   = 1e-4
	tronEta1   = 0.25
	tronEta2   = 0.75
	tronSigma1 = 0.25
	tronSigma2 = 0.5
	tronSigma3 = 4.0
)

// tron is the trust region Newton method with a conjugate gradient inner solver.
type tron struct {
	t       *trainer
	fn      function
	eps     float64
	epsCg   float64
	maxIter int
}

func newTron(t *trainer, fn function, eps, epsCg float64) *tron {
	return &tron{t: t, fn: fn, eps: eps, epsCg: epsCg, maxIter: t.param.MaxIter}
}

// minimize updates w in place and returns the number of accepted Newton steps.
// It stops when ||g(w)|| <= eps*||g(0)||.
func (tr *tron) minimize(w []float64) (int, error) {
	n := tr.fn.nrVariable()
	s := make([]float64, n)
	r := make([]float64, n)
	g := make([]float64, n)
	d := make([]float64, n)
	hd := make([]float64, n)
	wNew := make([]float64, n)

	// The stopping test is relative to the gradient at the origin.
	w0 := make([]float64, n)
	tr.fn.fun(w0)
	tr.fn.grad(w0, g)
	gnorm0 := floats.Norm(g, 2)

	f := tr.fn.fun(w)
	tr.fn.grad(w, g)
	if err := errors.CheckScalar("tron.fun", f, 0); err != nil {
		return 0, err
	}
	delta := floats.Norm(g, 2)
	gnorm := delta

	iter := 1
	search := gnorm > tr.eps*gnorm0
	for iter <= tr.maxIter && search {
		if err := tr.t.interrupted(); err != nil {
			return iter - 1, err
		}

		cgIter, reachBoundary := tr.trcg(delta, g, s, r, d, hd)

		copy(wNew, w)
		floats.Add(wNew, s)

		gs := floats.Dot(g, s)
		prered := -0.5 * (gs - floats.Dot(s, r))
		fnew := tr.fn.fun(wNew)
		if err := errors.CheckScalar("tron.fun", fnew, iter); err != nil {
			return iter - 1, err
		}
		actred := f - fnew

		snorm := floats.Norm(s, 2)
		if iter == 1 {
			delta = math.Min(delta, snorm)
		}

		var alpha float64
		if fnew-f-gs <= 0 {
			alpha = tronSigma3
		} else {
			alpha = math.Max(tronSigma1, -0.5*(gs/(fnew-f-gs)))
		}

		switch {
		case actred < tronEta0*prered:
			delta = math.Min(math.Max(alpha, tronSigma1)*snorm, tronSigma2*delta)
		case actred < tronEta1*prered:
			delta = math.Max(tronSigma1*delta, math.Min(alpha*snorm, tronSigma2*delta))
		case actred < tronEta2*prered:
			delta = math.Max(tronSigma1*delta, math.Min(alpha*snorm, tronSigma3*delta))
		case reachBoundary:
			delta = tronSigma3 * delta
		default:
			delta = math.Max(delta, math.Min(alpha*snorm, tronSigma3*delta))
		}

		if tr.t.debug {
			tr.t.logger.Debug("tron iteration",
				log.IterationKey, iter,
				"act", actred,
				"pre", prered,
				"delta", delta,
				log.ObjectiveKey, f,
				log.GradNormKey, gnorm,
				log.CGIterKey, cgIter,
			)
		}

		if actred > tronEta0*prered {
			iter++
			copy(w, wNew)
			f = fnew
			tr.fn.grad(w, g)
			gnorm = floats.Norm(g, 2)
			if gnorm <= tr.eps*gnorm0 {
				search = false
				break
			}
		}
		if f < -1.0e+32 {
			tr.t.logger.Warn("tron: f < -1.0e+32")
			break
		}
		if prered <= 0 {
			tr.t.logger.Debug("tron: prered <= 0")
			break
		}
		if math.Abs(actred) <= 1.0e-12*math.Abs(f) && math.Abs(prered) <= 1.0e-12*math.Abs(f) {
			tr.t.logger.Debug("tron: actred and prered too small")
			break
		}
	}

	if search && iter > tr.maxIter {
		tr.t.notConverged("tron", tr.maxIter)
	}
	return iter - 1, nil
}

// trcg approximately solves H s = -g inside ||s|| <= delta by conjugate gradient.
func (tr *tron) trcg(delta float64, g, s, r, d, hd []float64) (cgIter int, reachBoundary bool) {
	for i := range s {
		s[i] = 0
		r[i] = -g[i]
		d[i] = r[i]
	}
	cgTol := tr.epsCg * floats.Norm(g, 2)
	rTr := floats.Dot(r, r)

	for {
		if floats.Norm(r, 2) <= cgTol {
			return cgIter, false
		}
		cgIter++
		tr.fn.hv(d, hd)

		alpha := rTr / floats.Dot(d, hd)
		floats.AddScaled(s, alpha, d)
		if floats.Norm(s, 2) > delta {
			// Step back and move to the trust region boundary along d.
			floats.AddScaled(s, -alpha, d)
			std := floats.Dot(s, d)
			sts := floats.Dot(s, s)
			dtd := floats.Dot(d, d)
			dsq := delta * delta
			rad := math.Sqrt(std*std + dtd*(dsq-sts))
			if std >= 0 {
				alpha = (dsq - sts) / (std + rad)
			} else {
				alpha = (rad - std) / dtd
			}
			floats.AddScaled(s, alpha, d)
			floats.AddScaled(r, -alpha, hd)
			return cgIter, true
		}
		floats.AddScaled(r, -alpha, hd)
		rnewTrnew := floats.Dot(r, r)
		beta := rnewTrnew / rTr
		floats.Scale(beta, d)
		floats.Add(d, r)
		rTr = rnewTrnew
	}
}

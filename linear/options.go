package linear

import "github.com/YuminosukeSato/golinear/pkg/log"

// Option is a function that configures a Parameter
type Option func(*Parameter)

// WithSolver selects the solver
func WithSolver(s SolverType) Option {
	return func(p *Parameter) {
		p.Solver = s
	}
}

// WithC sets the inverse regularization strength
func WithC(c float64) Option {
	return func(p *Parameter) {
		p.C = c
	}
}

// WithEps sets the stopping tolerance
func WithEps(eps float64) Option {
	return func(p *Parameter) {
		p.Eps = eps
	}
}

// WithP sets the epsilon-insensitive loss margin for regression
func WithP(v float64) Option {
	return func(p *Parameter) {
		p.P = v
	}
}

// WithNu sets nu for the one-class SVM
func WithNu(nu float64) Option {
	return func(p *Parameter) {
		p.Nu = nu
	}
}

// WithClassWeights sets per-class multipliers of C. The slice is copied.
func WithClassWeights(weights ...ClassWeight) Option {
	return func(p *Parameter) {
		p.ClassWeights = append([]ClassWeight(nil), weights...)
	}
}

// WithInitSol sets the warm start. The slice is copied.
func WithInitSol(w []float64) Option {
	return func(p *Parameter) {
		if w == nil {
			p.InitSol = nil
			return
		}
		p.InitSol = append([]float64(nil), w...)
	}
}

// WithRegularizeBias sets whether the bias weight is regularized
func WithRegularizeBias(regularize bool) Option {
	return func(p *Parameter) {
		p.RegularizeBias = regularize
	}
}

// WithMaxIter caps the outer iterations
func WithMaxIter(n int) Option {
	return func(p *Parameter) {
		p.MaxIter = n
	}
}

// WithSeed seeds the per-call random source
func WithSeed(seed uint64) Option {
	return func(p *Parameter) {
		p.Seed = seed
	}
}

// WithLogger routes solver progress to logger
func WithLogger(logger log.Logger) Option {
	return func(p *Parameter) {
		p.logger = logger
	}
}

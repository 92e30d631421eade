package linear

import (
	"fmt"

	"github.com/tevino/abool"

	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/pkg/log"
	"github.com/YuminosukeSato/golinear/sparse"
)

// ClassWeight multiplies C for the examples of one class label.
type ClassWeight struct {
	Label  int
	Weight float64
}

// Parameter holds the solver choice and its hyperparameters.
//
// A nil ClassWeights means every class uses C; a nil InitSol means training
// starts from the zero vector.
type Parameter struct {
	Solver SolverType

	// C is the inverse regularization strength.
	C float64
	// Eps is the stopping tolerance; each solver scales it in its own way.
	Eps float64
	// P is the epsilon-insensitive margin of the regression solvers.
	P float64
	// Nu bounds the fraction of outliers for OneClassSVM.
	Nu float64

	ClassWeights []ClassWeight
	InitSol      []float64

	// RegularizeBias=false leaves the last weight out of the regularizer. It requires bias == 1.
	RegularizeBias bool

	// MaxIter caps the outer iterations of every solver.
	MaxIter int
	// Seed seeds the per-call random source used for coordinate permutations.
	Seed uint64

	logger   log.Logger
	released abool.AtomicBool
}

// Default hyperparameters.
const (
	DefaultC       = 1.0
	DefaultEps     = 0.01
	DefaultP       = 0.1
	DefaultNu      = 0.5
	DefaultMaxIter = 1000
	DefaultSeed    = 1
)

// NewParameter builds a validated Parameter from the defaults and opts.
func NewParameter(opts ...Option) (*Parameter, error) {
	p := &Parameter{
		Solver:         L2RLR,
		C:              DefaultC,
		Eps:            DefaultEps,
		P:              DefaultP,
		Nu:             DefaultNu,
		RegularizeBias: true,
		MaxIter:        DefaultMaxIter,
		Seed:           DefaultSeed,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Logger returns the configured logger, or the package logger when none was set.
func (p *Parameter) Logger() log.Logger {
	if p.logger != nil {
		return p.logger
	}
	return log.GetLoggerWithName("linear")
}

// Validate reports the first configuration error that does not depend on the problem.
func (p *Parameter) Validate() error {
	if p.released.IsSet() {
		return errors.NewModelError("linear.Parameter", "use after release", errors.ErrReleased)
	}
	if !p.Solver.IsValid() {
		return errors.NewConfigurationError("", fmt.Sprintf("unknown solver type %d", int(p.Solver)))
	}
	name := p.Solver.String()
	if p.Eps <= 0 {
		return errors.NewConfigurationError(name, "eps <= 0")
	}
	if p.C <= 0 {
		return errors.NewConfigurationError(name, "C <= 0")
	}
	if p.Solver.IsRegression() && p.P < 0 {
		return errors.NewConfigurationError(name, "p < 0")
	}
	if p.Solver.IsOneClass() && (p.Nu <= 0 || p.Nu > 1) {
		return errors.NewConfigurationError(name, "nu <= 0 or nu > 1")
	}
	if p.MaxIter <= 0 {
		return errors.NewConfigurationError(name, "max_iter <= 0")
	}
	seen := make(map[int]struct{}, len(p.ClassWeights))
	for _, cw := range p.ClassWeights {
		if cw.Weight <= 0 {
			return errors.NewConfigurationError(name, fmt.Sprintf("weight for class %d <= 0", cw.Label))
		}
		if _, dup := seen[cw.Label]; dup {
			return errors.NewConfigurationError(name, fmt.Sprintf("class %d has more than one weight", cw.Label))
		}
		seen[cw.Label] = struct{}{}
	}
	if p.InitSol != nil && !p.Solver.SupportsInitSol() {
		return errors.NewConfigurationError(name,
			"initial-solution specification supported only for solvers L2R_LR, L2R_L2LOSS_SVC and L2R_L2LOSS_SVR")
	}
	if !p.RegularizeBias && !p.Solver.SupportsUnregularizedBias() {
		return errors.NewConfigurationError(name,
			"unregularized bias supported only for solvers L2R_LR, L2R_L2LOSS_SVC, L1R_L2LOSS_SVC, L1R_LR and L2R_L2LOSS_SVR")
	}
	return nil
}

// ValidateFor adds the checks that depend on the training problem.
func (p *Parameter) ValidateFor(prob *sparse.Problem) error {
	if err := p.Validate(); err != nil {
		return err
	}
	name := p.Solver.String()
	if p.Solver.IsOneClass() && prob.Bias >= 0 {
		return errors.NewConfigurationError(name, "bias >= 0 is not supported by ONECLASS_SVM")
	}
	if !p.RegularizeBias && prob.Bias != 1 {
		return errors.NewConfigurationError(name, "an unregularized bias requires bias == 1")
	}
	return nil
}

// checkInitSol verifies the warm start length once the model size is known.
func (p *Parameter) checkInitSol(expected int) error {
	if p.InitSol != nil && len(p.InitSol) != expected {
		return errors.NewDimensionError("linear.Train init_sol", expected, len(p.InitSol), 1)
	}
	return nil
}

// Clone returns a deep copy that shares only the logger.
func (p *Parameter) Clone() *Parameter {
	c := &Parameter{
		Solver:         p.Solver,
		C:              p.C,
		Eps:            p.Eps,
		P:              p.P,
		Nu:             p.Nu,
		RegularizeBias: p.RegularizeBias,
		MaxIter:        p.MaxIter,
		Seed:           p.Seed,
		logger:         p.logger,
	}
	if p.ClassWeights != nil {
		c.ClassWeights = append([]ClassWeight(nil), p.ClassWeights...)
	}
	if p.InitSol != nil {
		c.InitSol = append([]float64(nil), p.InitSol...)
	}
	return c
}

// Release drops the owned arrays. Later use fails validation.
func (p *Parameter) Release() {
	if p.released.SetToIf(false, true) {
		p.ClassWeights = nil
		p.InitSol = nil
	}
}

// Released reports whether Release has been called.
func (p *Parameter) Released() bool {
	return p.released.IsSet()
}

package linear

import (
	"context"
	"math/rand/v2"

	"github.com/YuminosukeSato/golinear/pkg/errors"
	"github.com/YuminosukeSato/golinear/pkg/log"
)

// trainer is the per-call state of one Train invocation. Nothing in it is shared
// between concurrent calls.
type trainer struct {
	ctx    context.Context
	param  *Parameter
	rng    *rand.Rand
	logger log.Logger
	debug  bool
}

func newTrainer(ctx context.Context, param *Parameter) *trainer {
	logger := param.Logger().With(log.SolverKey, param.Solver.String())
	return &trainer{
		ctx:    ctx,
		param:  param,
		rng:    rand.New(rand.NewPCG(param.Seed, param.Seed)),
		logger: logger,
		debug:  logger.Enabled(ctx, log.LevelDebug),
	}
}

// intn returns a uniform int in [0, n).
func (t *trainer) intn(n int) int {
	return t.rng.IntN(n)
}

// shuffle applies a Fisher-Yates pass over index, like liblinear's
// swap(index[i], index[i+rand()%(n-i)]).
func (t *trainer) shuffle(index []int) {
	for i := range index {
		j := i + t.intn(len(index)-i)
		index[i], index[j] = index[j], index[i]
	}
}

// interrupted reports the context error, if any, between outer iterations.
func (t *trainer) interrupted() error {
	if err := t.ctx.Err(); err != nil {
		return errors.Wrapf(err, "golinear: %s training interrupted", t.param.Solver)
	}
	return nil
}

// notConverged emits a ConvergenceWarning for a solver that hit the iteration cap.
func (t *trainer) notConverged(algorithm string, iter int) {
	errors.Warn(errors.NewConvergenceWarning(algorithm, iter, ""))
}

package linear

import (
	"fmt"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

// SolverType selects the optimization problem and the algorithm that solves it.
// The numeric values match liblinear's and appear in saved models by name.
type SolverType int

const (
	// L2RLR : L2-regularized logistic regression (primal, trust region Newton)
	L2RLR SolverType = 0
	// L2RL2LossSVCDual : L2-regularized L2-loss support vector classification (dual)
	L2RL2LossSVCDual SolverType = 1
	// L2RL2LossSVC : L2-regularized L2-loss support vector classification (primal)
	L2RL2LossSVC SolverType = 2
	// L2RL1LossSVCDual : L2-regularized L1-loss support vector classification (dual)
	L2RL1LossSVCDual SolverType = 3
	// MCSVMCS : multi-class support vector classification by Crammer and Singer
	MCSVMCS SolverType = 4
	// L1RL2LossSVC : L1-regularized L2-loss support vector classification
	L1RL2LossSVC SolverType = 5
	// L1RLR : L1-regularized logistic regression
	L1RLR SolverType = 6
	// L2RLRDual : L2-regularized logistic regression (dual)
	L2RLRDual SolverType = 7
	// L2RL2LossSVR : L2-regularized L2-loss support vector regression (primal)
	L2RL2LossSVR SolverType = 11
	// L2RL2LossSVRDual : L2-regularized L2-loss support vector regression (dual)
	L2RL2LossSVRDual SolverType = 12
	// L2RL1LossSVRDual : L2-regularized L1-loss support vector regression (dual)
	L2RL1LossSVRDual SolverType = 13
	// OneClassSVM : one-class support vector machine (dual)
	OneClassSVM SolverType = 21
)

var solverNames = map[SolverType]string{
	L2RLR:            "L2R_LR",
	L2RL2LossSVCDual: "L2R_L2LOSS_SVC_DUAL",
	L2RL2LossSVC:     "L2R_L2LOSS_SVC",
	L2RL1LossSVCDual: "L2R_L1LOSS_SVC_DUAL",
	MCSVMCS:          "MCSVM_CS",
	L1RL2LossSVC:     "L1R_L2LOSS_SVC",
	L1RLR:            "L1R_LR",
	L2RLRDual:        "L2R_LR_DUAL",
	L2RL2LossSVR:     "L2R_L2LOSS_SVR",
	L2RL2LossSVRDual: "L2R_L2LOSS_SVR_DUAL",
	L2RL1LossSVRDual: "L2R_L1LOSS_SVR_DUAL",
	OneClassSVM:      "ONECLASS_SVM",
}

// SolverTypes lists every solver in numeric order.
func SolverTypes() []SolverType {
	return []SolverType{
		L2RLR, L2RL2LossSVCDual, L2RL2LossSVC, L2RL1LossSVCDual, MCSVMCS, L1RL2LossSVC,
		L1RLR, L2RLRDual, L2RL2LossSVR, L2RL2LossSVRDual, L2RL1LossSVRDual, OneClassSVM,
	}
}

// String returns the liblinear name, e.g. "L2R_LR".
func (s SolverType) String() string {
	if name, ok := solverNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SolverType(%d)", int(s))
}

// ParseSolverType maps a liblinear solver name back to its SolverType.
func ParseSolverType(name string) (SolverType, error) {
	for s, n := range solverNames {
		if n == name {
			return s, nil
		}
	}
	return 0, errors.NewConfigurationError("", fmt.Sprintf("unknown solver type %q", name))
}

// IsValid reports whether s is a known solver.
func (s SolverType) IsValid() bool {
	_, ok := solverNames[s]
	return ok
}

// IsLogisticRegression reports whether the model yields probability estimates.
func (s SolverType) IsLogisticRegression() bool {
	return s == L2RLR || s == L2RLRDual || s == L1RLR
}

// IsRegression reports whether s is a support vector regression solver.
func (s SolverType) IsRegression() bool {
	return s == L2RL2LossSVR || s == L2RL2LossSVRDual || s == L2RL1LossSVRDual
}

// IsOneClass reports whether s is the one-class SVM.
func (s SolverType) IsOneClass() bool {
	return s == OneClassSVM
}

// SupportsInitSol reports whether a warm start is accepted.
func (s SolverType) SupportsInitSol() bool {
	return s == L2RLR || s == L2RL2LossSVC || s == L2RL2LossSVR
}

// SupportsUnregularizedBias reports whether RegularizeBias=false is accepted.
func (s SolverType) SupportsUnregularizedBias() bool {
	switch s {
	case L2RLR, L2RL2LossSVC, L1RL2LossSVC, L1RLR, L2RL2LossSVR:
		return true
	}
	return false
}

// SupportsParameterSearch reports whether FindParameters accepts s.
func (s SolverType) SupportsParameterSearch() bool {
	return s == L2RLR || s == L2RL2LossSVC || s == L2RL2LossSVR
}

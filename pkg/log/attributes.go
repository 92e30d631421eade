// Package log defines standard attribute keys for solver and estimator logging.
//
// The keys follow a hierarchical naming convention (e.g., "model.name",
// "data.samples") to enable structured log analysis and filtering.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "LogisticRegression", "LinearSVC"
	ModelNameKey = "model.name"

	// SolverKey identifies the liblinear solver in use.
	// Examples: "L2R_LR", "MCSVM_CS"
	SolverKey = "model.solver"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "linear", "capi", "sklearn"
	ComponentKey = "ml.component"
)

// Data Shape
const (
	// SamplesKey indicates the number of training instances.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features, including the bias feature when present.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of distinct classes.
	ClassesKey = "data.classes"
)

// Optimization progress
const (
	// IterationKey records the current outer iteration.
	IterationKey = "training.iteration"

	// ObjectiveKey records the objective function value.
	ObjectiveKey = "training.objective"

	// GradNormKey records the gradient norm used as the stopping measure.
	GradNormKey = "training.grad_norm"

	// StepSizeKey records the line-search step size.
	StepSizeKey = "training.step_size"

	// CGIterKey records the conjugate gradient iterations of a Newton step.
	CGIterKey = "training.cg_iter"

	// ActiveSizeKey records the number of unshrunk variables.
	ActiveSizeKey = "training.active_size"

	// FoldKey records the cross-validation fold.
	FoldKey = "training.fold"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records cross-validation accuracy.
	AccuracyKey = "metrics.accuracy"

	// MSEKey records cross-validation mean squared error.
	MSEKey = "metrics.mse"
)

// Hyperparameters
const (
	// CKey records the cost parameter.
	CKey = "hyperparams.c"

	// PKey records the SVR epsilon-insensitivity.
	PKey = "hyperparams.p"

	// EpsKey records the stopping tolerance.
	EpsKey = "hyperparams.eps"

	// RandomSeedKey records the seed of the per-call random source.
	RandomSeedKey = "config.random_seed"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// SuggestionKey provides a hint for resolving the issue.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationTrain          = "train"
	OperationPredict        = "predict"
	OperationCrossValidate  = "cross_validate"
	OperationFindParameters = "find_parameters"
	OperationFit            = "fit"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorInvalidParameter  = "INVALID_PARAMETER"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
)

package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

func TestSolverTypeValues(t *testing.T) {
	want := map[SolverType]int{
		L2RLR: 0, L2RL2LossSVCDual: 1, L2RL2LossSVC: 2, L2RL1LossSVCDual: 3, MCSVMCS: 4,
		L1RL2LossSVC: 5, L1RLR: 6, L2RLRDual: 7, L2RL2LossSVR: 11, L2RL2LossSVRDual: 12,
		L2RL1LossSVRDual: 13, OneClassSVM: 21,
	}
	for s, v := range want {
		assert.Equal(t, v, int(s), s.String())
		assert.True(t, s.IsValid())
	}
	assert.Len(t, SolverTypes(), len(want))
	assert.False(t, SolverType(8).IsValid())
}

func TestParseSolverTypeRoundTrip(t *testing.T) {
	for _, s := range SolverTypes() {
		got, err := ParseSolverType(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseSolverType("L3R_LR")
	var cfg *errors.ConfigurationError
	assert.True(t, errors.As(err, &cfg))
}

func TestSolverFamilies(t *testing.T) {
	assert.True(t, L2RLR.IsLogisticRegression())
	assert.True(t, L1RLR.IsLogisticRegression())
	assert.True(t, L2RLRDual.IsLogisticRegression())
	assert.False(t, L2RL2LossSVC.IsLogisticRegression())

	for _, s := range []SolverType{L2RL2LossSVR, L2RL2LossSVRDual, L2RL1LossSVRDual} {
		assert.True(t, s.IsRegression(), s.String())
	}
	assert.False(t, MCSVMCS.IsRegression())
	assert.True(t, OneClassSVM.IsOneClass())

	assert.True(t, L2RL2LossSVR.SupportsInitSol())
	assert.False(t, L2RL2LossSVCDual.SupportsInitSol())
	assert.True(t, L1RLR.SupportsUnregularizedBias())
	assert.False(t, L2RLRDual.SupportsUnregularizedBias())
}

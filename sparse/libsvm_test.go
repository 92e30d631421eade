package sparse

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/golinear/pkg/errors"
)

const heartSample = `+1 1:0.708333 3:1 4:-0.320755
-1 2:1 3:-0.5

-1 1:0.5 5:0.25
`

func TestReadLibSVM(t *testing.T) {
	prob, err := ReadLibSVM(strings.NewReader(heartSample), 1)
	require.NoError(t, err)

	assert.Equal(t, 3, prob.L)
	assert.Equal(t, 6, prob.N)
	assert.Equal(t, []float64{1, -1, -1}, prob.Y)
	require.NoError(t, prob.Validate())

	assert.Equal(t, Vector{{1, 0.708333}, {3, 1}, {4, -0.320755}, {6, 1}, {Sentinel, 0}}, prob.X[0])
	assert.Equal(t, Vector{{2, 1}, {3, -0.5}, {6, 1}, {Sentinel, 0}}, prob.X[1])
	assert.Equal(t, Vector{{1, 0.5}, {5, 0.25}, {6, 1}, {Sentinel, 0}}, prob.X[2])
}

func TestReadLibSVMNoBias(t *testing.T) {
	prob, err := ReadLibSVM(strings.NewReader("3 2:4\n1\n"), -1)
	require.NoError(t, err)
	assert.Equal(t, 2, prob.N)
	assert.Equal(t, Vector{{2, 4}, {Sentinel, 0}}, prob.X[0])
	assert.Equal(t, Vector{{Sentinel, 0}}, prob.X[1])
}

func TestReadLibSVMErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad label", "x 1:1\n"},
		{"missing colon", "1 1:1 2\n"},
		{"zero index", "1 0:1\n"},
		{"descending", "1 3:1 2:1\n"},
		{"duplicate", "1 2:1 2:1\n"},
		{"bad value", "1 1:abc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadLibSVM(strings.NewReader(tt.input), -1)
			var verr *errors.ValueError
			require.True(t, errors.As(err, &verr), "unexpected error: %v", err)
			assert.Contains(t, err.Error(), "line 1")
		})
	}
}

func TestWriteLibSVMRoundTrip(t *testing.T) {
	prob, err := ReadLibSVM(strings.NewReader(heartSample), 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteLibSVM(&buf, prob))
	assert.Equal(t, "1 1:0.708333 3:1 4:-0.320755\n-1 2:1 3:-0.5\n-1 1:0.5 5:0.25\n", buf.String())

	again, err := ReadLibSVM(&buf, 1)
	require.NoError(t, err)
	assert.Equal(t, prob.X, again.X)
	assert.Equal(t, prob.Y, again.Y)

	prob.Release()
	assert.ErrorIs(t, WriteLibSVM(&buf, prob), errors.ErrReleased)
}

func TestReadLibSVMFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.txt")
	require.NoError(t, os.WriteFile(path, []byte(heartSample), 0o600))
	prob, err := ReadLibSVMFile(path, -1)
	require.NoError(t, err)
	assert.Equal(t, 5, prob.N)

	_, err = ReadLibSVMFile(filepath.Join(t.TempDir(), "missing"), -1)
	assert.Error(t, err)
}

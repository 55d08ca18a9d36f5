package pid_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"codeberg.org/mutker/lhmosc/internal/errors"
	"codeberg.org/mutker/lhmosc/internal/pid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lhmosc.pid")

	require.NoError(t, pid.Write(path))

	bytes, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(bytes))

	require.NoError(t, pid.Remove(path))
	assert.NoFileExists(t, path)

	// Removing twice is fine.
	assert.NoError(t, pid.Remove(path))
}

func TestWriteOverwritesStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lhmosc.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0o600))

	require.NoError(t, pid.Write(path))

	bytes, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(bytes))
}

func TestWriteRejectsLiveProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lhmosc.pid")
	// The parent (the test runner) is alive for the duration of the test.
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getppid())), 0o600))

	err := pid.Write(path)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrAlreadyRunning))
}

func TestWriteFailsInMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "lhmosc.pid")

	err := pid.Write(path)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInternal))
}

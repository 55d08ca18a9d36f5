// Package pid guards against two bridges sharing one OSC port.
package pid

import (
	"os"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/lhmosc/internal/errors"
)

// Write records the current process ID at path. It fails with
// ErrAlreadyRunning if the file names a live process; stale files are
// overwritten.
func Write(path string) error {
	errFactory := errors.New()

	if bytes, err := os.ReadFile(path); err == nil {
		if running(strings.TrimSpace(string(bytes))) {
			return errFactory.WithData(errors.ErrAlreadyRunning, path)
		}
	} else if !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove deletes the PID file if present.
func Remove(path string) error {
	errFactory := errors.New()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func running(contents string) bool {
	pid, err := strconv.Atoi(contents)
	if err != nil || pid <= 0 || pid == os.Getpid() {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}

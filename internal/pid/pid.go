package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/markpostal/kiln-watch/internal/errors"
)

const (
	pidFile = "kilnwatch.pid"
)

// Path returns the location of the PID file.
func Path() string {
	return filepath.Join(os.TempDir(), pidFile)
}

// Write writes the current process ID to a PID file. It fails with
// ErrAlreadyRunning when the file names a live process.
func Write() error {
	errFactory := errors.New()
	path := Path()

	if bytes, err := os.ReadFile(path); err == nil {
		existing, err := strconv.Atoi(strings.TrimSpace(string(bytes)))
		if err == nil && existing != os.Getpid() && alive(existing) {
			return errFactory.WithData(errors.ErrAlreadyRunning, existing)
		}
		// stale or unreadable, overwrite below
	} else if !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600)
	if err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file.
func Remove() error {
	errFactory := errors.New()

	if err := os.Remove(Path()); err != nil && !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

func alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

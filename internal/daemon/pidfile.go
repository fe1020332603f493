package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// ErrAlreadyRunning is returned when the PID file names a live process
var ErrAlreadyRunning = errors.New("daemon already running")

// PidFile guards against two daemons running at once
type PidFile struct {
	path string
}

// AcquirePidFile writes the current PID to path. A PID file left behind by
// a process that no longer exists is replaced.
func AcquirePidFile(path string) (*PidFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create pid directory: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
		if err == nil {
			_, werr := fmt.Fprintf(file, "%d\n", os.Getpid())
			if cerr := file.Close(); werr == nil {
				werr = cerr
			}
			if werr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("failed to write pid file: %w", werr)
			}
			return &PidFile{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create pid file: %w", err)
		}

		pid, running := ReadPid(path)
		if running {
			return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale pid file: %w", err)
		}
	}

	return nil, fmt.Errorf("%w: pid file %s keeps reappearing", ErrAlreadyRunning, path)
}

// Path returns the PID file location
func (p *PidFile) Path() string {
	return p.path
}

// Release removes the PID file
func (p *PidFile) Release() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ReadPid returns the PID recorded at path and whether that process is alive
func ReadPid(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	exists, err := process.PidExists(int32(pid))
	if err != nil {
		return pid, false
	}
	return pid, exists
}

//go:build windows

package proc

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

// Signaler terminates processes through the Win32 API. Windows has no
// SIGTERM equivalent, so the graceful and the forceful stage both call
// TerminateProcess; the configured signal name is accepted and ignored.
type Signaler struct{}

func NewSignaler(graceful string) (*Signaler, error) {
	return &Signaler{}, nil
}

func (s *Signaler) Terminate(pid int) error { return terminateProcess(pid) }

func (s *Signaler) Kill(pid int) error { return terminateProcess(pid) }

// Alive reports whether the process can still be opened and has not
// exited. Access denied implies the process exists.
func (s *Signaler) Alive(pid int) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return errors.Is(err, windows.ERROR_ACCESS_DENIED)
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return true
	}
	// STILL_ACTIVE is an alias for STATUS_PENDING in the Win32 headers.
	return code == uint32(windows.STATUS_PENDING)
}

// terminateProcess kills pid, treating an already-exited target as
// success.
func terminateProcess(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid: %d", pid)
	}

	h, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		// OpenProcess reports a vanished PID as an invalid parameter.
		if errors.Is(err, windows.ERROR_INVALID_PARAMETER) {
			return nil
		}
		return fmt.Errorf("open process %d: %w", pid, err)
	}
	defer windows.CloseHandle(h)

	if err := windows.TerminateProcess(h, 1); err != nil {
		return fmt.Errorf("terminate process %d: %w", pid, err)
	}
	return nil
}

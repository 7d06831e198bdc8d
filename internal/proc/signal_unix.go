//go:build linux || darwin

package proc

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
)

// Signaler delivers POSIX signals. The graceful signal is configurable,
// the forceful one is always SIGKILL.
type Signaler struct {
	Graceful syscall.Signal
}

// NewSignaler parses the graceful signal name ("term", "SIGTERM", "15", ...).
func NewSignaler(graceful string) (*Signaler, error) {
	sig, err := ParseSignal(graceful)
	if err != nil {
		return nil, err
	}
	return &Signaler{Graceful: sig}, nil
}

func (s *Signaler) Terminate(pid int) error { return signalPID(pid, s.Graceful) }

func (s *Signaler) Kill(pid int) error { return signalPID(pid, syscall.SIGKILL) }

// Alive probes with the null signal. EPERM means the process exists but
// belongs to someone else, which still counts as alive.
func (s *Signaler) Alive(pid int) bool {
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}

// signalPID sends sig to pid, treating an already-exited target as
// success: the goal was for the process to be gone, and it is.
func signalPID(pid int, sig syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("process %d not found: %w", pid, err)
	}
	err = proc.Signal(sig)
	if err == nil || errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return fmt.Errorf("signal %v to PID %d failed: %w", sig, pid, err)
}

// ParseSignal maps a signal name or number to a syscall.Signal. Names are
// accepted with or without the SIG prefix, case-insensitively. Numbers
// cover the ones that are the same on Linux and macOS.
func ParseSignal(name string) (syscall.Signal, error) {
	s := strings.ToUpper(strings.TrimSpace(name))
	s = strings.TrimPrefix(s, "SIG")
	switch s {
	case "HUP", "1":
		return syscall.SIGHUP, nil
	case "INT", "2":
		return syscall.SIGINT, nil
	case "QUIT", "3":
		return syscall.SIGQUIT, nil
	case "KILL", "9":
		return syscall.SIGKILL, nil
	case "USR1":
		return syscall.SIGUSR1, nil
	case "USR2":
		return syscall.SIGUSR2, nil
	case "TERM", "15":
		return syscall.SIGTERM, nil
	}
	return 0, fmt.Errorf("unknown signal %q", name)
}

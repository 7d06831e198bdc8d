package kill

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"killport/pkg/model"
)

// Resolver finds the processes bound to a port.
type Resolver interface {
	Candidates(port uint16) ([]model.Candidate, error)
}

// Signaler delivers signals to a single process. Implementations absorb
// the already-gone case: signalling a PID that has exited returns nil,
// since a vanished process is exactly what a kill wants.
type Signaler interface {
	// Terminate delivers the graceful signal (SIGTERM or configured equivalent).
	Terminate(pid int) error
	// Kill delivers the forceful, untrappable signal.
	Kill(pid int) error
	// Alive reports whether the process still exists. Permission denied
	// counts as alive.
	Alive(pid int) bool
}

// Filter drops the given PID from the candidates and returns the rest
// sorted by PID. The caller passes its own PID so the tool never
// terminates itself.
func Filter(cands []model.Candidate, selfPID int) []model.Candidate {
	out := make([]model.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.PID == selfPID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// Engine resolves the processes on a port and walks each through a
// graceful-then-forceful termination.
type Engine struct {
	Resolver Resolver
	Signaler Signaler
	Grace    time.Duration // wait between the graceful and forceful stage
	SelfPID  int
	Log      *slog.Logger
}

// ResolveAndKill resolves the candidates for port and terminates them in
// PID order. With dryRun set it only reports what it would have killed.
//
// The result is Killed when at least one candidate was terminated (or
// found already gone), DryRun when dryRun is set and candidates exist,
// and NotKilled otherwise. A resolution failure is returned as an error;
// per-candidate signal failures abort nothing and are surfaced as one
// joined error only when every candidate failed.
func (e *Engine) ResolveAndKill(port uint16, dryRun bool) (model.KillResult, error) {
	if port == 0 {
		return model.NotKilled, nil
	}

	cands, err := e.Resolver.Candidates(port)
	if err != nil {
		return model.NotKilled, fmt.Errorf("resolve port %d: %w", port, err)
	}
	cands = Filter(cands, e.SelfPID)
	if len(cands) == 0 {
		return model.NotKilled, nil
	}

	log := e.logger()
	if dryRun {
		for _, c := range cands {
			log.Info("would kill process", "pid", c.PID, "name", c.Name, "port", port)
			warnSupervised(log, c)
		}
		return model.DryRun, nil
	}

	killed := 0
	var failures []error
	for _, c := range cands {
		if err := e.terminate(c); err != nil {
			log.Warn("failed to kill process", "pid", c.PID, "name", c.Name, "error", err)
			failures = append(failures, fmt.Errorf("pid %d (%s): %w", c.PID, c.Name, err))
			continue
		}
		log.Info("killed process", "pid", c.PID, "name", c.Name, "port", port)
		killed++
	}

	if killed == 0 && len(failures) > 0 {
		return model.NotKilled, errors.Join(failures...)
	}
	if killed == 0 {
		return model.NotKilled, nil
	}
	return model.Killed, nil
}

// KillCandidate walks a single already-resolved process through the
// same escalation ResolveAndKill uses. Callers that present their own
// candidate picker go through here.
func (e *Engine) KillCandidate(c model.Candidate) error {
	if c.PID == e.SelfPID {
		return fmt.Errorf("refusing to kill own process %d", c.PID)
	}
	return e.terminate(c)
}

// terminate walks one process through the escalation: graceful signal,
// full grace wait, then a forceful kill if it is still alive. The wait is
// a single fixed sleep; exits during it are picked up by the liveness
// check afterwards.
func (e *Engine) terminate(c model.Candidate) error {
	warnSupervised(e.logger(), c)
	if err := e.Signaler.Terminate(c.PID); err != nil {
		return err
	}
	time.Sleep(e.Grace)
	if !e.Signaler.Alive(c.PID) {
		return nil
	}
	e.logger().Debug("process survived graceful stage", "pid", c.PID, "name", c.Name)
	return e.Signaler.Kill(c.PID)
}

// warnSupervised flags processes a service manager or container runtime
// will likely restart after the kill.
func warnSupervised(log *slog.Logger, c model.Candidate) {
	if !c.Supervisor.Supervised() {
		return
	}
	log.Warn("process is supervised and may be restarted",
		"pid", c.PID, "name", c.Name, "supervisor", c.Supervisor)
}

func (e *Engine) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}

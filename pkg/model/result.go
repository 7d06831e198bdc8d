package model

// KillResult is the outcome of resolving and terminating the processes
// bound to a single port.
type KillResult int

const (
	// NotKilled: no candidates were found, or none could be terminated.
	NotKilled KillResult = iota
	// Killed: at least one candidate was terminated or found already gone.
	Killed
	// DryRun: candidates were found and reported, nothing was signalled.
	DryRun
)

func (r KillResult) String() string {
	switch r {
	case Killed:
		return "killed"
	case DryRun:
		return "dry-run"
	default:
		return "not-killed"
	}
}

//go:build linux || darwin || windows

// Package proc reads the kernel's socket tables and correlates sockets
// with the processes that own them. On Linux that means walking
// /proc/net and /proc/<pid>/fd; on macOS lsof does the walking; on
// Windows the iphlpapi tables report the owner directly.
package proc

import (
	"sort"

	"killport/internal/supervise"
	"killport/pkg/model"
)

// Candidates returns the processes bound to port, one entry per PID even
// when a process holds several matching sockets, sorted by PID. Port 0
// means every port (listing mode). With anyState false only
// listener-state sockets count (TCP LISTEN, bound UDP). Each candidate
// is annotated with its supervisor when one can be identified.
func Candidates(port uint16, anyState bool) ([]model.Candidate, error) {
	sockets, err := readSocketTable(port, anyState)
	if err != nil {
		return nil, err
	}
	if len(sockets) == 0 {
		return nil, nil
	}

	owners, err := correlateOwners(sockets)
	if err != nil {
		return nil, err
	}
	if len(owners) == 0 {
		return nil, nil
	}

	pids := make([]int, 0, len(owners))
	for pid := range owners {
		pids = append(pids, pid)
	}
	sort.Ints(pids)

	names := processNames(pids)
	cands := make([]model.Candidate, 0, len(pids))
	for _, pid := range pids {
		cands = append(cands, model.Candidate{
			PID:     pid,
			Name:    names[pid],
			Sockets: owners[pid],
		})
	}
	supervise.Annotate(cands)
	return cands, nil
}

// Resolver adapts the platform walkers to the termination engine.
type Resolver struct {
	AnyState bool
}

func (r Resolver) Candidates(port uint16) ([]model.Candidate, error) {
	return Candidates(port, r.AnyState)
}

// listenerState reports whether a socket state counts as "serving the
// port": a listening TCP socket or a bound (unconnected) UDP one.
func listenerState(state string) bool {
	return state == "LISTEN" || state == "UNCONN"
}

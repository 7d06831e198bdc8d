//go:build darwin || windows

package supervise

import "killport/pkg/model"

// procEntry is one row of a full process-table snapshot.
type procEntry struct {
	ppid int
	name string
}

// chainFrom walks the snapshot from pid up to the root and returns the
// chain root first. Missing parents end the walk early.
func chainFrom(procs map[int]procEntry, pid int) []model.Ancestor {
	var chain []model.Ancestor
	for pid > 0 && len(chain) < maxDepth {
		e, ok := procs[pid]
		if !ok {
			break
		}
		chain = append(chain, model.Ancestor{PID: pid, Name: e.name})
		if pid == 1 {
			break
		}
		pid = e.ppid
	}
	reverse(chain)
	return chain
}

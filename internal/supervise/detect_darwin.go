//go:build darwin

package supervise

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"killport/pkg/model"
)

// annotate resolves every candidate against a single ps snapshot.
func annotate(cands []model.Candidate) {
	procs, err := snapshot()
	if err != nil {
		return
	}
	for i := range cands {
		cands[i].Supervisor = classifyChain(chainFrom(procs, cands[i].PID))
	}
}

func snapshot() (map[int]procEntry, error) {
	out, err := exec.Command("ps", "-axo", "pid=,ppid=,comm=").Output()
	if err != nil {
		return nil, fmt.Errorf("ps snapshot: %w", err)
	}
	return parseSnapshot(string(out)), nil
}

// parseSnapshot reads "pid ppid command" rows. The command is a full path
// and may contain spaces.
func parseSnapshot(out string) map[int]procEntry {
	procs := make(map[int]procEntry)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		ppid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		name := filepath.Base(strings.Join(fields[2:], " "))
		procs[pid] = procEntry{ppid: ppid, name: name}
	}
	return procs
}

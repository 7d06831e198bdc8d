//go:build windows

package supervise

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"killport/pkg/model"
)

// annotate resolves every candidate against a single process-table
// snapshot. Services answer to services.exe somewhere up the chain.
func annotate(cands []model.Candidate) {
	procs, err := snapshot()
	if err != nil {
		return
	}
	for i := range cands {
		cands[i].Supervisor = classifyChain(chainFrom(procs, cands[i].PID))
	}
}

// snapshot reads the full process table once via CIM. wmic is deprecated
// on current Windows builds, so PowerShell does the query.
func snapshot() (map[int]procEntry, error) {
	out, err := exec.Command("powershell", "-NoProfile", "-NonInteractive",
		"Get-CimInstance -ClassName Win32_Process | ForEach-Object { '{0},{1},{2}' -f $_.ProcessId, $_.ParentProcessId, $_.Name }").Output()
	if err != nil {
		return nil, fmt.Errorf("process snapshot: %w", err)
	}
	return parseSnapshot(string(out)), nil
}

// parseSnapshot reads "pid,ppid,name" rows. Image names may contain
// commas, so only the first two fields are split off.
func parseSnapshot(out string) map[int]procEntry {
	procs := make(map[int]procEntry)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), ",", 3)
		if len(parts) < 3 {
			continue
		}
		pid, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		ppid, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		procs[pid] = procEntry{ppid: ppid, name: parts[2]}
	}
	return procs
}

//go:build darwin

package proc

import (
	"os/exec"
	"strconv"
	"strings"

	"killport/pkg/model"
)

// correlateOwners groups sockets by the PID lsof already reported in-row.
func correlateOwners(sockets []model.Socket) (map[int][]model.Socket, error) {
	owners := make(map[int][]model.Socket)
	for _, s := range sockets {
		if s.PID <= 0 {
			continue
		}
		owners[s.PID] = append(owners[s.PID], s)
	}
	return owners, nil
}

// processNames resolves command names with a single ps call. lsof's own
// COMMAND column is truncated, ps is not.
func processNames(pids []int) map[int]string {
	if len(pids) == 0 {
		return map[int]string{}
	}

	list := make([]string, 0, len(pids))
	for _, pid := range pids {
		list = append(list, strconv.Itoa(pid))
	}
	out, err := exec.Command("ps", "-p", strings.Join(list, ","), "-o", "pid=,comm=").Output()
	if err != nil {
		return map[int]string{}
	}
	return parsePSNames(string(out))
}

// parsePSNames parses "  123 /usr/sbin/mDNSResponder" rows, keeping only
// the last path element of the command.
func parsePSNames(out string) map[int]string {
	names := make(map[int]string)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		comm := strings.Join(fields[1:], " ")
		if i := strings.LastIndex(comm, "/"); i != -1 {
			comm = comm[i+1:]
		}
		names[pid] = comm
	}
	return names
}

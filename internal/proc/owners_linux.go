//go:build linux

package proc

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"killport/pkg/model"
)

// correlateOwners finds the owning PID for each socket by walking every
// /proc/<pid>/fd for socket:[inode] links. Processes that vanish or deny
// the read mid-scan are skipped; they cannot be a candidate we could act
// on anyway.
func correlateOwners(sockets []model.Socket) (map[int][]model.Socket, error) {
	byInode := make(map[string]model.Socket, len(sockets))
	for _, s := range sockets {
		byInode[s.Inode] = s
	}

	procs, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("read /proc: %w", err)
	}

	owners := make(map[int][]model.Socket)
	for _, p := range procs {
		if !p.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(p.Name())
		if err != nil {
			continue
		}

		// Scan fds
		fdPath := fmt.Sprintf("/proc/%d/fd", pid)
		fds, err := os.ReadDir(fdPath)
		if err != nil {
			continue
		}

		for _, fd := range fds {
			link, err := os.Readlink(fmt.Sprintf("%s/%s", fdPath, fd.Name()))
			if err != nil {
				continue
			}
			if !strings.HasPrefix(link, "socket:[") {
				continue
			}
			inode := strings.TrimSuffix(strings.TrimPrefix(link, "socket:["), "]")
			if s, ok := byInode[inode]; ok {
				s.PID = pid
				owners[pid] = append(owners[pid], s)
			}
		}
	}
	return owners, nil
}

// processNames reads the short command name for each PID, best effort.
func processNames(pids []int) map[int]string {
	names := make(map[int]string, len(pids))
	for _, pid := range pids {
		comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
		if err != nil {
			continue
		}
		names[pid] = strings.TrimSpace(string(comm))
	}
	return names
}

//go:build windows

package proc

import (
	"bytes"
	"encoding/csv"
	"os/exec"
	"strconv"
	"strings"

	"killport/pkg/model"
)

// correlateOwners groups sockets by the PID the table reported in-row.
// PID 0 rows belong to the kernel (TIME_WAIT leftovers and the like) and
// are not killable targets.
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

// processNames resolves image names from one tasklist snapshot.
func processNames(pids []int) map[int]string {
	out, err := exec.Command("tasklist", "/FO", "CSV", "/NH").Output()
	if err != nil {
		return map[int]string{}
	}

	all := parseTaskList(out)
	names := make(map[int]string, len(pids))
	for _, pid := range pids {
		if name, ok := all[pid]; ok {
			names[pid] = name
		}
	}
	return names
}

// parseTaskList reads tasklist's CSV rows: "Image Name","PID",...
func parseTaskList(out []byte) map[int]string {
	r := csv.NewReader(bytes.NewReader(out))
	r.FieldsPerRecord = -1

	names := make(map[int]string)
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		if len(record) < 2 {
			continue
		}

		pid, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			continue
		}
		names[pid] = strings.TrimSpace(record[0])
	}
	return names
}

//go:build linux

package supervise

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"killport/pkg/model"
)

func annotate(cands []model.Candidate) {
	for i := range cands {
		cands[i].Supervisor = detect(cands[i].PID)
	}
}

// detect classifies one process. The cgroup path is checked first: both
// container runtimes and systemd leave their names in it, along with the
// unit or container id the parent chain cannot provide.
func detect(pid int) model.Supervisor {
	if s := fromCgroup(pid); s.Supervised() {
		return s
	}
	return classifyChain(ancestry(pid))
}

func fromCgroup(pid int) model.Supervisor {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/cgroup")
	if err != nil {
		return model.Supervisor{}
	}
	return parseCgroup(string(data))
}

func parseCgroup(content string) model.Supervisor {
	switch {
	case strings.Contains(content, "docker"):
		return model.Supervisor{Kind: model.SupervisorDocker, Unit: containerID(content, "docker-", "docker/")}
	case strings.Contains(content, "libpod"), strings.Contains(content, "podman"):
		return model.Supervisor{Kind: model.SupervisorPodman, Unit: containerID(content, "libpod-", "libpod/")}
	case strings.Contains(content, "kubepods"):
		return model.Supervisor{Kind: model.SupervisorKubernetes}
	case strings.Contains(content, "containerd"):
		return model.Supervisor{Kind: model.SupervisorContainerd}
	}
	if unit := systemdUnit(content); unit != "" {
		return model.Supervisor{Kind: model.SupervisorSystemd, Unit: unit}
	}
	return model.Supervisor{}
}

// systemdUnit extracts the unit name from a system.slice cgroup path.
// Processes in user slices or sessions are not unit-managed.
func systemdUnit(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "system.slice") {
			continue
		}
		segs := strings.Split(line, "/")
		last := segs[len(segs)-1]
		if strings.HasSuffix(last, ".service") {
			return last
		}
	}
	return ""
}

// containerID pulls the container id out of a cgroup path. Two layouts
// exist: systemd driver "<prefix>-<id>.scope" and cgroupfs "<prefix>/<id>".
// The id is shortened to the usual 12 characters.
func containerID(cgroup, dashPrefix, slashPrefix string) string {
	if idx := strings.Index(cgroup, dashPrefix); idx != -1 {
		rest := cgroup[idx+len(dashPrefix):]
		if dot := strings.Index(rest, ".scope"); dot != -1 {
			return shortID(rest[:dot])
		}
	}
	if idx := strings.Index(cgroup, slashPrefix); idx != -1 {
		rest := cgroup[idx+len(slashPrefix):]
		if len(rest) >= 64 {
			return shortID(rest[:64])
		}
	}
	return ""
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// ancestry walks /proc/<pid>/stat up to the root and returns the chain
// root first. Read failures end the walk with whatever was collected.
func ancestry(pid int) []model.Ancestor {
	return statChain(pid, readStat)
}

func statChain(pid int, stat func(int) (string, int, error)) []model.Ancestor {
	var chain []model.Ancestor
	for pid > 0 && len(chain) < maxDepth {
		name, ppid, err := stat(pid)
		if err != nil {
			break
		}
		chain = append(chain, model.Ancestor{PID: pid, Name: name})
		if pid == 1 {
			break
		}
		pid = ppid
	}
	reverse(chain)
	return chain
}

func readStat(pid int) (string, int, error) {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return "", 0, err
	}
	return parseStat(string(data))
}

// parseStat pulls the command and parent PID out of a stat line. The
// command is wrapped in parentheses and may itself contain them, so the
// parse anchors on the last ')'.
func parseStat(raw string) (string, int, error) {
	open := strings.Index(raw, "(")
	close := strings.LastIndex(raw, ")")
	if open == -1 || close == -1 || close < open {
		return "", 0, fmt.Errorf("malformed stat line")
	}
	name := raw[open+1 : close]
	fields := strings.Fields(raw[close+1:])
	if len(fields) < 2 {
		return "", 0, fmt.Errorf("truncated stat line")
	}
	ppid, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, fmt.Errorf("stat ppid %q: %w", fields[1], err)
	}
	return name, ppid, nil
}

//go:build linux || darwin || windows

// Package supervise identifies the service manager or container runtime
// that keeps a process running. Killing a supervised process usually just
// makes the supervisor start a replacement, so the result is surfaced as
// a warning, never a refusal.
package supervise

import (
	"path/filepath"
	"strings"

	"killport/pkg/model"
)

// Parent chains longer than this are cut off. Guards against PPID cycles
// after PID reuse.
const maxDepth = 32

// Annotate fills in the Supervisor of every candidate, best effort.
// Lookup failures leave the candidate unannotated.
func Annotate(cands []model.Candidate) {
	if len(cands) == 0 {
		return
	}
	annotate(cands)
}

var shells = map[string]bool{
	"sh":             true,
	"bash":           true,
	"zsh":            true,
	"dash":           true,
	"ash":            true,
	"csh":            true,
	"tcsh":           true,
	"ksh":            true,
	"fish":           true,
	"cmd.exe":        true,
	"powershell.exe": true,
	"pwsh.exe":       true,
}

func isShell(name string) bool {
	base := strings.ToLower(filepath.Base(name))
	// login shells report as "-zsh"
	base = strings.TrimPrefix(base, "-")
	return shells[base]
}

// classifyChain maps a parent chain (root first, the process itself last)
// to the supervisor it implies. Only process names are read here;
// container evidence from cgroups is handled by the platform code.
func classifyChain(chain []model.Ancestor) model.Supervisor {
	if len(chain) < 2 {
		return model.Supervisor{}
	}

	// A named manager anywhere above the process wins, shells in between
	// notwithstanding: container entrypoints routinely run through sh -c.
	for _, a := range chain[:len(chain)-1] {
		switch strings.ToLower(filepath.Base(a.Name)) {
		case "dockerd", "docker-containerd":
			return model.Supervisor{Kind: model.SupervisorDocker}
		case "containerd", "containerd-shim", "containerd-shim-runc-v2":
			return model.Supervisor{Kind: model.SupervisorContainerd}
		case "podman", "conmon":
			return model.Supervisor{Kind: model.SupervisorPodman}
		case "kubelet":
			return model.Supervisor{Kind: model.SupervisorKubernetes}
		case "services.exe":
			return model.Supervisor{Kind: model.SupervisorWindowsSCM}
		case "pm2":
			return model.Supervisor{Kind: model.SupervisorPM2}
		case "cron", "crond":
			return model.Supervisor{Kind: model.SupervisorCron}
		case "supervisord":
			return model.Supervisor{Kind: model.SupervisorSupervisord}
		}
	}

	// Direct descendants of PID 1 with no shell in between were started by
	// the init system itself. A shell anywhere in the chain means a user or
	// script launched it.
	root := chain[0]
	if root.PID != 1 {
		return model.Supervisor{}
	}
	for _, a := range chain[1 : len(chain)-1] {
		if isShell(a.Name) {
			return model.Supervisor{}
		}
	}
	switch strings.ToLower(filepath.Base(root.Name)) {
	case "systemd":
		return model.Supervisor{Kind: model.SupervisorSystemd}
	case "launchd":
		return model.Supervisor{Kind: model.SupervisorLaunchd}
	default:
		return model.Supervisor{Kind: model.SupervisorInit}
	}
}

// reverse orders a chain root first.
func reverse(chain []model.Ancestor) {
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
}

package model

// SupervisorKind classifies the service manager or container runtime a
// process runs under.
type SupervisorKind string

const (
	SupervisorNone        SupervisorKind = ""
	SupervisorSystemd     SupervisorKind = "systemd"
	SupervisorLaunchd     SupervisorKind = "launchd"
	SupervisorInit        SupervisorKind = "init"
	SupervisorDocker      SupervisorKind = "docker"
	SupervisorPodman      SupervisorKind = "podman"
	SupervisorKubernetes  SupervisorKind = "kubernetes"
	SupervisorContainerd  SupervisorKind = "containerd"
	SupervisorWindowsSCM  SupervisorKind = "windows_service"
	SupervisorPM2         SupervisorKind = "pm2"
	SupervisorCron        SupervisorKind = "cron"
	SupervisorSupervisord SupervisorKind = "supervisord"
)

// Supervisor records what keeps a process running. A supervised process
// is usually restarted after a kill, so callers surface it as a warning
// rather than refusing the kill.
type Supervisor struct {
	Kind SupervisorKind
	Unit string // systemd unit or container id, empty when unknown
}

func (s Supervisor) Supervised() bool {
	return s.Kind != SupervisorNone
}

func (s Supervisor) String() string {
	if s.Unit == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ":" + s.Unit
}

// Ancestor is one hop in a process's parent chain, ordered root first.
type Ancestor struct {
	PID  int
	Name string
}

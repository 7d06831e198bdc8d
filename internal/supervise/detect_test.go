//go:build linux || darwin || windows

package supervise

import (
	"testing"

	"killport/pkg/model"
)

func TestClassifyChain(t *testing.T) {
	tests := []struct {
		name  string
		chain []model.Ancestor
		want  model.SupervisorKind
	}{
		{
			name: "systemd service",
			chain: []model.Ancestor{
				{PID: 1, Name: "systemd"},
				{PID: 812, Name: "nginx"},
			},
			want: model.SupervisorSystemd,
		},
		{
			name: "started from a shell",
			chain: []model.Ancestor{
				{PID: 1, Name: "systemd"},
				{PID: 200, Name: "bash"},
				{PID: 340, Name: "node"},
			},
			want: model.SupervisorNone,
		},
		{
			name: "container shim with shell entrypoint",
			chain: []model.Ancestor{
				{PID: 1, Name: "systemd"},
				{PID: 400, Name: "containerd-shim-runc-v2"},
				{PID: 410, Name: "sh"},
				{PID: 411, Name: "node"},
			},
			want: model.SupervisorContainerd,
		},
		{
			name: "dockerd beats the shim",
			chain: []model.Ancestor{
				{PID: 1, Name: "systemd"},
				{PID: 388, Name: "dockerd"},
				{PID: 400, Name: "containerd-shim"},
				{PID: 411, Name: "redis-server"},
			},
			want: model.SupervisorDocker,
		},
		{
			name: "launchd daemon",
			chain: []model.Ancestor{
				{PID: 1, Name: "launchd"},
				{PID: 520, Name: "postgres"},
			},
			want: model.SupervisorLaunchd,
		},
		{
			name: "windows service",
			chain: []model.Ancestor{
				{PID: 560, Name: "services.exe"},
				{PID: 1200, Name: "svchost.exe"},
			},
			want: model.SupervisorWindowsSCM,
		},
		{
			name: "cron job",
			chain: []model.Ancestor{
				{PID: 1, Name: "systemd"},
				{PID: 450, Name: "cron"},
				{PID: 9001, Name: "backup"},
			},
			want: model.SupervisorCron,
		},
		{
			name: "pm2 managed",
			chain: []model.Ancestor{
				{PID: 1, Name: "systemd"},
				{PID: 700, Name: "pm2"},
				{PID: 701, Name: "node"},
			},
			want: model.SupervisorPM2,
		},
		{
			name: "generic init",
			chain: []model.Ancestor{
				{PID: 1, Name: "init"},
				{PID: 90, Name: "httpd"},
			},
			want: model.SupervisorInit,
		},
		{
			name: "orphan with unknown root",
			chain: []model.Ancestor{
				{PID: 300, Name: "tmux: server"},
				{PID: 301, Name: "node"},
			},
			want: model.SupervisorNone,
		},
		{
			name: "manager name as full path",
			chain: []model.Ancestor{
				{PID: 1, Name: "systemd"},
				{PID: 388, Name: "/usr/bin/dockerd"},
				{PID: 411, Name: "redis-server"},
			},
			want: model.SupervisorDocker,
		},
		{
			name:  "single entry",
			chain: []model.Ancestor{{PID: 300, Name: "node"}},
			want:  model.SupervisorNone,
		},
		{
			name:  "empty chain",
			chain: nil,
			want:  model.SupervisorNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyChain(tt.chain)
			if got.Kind != tt.want {
				t.Errorf("classifyChain() = %q, want %q", got.Kind, tt.want)
			}
		})
	}
}

func TestClassifyChainIgnoresOwnName(t *testing.T) {
	// The process itself being a manager says nothing about who started it.
	chain := []model.Ancestor{
		{PID: 1, Name: "systemd"},
		{PID: 388, Name: "dockerd"},
	}
	got := classifyChain(chain)
	if got.Kind != model.SupervisorSystemd {
		t.Errorf("classifyChain() = %q, want %q", got.Kind, model.SupervisorSystemd)
	}
}

func TestSupervisorString(t *testing.T) {
	s := model.Supervisor{Kind: model.SupervisorSystemd, Unit: "nginx.service"}
	if got := s.String(); got != "systemd:nginx.service" {
		t.Errorf("String() = %q", got)
	}
	if got := (model.Supervisor{Kind: model.SupervisorDocker}).String(); got != "docker" {
		t.Errorf("String() = %q", got)
	}
	if (model.Supervisor{}).Supervised() {
		t.Error("zero Supervisor reports supervised")
	}
}

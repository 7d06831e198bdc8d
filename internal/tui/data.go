package tui

import (
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"killport/internal/kill"
	"killport/pkg/model"
)

func (m Model) tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh re-resolves every bound port, drops our own process and sorts
// by lowest port, then PID.
func (m Model) refresh() tea.Cmd {
	list := m.list
	anyState := m.anyState
	selfPID := m.selfPID
	return func() tea.Msg {
		cands, err := list(0, anyState)
		if err != nil {
			return refreshMsg{err: err}
		}
		cands = kill.Filter(cands, selfPID)
		sort.SliceStable(cands, func(i, j int) bool {
			pi, pj := lowestPort(cands[i]), lowestPort(cands[j])
			if pi != pj {
				return pi < pj
			}
			return cands[i].PID < cands[j].PID
		})
		return refreshMsg{candidates: cands}
	}
}

// killCandidate walks one process through the engine's escalation.
func (m Model) killCandidate(c model.Candidate) tea.Cmd {
	eng := m.engine
	return func() tea.Msg {
		err := eng.KillCandidate(c)
		return killResultMsg{pid: c.PID, name: c.Name, err: err}
	}
}

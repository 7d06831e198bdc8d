package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"killport/pkg/model"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirming {
			return m.updateConfirm(msg)
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateNormal(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		// Keep the list still while a confirmation is on screen.
		if m.confirming {
			return m, m.tick()
		}
		return m, tea.Batch(m.refresh(), m.tick())

	case refreshMsg:
		if msg.err != nil {
			m.lastError = msg.err
			m.statusMessage = "Error listing processes"
			m.statusTime = time.Now()
			return m, nil
		}
		m.lastError = nil
		m.candidates = msg.candidates

		// Drop selections whose process is gone.
		existing := make(map[int]bool)
		for _, c := range m.candidates {
			existing[c.PID] = true
		}
		for pid := range m.selected {
			if !existing[pid] {
				delete(m.selected, pid)
			}
		}
		m.clampCursor()

	case killResultMsg:
		return m.updateKillResult(msg)
	}

	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Confirm):
		m.confirming = false
		if len(m.toKill) > 0 {
			m.killIndex = 0
			m.failed = 0
			return m, m.killCandidate(m.toKill[0])
		}
	case key.Matches(msg, keys.Cancel):
		m.confirming = false
		m.toKill = nil
		m.statusMessage = "Cancelled"
		m.statusTime = time.Now()
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		// Leave search mode and clear the filter.
		m.searching = false
		m.input.SetValue("")
		m.input.Blur()
		m.clampCursor()
		return m, nil
	case tea.KeyEnter:
		// Leave search mode but keep the filter.
		m.searching = false
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.cursor = 0
	return m, cmd
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Search):
		m.searching = true
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, keys.Cancel):
		if m.input.Value() != "" {
			m.input.SetValue("")
			m.cursor = 0
		}

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.filteredCandidates())-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Select):
		filtered := m.filteredCandidates()
		if len(filtered) > 0 && m.cursor < len(filtered) {
			pid := filtered[m.cursor].PID
			m.selected[pid] = !m.selected[pid]
		}

	case key.Matches(msg, keys.SelectAll):
		filtered := m.filteredCandidates()
		allSelected := len(filtered) > 0
		for _, c := range filtered {
			if !m.selected[c.PID] {
				allSelected = false
				break
			}
		}
		for _, c := range filtered {
			m.selected[c.PID] = !allSelected
		}

	case key.Matches(msg, keys.Kill):
		filtered := m.filteredCandidates()
		if len(filtered) == 0 {
			return m, nil
		}
		// Selected processes win; otherwise the one under the cursor.
		if sel := m.selectedCandidates(); len(sel) > 0 {
			m.toKill = sel
			m.confirming = true
		} else if m.cursor < len(filtered) {
			m.toKill = []model.Candidate{filtered[m.cursor]}
			m.confirming = true
		}

	case key.Matches(msg, keys.Refresh):
		m.statusMessage = "Refreshing..."
		m.statusTime = time.Now()
		return m, m.refresh()

	case key.Matches(msg, keys.Toggle):
		m.anyState = !m.anyState
		if m.anyState {
			m.statusMessage = "Showing sockets in any state"
		} else {
			m.statusMessage = "Showing listeners only"
		}
		m.statusTime = time.Now()
		return m, m.refresh()
	}

	return m, nil
}

func (m Model) updateKillResult(msg killResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.failed++
	} else {
		delete(m.selected, msg.pid)
	}

	m.killIndex++
	if m.killIndex < len(m.toKill) {
		return m, m.killCandidate(m.toKill[m.killIndex])
	}

	total := len(m.toKill)
	failed := m.failed
	m.toKill = nil
	m.killIndex = 0
	m.failed = 0

	switch {
	case total == 1 && failed == 1:
		m.statusMessage = fmt.Sprintf("Failed to kill %s (pid %d): %v", msg.name, msg.pid, msg.err)
	case total == 1:
		m.statusMessage = fmt.Sprintf("Killed %s (pid %d)", msg.name, msg.pid)
	case failed > 0:
		m.statusMessage = fmt.Sprintf("Killed %d of %d processes", total-failed, total)
	default:
		m.statusMessage = fmt.Sprintf("Killed %d processes", total)
	}
	m.statusTime = time.Now()
	return m, m.refresh()
}

func (m *Model) clampCursor() {
	filtered := m.filteredCandidates()
	if m.cursor >= len(filtered) {
		m.cursor = max(0, len(filtered)-1)
	}
}

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/muesli/reflow/wrap"
)

func (m Model) View() string {
	var sb strings.Builder

	title := "killport"
	if m.anyState {
		title += " (any state)"
	} else {
		title += " (listeners)"
	}
	sb.WriteString(titleStyle.Render(title))
	if count := m.selectedCount(); count > 0 {
		sb.WriteString(" " + countStyle.Render(fmt.Sprintf("[%d selected]", count)))
	}
	sb.WriteString("\n\n")

	header := fmt.Sprintf("    %-18s %-8s %-20s %s", "PORT", "PID", "NAME", "STATE")
	sb.WriteString(headerStyle.Render(header))
	sb.WriteByte('\n')

	filtered := m.filteredCandidates()
	if len(filtered) == 0 {
		switch {
		case m.input.Value() != "":
			sb.WriteString(emptyStyle.Render(fmt.Sprintf("No processes match %q", m.input.Value())))
		case m.lastError != nil:
			sb.WriteString(errorStyle.Render("Could not list processes: " + m.lastError.Error()))
		default:
			sb.WriteString(emptyStyle.Render("No bound ports found"))
		}
		sb.WriteByte('\n')
	}

	for i, c := range filtered {
		checkbox := checkboxUnchecked
		if m.selected[c.PID] {
			checkbox = checkboxChecked
		}

		state := ""
		if len(c.Sockets) > 0 {
			state = c.Sockets[0].State
		}

		line := fmt.Sprintf("%s %-18s %-8d %s %s",
			checkbox,
			portList(c, 18),
			c.PID,
			truncate(c.Name, 20),
			state,
		)

		switch {
		case i == m.cursor:
			sb.WriteString(cursorStyle.Render(line))
		case m.selected[c.PID]:
			sb.WriteString(checkedStyle.Render(line))
		default:
			sb.WriteString(normalStyle.Render(line))
		}
		sb.WriteByte('\n')
	}

	// Socket detail for the focused row.
	if len(filtered) > 0 && m.cursor < len(filtered) && !m.confirming {
		c := filtered[m.cursor]
		detail := "> " + socketSummary(c)
		if c.Supervisor.Supervised() {
			detail += " · runs under " + c.Supervisor.String()
		}
		if m.width > 4 {
			detail = wrap.String(detail, m.width-2)
		}
		sb.WriteByte('\n')
		sb.WriteString(detailStyle.Render(detail))
	}

	if m.confirming {
		if len(m.toKill) == 1 {
			c := m.toKill[0]
			sb.WriteString(confirmStyle.Render(fmt.Sprintf("\nKill %s (pid %d) on port %s? (y/n)", c.Name, c.PID, portList(c, 40))))
		} else {
			sb.WriteString(confirmStyle.Render(fmt.Sprintf("\nKill %d selected processes? (y/n)", len(m.toKill))))
		}
	}

	if m.statusMessage != "" && time.Since(m.statusTime) < statusDuration {
		sb.WriteByte('\n')
		sb.WriteString(statusStyle.Render(m.statusMessage))
	}

	if m.searching {
		sb.WriteByte('\n')
		sb.WriteString(m.input.View())
	} else if m.input.Value() != "" {
		sb.WriteByte('\n')
		sb.WriteString(filterStyle.Render("filter: " + m.input.Value()))
		sb.WriteByte('\n')
		sb.WriteString(helpStyle.Render("↑/k up • ↓/j down • space select • enter/d kill • / search • esc clear • q quit"))
	} else {
		sb.WriteByte('\n')
		sb.WriteString(helpStyle.Render("↑/k up • ↓/j down • space select • a select all • enter/d kill • / search • r refresh • s any-state • q quit"))
	}

	return sb.String()
}

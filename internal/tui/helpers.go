package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"killport/pkg/model"
)

func (m Model) filteredCandidates() []model.Candidate {
	query := strings.ToLower(strings.TrimSpace(m.input.Value()))
	if query == "" {
		return m.candidates
	}
	out := make([]model.Candidate, 0, len(m.candidates))
	for _, c := range m.candidates {
		if candidateMatches(c, query) {
			out = append(out, c)
		}
	}
	return out
}

// candidateMatches checks the query against name, PID, port numbers and
// protocol. query must already be lowercased.
func candidateMatches(c model.Candidate, query string) bool {
	if strings.Contains(strings.ToLower(c.Name), query) {
		return true
	}
	if strings.Contains(strconv.Itoa(c.PID), query) {
		return true
	}
	for _, s := range c.Sockets {
		if strings.Contains(strconv.Itoa(int(s.Port)), query) {
			return true
		}
		if strings.Contains(strings.ToLower(s.Protocol), query) {
			return true
		}
	}
	return false
}

func (m Model) selectedCandidates() []model.Candidate {
	var out []model.Candidate
	for _, c := range m.filteredCandidates() {
		if m.selected[c.PID] {
			out = append(out, c)
		}
	}
	return out
}

func (m Model) selectedCount() int { return len(m.selectedCandidates()) }

// lowestPort is the candidate's sort key in the listing.
func lowestPort(c model.Candidate) uint16 {
	var low uint16
	for _, s := range c.Sockets {
		if low == 0 || s.Port < low {
			low = s.Port
		}
	}
	return low
}

// portList renders the candidate's distinct ports, cut off with a "+N"
// suffix when they do not fit in maxWidth.
func portList(c model.Candidate, maxWidth int) string {
	seen := make(map[uint16]bool)
	ports := make([]int, 0, len(c.Sockets))
	for _, s := range c.Sockets {
		if !seen[s.Port] {
			seen[s.Port] = true
			ports = append(ports, int(s.Port))
		}
	}
	sort.Ints(ports)

	if len(ports) == 0 {
		return ""
	}
	result := strconv.Itoa(ports[0])
	shown := 1
	for i := 1; i < len(ports); i++ {
		next := ", " + strconv.Itoa(ports[i])
		suffixLen := 0
		if remaining := len(ports) - i - 1; remaining > 0 {
			suffixLen = len(fmt.Sprintf(" +%d", remaining+1))
		}
		if len(result)+len(next)+suffixLen > maxWidth {
			result += fmt.Sprintf(" +%d", len(ports)-shown)
			break
		}
		result += next
		shown++
	}
	return result
}

// socketSummary is the detail line for the focused candidate.
func socketSummary(c model.Candidate) string {
	parts := make([]string, 0, len(c.Sockets))
	for _, s := range c.Sockets {
		parts = append(parts, fmt.Sprintf("%s %s:%d (%s)", s.Protocol, s.Address, s.Port, s.State))
	}
	return strings.Join(parts, ", ")
}

// truncate fits s into maxLen display cells, padding with spaces when
// shorter. Cutting happens on rune boundaries, so multibyte process
// names survive intact.
func truncate(s string, maxLen int) string {
	return runewidth.FillRight(runewidth.Truncate(s, maxLen, "…"), maxLen)
}

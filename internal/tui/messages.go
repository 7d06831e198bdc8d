package tui

import (
	"time"

	"killport/pkg/model"
)

// tickMsg is sent periodically to trigger auto-refresh
type tickMsg time.Time

// refreshMsg carries the re-resolved candidate list or an error
type refreshMsg struct {
	candidates []model.Candidate
	err        error
}

// killResultMsg reports the outcome of one kill in a batch
type killResultMsg struct {
	pid  int
	name string
	err  error
}

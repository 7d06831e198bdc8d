package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"killport/pkg/model"
)

// KillLine is the one-line outcome printed for each requested port.
func KillLine(port uint16, result model.KillResult) string {
	switch result {
	case model.Killed:
		return fmt.Sprintf("Successfully killed process listening on port %d", port)
	case model.DryRun:
		return "This is a dry-run, no processes were killed."
	default:
		return fmt.Sprintf("No processes found using port %d", port)
	}
}

// RenderTable writes an aligned listing, one row per socket.
func RenderTable(w io.Writer, cands []model.Candidate) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "PORT\tPROTO\tPID\tNAME\tSTATE\tADDRESS")
	for _, c := range cands {
		for _, s := range c.Sockets {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n", s.Port, s.Protocol, c.PID, c.Name, s.State, s.Address)
		}
	}
	return tw.Flush()
}

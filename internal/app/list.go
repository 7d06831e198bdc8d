package app

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"killport/internal/output"
	"killport/internal/proc"
	"killport/pkg/model"
)

var flagJSON bool

var listCmd = &cobra.Command{
	Use:   "list [ports...]",
	Short: "List the processes bound to ports without killing anything",
	Long: `List the processes bound to the given ports, or every bound port
when no ports are given.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&flagJSON, "json", false, "print the listing as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ports, err := parsePorts(args)
	if err != nil {
		return err
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	cands, err := gather(ports, cfg.AnyState)
	if err != nil {
		return err
	}

	if flagJSON {
		out, err := output.ToJSON(cands)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}
	return output.RenderTable(os.Stdout, cands)
}

// gather resolves candidates for each requested port and merges them by
// PID, so a process bound to several of the ports shows up once with all
// of its sockets.
func gather(ports []uint16, anyState bool) ([]model.Candidate, error) {
	if len(ports) == 0 {
		return proc.Candidates(0, anyState)
	}

	index := make(map[int]int)
	var out []model.Candidate
	for _, port := range ports {
		cands, err := proc.Candidates(port, anyState)
		if err != nil {
			return nil, err
		}
		for _, c := range cands {
			if i, ok := index[c.PID]; ok {
				out[i].Sockets = append(out[i].Sockets, c.Sockets...)
				continue
			}
			index[c.PID] = len(out)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

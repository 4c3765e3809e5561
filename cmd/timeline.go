package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func timelineCMD() *cobra.Command {
	var timeline = &cobra.Command{
		Use:   "timeline <package-dir>",
		Short: "Print the synthesized per-unit timelines of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runValidation(args[0], true)
			if err != nil {
				return err
			}
			if len(report.Timelines) == 0 {
				return fmt.Errorf("no timelines: package has no resolvable TDF-stimulus pairs")
			}
			out := json.NewEncoder(os.Stdout)
			out.SetIndent("", "  ")
			return out.Encode(report.Timelines)
		},
	}

	return timeline
}

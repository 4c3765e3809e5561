package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/packlint/internal/diag"
	"github.com/mohammad-safakhou/packlint/internal/docstore"
	"github.com/mohammad-safakhou/packlint/internal/engine"
)

func validateCMD() *cobra.Command {
	var withTimeline bool
	var asJSON bool
	var validate = &cobra.Command{
		Use:   "validate <package-dir>",
		Short: "Validate an extracted content package directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runValidation(args[0], withTimeline)
			if err != nil {
				return err
			}
			if asJSON {
				out := json.NewEncoder(os.Stdout)
				out.SetIndent("", "  ")
				if err := out.Encode(report); err != nil {
					return err
				}
			} else {
				renderSummary(os.Stdout, report)
			}
			if !report.Summary.Valid {
				return fmt.Errorf("package invalid: %d errors", len(report.Summary.Errors))
			}
			return nil
		},
	}
	validate.Flags().BoolVar(&withTimeline, "timeline", false, "include synthesized unit timelines (json output only)")
	validate.Flags().BoolVar(&asJSON, "json", false, "emit the full report as JSON")

	return validate
}

func runValidation(dir string, withTimeline bool) (engine.Report, error) {
	var diags diag.Aggregator
	set, err := docstore.LoadDir(dir, &diags)
	if err != nil {
		return engine.Report{}, err
	}
	return engine.Run(set, &diags, engine.Options{Timeline: withTimeline}), nil
}

func renderSummary(w *os.File, report engine.Report) {
	s := report.Summary
	fmt.Fprintf(w, "%d TDF file(s), %d stimulus file(s), %d media asset(s)\n",
		s.Counts.TDF, s.Counts.Stimulus, s.Counts.Media)
	for _, e := range s.Errors {
		fmt.Fprintf(w, "ERROR: %s\n", e)
	}
	for _, warn := range s.Warnings {
		fmt.Fprintf(w, "WARNING: %s\n", warn)
	}
	if s.Valid {
		fmt.Fprintf(w, "Package is valid (%d warnings)\n", len(s.Warnings))
	} else {
		fmt.Fprintf(w, "Package is INVALID: %d errors, %d warnings\n", len(s.Errors), len(s.Warnings))
	}
}

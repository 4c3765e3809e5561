// Package engine wires the validation passes together: structural checks
// per document, the cross-reference pass per pair, and on request the
// timeline synthesis. It is pure over the loaded document set; one run
// produces exactly one Report.
package engine

import (
	"github.com/mohammad-safakhou/packlint/internal/diag"
	"github.com/mohammad-safakhou/packlint/internal/docstore"
	"github.com/mohammad-safakhou/packlint/internal/resolver"
	"github.com/mohammad-safakhou/packlint/internal/timeline"
	"github.com/mohammad-safakhou/packlint/internal/validator"
)

// Options selects optional outputs of a run.
type Options struct {
	// Timeline requests a PackageTimeline per definition document.
	Timeline bool
}

// Report is the complete result of one validation run.
type Report struct {
	Summary diag.Summary `json:"summary"`
	// Timelines is keyed by definition-document name. Pairs whose stimulus
	// file cannot be resolved have no entry.
	Timelines map[string][]timeline.UnitTimeline `json:"timelines,omitempty"`
}

// Run validates a document set. The aggregator may already carry
// diagnostics from loading; they keep their place at the front of the
// report.
func Run(set *docstore.Set, diags *diag.Aggregator, opts Options) Report {
	report := Report{}
	if opts.Timeline {
		report.Timelines = map[string][]timeline.UnitTimeline{}
	}

	if !validator.CheckPackageStructure(set, diags) {
		report.Summary = diags.Summary(set.Counts())
		return report
	}

	// Structural pass per document. Documents whose required container is
	// missing are excluded from every later pass; nothing could be
	// dereferenced on them safely.
	stimOK := map[*docstore.Document]bool{}
	for _, stim := range set.Stimuli {
		ok := validator.CheckStimulus(stim, diags)
		stimOK[stim] = ok
		if ok {
			validator.CheckMediaReferences(stim, set.Media, diags)
			resolver.CheckDistractorPlacement(stim, diags)
		}
	}

	for _, def := range set.Definitions {
		if !validator.CheckDefinition(def, diags) {
			continue
		}
		stim := resolver.Resolve(def, set, diags)
		if stim == nil || !stimOK[stim] {
			continue
		}
		resolver.CheckPair(def, stim, diags)
		if opts.Timeline {
			report.Timelines[def.Name] = timeline.Synthesize(def, stim, diags)
		}
	}

	report.Summary = diags.Summary(set.Counts())
	return report
}

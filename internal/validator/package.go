package validator

import (
	"strings"

	"github.com/mohammad-safakhou/packlint/internal/diag"
	"github.com/mohammad-safakhou/packlint/internal/docstore"
)

// mediaFields are the display keys that may reference a bundled asset.
var mediaFields = []string{"audioSrc", "imgSrc", "videoSrc"}

// CheckPackageStructure verifies the package holds at least one definition
// document, one stimulus document and one resolvable pair between them.
// A failure here is fatal to the run: nothing downstream has anything to
// work on.
func CheckPackageStructure(set *docstore.Set, diags *diag.Aggregator) bool {
	if len(set.Definitions) == 0 {
		diags.Errorf("No TDF files found in package")
		return false
	}
	if len(set.Stimuli) == 0 {
		diags.Errorf("No stimulus files found in package")
		return false
	}
	pairs := 0
	for _, def := range set.Definitions {
		stimName, ok := docstore.StimulusFile(def)
		if ok && set.StimulusByName(stimName) != nil {
			pairs++
		}
	}
	if pairs == 0 {
		diags.Errorf("No valid TDF-stimulus file pairs found")
		return false
	}
	return true
}

// CheckMediaReferences verifies that every local media source a stimulus
// document's display blocks name is actually bundled in the package.
// URL sources are assumed external and skipped.
func CheckMediaReferences(doc *docstore.Document, media map[string]struct{}, diags *diag.Aggregator) {
	clusters, ok := docstore.Clusters(doc)
	if !ok {
		return
	}
	for clusterIdx, rawCluster := range clusters {
		cluster, _ := docstore.AsMap(rawCluster)
		for stimIdx, rawStim := range docstore.Stims(cluster) {
			stim, ok := docstore.AsMap(rawStim)
			if !ok {
				continue
			}
			display, ok := docstore.GetMap(stim, "display")
			if !ok {
				continue
			}
			for _, field := range mediaFields {
				src, ok := docstore.GetString(display, field)
				if !ok || strings.HasPrefix(src, "http") {
					continue
				}
				if _, found := media[src]; !found {
					diags.Errorf("Stim %d in cluster %d of '%s' references %s '%s' which was not found in package",
						stimIdx, clusterIdx, doc.Name, field, src)
				}
			}
		}
	}
}

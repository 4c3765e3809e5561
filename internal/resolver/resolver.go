// Package resolver performs the cross-document pass: it pairs each
// definition document with its declared stimulus document and verifies that
// every cluster or stim index any unit expression resolves to is within the
// bounds of what the stimulus document actually declares.
package resolver

import (
	"github.com/mohammad-safakhou/packlint/internal/diag"
	"github.com/mohammad-safakhou/packlint/internal/docstore"
	"github.com/mohammad-safakhou/packlint/internal/ranges"
	"github.com/mohammad-safakhou/packlint/internal/rules"
)

var checkpointBehaviors = map[string]bool{"none": true, "all": true, "some": true, "adaptive": true}

// Resolve finds the stimulus document a TDF declares. A missing pairing is
// an error that halts only the cross-reference checks for this pair; other
// pairs proceed unaffected.
func Resolve(def *docstore.Document, set *docstore.Set, diags *diag.Aggregator) *docstore.Document {
	stimName, ok := docstore.StimulusFile(def)
	if !ok {
		// Already reported by the definition checks.
		return nil
	}
	stim := set.StimulusByName(stimName)
	if stim == nil {
		diags.Errorf("TDF '%s' references stimulus file '%s' which was not found", def.Name, stimName)
		return nil
	}
	return stim
}

// CheckPair bounds-checks every index source of a definition document
// against its paired stimulus document. The five sources are checked
// independently; each produces its own diagnostics.
func CheckPair(def, stim *docstore.Document, diags *diag.Aggregator) {
	clusterCount := docstore.ClusterCount(stim)

	for unitIdx, unit := range docstore.Units(def) {
		if unit == nil {
			// Non-object units are reported by the definition checks.
			continue
		}
		checkLegacyIndices(def, stim, unit, clusterCount, diags)
		checkVideoSession(def, stim, unit, unitIdx, clusterCount, diags)
		checkSessionClusterlist(def, stim, unit, unitIdx, "learningsession", clusterCount, diags)
		// The assessment clusterlist is deliberately checked twice: the
		// validator applies the legacy comma grammar as a format check,
		// while index extraction here uses the whitespace grammar. The two
		// code paths have always disagreed on malformed input and both
		// results are surfaced.
		checkSessionClusterlist(def, stim, unit, unitIdx, "assessmentsession", clusterCount, diags)
		checkAdaptiveRules(def, stim, unit, unitIdx, clusterCount, diags)
	}
}

// checkLegacyIndices is the original combined check: direct clusterIndex
// fields plus the comma-grammar assessment clusterlist. Parse failures are
// skipped here since the format check already reported them.
func checkLegacyIndices(def, stim *docstore.Document, unit map[string]interface{}, clusterCount int, diags *diag.Aggregator) {
	var indices []int
	if v, present := unit["clusterIndex"]; present {
		if n, ok := docstore.AsInt(v); ok {
			indices = append(indices, n)
		}
	}
	if session, ok := docstore.GetMap(unit, "assessmentsession"); ok {
		if clusterlist, ok := docstore.GetString(session, "clusterlist"); ok {
			if expanded, err := ranges.Parse(clusterlist, ranges.GrammarComma); err == nil {
				indices = append(indices, expanded...)
			}
		}
	}
	for _, idx := range indices {
		if idx < 0 || idx >= clusterCount {
			diags.Errorf("TDF '%s' references cluster index %d, but stimulus file '%s' only has %d clusters",
				def.Name, idx, stim.Name, clusterCount)
		}
	}
}

func checkVideoSession(def, stim *docstore.Document, unit map[string]interface{}, unitIdx, clusterCount int, diags *diag.Aggregator) {
	session, ok := docstore.GetMap(unit, "videosession")
	if !ok {
		return
	}

	var questions []int
	rawQuestions, present := session["questions"]
	if present {
		list, ok := docstore.AsList(rawQuestions)
		if !ok {
			diags.Errorf("TDF '%s' unit %d videosession.questions must be an array", def.Name, unitIdx)
		} else {
			for i, v := range rawQuestionEntries(list) {
				if v.ok {
					questions = append(questions, v.index)
					continue
				}
				diags.Errorf("TDF '%s' unit %d videosession.questions[%d] is not an integer", def.Name, unitIdx, i)
			}
			if rawTimes, present := session["questiontimes"]; present {
				times, ok := docstore.AsList(rawTimes)
				if !ok {
					diags.Errorf("TDF '%s' unit %d videosession.questiontimes must be an array", def.Name, unitIdx)
				} else if len(times) != len(list) {
					// Length mismatch is an error, never silent truncation,
					// and is independent of index validity of either list.
					diags.Errorf("TDF '%s' unit %d videosession.questiontimes has %d entries but questions has %d",
						def.Name, unitIdx, len(times), len(list))
				}
			}
		}
	}

	for _, idx := range questions {
		if idx < 0 || idx >= clusterCount {
			diags.Errorf("TDF '%s' unit %d videosession references cluster index %d, but stimulus file '%s' only has %d clusters",
				def.Name, unitIdx, idx, stim.Name, clusterCount)
			continue
		}
		checkOptionCompleteness(stim, idx, diags)
	}

	checkCheckpointBehavior(def, stim, session, unitIdx, questions, clusterCount, diags)
}

type questionEntry struct {
	index int
	ok    bool
}

// rawQuestionEntries coerces a questions list; entries must be whole JSON
// numbers, not numeric strings.
func rawQuestionEntries(list []interface{}) []questionEntry {
	out := make([]questionEntry, 0, len(list))
	for _, v := range list {
		f, ok := docstore.AsNumber(v)
		if !ok || f != float64(int(f)) {
			out = append(out, questionEntry{})
			continue
		}
		out = append(out, questionEntry{index: int(f), ok: true})
	}
	return out
}

// checkOptionCompleteness requires at least two options on a cluster whose
// representative stim declares a select-style response type.
func checkOptionCompleteness(stim *docstore.Document, clusterIdx int, diags *diag.Aggregator) {
	first := docstore.FirstStim(docstore.ClusterAt(stim, clusterIdx))
	if first == nil {
		return
	}
	response, ok := docstore.GetMap(first, "response")
	if !ok {
		return
	}
	responseType, _ := docstore.GetString(response, "type")
	if responseType != "selectone" && responseType != "selectmultiple" {
		return
	}
	options, _ := docstore.GetList(response, "options")
	if len(options) < 2 {
		diags.Errorf("Cluster %d of '%s' declares response type '%s' but has fewer than 2 options",
			clusterIdx, stim.Name, responseType)
	}
}

func checkCheckpointBehavior(def, stim *docstore.Document, session map[string]interface{}, unitIdx int, questions []int, clusterCount int, diags *diag.Aggregator) {
	rawBehavior, present := session["checkpointBehavior"]
	if !present {
		return
	}
	behavior, ok := docstore.AsString(rawBehavior)
	if !ok || !checkpointBehaviors[behavior] {
		diags.Errorf("TDF '%s' unit %d videosession.checkpointBehavior must be one of none, all, some, adaptive", def.Name, unitIdx)
		return
	}
	switch behavior {
	case "adaptive":
		if _, ok := docstore.GetList(session, "checkpoints"); !ok {
			diags.Warnf("TDF '%s' unit %d videosession declares adaptive checkpointBehavior without a checkpoints list", def.Name, unitIdx)
		}
	case "some":
		if _, ok := docstore.GetList(session, "checkpointQuestions"); ok {
			return
		}
		for _, idx := range questions {
			if idx < 0 || idx >= clusterCount {
				continue
			}
			cluster := docstore.ClusterAt(stim, idx)
			for _, rawStim := range docstore.Stims(cluster) {
				if s, ok := docstore.AsMap(rawStim); ok {
					if _, present := s["checkpoint"]; present {
						return
					}
				}
			}
		}
		diags.Warnf("TDF '%s' unit %d videosession declares checkpointBehavior 'some' but neither checkpointQuestions nor any stim checkpoint field is present", def.Name, unitIdx)
	}
}

// checkSessionClusterlist bounds-checks a whitespace-grammar clusterlist on
// the named session block. The assessment extraction is permissive: its
// format problems are already reported under the legacy comma grammar, so
// this pass only extracts what it can.
func checkSessionClusterlist(def, stim *docstore.Document, unit map[string]interface{}, unitIdx int, sessionKey string, clusterCount int, diags *diag.Aggregator) {
	session, ok := docstore.GetMap(unit, sessionKey)
	if !ok {
		return
	}
	clusterlist, ok := docstore.GetString(session, "clusterlist")
	if !ok {
		return
	}
	var indices []int
	if sessionKey == "assessmentsession" {
		indices = ranges.ParsePermissive(clusterlist)
	} else {
		var err error
		indices, err = ranges.Parse(clusterlist, ranges.GrammarWhitespace)
		if err != nil {
			diags.Errorf("TDF '%s' unit %d %s.clusterlist is malformed: %v", def.Name, unitIdx, sessionKey, err)
			return
		}
	}
	for _, idx := range indices {
		if idx < 0 || idx >= clusterCount {
			diags.Errorf("TDF '%s' unit %d %s references cluster index %d, but stimulus file '%s' only has %d clusters",
				def.Name, unitIdx, sessionKey, idx, stim.Name, clusterCount)
		}
	}
}

func checkAdaptiveRules(def, stim *docstore.Document, unit map[string]interface{}, unitIdx, clusterCount int, diags *diag.Aggregator) {
	list, ok := docstore.GetList(unit, "adaptive")
	if !ok {
		return
	}
	for ruleIdx, rule := range rules.ParseAll(list) {
		if rule.Malformed {
			diags.Errorf("TDF '%s' unit %d adaptive rule %d: %s", def.Name, unitIdx, ruleIdx, rule.Problem)
			continue
		}
		if rule.CheckpointWithoutAt {
			diags.Warnf("TDF '%s' unit %d adaptive rule %d declares CHECKPOINT without an AT time qualifier", def.Name, unitIdx, ruleIdx)
		}
		for _, ref := range rule.Refs {
			if ref.Cluster < 0 || ref.Cluster >= clusterCount {
				diags.Errorf("TDF '%s' unit %d adaptive rule %d references C%d, but stimulus file '%s' only has %d clusters",
					def.Name, unitIdx, ruleIdx, ref.Cluster, stim.Name, clusterCount)
				continue
			}
			stimCount := len(docstore.Stims(docstore.ClusterAt(stim, ref.Cluster)))
			if ref.Stim < 0 || ref.Stim >= stimCount {
				diags.Errorf("TDF '%s' unit %d adaptive rule %d references C%dS%d, but cluster %d of '%s' only has %d stims",
					def.Name, unitIdx, ruleIdx, ref.Cluster, ref.Stim, ref.Cluster, stim.Name, stimCount)
			}
		}
	}
}

// CheckDistractorPlacement flags stims whose distractors live only inside
// the response object. The consuming runtime reads distractors from the
// stim root, so a nested-only placement silently degrades a multiple-choice
// item into free-text input.
func CheckDistractorPlacement(doc *docstore.Document, diags *diag.Aggregator) {
	clusters, ok := docstore.Clusters(doc)
	if !ok {
		return
	}
	for clusterIdx, rawCluster := range clusters {
		cluster, _ := docstore.AsMap(rawCluster)
		for stimIdx, rawStim := range docstore.Stims(cluster) {
			s, ok := docstore.AsMap(rawStim)
			if !ok {
				continue
			}
			response, ok := docstore.GetMap(s, "response")
			if !ok || !populated(response["incorrectResponses"]) {
				continue
			}
			if _, present := s["incorrectResponses"]; !present {
				diags.Warnf("Stim %d in cluster %d of '%s' has incorrectResponses nested in response but not at the stim root; the runtime will treat it as free-text input",
					stimIdx, clusterIdx, doc.Name)
			}
		}
	}
}

func populated(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return t != ""
	case []interface{}:
		return len(t) > 0
	default:
		return false
	}
}

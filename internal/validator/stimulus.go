// Package validator applies the structural and semantic checks to stimulus
// and definition documents, independently of any cross-document work.
// Checks within one structural scope accumulate: a bad stim never hides
// problems in its siblings. Only a missing required container (a stimulus
// file with no setspec, a TDF with no tutor.setspec) aborts the rest of that
// document, since nothing further can be dereferenced safely.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mohammad-safakhou/packlint/internal/diag"
	"github.com/mohammad-safakhou/packlint/internal/docstore"
)

var (
	// Latin-1 supplement code points are stripped by the runtime before
	// response matching, so their presence silently corrupts answers.
	latin1Pattern    = regexp.MustCompile(`[\x{0080}-\x{00FF}]`)
	parameterPattern = regexp.MustCompile(`^\d+(\.\d+)?,\d+(\.\d+)?$`)
)

// recommendedResponseTypes is the advisory set for cluster responseType.
var recommendedResponseTypes = []string{"text", "audio", "image", "video", "cloze"}

// questionIndicators mark display text that reads like a multiple-choice
// prompt; such stims normally carry distractors.
var questionIndicators = []string{"?", "choose", "select", "which", "what is"}

// displayFields is the fixed set of string-valued display keys.
var displayFields = []string{
	"text", "audioSrc", "imgSrc", "videoSrc", "clozeText", "clozeStimulus",
	"textStimulus", "audioStimulus", "imageStimulus", "videoStimulus",
}

// CheckStimulus validates one stimulus document. It reports whether the
// required container chain was present; when it returns false the document
// cannot participate in cross-reference checks.
func CheckStimulus(doc *docstore.Document, diags *diag.Aggregator) bool {
	name := doc.Name
	setspec, ok := docstore.GetMap(doc.Tree, "setspec")
	if !ok {
		diags.Errorf("Stimulus file '%s' missing 'setspec' key", name)
		return false
	}
	rawClusters, present := setspec["clusters"]
	if !present {
		diags.Errorf("Stimulus file '%s' missing 'clusters' in setspec", name)
		return false
	}
	clusters, ok := docstore.AsList(rawClusters)
	if !ok {
		diags.Errorf("Stimulus file '%s' clusters is not an array", name)
		return false
	}
	if len(clusters) == 0 {
		diags.Errorf("Stimulus file '%s' has no clusters", name)
		return false
	}

	for idx, raw := range clusters {
		checkCluster(raw, idx, name, diags)
	}
	return true
}

func checkCluster(raw interface{}, clusterIdx int, name string, diags *diag.Aggregator) {
	cluster, ok := docstore.AsMap(raw)
	if !ok {
		diags.Errorf("Cluster %d in '%s' is not an object", clusterIdx, name)
		return
	}
	rawStims, present := cluster["stims"]
	if !present {
		diags.Errorf("Cluster %d in '%s' missing 'stims' array", clusterIdx, name)
		return
	}
	stims, ok := docstore.AsList(rawStims)
	if !ok || len(stims) == 0 {
		diags.Errorf("Cluster %d in '%s' has invalid or empty stims array", clusterIdx, name)
		return
	}

	// Duplicate correctResponse values make the cluster ambiguous for
	// response matching. Exactly one error per cluster regardless of how
	// many pairs collide.
	seen := map[string]struct{}{}
	duplicate := false
	for _, s := range stims {
		stim, ok := docstore.AsMap(s)
		if !ok {
			continue
		}
		response, ok := docstore.GetMap(stim, "response")
		if !ok {
			continue
		}
		cr, ok := response["correctResponse"]
		if !ok {
			continue
		}
		key := fmt.Sprint(cr)
		if _, dup := seen[key]; dup {
			duplicate = true
		}
		seen[key] = struct{}{}
	}
	if duplicate {
		diags.Errorf("Duplicate correctResponse values in cluster %d of '%s'", clusterIdx, name)
	}

	for stimIdx, s := range stims {
		checkStim(s, stimIdx, clusterIdx, name, diags)
	}

	if rawType, present := cluster["responseType"]; present {
		responseType, ok := docstore.AsString(rawType)
		if !ok {
			diags.Errorf("Cluster %d in '%s' responseType must be a string", clusterIdx, name)
			return
		}
		recognized := false
		for _, t := range recommendedResponseTypes {
			if responseType == t {
				recognized = true
				break
			}
		}
		if !recognized {
			diags.Warnf("Cluster %d in '%s' responseType '%s' is not a standard type (expected: %s)",
				clusterIdx, name, responseType, strings.Join(recommendedResponseTypes, ", "))
		}
	}
}

func checkStim(raw interface{}, stimIdx, clusterIdx int, name string, diags *diag.Aggregator) {
	at := fmt.Sprintf("Stim %d in cluster %d of '%s'", stimIdx, clusterIdx, name)
	stim, ok := docstore.AsMap(raw)
	if !ok {
		diags.Errorf("%s is not an object", at)
		return
	}

	checkStimResponse(stim, at, diags)

	if rawDisplay, present := stim["display"]; present {
		display, ok := docstore.AsMap(rawDisplay)
		if !ok {
			diags.Errorf("%s display is not an object", at)
		} else {
			for _, field := range displayFields {
				if v, present := display[field]; present {
					if _, ok := docstore.AsString(v); !ok {
						diags.Errorf("%s display.%s is not a string", at, field)
					}
				}
			}
		}
	}

	if rawParam, present := stim["parameter"]; present {
		param, ok := docstore.AsString(rawParam)
		if !ok {
			diags.Errorf("%s parameter must be a string", at)
		} else if !parameterPattern.MatchString(param) {
			// Advisory: the runtime tolerates near-miss shapes.
			diags.Warnf("%s parameter '%s' does not match expected format 'number,number'", at, param)
		}
	}

	if rawProb, present := stim["optimalProb"]; present {
		if _, ok := docstore.AsNumber(rawProb); !ok {
			diags.Errorf("%s optimalProb must be a number", at)
		}
	}

	for _, field := range []string{"speechHintExclusionList"} {
		if v, present := stim[field]; present {
			if _, ok := docstore.AsString(v); !ok {
				diags.Errorf("%s %s must be a string", at, field)
			}
		}
	}

	for _, field := range []string{"alternateDisplays", "tags"} {
		if v, present := stim[field]; present {
			if _, ok := docstore.AsList(v); !ok {
				diags.Errorf("%s %s must be an array", at, field)
			}
		}
	}
}

func checkStimResponse(stim map[string]interface{}, at string, diags *diag.Aggregator) {
	rawResponse, present := stim["response"]
	if !present {
		diags.Errorf("%s missing response object", at)
		return
	}
	response, ok := docstore.AsMap(rawResponse)
	if !ok {
		diags.Errorf("%s response is not an object", at)
		return
	}

	cr, present := response["correctResponse"]
	if !present {
		diags.Errorf("%s missing correctResponse", at)
	} else if latin1Pattern.MatchString(fmt.Sprint(cr)) {
		diags.Warnf("%s correctResponse contains invisible unicode characters that will be removed", at)
	}

	rawIncorrect, present := response["incorrectResponses"]
	if !present {
		// Heuristic: prompt text that reads like a question usually wants
		// distractors.
		displayText := ""
		if display, ok := docstore.GetMap(stim, "display"); ok {
			displayText, _ = docstore.GetString(display, "text")
		}
		lower := strings.ToLower(displayText)
		for _, indicator := range questionIndicators {
			if strings.Contains(lower, indicator) {
				diags.Warnf("%s appears to be a question but missing incorrectResponses", at)
				break
			}
		}
		return
	}

	switch incorrect := rawIncorrect.(type) {
	case string:
		if latin1Pattern.MatchString(incorrect) {
			diags.Warnf("%s incorrectResponses string contains invisible unicode characters that will be removed", at)
		}
	case []interface{}:
		for i, v := range incorrect {
			s, ok := docstore.AsString(v)
			if !ok {
				diags.Errorf("%s incorrectResponses[%d] is not a string", at, i)
				continue
			}
			if latin1Pattern.MatchString(s) {
				diags.Warnf("%s incorrectResponses[%d] contains invisible unicode characters that will be removed", at, i)
			}
		}
	default:
		diags.Errorf("%s incorrectResponses must be a string or array", at)
	}
}

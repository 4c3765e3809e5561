package timeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mohammad-safakhou/packlint/internal/diag"
	"github.com/mohammad-safakhou/packlint/internal/docstore"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

const displayTextLimit = 80

// questionDetails extracts the display/response metadata for one referenced
// cluster. Only the first stim is inspected: clusters are treated as
// single-question-representative for timeline purposes.
func questionDetails(stim *docstore.Document, clusterIdx int, diags *diag.Aggregator) map[string]interface{} {
	details := map[string]interface{}{"cluster": clusterIdx}

	first := docstore.FirstStim(docstore.ClusterAt(stim, clusterIdx))
	if first == nil {
		details["unresolved"] = true
		return details
	}

	response, _ := docstore.GetMap(first, "response")
	responseType, _ := docstore.GetString(response, "type")
	correct := ""
	haveCorrect := false
	if response != nil {
		if v, present := response["correctResponse"]; present {
			correct = fmt.Sprint(v)
			haveCorrect = true
		}
	}

	kind := "free_text"
	incorrect := incorrectList(response)
	switch {
	case responseType == "selectone" || responseType == "selectmultiple":
		kind = "multiple_choice"
	case haveCorrect && len(incorrect) > 0:
		// A distractor list alongside a plain correctResponse is treated as
		// multiple choice even when the declared type disagrees. Heuristic,
		// so advisory only.
		kind = "multiple_choice"
		if responseType != "" {
			diags.Warnf("Cluster %d of '%s' is inferred as multiple choice from its distractor list although response type is '%s'",
				clusterIdx, stim.Name, responseType)
		}
	}
	details["response_kind"] = kind
	if responseType != "" {
		details["response_type"] = responseType
	}

	if choices := choiceList(response, correct, haveCorrect, incorrect); len(choices) > 0 {
		details["choices"] = choices
		if haveCorrect && !anyCorrect(choices) {
			diags.Warnf("Cluster %d of '%s' has no option matching correctResponse %q", clusterIdx, stim.Name, correct)
		}
	}

	if display, ok := docstore.GetMap(first, "display"); ok {
		media := map[string]interface{}{}
		for _, field := range []string{"audioSrc", "imgSrc", "videoSrc"} {
			if src, ok := docstore.GetString(display, field); ok {
				media[field] = src
			}
		}
		if len(media) > 0 {
			details["media"] = media
		}
		if text, ok := docstore.GetString(display, "text"); ok && text != "" {
			details["text"] = truncate(stripHTML(text), displayTextLimit)
		}
	}

	// Nested-only distractors degrade to free-text input at runtime; the
	// resolver warns once per stim, the timeline marks the affected events.
	if len(incorrect) > 0 {
		if _, present := first["incorrectResponses"]; !present {
			details["distractor_placement_warning"] = true
		}
	}

	return details
}

func incorrectList(response map[string]interface{}) []string {
	if response == nil {
		return nil
	}
	switch v := response["incorrectResponses"].(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// choiceList builds the learner-facing choice set with a correctness marker
// per choice. Explicit options win; otherwise the correct response plus the
// distractor list stand in.
func choiceList(response map[string]interface{}, correct string, haveCorrect bool, incorrect []string) []map[string]interface{} {
	if response == nil {
		return nil
	}
	if options, ok := docstore.GetList(response, "options"); ok && len(options) > 0 {
		out := make([]map[string]interface{}, 0, len(options))
		for _, raw := range options {
			id := ""
			text := ""
			switch opt := raw.(type) {
			case string:
				id = opt
			case map[string]interface{}:
				id, _ = docstore.GetString(opt, "id")
				text, _ = docstore.GetString(opt, "text")
			default:
				id = fmt.Sprint(raw)
			}
			choice := map[string]interface{}{"id": id, "correct": haveCorrect && id == correct}
			if text != "" {
				choice["text"] = text
			}
			out = append(out, choice)
		}
		return out
	}
	if !haveCorrect || len(incorrect) == 0 {
		return nil
	}
	out := []map[string]interface{}{{"id": correct, "correct": true}}
	for _, d := range incorrect {
		out = append(out, map[string]interface{}{"id": d, "correct": false})
	}
	return out
}

func anyCorrect(choices []map[string]interface{}) bool {
	for _, c := range choices {
		if v, ok := c["correct"].(bool); ok && v {
			return true
		}
	}
	return false
}

func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, ""))
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

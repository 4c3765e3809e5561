// Package timeline reconstructs, per unit of a definition document, the
// ordered learner-facing event sequence the execution engine would produce.
// Nothing is executed or simulated: the synthesizer only reads the two
// documents and predicts.
package timeline

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/packlint/internal/diag"
	"github.com/mohammad-safakhou/packlint/internal/docstore"
	"github.com/mohammad-safakhou/packlint/internal/ranges"
	"github.com/mohammad-safakhou/packlint/internal/rules"
)

// Session kinds, in classification priority order.
const (
	SessionVideo       = "video"
	SessionLearning    = "learning"
	SessionAssessment  = "assessment"
	SessionInstruction = "instruction"
)

// Event is one predicted learner-facing step.
type Event struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// UnitTimeline is the ordered event list of one unit.
type UnitTimeline struct {
	UnitIndex   int     `json:"unit_index"`
	UnitName    string  `json:"unit_name"`
	SessionType string  `json:"session_type"`
	Events      []Event `json:"events"`
}

// Synthesize builds the timeline of every unit in a definition document,
// pulling per-question display and response metadata from the paired
// stimulus document. Output is fully deterministic: index sets are sorted
// before they become event order.
func Synthesize(def, stim *docstore.Document, diags *diag.Aggregator) []UnitTimeline {
	units := docstore.Units(def)
	out := make([]UnitTimeline, 0, len(units))
	for unitIdx, unit := range units {
		if unit == nil {
			continue
		}
		out = append(out, synthesizeUnit(def, stim, unit, unitIdx, diags))
	}
	return out
}

func synthesizeUnit(def, stim *docstore.Document, unit map[string]interface{}, unitIdx int, diags *diag.Aggregator) UnitTimeline {
	name, ok := docstore.GetString(unit, "unitname")
	if !ok || name == "" {
		name = fmt.Sprintf("unit %d", unitIdx)
	}

	sessionType := classify(unit)
	if n := sessionBlockCount(unit); n > 1 {
		diags.Warnf("TDF '%s' unit %d carries %d session blocks; '%s' takes precedence", def.Name, unitIdx, n, sessionType)
	}

	var events []Event
	switch sessionType {
	case SessionVideo:
		events = videoEvents(stim, unit, diags)
	case SessionLearning:
		events = playbackEvents(stim, unit, "learningsession", diags)
	case SessionAssessment:
		events = playbackEvents(stim, unit, "assessmentsession", diags)
	default:
		events = instructionEvents(unit)
	}

	// Lockout gates the whole unit, so it precedes even the session start.
	if minutes, ok := lockoutMinutes(unit); ok {
		events = append([]Event{{
			Type:        "lockout",
			Description: fmt.Sprintf("unit locked for %g minutes before start", minutes),
			Details:     map[string]interface{}{"minutes": minutes},
		}}, events...)
	}

	if list, ok := docstore.GetList(unit, "adaptive"); ok && len(list) > 0 {
		events = append(events, adaptiveDiagramEvent(list))
	}

	return UnitTimeline{UnitIndex: unitIdx, UnitName: name, SessionType: sessionType, Events: events}
}

// classify picks the unit's session kind by explicit presence checks in
// fixed priority order.
func classify(unit map[string]interface{}) string {
	if _, present := unit["videosession"]; present {
		return SessionVideo
	}
	if _, present := unit["learningsession"]; present {
		return SessionLearning
	}
	if _, present := unit["assessmentsession"]; present {
		return SessionAssessment
	}
	return SessionInstruction
}

func sessionBlockCount(unit map[string]interface{}) int {
	n := 0
	for _, key := range []string{"videosession", "learningsession", "assessmentsession"} {
		if _, present := unit[key]; present {
			n++
		}
	}
	return n
}

func videoEvents(stim *docstore.Document, unit map[string]interface{}, diags *diag.Aggregator) []Event {
	session, _ := docstore.GetMap(unit, "videosession")
	if session == nil {
		return nil
	}

	start := map[string]interface{}{}
	if src, ok := docstore.GetString(session, "videosource"); ok {
		start["source"] = src
	}
	for detail, key := range map[string]string{
		"prevent_scrubbing":   "preventScrubbing",
		"checkpoint_behavior": "checkpointBehavior",
		"rewind_on_incorrect": "rewindOnIncorrect",
	} {
		if v, present := session[key]; present {
			start[detail] = v
		}
	}
	events := []Event{{Type: "video_start", Description: "video playback starts", Details: start}}

	questions, _ := docstore.GetList(session, "questions")
	times, _ := docstore.GetList(session, "questiontimes")
	for i, raw := range questions {
		f, ok := docstore.AsNumber(raw)
		if !ok || f != float64(int(f)) {
			// Non-integer entries are reported by the resolver.
			continue
		}
		idx := int(f)
		details := questionDetails(stim, idx, diags)
		if i < len(times) {
			details["time"] = times[i]
		}
		events = append(events, Event{
			Type:        "video_question",
			Description: fmt.Sprintf("video pauses for question from cluster %d", idx),
			Details:     details,
		})
	}

	if _, present := session["adaptiveLogic"]; present {
		events = append(events, Event{Type: "adaptive_processing", Description: "adaptive logic evaluates viewer responses"})
	}
	events = append(events, Event{Type: "video_end", Description: "video playback ends"})
	return events
}

// playbackEvents covers the learning and assessment shapes, which differ
// only in their source session block and the randomize-groups flag.
func playbackEvents(stim *docstore.Document, unit map[string]interface{}, sessionKey string, diags *diag.Aggregator) []Event {
	session, _ := docstore.GetMap(unit, sessionKey)
	if session == nil {
		return nil
	}
	kind := "learning"
	if sessionKey == "assessmentsession" {
		kind = "assessment"
	}

	clusterlist, _ := docstore.GetString(session, "clusterlist")
	var indices []int
	if kind == "assessment" {
		indices = ranges.ParsePermissive(clusterlist)
	} else if parsed, err := ranges.Parse(clusterlist, ranges.GrammarWhitespace); err == nil {
		indices = parsed
	}
	// A malformed learning list is reported by the resolver; the session
	// still opens and closes with zero questions.

	start := map[string]interface{}{
		"cluster_count": len(indices),
		"clusterlist":   clusterlist,
	}
	if v, present := session["practiceseconds"]; present {
		start["practice_seconds"] = v
	}
	if kind == "assessment" {
		if v, present := session["randomizegroups"]; present {
			start["randomize_groups"] = v
		}
	}
	events := []Event{{
		Type:        kind + "_start",
		Description: fmt.Sprintf("%s session starts over %d clusters", kind, len(indices)),
		Details:     start,
	}}

	// ranges.Parse returns sorted indices; ascending order is the
	// playback-order contract the runtime is assumed to use.
	for _, idx := range indices {
		events = append(events, Event{
			Type:        kind + "_question",
			Description: fmt.Sprintf("question from cluster %d", idx),
			Details:     questionDetails(stim, idx, diags),
		})
	}

	events = append(events, Event{Type: kind + "_end", Description: fmt.Sprintf("%s session ends", kind)})
	return events
}

func instructionEvents(unit map[string]interface{}) []Event {
	if _, present := unit["unitinstructions"]; !present {
		return nil
	}
	_, timed := unit["instructionminutes"]
	return []Event{{
		Type:        "instruction",
		Description: "static instructions shown",
		Details:     map[string]interface{}{"has_instructions": true, "timed": timed},
	}}
}

// lockoutMinutes reads deliveryparams, normalizing the sometimes-object
// sometimes-one-element-list shape into a single view.
func lockoutMinutes(unit map[string]interface{}) (float64, bool) {
	raw, present := unit["deliveryparams"]
	if !present {
		return 0, false
	}
	params, ok := docstore.AsMap(raw)
	if !ok {
		list, ok := docstore.AsList(raw)
		if !ok || len(list) == 0 {
			return 0, false
		}
		params, ok = docstore.AsMap(list[0])
		if !ok {
			return 0, false
		}
	}
	v, present := params["lockoutminutes"]
	if !present {
		return 0, false
	}
	minutes, ok := docstore.AsNumber(v)
	if !ok {
		return 0, false
	}
	return minutes, true
}

// adaptiveDiagramEvent renders the unit's rule dependencies: one line per
// rule condition with an indented line per resolved action reference.
// Malformed rules are rendered inline as explicit warnings, never omitted.
func adaptiveDiagramEvent(list []interface{}) Event {
	var b strings.Builder
	for i, rule := range rules.ParseAll(list) {
		if rule.Malformed {
			fmt.Fprintf(&b, "rule %d: !! %s (%q)\n", i, rule.Problem, rule.Raw)
			continue
		}
		fmt.Fprintf(&b, "rule %d: IF %s\n", i, rule.Condition)
		if len(rule.Refs) == 0 {
			fmt.Fprintf(&b, "    (no cluster/stim references)\n")
			continue
		}
		for _, ref := range rule.Refs {
			fmt.Fprintf(&b, "    -> cluster %d stim %d\n", ref.Cluster, ref.Stim)
		}
	}
	return Event{
		Type:        "adaptive_logic_diagram",
		Description: fmt.Sprintf("adaptive logic with %d rules", len(list)),
		Details:     map[string]interface{}{"diagram": b.String()},
	}
}

// Package rules parses the adaptive-logic micro-language carried in a
// unit's adaptive list. A rule reads "IF <condition> THEN <action>", and the
// action may reference any number of cluster/stim pairs written C<n>S<n>.
package rules

import (
	"regexp"
	"strconv"
	"strings"
)

var refPattern = regexp.MustCompile(`C(\d+)S(\d+)`)

// ActionRef is one cluster/stim branch target of a rule action.
type ActionRef struct {
	Cluster int `json:"cluster"`
	Stim    int `json:"stim"`
}

// Rule is one parsed adaptive rule. Malformed rules keep their raw text and
// a problem description; each rule is classified independently, so one bad
// rule never aborts parsing of its siblings.
type Rule struct {
	Raw       string
	Condition string
	Action    string
	Refs      []ActionRef
	Malformed bool
	Problem   string
	// CheckpointWithoutAt marks a CHECKPOINT action lacking an AT time
	// qualifier. Advisory only.
	CheckpointWithoutAt bool
}

// Parse classifies one entry of a unit's adaptive list. The two malformed
// conditions are checked in order: the IF prefix (which also covers
// non-string entries) before the THEN separator.
func Parse(v interface{}) Rule {
	raw, ok := v.(string)
	if !ok || !strings.HasPrefix(raw, "IF") {
		if !ok {
			raw = ""
		}
		return Rule{Raw: raw, Malformed: true, Problem: "rule must be a string starting with IF"}
	}
	idx := strings.Index(raw, "THEN")
	if idx < 0 {
		return Rule{Raw: raw, Malformed: true, Problem: "rule is missing the THEN keyword"}
	}

	r := Rule{
		Raw:       raw,
		Condition: strings.TrimSpace(strings.TrimPrefix(raw[:idx], "IF")),
		Action:    strings.TrimSpace(raw[idx+len("THEN"):]),
	}
	for _, m := range refPattern.FindAllStringSubmatch(r.Action, -1) {
		cluster, _ := strconv.Atoi(m[1])
		stim, _ := strconv.Atoi(m[2])
		r.Refs = append(r.Refs, ActionRef{Cluster: cluster, Stim: stim})
	}
	if strings.Contains(raw, "CHECKPOINT") && !strings.Contains(raw, "AT") {
		r.CheckpointWithoutAt = true
	}
	return r
}

// ParseAll classifies every entry of an adaptive list, preserving order.
func ParseAll(list []interface{}) []Rule {
	out := make([]Rule, 0, len(list))
	for _, v := range list {
		out = append(out, Parse(v))
	}
	return out
}

package timeline

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/packlint/internal/diag"
	"github.com/mohammad-safakhou/packlint/internal/docstore"
)

func doc(t *testing.T, name, src string) *docstore.Document {
	t.Helper()
	var tree map[string]interface{}
	if err := json.Unmarshal([]byte(src), &tree); err != nil {
		t.Fatalf("test document %s: %v", name, err)
	}
	return &docstore.Document{Name: name, Tree: tree}
}

func threeClusters(t *testing.T) *docstore.Document {
	t.Helper()
	return doc(t, "s.json", `{"setspec": {"clusters": [
		{"stims": [{"display": {"text": "alpha?"}, "response": {"correctResponse": "a"}}]},
		{"stims": [{"display": {"text": "beta?"}, "response": {"correctResponse": "b"}}]},
		{"stims": [{"display": {"text": "gamma?"}, "response": {"correctResponse": "c"}}]}
	]}}`)
}

func defWithUnits(t *testing.T, units string) *docstore.Document {
	t.Helper()
	return doc(t, "d.json", `{"tutor": {"setspec": {"lessonname": "L", "stimulusfile": "s.json"}, "unit": `+units+`}}`)
}

func eventTypes(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func TestSynthesizeLearningSession(t *testing.T) {
	def := defWithUnits(t, `[{"unitname": "drill", "learningsession": {"clusterlist": "2 0-1"}}]`)
	var diags diag.Aggregator
	units := Synthesize(def, threeClusters(t), &diags)
	if len(units) != 1 {
		t.Fatalf("units = %d", len(units))
	}
	u := units[0]
	if u.SessionType != SessionLearning || u.UnitName != "drill" {
		t.Fatalf("unit = %+v", u)
	}
	want := []string{"learning_start", "learning_question", "learning_question", "learning_question", "learning_end"}
	got := eventTypes(u.Events)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", got, want)
	}
	// Playback is ascending index order regardless of authored order.
	for i, wantCluster := range []int{0, 1, 2} {
		if c := u.Events[i+1].Details["cluster"]; c != wantCluster {
			t.Fatalf("question %d cluster = %v, want %d", i, c, wantCluster)
		}
	}
	if n := u.Events[0].Details["cluster_count"]; n != 3 {
		t.Fatalf("cluster_count = %v", n)
	}
}

func TestSynthesizeVideoSession(t *testing.T) {
	def := defWithUnits(t, `[{"videosession": {
		"videosource": "lesson.mp4",
		"preventScrubbing": true,
		"questions": [2, 0],
		"questiontimes": [30, 60],
		"adaptiveLogic": "builtin"
	}}]`)
	var diags diag.Aggregator
	units := Synthesize(def, threeClusters(t), &diags)
	u := units[0]
	want := []string{"video_start", "video_question", "video_question", "adaptive_processing", "video_end"}
	if got := eventTypes(u.Events); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if src := u.Events[0].Details["source"]; src != "lesson.mp4" {
		t.Fatalf("source = %v", src)
	}
	// Video questions keep authored list order, not sorted order.
	if c := u.Events[1].Details["cluster"]; c != 2 {
		t.Fatalf("first question cluster = %v", c)
	}
	if at := u.Events[1].Details["time"]; at != float64(30) {
		t.Fatalf("question time = %v", at)
	}
}

func TestSynthesizeAssessmentSession(t *testing.T) {
	def := defWithUnits(t, `[{"assessmentsession": {"clusterlist": "0 2", "randomizegroups": true}}]`)
	var diags diag.Aggregator
	u := Synthesize(def, threeClusters(t), &diags)[0]
	if u.SessionType != SessionAssessment {
		t.Fatalf("session = %s", u.SessionType)
	}
	if rg := u.Events[0].Details["randomize_groups"]; rg != true {
		t.Fatalf("randomize_groups = %v", rg)
	}
	if got := eventTypes(u.Events); len(got) != 4 {
		t.Fatalf("events = %v", got)
	}
}

func TestSynthesizeInstructionUnit(t *testing.T) {
	def := defWithUnits(t, `[
		{"unitname": "intro", "unitinstructions": "read this", "instructionminutes": 5},
		{"unitname": "blank"}
	]`)
	var diags diag.Aggregator
	units := Synthesize(def, threeClusters(t), &diags)
	if units[0].SessionType != SessionInstruction || len(units[0].Events) != 1 {
		t.Fatalf("unit 0 = %+v", units[0])
	}
	if timed := units[0].Events[0].Details["timed"]; timed != true {
		t.Fatalf("timed = %v", timed)
	}
	if len(units[1].Events) != 0 {
		t.Fatalf("blank unit should produce no events: %+v", units[1].Events)
	}
}

func TestSynthesizeLockoutPrecedesStart(t *testing.T) {
	def := defWithUnits(t, `[{
		"deliveryparams": [{"lockoutminutes": 15}],
		"learningsession": {"clusterlist": "0"}
	}]`)
	var diags diag.Aggregator
	u := Synthesize(def, threeClusters(t), &diags)[0]
	if u.Events[0].Type != "lockout" {
		t.Fatalf("first event = %s", u.Events[0].Type)
	}
	if m := u.Events[0].Details["minutes"]; m != float64(15) {
		t.Fatalf("minutes = %v", m)
	}
	if u.Events[1].Type != "learning_start" {
		t.Fatalf("second event = %s", u.Events[1].Type)
	}
}

func TestSynthesizeDeliveryParamsObjectShape(t *testing.T) {
	def := defWithUnits(t, `[{"deliveryparams": {"lockoutminutes": 5}}]`)
	var diags diag.Aggregator
	u := Synthesize(def, threeClusters(t), &diags)[0]
	if len(u.Events) != 1 || u.Events[0].Type != "lockout" {
		t.Fatalf("events = %+v", u.Events)
	}
}

func TestSynthesizeAdaptiveDiagram(t *testing.T) {
	def := defWithUnits(t, `[{
		"learningsession": {"clusterlist": "0"},
		"adaptive": ["IF miss THEN C1S0", "broken rule"]
	}]`)
	var diags diag.Aggregator
	u := Synthesize(def, threeClusters(t), &diags)[0]
	last := u.Events[len(u.Events)-1]
	if last.Type != "adaptive_logic_diagram" {
		t.Fatalf("last event = %s", last.Type)
	}
	diagram, _ := last.Details["diagram"].(string)
	if !strings.Contains(diagram, "IF miss") || !strings.Contains(diagram, "-> cluster 1 stim 0") {
		t.Fatalf("diagram = %q", diagram)
	}
	// Malformed rules are rendered inline, never omitted.
	if !strings.Contains(diagram, "!!") || !strings.Contains(diagram, "broken rule") {
		t.Fatalf("diagram = %q", diagram)
	}
}

func TestClassificationPriority(t *testing.T) {
	def := defWithUnits(t, `[{
		"videosession": {"questions": []},
		"learningsession": {"clusterlist": "0"}
	}]`)
	var diags diag.Aggregator
	u := Synthesize(def, threeClusters(t), &diags)[0]
	if u.SessionType != SessionVideo {
		t.Fatalf("session = %s, want video precedence", u.SessionType)
	}
	if len(diags.Warnings()) != 1 || !strings.Contains(diags.Warnings()[0], "session blocks") {
		t.Fatalf("warnings = %v", diags.Warnings())
	}
}

func TestQuestionDetailsMultipleChoiceInference(t *testing.T) {
	stim := doc(t, "s.json", `{"setspec": {"clusters": [
		{"stims": [{"response": {"type": "text", "correctResponse": "a", "incorrectResponses": ["b", "c"]}}]}
	]}}`)
	def := defWithUnits(t, `[{"learningsession": {"clusterlist": "0"}}]`)
	var diags diag.Aggregator
	u := Synthesize(def, stim, &diags)[0]
	q := u.Events[1]
	if kind := q.Details["response_kind"]; kind != "multiple_choice" {
		t.Fatalf("response_kind = %v", kind)
	}
	found := false
	for _, w := range diags.Warnings() {
		if strings.Contains(w, "inferred as multiple choice") {
			found = true
		}
	}
	if !found {
		t.Fatalf("inference must stay advisory: %v", diags.Warnings())
	}
	if flag := q.Details["distractor_placement_warning"]; flag != true {
		t.Fatalf("distractor placement flag = %v", flag)
	}
	choices, _ := q.Details["choices"].([]map[string]interface{})
	if len(choices) != 3 || choices[0]["correct"] != true {
		t.Fatalf("choices = %v", choices)
	}
}

func TestQuestionDetailsDisplayText(t *testing.T) {
	stim := doc(t, "s.json", `{"setspec": {"clusters": [
		{"stims": [{"display": {"text": "<b>What</b> is 2+2?", "imgSrc": "sum.png"}, "response": {"correctResponse": "4"}}]}
	]}}`)
	def := defWithUnits(t, `[{"learningsession": {"clusterlist": "0"}}]`)
	var diags diag.Aggregator
	u := Synthesize(def, stim, &diags)[0]
	q := u.Events[1]
	if text := q.Details["text"]; text != "What is 2+2?" {
		t.Fatalf("text = %v", text)
	}
	media, _ := q.Details["media"].(map[string]interface{})
	if media["imgSrc"] != "sum.png" {
		t.Fatalf("media = %v", media)
	}
}

func TestQuestionDetailsNoMatchingOption(t *testing.T) {
	stim := doc(t, "s.json", `{"setspec": {"clusters": [
		{"stims": [{"response": {"type": "selectone", "correctResponse": "z",
			"options": [{"id": "a"}, {"id": "b"}]}}]}
	]}}`)
	def := defWithUnits(t, `[{"learningsession": {"clusterlist": "0"}}]`)
	var diags diag.Aggregator
	Synthesize(def, stim, &diags)
	found := false
	for _, w := range diags.Warnings() {
		if strings.Contains(w, "no option matching correctResponse") {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings = %v", diags.Warnings())
	}
}

package validator

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

func containing(messages []string, substr string) int {
	n := 0
	for _, m := range messages {
		if strings.Contains(m, substr) {
			n++
		}
	}
	return n
}

func TestCheckStimulusMissingSetspec(t *testing.T) {
	var diags diag.Aggregator
	ok := CheckStimulus(doc(t, "s.json", `{"other": 1}`), &diags)
	if ok {
		t.Fatal("expected container failure")
	}
	if got := diags.Errors(); len(got) != 1 || !strings.Contains(got[0], "missing 'setspec'") {
		t.Fatalf("errors = %v", got)
	}
}

func TestCheckStimulusDuplicateCorrectResponse(t *testing.T) {
	src := `{"setspec": {"clusters": [{"stims": [
		{"response": {"correctResponse": "cat"}},
		{"response": {"correctResponse": "cat"}},
		{"response": {"correctResponse": "cat"}}
	]}]}}`
	var diags diag.Aggregator
	if !CheckStimulus(doc(t, "s.json", src), &diags) {
		t.Fatal("container chain should be intact")
	}
	// One uniqueness error per cluster, not one per duplicate pair.
	if n := containing(diags.Errors(), "Duplicate correctResponse"); n != 1 {
		t.Fatalf("duplicate errors = %d, want 1", n)
	}
}

func TestCheckStimulusSiblingStimsStillChecked(t *testing.T) {
	src := `{"setspec": {"clusters": [{"stims": [
		{"display": {"text": "no response here"}},
		{"response": {"correctResponse": "ok"}, "optimalProb": "high"}
	]}]}}`
	var diags diag.Aggregator
	CheckStimulus(doc(t, "s.json", src), &diags)
	errs := diags.Errors()
	if containing(errs, "missing response object") != 1 {
		t.Fatalf("missing response not reported: %v", errs)
	}
	if containing(errs, "optimalProb must be a number") != 1 {
		t.Fatalf("sibling stim was not checked: %v", errs)
	}
}

func TestCheckStimulusResponseTypeWarning(t *testing.T) {
	src := `{"setspec": {"clusters": [{
		"responseType": "telepathy",
		"stims": [{"response": {"correctResponse": "a"}}]
	}]}}`
	var diags diag.Aggregator
	CheckStimulus(doc(t, "s.json", src), &diags)
	if len(diags.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", diags.Errors())
	}
	if containing(diags.Warnings(), "not a standard type") != 1 {
		t.Fatalf("warnings = %v", diags.Warnings())
	}
}

func TestCheckStimulusIncorrectResponsesShapes(t *testing.T) {
	src := `{"setspec": {"clusters": [{"stims": [
		{"response": {"correctResponse": "a", "incorrectResponses": "b,c"}},
		{"response": {"correctResponse": "d", "incorrectResponses": ["e", 7]}},
		{"response": {"correctResponse": "f", "incorrectResponses": 12}}
	]}]}}`
	var diags diag.Aggregator
	CheckStimulus(doc(t, "s.json", src), &diags)
	errs := diags.Errors()
	if containing(errs, "incorrectResponses[1] is not a string") != 1 {
		t.Fatalf("list element error missing: %v", errs)
	}
	if containing(errs, "must be a string or array") != 1 {
		t.Fatalf("shape error missing: %v", errs)
	}
}

func TestCheckStimulusQuestionIndicatorWarning(t *testing.T) {
	src := `{"setspec": {"clusters": [{"stims": [
		{"display": {"text": "Which planet is largest?"}, "response": {"correctResponse": "jupiter"}}
	]}]}}`
	var diags diag.Aggregator
	CheckStimulus(doc(t, "s.json", src), &diags)
	if containing(diags.Warnings(), "appears to be a question but missing incorrectResponses") != 1 {
		t.Fatalf("warnings = %v", diags.Warnings())
	}
}

func TestCheckStimulusLatin1Warning(t *testing.T) {
	src := `{"setspec": {"clusters": [{"stims": [
		{"response": {"correctResponse": "café"}}
	]}]}}`
	var diags diag.Aggregator
	CheckStimulus(doc(t, "s.json", src), &diags)
	if containing(diags.Warnings(), "invisible unicode characters") != 1 {
		t.Fatalf("warnings = %v", diags.Warnings())
	}
	if len(diags.Errors()) != 0 {
		t.Fatalf("latin-1 must stay a warning: %v", diags.Errors())
	}
}

func TestCheckStimulusParameterAndFields(t *testing.T) {
	src := `{"setspec": {"clusters": [{"stims": [
		{"response": {"correctResponse": "a"}, "parameter": "0,.7"},
		{"response": {"correctResponse": "b"}, "parameter": "0.5,0.7"},
		{"response": {"correctResponse": "c"}, "parameter": "wat"},
		{"response": {"correctResponse": "d"}, "parameter": 4},
		{"response": {"correctResponse": "e"}, "tags": "not-a-list"}
	]}]}}`
	var diags diag.Aggregator
	CheckStimulus(doc(t, "s.json", src), &diags)
	// "0,.7" is the runtime's own shorthand but does not match the strict
	// pattern, so it is advisory.
	if n := containing(diags.Warnings(), "does not match expected format"); n != 2 {
		t.Fatalf("parameter warnings = %d (%v)", n, diags.Warnings())
	}
	if containing(diags.Errors(), "parameter must be a string") != 1 {
		t.Fatalf("errors = %v", diags.Errors())
	}
	if containing(diags.Errors(), "tags must be an array") != 1 {
		t.Fatalf("errors = %v", diags.Errors())
	}
}

func TestCheckDefinitionMissingSetspec(t *testing.T) {
	var diags diag.Aggregator
	if CheckDefinition(doc(t, "d.json", `{"tutor": {}}`), &diags) {
		t.Fatal("expected container failure")
	}
	if containing(diags.Errors(), "missing tutor.setspec") != 1 {
		t.Fatalf("errors = %v", diags.Errors())
	}
}

func TestCheckDefinitionAccumulates(t *testing.T) {
	src := `{"tutor": {"setspec": {"lessonname": "  ", "experimentTarget": 5}}}`
	var diags diag.Aggregator
	if !CheckDefinition(doc(t, "d.json", src), &diags) {
		t.Fatal("setspec present, should not short-circuit")
	}
	errs := diags.Errors()
	for _, want := range []string{"missing or invalid lessonname", "missing or invalid stimulusfile", "experimentTarget is not a string"} {
		if containing(errs, want) != 1 {
			t.Fatalf("missing %q in %v", want, errs)
		}
	}
	if containing(diags.Warnings(), "no unit or unitTemplate") != 1 {
		t.Fatalf("warnings = %v", diags.Warnings())
	}
}

func TestCheckDefinitionUnits(t *testing.T) {
	src := `{"tutor": {
		"setspec": {"lessonname": "L1", "stimulusfile": "s.json"},
		"unit": [
			{"clusterIndex": "3"},
			{"clusterIndex": "abc"},
			"not an object",
			{"assessmentsession": {"clusterlist": "5-2"}},
			{"assessmentsession": {"clusterlist": "1,3-5"}}
		]
	}}`
	var diags diag.Aggregator
	CheckDefinition(doc(t, "d.json", src), &diags)
	errs := diags.Errors()
	if containing(errs, "unit 1 clusterIndex must be a number or numeric string") != 1 {
		t.Fatalf("errors = %v", errs)
	}
	if containing(errs, "unit 2 is not an object") != 1 {
		t.Fatalf("errors = %v", errs)
	}
	if containing(errs, "unit 3 assessmentsession.clusterlist has invalid format") != 1 {
		t.Fatalf("errors = %v", errs)
	}
	if containing(errs, "unit 4") != 0 {
		t.Fatalf("valid unit flagged: %v", errs)
	}
}

func TestCheckMediaReferences(t *testing.T) {
	src := `{"setspec": {"clusters": [{"stims": [
		{"display": {"imgSrc": "present.png", "audioSrc": "missing.mp3", "videoSrc": "http://cdn/clip.mp4"},
		 "response": {"correctResponse": "a"}}
	]}]}}`
	media := map[string]struct{}{"present.png": {}}
	var diags diag.Aggregator
	CheckMediaReferences(doc(t, "s.json", src), media, &diags)
	errs := diags.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0], "audioSrc 'missing.mp3'") {
		t.Fatalf("errors = %v", errs)
	}
}

func TestCheckPackageStructure(t *testing.T) {
	def := doc(t, "d.json", `{"tutor": {"setspec": {"lessonname": "L", "stimulusfile": "s.json"}}}`)
	stim := doc(t, "s.json", `{"setspec": {"clusters": [{"stims": [{"response": {"correctResponse": "a"}}]}]}}`)
	stim.Kind = docstore.KindStimulus

	var diags diag.Aggregator
	set := &docstore.Set{Definitions: []*docstore.Document{def}, Stimuli: []*docstore.Document{stim}, Media: map[string]struct{}{}}
	if !CheckPackageStructure(set, &diags) {
		t.Fatalf("valid pair rejected: %v", diags.Errors())
	}

	var diags2 diag.Aggregator
	empty := &docstore.Set{Media: map[string]struct{}{}}
	if CheckPackageStructure(empty, &diags2) {
		t.Fatal("empty package accepted")
	}
	if containing(diags2.Errors(), "No TDF files found") != 1 {
		t.Fatalf("errors = %v", diags2.Errors())
	}

	var diags3 diag.Aggregator
	unpaired := &docstore.Set{
		Definitions: []*docstore.Document{doc(t, "d.json", `{"tutor": {"setspec": {"stimulusfile": "other.json"}}}`)},
		Stimuli:     []*docstore.Document{stim},
		Media:       map[string]struct{}{},
	}
	if CheckPackageStructure(unpaired, &diags3) {
		t.Fatal("unpaired package accepted")
	}
	if containing(diags3.Errors(), "No valid TDF-stimulus file pairs") != 1 {
		t.Fatalf("errors = %v", diags3.Errors())
	}
}

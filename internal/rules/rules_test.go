package rules

import (
	"reflect"
	"testing"
)

func TestParseWellFormed(t *testing.T) {
	r := Parse("IF score < 2 THEN C2S0 C1S1")
	if r.Malformed {
		t.Fatalf("unexpected malformed: %s", r.Problem)
	}
	if r.Condition != "score < 2" {
		t.Fatalf("condition = %q", r.Condition)
	}
	if r.Action != "C2S0 C1S1" {
		t.Fatalf("action = %q", r.Action)
	}
	want := []ActionRef{{Cluster: 2, Stim: 0}, {Cluster: 1, Stim: 1}}
	if !reflect.DeepEqual(r.Refs, want) {
		t.Fatalf("refs = %v, want %v", r.Refs, want)
	}
}

func TestParseMalformed(t *testing.T) {
	cases := []struct {
		name        string
		in          interface{}
		wantProblem string
	}{
		{"not a string", 42, "rule must be a string starting with IF"},
		{"missing IF prefix", "WHEN x THEN C0S0", "rule must be a string starting with IF"},
		{"missing THEN", "IF x goto C0S0", "rule is missing the THEN keyword"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Parse(tc.in)
			if !r.Malformed {
				t.Fatal("expected malformed")
			}
			if r.Problem != tc.wantProblem {
				t.Fatalf("problem = %q, want %q", r.Problem, tc.wantProblem)
			}
			if len(r.Refs) != 0 {
				t.Fatalf("malformed rule carried refs: %v", r.Refs)
			}
		})
	}
}

func TestParseCheckpointWithoutAt(t *testing.T) {
	r := Parse("IF wrong THEN CHECKPOINT C1S0")
	if r.Malformed {
		t.Fatalf("unexpected malformed: %s", r.Problem)
	}
	if !r.CheckpointWithoutAt {
		t.Fatal("expected CheckpointWithoutAt")
	}

	r = Parse("IF wrong THEN CHECKPOINT AT 30 C1S0")
	if r.CheckpointWithoutAt {
		t.Fatal("AT qualifier present, no advisory expected")
	}
}

func TestParseAllIndependence(t *testing.T) {
	parsed := ParseAll([]interface{}{
		"garbage",
		"IF a THEN C0S0",
		3.5,
		"IF b THEN C1S0",
	})
	if len(parsed) != 4 {
		t.Fatalf("len = %d", len(parsed))
	}
	if !parsed[0].Malformed || !parsed[2].Malformed {
		t.Fatal("expected rules 0 and 2 malformed")
	}
	if parsed[1].Malformed || parsed[3].Malformed {
		t.Fatal("well-formed rules misclassified")
	}
}

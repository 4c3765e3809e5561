package validator

import (
	"strings"

	"github.com/mohammad-safakhou/packlint/internal/diag"
	"github.com/mohammad-safakhou/packlint/internal/docstore"
	"github.com/mohammad-safakhou/packlint/internal/ranges"
)

// CheckDefinition validates one TDF. It reports whether tutor.setspec was
// present; without it the document has no stimulusfile declaration and is
// excluded from pairing.
func CheckDefinition(doc *docstore.Document, diags *diag.Aggregator) bool {
	name := doc.Name
	rawTutor, present := doc.Tree["tutor"]
	if !present {
		diags.Errorf("TDF '%s' missing tutor object", name)
		return false
	}
	tutor, ok := docstore.AsMap(rawTutor)
	if !ok {
		diags.Errorf("TDF '%s' tutor is not an object", name)
		return false
	}
	setspec, ok := docstore.GetMap(tutor, "setspec")
	if !ok {
		diags.Errorf("TDF '%s' missing tutor.setspec", name)
		return false
	}

	if lessonname, ok := docstore.GetString(setspec, "lessonname"); !ok || strings.TrimSpace(lessonname) == "" {
		diags.Errorf("TDF '%s' missing or invalid lessonname", name)
	}
	if _, ok := docstore.GetString(setspec, "stimulusfile"); !ok {
		diags.Errorf("TDF '%s' missing or invalid stimulusfile", name)
	}
	if v, present := setspec["experimentTarget"]; present {
		if _, ok := docstore.AsString(v); !ok {
			diags.Errorf("TDF '%s' experimentTarget is not a string", name)
		}
	}

	var units []interface{}
	haveAny := false
	for _, key := range []string{"unit", "unitTemplate"} {
		raw, present := tutor[key]
		if !present {
			continue
		}
		haveAny = true
		list, ok := docstore.AsList(raw)
		if !ok {
			diags.Errorf("TDF '%s' tutor.%s must be an array", name, key)
			continue
		}
		units = append(units, list...)
	}
	if !haveAny {
		diags.Warnf("TDF '%s' has no unit or unitTemplate - this may be a root TDF", name)
	}

	for unitIdx, raw := range units {
		checkUnit(raw, unitIdx, name, diags)
	}
	return true
}

func checkUnit(raw interface{}, unitIdx int, name string, diags *diag.Aggregator) {
	unit, ok := docstore.AsMap(raw)
	if !ok {
		diags.Errorf("TDF '%s' unit %d is not an object", name, unitIdx)
		return
	}

	if v, present := unit["clusterIndex"]; present {
		if _, ok := docstore.AsInt(v); !ok {
			diags.Errorf("TDF '%s' unit %d clusterIndex must be a number or numeric string", name, unitIdx)
		}
	}

	rawSession, present := unit["assessmentsession"]
	if !present {
		return
	}
	session, ok := docstore.AsMap(rawSession)
	if !ok {
		diags.Errorf("TDF '%s' unit %d assessmentsession must be an object", name, unitIdx)
		return
	}
	if rawList, present := session["clusterlist"]; present {
		clusterlist, ok := docstore.AsString(rawList)
		if !ok {
			diags.Errorf("TDF '%s' unit %d assessmentsession.clusterlist must be a string", name, unitIdx)
			return
		}
		// Legacy authored format: comma-delimited Grammar A.
		if _, err := ranges.Parse(clusterlist, ranges.GrammarComma); err != nil {
			diags.Errorf("TDF '%s' unit %d assessmentsession.clusterlist has invalid format", name, unitIdx)
		}
	}
}

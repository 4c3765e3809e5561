package docstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mohammad-safakhou/packlint/internal/diag"
)

// Kind tags a decoded package document.
type Kind int

const (
	// KindStimulus is a document carrying a setspec cluster list.
	KindStimulus Kind = iota
	// KindDefinition is a TDF: lesson metadata plus a unit list.
	KindDefinition
)

func (k Kind) String() string {
	if k == KindStimulus {
		return "stimulus"
	}
	return "definition"
}

// Document is one decoded JSON file of a package. Trees are immutable once
// loaded; every later pass holds references, never copies.
type Document struct {
	Name string
	Kind Kind
	Tree map[string]interface{}
}

// RawDocument is an undecoded JSON document as submitted to the loader.
type RawDocument struct {
	Name    string
	Content []byte
}

// Set is the typed view of a whole package: definition documents, stimulus
// documents and the names of the bundled media assets.
type Set struct {
	Definitions []*Document
	Stimuli     []*Document
	Media       map[string]struct{}
}

// Counts reports the document census for the summary.
func (s *Set) Counts() diag.Counts {
	return diag.Counts{TDF: len(s.Definitions), Stimulus: len(s.Stimuli), Media: len(s.Media)}
}

// StimulusByName finds a stimulus document by its file name.
func (s *Set) StimulusByName(name string) *Document {
	for _, d := range s.Stimuli {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// FromRaw decodes a submitted document list into a Set. A document that does
// not decode is reported as a document-scoped error and excluded from all
// further checks. Kind is decided by the presence of a top-level setspec key.
func FromRaw(docs []RawDocument, media []string, diags *diag.Aggregator) *Set {
	set := &Set{Media: map[string]struct{}{}}
	for _, m := range media {
		set.Media[m] = struct{}{}
	}
	for _, raw := range docs {
		var tree map[string]interface{}
		if err := json.Unmarshal(raw.Content, &tree); err != nil {
			diags.Errorf("Invalid JSON in file %s: %v", raw.Name, err)
			continue
		}
		doc := &Document{Name: raw.Name, Tree: tree}
		if _, ok := tree["setspec"]; ok {
			doc.Kind = KindStimulus
			set.Stimuli = append(set.Stimuli, doc)
		} else {
			doc.Kind = KindDefinition
			set.Definitions = append(set.Definitions, doc)
		}
	}
	return set
}

// LoadDir reads an already-extracted package directory: .json files become
// documents, everything else contributes its base name to the media set.
// The walk order is sorted so repeated runs produce identical diagnostics.
func LoadDir(dir string, diags *diag.Aggregator) (*Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read package dir: %w", err)
	}
	var raws []RawDocument
	var media []string
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			continue
		}
		if strings.EqualFold(filepath.Ext(name), ".json") {
			content, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				diags.Errorf("Error reading file %s: %v", name, err)
				continue
			}
			raws = append(raws, RawDocument{Name: name, Content: content})
		} else {
			media = append(media, name)
		}
	}
	return FromRaw(raws, media, diags), nil
}

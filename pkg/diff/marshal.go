package diff

import (
	"encoding/json"

	"github.com/cdnctl/snapdiff/pkg/record"
)

// fieldDiffDoc is how a FieldDiff is presented in JSON and YAML; an
// absent side is left out entirely, which keeps it distinguishable
// from an explicit null.
type fieldDiffDoc struct {
	Previous *record.Value  `json:"previous,omitempty" yaml:"previous,omitempty"`
	Current  *record.Value  `json:"current,omitempty" yaml:"current,omitempty"`
	Changed  bool           `json:"changed" yaml:"changed"`
	Nested   *RecordDiff    `json:"nested,omitempty" yaml:"nested,omitempty"`
	Elements []ElementChunk `json:"elements,omitempty" yaml:"elements,omitempty"`
}

func (f FieldDiff) doc() fieldDiffDoc {
	d := fieldDiffDoc{
		Changed:  f.Changed,
		Nested:   f.Nested,
		Elements: f.Elements,
	}
	if !f.Previous.IsAbsent() {
		prev := f.Previous
		d.Previous = &prev
	}
	if !f.Current.IsAbsent() {
		cur := f.Current
		d.Current = &cur
	}
	return d
}

func (f FieldDiff) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.doc())
}

// MarshalYAML implements yaml.Marshaler (gopkg.in/yaml.v2).
func (f FieldDiff) MarshalYAML() (interface{}, error) {
	return f.doc(), nil
}

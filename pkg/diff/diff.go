package diff

import (
	"sort"

	"github.com/cdnctl/snapdiff/pkg/record"
)

// FieldDiff describes one field of a record compared at two points in
// time. A side on which the field does not exist holds record.Absent.
type FieldDiff struct {
	Field    string
	Previous record.Value
	Current  record.Value
	Changed  bool
	// Nested is set when both sides are records.
	Nested *RecordDiff
	// Elements is set when both sides are arrays and they differ.
	Elements []ElementChunk
}

// RecordDiff is the result of comparing two records known to exist on
// both sides. Fields holds every field present on either side,
// including unchanged ones.
type RecordDiff struct {
	// Key identifies the compared record: the entity key for a
	// top-level diff, or the field name for a nested one.
	Key               string               `json:"key,omitempty" yaml:"key,omitempty"`
	Fields            map[string]FieldDiff `json:"fields" yaml:"fields"`
	ChangedFieldCount int                  `json:"changedFieldCount" yaml:"changedFieldCount"`
}

// DiffRecord compares two records which are supposed to represent the
// same logical entity, i.e., they were identified with the same key.
// It never fails: missing fields, nulls and type changes are all
// legitimate differences.
func DiffRecord(previous, current record.Record) RecordDiff {
	d := RecordDiff{Fields: map[string]FieldDiff{}}

	// previous - current and previous ^ current at the same time
	for name, prev := range previous {
		if prev.IsAbsent() {
			continue
		}
		cur, _ := current.Get(name)
		d.add(diffField(name, prev, cur))
	}
	// now, current - previous
	for name, cur := range current {
		if cur.IsAbsent() {
			continue
		}
		if _, found := previous.Get(name); !found {
			d.add(diffField(name, record.Absent, cur))
		}
	}
	return d
}

func (d *RecordDiff) add(f FieldDiff) {
	d.Fields[f.Field] = f
	if f.Changed {
		d.ChangedFieldCount++
	}
}

func diffField(name string, prev, cur record.Value) FieldDiff {
	f := FieldDiff{Field: name, Previous: prev, Current: cur}
	switch {
	case prev.IsAbsent() || cur.IsAbsent():
		f.Changed = true
	case prev.Kind() == record.KindRecord && cur.Kind() == record.KindRecord:
		nested := DiffRecord(prev.Fields(), cur.Fields())
		nested.Key = name
		f.Nested = &nested
		f.Changed = nested.ChangedFieldCount > 0
	case prev.Kind() == record.KindArray && cur.Kind() == record.KindArray:
		if !record.Equal(prev, cur) {
			f.Changed = true
			f.Elements = DiffElements(prev.Items(), cur.Items())
		}
	default:
		f.Changed = !record.Equal(prev, cur)
	}
	return f
}

// Changed reports whether any field differs.
func (d RecordDiff) Changed() bool {
	return d.ChangedFieldCount > 0
}

// ChangedFields returns the names of the differing fields, sorted.
func (d RecordDiff) ChangedFields() []string {
	var names []string
	for name, f := range d.Fields {
		if f.Changed {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (d RecordDiff) fieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for name := range d.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

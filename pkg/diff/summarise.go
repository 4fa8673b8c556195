package diff

import (
	"fmt"
	"io"
)

// Summarise writes the changed fields only, one per line:
//
//	+ field: value          (added)
//	- field: value          (removed)
//	~ field: old -> new     (changed)
//
// Nested records are flattened into dotted paths.
func (d RecordDiff) Summarise(out io.Writer) {
	d.summarise(out, "", "")
}

func (d RecordDiff) summarise(out io.Writer, indent, prefix string) {
	for _, name := range d.fieldNames() {
		f := d.Fields[name]
		if !f.Changed {
			continue
		}
		path := prefix + name
		switch {
		case f.Nested != nil:
			f.Nested.summarise(out, indent, path+".")
		case f.Previous.IsAbsent():
			fmt.Fprintf(out, "%s+ %s: %s\n", indent, path, f.Current)
		case f.Current.IsAbsent():
			fmt.Fprintf(out, "%s- %s: %s\n", indent, path, f.Previous)
		case len(f.Elements) > 0:
			fmt.Fprintf(out, "%s~ %s:\n", indent, path)
			for _, chunk := range f.Elements {
				chunk.summarise(out, indent+"    ")
			}
		default:
			fmt.Fprintf(out, "%s~ %s: %s -> %s\n", indent, path, f.Previous, f.Current)
		}
	}
}

func (c ElementChunk) summarise(out io.Writer, indent string) {
	for _, del := range c.Deleted {
		fmt.Fprintf(out, "%s- %s\n", indent, del)
	}
	for _, add := range c.Added {
		fmt.Fprintf(out, "%s+ %s\n", indent, add)
	}
}

// Summarise writes deleted, then new, then changed entities. Unchanged
// entities are left out.
func (d EntityDiff) Summarise(out io.Writer) {
	for _, e := range d.Deleted {
		fmt.Fprintf(out, "- %s\n", e.Key)
	}
	for _, e := range d.New {
		fmt.Fprintf(out, "+ %s\n", e.Key)
	}
	for _, c := range d.Changed {
		fmt.Fprintf(out, "~ %s:\n", c.Key)
		c.summarise(out, "    ", "")
	}
}

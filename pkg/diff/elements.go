package diff

import (
	godiff "github.com/kylelemons/godebug/diff"

	"github.com/cdnctl/snapdiff/pkg/record"
)

// ElementChunk is a run of array elements that were added, deleted or
// kept, in their canonical text form. It is presentation only; arrays
// are compared positionally, never by chunks.
type ElementChunk struct {
	Added   []string `json:"added,omitempty" yaml:"added,omitempty"`
	Deleted []string `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	Equal   []string `json:"equal,omitempty" yaml:"equal,omitempty"`
}

// DiffElements computes the shortest edit between two arrays.
func DiffElements(previous, current []record.Value) []ElementChunk {
	if len(previous) == 0 && len(current) == 0 {
		return nil
	}
	chunks := godiff.DiffChunks(texts(previous), texts(current))
	out := make([]ElementChunk, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Added) == 0 && len(c.Deleted) == 0 && len(c.Equal) == 0 {
			continue
		}
		out = append(out, ElementChunk{Added: c.Added, Deleted: c.Deleted, Equal: c.Equal})
	}
	return out
}

func texts(vs []record.Value) []string {
	if vs == nil {
		return nil
	}
	ss := make([]string, len(vs))
	for i := range vs {
		ss[i] = vs[i].String()
	}
	return ss
}

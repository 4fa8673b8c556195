package diff

import (
	"sort"

	"github.com/cdnctl/snapdiff/pkg/record"
)

// Entity is one member of an EntityMap, tagged with its key.
type Entity struct {
	Key    string        `json:"key" yaml:"key"`
	Record record.Record `json:"record" yaml:"record"`
}

// EntityDiff partitions the union of keys of two EntityMaps. Each key
// appears in exactly one partition, and each partition is sorted by
// key.
type EntityDiff struct {
	New       []Entity     `json:"new" yaml:"new"`
	Deleted   []Entity     `json:"deleted" yaml:"deleted"`
	Unchanged []Entity     `json:"unchanged" yaml:"unchanged"`
	Changed   []RecordDiff `json:"changed" yaml:"changed"`
}

func MakeEntityDiff() EntityDiff {
	return EntityDiff{
		New:       []Entity{},
		Deleted:   []Entity{},
		Unchanged: []Entity{},
		Changed:   []RecordDiff{},
	}
}

// DiffEntities compares two EntityMaps key by key. Unchanged entities
// are reported with their current record; changed ones as a RecordDiff
// whose Key is the entity key.
func DiffEntities(previous, current record.EntityMap) EntityDiff {
	diff := MakeEntityDiff()

	for key, prev := range previous {
		if cur, found := current[key]; found {
			recordDiff := DiffRecord(prev, cur)
			recordDiff.Key = key
			if recordDiff.ChangedFieldCount == 0 {
				diff.Unchanged = append(diff.Unchanged, Entity{Key: key, Record: cur})
			} else {
				diff.Changed = append(diff.Changed, recordDiff)
			}
		} else {
			diff.Deleted = append(diff.Deleted, Entity{Key: key, Record: prev})
		}
	}
	for key, cur := range current {
		if _, found := previous[key]; !found {
			diff.New = append(diff.New, Entity{Key: key, Record: cur})
		}
	}

	sortEntities(diff.New)
	sortEntities(diff.Deleted)
	sortEntities(diff.Unchanged)
	sort.Slice(diff.Changed, func(i, j int) bool {
		return diff.Changed[i].Key < diff.Changed[j].Key
	})
	return diff
}

func sortEntities(es []Entity) {
	sort.Slice(es, func(i, j int) bool {
		return es[i].Key < es[j].Key
	})
}

// NumChanges counts new, deleted and changed entities. Unchanged
// entities never contribute.
func (d EntityDiff) NumChanges() int {
	return len(d.New) + len(d.Deleted) + len(d.Changed)
}

// Total is the number of distinct keys across both sides.
func (d EntityDiff) Total() int {
	return d.NumChanges() + len(d.Unchanged)
}

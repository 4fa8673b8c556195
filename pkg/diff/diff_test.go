package diff

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdnctl/snapdiff/pkg/record"
)

var valueComparer = cmp.Comparer(record.Equal)

func rec(m map[string]interface{}) record.Record {
	return record.MustRecord(m)
}

// --- test diffing single records

func TestIdenticalRecords(t *testing.T) {
	r := rec(map[string]interface{}{
		"domain_name": "cdn.test",
		"soa": map[string]interface{}{
			"admin":  "traffic_ops",
			"expire": "604800",
		},
		"capabilities": []interface{}{"HDD", "SSD"},
		"ip6":          nil,
	})

	d := DiffRecord(r, r)
	assert.Equal(t, 0, d.ChangedFieldCount)
	assert.Len(t, d.Fields, 4)
	for name, f := range d.Fields {
		assert.False(t, f.Changed, "field %q", name)
	}
	require.NotNil(t, d.Fields["soa"].Nested)
	assert.Equal(t, 0, d.Fields["soa"].Nested.ChangedFieldCount)
}

func TestSingleFieldChange(t *testing.T) {
	prev := rec(map[string]interface{}{"a": 1, "b": 2})
	cur := rec(map[string]interface{}{"a": 1, "b": 3})

	d := DiffRecord(prev, cur)
	expected := map[string]FieldDiff{
		"a": {Field: "a", Previous: record.Number(1), Current: record.Number(1), Changed: false},
		"b": {Field: "b", Previous: record.Number(2), Current: record.Number(3), Changed: true},
	}
	if diff := cmp.Diff(expected, d.Fields, valueComparer); diff != "" {
		t.Errorf("unexpected fields (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, d.ChangedFieldCount)
	assert.Equal(t, []string{"b"}, d.ChangedFields())
}

func TestFieldsOnOneSide(t *testing.T) {
	prev := rec(map[string]interface{}{"foo": "bar", "gee": "whiz", "test": "quest"})
	cur := rec(map[string]interface{}{"fizz": "buzz", "gee": "willikers", "test": "quest"})

	d := DiffRecord(prev, cur)
	assert.Equal(t, 3, d.ChangedFieldCount)

	foo := d.Fields["foo"]
	assert.True(t, foo.Changed)
	assert.True(t, foo.Current.IsAbsent())
	assert.True(t, record.Equal(record.String("bar"), foo.Previous))

	fizz := d.Fields["fizz"]
	assert.True(t, fizz.Changed)
	assert.True(t, fizz.Previous.IsAbsent())
	assert.True(t, record.Equal(record.String("buzz"), fizz.Current))

	assert.True(t, d.Fields["gee"].Changed)
	assert.False(t, d.Fields["test"].Changed)
}

func TestNullIsNotAbsentOrZero(t *testing.T) {
	prev := rec(map[string]interface{}{"n": nil, "z": nil, "s": nil, "f": nil})
	cur := rec(map[string]interface{}{"n": nil, "z": 0, "s": "", "f": false, "extra": nil})

	d := DiffRecord(prev, cur)
	assert.False(t, d.Fields["n"].Changed)
	assert.True(t, d.Fields["z"].Changed)
	assert.True(t, d.Fields["s"].Changed)
	assert.True(t, d.Fields["f"].Changed)

	extra := d.Fields["extra"]
	assert.True(t, extra.Changed, "null on one side and missing on the other is a change")
	assert.True(t, extra.Previous.IsAbsent())
	assert.Equal(t, record.KindNull, extra.Current.Kind())
	assert.Equal(t, 4, d.ChangedFieldCount)
}

func TestTypeChangeIsADifference(t *testing.T) {
	prev := rec(map[string]interface{}{"port": "80", "ttls": map[string]interface{}{"A": "3600"}})
	cur := rec(map[string]interface{}{"port": 80, "ttls": "3600"})

	d := DiffRecord(prev, cur)
	assert.Equal(t, 2, d.ChangedFieldCount)
	assert.Nil(t, d.Fields["ttls"].Nested, "no recursion unless both sides are records")
}

func TestNestedRecordDiff(t *testing.T) {
	prev := rec(map[string]interface{}{
		"ttls": map[string]interface{}{"A": "3600", "AAAA": "3600", "NS": "3600"},
		"soa":  map[string]interface{}{"admin": "traffic_ops"},
	})
	cur := rec(map[string]interface{}{
		"ttls": map[string]interface{}{"A": "60", "AAAA": "3600", "SOA": "86400"},
		"soa":  map[string]interface{}{"admin": "traffic_ops"},
	})

	d := DiffRecord(prev, cur)
	assert.Equal(t, 1, d.ChangedFieldCount, "a nested record counts once at its parent")

	ttls := d.Fields["ttls"]
	assert.True(t, ttls.Changed)
	require.NotNil(t, ttls.Nested)
	assert.Equal(t, "ttls", ttls.Nested.Key)
	assert.Equal(t, 3, ttls.Nested.ChangedFieldCount)
	assert.Equal(t, []string{"A", "NS", "SOA"}, ttls.Nested.ChangedFields())

	soa := d.Fields["soa"]
	assert.False(t, soa.Changed)
	require.NotNil(t, soa.Nested)
}

func TestArraysAreOrderSensitive(t *testing.T) {
	prev := rec(map[string]interface{}{
		"same":    []interface{}{"a", "b"},
		"swapped": []interface{}{"a", "b"},
		"grown":   []interface{}{"a"},
	})
	cur := rec(map[string]interface{}{
		"same":    []interface{}{"a", "b"},
		"swapped": []interface{}{"b", "a"},
		"grown":   []interface{}{"a", "b"},
	})

	d := DiffRecord(prev, cur)
	assert.False(t, d.Fields["same"].Changed)
	assert.Nil(t, d.Fields["same"].Elements)
	assert.True(t, d.Fields["swapped"].Changed)
	assert.True(t, d.Fields["grown"].Changed)
	assert.Equal(t, 2, d.ChangedFieldCount)

	var added []string
	for _, c := range d.Fields["grown"].Elements {
		added = append(added, c.Added...)
	}
	assert.Equal(t, []string{`"b"`}, added)
}

func TestChangedFieldCountMatchesFields(t *testing.T) {
	prev := rec(map[string]interface{}{"a": 1, "b": "x", "c": true, "d": []interface{}{1}, "e": map[string]interface{}{"f": 1}})
	cur := rec(map[string]interface{}{"a": 2, "b": "x", "c": nil, "d": []interface{}{1}, "e": map[string]interface{}{"f": 2}, "g": 1})

	d := DiffRecord(prev, cur)
	changed := 0
	for _, f := range d.Fields {
		if f.Changed {
			changed++
		}
	}
	assert.Equal(t, changed, d.ChangedFieldCount)
	assert.Equal(t, 4, d.ChangedFieldCount)
}

func TestDiffRecordDoesNotMutateInputs(t *testing.T) {
	prev := rec(map[string]interface{}{"a": 1, "n": map[string]interface{}{"x": 1}})
	cur := rec(map[string]interface{}{"b": 1, "n": map[string]interface{}{"y": 1}})
	prevCopy := rec(map[string]interface{}{"a": 1, "n": map[string]interface{}{"x": 1}})
	curCopy := rec(map[string]interface{}{"b": 1, "n": map[string]interface{}{"y": 1}})

	DiffRecord(prev, cur)
	assert.True(t, prev.Equal(prevCopy))
	assert.True(t, cur.Equal(curCopy))
}

// --- test whole EntityMaps

func TestEmptyVsEmpty(t *testing.T) {
	diff := DiffEntities(nil, record.EntityMap{})
	if !reflect.DeepEqual(MakeEntityDiff(), diff) {
		t.Errorf("expected no differences, got %#v", diff)
	}
}

func TestSomeVsNone(t *testing.T) {
	edge := rec(map[string]interface{}{"status": "ONLINE"})
	diff := DiffEntities(record.EntityMap{"edge": edge}, nil)

	expected := MakeEntityDiff()
	expected.Deleted = []Entity{{Key: "edge", Record: edge}}
	if !reflect.DeepEqual(expected, diff) {
		t.Errorf("expected:\n%#v\ngot:\n%#v", expected, diff)
	}
}

func TestNoneVsSome(t *testing.T) {
	edge := rec(map[string]interface{}{"status": "ONLINE"})
	diff := DiffEntities(nil, record.EntityMap{"edge": edge})

	expected := MakeEntityDiff()
	expected.New = []Entity{{Key: "edge", Record: edge}}
	if !reflect.DeepEqual(expected, diff) {
		t.Errorf("expected:\n%#v\ngot:\n%#v", expected, diff)
	}
}

func TestIdenticalEntityMaps(t *testing.T) {
	m := record.EntityMap{
		"edge1": rec(map[string]interface{}{"status": "ONLINE", "port": 80}),
		"edge2": rec(map[string]interface{}{"status": "REPORTED", "capabilities": []interface{}{"SSD"}}),
	}
	diff := DiffEntities(m, m)
	assert.Empty(t, diff.New)
	assert.Empty(t, diff.Deleted)
	assert.Empty(t, diff.Changed)
	assert.Len(t, diff.Unchanged, 2)
	assert.Equal(t, 0, diff.NumChanges())
}

func TestPartitionCompleteness(t *testing.T) {
	previous := record.EntityMap{
		"deleted":   rec(map[string]interface{}{"status": "ONLINE"}),
		"unchanged": rec(map[string]interface{}{"status": "ONLINE"}),
		"changed":   rec(map[string]interface{}{"status": "ONLINE"}),
		"emptied":   rec(map[string]interface{}{"status": "ONLINE"}),
	}
	current := record.EntityMap{
		"unchanged": rec(map[string]interface{}{"status": "ONLINE"}),
		"changed":   rec(map[string]interface{}{"status": "ADMIN_DOWN"}),
		"emptied":   record.Record{},
		"new":       rec(map[string]interface{}{"status": "PRE_PROD"}),
	}

	diff := DiffEntities(previous, current)

	seen := map[string]int{}
	for _, e := range diff.New {
		seen[e.Key]++
	}
	for _, e := range diff.Deleted {
		seen[e.Key]++
	}
	for _, e := range diff.Unchanged {
		seen[e.Key]++
	}
	for _, c := range diff.Changed {
		seen[c.Key]++
		assert.True(t, c.ChangedFieldCount >= 1)
	}
	assert.Equal(t, map[string]int{"deleted": 1, "unchanged": 1, "changed": 1, "emptied": 1, "new": 1}, seen)
	assert.Equal(t, 5, diff.Total())
	assert.Equal(t, 4, diff.NumChanges())

	assert.Equal(t, "new", diff.New[0].Key)
	assert.Equal(t, "deleted", diff.Deleted[0].Key)
	assert.Equal(t, "unchanged", diff.Unchanged[0].Key)
	require.Len(t, diff.Changed, 2)
	assert.Equal(t, "changed", diff.Changed[0].Key)
	assert.Equal(t, "emptied", diff.Changed[1].Key)
}

func TestContentServerAdded(t *testing.T) {
	edge1 := rec(map[string]interface{}{"status": "ONLINE"})
	edge2 := rec(map[string]interface{}{"status": "ONLINE"})
	current := record.EntityMap{"edge1": edge1}
	pending := record.EntityMap{"edge1": edge1, "edge2": edge2}

	diff := DiffEntities(current, pending)
	assert.Equal(t, []Entity{{Key: "edge2", Record: edge2}}, diff.New)
	assert.Empty(t, diff.Deleted)
	assert.Equal(t, []Entity{{Key: "edge1", Record: edge1}}, diff.Unchanged)
	assert.Empty(t, diff.Changed)
	assert.Equal(t, 1, diff.NumChanges())
}

func TestRouterDifferences(t *testing.T) {
	current := record.EntityMap{
		"fizz.buzz": rec(map[string]interface{}{
			"api.port": "8", "fqdn": "test.quest.cdn.test", "httpsPort": 9, "ip": "0.0.0.3",
			"ip6": "::3", "location": "test.quest location", "port": 10,
			"profile": "test.quest profile", "secure.api.port": "11", "status": "ONLINE",
		}),
		"foo.bar": rec(map[string]interface{}{
			"api.port": "4", "fqdn": "foo.bar.cdn.test", "httpsPort": 5, "ip": "0.0.0.2",
			"ip6": "::2", "location": "foo.bar location", "port": 6,
			"profile": "foo.bar profile", "secure.api.port": "7", "status": "REPORTED",
		}),
		"test.quest": rec(map[string]interface{}{
			"api.port": "1", "fqdn": "test.quest.cdn.test", "httpsPort": 2, "ip": "0.0.0.1",
			"ip6": "::1", "location": "test.quest location", "port": 3,
			"profile": "test.quest profile", "secure.api.port": "4", "status": "some other third status",
		}),
	}
	pending := record.EntityMap{
		"fizz.buzz": current["fizz.buzz"],
		"foo.bar": rec(map[string]interface{}{
			"api.port": "12", "fqdn": "foo.bar.changed.cdn.test", "httpsPort": 13, "ip": "0.0.0.4",
			"ip6": "::4", "location": "foo.bar changed location", "port": 14,
			"profile": "foo.bar changed profile", "secure.api.port": "15", "status": "ADMIN_UP",
		}),
		"gee.whiz": current["test.quest"],
	}

	diff := DiffEntities(current, pending)
	assert.Equal(t, 3, diff.NumChanges())
	require.Len(t, diff.Changed, 1)
	assert.Equal(t, "foo.bar", diff.Changed[0].Key)
	assert.Equal(t, 10, diff.Changed[0].ChangedFieldCount)
	assert.Equal(t, "gee.whiz", diff.New[0].Key)
	assert.Equal(t, "test.quest", diff.Deleted[0].Key)
	assert.Equal(t, "fizz.buzz", diff.Unchanged[0].Key)
}

// --- presentation

func TestSummarise(t *testing.T) {
	prev := record.EntityMap{
		"gone": rec(map[string]interface{}{"status": "ONLINE"}),
		"edge": rec(map[string]interface{}{
			"status": "ONLINE",
			"ttls":   map[string]interface{}{"A": "60"},
			"caps":   []interface{}{"HDD"},
			"ip6":    "::1",
		}),
	}
	cur := record.EntityMap{
		"fresh": rec(map[string]interface{}{"status": "ONLINE"}),
		"edge": rec(map[string]interface{}{
			"status":  "ADMIN_DOWN",
			"ttls":    map[string]interface{}{"A": "120"},
			"caps":    []interface{}{"SSD"},
			"profile": "EDGE_1",
		}),
	}

	var buf bytes.Buffer
	DiffEntities(prev, cur).Summarise(&buf)
	expected := `- gone
+ fresh
~ edge:
    ~ caps:
        - "HDD"
        + "SSD"
    - ip6: "::1"
    + profile: "EDGE_1"
    ~ status: "ONLINE" -> "ADMIN_DOWN"
    ~ ttls.A: "60" -> "120"
`
	assert.Equal(t, expected, buf.String())
}

func TestFieldDiffJSON(t *testing.T) {
	d := DiffRecord(
		rec(map[string]interface{}{"gone": 1, "nulled": "x"}),
		rec(map[string]interface{}{"nulled": nil, "added": true}),
	)
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"fields": {
			"gone":   {"previous": 1, "changed": true},
			"nulled": {"previous": "x", "current": null, "changed": true},
			"added":  {"current": true, "changed": true}
		},
		"changedFieldCount": 3
	}`, string(out))
}

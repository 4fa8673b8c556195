// Package record holds the value model for configuration records: an
// arbitrarily nested mapping from field name to scalar, array or
// nested record. Values are a closed tagged union so that comparison
// code can match on Kind exhaustively rather than inspecting dynamic
// types.
package record

import (
	"bytes"
	"encoding/json"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Kind int

const (
	// KindAbsent is the zero Kind; a field that does not exist.
	KindAbsent Kind = iota
	KindNull
	KindString
	KindNumber
	KindBool
	KindTime
	KindArray
	KindRecord
)

var kindNames = map[Kind]string{
	KindAbsent: "absent",
	KindNull:   "null",
	KindString: "string",
	KindNumber: "number",
	KindBool:   "bool",
	KindTime:   "time",
	KindArray:  "array",
	KindRecord: "record",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a single configuration value. The zero Value is Absent,
// which is distinct from Null and from every zero scalar.
type Value struct {
	kind Kind
	str  string
	num  float64
	// whole holds the decimal digits of an integral number, which num
	// can only approximate beyond 2^53.
	whole string
	b     bool
	t     time.Time
	arr   []Value
	rec   Record
}

// Absent stands in for the missing side of a field present in only
// one record.
var Absent = Value{}

func Null() Value               { return Value{kind: KindNull} }
func String(s string) Value     { return Value{kind: KindString, str: s} }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func Time(t time.Time) Value    { return Value{kind: KindTime, t: t} }
func List(items ...Value) Value { return Value{kind: KindArray, arr: items} }
func Nest(r Record) Value       { return Value{kind: KindRecord, rec: r} }

func Number(f float64) Value {
	v := Value{kind: KindNumber, num: f}
	if !math.IsInf(f, 0) && f == math.Trunc(f) {
		i, _ := big.NewFloat(f).Int(nil)
		v.whole = i.String()
	}
	return v
}

// Int is an exact integer, however large.
func Int(i *big.Int) Value {
	f, _ := new(big.Float).SetInt(i).Float64()
	return Value{kind: KindNumber, num: f, whole: i.String()}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }
func (v Value) Items() []Value { return v.arr }
func (v Value) Fields() Record { return v.rec }
func (v Value) Float() float64 { return v.num }
func (v Value) Truth() bool    { return v.b }

// Equal reports deep value equality. Values of different kinds are
// never equal; arrays compare positionally.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindAbsent, KindNull:
		return true
	case KindString:
		return a.str == b.str
	case KindNumber:
		if a.whole != "" && b.whole != "" {
			return a.whole == b.whole
		}
		return a.num == b.num
	case KindBool:
		return a.b == b.b
	case KindTime:
		return a.t.Equal(b.t)
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		return a.rec.Equal(b.rec)
	}
	return false
}

// String renders the value canonically. Record keys are sorted, so two
// equal values always render the same.
func (v Value) String() string {
	var buf strings.Builder
	v.writeTo(&buf)
	return buf.String()
}

func (v Value) writeTo(buf *strings.Builder) {
	switch v.kind {
	case KindAbsent:
		buf.WriteString("<absent>")
	case KindNull:
		buf.WriteString("null")
	case KindString:
		buf.WriteString(strconv.Quote(v.str))
	case KindNumber:
		buf.WriteString(v.numberText())
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindTime:
		buf.WriteString(v.t.UTC().Format(time.RFC3339Nano))
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteString(", ")
			}
			item.writeTo(buf)
		}
		buf.WriteByte(']')
	case KindRecord:
		buf.WriteByte('{')
		for i, k := range v.rec.Keys() {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(strconv.Quote(k))
			buf.WriteString(": ")
			v.rec[k].writeTo(buf)
		}
		buf.WriteByte('}')
	}
}

func (v Value) numberText() string {
	if v.whole != "" {
		return v.whole
	}
	return strconv.FormatFloat(v.num, 'f', -1, 64)
}

// Interface converts the value back into plain Go data, as produced by
// encoding/json. Absent converts to nil.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if i, ok := new(big.Int).SetString(v.whole, 10); ok && i.IsInt64() {
			return i.Int64()
		}
		return v.num
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	case KindArray:
		items := make([]interface{}, len(v.arr))
		for i := range v.arr {
			items[i] = v.arr[i].Interface()
		}
		return items
	case KindRecord:
		return v.rec.Interface()
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber {
		return []byte(v.numberText()), nil
	}
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromInterface(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler (gopkg.in/yaml.v2).
func (v Value) MarshalYAML() (interface{}, error) {
	return v.Interface(), nil
}

// Record is one field-group of configuration.
type Record map[string]Value

// EntityMap is a category of records keyed by a stable entity
// identifier, e.g. a hostname.
type EntityMap map[string]Record

// Get returns the named field. A field holding Absent counts as
// missing.
func (r Record) Get(name string) (Value, bool) {
	v, ok := r[name]
	if !ok || v.kind == KindAbsent {
		return Absent, false
	}
	return v, true
}

// Keys returns the names of present fields, sorted.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k, v := range r {
		if v.kind != KindAbsent {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (r Record) Equal(other Record) bool {
	if len(r.Keys()) != len(other.Keys()) {
		return false
	}
	for k, v := range r {
		if v.kind == KindAbsent {
			continue
		}
		w, ok := other.Get(k)
		if !ok || !Equal(v, w) {
			return false
		}
	}
	return true
}

func (r Record) Interface() map[string]interface{} {
	m := make(map[string]interface{}, len(r))
	for k, v := range r {
		if v.kind != KindAbsent {
			m[k] = v.Interface()
		}
	}
	return m
}

func (r Record) String() string {
	return Nest(r).String()
}

// Keys returns the entity keys, sorted.
func (m EntityMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

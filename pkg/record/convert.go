package record

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrUnsupportedType = errors.New("unsupported value type")
	ErrNotRecord       = errors.New("value is not a record")
)

// FromInterface converts decoded JSON or YAML data into a Value. It
// accepts what encoding/json produces (with or without UseNumber), what
// gopkg.in/yaml.v2 produces, and Values and Records themselves.
func FromInterface(v interface{}) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case Record:
		return Nest(v), nil
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case json.Number:
		if i, ok := new(big.Int).SetString(v.String(), 10); ok {
			return Int(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return Absent, errors.Wrapf(err, "parsing number %q", v.String())
		}
		return Number(f), nil
	case float64:
		return Number(v), nil
	case float32:
		return Number(float64(v)), nil
	case int:
		return Int(big.NewInt(int64(v))), nil
	case int32:
		return Int(big.NewInt(int64(v))), nil
	case int64:
		return Int(big.NewInt(v)), nil
	case uint:
		return Int(new(big.Int).SetUint64(uint64(v))), nil
	case uint32:
		return Int(new(big.Int).SetUint64(uint64(v))), nil
	case uint64:
		return Int(new(big.Int).SetUint64(v)), nil
	case time.Time:
		return Time(v), nil
	case []interface{}:
		items := make([]Value, len(v))
		for i := range v {
			item, err := FromInterface(v[i])
			if err != nil {
				return Absent, errors.Wrapf(err, "[%d]", i)
			}
			items[i] = item
		}
		return List(items...), nil
	case []string:
		items := make([]Value, len(v))
		for i := range v {
			items[i] = String(v[i])
		}
		return List(items...), nil
	case map[string]interface{}:
		r, err := RecordFrom(v)
		if err != nil {
			return Absent, err
		}
		return Nest(r), nil
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, val := range v {
			key, ok := k.(string)
			if !ok {
				return Absent, errors.Errorf("non-string key %v (%T)", k, k)
			}
			m[key] = val
		}
		r, err := RecordFrom(m)
		if err != nil {
			return Absent, err
		}
		return Nest(r), nil
	}
	return Absent, errors.Wrap(ErrUnsupportedType, fmt.Sprintf("%T", v))
}

// RecordFrom converts a decoded JSON object into a Record.
func RecordFrom(m map[string]interface{}) (Record, error) {
	r := make(Record, len(m))
	for k, raw := range m {
		v, err := FromInterface(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", k)
		}
		r[k] = v
	}
	return r, nil
}

// EntityMapFrom converts a decoded JSON object whose every value is
// itself an object. Any other member value yields ErrNotRecord, since
// the section is then not keyed by entity.
func EntityMapFrom(m map[string]interface{}) (EntityMap, error) {
	entities := make(EntityMap, len(m))
	for key, raw := range m {
		v, err := FromInterface(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "entity %q", key)
		}
		if v.Kind() != KindRecord {
			return nil, errors.Wrapf(ErrNotRecord, "entity %q is a %s", key, v.Kind())
		}
		entities[key] = v.Fields()
	}
	return entities, nil
}

// MustRecord is RecordFrom for literals in tests and fixtures.
func MustRecord(m map[string]interface{}) Record {
	r, err := RecordFrom(m)
	if err != nil {
		panic(err)
	}
	return r
}

package category

import (
	"fmt"
	"reflect"

	"github.com/cdnctl/snapdiff/pkg/diff"
)

// PendingChangesStr renders a count of pending changes for people to
// read. It takes a count, anything with a length (which is counted), a
// diff.EntityDiff or a *Controller. Anything else counts as zero.
func PendingChangesStr(v interface{}) string {
	n := countOf(v)
	if n == 1 {
		return "1 change pending"
	}
	return fmt.Sprintf("%d changes pending", n)
}

func countOf(v interface{}) int {
	switch v := v.(type) {
	case nil:
		return 0
	case diff.EntityDiff:
		return v.NumChanges()
	case *Controller:
		return v.NumChanges()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int(rv.Uint())
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len()
	case reflect.Ptr:
		if rv.IsNil() {
			return 0
		}
		return countOf(rv.Elem().Interface())
	}
	return 0
}

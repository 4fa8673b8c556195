package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestNullErrorEncoding(t *testing.T) {
	type S struct {
		Err *Error
	}
	var s S
	bytes, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var s1 S
	err = json.Unmarshal(bytes, &s1)
	if err != nil {
		t.Fatal(err)
	}
	if s1.Err != nil {
		t.Errorf("expected nil in field, but got %+v", s1.Err)
	}
}

func TestErrorEncoding(t *testing.T) {
	errVal := &Error{
		Type: Malformed,
		Help: "helpful text\nwith linebreaks!",
		Err:  errors.New("underlying error"),
	}
	bytes, err := json.Marshal(errVal)
	if err != nil {
		t.Fatal(err)
	}

	var got Error
	err = json.Unmarshal(bytes, &got)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(errVal, &got) {
		t.Errorf("not deepEqual\nexpected %#v\ngot %#v", errVal, got)
	}
}

func TestTypePredicatesSeeThroughWrapping(t *testing.T) {
	malformed := MalformedSection("contentServers", errors.New("entity \"edge\" is a string"))
	wrapped := fmt.Errorf("loading pending: %w", malformed)

	if !IsMalformed(wrapped) {
		t.Error("expected wrapped error to be malformed")
	}
	if IsMissing(wrapped) {
		t.Error("malformed is not missing")
	}
	if !IsMissing(MissingSection("monitors")) {
		t.Error("expected missing section to be missing")
	}
	if IsMissing(errors.New("plain")) {
		t.Error("plain errors have no type")
	}
}

func TestCoverAllError(t *testing.T) {
	err := CoverAllError(errors.New("disk on fire"))
	if err.Type != User {
		t.Errorf("expected type %q, got %q", User, err.Type)
	}
	if err.Error() != "disk on fire" {
		t.Errorf("expected the underlying message, got %q", err.Error())
	}
	if !strings.HasPrefix(err.Help, "Error: disk on fire\n") {
		t.Errorf("expected help to quote the error, got %q", err.Help)
	}
}

package errors

import (
	"encoding/json"
	"errors"
)

// Representation of errors surfaced to users of the engine. These are
// divided into a small number of categories, essentially
// distinguished by whose fault the error is; i.e., is this error:
//  - a problem with the snapshot document itself, which no amount of
//    retrying will fix?
//  - a section or file that just isn't there?
//  - something the caller asked for that makes no sense?
type Error struct {
	Type Type
	// a message that can be printed out for the user
	Help string `json:"help"`
	// the underlying error that can be e.g., logged for developers to look at
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Type string

const (
	// The thing you mentioned, whatever it is, just doesn't exist
	Missing Type = "missing"
	// The request was not well-formed, e.g., an unknown category
	User Type = "user"
	// A snapshot section has the wrong shape, e.g., an entity map
	// whose members are not records. Treating it as empty would
	// understate pending changes, so it is always an error.
	Malformed Type = "malformed"
)

func IsMissing(err error) bool {
	return isType(err, Missing)
}

func IsMalformed(err error) bool {
	return isType(err, Malformed)
}

func isType(err error, t Type) bool {
	var e *Error
	if errors.As(err, &e) && e.Type == t {
		return true
	}
	return false
}

func (e *Error) MarshalJSON() ([]byte, error) {
	var errMsg string
	if e.Err != nil {
		errMsg = e.Err.Error()
	}
	jsonable := &struct {
		Type string `json:"type"`
		Help string `json:"help"`
		Err  string `json:"error,omitempty"`
	}{
		Type: string(e.Type),
		Help: e.Help,
		Err:  errMsg,
	}
	return json.Marshal(jsonable)
}

func (e *Error) UnmarshalJSON(data []byte) error {
	jsonable := &struct {
		Type string `json:"type"`
		Help string `json:"help"`
		Err  string `json:"error,omitempty"`
	}{}
	if err := json.Unmarshal(data, &jsonable); err != nil {
		return err
	}
	e.Type = Type(jsonable.Type)
	e.Help = jsonable.Help
	if jsonable.Err != "" {
		e.Err = errors.New(jsonable.Err)
	}
	return nil
}

// MalformedSection reports a snapshot section with the wrong shape.
func MalformedSection(section string, err error) *Error {
	return &Error{
		Type: Malformed,
		Err:  err,
		Help: `The snapshot section "` + section + `" is malformed: ` + err.Error() + `

Every entity section must be an object whose members are themselves
objects, keyed by entity name. Check that the snapshot was exported
completely and was not edited by hand.
`,
	}
}

// MissingSection reports a snapshot section that is not present at
// all.
func MissingSection(section string) *Error {
	return &Error{
		Type: Missing,
		Err:  errors.New(`snapshot has no "` + section + `" section`),
		Help: `The snapshot has no "` + section + `" section.

A complete CDN snapshot always carries this section, even when it is
empty. Check that the snapshot was exported completely.
`,
	}
}

// CoverAllError gives an error with no help of its own something to
// say to the user.
func CoverAllError(err error) *Error {
	return &Error{
		Type: User,
		Err:  err,
		Help: `Error: ` + err.Error() + `

We don't have a specific help message for the error above.

It would help us remedy this if you log an issue saying what you were
doing when you saw this, and quoting the message at the top.
`,
	}
}

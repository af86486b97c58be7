package param

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownTag      = errors.New("unknown type tag")
	ErrParse           = errors.New("value does not parse")
	ErrArity           = errors.New("parameter count out of range")
	ErrMissingParam    = errors.New("required parameter missing")
	ErrUnresolvedType  = errors.New("parameter type unresolved")
	ErrTagRegistered   = errors.New("type tag already registered")
	ErrEmptyEnum       = errors.New("enum has no members")
	ErrDuplicateMember = errors.New("enum member declared twice")
)

// Error describes why one record's parameters were rejected.
type Error struct {
	Command string
	Param   string
	Raw     string
	Err     error
}

func (e *Error) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("command %s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("command %s, param %s (%q): %v", e.Command, e.Param, e.Raw, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

package script

import (
	"errors"
	"fmt"
)

var (
	ErrScriptLoad = errors.New("script cannot be loaded")
	ErrEmptyName  = errors.New("record has no command name")
)

// RecordError ties a parameter failure to the record's position.
type RecordError struct {
	Index   int
	Command string
	Err     error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d (%s): %v", e.Index, e.Command, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

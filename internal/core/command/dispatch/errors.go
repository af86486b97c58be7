package dispatch

import "errors"

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingHandler = errors.New("dispatch entry has no handler")
	ErrMissingSchema  = errors.New("dispatch entry has no schema")
)

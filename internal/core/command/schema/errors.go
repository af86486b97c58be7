package schema

import "errors"

var (
	ErrEmptyName      = errors.New("schema has no command name")
	ErrArityBounds    = errors.New("schema arity bounds invalid")
	ErrDuplicateParam = errors.New("schema declares a parameter twice")
	ErrSourceDecode   = errors.New("schema source cannot be decoded")
)

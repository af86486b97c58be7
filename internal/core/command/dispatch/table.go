package dispatch

import (
	"fmt"
	"sort"

	"github.com/zeusync/playscript/internal/core/command/param"
	"github.com/zeusync/playscript/internal/core/command/schema"
)

// Handler runs one instruction. Returning true means it succeeded and the
// record's generic wait parameter, if declared, should be honored.
type Handler func(params param.Values, s *schema.CommandSchema) bool

// Entry binds a command name to its handler and schema.
type Entry struct {
	Name    string
	Handler Handler
	Schema  *schema.CommandSchema
}

// Validate reports a configuration error. It is checked at execution time.
func (e Entry) Validate() error {
	if e.Handler == nil {
		return fmt.Errorf("%w: %s", ErrMissingHandler, e.Name)
	}
	if e.Schema == nil {
		return fmt.Errorf("%w: %s", ErrMissingSchema, e.Name)
	}
	return nil
}

// SchemaSource looks up schemas by name. *schema.Registry satisfies it.
type SchemaSource interface {
	GetSchema(name string) (*schema.CommandSchema, bool)
}

// Table maps command names to entries. Built once, then read-only.
type Table struct {
	entries map[string]Entry
}

// Build binds every handler to the schema of the same name. Entries whose
// schema is absent are kept and rejected when executed.
func Build(src SchemaSource, handlers map[string]Handler) *Table {
	t := &Table{entries: make(map[string]Entry, len(handlers))}
	for name, h := range handlers {
		s, _ := src.GetSchema(name)
		t.entries[name] = Entry{Name: name, Handler: h, Schema: s}
	}
	return t
}

func (t *Table) Lookup(name string) (Entry, bool) {
	e, ok := t.entries[name]
	return e, ok
}

// Resolve returns a runnable entry or the reason it cannot run.
func (t *Table) Resolve(name string) (Entry, error) {
	e, ok := t.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if err := e.Validate(); err != nil {
		return e, err
	}
	return e, nil
}

func (t *Table) Len() int { return len(t.entries) }

// Names lists bound command names, sorted.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.entries))
	for name := range t.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Incomplete lists names whose entry would fail Validate.
func (t *Table) Incomplete() []string {
	var out []string
	for name, e := range t.entries {
		if e.Validate() != nil {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

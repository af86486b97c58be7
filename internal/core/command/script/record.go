package script

import (
	"github.com/zeusync/playscript/internal/core/command/param"
	"github.com/zeusync/playscript/internal/core/command/schema"
	"github.com/zeusync/playscript/internal/core/observability/log"
)

// Resolver finds schemas and type parsers for records. *schema.Registry
// satisfies it.
type Resolver interface {
	GetSchema(name string) (*schema.CommandSchema, bool)
	Types() *param.TypeTable
}

// Record is one authored instruction. Its typed parameters are computed on
// the first Parse call and cached, including a failure.
type Record struct {
	index int
	name  string
	raw   map[string]string

	parsed bool
	schema *schema.CommandSchema
	params param.Values
	err    error
}

func NewRecord(index int, name string, raw map[string]string) *Record {
	if raw == nil {
		raw = map[string]string{}
	}
	return &Record{index: index, name: name, raw: raw}
}

func (r *Record) Index() int   { return r.index }
func (r *Record) Name() string { return r.name }

// Raw returns the authored key -> string pairs.
func (r *Record) Raw() map[string]string { return r.raw }

// Valid reports whether the record carries a command name.
func (r *Record) Valid() bool { return r.name != "" }

// Parsed reports whether Parse has run.
func (r *Record) Parsed() bool { return r.parsed }

// Unschematized reports a parsed record whose name has no schema.
func (r *Record) Unschematized() bool { return r.parsed && r.Valid() && r.schema == nil }

func (r *Record) Schema() *schema.CommandSchema { return r.schema }

// Params returns the cached typed parameters and the cached parse error.
func (r *Record) Params() (param.Values, error) { return r.params, r.err }

// Parse resolves the schema and parses parameters once. Later calls return
// the cached result without logging again.
func (r *Record) Parse(res Resolver, logger log.Log) (param.Values, error) {
	if r.parsed {
		return r.params, r.err
	}
	r.parsed = true

	if !r.Valid() {
		r.err = ErrEmptyName
		logger.Warn("script record has no command name", log.Index(r.index))
		return nil, r.err
	}

	s, ok := res.GetSchema(r.name)
	if !ok {
		logger.Warn("command schema not found, keeping raw parameters",
			log.Command(r.name),
			log.Index(r.index),
		)
		return nil, nil
	}
	r.schema = s

	values, err := res.Types().TryParseRecordParams(r.raw, s)
	if err != nil {
		r.err = &RecordError{Index: r.index, Command: r.name, Err: err}
		logger.Warn("script record parameters rejected",
			log.Command(r.name),
			log.Index(r.index),
			log.Error(err),
		)
		return nil, r.err
	}
	r.params = values
	return r.params, nil
}

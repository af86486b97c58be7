package schema

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/zeusync/playscript/internal/core/command/param"
	"github.com/zeusync/playscript/internal/core/observability/log"
)

// ParamInfo is one authored parameter declaration.
type ParamInfo struct {
	ParamName string `json:"paramName" yaml:"paramName"`
	TypeName  string `json:"typeName" yaml:"typeName"`
	Hint      string `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// Definition is the authored, unresolved form of a command schema.
type Definition struct {
	CommandName   string      `json:"commandName" yaml:"commandName"`
	CommandHint   string      `json:"commandHint,omitempty" yaml:"commandHint,omitempty"`
	ParamInfos    []ParamInfo `json:"paramInfos" yaml:"paramInfos"`
	MinParamCount int         `json:"minParamCount" yaml:"minParamCount"`
	MaxParamCount int         `json:"maxParamCount" yaml:"maxParamCount"`
}

// ParamSpec is one resolved parameter contract.
type ParamSpec struct {
	Name     string
	Type     param.TypeTag
	Hint     string
	Optional bool
	Resolved bool
}

// CommandSchema is the immutable, resolved shape of one instruction.
type CommandSchema struct {
	name        string
	hint        string
	params      []ParamSpec
	min, max    int
	names       []string
	types       map[string]param.TypeTag
	optional    map[string]bool
	fingerprint uint64
}

var _ param.Spec = (*CommandSchema)(nil)

func (s *CommandSchema) CommandName() string  { return s.name }
func (s *CommandSchema) Hint() string         { return s.hint }
func (s *CommandSchema) MinParamCount() int   { return s.min }
func (s *CommandSchema) MaxParamCount() int   { return s.max }
func (s *CommandSchema) Fingerprint() uint64  { return s.fingerprint }
func (s *CommandSchema) ParamNames() []string { return s.names }

// Params returns the declarations in authored order.
func (s *CommandSchema) Params() []ParamSpec {
	return append([]ParamSpec(nil), s.params...)
}

func (s *CommandSchema) ParamType(name string) (param.TypeTag, bool) {
	t, ok := s.types[name]
	return t, ok
}

func (s *CommandSchema) IsOptional(name string) bool { return s.optional[name] }

// Declares reports whether name is a declared and resolved parameter.
func (s *CommandSchema) Declares(name string) bool {
	_, ok := s.types[name]
	return ok
}

func (s *CommandSchema) ValidateParamCount(n int) bool {
	return n >= s.min && n <= s.max
}

func (d Definition) validate() error {
	if d.CommandName == "" {
		return ErrEmptyName
	}
	if d.MinParamCount < 0 || d.MinParamCount > d.MaxParamCount {
		return fmt.Errorf("%w: min=%d max=%d", ErrArityBounds, d.MinParamCount, d.MaxParamCount)
	}
	seen := make(map[string]struct{}, len(d.ParamInfos))
	for _, p := range d.ParamInfos {
		if p.ParamName == "" {
			continue
		}
		if _, dup := seen[p.ParamName]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateParam, p.ParamName)
		}
		seen[p.ParamName] = struct{}{}
	}
	return nil
}

// BuildParamMap derives the ordered parameter names and the name -> tag map.
// A parameter is optional when its tag ends in "?" or its position is at or
// past MinParamCount. Unresolved tags are logged and left out of the tag map.
func (d Definition) BuildParamMap(types *param.TypeTable, logger log.Log) ([]ParamSpec, []string, map[string]param.TypeTag) {
	specs := make([]ParamSpec, 0, len(d.ParamInfos))
	names := make([]string, 0, len(d.ParamInfos))
	tags := make(map[string]param.TypeTag, len(d.ParamInfos))

	for _, info := range d.ParamInfos {
		if info.ParamName == "" {
			continue
		}
		tag, markedOptional := param.SplitOptional(info.TypeName)
		spec := ParamSpec{
			Name:     info.ParamName,
			Type:     tag,
			Hint:     info.Hint,
			Optional: markedOptional || len(names) >= d.MinParamCount,
		}
		names = append(names, info.ParamName)

		if _, ok := types.Resolve(tag); ok {
			spec.Resolved = true
			tags[info.ParamName] = tag
		} else {
			logger.Error("schema parameter type not found",
				log.Command(d.CommandName),
				log.Param(info.ParamName),
				log.String("type", string(tag)),
			)
		}
		specs = append(specs, spec)
	}
	return specs, names, tags
}

// Compile validates d and resolves it against types.
func Compile(d Definition, types *param.TypeTable, logger log.Log) (*CommandSchema, error) {
	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("schema %q: %w", d.CommandName, err)
	}
	specs, names, tags := d.BuildParamMap(types, logger)
	optional := make(map[string]bool, len(specs))
	for _, s := range specs {
		if s.Optional {
			optional[s.Name] = true
		}
	}
	return &CommandSchema{
		name:        d.CommandName,
		hint:        d.CommandHint,
		params:      specs,
		min:         d.MinParamCount,
		max:         d.MaxParamCount,
		names:       names,
		types:       tags,
		optional:    optional,
		fingerprint: fingerprint(d),
	}, nil
}

func fingerprint(d Definition) uint64 {
	b, err := json.Marshal(d)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(b)
}

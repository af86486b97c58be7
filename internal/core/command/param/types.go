package param

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// TypeTag names a parameter type in schema sources.
type TypeTag string

const (
	TagString  TypeTag = "string"
	TagInt     TypeTag = "int"
	TagFloat   TypeTag = "float"
	TagBool    TypeTag = "bool"
	TagVector2 TypeTag = "Vector2"
)

// OptionalSuffix marks a tag as optional in schema sources, e.g. "string?".
const OptionalSuffix = "?"

// SplitOptional strips a trailing OptionalSuffix.
func SplitOptional(raw string) (TypeTag, bool) {
	raw = strings.TrimSpace(raw)
	if strings.HasSuffix(raw, OptionalSuffix) {
		return TypeTag(strings.TrimSuffix(raw, OptionalSuffix)), true
	}
	return TypeTag(raw), false
}

// Parser converts one raw string into a typed value.
type Parser func(raw string) (Value, error)

// TypeTable is the closed tag -> parser lookup. It is populated once while a
// session is built and only read afterwards.
type TypeTable struct {
	mu      sync.RWMutex
	parsers map[TypeTag]Parser
	enums   map[TypeTag][]string
}

// NewTypeTable returns a table holding the primitive tags.
func NewTypeTable() *TypeTable {
	t := &TypeTable{
		parsers: make(map[TypeTag]Parser),
		enums:   make(map[TypeTag][]string),
	}
	t.parsers[TagString] = parseString
	t.parsers[TagInt] = parseInt
	t.parsers[TagFloat] = parseFloat
	t.parsers[TagBool] = parseBool
	t.parsers[TagVector2] = parseVector2
	return t
}

// Register adds a custom named type.
func (t *TypeTable) Register(tag TypeTag, parser Parser) error {
	if tag == "" || parser == nil {
		return fmt.Errorf("register %q: %w", tag, ErrUnknownTag)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.parsers[tag]; exists {
		return fmt.Errorf("register %q: %w", tag, ErrTagRegistered)
	}
	t.parsers[tag] = parser
	return nil
}

// RegisterAlias makes tag parse exactly like an already known tag.
func (t *TypeTable) RegisterAlias(tag, target TypeTag) error {
	t.mu.RLock()
	p, ok := t.parsers[target]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("alias %q -> %q: %w", tag, target, ErrUnknownTag)
	}
	return t.Register(tag, p)
}

// RegisterEnum adds a named enum. Member order defines ordinals.
func (t *TypeTable) RegisterEnum(tag TypeTag, members ...string) error {
	if len(members) == 0 {
		return fmt.Errorf("enum %q: %w", tag, ErrEmptyEnum)
	}
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		key := strings.ToLower(m)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("enum %q member %q: %w", tag, m, ErrDuplicateMember)
		}
		seen[key] = struct{}{}
	}
	names := append([]string(nil), members...)
	if err := t.Register(tag, enumParser(tag, names)); err != nil {
		return err
	}
	t.mu.Lock()
	t.enums[tag] = names
	t.mu.Unlock()
	return nil
}

// Resolve reports whether tag names a known parser.
func (t *TypeTable) Resolve(tag TypeTag) (Parser, bool) {
	t.mu.RLock()
	p, ok := t.parsers[tag]
	t.mu.RUnlock()
	return p, ok
}

// EnumMembers returns the declared member names of an enum tag.
func (t *TypeTable) EnumMembers(tag TypeTag) ([]string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.enums[tag]
	if !ok {
		return nil, false
	}
	return append([]string(nil), m...), true
}

// Tags lists every known tag, sorted.
func (t *TypeTable) Tags() []TypeTag {
	t.mu.RLock()
	out := make([]TypeTag, 0, len(t.parsers))
	for tag := range t.parsers {
		out = append(out, tag)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TryParse converts raw according to tag.
func (t *TypeTable) TryParse(raw string, tag TypeTag) (Value, error) {
	p, ok := t.Resolve(tag)
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownTag, tag)
	}
	return p(raw)
}

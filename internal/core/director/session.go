package director

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/google/uuid"

	"github.com/zeusync/playscript/internal/core/command/param"
	"github.com/zeusync/playscript/internal/core/command/schema"
	"github.com/zeusync/playscript/internal/core/command/script"
	"github.com/zeusync/playscript/internal/core/observability/log"
)

// Type tags the built-in commands use on top of the primitive ones.
const (
	TagCharacter      param.TypeTag = "character"
	TagEmotion        param.TypeTag = "emotion"
	TagAnimation      param.TypeTag = "animation"
	TagHorizontalSlot param.TypeTag = "EHorizontalSlot"
	TagVerticalSlot   param.TypeTag = "EVerticalSlot"
)

// Slot enum members.
const (
	SlotRight  = "Right"
	SlotLeft   = "Left"
	SlotCenter = "Center"
	SlotGround = "Ground"
)

//go:embed schemas/*.yaml
var builtinSchemas embed.FS

// Session owns the tables one scene is interpreted against. Build it, load
// schemas, then hand it to a Controller; after that it is read-only.
type Session struct {
	id       string
	types    *param.TypeTable
	registry *schema.Registry
	logger   log.Log
}

func NewSession(logger log.Log) (*Session, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	types := param.NewTypeTable()
	for _, alias := range []param.TypeTag{TagCharacter, TagEmotion, TagAnimation} {
		if err := types.RegisterAlias(alias, param.TagString); err != nil {
			return nil, fmt.Errorf("register type %s: %w", alias, err)
		}
	}
	if err := types.RegisterEnum(TagHorizontalSlot, SlotRight, SlotLeft, SlotCenter); err != nil {
		return nil, fmt.Errorf("register type %s: %w", TagHorizontalSlot, err)
	}
	if err := types.RegisterEnum(TagVerticalSlot, SlotCenter, SlotGround); err != nil {
		return nil, fmt.Errorf("register type %s: %w", TagVerticalSlot, err)
	}

	id := uuid.NewString()
	logger = logger.With(log.String("session", id))
	return &Session{
		id:       id,
		types:    types,
		registry: schema.NewRegistry(types, logger),
		logger:   logger,
	}, nil
}

func (s *Session) ID() string                 { return s.id }
func (s *Session) Types() *param.TypeTable    { return s.types }
func (s *Session) Registry() *schema.Registry { return s.registry }
func (s *Session) Logger() log.Log            { return s.logger }

// LoadBuiltins registers the schemas of the built-in command set.
func (s *Session) LoadBuiltins(ctx context.Context) (int, error) {
	return s.registry.LoadAll(ctx, builtinSchemas, "schemas")
}

// LoadSchemas registers every schema file in dir. Later files override
// earlier ones, including built-ins.
func (s *Session) LoadSchemas(ctx context.Context, fsys fs.FS, dir string) (int, error) {
	return s.registry.LoadAll(ctx, fsys, dir)
}

// ParseScript decodes a script against the session's registry.
func (s *Session) ParseScript(data []byte) (*script.Document, error) {
	return script.Parse(data, s.registry, s.logger)
}

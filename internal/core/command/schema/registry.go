package schema

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/playscript/internal/core/command/param"
	"github.com/zeusync/playscript/internal/core/observability/log"
)

// Registry indexes command schemas by name. It is filled once at session
// start and read-only afterwards.
type Registry struct {
	types  *param.TypeTable
	logger log.Log

	mu      sync.RWMutex
	schemas map[string]*CommandSchema
}

func NewRegistry(types *param.TypeTable, logger log.Log) *Registry {
	return &Registry{
		types:   types,
		logger:  logger,
		schemas: make(map[string]*CommandSchema),
	}
}

func (r *Registry) Types() *param.TypeTable { return r.types }

// Register compiles d and stores it. A later schema with the same name
// replaces the earlier one; the replacement is logged as a warning.
func (r *Registry) Register(d Definition) (*CommandSchema, error) {
	s, err := Compile(d, r.types, r.logger)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	prev, exists := r.schemas[s.name]
	r.schemas[s.name] = s
	r.mu.Unlock()

	if exists {
		r.logger.Warn("duplicate command schema, later definition wins",
			log.Command(s.name),
			log.Bool("identical", prev.fingerprint == s.fingerprint),
		)
	}
	return s, nil
}

// GetSchema returns the schema for name. Absence is reported, not logged.
func (r *Registry) GetSchema(name string) (*CommandSchema, bool) {
	r.mu.RLock()
	s, ok := r.schemas[name]
	r.mu.RUnlock()
	return s, ok
}

// Names lists registered command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		out = append(out, name)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}

// LoadAll decodes every *.json, *.yaml and *.yml file in dir and registers
// the schemas it holds. Files are decoded concurrently but registered in
// lexical path order, so the last-writer-wins rule is deterministic.
// Invalid definitions are logged and skipped; undecodable files fail the load.
func (r *Registry) LoadAll(ctx context.Context, fsys fs.FS, dir string) (int, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return 0, fmt.Errorf("read schema dir %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !isSchemaFile(e.Name()) {
			continue
		}
		files = append(files, path.Join(dir, e.Name()))
	}
	sort.Strings(files)

	decoded := make([][]Definition, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := fs.ReadFile(fsys, file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			defs, err := DecodeDefinitions(data, path.Ext(file))
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			decoded[i] = defs
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return 0, err
	}

	loaded := 0
	for i, defs := range decoded {
		for _, d := range defs {
			if _, err := r.Register(d); err != nil {
				r.logger.Error("invalid command schema skipped",
					log.String("file", files[i]),
					log.Error(err),
				)
				continue
			}
			loaded++
		}
	}

	r.logger.Info("command schemas loaded",
		log.String("dir", dir),
		log.Int("files", len(files)),
		log.Int("schemas", r.Len()),
	)
	return loaded, nil
}

func isSchemaFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// DecodeDefinitions accepts a single definition or a list of them, in JSON
// or YAML depending on ext.
func DecodeDefinitions(data []byte, ext string) ([]Definition, error) {
	switch strings.ToLower(ext) {
	case ".json":
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			var defs []Definition
			if err := json.Unmarshal(trimmed, &defs); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSourceDecode, err)
			}
			return defs, nil
		}
		var d Definition
		if err := json.Unmarshal(trimmed, &d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceDecode, err)
		}
		return []Definition{d}, nil
	case ".yaml", ".yml":
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceDecode, err)
		}
		if len(node.Content) == 0 {
			return nil, nil
		}
		root := node.Content[0]
		if root.Kind == yaml.SequenceNode {
			var defs []Definition
			if err := root.Decode(&defs); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSourceDecode, err)
			}
			return defs, nil
		}
		var d Definition
		if err := root.Decode(&d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceDecode, err)
		}
		return []Definition{d}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrSourceDecode, ext)
	}
}

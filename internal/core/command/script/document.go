package script

import (
	"bytes"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/zeusync/playscript/internal/core/observability/log"
)

type wireScript struct {
	Commands *[]wireCommand `json:"commands"`
}

type wireCommand struct {
	Name       string      `json:"name"`
	ParamArray []wireParam `json:"paramArray"`
}

type wireParam struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Document is one loaded script. Records are parsed eagerly at load.
type Document struct {
	records  []*Record
	checksum uint64
}

// Parse decodes a script and pre-parses every record against res. Malformed
// JSON fails the whole load; per-record problems are logged and kept.
func Parse(data []byte, res Resolver, logger log.Log) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty script", ErrScriptLoad)
	}

	var ws wireScript
	if err := json.Unmarshal(data, &ws); err != nil {
		logger.Error("script JSON malformed", log.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrScriptLoad, err)
	}
	if ws.Commands == nil {
		logger.Error("script has no commands list")
		return nil, fmt.Errorf("%w: missing commands list", ErrScriptLoad)
	}

	cmds := *ws.Commands
	doc := &Document{
		records:  make([]*Record, len(cmds)),
		checksum: xxhash.Sum64(data),
	}
	rejected := 0
	for i, c := range cmds {
		rec := NewRecord(i, c.Name, rawParams(c.ParamArray))
		if _, err := rec.Parse(res, logger); err != nil {
			rejected++
		}
		doc.records[i] = rec
	}

	logger.Info("script loaded",
		log.Int("records", len(cmds)),
		log.Int("rejected", rejected),
		log.Uint64("checksum", doc.checksum),
	)
	return doc, nil
}

// Load reads r fully and parses it.
func Load(r io.Reader, res Resolver, logger log.Log) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScriptLoad, err)
	}
	return Parse(data, res, logger)
}

// rawParams flattens paramArray; later duplicate keys win and empty keys are
// dropped. Non-string JSON values keep their JSON text.
func rawParams(ps []wireParam) map[string]string {
	out := make(map[string]string, len(ps))
	for _, p := range ps {
		if p.Key == "" {
			continue
		}
		out[p.Key] = rawValue(p.Value)
	}
	return out
}

func rawValue(v json.RawMessage) string {
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

func (d *Document) Len() int { return len(d.records) }

// Checksum is the xxhash of the source bytes.
func (d *Document) Checksum() uint64 { return d.checksum }

// TryGetAt gives bounds-checked access by absolute index.
func (d *Document) TryGetAt(i int) (*Record, bool) {
	if i < 0 || i >= len(d.records) {
		return nil, false
	}
	return d.records[i], true
}

// Records returns a copy of the record list.
func (d *Document) Records() []*Record {
	return append([]*Record(nil), d.records...)
}

// Cursor is a forward read position into a Document.
type Cursor struct {
	doc   *Document
	index int
}

func NewCursor(doc *Document) *Cursor {
	return &Cursor{doc: doc}
}

func (c *Cursor) Document() *Document { return c.doc }

// Index is the position of the next record ReadNext returns.
func (c *Cursor) Index() int { return c.index }

func (c *Cursor) IsExhausted() bool {
	return c.doc == nil || c.index >= len(c.doc.records)
}

// ReadNext returns the record at the cursor and advances by one.
func (c *Cursor) ReadNext() (*Record, bool) {
	if c.IsExhausted() {
		return nil, false
	}
	rec := c.doc.records[c.index]
	c.index++
	return rec, true
}

// Peek looks offset records ahead of the cursor without moving it.
func (c *Cursor) Peek(offset int) (*Record, bool) {
	if c.doc == nil {
		return nil, false
	}
	return c.doc.TryGetAt(c.index + offset)
}

// TryGetAt gives absolute access without moving the cursor.
func (c *Cursor) TryGetAt(i int) (*Record, bool) {
	if c.doc == nil {
		return nil, false
	}
	return c.doc.TryGetAt(i)
}

func (c *Cursor) Reset() { c.index = 0 }

package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/playscript/internal/core/command/param"
	"github.com/zeusync/playscript/internal/core/command/schema"
	"github.com/zeusync/playscript/internal/core/observability/log"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r := schema.NewRegistry(param.NewTypeTable(), log.NewNop())
	for _, d := range []schema.Definition{
		{
			CommandName: "talk",
			ParamInfos: []schema.ParamInfo{
				{ParamName: "characterName", TypeName: "string"},
				{ParamName: "fileName", TypeName: "string"},
				{ParamName: "subtitle", TypeName: "string"},
			},
			MinParamCount: 2, MaxParamCount: 3,
		},
		{
			CommandName:   "move",
			ParamInfos:    []schema.ParamInfo{{ParamName: "targetName", TypeName: "string"}, {ParamName: "position", TypeName: "Vector2"}},
			MinParamCount: 2, MaxParamCount: 2,
		},
		{
			CommandName:   "fadeIn",
			ParamInfos:    []schema.ParamInfo{{ParamName: "time", TypeName: "float"}},
			MinParamCount: 1, MaxParamCount: 1,
		},
	} {
		_, err := r.Register(d)
		require.NoError(t, err)
	}
	return r
}

func observed() (log.Log, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return log.FromZap(zap.New(core)), logs
}

const sampleScript = `{
  "commands": [
    {"name": "talk", "paramArray": [{"key": "characterName", "value": "Alice"}, {"key": "fileName", "value": "a01"}]},
    {"name": "move", "paramArray": [{"key": "targetName", "value": "Alice"}, {"key": "position", "value": {"x": 1, "y": 2}}]},
    {"name": "fadeIn", "paramArray": []},
    {"name": "dance", "paramArray": [{"key": "style", "value": "waltz"}]},
    {"name": "", "paramArray": []}
  ]
}`

func TestParseEagerlyParsesRecords(t *testing.T) {
	logger, logs := observed()
	doc, err := Parse([]byte(sampleScript), testRegistry(t), logger)
	require.NoError(t, err)
	require.Equal(t, 5, doc.Len())
	assert.NotZero(t, doc.Checksum())

	talk, _ := doc.TryGetAt(0)
	assert.True(t, talk.Parsed())
	params, err := talk.Params()
	require.NoError(t, err)
	name, _ := params.String("characterName")
	assert.Equal(t, "Alice", name)

	move, _ := doc.TryGetAt(1)
	mp, err := move.Params()
	require.NoError(t, err)
	pos, ok := mp.Vector2("position")
	require.True(t, ok)
	assert.Equal(t, param.Vector2{X: 1, Y: 2}, pos)

	fade, _ := doc.TryGetAt(2)
	_, err = fade.Params()
	assert.ErrorIs(t, err, param.ErrArity)
	var re *RecordError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 2, re.Index)

	dance, _ := doc.TryGetAt(3)
	assert.True(t, dance.Unschematized())
	assert.Equal(t, "waltz", dance.Raw()["style"])

	blank, _ := doc.TryGetAt(4)
	assert.False(t, blank.Valid())
	_, err = blank.Params()
	assert.ErrorIs(t, err, ErrEmptyName)

	assert.Equal(t, 1, logs.FilterMessage("script record parameters rejected").Len())
	assert.Equal(t, 1, logs.FilterMessage("command schema not found, keeping raw parameters").Len())
}

func TestParseIsIdempotent(t *testing.T) {
	logger, logs := observed()
	reg := testRegistry(t)
	doc, err := Parse([]byte(`{"commands":[{"name":"fadeIn","paramArray":[]},{"name":"fadeIn","paramArray":[{"key":"time","value":"0.5"}]}]}`), reg, logger)
	require.NoError(t, err)

	bad, _ := doc.TryGetAt(0)
	_, err1 := bad.Parse(reg, logger)
	_, err2 := bad.Parse(reg, logger)
	assert.Same(t, err1, err2)
	assert.Equal(t, 1, logs.FilterMessage("script record parameters rejected").Len())

	good, _ := doc.TryGetAt(1)
	first, err := good.Parse(reg, logger)
	require.NoError(t, err)
	second, err := good.Parse(reg, logger)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	f, _ := second.Float("time")
	assert.Equal(t, 0.5, f)
}

func TestParseFailures(t *testing.T) {
	reg := testRegistry(t)
	for _, src := range []string{"", "   ", `{"commands": [`, `[1,2]`, `{}`, `{"commands": null}`} {
		doc, err := Parse([]byte(src), reg, log.NewNop())
		assert.ErrorIs(t, err, ErrScriptLoad, src)
		assert.Nil(t, doc)
	}

	doc, err := Load(strings.NewReader(`{"commands": []}`), reg, log.NewNop())
	require.NoError(t, err)
	assert.Zero(t, doc.Len())
	assert.True(t, NewCursor(doc).IsExhausted())
}

func TestRawValueForms(t *testing.T) {
	raw := rawParams([]wireParam{
		{Key: "s", Value: []byte(`"text"`)},
		{Key: "n", Value: []byte(`1.5`)},
		{Key: "o", Value: []byte(`{ "x": 1, "y": 2 }`)},
		{Key: "z", Value: []byte(`null`)},
		{Key: "", Value: []byte(`"dropped"`)},
		{Key: "s", Value: []byte(`"later"`)},
	})
	assert.Equal(t, map[string]string{"s": "later", "n": "1.5", "o": `{"x":1,"y":2}`, "z": ""}, raw)
}

func TestCursor(t *testing.T) {
	doc, err := Parse([]byte(sampleScript), testRegistry(t), log.NewNop())
	require.NoError(t, err)
	c := NewCursor(doc)

	next, ok := c.Peek(0)
	require.True(t, ok)
	assert.Equal(t, "talk", next.Name())
	assert.Equal(t, 0, c.Index())

	for i := 0; i < doc.Len(); i++ {
		rec, ok := c.ReadNext()
		require.True(t, ok)
		assert.Equal(t, i, rec.Index())
	}
	assert.True(t, c.IsExhausted())
	_, ok = c.ReadNext()
	assert.False(t, ok)
	_, ok = c.Peek(0)
	assert.False(t, ok)

	rec, ok := c.TryGetAt(3)
	require.True(t, ok)
	assert.Equal(t, "dance", rec.Name())
	_, ok = c.TryGetAt(-1)
	assert.False(t, ok)

	c.Reset()
	assert.Equal(t, 0, c.Index())
	assert.False(t, c.IsExhausted())
}

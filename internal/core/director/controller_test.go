package director

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/playscript/internal/config"
	"github.com/zeusync/playscript/internal/core/command/param"
	"github.com/zeusync/playscript/internal/core/events/bus"
	"github.com/zeusync/playscript/internal/core/observability/log"
	"github.com/zeusync/playscript/internal/core/playback"
	"github.com/zeusync/playscript/internal/core/stage"
)

type harness struct {
	c      *Controller
	scene  config.Scene
	cast   *stage.Troupe
	screen *stage.Screen
	mixer  *stage.Mixer
	fader  *stage.Fader
	logs   *observer.ObservedLogs
	events map[string][]bus.Event
}

func testScene() config.Scene {
	s := config.DefaultScene()
	s.Characters = []config.Character{
		{Name: "Alice", DefaultEmotion: "normal", Emotions: []string{"normal", "smile"}},
		{Name: "Bob"},
		{Name: "Carol"},
	}
	s.Layout = config.Layout{
		SideRight: 4, SideLeft: -4,
		SideSlideX: 1.5, SideSlideY: 0.5,
		Ground: -2,
		GiantY: 1, GiantRight: 3, GiantLeft: -3, GiantSize: 2,
	}
	s.TalkInterval = 0.5
	s.BGM.Volume = 0.7
	return s
}

func testManifest() *stage.Manifest {
	return &stage.Manifest{
		Voices: map[string]float64{"a01": 2, "a02": 1.5},
		BGM:    map[string]float64{"theme": 90, "battle": 60},
	}
}

func newHarness(t *testing.T, scene config.Scene, cfg config.PlaybackConfig) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	sess, err := NewSession(log.FromZap(zap.New(core)))
	require.NoError(t, err)
	n, err := sess.LoadBuiltins(context.Background())
	require.NoError(t, err)
	require.Equal(t, 32, n)

	st := NewStage(scene, testManifest())
	events := bus.New()
	h := &harness{
		scene:  scene,
		cast:   st.Cast.(*stage.Troupe),
		screen: st.Board.(*stage.Screen),
		mixer:  st.Audio.(*stage.Mixer),
		fader:  st.Transition.(*stage.Fader),
		logs:   logs,
		events: map[string][]bus.Event{},
	}
	_, err = events.SubscribeAll(func(e bus.Event) error {
		h.events[e.Type()] = append(h.events[e.Type()], e)
		return nil
	})
	require.NoError(t, err)
	h.c = NewController(sess, st, events, cfg)
	return h
}

func (h *harness) start(t *testing.T, src string) {
	t.Helper()
	doc, err := h.c.Session().ParseScript([]byte(src))
	require.NoError(t, err)
	h.c.Start(h.scene, doc)
}

func (h *harness) actor(t *testing.T, name string) stage.Actor {
	t.Helper()
	a, ok := h.cast.Actor(name)
	require.True(t, ok, name)
	return a
}

func TestBuiltinsBindEveryHandler(t *testing.T) {
	h := newHarness(t, testScene(), config.Default().Playback)
	assert.Equal(t, 32, h.c.Table().Len())
	assert.Empty(t, h.c.Table().Incomplete())
	assert.Equal(t, 32, h.c.Session().Registry().Len())
	assert.Zero(t, h.logs.FilterMessage("commands without schema will be skipped").Len())
}

func TestTickBeforeStart(t *testing.T) {
	h := newHarness(t, testScene(), config.Default().Playback)
	assert.ErrorIs(t, h.c.Tick(0.1), ErrNotStarted)
	assert.False(t, h.c.Done())
}

func TestTalkWaitsForVoicePlusInterval(t *testing.T) {
	h := newHarness(t, testScene(), config.Default().Playback)
	h.start(t, `{"commands":[
		{"name":"entry","paramArray":[{"key":"targetName","value":"Alice"},{"key":"horizontalSlot","value":"Left"},{"key":"slide","value":"0"}]},
		{"name":"talk","paramArray":[{"key":"characterName","value":"Alice"},{"key":"fileName","value":"a01"},{"key":"wait","value":"10"}]},
		{"name":"writeBB","paramArray":[{"key":"text","value":"after"}]}
	]}`)

	require.NoError(t, h.c.Tick(0.016))
	sched := h.c.Scheduler()
	assert.Equal(t, playback.StateCountingDown, sched.State())
	assert.InDelta(t, 2.5, sched.Countdown(), 1e-9)
	assert.InDelta(t, 2.5, h.c.TalkTimer(), 1e-9)

	alice := h.actor(t, "Alice")
	assert.True(t, alice.Active)
	assert.True(t, alice.Talking)
	assert.Equal(t, []string{"Entry"}, alice.Triggers)
	voice, ok := h.mixer.Voice()
	require.True(t, ok)
	assert.Equal(t, "a01", voice.Clip)
	assert.Equal(t, []string{"Alice"}, h.screen.ShownSpeakers())
	text, _ := h.screen.Blackboard()
	assert.Empty(t, text)

	require.NoError(t, h.c.Tick(2.5))
	assert.Equal(t, playback.StateEnding, sched.State())
	assert.True(t, h.fader.IsFadingOut())
	// Exhaustion clears transient text.
	text, _ = h.screen.Blackboard()
	assert.Empty(t, text)
	assert.Empty(t, h.screen.ShownSpeakers())
	assert.Len(t, h.events[EventRecord], 3)

	require.NoError(t, h.c.Tick(0.5))
	assert.True(t, h.c.Done())
	assert.Len(t, h.events[EventEnded], 1)
	assert.Empty(t, h.events[EventFatal])
}

func TestStartSetsUpScene(t *testing.T) {
	scene := testScene()
	scene.Background = config.Background{Name: "classroom", Size: param.Vector2{X: 2, Y: 2}}
	scene.BGM = config.BGM{Name: "theme", LoopLength: 1000, LoopEnd: 5000, Volume: 0.3, Credit: "Theme by someone"}
	h := newHarness(t, scene, config.Default().Playback)
	h.start(t, `{"commands":[{"name":"wait","paramArray":[{"key":"wait","value":"100"}]}]}`)

	assert.Equal(t, "classroom", h.screen.Background().Name)
	track, ok := h.mixer.BGM()
	require.True(t, ok)
	assert.True(t, track.Loops())
	assert.Equal(t, 0.3, h.mixer.Volume())
	assert.Equal(t, "Theme by someone", h.screen.Credit())
	assert.True(t, h.fader.Busy())
	assert.False(t, h.fader.IsFadingOut())

	require.Len(t, h.events[EventSceneStarted], 1)
	started := h.events[EventSceneStarted][0].Data().(SceneStarted)
	assert.Equal(t, 1, started.Records)
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, started.Characters)
	assert.Equal(t, h.c.Session().ID(), started.Session)

	require.NoError(t, h.c.Tick(0.9))
	assert.Zero(t, h.fader.Level())
	require.NoError(t, h.c.Tick(4.2))
	assert.Empty(t, h.screen.Credit())
}

func TestFailuresDoNotHaltScript(t *testing.T) {
	h := newHarness(t, testScene(), config.Default().Playback)
	h.start(t, `{"commands":[
		{"name":"dance"},
		{"name":"move","paramArray":[{"key":"targetName","value":"Ghost"},{"key":"position","value":"1,2"}]},
		{"name":"talk","paramArray":[{"key":"characterName","value":"Alice"},{"key":"fileName","value":"missing"}]},
		{"name":"fadeIn","paramArray":[]},
		{"name":"hide","paramArray":[{"key":"targetName","value":"Bob"}]}
	]}`)
	levelBefore := h.fader.Level()

	require.NoError(t, h.c.Tick(0))
	assert.False(t, h.actor(t, "Bob").Visible)
	assert.Equal(t, playback.StateEnding, h.c.Scheduler().State())

	assert.Equal(t, 1, h.logs.FilterMessage("unknown command").Len())
	assert.Equal(t, 1, h.logs.FilterMessage("command failed on stage").Len())
	assert.Equal(t, 1, h.logs.FilterMessage("voice line not played").Len())
	assert.Equal(t, 1, h.logs.FilterMessage("script record parameters rejected").Len())
	assert.Equal(t, levelBefore, h.fader.Level())

	var outcomes []string
	for _, e := range h.events[EventRecord] {
		outcomes = append(outcomes, e.Data().(RecordDrained).Outcome)
	}
	assert.Equal(t, []string{"unknown", "failed", "failed", "rejected", "executed"}, outcomes)
}

func TestLayoutCommands(t *testing.T) {
	h := newHarness(t, testScene(), config.Default().Playback)
	h.start(t, `{"commands":[
		{"name":"entry","paramArray":[{"key":"targetName","value":"Alice"},{"key":"horizontalSlot","value":"right"},{"key":"slide","value":"1"}]},
		{"name":"particularPosition","paramArray":[
			{"key":"targetName","value":"Bob"},
			{"key":"horizontalSlot","value":"Center"},{"key":"horizontalSlide","value":"0"},
			{"key":"verticalSlot","value":"Center"},{"key":"verticalSlide","value":"2"}]},
		{"name":"giant","paramArray":[{"key":"targetName","value":"Carol"},{"key":"horizontalSlot","value":"Right"}]},
		{"name":"rotation","paramArray":[{"key":"targetName","value":"Carol"},{"key":"direction","value":"45"}]},
		{"name":"flip","paramArray":[{"key":"targetName","value":"Carol"}]},
		{"name":"wait","paramArray":[{"key":"wait","value":"1"}]},
		{"name":"returnSizeAtPartiularPosition","paramArray":[
			{"key":"targetName","value":"Carol"},
			{"key":"horizontalSlot","value":"Left"},{"key":"horizontalSlide","value":"1"},
			{"key":"verticalSlot","value":"Ground"},{"key":"verticalSlide","value":"0"}]}
	]}`)

	require.NoError(t, h.c.Tick(0))
	assert.Equal(t, param.Vector2{X: 5.5, Y: -2}, h.actor(t, "Alice").Position)
	assert.Equal(t, param.Vector2{X: 0, Y: 1}, h.actor(t, "Bob").Position)
	carol := h.actor(t, "Carol")
	assert.Equal(t, param.Vector2{X: 3, Y: 1}, carol.Position)
	assert.Equal(t, 2.0, carol.Scale)
	assert.Equal(t, 45.0, carol.Rotation)
	assert.True(t, carol.Flipped)

	require.NoError(t, h.c.Tick(1))
	carol = h.actor(t, "Carol")
	assert.Equal(t, param.Vector2{X: -2.5, Y: -2}, carol.Position)
	assert.Equal(t, 1.0, carol.Scale)
}

func TestFirstPriorityReorders(t *testing.T) {
	h := newHarness(t, testScene(), config.Default().Playback)
	h.start(t, `{"commands":[
		{"name":"firstPriority","paramArray":[{"key":"targetName","value":"Alice"}]},
		{"name":"wait","paramArray":[{"key":"wait","value":"1"}]},
		{"name":"firstPriority","paramArray":[{"key":"targetName","value":"Carol"}]},
		{"name":"wait","paramArray":[{"key":"wait","value":"1"}]}
	]}`)

	orders := func() []int {
		return []int{h.actor(t, "Alice").SortOrder, h.actor(t, "Bob").SortOrder, h.actor(t, "Carol").SortOrder}
	}
	assert.Equal(t, []int{0, 1, 2}, orders())
	require.NoError(t, h.c.Tick(0))
	assert.Equal(t, []int{2, 0, 1}, orders())
	require.NoError(t, h.c.Tick(1))
	assert.Equal(t, []int{1, 0, 2}, orders())
}

func TestMoveIsLinearOverTime(t *testing.T) {
	h := newHarness(t, testScene(), config.Default().Playback)
	h.start(t, `{"commands":[
		{"name":"move","paramArray":[{"key":"targetName","value":"Alice"},{"key":"position","value":{"x":3,"y":4}},{"key":"wait","value":"5"}]}
	]}`)

	require.NoError(t, h.c.Tick(0))
	assert.True(t, h.actor(t, "Alice").Moving)
	require.NoError(t, h.c.Tick(0.5))
	pos := h.actor(t, "Alice").Position
	assert.InDelta(t, 1.5, pos.X, 1e-9)
	assert.InDelta(t, 2, pos.Y, 1e-9)
	require.NoError(t, h.c.Tick(0.6))
	assert.Equal(t, param.Vector2{X: 3, Y: 4}, h.actor(t, "Alice").Position)
	assert.False(t, h.actor(t, "Alice").Moving)
}

func TestStopTalkMutesEarlierLines(t *testing.T) {
	h := newHarness(t, testScene(), config.Default().Playback)
	h.start(t, `{"commands":[
		{"name":"stopTalk","paramArray":[{"key":"index","value":"2"}]},
		{"name":"talk","paramArray":[{"key":"characterName","value":"Alice"},{"key":"fileName","value":"a01"}]},
		{"name":"talk","paramArray":[{"key":"characterName","value":"Bob"},{"key":"fileName","value":"a02"},{"key":"subtitle","value":"hi"}]}
	]}`)

	require.NoError(t, h.c.Tick(0))
	voice, ok := h.mixer.Voice()
	require.True(t, ok)
	assert.Equal(t, "a02", voice.Clip)
	assert.InDelta(t, 2.0, h.c.Scheduler().Countdown(), 1e-9)
	line, shown := h.screen.Line("Bob")
	assert.Equal(t, "hi", line)
	assert.True(t, shown)
	assert.False(t, h.actor(t, "Alice").Talking)
}

func TestStopTalkPlaysLineAtGivenIndex(t *testing.T) {
	h := newHarness(t, testScene(), config.Default().Playback)
	h.start(t, `{"commands":[
		{"name":"stopTalk","paramArray":[{"key":"index","value":"1"}]},
		{"name":"talk","paramArray":[{"key":"characterName","value":"Alice"},{"key":"fileName","value":"a01"}]}
	]}`)

	require.NoError(t, h.c.Tick(0))
	voice, ok := h.mixer.Voice()
	require.True(t, ok)
	assert.Equal(t, "a01", voice.Clip)
	assert.InDelta(t, 2.5, h.c.Scheduler().Countdown(), 1e-9)
	assert.Equal(t, playback.StateCountingDown, h.c.Scheduler().State())
	assert.True(t, h.actor(t, "Alice").Talking)
}

// stubbornCast rejects activation and lip sync for every actor.
type stubbornCast struct {
	stage.Cast
	err error
}

func (c stubbornCast) SetActive(string, bool) error       { return c.err }
func (c stubbornCast) StartTalking(string, float64) error { return c.err }

func (h *harness) withCast(t *testing.T, cast stage.Cast) {
	t.Helper()
	st := Stage{Cast: cast, Board: h.screen, Audio: h.mixer, Transition: h.fader}
	h.c = NewController(h.c.Session(), st, bus.New(), config.Default().Playback)
}

func TestCastFailuresAreReported(t *testing.T) {
	h := newHarness(t, testScene(), config.Default().Playback)
	h.withCast(t, stubbornCast{Cast: h.cast, err: errors.New("rig offline")})
	h.start(t, `{"commands":[
		{"name":"entry","paramArray":[{"key":"targetName","value":"Alice"},{"key":"horizontalSlot","value":"Left"},{"key":"slide","value":"0"}]},
		{"name":"talk","paramArray":[{"key":"characterName","value":"Alice"},{"key":"fileName","value":"a01"},{"key":"subtitle","value":"hello"}]}
	]}`)

	require.NoError(t, h.c.Tick(0))
	assert.Equal(t, 2, h.logs.FilterMessage("command failed on stage").Len())
	assert.False(t, h.actor(t, "Alice").Active)

	voice, ok := h.mixer.Voice()
	require.True(t, ok)
	assert.Equal(t, "a01", voice.Clip)
	assert.InDelta(t, 2.5, h.c.Scheduler().Countdown(), 1e-9)
	line, shown := h.screen.Line("Alice")
	assert.Equal(t, "hello", line)
	assert.True(t, shown)
}

func TestTalkIntervalFallsBackToPlaybackDefault(t *testing.T) {
	scene := testScene()
	scene.TalkInterval = 0
	cfg := config.Default().Playback
	cfg.TalkInterval = 0.75
	h := newHarness(t, scene, cfg)
	h.start(t, `{"commands":[
		{"name":"talk","paramArray":[{"key":"characterName","value":"Alice"},{"key":"fileName","value":"a02"}]}
	]}`)

	require.NoError(t, h.c.Tick(0))
	assert.InDelta(t, 2.25, h.c.Scheduler().Countdown(), 1e-9)
	assert.InDelta(t, 2.25, h.c.TalkTimer(), 1e-9)
}

func TestWaitTalkEndAndInterval(t *testing.T) {
	h := newHarness(t, testScene(), config.Default().Playback)
	h.start(t, `{"commands":[
		{"name":"changeInterval","paramArray":[{"key":"interval","value":"1"}]},
		{"name":"waitTalkEnd"},
		{"name":"talk","paramArray":[{"key":"characterName","value":"Alice"},{"key":"fileName","value":"a02"},{"key":"emotion","value":"smile"}]}
	]}`)
	h.c.talkTimer = 1.2

	require.NoError(t, h.c.Tick(0))
	assert.InDelta(t, 1.2, h.c.Scheduler().Countdown(), 1e-9)
	_, ok := h.mixer.Voice()
	assert.False(t, ok)

	require.NoError(t, h.c.Tick(1.2))
	assert.InDelta(t, 2.5, h.c.Scheduler().Countdown(), 1e-9)
	assert.Equal(t, "smile", h.actor(t, "Alice").Emotion)
}

func TestEndingCommand(t *testing.T) {
	h := newHarness(t, testScene(), config.Default().Playback)
	h.start(t, `{"commands":[
		{"name":"writeBB","paramArray":[{"key":"text","value":"x"}]},
		{"name":"ending"},
		{"name":"writeBB","paramArray":[{"key":"text","value":"late"}]}
	]}`)

	require.NoError(t, h.c.Tick(0))
	assert.Equal(t, playback.StateEnding, h.c.Scheduler().State())
	assert.True(t, h.fader.IsFadingOut())
	text, _ := h.screen.Blackboard()
	assert.Empty(t, text)

	require.NoError(t, h.c.Tick(0.5))
	assert.True(t, h.c.Done())
	text, _ = h.screen.Blackboard()
	assert.Empty(t, text)
	assert.Len(t, h.events[EventEnded], 1)
}

func TestDrainLimitIsReportedAsFatal(t *testing.T) {
	cfg := config.Default().Playback
	cfg.MaxDrain = 2
	h := newHarness(t, testScene(), cfg)
	h.start(t, `{"commands":[
		{"name":"wait","paramArray":[{"key":"wait","value":"0"}]},
		{"name":"wait","paramArray":[{"key":"wait","value":"0"}]},
		{"name":"wait","paramArray":[{"key":"wait","value":"0"}]}
	]}`)

	err := h.c.Tick(0)
	assert.ErrorIs(t, err, playback.ErrFatal)
	assert.True(t, h.c.Done())
	require.Len(t, h.events[EventFatal], 1)
	require.Len(t, h.events[EventEnded], 1)
	assert.NotEmpty(t, h.events[EventEnded][0].Data().(PlaybackEnded).Error)
}

func TestAudioAndBoardCommands(t *testing.T) {
	h := newHarness(t, testScene(), config.Default().Playback)
	h.start(t, `{"commands":[
		{"name":"changeBGM","paramArray":[
			{"key":"bgmName","value":"battle"},{"key":"loopStart","value":"100"},
			{"key":"loopEnd","value":"500"},{"key":"credit","value":"Battle theme"}]},
		{"name":"changeBBActive"},
		{"name":"writeBB","paramArray":[{"key":"text","value":"E = mc^2"}]},
		{"name":"changeBG","paramArray":[{"key":"fileName","value":"gym"},{"key":"size","value":"2 2"},{"key":"position","value":"0,1"}]},
		{"name":"changeInterval","paramArray":[{"key":"interval","value":"-1.5"}]},
		{"name":"talk","paramArray":[{"key":"characterName","value":"Alice"},{"key":"fileName","value":"a01"},{"key":"subtitle","value":"hello"}]},
		{"name":"mute"},
		{"name":"hideSubtitle"},
		{"name":"endBGM","paramArray":[{"key":"wait","value":"3"}]}
	]}`)

	require.NoError(t, h.c.Tick(0))
	track, ok := h.mixer.BGM()
	require.True(t, ok)
	assert.Equal(t, stage.Track{Name: "battle", LoopLength: 400, LoopEnd: 500}, track)
	assert.Equal(t, 0.7, h.mixer.Volume())
	assert.Equal(t, "Battle theme", h.screen.Credit())
	text, up := h.screen.Blackboard()
	assert.Equal(t, "E = mc^2", text)
	assert.True(t, up)
	assert.Equal(t, stage.Background{Name: "gym", Size: param.Vector2{X: 2, Y: 2}, Position: param.Vector2{X: 0, Y: 1}}, h.screen.Background())
	assert.True(t, h.screen.SubtitleVisible())
	assert.InDelta(t, 0.5, h.c.Scheduler().Countdown(), 1e-9)

	// The line is still playing when mute runs.
	require.NoError(t, h.c.Tick(0.5))
	_, ok = h.mixer.Voice()
	assert.False(t, ok)
	assert.False(t, h.screen.SubtitleVisible())
	_, ok = h.mixer.BGM()
	assert.False(t, ok)
	assert.InDelta(t, 3, h.c.Scheduler().Countdown(), 1e-9)
}

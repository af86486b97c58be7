package director

import (
	"errors"

	"github.com/zeusync/playscript/internal/config"
	"github.com/zeusync/playscript/internal/core/command/dispatch"
	"github.com/zeusync/playscript/internal/core/command/script"
	"github.com/zeusync/playscript/internal/core/events/bus"
	"github.com/zeusync/playscript/internal/core/observability/log"
	"github.com/zeusync/playscript/internal/core/playback"
	"github.com/zeusync/playscript/internal/core/stage"
)

var ErrNotStarted = errors.New("scene not started")

// Stage bundles the collaborators handlers act on.
type Stage struct {
	Cast       stage.Cast
	Board      stage.Board
	Audio      stage.Audio
	Transition stage.Transition
}

func (s Stage) animators() []stage.Animator {
	return []stage.Animator{s.Cast, s.Board, s.Audio, s.Transition}
}

// NewStage builds the in-memory stage for scene. A nil manifest knows no
// clips and accepts any background.
func NewStage(scene config.Scene, manifest *stage.Manifest) Stage {
	specs := make([]stage.ActorSpec, 0, len(scene.Characters))
	for _, c := range scene.Characters {
		specs = append(specs, stage.ActorSpec{
			Name:           c.Name,
			DefaultEmotion: c.DefaultEmotion,
			Emotions:       c.Emotions,
		})
	}
	return Stage{
		Cast:       stage.NewTroupe(specs),
		Board:      stage.NewScreen(manifest.HasImage),
		Audio:      stage.NewMixer(manifest),
		Transition: stage.NewFader(),
	}
}

// Controller runs one scene: it owns the scheduler, binds the built-in
// handlers to the session's schemas and reports progress on the bus. Tick
// must be called from a single goroutine.
type Controller struct {
	session *Session
	stage   Stage
	events  bus.EventBus
	cfg     config.PlaybackConfig
	logger  log.Log

	table *dispatch.Table
	sched *playback.Scheduler

	layout    config.Layout
	interval  float64
	bgmVolume float64
	talkTimer float64
	stopMute  int
	started   bool
}

var _ playback.Presenter = (*Controller)(nil)

// NewController binds handlers against the schemas already in the session.
// Schemas registered afterwards are not seen.
func NewController(session *Session, st Stage, events bus.EventBus, cfg config.PlaybackConfig) *Controller {
	c := &Controller{
		session:  session,
		stage:    st,
		events:   events,
		cfg:      cfg,
		logger:   session.Logger(),
		stopMute: -1,
	}
	c.table = dispatch.Build(session.Registry(), c.handlers())
	if missing := c.table.Incomplete(); len(missing) > 0 {
		c.logger.Warn("commands without schema will be skipped", log.Strings("commands", missing))
	}
	c.sched = playback.NewScheduler(c.table,
		playback.WithExitFade(cfg.ExitFade),
		playback.WithMaxDrain(cfg.MaxDrain),
		playback.WithLogger(c.logger),
		playback.WithPresenter(c),
		playback.WithObserver(c.observe),
	)
	return c
}

func (c *Controller) Session() *Session              { return c.session }
func (c *Controller) Scheduler() *playback.Scheduler { return c.sched }
func (c *Controller) Table() *dispatch.Table         { return c.table }

// TalkTimer is what remains of the last voice line plus its interval.
func (c *Controller) TalkTimer() float64 { return c.talkTimer }

// Done reports that the scene has ended.
func (c *Controller) Done() bool { return c.started && c.sched.State() == playback.StateEnded }

// Start sets the scene up from its initialization data and begins playback
// of doc with a fade-in.
func (c *Controller) Start(scene config.Scene, doc *script.Document) {
	c.layout = scene.Layout
	c.interval = scene.TalkInterval
	if c.interval == 0 {
		c.interval = c.cfg.TalkInterval
	}
	c.bgmVolume = scene.BGM.Volume
	c.talkTimer = 0
	c.stopMute = -1

	if scene.Background.Name != "" {
		bg := stage.Background{Name: scene.Background.Name, Size: scene.Background.Size, Position: scene.Background.Position}
		if err := c.stage.Board.SetBackground(bg); err != nil {
			c.logger.Error("scene background not loaded", log.Error(err))
		}
	}
	if scene.BGM.Name != "" {
		c.setupBGM(stage.Track{Name: scene.BGM.Name, LoopLength: scene.BGM.LoopLength, LoopEnd: scene.BGM.LoopEnd})
	}
	if scene.BGM.Credit != "" {
		c.stage.Board.ShowCredit(scene.BGM.Credit, c.cfg.CreditTime)
	}

	c.sched.Load(doc)
	c.started = true
	c.stage.Transition.FadeIn(c.cfg.StartFade)

	c.logger.Info("scene started",
		log.Int("records", doc.Len()),
		log.Int("characters", len(scene.Characters)),
	)
	c.publish(EventSceneStarted, SceneStarted{
		Session:    c.session.ID(),
		Records:    doc.Len(),
		Checksum:   doc.Checksum(),
		Characters: c.stage.Cast.Names(),
	})
}

// Tick advances the stage animations and then the script. A returned error
// is fatal and playback has already ended.
func (c *Controller) Tick(dt float64) error {
	if !c.started {
		return ErrNotStarted
	}
	for _, a := range c.stage.animators() {
		a.Advance(dt)
	}
	if c.talkTimer > 0 {
		c.talkTimer -= dt
		if c.talkTimer < 0 {
			c.talkTimer = 0
		}
	}
	return c.sched.Tick(dt)
}

// ClearTransient hides subtitles and wipes the blackboard.
func (c *Controller) ClearTransient() {
	c.stage.Board.ClearText()
}

// StartExit fades out unless a fade-out is already running.
func (c *Controller) StartExit(seconds float64) {
	if !c.stage.Transition.IsFadingOut() {
		c.stage.Transition.FadeOut(seconds)
	}
}

func (c *Controller) observe(e playback.Event) {
	errText := ""
	if e.Err != nil {
		errText = e.Err.Error()
	}
	if !e.IsStateChange() {
		c.publish(EventRecord, RecordDrained{
			Session:   c.session.ID(),
			Index:     e.Record.Index(),
			Command:   e.Record.Name(),
			Outcome:   e.Outcome.String(),
			Countdown: e.Countdown,
			Error:     errText,
		})
		return
	}

	c.publish(EventState, StateChanged{
		Session: c.session.ID(),
		From:    e.From.String(),
		To:      e.To.String(),
		Error:   errText,
	})
	if e.To != playback.StateEnded {
		return
	}
	if e.Err != nil {
		c.publish(EventFatal, PlaybackEnded{Session: c.session.ID(), Error: errText})
	}
	c.logger.Info("scene ended")
	c.publish(EventEnded, PlaybackEnded{Session: c.session.ID(), Error: errText})
}

func (c *Controller) publish(typ string, data any) {
	if c.events == nil {
		return
	}
	if err := c.events.Publish(bus.NewEvent(typ, eventSource, data, nil)); err != nil {
		c.logger.Warn("event handler failed", log.String("event", typ), log.Error(err))
	}
}

// index is the authored index of the record being executed.
func (c *Controller) index() int {
	if rec := c.sched.Current(); rec != nil {
		return rec.Index()
	}
	return -1
}

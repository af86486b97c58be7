package playback

import (
	"errors"
	"fmt"

	"github.com/zeusync/playscript/internal/core/command/dispatch"
	"github.com/zeusync/playscript/internal/core/command/param"
	"github.com/zeusync/playscript/internal/core/command/script"
	"github.com/zeusync/playscript/internal/core/observability/log"
)

const (
	DefaultExitFade = 0.5
	DefaultMaxDrain = 10000

	waitParam = "wait"
)

type Option func(*Scheduler)

// WithExitFade sets how long Ending lasts before Ended.
func WithExitFade(seconds float64) Option {
	return func(s *Scheduler) {
		if seconds >= 0 {
			s.exitFade = seconds
		}
	}
}

// WithMaxDrain caps the records executed by a single Tick.
func WithMaxDrain(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxDrain = n
		}
	}
}

func WithLogger(l log.Log) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithPresenter(p Presenter) Option {
	return func(s *Scheduler) { s.presenter = p }
}

func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// Scheduler drains script records each frame until one of them asks for a
// pause, then counts the pause down across later frames. It is driven by a
// single goroutine; handlers run synchronously inside Tick.
type Scheduler struct {
	table     *dispatch.Table
	presenter Presenter
	logger    log.Log
	observers []Observer

	exitFade float64
	maxDrain int

	cursor    *script.Cursor
	state     State
	countdown float64
	current   *script.Record
	override  bool
	fatal     error
}

func NewScheduler(table *dispatch.Table, opts ...Option) *Scheduler {
	s := &Scheduler{
		table:    table,
		logger:   log.NewNop(),
		exitFade: DefaultExitFade,
		maxDrain: DefaultMaxDrain,
		state:    StateEnded,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the script and starts over in Running with no countdown.
func (s *Scheduler) Load(doc *script.Document) {
	s.cursor = script.NewCursor(doc)
	s.countdown = 0
	s.current = nil
	s.override = false
	s.fatal = nil
	s.setState(StateRunning)
}

// Reset rewinds the loaded script.
func (s *Scheduler) Reset() error {
	if s.cursor == nil {
		return ErrNoScript
	}
	s.Load(s.cursor.Document())
	return nil
}

func (s *Scheduler) State() State { return s.state }

// Countdown is the remaining pause, never negative.
func (s *Scheduler) Countdown() float64 {
	if s.countdown < 0 {
		return 0
	}
	return s.countdown
}

// Current is the record most recently drained, or nil.
func (s *Scheduler) Current() *script.Record { return s.current }

func (s *Scheduler) Cursor() *script.Cursor { return s.cursor }

// Err is the fatal error that ended playback, if any.
func (s *Scheduler) Err() error { return s.fatal }

// Wait sets the countdown from inside a handler. It wins over the record's
// declared wait.
func (s *Scheduler) Wait(seconds float64) {
	s.countdown = seconds
	s.override = true
}

// End starts the exit transition: transient text is cleared, the presenter
// fades out and Ended follows after the exit fade.
func (s *Scheduler) End() {
	if s.state == StateEnding || s.state == StateEnded {
		return
	}
	if s.presenter != nil {
		s.presenter.ClearTransient()
		s.presenter.StartExit(s.exitFade)
	}
	s.countdown = s.exitFade
	s.override = true
	s.setState(StateEnding)
}

// Tick advances playback by dt seconds. Only a fatal condition is returned;
// per-record failures are logged and skipped.
func (s *Scheduler) Tick(dt float64) error {
	if s.state == StateEnded {
		return nil
	}

	s.countdown -= dt
	if s.countdown > 0 {
		return nil
	}
	if s.state == StateCountingDown {
		s.setState(StateRunning)
	}

	for drained := 0; s.countdown <= 0 && s.state != StateEnded; {
		if s.state == StateEnding {
			s.finish()
			break
		}
		if s.cursor.IsExhausted() {
			s.End()
			continue
		}
		if drained >= s.maxDrain {
			return s.halt(fmt.Errorf("%w: %d records in one tick", ErrDrainLimit, drained))
		}
		drained++
		s.step()
	}

	if s.state == StateRunning && s.countdown > 0 {
		s.setState(StateCountingDown)
	}
	return nil
}

func (s *Scheduler) step() {
	rec, _ := s.cursor.ReadNext()
	s.current = rec
	s.override = false

	if !rec.Valid() {
		s.emit(rec, OutcomeRejected, script.ErrEmptyName)
		return
	}

	entry, err := s.table.Resolve(rec.Name())
	if err != nil {
		if errors.Is(err, dispatch.ErrUnknownCommand) {
			s.logger.Error("unknown command", log.Command(rec.Name()), log.Index(rec.Index()))
			s.emit(rec, OutcomeUnknown, err)
			return
		}
		s.logger.Warn("command is not executable", log.Command(rec.Name()), log.Index(rec.Index()), log.Error(err))
		s.emit(rec, OutcomeMisconfigured, err)
		return
	}

	params, err := rec.Params()
	if err != nil {
		// Already reported when the script was loaded.
		s.logger.Debug("skipping record with rejected parameters", log.Command(rec.Name()), log.Index(rec.Index()))
		s.emit(rec, OutcomeRejected, err)
		return
	}
	if !rec.Parsed() || rec.Schema() == nil {
		s.logger.Warn("record was not parsed against a schema", log.Command(rec.Name()), log.Index(rec.Index()))
		s.emit(rec, OutcomeMisconfigured, dispatch.ErrMissingSchema)
		return
	}

	if !s.invoke(entry, params, rec) {
		s.logger.Warn("command failed", log.Command(rec.Name()), log.Index(rec.Index()))
		s.emit(rec, OutcomeFailed, nil)
		return
	}

	if !s.override && entry.Schema.Declares(waitParam) {
		if w, ok := params.Float(waitParam); ok {
			s.countdown = w
		}
	}
	s.emit(rec, OutcomeExecuted, nil)
}

// invoke runs the handler and turns a panic into a failed record.
func (s *Scheduler) invoke(entry dispatch.Entry, params param.Values, rec *script.Record) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("command handler panicked",
				log.Command(rec.Name()),
				log.Index(rec.Index()),
				log.Any("panic", r),
			)
			ok = false
		}
	}()
	return entry.Handler(params, entry.Schema)
}

func (s *Scheduler) finish() {
	s.countdown = 0
	s.setState(StateEnded)
}

func (s *Scheduler) halt(err error) error {
	s.fatal = fmt.Errorf("%w: %w", ErrFatal, err)
	s.logger.Error("playback halted", log.Error(s.fatal))
	s.finish()
	return s.fatal
}

func (s *Scheduler) setState(to State) {
	from := s.state
	s.state = to
	if from == to {
		return
	}
	s.logger.Debug("playback state changed", log.String("from", from.String()), log.String("to", to.String()))
	for _, o := range s.observers {
		o(Event{From: from, To: to, Countdown: s.Countdown(), Err: s.fatal})
	}
}

func (s *Scheduler) emit(rec *script.Record, outcome Outcome, err error) {
	for _, o := range s.observers {
		o(Event{Record: rec, Outcome: outcome, Countdown: s.Countdown(), From: s.state, To: s.state, Err: err})
	}
}

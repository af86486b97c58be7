package stage

import (
	"errors"

	"github.com/zeusync/playscript/internal/core/command/param"
)

var (
	ErrActorNotFound = errors.New("actor not found")
	ErrClipNotFound  = errors.New("clip not found")
	ErrImageNotFound = errors.New("image not found")
)

// Animator is anything with per-frame state to advance.
type Animator interface {
	Advance(dt float64)
}

// Cast is the actor capability set, keyed by actor name. Every method returns
// ErrActorNotFound for names outside the roster.
type Cast interface {
	Animator

	Has(name string) bool
	// Names lists the roster in spawn order.
	Names() []string

	SetActive(name string, active bool) error
	SetPosition(name string, pos param.Vector2) error
	// MoveOverTime starts a linear move from the current position.
	MoveOverTime(name string, target param.Vector2, duration float64) error
	// SetEmotion switches to emotion when the actor knows it. Otherwise the
	// current emotion stays when keep is set and falls back to the default
	// when it is not.
	SetEmotion(name, emotion string, keep bool) error
	SetVisible(name string, visible bool) error
	SortOrder(name string) (int, error)
	SetSortOrder(name string, n int) error
	SetDirection(name string, angle float64) error
	SetRotation(name string, angle float64) error
	SetScale(name string, scale float64) error
	TriggerAnimation(name, trigger string) error
	Flip(name string) error
	StartTalking(name string, seconds float64) error
}

// Background is the backdrop sprite placement.
type Background struct {
	Name     string
	Size     param.Vector2
	Position param.Vector2
}

// Board is the text and backdrop surface.
type Board interface {
	Animator

	// ShowLine shows speaker's subtitle line. replace hides every other line.
	ShowLine(speaker, text string, replace bool)
	HideSubtitles()
	// ToggleBlackboard raises or lowers the blackboard and reports whether it
	// is now up.
	ToggleBlackboard() bool
	WriteBlackboard(text string)
	SetBackground(bg Background) error
	ShowCredit(text string, seconds float64)
	// ClearText empties the blackboard and hides every subtitle line.
	ClearText()
}

// Voice is a playing voice clip.
type Voice struct {
	ID       string
	Clip     string
	Duration float64
}

// Track is a BGM request. Negative loop values mean the track does not loop.
type Track struct {
	Name       string
	LoopLength int
	LoopEnd    int
}

// Loops reports whether the track carries a usable loop region.
func (t Track) Loops() bool { return t.LoopLength >= 0 && t.LoopEnd >= 0 }

type Audio interface {
	Animator

	PlayVoice(clip string) (Voice, error)
	StopVoice()
	PlayBGM(track Track) error
	StopBGM()
	SetBGMVolume(volume float64)
}

// Transition is the full-screen fade.
type Transition interface {
	Animator

	FadeIn(seconds float64)
	FadeOut(seconds float64)
	IsFadingOut() bool
}

package stage

import (
	"fmt"
	"sort"
)

// Screen is the in-memory Board.
type Screen struct {
	frame      bool
	lines      map[string]string
	shown      map[string]bool
	boardUp    bool
	board      string
	background Background
	credit     string
	creditLeft float64
	images     func(name string) bool
}

var _ Board = (*Screen)(nil)

// NewScreen builds an empty board. images reports whether a background image
// exists; nil accepts every name.
func NewScreen(images func(name string) bool) *Screen {
	return &Screen{
		lines:  make(map[string]string),
		shown:  make(map[string]bool),
		images: images,
	}
}

func (s *Screen) ShowLine(speaker, text string, replace bool) {
	s.frame = true
	if replace {
		for k := range s.shown {
			s.shown[k] = false
		}
	}
	s.lines[speaker] = text
	s.shown[speaker] = true
}

func (s *Screen) HideSubtitles() { s.frame = false }

func (s *Screen) ToggleBlackboard() bool {
	s.boardUp = !s.boardUp
	return s.boardUp
}

func (s *Screen) WriteBlackboard(text string) { s.board = text }

func (s *Screen) SetBackground(bg Background) error {
	if s.images != nil && !s.images(bg.Name) {
		return fmt.Errorf("%w: %s", ErrImageNotFound, bg.Name)
	}
	s.background = bg
	return nil
}

func (s *Screen) ShowCredit(text string, seconds float64) {
	s.credit = text
	s.creditLeft = seconds
}

func (s *Screen) ClearText() {
	s.board = ""
	for k := range s.shown {
		s.shown[k] = false
	}
}

func (s *Screen) Advance(dt float64) {
	if s.creditLeft > 0 {
		s.creditLeft -= dt
		if s.creditLeft <= 0 {
			s.creditLeft = 0
			s.credit = ""
		}
	}
}

// SubtitleVisible reports whether the subtitle frame is up.
func (s *Screen) SubtitleVisible() bool { return s.frame }

// Line returns speaker's current line and whether it is shown.
func (s *Screen) Line(speaker string) (string, bool) {
	return s.lines[speaker], s.shown[speaker]
}

// ShownSpeakers lists speakers with a visible line, sorted.
func (s *Screen) ShownSpeakers() []string {
	var out []string
	for k, v := range s.shown {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Screen) Blackboard() (text string, up bool) { return s.board, s.boardUp }

func (s *Screen) Background() Background { return s.background }

// Credit returns the credit text while it is on screen.
func (s *Screen) Credit() string { return s.credit }

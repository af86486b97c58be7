package stage

import (
	"fmt"
	"strings"

	"github.com/zeusync/playscript/internal/core/command/param"
)

// ActorSpec describes one spawnable character.
type ActorSpec struct {
	Name           string
	DefaultEmotion string
	// Emotions the actor can show. Empty means any emotion is accepted.
	Emotions []string
}

// motion is a linear move in progress.
type motion struct {
	from, to param.Vector2
	duration float64
	elapsed  float64
}

func (m *motion) at() param.Vector2 {
	if m.duration <= 0 || m.elapsed >= m.duration {
		return m.to
	}
	return m.from.Add(m.to.Sub(m.from).Scale(m.elapsed / m.duration))
}

// Actor is a snapshot of one character's presentation state.
type Actor struct {
	Name      string
	Active    bool
	Visible   bool
	Flipped   bool
	Position  param.Vector2
	Scale     float64
	Direction float64
	Rotation  float64
	SortOrder int
	Emotion   string
	Talking   bool
	Moving    bool
	Triggers  []string
}

type actor struct {
	Actor
	defaultEmotion string
	emotions       map[string]struct{}
	move           *motion
	talkLeft       float64
}

func (a *actor) knows(emotion string) bool {
	if len(a.emotions) == 0 {
		return emotion != ""
	}
	_, ok := a.emotions[emotion]
	return ok
}

func (a *actor) snapshot() Actor {
	out := a.Actor
	out.Triggers = append([]string(nil), a.Triggers...)
	out.Moving = a.move != nil
	out.Talking = a.talkLeft > 0
	return out
}

// Troupe is the in-memory Cast. It is driven from the frame goroutine only.
type Troupe struct {
	order  []string
	actors map[string]*actor
}

var _ Cast = (*Troupe)(nil)

// NewTroupe spawns every spec inactive, in order. The spawn index is the
// initial sort order. Duplicate or empty names are skipped.
func NewTroupe(specs []ActorSpec) *Troupe {
	t := &Troupe{actors: make(map[string]*actor, len(specs))}
	for _, s := range specs {
		if s.Name == "" {
			continue
		}
		if _, dup := t.actors[s.Name]; dup {
			continue
		}
		a := &actor{
			Actor: Actor{
				Name:      s.Name,
				Visible:   true,
				Scale:     1,
				SortOrder: len(t.order),
				Emotion:   s.DefaultEmotion,
			},
			defaultEmotion: s.DefaultEmotion,
			emotions:       make(map[string]struct{}, len(s.Emotions)),
		}
		for _, e := range s.Emotions {
			a.emotions[e] = struct{}{}
		}
		t.actors[s.Name] = a
		t.order = append(t.order, s.Name)
	}
	return t
}

func (t *Troupe) get(name string) (*actor, error) {
	a, ok := t.actors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActorNotFound, name)
	}
	return a, nil
}

func (t *Troupe) Has(name string) bool {
	_, ok := t.actors[name]
	return ok
}

func (t *Troupe) Names() []string { return append([]string(nil), t.order...) }

// Actor returns a copy of the named actor's state.
func (t *Troupe) Actor(name string) (Actor, bool) {
	a, ok := t.actors[name]
	if !ok {
		return Actor{}, false
	}
	return a.snapshot(), true
}

func (t *Troupe) SetActive(name string, active bool) error {
	a, err := t.get(name)
	if err != nil {
		return err
	}
	a.Active = active
	return nil
}

// SetPosition teleports the actor and cancels any move in progress.
func (t *Troupe) SetPosition(name string, pos param.Vector2) error {
	a, err := t.get(name)
	if err != nil {
		return err
	}
	a.move = nil
	a.Position = pos
	return nil
}

func (t *Troupe) MoveOverTime(name string, target param.Vector2, duration float64) error {
	a, err := t.get(name)
	if err != nil {
		return err
	}
	if duration <= 0 {
		a.move = nil
		a.Position = target
		return nil
	}
	a.move = &motion{from: a.Position, to: target, duration: duration}
	return nil
}

func (t *Troupe) SetEmotion(name, emotion string, keep bool) error {
	a, err := t.get(name)
	if err != nil {
		return err
	}
	emotion = strings.ReplaceAll(emotion, " ", "")
	switch {
	case a.knows(emotion):
		a.Emotion = emotion
	case !keep && a.defaultEmotion != "":
		a.Emotion = a.defaultEmotion
	}
	return nil
}

func (t *Troupe) SetVisible(name string, visible bool) error {
	a, err := t.get(name)
	if err != nil {
		return err
	}
	a.Visible = visible
	return nil
}

func (t *Troupe) SortOrder(name string) (int, error) {
	a, err := t.get(name)
	if err != nil {
		return 0, err
	}
	return a.SortOrder, nil
}

func (t *Troupe) SetSortOrder(name string, n int) error {
	a, err := t.get(name)
	if err != nil {
		return err
	}
	a.SortOrder = n
	return nil
}

func (t *Troupe) SetDirection(name string, angle float64) error {
	a, err := t.get(name)
	if err != nil {
		return err
	}
	a.Direction = angle
	return nil
}

func (t *Troupe) SetRotation(name string, angle float64) error {
	a, err := t.get(name)
	if err != nil {
		return err
	}
	a.Rotation = angle
	return nil
}

func (t *Troupe) SetScale(name string, scale float64) error {
	a, err := t.get(name)
	if err != nil {
		return err
	}
	a.Scale = scale
	return nil
}

func (t *Troupe) TriggerAnimation(name, trigger string) error {
	a, err := t.get(name)
	if err != nil {
		return err
	}
	a.Triggers = append(a.Triggers, trigger)
	return nil
}

func (t *Troupe) Flip(name string) error {
	a, err := t.get(name)
	if err != nil {
		return err
	}
	a.Flipped = !a.Flipped
	return nil
}

// StartTalking keeps the actor's mouth moving for seconds.
func (t *Troupe) StartTalking(name string, seconds float64) error {
	a, err := t.get(name)
	if err != nil {
		return err
	}
	a.talkLeft = seconds
	return nil
}

// Advance moves every actor along its current motion.
func (t *Troupe) Advance(dt float64) {
	for _, name := range t.order {
		a := t.actors[name]
		if a.talkLeft > 0 {
			a.talkLeft -= dt
		}
		if a.move == nil {
			continue
		}
		a.move.elapsed += dt
		a.Position = a.move.at()
		if a.move.elapsed >= a.move.duration {
			a.move = nil
		}
	}
}

package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/playscript/internal/core/command/param"
)

// Scene is the initialization data for one play scene. JSON input decodes
// too, since it is valid YAML.
type Scene struct {
	Characters   []Character `yaml:"characters" json:"characters"`
	Layout       Layout      `yaml:"layout" json:"layout"`
	Background   Background  `yaml:"background" json:"background"`
	BGM          BGM         `yaml:"bgm" json:"bgm"`
	TalkInterval float64     `yaml:"talk_interval" json:"talk_interval"`
}

type Character struct {
	Name           string   `yaml:"name" json:"name"`
	DefaultEmotion string   `yaml:"default_emotion" json:"default_emotion"`
	Emotions       []string `yaml:"emotions,omitempty" json:"emotions,omitempty"`
}

// Layout holds the stage slot coordinates.
type Layout struct {
	SideRight  float64 `yaml:"side_right" json:"side_right"`
	SideLeft   float64 `yaml:"side_left" json:"side_left"`
	SideSlideX float64 `yaml:"side_slide_x" json:"side_slide_x"`
	SideSlideY float64 `yaml:"side_slide_y" json:"side_slide_y"`
	Ground     float64 `yaml:"ground" json:"ground"`
	GiantY     float64 `yaml:"giant_y" json:"giant_y"`
	GiantRight float64 `yaml:"giant_right" json:"giant_right"`
	GiantLeft  float64 `yaml:"giant_left" json:"giant_left"`
	GiantSize  float64 `yaml:"giant_size" json:"giant_size"`
}

type Background struct {
	Name     string        `yaml:"name" json:"name"`
	Size     param.Vector2 `yaml:"size" json:"size"`
	Position param.Vector2 `yaml:"position" json:"position"`
}

// BGM describes the opening track. Loop values below zero disable looping.
type BGM struct {
	Name       string  `yaml:"name" json:"name"`
	LoopLength int     `yaml:"loop_length" json:"loop_length"`
	LoopEnd    int     `yaml:"loop_end" json:"loop_end"`
	Volume     float64 `yaml:"volume" json:"volume"`
	Credit     string  `yaml:"credit,omitempty" json:"credit,omitempty"`
}

// DefaultScene is an empty stage with unit-sized giants and a full-volume,
// non-looping BGM slot.
func DefaultScene() Scene {
	return Scene{
		Layout: Layout{GiantSize: 1},
		Background: Background{
			Size: param.Vector2{X: 1, Y: 1},
		},
		BGM: BGM{LoopLength: -1, LoopEnd: -1, Volume: 1},
	}
}

func DecodeScene(r io.Reader) (Scene, error) {
	s := DefaultScene()
	if err := yaml.NewDecoder(r).Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Scene{}, fmt.Errorf("%w: scene: %v", ErrInvalidConfig, err)
	}
	seen := make(map[string]struct{}, len(s.Characters))
	for i, c := range s.Characters {
		if c.Name == "" {
			return Scene{}, fmt.Errorf("%w: scene character %d has no name", ErrInvalidConfig, i)
		}
		if _, dup := seen[c.Name]; dup {
			return Scene{}, fmt.Errorf("%w: scene character %q declared twice", ErrInvalidConfig, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	if s.TalkInterval < 0 {
		return Scene{}, fmt.Errorf("%w: scene talk_interval cannot be negative", ErrInvalidConfig)
	}
	return s, nil
}

// LoadScene reads path. An empty path yields DefaultScene.
func LoadScene(path string) (Scene, error) {
	if path == "" {
		return DefaultScene(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Scene{}, fmt.Errorf("open scene: %w", err)
	}
	defer func() { _ = f.Close() }()
	return DecodeScene(f)
}

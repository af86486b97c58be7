package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the player configuration file.
type Config struct {
	Log       LogConfig       `yaml:"log" json:"log"`
	Playback  PlaybackConfig  `yaml:"playback" json:"playback"`
	Paths     Paths           `yaml:"paths" json:"paths"`
	Inspector InspectorConfig `yaml:"inspector" json:"inspector"`
}

type LogConfig struct {
	Level    string   `yaml:"level" json:"level"`
	Encoding string   `yaml:"encoding" json:"encoding"`
	Outputs  []string `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	Caller   bool     `yaml:"caller" json:"caller"`
}

// PlaybackConfig holds timings in seconds.
type PlaybackConfig struct {
	FrameRate    int     `yaml:"frame_rate" json:"frame_rate"`
	StartFade    float64 `yaml:"start_fade" json:"start_fade"`
	ExitFade     float64 `yaml:"exit_fade" json:"exit_fade"`
	CreditTime   float64 `yaml:"credit_time" json:"credit_time"`
	MoveDuration float64 `yaml:"move_duration" json:"move_duration"`
	// TalkInterval is the pause after each voice line for scenes that do not
	// set their own.
	TalkInterval float64 `yaml:"talk_interval" json:"talk_interval"`
	// MaxDrain caps the records run in a single frame.
	MaxDrain int `yaml:"max_drain" json:"max_drain"`
}

// FrameInterval is the host tick period.
func (p PlaybackConfig) FrameInterval() time.Duration {
	if p.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(p.FrameRate)
}

type Paths struct {
	Schemas  string `yaml:"schemas" json:"schemas"`
	Script   string `yaml:"script" json:"script"`
	Scene    string `yaml:"scene" json:"scene"`
	Manifest string `yaml:"manifest" json:"manifest"`
}

// InspectorConfig enables the websocket feed when Listen is set.
type InspectorConfig struct {
	Listen          string `yaml:"listen" json:"listen"`
	ReadBufferSize  int    `yaml:"read_buffer_size" json:"read_buffer_size"`
	WriteBufferSize int    `yaml:"write_buffer_size" json:"write_buffer_size"`
	SendQueue       int    `yaml:"send_queue" json:"send_queue"`
}

func (i InspectorConfig) Enabled() bool { return i.Listen != "" }

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
		Playback: PlaybackConfig{
			FrameRate:    60,
			StartFade:    0.9,
			ExitFade:     0.5,
			CreditTime:   5,
			MoveDuration: 1,
			TalkInterval: 0.5,
			MaxDrain:     10_000,
		},
		Paths: Paths{
			Schemas:  "schemas",
			Script:   "script.json",
			Scene:    "scene.yaml",
			Manifest: "clips.yaml",
		},
		Inspector: InspectorConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			SendQueue:       256,
		},
	}
}

// Decode overlays r onto Default and validates the result.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads path. An empty path yields Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

func (c Config) Validate() error {
	switch {
	case c.Playback.FrameRate <= 0:
		return fmt.Errorf("%w: playback.frame_rate must be positive", ErrInvalidConfig)
	case c.Playback.StartFade < 0, c.Playback.ExitFade < 0, c.Playback.CreditTime < 0:
		return fmt.Errorf("%w: playback fades and credit time cannot be negative", ErrInvalidConfig)
	case c.Playback.MoveDuration < 0:
		return fmt.Errorf("%w: playback.move_duration cannot be negative", ErrInvalidConfig)
	case c.Playback.TalkInterval < 0:
		return fmt.Errorf("%w: playback.talk_interval cannot be negative", ErrInvalidConfig)
	case c.Playback.MaxDrain <= 0:
		return fmt.Errorf("%w: playback.max_drain must be positive", ErrInvalidConfig)
	case c.Paths.Script == "":
		return fmt.Errorf("%w: paths.script is required", ErrInvalidConfig)
	case c.Inspector.Enabled() && c.Inspector.SendQueue <= 0:
		return fmt.Errorf("%w: inspector.send_queue must be positive", ErrInvalidConfig)
	}
	return nil
}

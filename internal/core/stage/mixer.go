package stage

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Manifest lists the assets a scene may reference, with clip lengths in
// seconds.
type Manifest struct {
	Voices map[string]float64 `yaml:"voices" json:"voices"`
	BGM    map[string]float64 `yaml:"bgm" json:"bgm"`
	// Images is the set of known background images. Empty accepts any name.
	Images []string `yaml:"images" json:"images"`
}

// DecodeManifest reads a YAML (or JSON) manifest.
func DecodeManifest(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	if err := yaml.NewDecoder(r).Decode(m); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode clip manifest: %w", err)
	}
	return m, nil
}

func ReadManifestFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open clip manifest: %w", err)
	}
	defer func() { _ = f.Close() }()
	return DecodeManifest(f)
}

func (m *Manifest) VoiceLength(clip string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	d, ok := m.Voices[clip]
	return d, ok
}

func (m *Manifest) HasTrack(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.BGM[name]
	return ok
}

func (m *Manifest) HasImage(name string) bool {
	if m == nil || len(m.Images) == 0 {
		return true
	}
	for _, img := range m.Images {
		if img == name {
			return true
		}
	}
	return false
}

// Mixer is the in-memory Audio backed by a Manifest.
type Mixer struct {
	manifest  *Manifest
	voice     *Voice
	voiceLeft float64
	bgm       *Track
	volume    float64
}

var _ Audio = (*Mixer)(nil)

func NewMixer(m *Manifest) *Mixer {
	return &Mixer{manifest: m, volume: 1}
}

// PlayVoice replaces the current voice.
func (m *Mixer) PlayVoice(clip string) (Voice, error) {
	d, ok := m.manifest.VoiceLength(clip)
	if !ok {
		return Voice{}, fmt.Errorf("%w: voice %s", ErrClipNotFound, clip)
	}
	v := Voice{ID: uuid.NewString(), Clip: clip, Duration: d}
	m.voice = &v
	m.voiceLeft = d
	return v, nil
}

func (m *Mixer) StopVoice() {
	m.voice = nil
	m.voiceLeft = 0
}

func (m *Mixer) PlayBGM(track Track) error {
	if !m.manifest.HasTrack(track.Name) {
		return fmt.Errorf("%w: bgm %s", ErrClipNotFound, track.Name)
	}
	m.bgm = &track
	return nil
}

func (m *Mixer) StopBGM() { m.bgm = nil }

func (m *Mixer) SetBGMVolume(volume float64) { m.volume = volume }

func (m *Mixer) Advance(dt float64) {
	if m.voice == nil {
		return
	}
	m.voiceLeft -= dt
	if m.voiceLeft <= 0 {
		m.StopVoice()
	}
}

// Voice returns the voice still playing.
func (m *Mixer) Voice() (Voice, bool) {
	if m.voice == nil {
		return Voice{}, false
	}
	return *m.voice, true
}

func (m *Mixer) BGM() (Track, bool) {
	if m.bgm == nil {
		return Track{}, false
	}
	return *m.bgm, true
}

func (m *Mixer) Volume() float64 { return m.volume }

package stage

// Fader is the in-memory Transition. Level 0 is fully visible, 1 is black.
type Fader struct {
	level    float64
	from, to float64
	duration float64
	elapsed  float64
	running  bool
	out      bool
}

var _ Transition = (*Fader)(nil)

// NewFader starts black, the way a scene opens before its fade-in.
func NewFader() *Fader {
	return &Fader{level: 1, from: 1, to: 1}
}

func (f *Fader) FadeIn(seconds float64) {
	f.out = false
	f.start(0, seconds)
}

func (f *Fader) FadeOut(seconds float64) {
	f.out = true
	f.start(1, seconds)
}

func (f *Fader) start(to, seconds float64) {
	f.from = f.level
	f.to = to
	f.elapsed = 0
	f.duration = seconds
	if seconds <= 0 {
		f.level = to
		f.running = false
		return
	}
	f.running = true
}

// IsFadingOut reports a fade-out in progress or completed.
func (f *Fader) IsFadingOut() bool { return f.out }

func (f *Fader) Advance(dt float64) {
	if !f.running {
		return
	}
	f.elapsed += dt
	if f.elapsed >= f.duration {
		f.level = f.to
		f.running = false
		return
	}
	f.level = f.from + (f.to-f.from)*f.elapsed/f.duration
}

func (f *Fader) Level() float64 { return f.level }

// Busy reports a fade in progress.
func (f *Fader) Busy() bool { return f.running }

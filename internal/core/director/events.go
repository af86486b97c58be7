package director

// Event types published on the bus.
const (
	EventSceneStarted = "scene.started"
	EventRecord       = "playback.record"
	EventState        = "playback.state"
	EventFatal        = "playback.fatal"
	// EventEnded is the end-of-script signal. The host switches scenes on it.
	EventEnded = "playback.ended"
)

const eventSource = "director"

type SceneStarted struct {
	Session    string   `json:"session"`
	Records    int      `json:"records"`
	Checksum   uint64   `json:"checksum"`
	Characters []string `json:"characters"`
}

type RecordDrained struct {
	Session   string  `json:"session"`
	Index     int     `json:"index"`
	Command   string  `json:"command"`
	Outcome   string  `json:"outcome"`
	Countdown float64 `json:"countdown"`
	Error     string  `json:"error,omitempty"`
}

type StateChanged struct {
	Session string `json:"session"`
	From    string `json:"from"`
	To      string `json:"to"`
	Error   string `json:"error,omitempty"`
}

type PlaybackEnded struct {
	Session string `json:"session"`
	Error   string `json:"error,omitempty"`
}

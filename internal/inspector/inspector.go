// Package inspector serves a read-only view of a running scene: a websocket
// feed of bus events, the loaded script listing and bus metrics.
package inspector

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/playscript/internal/config"
	"github.com/zeusync/playscript/internal/core/command/script"
	"github.com/zeusync/playscript/internal/core/events/bus"
	"github.com/zeusync/playscript/internal/core/observability/log"
)

// MessageScript carries the script listing. Every other message type is the
// type of the bus event it wraps.
const MessageScript = "script"

const writeWait = 5 * time.Second

// Message is one websocket frame.
type Message struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
}

// ScriptLine is one record as authored, plus its load-time parse error.
type ScriptLine struct {
	Index   int               `json:"index"`
	Command string            `json:"command"`
	Params  map[string]string `json:"params,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Metrics is the /metrics payload.
type Metrics struct {
	Bus     bus.EventBusMetrics `json:"bus"`
	Events  map[string]uint64   `json:"events"`
	Clients int                 `json:"clients"`
	Dropped uint64              `json:"dropped"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan Message
}

// Server fans bus events out to websocket clients. Each client has a bounded
// queue; events for a full queue are dropped rather than blocking the
// publisher.
type Server struct {
	cfg      config.InspectorConfig
	events   bus.EventBus
	logger   log.Log
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
	script  []ScriptLine
	counts  map[string]uint64
	sub     bus.Subscription

	dropped  atomic.Uint64
	running  atomic.Bool
	http     *http.Server
	listener net.Listener
}

var _ bus.EventBusObserver = (*Server)(nil)

func New(cfg config.InspectorConfig, events bus.EventBus, logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = 1
	}
	return &Server{
		cfg:    cfg,
		events: events,
		logger: logger.With(log.String("component", "inspector")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
		counts:  make(map[string]uint64),
	}
}

// Handler routes /ws, /script and /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/script", s.handleScript)
	mux.HandleFunc("/metrics", s.handleMetrics)
	return mux
}

// Attach subscribes to the bus. Start calls it; tests that mount Handler on
// their own server call it directly.
func (s *Server) Attach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		return nil
	}
	sub, err := s.events.SubscribeAll(s.broadcast)
	if err != nil {
		return err
	}
	s.sub = sub
	s.events.AddObserver(s)
	return nil
}

func (s *Server) Detach() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub == nil {
		return
	}
	_ = s.events.Unsubscribe(sub)
	s.events.RemoveObserver(s)
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	if !s.cfg.Enabled() {
		return ErrDisabled
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		s.running.Store(false)
		s.logger.Error("failed to listen", log.String("addr", s.cfg.Listen), log.Error(err))
		return err
	}
	if err := s.Attach(); err != nil {
		_ = ln.Close()
		s.running.Store(false)
		return err
	}

	s.listener = ln
	s.http = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: writeWait}
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("inspector stopped serving", log.Error(err))
		}
	}()

	s.logger.Info("inspector listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Stop detaches from the bus, shuts the HTTP server down and drops every
// client.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrNotRunning
	}
	s.Detach()
	err := s.http.Shutdown(ctx)

	s.mu.Lock()
	for _, c := range s.clients {
		_ = c.conn.Close()
	}
	s.mu.Unlock()

	s.logger.Info("inspector stopped")
	return err
}

// Addr is the bound address while running.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// SetScript replaces the listing and pushes it to connected clients.
func (s *Server) SetScript(doc *script.Document) {
	var lines []ScriptLine
	if doc != nil {
		recs := doc.Records()
		lines = make([]ScriptLine, 0, len(recs))
		for _, rec := range recs {
			line := ScriptLine{Index: rec.Index(), Command: rec.Name(), Params: make(map[string]string, len(rec.Raw()))}
			for k, v := range rec.Raw() {
				line.Params[k] = v
			}
			if _, err := rec.Params(); err != nil {
				line.Error = err.Error()
			}
			lines = append(lines, line)
		}
	}

	s.mu.Lock()
	s.script = lines
	msg := Message{Type: MessageScript, Time: time.Now(), Data: lines}
	for _, c := range s.clients {
		s.enqueue(c, msg)
	}
	s.mu.Unlock()
}

// Metrics snapshots bus and feed counters.
func (s *Server) Metrics() Metrics {
	s.mu.Lock()
	counts := make(map[string]uint64, len(s.counts))
	for k, v := range s.counts {
		counts[k] = v
	}
	clients := len(s.clients)
	s.mu.Unlock()
	return Metrics{
		Bus:     s.events.GetMetrics(),
		Events:  counts,
		Clients: clients,
		Dropped: s.dropped.Load(),
	}
}

func (s *Server) OnPublish(eventType string, _ bus.Event) {
	s.mu.Lock()
	s.counts[eventType]++
	s.mu.Unlock()
}

func (s *Server) OnDelivered(eventType string, handlers int, err error, durationMicros int64) {
	if err != nil {
		s.logger.Debug("event delivery failed",
			log.String("event", eventType),
			log.Int("handlers", handlers),
			log.Int64("micros", durationMicros),
			log.Error(err),
		)
	}
}

func (s *Server) broadcast(e bus.Event) error {
	msg := Message{Type: e.Type(), Time: e.Timestamp(), Data: e.Data()}
	s.mu.Lock()
	for _, c := range s.clients {
		s.enqueue(c, msg)
	}
	s.mu.Unlock()
	return nil
}

// enqueue must be called with s.mu held.
func (s *Server) enqueue(c *client, msg Message) {
	select {
	case c.send <- msg:
	default:
		s.dropped.Add(1)
		s.logger.Debug("client queue full, dropping event", log.String("client", c.id), log.String("event", msg.Type))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.String("remote_addr", r.RemoteAddr), log.Error(err))
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan Message, s.cfg.SendQueue+1)}
	s.mu.Lock()
	s.clients[c.id] = c
	// The listing is always the first frame a client sees.
	c.send <- Message{Type: MessageScript, Time: time.Now(), Data: s.script}
	s.mu.Unlock()

	s.logger.Info("client connected", log.String("client", c.id), log.String("remote_addr", conn.RemoteAddr().String()))

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop discards client input and returns when the connection drops.
func (s *Server) readLoop(c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c.id)
		close(c.send)
		s.mu.Unlock()
		_ = c.conn.Close()
		s.logger.Info("client disconnected", log.String("client", c.id))
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			s.logger.Debug("client write failed", log.String("client", c.id), log.Error(err))
			_ = c.conn.Close()
			// Drain so readLoop can close the channel.
			for range c.send {
			}
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	lines := s.script
	s.mu.Unlock()
	if lines == nil {
		lines = []ScriptLine{}
	}
	writeJSON(w, lines, s.logger)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.Metrics(), s.logger)
}

func writeJSON(w http.ResponseWriter, v any, logger log.Log) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("response encode failed", log.Error(err))
	}
}

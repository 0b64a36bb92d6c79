package telemetry

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gekko3d/swarm/core"
)

// Stats is one per-tick telemetry sample, broadcast as JSON.
type Stats struct {
	Type        string  `json:"type"`
	FieldId     string  `json:"fieldId"`
	Tick        uint64  `json:"tick"`
	Instances   int     `json:"instances"`
	FrameMillis float64 `json:"frameMillis"`
	FPS         float64 `json:"fps"`
}

type client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

// Server broadcasts simulation stats to websocket clients. It never blocks
// the frame loop: Publish drops slow clients instead of waiting on them.
type Server struct {
	log      core.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client

	latest   Stats
	hasStats bool
}

func NewServer(log core.Logger) *Server {
	if log == nil {
		log = core.NewNopLogger()
	}
	return &Server{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Handler serves the /ws websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// ListenAndServe blocks serving the telemetry endpoint on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Infof("Telemetry listening on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("Telemetry upgrade failed: %v", err)
		return
	}

	c := &client{id: uuid.NewString(), conn: conn}
	s.mu.Lock()
	s.clients[c.id] = c
	latest, has := s.latest, s.hasStats
	s.mu.Unlock()
	s.log.Debugf("Telemetry client %s connected", c.id)

	if has {
		c.mu.Lock()
		_ = conn.WriteJSON(latest)
		c.mu.Unlock()
	}

	// Drain control frames until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
	conn.Close()
	s.log.Debugf("Telemetry client %s disconnected", c.id)
}

// Publish sends a sample to all connected clients, dropping any whose write
// fails.
func (s *Server) Publish(stats Stats) {
	if stats.Type == "" {
		stats.Type = "stats"
	}

	s.mu.Lock()
	s.latest = stats
	s.hasStats = true
	targets := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	for _, c := range targets {
		c.mu.Lock()
		err := c.conn.WriteJSON(stats)
		c.mu.Unlock()
		if err != nil {
			s.mu.Lock()
			delete(s.clients, c.id)
			s.mu.Unlock()
			c.conn.Close()
			s.log.Debugf("Telemetry client %s dropped: %v", c.id, err)
		}
	}
}

// ClientCount reports the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

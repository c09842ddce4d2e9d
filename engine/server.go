package engine

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"
)

// Server is the loop driver of spec.md section 2: it accepts connections,
// advances the World at a fixed tick period, and fans world state out to
// every session through the Dispatcher. Shape grounded in the teacher's
// engine/server.go (http.Server wrapping a game loop goroutine), re-derived
// to own a World+Dispatcher pair instead of the teacher's bespoke Game type.
type Server struct {
	cfg        Config
	world      *World
	dispatcher *Dispatcher

	httpServer *http.Server
	listener   net.Listener

	connsMu sync.Mutex
	conns   map[uint64]*Conn

	stopCh chan struct{}
}

// NewServer creates a server with a freshly-initialized World for cfg.
func NewServer(cfg Config) *Server {
	w := NewWorld(cfg)
	return &Server{
		cfg:        cfg,
		world:      w,
		dispatcher: NewDispatcher(w),
		conns:      make(map[uint64]*Conn),
		stopCh:     make(chan struct{}),
	}
}

func (s *Server) registerConn(c *Conn) {
	s.connsMu.Lock()
	s.conns[c.sess.ID] = c
	s.connsMu.Unlock()
}

func (s *Server) unregisterConn(c *Conn) {
	s.connsMu.Lock()
	delete(s.conns, c.sess.ID)
	s.connsMu.Unlock()

	if c.sess.HasSnake {
		select {
		case s.world.LeaveCh <- c.sess.SnakeID:
		default:
		}
	}
}

func (s *Server) setupMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(landingPageHTML))
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		HandleWS(s, w, r)
	})

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(s.GetStatsJSON()))
	})

	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(dashboardHTML))
	})

	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	})

	return mux
}

func (s *Server) logStartup(addr string) {
	log.Printf("slither.live server v%s starting...", Version)
	log.Printf("Listening on http://%s", addr)
	log.Printf("WebSocket: ws://%s/ws", addr)
	log.Printf("Dashboard: http://%s/dashboard", addr)
}

// Start runs the tick loop and HTTP server in the background (non-blocking).
func (s *Server) Start(port int) error {
	go s.runTickLoop()

	addr := fmt.Sprintf("0.0.0.0:%d", port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.setupMux()}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln

	s.logStartup(addr)
	go s.httpServer.Serve(ln)
	return nil
}

// ListenAndServe runs the tick loop and HTTP server, blocking until error.
func (s *Server) ListenAndServe(port int) error {
	go s.runTickLoop()

	addr := fmt.Sprintf("0.0.0.0:%d", port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.setupMux()}

	s.logStartup(addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server and tick loop.
func (s *Server) Stop() error {
	close(s.stopCh)
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// runTickLoop is the single authoritative tick task of spec.md section 5:
// it is the only goroutine that ever calls World.Advance, and it holds the
// exclusive World lock only for the duration of that call.
func (s *Server) runTickLoop() {
	frame := time.Duration(s.cfg.FrameTimeMs) * time.Millisecond
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	lastLeaderboard := time.Now()
	lastMinimap := time.Now()
	lastStaleCheck := time.Now()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.world.Lock()
			s.world.Advance(float32(s.cfg.FrameTimeMs))
			s.world.Unlock()

			s.dispatchToAllSessions()

			if now.Sub(lastLeaderboard) >= LeaderboardMs*time.Millisecond {
				lastLeaderboard = now
				s.forEachConn(func(c *Conn) {
					s.dispatcher.DispatchLeaderboard(c.sess, c.enqueue)
				})
			}
			if now.Sub(lastMinimap) >= MinimapMs*time.Millisecond {
				lastMinimap = now
				s.forEachConn(func(c *Conn) {
					s.dispatcher.DispatchMinimap(c.sess, c.enqueue, c.sess.ProtoVersion >= ProtocolVersion)
				})
			}
			if now.Sub(lastStaleCheck) >= time.Second {
				lastStaleCheck = now
				s.pruneStaleSessions(now)
			}
		}
	}
}

// dispatchToAllSessions runs DispatchTick for every connected session under a
// single World read lock, per spec.md section 5's "dispatcher reads World
// under a read lock while enqueueing bytes".
func (s *Server) dispatchToAllSessions() {
	s.world.RLock()
	defer s.world.RUnlock()
	s.forEachConn(func(c *Conn) {
		s.dispatcher.DispatchTick(c.sess, c.enqueue)
	})
}

func (s *Server) forEachConn(fn func(c *Conn)) {
	s.connsMu.Lock()
	snapshot := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		snapshot = append(snapshot, c)
	}
	s.connsMu.Unlock()
	for _, c := range snapshot {
		fn(c)
	}
}

// pruneStaleSessions implements spec.md section 5's PING_TIMEOUT cancellation:
// a session with no inbound packet for PingTimeoutMs is dropped and its snake
// (if any) removed from the World.
func (s *Server) pruneStaleSessions(now time.Time) {
	var stale []*Conn
	s.connsMu.Lock()
	for _, c := range s.conns {
		if c.sess.IsStale(now) {
			stale = append(stale, c)
		}
	}
	s.connsMu.Unlock()

	for _, c := range stale {
		log.Printf("[TIMEOUT] %s (session %s) idle past ping timeout", c.sess.PeerAddr, c.sess.UUID)
		close(c.sendCh)
		c.ws.Close()
	}
}

// StatsSnapshot is the /stats JSON payload.
type StatsSnapshot struct {
	Tick      uint64 `json:"tick"`
	Snakes    int    `json:"snakes"`
	Sessions  int    `json:"sessions"`
	Food      int    `json:"food"`
	Version   string `json:"version"`
}

// GetStatsJSON returns a point-in-time snapshot of World/session counts.
func (s *Server) GetStatsJSON() string {
	s.world.RLock()
	snap := StatsSnapshot{
		Tick:    s.world.Tick,
		Snakes:  len(s.world.Snakes),
		Food:    len(s.world.Food),
		Version: Version,
	}
	s.world.RUnlock()

	s.connsMu.Lock()
	snap.Sessions = len(s.conns)
	s.connsMu.Unlock()

	b, _ := json.Marshal(snap)
	return string(b)
}

const landingPageHTML = `<!DOCTYPE html>
<html><head><title>slither.live</title></head>
<body><h1>slither.live</h1><p>Connect over ws://&lt;host&gt;/ws with a slither.io-compatible client.</p></body></html>`

const dashboardHTML = `<!DOCTYPE html>
<html><head><title>slither.live dashboard</title>
<meta http-equiv="refresh" content="2"></head>
<body><h1>slither.live dashboard</h1><pre id="stats">loading...</pre>
<script>fetch('/stats').then(r=>r.json()).then(j=>{document.getElementById('stats').textContent=JSON.stringify(j,null,2)})</script>
</body></html>`

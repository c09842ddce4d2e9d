package engine

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"slither.live/engine/wire"
)

// Conn is a single WebSocket connection paired with its protocol Session.
// Shape grounded in the teacher's Player{conn,sendCh,done} in engine/network.go,
// generalized to carry a Session instead of a bespoke snapshot-cache struct.
type Conn struct {
	sess   *Session
	ws     *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS upgrades the HTTP request and runs the connection's read/write
// pumps until disconnect, then cleans up — unchanged in shape from the
// teacher's HandleWS.
func HandleWS(srv *Server, w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	c := &Conn{
		sess:   NewSession(r.RemoteAddr),
		ws:     ws,
		sendCh: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	srv.registerConn(c)
	log.Printf("[CONN] %s connected (session %s)", c.sess.PeerAddr, c.sess.UUID)

	go c.writePump()
	c.readPump(srv)

	close(c.done)
	srv.unregisterConn(c)
	ws.Close()
	log.Printf("[CONN] %s disconnected (session %s)", c.sess.PeerAddr, c.sess.UUID)
}

func (c *Conn) readPump(srv *Server) {
	c.ws.SetReadLimit(4096)
	c.ws.SetReadDeadline(time.Now().Add(time.Duration(PingTimeoutMs) * time.Millisecond))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(time.Duration(PingTimeoutMs) * time.Millisecond))
		return nil
	})

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		c.ws.SetReadDeadline(time.Now().Add(time.Duration(PingTimeoutMs) * time.Millisecond))
		c.sess.LastInboundAt = time.Now()

		if err := srv.handleInbound(c, data); err != nil {
			if pe, ok := err.(*ProtocolError); ok && pe.Kind == HandshakeViolation {
				log.Printf("[PROTO] %s: %v — closing session", c.sess.PeerAddr, err)
				return
			}
			log.Printf("[PROTO] %s: %v — skipping sub-packet", c.sess.PeerAddr, err)
		}
	}
}

func (c *Conn) writePump() {
	pingTicker := time.NewTicker(15 * time.Second)
	defer pingTicker.Stop()
	for {
		select {
		case msg, ok := <-c.sendCh:
			if !ok {
				return
			}
			c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				return
			}
		case <-pingTicker.C:
			c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// enqueue prepends the session's ETM prefix (if negotiated) and pushes the
// packet onto the connection's send channel, dropping it on backpressure —
// same drop-on-full-buffer policy as the teacher's broadcast().
func (c *Conn) enqueue(pkt []byte) {
	if prefix := c.sess.ETMPrefix(time.Now()); prefix != nil {
		full := make([]byte, 0, len(prefix)+len(pkt))
		full = append(full, prefix...)
		full = append(full, pkt...)
		pkt = full
	}
	select {
	case c.sendCh <- pkt:
		c.sess.LastOutboundAt = time.Now()
	default:
	}
}

// handleInbound implements the handshake sequence and post-handshake sub-packet
// dispatch of spec.md section 6. It never mutates the World directly — it
// only decodes and forwards intents/join requests onto World channels, which
// only the tick task drains (single-writer model, section 5).
func (srv *Server) handleInbound(c *Conn, msg []byte) error {
	sess := c.sess

	if !sess.HandshakeComplete {
		if len(msg) == 0 || msg[0] != 'c' {
			return newProtoErr(HandshakeViolation, "expected 'c' before handshake, got %v", msg)
		}
		c.enqueue(wire.PreInit{}.Encode())
		sess.HandshakeComplete = true
		return nil
	}

	for _, sub := range wire.ParseStacked(msg) {
		in, err := wire.ParseIncoming(sub)
		if err != nil {
			log.Printf("[PROTO] %s: %v — skipping sub-packet", sess.PeerAddr, newProtoErr(MalformedPacket, "%v", err))
			continue
		}
		srv.handlePacket(c, in)
	}
	return nil
}

func (srv *Server) handlePacket(c *Conn, in *wire.Incoming) {
	sess := c.sess
	w := srv.world

	switch in.Kind {
	case wire.KindProtocolMode:
		sess.WantETM = in.Mode == 0x02

	case wire.KindBeginLogin:
		c.enqueue(wire.PreInit{}.Encode())

	case wire.KindIdentity:
		if sess.HasSnake {
			return
		}
		sess.ProtoVersion = in.ProtocolByte
		name := in.Name
		if name == "" {
			name = "Anonymous"
		}
		reply := make(chan uint16, 1)
		w.JoinCh <- JoinRequest{Name: name, Skin: in.Skin, Reply: reply}
		id := <-reply
		sess.SnakeID = id
		sess.HasSnake = true
		srv.sendInitialState(c, id)

	case wire.KindRotation:
		w.IntentCh <- SnakeIntent{SnakeID: sess.SnakeID, Kind: IntentRotation, Clockwise: in.Clockwise, Intensity: in.Intensity}

	case wire.KindLegacyTurn:
		w.IntentCh <- SnakeIntent{SnakeID: sess.SnakeID, Kind: IntentRotation, Clockwise: in.LegacyRight, Intensity: in.Intensity}

	case wire.KindSetAngle:
		w.IntentCh <- SnakeIntent{SnakeID: sess.SnakeID, Kind: IntentAngle, Angle: in.Angle}

	case wire.KindStartBoost:
		w.IntentCh <- SnakeIntent{SnakeID: sess.SnakeID, Kind: IntentAccel, On: true}

	case wire.KindStopBoost:
		w.IntentCh <- SnakeIntent{SnakeID: sess.SnakeID, Kind: IntentAccel, On: false}

	case wire.KindPing:
		c.enqueue(wire.Pong{}.Encode())

	case wire.KindChat, wire.KindInert:
		// accepted but inert, per spec.md section 4.2.
	}
}

// sendInitialState sends Init, then the viewport's sector+food set, then the
// player's own snake, then visible others, then the leaderboard — the exact
// order spec.md section 6 describes for the handshake's post-identity phase.
func (srv *Server) sendInitialState(c *Conn, snakeID uint16) {
	w := srv.world
	w.RLock()
	snake, ok := w.Snakes[snakeID]
	if !ok {
		w.RUnlock()
		return
	}
	head := snake.Body[0]

	c.enqueue(wire.Init{
		GameRadius: uint32(GameRadius), MaxParts: MaxSnakeParts,
		SectorSize: uint16(SectorSize), SectorCount: uint16(SectorCount),
		AngSpeed: AngularStep, TailK: TailK,
		Protocol: ProtocolVersion, YourSnakeID: snakeID,
	}.Encode())

	cells := w.Grid.SectorsInViewport(head.X, head.Y, ViewRadius)
	c.sess.Viewport.Diff(cells) // seed the tracker so the next tick's diff doesn't resend
	for _, cell := range cells {
		c.enqueue(wire.AddSector{SX: uint8(cell[0]), SY: uint8(cell[1])}.Encode())
		c.enqueue(encodeSetFood(w.Grid, cell[0], cell[1]))
	}

	c.enqueue(encodeAddSnake(snake))
	c.sess.MarkSnakeKnown(snakeID)

	visible := make(map[[2]int]bool, len(cells))
	for _, cell := range cells {
		visible[cell] = true
	}
	for id, other := range w.Snakes {
		if id == snakeID || !other.Alive {
			continue
		}
		ox, oy := w.Grid.WorldToSector(other.Body[0].X, other.Body[0].Y)
		if visible[[2]int{ox, oy}] {
			c.enqueue(encodeAddSnake(other))
			c.sess.MarkSnakeKnown(id)
		}
	}

	// DispatchLeaderboard ranges w.Snakes, so it must run inside the same
	// read-locked region as the rest of this handshake snapshot — calling it
	// after RUnlock would race the tick task's exclusive writer lock.
	srv.dispatcher.DispatchLeaderboard(c.sess, c.enqueue)
	w.RUnlock()
}

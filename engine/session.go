package engine

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session is per-client protocol state (spec.md section 3). The 64-bit id is
// the internal dense key used by the World/dispatcher; the paired UUID (see
// SPEC_FULL.md's Domain Stack section) is the externally-visible handle used
// in log lines, grounded in sonpython-slether's uuid-keyed
// session identity.
type Session struct {
	ID   uint64
	UUID uuid.UUID

	PeerAddr string

	SnakeID    uint16
	HasSnake   bool

	HandshakeComplete bool
	WantETM           bool
	ProtoVersion      uint8

	Viewport ViewportTracker

	LastInboundAt  time.Time
	LastOutboundAt time.Time
	lastSentAt     time.Time

	knownSnakes map[uint16]bool
}

var sessionIDCounter uint64

func nextSessionID() uint64 { return atomic.AddUint64(&sessionIDCounter, 1) }

func NewSession(peerAddr string) *Session {
	now := time.Now()
	return &Session{
		ID: nextSessionID(), UUID: uuid.New(), PeerAddr: peerAddr,
		LastInboundAt: now, LastOutboundAt: now, lastSentAt: now,
		knownSnakes: make(map[uint16]bool),
	}
}

// ETMPrefix computes the 2-byte elapsed-time-marker prefix and updates
// lastSentAt, if the session negotiated want-etm (spec.md section 4.2).
func (s *Session) ETMPrefix(now time.Time) []byte {
	if !s.WantETM {
		return nil
	}
	delta := now.Sub(s.lastSentAt).Milliseconds()
	s.lastSentAt = now
	if delta > 0xFFFF {
		delta = 0xFFFF
	}
	return []byte{byte(delta >> 8), byte(delta)}
}

// IsStale reports whether the session has exceeded PING_TIMEOUT_MS without an
// inbound packet (spec.md section 5, cancellation and timeouts).
func (s *Session) IsStale(now time.Time) bool {
	return now.Sub(s.LastInboundAt) > time.Duration(PingTimeoutMs)*time.Millisecond
}

func (s *Session) KnowsSnake(id uint16) bool { return s.knownSnakes[id] }

func (s *Session) MarkSnakeKnown(id uint16) { s.knownSnakes[id] = true }

func (s *Session) ForgetSnake(id uint16) { delete(s.knownSnakes, id) }

// ViewportTracker holds the set of cell coordinates currently subscribed by a
// session (spec.md section 3), and diffs against a freshly-computed set.
type ViewportTracker struct {
	cells map[[2]int]bool
}

// Diff returns (entered, left) relative to the new set, and updates the
// tracker's internal state. Calling Diff a second time with the same current
// set yields empty entered/left (spec.md's sector-subscription idempotence
// boundary scenario).
func (v *ViewportTracker) Diff(current [][2]int) (entered, left [][2]int) {
	if v.cells == nil {
		v.cells = make(map[[2]int]bool)
	}
	next := make(map[[2]int]bool, len(current))
	for _, c := range current {
		next[c] = true
		if !v.cells[c] {
			entered = append(entered, c)
		}
	}
	for c := range v.cells {
		if !next[c] {
			left = append(left, c)
		}
	}
	v.cells = next
	return entered, left
}

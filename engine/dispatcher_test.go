package engine

import (
	"testing"

	"slither.live/engine/wire"
)

// recvSession builds a session already viewing the given head position, with
// snake ids pre-marked known so DispatchTick emits deltas instead of AddSnake.
func recvSession(snakeID uint16, known ...uint16) *Session {
	sess := NewSession("test")
	sess.HasSnake = true
	sess.SnakeID = snakeID
	for _, id := range known {
		sess.MarkSnakeKnown(id)
	}
	return sess
}

func TestDispatchTickAddSectorPrecedesSetFood(t *testing.T) {
	w := NewWorld(testConfig())
	s := w.AddSnake("viewer", 0, false)
	d := NewDispatcher(w)
	sess := recvSession(s.ID, s.ID)

	var cmds []byte
	d.DispatchTick(sess, func(pkt []byte) { cmds = append(cmds, pkt[0]) })

	sawAddSector := false
	for i, c := range cmds {
		if c == 'W' {
			sawAddSector = true
			if i+1 >= len(cmds) || cmds[i+1] != 'F' {
				t.Fatalf("AddSector at index %d must be immediately followed by SetFood, got sequence %v", i, cmds)
			}
		}
	}
	if !sawAddSector {
		t.Fatal("expected at least one AddSector on the first dispatch (viewport starts empty)")
	}
}

func TestDispatchTickUnknownSnakeSendsAddSnakeOnly(t *testing.T) {
	w := NewWorld(testConfig())
	viewer := w.AddSnake("viewer", 0, false)
	other := w.AddSnake("other", 0, false)
	// Put both snakes in the same cell so other is within the viewport.
	other.Body[0].X, other.Body[0].Y = viewer.Body[0].X, viewer.Body[0].Y
	w.Grid.RemoveSnakeHead(other.ID, other.CellX, other.CellY)
	other.CellX, other.CellY = w.Grid.WorldToSector(other.Body[0].X, other.Body[0].Y)
	w.Grid.InsertSnakeHead(other.ID, other.CellX, other.CellY)
	w.ChangedSnakes = []uint16{other.ID}

	d := NewDispatcher(w)
	sess := recvSession(viewer.ID, viewer.ID) // viewer knows itself but not other

	var cmds []byte
	d.DispatchTick(sess, func(pkt []byte) { cmds = append(cmds, pkt[0]) })

	sawAddSnake := false
	for _, c := range cmds {
		if c == 's' {
			sawAddSnake = true
		}
	}
	if !sawAddSnake {
		t.Fatal("expected an AddSnake ('s') packet for a newly-visible, unknown snake")
	}
	if !sess.KnowsSnake(other.ID) {
		t.Fatal("dispatching AddSnake should mark the snake as known")
	}
}

func TestDispatchTickOrdersPositionBeforeRotationBeforeFullness(t *testing.T) {
	w := NewWorld(testConfig())
	s := w.AddSnake("viewer", 0, false)
	s.Changes = ChangePos | ChangeAngle | ChangeFullness
	w.ChangedSnakes = []uint16{s.ID}

	d := NewDispatcher(w)
	sess := recvSession(s.ID, s.ID)

	var cmds []byte
	d.DispatchTick(sess, func(pkt []byte) { cmds = append(cmds, pkt[0]) })

	posCmds := map[byte]bool{'g': true, 'G': true, 'n': true, 'N': true}
	rotCmds := map[byte]bool{'4': true, '5': true, 'e': true, '3': true, 'E': true}
	posIdx, rotIdx, fullIdx := -1, -1, -1
	for i, c := range cmds {
		if posCmds[c] && posIdx == -1 {
			posIdx = i
		}
		if rotCmds[c] && rotIdx == -1 {
			rotIdx = i
		}
		if c == 'h' && fullIdx == -1 {
			fullIdx = i
		}
	}
	if posIdx == -1 || rotIdx == -1 || fullIdx == -1 {
		t.Fatalf("expected position, rotation and fullness packets, got commands %v", cmds)
	}
	if !(posIdx < rotIdx && rotIdx < fullIdx) {
		t.Fatalf("expected position < rotation < fullness order, got indices %d,%d,%d in %v", posIdx, rotIdx, fullIdx, cmds)
	}
}

func TestDispatchTickSkipsSnakesOutsideViewport(t *testing.T) {
	w := NewWorld(testConfig())
	viewer := w.AddSnake("viewer", 0, false)
	far := w.AddSnake("far", 0, false)
	far.Body[0].X, far.Body[0].Y = GameRadius*0.9, GameRadius*0.9
	w.Grid.RemoveSnakeHead(far.ID, far.CellX, far.CellY)
	far.CellX, far.CellY = w.Grid.WorldToSector(far.Body[0].X, far.Body[0].Y)
	w.Grid.InsertSnakeHead(far.ID, far.CellX, far.CellY)
	far.Changes = ChangePos
	w.ChangedSnakes = []uint16{far.ID}

	d := NewDispatcher(w)
	sess := recvSession(viewer.ID, viewer.ID)

	var cmds []byte
	d.DispatchTick(sess, func(pkt []byte) { cmds = append(cmds, pkt[0]) })
	for _, c := range cmds {
		if c == 's' {
			t.Fatal("a snake outside the viewport should not generate an AddSnake packet")
		}
	}
}

func TestDispatchLeaderboardOrdersByScoreDescending(t *testing.T) {
	w := NewWorld(testConfig())
	low := w.AddSnake("low", 0, false)
	high := w.AddSnake("high", 0, false)
	for len(high.Body) < 20 {
		high.Body = append(high.Body, high.Body[len(high.Body)-1])
	}

	d := NewDispatcher(w)
	sess := recvSession(low.ID)

	var pkt []byte
	d.DispatchLeaderboard(sess, func(p []byte) { pkt = p })
	if pkt[0] != 'l' {
		t.Fatalf("expected leaderboard command byte 'l', got %q", pkt[0])
	}

	r := wire.NewReader(pkt[1:])
	playerRank, _ := r.U8()
	if _, err := r.U16(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.U16(); err != nil {
		t.Fatal(err)
	}
	partsOf := func() uint16 {
		parts, err := r.U16()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := r.FP24(); err != nil {
			t.Fatal(err)
		}
		if _, err := r.U8(); err != nil {
			t.Fatal(err)
		}
		if _, err := r.PString(); err != nil {
			t.Fatal(err)
		}
		return parts
	}
	firstParts := partsOf()
	secondParts := partsOf()
	if firstParts <= secondParts {
		t.Fatalf("expected the first entry (highest score) to have more parts than the second, got %d then %d", firstParts, secondParts)
	}
	if playerRank != 2 {
		t.Fatalf("low's rank = %d, want 2 (high outranks it)", playerRank)
	}
}

func TestDispatchTickSendsGameEndToDyingSnakesOwnSession(t *testing.T) {
	w := NewWorld(testConfig())
	victim := w.AddSnake("victim", 0, false)
	victim.Kill(w.RNG, 0)
	w.ChangedSnakes = []uint16{victim.ID}

	d := NewDispatcher(w)
	sess := recvSession(victim.ID, victim.ID)

	var cmds []byte
	d.DispatchTick(sess, func(pkt []byte) { cmds = append(cmds, pkt[0]) })

	sawGameEnd := false
	for _, c := range cmds {
		if c == 'v' {
			sawGameEnd = true
		}
	}
	if !sawGameEnd {
		t.Fatalf("expected a GameEnd ('v') packet on the dying snake's own session, got %v", cmds)
	}
}

func TestDispatchTickSendsKillNotifyToKiller(t *testing.T) {
	w := NewWorld(testConfig())
	killer := w.AddSnake("killer", 0, false)
	victim := w.AddSnake("victim", 0, false)
	killer.Kills++
	victim.Kill(w.RNG, killer.ID)
	w.ChangedSnakes = []uint16{victim.ID}

	d := NewDispatcher(w)
	sess := recvSession(killer.ID, killer.ID, victim.ID)

	var cmds []byte
	d.DispatchTick(sess, func(pkt []byte) { cmds = append(cmds, pkt[0]) })

	sawKillNotify := false
	for _, c := range cmds {
		if c == 'k' {
			sawKillNotify = true
		}
	}
	if !sawKillNotify {
		t.Fatalf("expected a KillNotify ('k') packet on the killer's session, got %v", cmds)
	}
}

func TestDispatchTickDoesNotSendKillNotifyToUninvolvedSessions(t *testing.T) {
	w := NewWorld(testConfig())
	killer := w.AddSnake("killer", 0, false)
	victim := w.AddSnake("victim", 0, false)
	bystander := w.AddSnake("bystander", 0, false)
	victim.Kill(w.RNG, killer.ID)
	w.ChangedSnakes = []uint16{victim.ID}

	d := NewDispatcher(w)
	sess := recvSession(bystander.ID, bystander.ID, victim.ID)

	var cmds []byte
	d.DispatchTick(sess, func(pkt []byte) { cmds = append(cmds, pkt[0]) })

	for _, c := range cmds {
		if c == 'k' || c == 'v' {
			t.Fatalf("bystander session should receive neither KillNotify nor GameEnd, got %v", cmds)
		}
	}
}

func TestDispatchMinimapProducesBitmapPacket(t *testing.T) {
	w := NewWorld(testConfig())
	s := w.AddSnake("viewer", 0, false)
	d := NewDispatcher(w)
	sess := recvSession(s.ID)

	var got []byte
	d.DispatchMinimap(sess, func(pkt []byte) { got = pkt }, true)
	if len(got) == 0 || got[0] != 'M' {
		t.Fatalf("expected a modern minimap packet starting with 'M', got %v", got)
	}
}

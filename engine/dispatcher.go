package engine

import (
	"slither.live/engine/wire"
)

// Dispatcher translates World state and per-tick change-sets into per-session
// packet streams (spec.md section 4.7), reading the World under a read lock
// while enqueueing bytes (section 5's "dispatcher reads World under a read
// lock while enqueueing"). Shape grounded in the teacher's
// serializeStateFor/broadcast pair in engine/network.go, re-derived to emit
// the section 4.2 command taxonomy instead of the teacher's bespoke snapshot
// format.
type Dispatcher struct {
	world *World
}

func NewDispatcher(w *World) *Dispatcher { return &Dispatcher{world: w} }

// outFn is how the dispatcher hands bytes to a session's outbound queue; the
// caller (network.go) wraps Enqueue with the ETM-prefixing and the writer
// goroutine's send channel.
type outFn func(pkt []byte)

// DispatchTick runs the full per-session per-tick sequence of section 4.7 for
// one session. Must be called with the World held under at least a read lock.
func (d *Dispatcher) DispatchTick(sess *Session, send outFn) {
	w := d.world
	snake, ok := w.Snakes[sess.SnakeID]
	if !sess.HasSnake || !ok {
		return
	}
	head := snake.Body[0]

	// Step 2: sector diff -> AddSector+SetFood pairs, then RemoveSector.
	current := w.Grid.SectorsInViewport(head.X, head.Y, ViewRadius)
	entered, left := sess.Viewport.Diff(current)
	visibleCells := make(map[[2]int]bool, len(current))
	for _, c := range current {
		visibleCells[c] = true
	}
	for _, c := range entered {
		send(wire.AddSector{SX: uint8(c[0]), SY: uint8(c[1])}.Encode())
		send(encodeSetFood(w.Grid, c[0], c[1]))
	}
	for _, c := range left {
		send(wire.RemoveSector{SX: uint8(c[0]), SY: uint8(c[1])}.Encode())
	}

	// Step 3: per-changed-snake deltas, in position -> rotation -> fullness order.
	for _, id := range w.ChangedSnakes {
		other, ok := w.Snakes[id]
		if !ok {
			continue
		}
		oh := other.Body[0]
		cx, cy := w.Grid.WorldToSector(oh.X, oh.Y)
		if !visibleCells[[2]int{cx, cy}] {
			continue
		}
		own := id == sess.SnakeID

		if !sess.KnowsSnake(id) {
			send(encodeAddSnake(other))
			sess.MarkSnakeKnown(id)
			continue
		}

		if other.Changes.has(ChangePos) {
			send(encodeMove(other, own))
		}
		if other.Changes.has(ChangeAngle) || other.Changes.has(ChangeTargetAngle) {
			send(encodeRotation(other, own))
		}
		if other.Changes.has(ChangeFullness) {
			send(wire.SetFullness{ID: id, Fullness: normalizedFullness(other)}.Encode())
		}
		if other.Changes.has(ChangeDead) {
			status := uint8(1)
			send(wire.RemoveSnake{ID: id, Status: status}.Encode())
		}
	}

	// Step 3b: death notifications (spec.md section 7): 'k' to the killer (if
	// any), 'v' game-end to the dying snake. These are routed to the
	// participants directly and not gated on viewport visibility like the
	// RemoveSnake broadcast above — a snake's own death and a scored kill are
	// always relevant to the two sessions involved.
	for _, id := range w.ChangedSnakes {
		dead, ok := w.Snakes[id]
		if !ok || !dead.Changes.has(ChangeDead) {
			continue
		}
		if id == sess.SnakeID {
			send(wire.GameEnd{Status: 0}.Encode())
		}
		if dead.KillerID != 0 && dead.KillerID == sess.SnakeID {
			if killer, ok := w.Snakes[dead.KillerID]; ok {
				send(wire.KillNotify{KillerID: killer.ID, TotalKills: uint32(killer.Kills)}.Encode())
			}
		}
	}

	// Step 4: eaten food.
	for _, ef := range w.EatenFood {
		sx, sy := ef.Food.CellX, ef.Food.CellY
		if !visibleCells[[2]int{sx, sy}] {
			continue
		}
		rx, ry := foodRelCoords(ef.Food)
		if ef.EaterID != 0 && ef.EaterID != sess.SnakeID {
			send(wire.EatFood{SX: uint8(sx), SY: uint8(sy), RX: rx, RY: ry, HasKiller: true, KillerID: ef.EaterID}.Encode())
		} else {
			send(wire.EatFood{SX: uint8(sx), SY: uint8(sy), RX: rx, RY: ry}.Encode())
		}
	}

	// Step 5: new food whose cell is visible.
	for _, f := range w.NewFood {
		if !visibleCells[[2]int{f.CellX, f.CellY}] {
			continue
		}
		rx, ry := foodRelCoords(f)
		send(wire.AddFood{Spawn: true, SX: uint8(f.CellX), SY: uint8(f.CellY), RX: rx, RY: ry, Color: f.Color, Size: f.Size}.Encode())
	}
}

// DispatchLeaderboard emits the top-10 leaderboard, called every LEADERBOARD_MS.
func (d *Dispatcher) DispatchLeaderboard(sess *Session, send outFn) {
	w := d.world
	type ranked struct {
		s    *Snake
		rank int
	}
	var alive []*Snake
	for _, s := range w.Snakes {
		if s.Alive {
			alive = append(alive, s)
		}
	}
	sortSnakesByScoreDesc(alive)
	if len(alive) > 10 {
		alive = alive[:10]
	}
	playerRank := uint8(0)
	for i, s := range alive {
		if s.ID == sess.SnakeID {
			playerRank = uint8(i + 1)
		}
	}
	entries := make([]wire.LeaderboardEntry, 0, len(alive))
	for _, s := range alive {
		entries = append(entries, wire.LeaderboardEntry{
			Parts: uint16(len(s.Body)), Fullness: normalizedFullness(s),
			FontColor: s.Skin, Name: s.Name,
		})
	}
	send(wire.Leaderboard{
		PlayerRank: playerRank, LocalRank: uint16(playerRank), PlayerCount: uint16(len(w.Snakes)),
		Entries: entries,
	}.Encode())
}

// DispatchMinimap emits the 80x80 minimap bitmap, called every MINIMAP_MS.
func (d *Dispatcher) DispatchMinimap(sess *Session, send outFn, modern bool) {
	const gridSize = 80
	cells := make(map[[2]int]bool)
	scale := float32(gridSize) / (2 * GameRadius)
	for _, s := range d.world.Snakes {
		if !s.Alive {
			continue
		}
		h := s.Body[0]
		x := int((h.X + GameRadius) * scale)
		y := int((h.Y + GameRadius) * scale)
		if x >= 0 && x < gridSize && y >= 0 && y < gridSize {
			cells[[2]int{x, y}] = true
		}
	}
	bitmap := wire.PackMinimapBitmap(gridSize, cells)
	send(wire.Minimap{Modern: modern, GridSize: gridSize, Bitmap: bitmap}.Encode())
}

func normalizedFullness(s *Snake) float32 {
	return s.Fullness / FullnessScale
}

func foodRelCoords(f *Food) (uint8, uint8) {
	sx0 := float32(f.CellX) * SectorSize
	sy0 := float32(f.CellY) * SectorSize
	rx := clampF32((f.X-sx0)*256/SectorSize, 0, 255)
	ry := clampF32((f.Y-sy0)*256/SectorSize, 0, 255)
	return uint8(rx), uint8(ry)
}

func encodeSetFood(grid *SpatialGrid, cx, cy int) []byte {
	items := make([]wire.FoodInSector, 0)
	for _, f := range grid.FoodAt(cx, cy) {
		rx, ry := foodRelCoords(f)
		items = append(items, wire.FoodInSector{Color: f.Color, RX: rx, RY: ry, Size: f.Size})
	}
	return wire.SetFood{SX: uint8(cx), SY: uint8(cy), Items: items}.Encode()
}

func encodeAddSnake(s *Snake) []byte {
	tail := s.Body[len(s.Body)-1]
	deltas := make([]wire.BodyDelta, 0, len(s.Body)-1)
	for i := len(s.Body) - 2; i >= 0; i-- {
		prev := s.Body[i+1]
		cur := s.Body[i]
		dx := clampDelta(cur.X - prev.X)
		dy := clampDelta(cur.Y - prev.Y)
		deltas = append(deltas, wire.BodyDelta{DX: dx, DY: dy})
	}
	return wire.AddSnake{
		ID: s.ID, Angle: s.Angle, TargetAngle: s.TargetAngle, Speed: s.Speed,
		Fullness: normalizedFullness(s), Skin: s.Skin,
		HeadX: s.Body[0].X, HeadY: s.Body[0].Y, Name: s.Name,
		TailX: tail.X, TailY: tail.Y, Deltas: deltas,
	}.Encode()
}

// clampDelta implements spec.md's u8 dx = clamp((x-prev)*2+127, 0, 255); large
// spacings (>63 units) are silently clamped, matching spec.md's stated
// behavior with no invented fallback (SPEC_FULL.md section 10, resolution 2).
func clampDelta(d float32) uint8 {
	v := d*2 + 127
	return uint8(clampF32(v, 0, 255))
}

func encodeMove(s *Snake, own bool) []byte {
	dx := s.Body[0].X - s.PrevHeadX
	dy := s.Body[0].Y - s.PrevHeadY
	if dx > -128 && dx < 128 && dy > -128 && dy < 128 {
		idx := int(dx)
		idy := int(dy)
		if own {
			return wire.RelMoveOwn{DX: idx, DY: idy}.Encode()
		}
		return wire.RelMoveOther{ID: s.ID, DX: idx, DY: idy}.Encode()
	}
	x := clampU16(s.Body[0].X)
	y := clampU16(s.Body[0].Y)
	if own {
		return wire.AbsMoveOwn{X: x, Y: y}.Encode()
	}
	return wire.AbsMoveOther{ID: s.ID, X: x, Y: y}.Encode()
}

func clampU16(v float32) uint16 {
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v)
}

// encodeRotation implements the full 5-way selection table of spec.md section
// 4.5 (SPEC_FULL.md section 10, resolution 4): both angle and target-angle
// are included whenever they both changed this tick, matching the reference
// server's observed behavior, but the narrower single-field variants are
// still reachable when only one of the two changed.
func encodeRotation(s *Snake, own bool) []byte {
	cw := angleDiff(s.Angle, s.TargetAngle) < 0
	includeAngle := s.Changes.has(ChangeAngle)
	includeTarget := s.Changes.has(ChangeTargetAngle)
	if !includeAngle && !includeTarget {
		includeAngle = true
	}
	return wire.Rotation{
		ID: s.ID, Clockwise: cw, IncludeAngle: includeAngle, IncludeTarget: includeTarget,
		Angle: s.Angle, Target: s.TargetAngle, Speed: s.Speed,
	}.Encode()
}

func sortSnakesByScoreDesc(s []*Snake) {
	for i := 1; i < len(s); i++ {
		j := i
		for j > 0 && s[j-1].Score() < s[j].Score() {
			s[j-1], s[j] = s[j], s[j-1]
			j--
		}
	}
}

package engine

import (
	"sort"
	"sync"
)

// World owns all snakes and food exclusively (spec.md section 3). Shape
// grounded in sonpython-slether/world.go's sync.RWMutex-guarded map-of-state
// convention and server/game.go's tick() orchestration, re-derived to
// spec.md's exact per-tick ordering (section 4.6).
type World struct {
	mu sync.RWMutex

	cfg Config

	Snakes map[uint16]*Snake
	Food   map[*Food]bool // set, keyed by pointer identity
	Grid   *SpatialGrid
	RNG    *RNG

	nextSnakeID uint16
	Tick        uint64
	Frame       uint64

	// Per-tick scratch lists, cleared at the start of each tick.
	ChangedSnakes []uint16
	NewFood       []*Food
	EatenFood     []EatenFood

	totalFoodTarget int

	// Inbound queues, drained at the start of each tick by the tick task
	// only (spec.md section 5: single authoritative writer). Shape grounded
	// in the teacher's inputCh/joinCh/leaveCh/respawnCh channel set.
	IntentCh  chan SnakeIntent
	JoinCh    chan JoinRequest
	LeaveCh   chan uint16
}

// IntentKind discriminates the three mutations spec.md section 4.8 allows.
type IntentKind int

const (
	IntentAngle IntentKind = iota
	IntentRotation
	IntentAccel
)

// SnakeIntent is a queued inbound mutation, applied under the World lock at
// the start of the tick that drains it.
type SnakeIntent struct {
	SnakeID   uint16
	Kind      IntentKind
	Angle     float32
	Clockwise bool
	Intensity uint8
	On        bool // for IntentAccel
}

// JoinRequest asks the World to create a snake for a newly-connected session.
type JoinRequest struct {
	Name  string
	Skin  uint8
	Reply chan uint16 // receives the assigned snake id
}

// EatenFood pairs an eater with the food it consumed, for the dispatcher's
// EatFood/killer-variant emission (spec.md section 4.7 step 4).
type EatenFood struct {
	EaterID uint16 // 0 = no eater recorded (shouldn't normally happen)
	Food    *Food
}

// NewWorld seeds the deterministic RNG with a fixed constant (matching
// original_source's World::new, which hardcodes 12345 rather than the RNG's
// own default seed) so repeated runs with identical input streams reproduce
// bit-identical state.
func NewWorld(cfg Config) *World {
	w := &World{
		cfg:             cfg,
		Snakes:          make(map[uint16]*Snake),
		Food:            make(map[*Food]bool),
		Grid:            NewSpatialGrid(SectorCount, SectorSize),
		RNG:             NewRNG(12345),
		nextSnakeID:     1,
		totalFoodTarget: SectorCount * 50,
		IntentCh:        make(chan SnakeIntent, 4096),
		JoinCh:          make(chan JoinRequest, 64),
		LeaveCh:         make(chan uint16, 64),
	}
	for i := 0; i < w.totalFoodTarget; i++ {
		w.spawnFood()
	}
	for i := 0; i < cfg.Bots; i++ {
		w.SpawnBot()
	}
	return w
}

// sortedSnakeIDs returns every snake id in ascending order. Go's map range
// order is randomized per call, so any pass that consumes w.RNG or otherwise
// produces order-sensitive state (food contention, cell-capacity drops) must
// iterate this stable order instead of ranging w.Snakes directly (spec.md
// section 4.1/8's determinism property).
func (w *World) sortedSnakeIDs() []uint16 {
	ids := make([]uint16, 0, len(w.Snakes))
	for id := range w.Snakes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// drainQueues applies every queued join/leave/intent message without
// blocking, mirroring the teacher's drainMessages select-with-default
// pattern. Only the tick task calls this, preserving the single-writer
// invariant (spec.md section 5).
func (w *World) drainQueues() {
	for {
		select {
		case req := <-w.JoinCh:
			s := w.AddSnake(req.Name, req.Skin, false)
			if req.Reply != nil {
				req.Reply <- s.ID
			}
		case id := <-w.LeaveCh:
			w.RemoveSnake(id)
		case in := <-w.IntentCh:
			w.applyIntent(in)
		default:
			return
		}
	}
}

func (w *World) applyIntent(in SnakeIntent) {
	s, ok := w.Snakes[in.SnakeID]
	if !ok || !s.Alive {
		return
	}
	switch in.Kind {
	case IntentAngle:
		s.SetIntentAngle(in.Angle)
	case IntentRotation:
		s.SetIntentRotation(in.Clockwise, in.Intensity)
	case IntentAccel:
		s.SetAccelerating(in.On)
	}
}

func (w *World) spawnFood() *Food {
	f := newRandomFood(w.RNG, 0.95*GameRadius)
	if w.Grid.InsertFood(f) {
		w.Food[f] = true
		return f
	}
	return nil
}

// AddSnake assigns the next dense 16-bit id and registers the snake. Caller
// must hold the World lock (spec.md's "created by World on client join or bot
// spawn").
func (w *World) AddSnake(name string, skin uint8, isBot bool) *Snake {
	id := w.nextSnakeID
	w.nextSnakeID++
	x := w.RNG.NextRangeF32(-GameRadius*0.5, GameRadius*0.5)
	y := w.RNG.NextRangeF32(-GameRadius*0.5, GameRadius*0.5)
	angle := w.RNG.NextRangeF32(0, 2*3.14159265)
	s := NewSnake(id, name, skin, isBot, x, y, angle, w.RNG)
	w.Snakes[id] = s
	cx, cy := w.Grid.WorldToSector(x, y)
	s.CellX, s.CellY = cx, cy
	w.Grid.InsertSnakeHead(id, cx, cy)
	return s
}

func (w *World) SpawnBot() *Snake {
	name := botNames[w.RNG.NextIntN(len(botNames))]
	return w.AddSnake(name, uint8(w.RNG.NextIntN(12)), true)
}

var botNames = [...]string{
	"Viper", "Cobra", "Mamba", "Python", "Anaconda",
	"Rattler", "Boa", "Adder", "Asp", "Krait",
	"Taipan", "Coral", "Sidewinder", "Copperhead", "King",
}

// RemoveSnake removes a snake from the mapping and grid (on disconnect or
// after death acknowledgment).
func (w *World) RemoveSnake(id uint16) {
	s, ok := w.Snakes[id]
	if !ok {
		return
	}
	w.Grid.RemoveSnakeHead(id, s.CellX, s.CellY)
	delete(w.Snakes, id)
}

func (w *World) Lock()    { w.mu.Lock() }
func (w *World) Unlock()  { w.mu.Unlock() }
func (w *World) RLock()   { w.mu.RLock() }
func (w *World) RUnlock() { w.mu.RUnlock() }

// Advance runs one full tick (spec.md section 4.6). Caller must hold the
// exclusive World lock; this is the only function that mutates World state,
// matching the single-writer tick-task model of section 5.
func (w *World) Advance(dtMs float32) {
	w.Tick++
	w.Frame++
	w.ChangedSnakes = w.ChangedSnakes[:0]
	w.NewFood = w.NewFood[:0]
	w.EatenFood = w.EatenFood[:0]

	// Step 1: clear last tick's per-snake change-sets, then drain and apply
	// queued join/leave/intent messages so any target-angle mutation this
	// tick survives into this tick's ChangedSnakes rather than being wiped
	// by next tick's clear.
	for _, s := range w.Snakes {
		s.Changes = 0
		s.FoodsEaten = s.FoodsEaten[:0]
	}
	w.drainQueues()

	// Step 2: per-snake advance + AI + grid update. Iterated in id-sorted
	// order, not map range order: StepAI draws from the shared w.RNG, and Go
	// randomizes map-range order per call, which would make the RNG draw
	// sequence (and therefore tick_count -> state) non-reproducible across
	// runs with >=1 bot (spec.md section 4.1/8's determinism property).
	ids := w.sortedSnakeIDs()
	for _, id := range ids {
		s := w.Snakes[id]
		if !s.Alive {
			continue
		}
		oldCX, oldCY := s.CellX, s.CellY
		if s.IsBot {
			s.StepAI(dtMs, w.RNG)
		}
		s.Advance(dtMs, GameRadius, w.RNG)
		if s.Dying && s.Alive {
			// Boundary death (spec.md section 4.4 step 6): dying -> dead at
			// the end of the same tick it touched the death radius, with no
			// killer.
			s.Kill(w.RNG, 0)
		}
		newCX, newCY := w.Grid.WorldToSector(s.Body[0].X, s.Body[0].Y)
		if newCX != oldCX || newCY != oldCY {
			w.Grid.UpdateSnakeCell(id, oldCX, oldCY, newCX, newCY)
			s.CellX, s.CellY = newCX, newCY
		}
		if s.Changes != 0 {
			w.ChangedSnakes = append(w.ChangedSnakes, id)
		}
	}

	// Step 3: collision pass, both directions evaluated independently so a
	// head-on collision can kill both snakes in the same tick. Same
	// id-sorted order as step 2, since Kill draws from w.RNG to scatter
	// food.
	for i := 0; i < len(ids); i++ {
		a := w.Snakes[ids[i]]
		if a == nil || !a.Alive {
			continue
		}
		for j := i + 1; j < len(ids); j++ {
			b := w.Snakes[ids[j]]
			if b == nil || !b.Alive {
				continue
			}
			if a.CollidesWith(b) {
				b.Kills++
				a.Kill(w.RNG, b.ID)
			}
			if !b.Alive {
				continue
			}
			if b.CollidesWith(a) {
				a.Kills++
				b.Kill(w.RNG, a.ID)
			}
		}
	}

	// Step 4: eating pass, same id-sorted order: when two snakes contend for
	// the same food item, map range order would otherwise make the winner
	// non-deterministic.
	for _, id := range ids {
		s := w.Snakes[id]
		if !s.Alive {
			continue
		}
		head := s.Body[0]
		bodyR := HeadCircleRadius * s.scale()
		nearby := w.Grid.FoodNear(head.X, head.Y, bodyR+10)
		for _, f := range nearby {
			if distSq32(head.X, head.Y, f.X, f.Y) > (bodyR+f.Radius())*(bodyR+f.Radius()) {
				continue
			}
			w.Grid.RemoveFoodAt(f)
			delete(w.Food, f)
			s.Eat(f)
			w.EatenFood = append(w.EatenFood, EatenFood{EaterID: id, Food: f})
		}
	}

	// Step 5: food spawning, rate-limited.
	for spawned := 0; len(w.Food) < w.totalFoodTarget && spawned < FoodSpawnRate; spawned++ {
		if f := w.spawnFood(); f != nil {
			w.NewFood = append(w.NewFood, f)
		}
	}

	// Step 6: process dead snakes, scattering their foods_spawned, same
	// id-sorted order: cell-capacity drops would otherwise depend on map
	// range order.
	for _, id := range ids {
		s := w.Snakes[id]
		if s.Alive || len(s.FoodsSpawned) == 0 {
			continue
		}
		for _, f := range s.FoodsSpawned {
			if w.Grid.InsertFood(f) {
				w.Food[f] = true
				w.NewFood = append(w.NewFood, f)
			}
		}
		s.FoodsSpawned = nil
	}

	// Step 7: bot respawn, at most one per tick.
	if w.cfg.BotRespawn {
		aliveBots := 0
		for _, s := range w.Snakes {
			if s.IsBot && s.Alive {
				aliveBots++
			}
		}
		if aliveBots < w.cfg.Bots {
			w.SpawnBot()
		}
	}
}

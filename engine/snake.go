package engine

import "math"

// SnakeChanges is the per-snake change-flags bitset (spec.md section 3).
type SnakeChanges uint8

const (
	ChangePos SnakeChanges = 1 << iota
	ChangeAngle
	ChangeTargetAngle
	ChangeSpeed
	ChangeFullness
	ChangeDying
	ChangeDead
)

func (c SnakeChanges) has(f SnakeChanges) bool { return c&f != 0 }

// BodyPart is a value-typed (x,y) owned by its Snake (spec.md section 3).
type BodyPart struct {
	X, Y float32
}

// Snake is mutated only inside World.advance or by the intent setters called
// from the dispatcher (spec.md section 3). Shape grounded in the teacher's
// server/game.go Snake struct, re-derived to spec.md's exact fields/formulas.
type Snake struct {
	ID          uint16
	Name        string
	Skin        uint8
	IsBot       bool

	Body []BodyPart // head first

	Angle       float32
	TargetAngle float32
	Speed       float32
	Accelerating bool
	Fullness    float32

	rotAccumMs float32
	aiAccumMs  float32

	PrevHeadX, PrevHeadY float32

	Changes SnakeChanges

	FoodsEaten   []*Food
	FoodsSpawned []*Food

	Alive bool
	Dying bool

	Kills    int
	KillerID uint16 // 0 = no killer (e.g. boundary death); set by Kill

	CellX, CellY int

	aiState      string
	aiStateTimer int
	aiTargetAngle float32
}

// NewSnake creates a freshly-spawned snake with BaseSnakeLen-equivalent body:
// spec.md doesn't fix an initial length constant beyond requiring body len >=2,
// so the starting length mirrors the teacher's BaseSnakeLen=10 convention.
func NewSnake(id uint16, name string, skin uint8, isBot bool, x, y, angle float32, rng *RNG) *Snake {
	const startLen = 10
	body := make([]BodyPart, startLen)
	for i := range body {
		d := float32(i) * TailStepDistance
		body[i] = BodyPart{X: x - cos32(angle)*d, Y: y - sin32(angle)*d}
	}
	s := &Snake{
		ID: id, Name: name, Skin: skin, IsBot: isBot,
		Body: body, Angle: angle, TargetAngle: angle, Speed: BaseSpeed,
		Alive: true, aiState: "wander", aiTargetAngle: angle,
	}
	_ = rng
	return s
}

func (s *Snake) Head() BodyPart { return s.Body[0] }

// scale implements spec.md's scale(S) = 1 + 0.5*min(fullness/10000, 2).
func (s *Snake) scale() float32 {
	f := s.Fullness / 10000
	if f > 2 {
		f = 2
	}
	return 1 + 0.5*f
}

func (s *Snake) headRadius() float32 { return HeadCircleRadius * s.scale() }

// Score implements spec.md's max(1, floor((15*(parts-1) + fullness/16777215)/3 - 8)).
func (s *Snake) Score() int {
	parts := len(s.Body)
	v := (15*float64(parts-1) + float64(s.Fullness)/FullnessScale) / 3 - 8
	iv := int(math.Floor(v))
	if iv < 1 {
		return 1
	}
	return iv
}

// targetBodyLen implements spec.md's min(floor(fullness/100), 500) + 10.
func (s *Snake) targetBodyLen() int {
	t := int(s.Fullness/100) + 10
	if t > 510 {
		t = 510
	}
	return t
}

// SetIntentAngle implements the Angle intent command (spec.md section 4.8).
func (s *Snake) SetIntentAngle(a float32) {
	s.TargetAngle = normalizeAngle(a)
	s.Changes |= ChangeTargetAngle
}

// SetIntentRotation implements the Rotation intent command: target_angle
// adjusted by +/- pi*(intensity/127)*0.1, clockwise -> negative delta.
func (s *Snake) SetIntentRotation(clockwise bool, intensity uint8) {
	turn := float32(math.Pi) * float32(intensity) / 127 * 0.1
	if clockwise {
		turn = -turn
	}
	s.TargetAngle = normalizeAngle(s.TargetAngle + turn)
}

func (s *Snake) SetAccelerating(on bool) { s.Accelerating = on }

// Advance runs one tick of spec.md section 4.4 for this snake. gameRadius is
// passed in since the death-radius check depends on world configuration.
// Advance assumes the caller (World.Advance) has already cleared Changes and
// FoodsEaten for this tick and applied any queued intent mutations, so that
// an intent-triggered ChangeTargetAngle survives into this tick's dispatch
// instead of being wiped by a same-tick clear.
func (s *Snake) Advance(dtMs float32, gameRadius float32, rng *RNG) {
	// 2. Rotation: step heading at most once per ROT_STEP_INTERVAL ms.
	s.rotAccumMs += dtMs
	for s.rotAccumMs >= RotStepIntervalMs {
		s.rotAccumMs -= RotStepIntervalMs
		newAngle := moveTowardsAngle(s.Angle, s.TargetAngle, AngularStep)
		if newAngle != s.Angle {
			s.Angle = newAngle
			s.Changes |= ChangeAngle
		}
	}

	// 3. Speed: lerp toward target at most SPEED_ACCEL*dt/1000.
	targetSpeed := float32(BaseSpeed)
	if s.Accelerating {
		targetSpeed = BoostSpeed
	}
	maxDelta := SpeedAccel * dtMs / 1000
	prevSpeed := s.Speed
	if targetSpeed > s.Speed {
		s.Speed = clampF32(s.Speed+maxDelta, s.Speed, targetSpeed)
	} else if targetSpeed < s.Speed {
		s.Speed = clampF32(s.Speed-maxDelta, targetSpeed, s.Speed)
	}
	if s.Speed != prevSpeed {
		s.Changes |= ChangeSpeed
	}

	// 4. Translate head.
	s.PrevHeadX, s.PrevHeadY = s.Body[0].X, s.Body[0].Y
	step := s.Speed * dtMs / 1000
	s.Body[0].X += step * cos32(s.Angle)
	s.Body[0].Y += step * sin32(s.Angle)
	s.Changes |= ChangePos

	// 5. Tail propagation, one pass from head.
	for i := 1; i < len(s.Body); i++ {
		prev := s.Body[i-1]
		d := dist32(s.Body[i].X, s.Body[i].Y, prev.X, prev.Y)
		if d > TailStepDistance {
			ratio := (d - TailStepDistance*TailK) / d
			s.Body[i].X += (prev.X - s.Body[i].X) * ratio
			s.Body[i].Y += (prev.Y - s.Body[i].Y) * ratio
		}
	}

	// 6. Death radius.
	if dist32(0, 0, s.Body[0].X, s.Body[0].Y) > 0.98*gameRadius {
		s.Dying = true
		s.Changes |= ChangeDying
	}

	// 7. Boost cost.
	if s.Accelerating && s.Fullness >= BoostCost {
		s.Fullness -= BoostCost
		s.Changes |= ChangeFullness
	}

	// Growth.
	target := s.targetBodyLen()
	for len(s.Body) < target && len(s.Body) < MaxSnakeParts {
		tail := s.Body[len(s.Body)-1]
		s.Body = append(s.Body, tail)
	}
}

// Eat applies food value f to fullness, recording it for the dispatcher.
func (s *Snake) Eat(f *Food) {
	s.Fullness += f.Value()
	s.Changes |= ChangeFullness
	s.FoodsEaten = append(s.FoodsEaten, f)
}

// CollidesWith implements spec.md's collision test: bounding-circle prefilter,
// then per-body-part circle overlap of the caller's head against other's body
// starting at PartsSkipCount, with a segment/circle test between consecutive
// parts as the secondary refinement spec.md section 4.1 calls out — a fast
// head can otherwise pass between two part centers without either circle
// test registering.
func (s *Snake) CollidesWith(other *Snake) bool {
	hr := s.headRadius()
	maxReach := float32(len(other.Body)) * TailStepDistance
	if !circlesOverlap(s.Body[0].X, s.Body[0].Y, hr, other.Body[0].X, other.Body[0].Y, maxReach+hr) {
		return false
	}
	otherR := HeadCircleRadius * other.scale()
	head := s.Body[0]
	for i := PartsSkipCount; i < len(other.Body); i++ {
		p := other.Body[i]
		if circlesOverlap(head.X, head.Y, hr, p.X, p.Y, otherR) {
			return true
		}
		if i > PartsSkipCount {
			prev := other.Body[i-1]
			if segmentCircleIntersect(prev.X, prev.Y, p.X, p.Y, head.X, head.Y, hr+otherR) {
				return true
			}
		}
	}
	return false
}

// Kill transitions dying -> dead within the same tick, scattering food along
// the body (spec.md section 4.4 Death). killerID is the id of the snake whose
// body this snake's head collided with, or 0 for a killer-less death (e.g.
// the game-radius boundary) — the dispatcher uses it to route the 'k' kill
// notification (spec.md section 7).
func (s *Snake) Kill(rng *RNG, killerID uint16) {
	if !s.Alive {
		return
	}
	s.Alive = false
	s.Dying = true
	s.KillerID = killerID
	s.Changes |= ChangeDead
	s.FoodsSpawned = s.FoodsSpawned[:0]
	for _, p := range s.Body {
		s.FoodsSpawned = append(s.FoodsSpawned, newFoodNear(rng, p.X, p.Y, 20))
	}
}

// StepAI perturbs TargetAngle by up to +/-pi/2 every AI_STEP_INTERVAL of bot
// time, per spec.md's design notes: this is an intentional placeholder, left
// as-is with room for richer behavior.
func (s *Snake) StepAI(dtMs float32, rng *RNG) {
	if !s.IsBot {
		return
	}
	s.aiAccumMs += dtMs
	for s.aiAccumMs >= AIStepIntervalMs {
		s.aiAccumMs -= AIStepIntervalMs
		s.aiTargetAngle = normalizeAngle(s.aiTargetAngle + rng.NextRangeF32(-math.Pi/2, math.Pi/2))
		s.TargetAngle = s.aiTargetAngle
	}
}

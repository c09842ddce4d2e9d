package engine

import "math"

// Food is (x,y) truncated to 16-bit world units, size 5-14, color 0-27, and
// implicit value = 2*size (spec.md section 3). Owned by exactly one grid cell
// while alive, tracked via CellX/CellY so RemoveFoodAt is O(1) to locate.
type Food struct {
	X, Y         float32
	Size         uint8 // 5-14
	Color        uint8 // 0-27
	CellX, CellY int
}

func (f *Food) Value() float32 { return 2 * float32(f.Size) }

func (f *Food) Radius() float32 { return float32(f.Size) * 0.7 }

// newRandomFood mirrors original_source's Food::random: uniform size/color
// within the full range, placed uniformly at random inside the given radius
// of world center.
func newRandomFood(rng *RNG, radius float32) *Food {
	angle := rng.NextRangeF32(0, 2*3.14159265)
	r := float32(math.Sqrt(float64(rng.NextF32()))) * radius
	x := r * cos32(angle)
	y := r * sin32(angle)
	return &Food{
		X: x, Y: y,
		Size:  uint8(5 + rng.NextIntN(10)),
		Color: uint8(rng.NextIntN(28)),
	}
}

// newFoodNear mirrors original_source's Food::near: smaller size range,
// used when scattering food from a dying snake's body. The offset is drawn
// in polar form (angle, then radius <= maxOffset) rather than independent
// per-axis deltas, so the resulting distance from (x,y) is guaranteed to be
// <= maxOffset (spec.md section 4.4's "random offset <= 20 world units").
func newFoodNear(rng *RNG, x, y float32, maxOffset float32) *Food {
	angle := rng.NextRangeF32(0, 2*3.14159265)
	r := rng.NextF32() * maxOffset
	ox := r * cos32(angle)
	oy := r * sin32(angle)
	return &Food{
		X: x + ox, Y: y + oy,
		Size:  uint8(5 + rng.NextIntN(6)),
		Color: uint8(rng.NextIntN(28)),
	}
}

package engine

import "testing"

// TestNewFoodNearStaysWithinOffset exercises the polar-offset bound directly
// (spec.md section 4.4: "random offset <= 20 world units"). Independent
// per-axis deltas would let the diagonal distance reach sqrt(2)*offset, so
// this asserts the radius itself, not just plausible-looking coordinates.
func TestNewFoodNearStaysWithinOffset(t *testing.T) {
	rng := NewRNG(42)
	const offset = float32(20)
	for i := 0; i < 1000; i++ {
		f := newFoodNear(rng, 100, 100, offset)
		if d := dist32(f.X, f.Y, 100, 100); d > offset {
			t.Fatalf("iteration %d: food at distance %v from origin, want <= %v", i, d, offset)
		}
	}
}

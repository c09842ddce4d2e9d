package engine

// SpatialGrid is a fixed N*N array of cells (spec.md section 4.3), combining
// sonpython-slether's spatial_grid.go hash-grid shape with
// original_source/src/game/sector.rs's bounded-capacity array — spec.md
// requires the latter (a fixed cell capacity for food) which the pack's
// unbounded-slice hash grid does not give for free.
type SpatialGrid struct {
	n        int
	cellSize float32
	cells    []cell
}

type cell struct {
	food   []*Food
	snakes map[uint16]bool
}

func NewSpatialGrid(n int, cellSize float32) *SpatialGrid {
	cells := make([]cell, n*n)
	for i := range cells {
		cells[i].snakes = make(map[uint16]bool)
	}
	return &SpatialGrid{n: n, cellSize: cellSize, cells: cells}
}

// WorldToSector clamps the cell index into [0,N). World coordinates are
// signed (world center is (0,0), per the glossary); the grid simply clamps
// the raw division rather than re-offsetting by +game_radius, so World,
// Snake, Food and SpatialGrid all share one coordinate convention (see
// SPEC_FULL.md section 10, open question 6).
func (g *SpatialGrid) WorldToSector(x, y float32) (int, int) {
	cx := clampInt(int(floor32(x/g.cellSize)), 0, g.n-1)
	cy := clampInt(int(floor32(y/g.cellSize)), 0, g.n-1)
	return cx, cy
}

func (g *SpatialGrid) idx(cx, cy int) int { return cy*g.n + cx }

func (g *SpatialGrid) cellAt(cx, cy int) *cell {
	return &g.cells[g.idx(clampInt(cx, 0, g.n-1), clampInt(cy, 0, g.n-1))]
}

// InsertFood adds f to its cell, dropping it silently if the cell is at
// capacity (spec.md: "Food insertion fails (drops) when the target cell is
// at capacity").
func (g *SpatialGrid) InsertFood(f *Food) bool {
	cx, cy := g.WorldToSector(f.X, f.Y)
	c := g.cellAt(cx, cy)
	if len(c.food) >= FoodCellCapacity {
		return false
	}
	f.CellX, f.CellY = cx, cy
	c.food = append(c.food, f)
	return true
}

// RemoveFoodNear removes the nearest food to (x,y) whose squared distance is
// within FoodRemoveTolSq, returning it (or nil).
func (g *SpatialGrid) RemoveFoodNear(x, y float32) *Food {
	cx, cy := g.WorldToSector(x, y)
	c := g.cellAt(cx, cy)
	best := -1
	bestD := float32(FoodRemoveTolSq)
	for i, f := range c.food {
		d := distSq32(x, y, f.X, f.Y)
		if d <= bestD {
			bestD = d
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	f := c.food[best]
	c.food[best] = c.food[len(c.food)-1]
	c.food = c.food[:len(c.food)-1]
	return f
}

// RemoveFoodAt removes a specific food item by identity from its cell.
func (g *SpatialGrid) RemoveFoodAt(f *Food) {
	c := g.cellAt(f.CellX, f.CellY)
	for i, o := range c.food {
		if o == f {
			c.food[i] = c.food[len(c.food)-1]
			c.food = c.food[:len(c.food)-1]
			return
		}
	}
}

func (g *SpatialGrid) FoodAt(cx, cy int) []*Food {
	return g.cellAt(cx, cy).food
}

// FoodNear returns all food within radius of (x,y), scanning the cells whose
// bounding square overlaps the query circle's bounding square.
func (g *SpatialGrid) FoodNear(x, y, radius float32) []*Food {
	var out []*Food
	minCX, minCY := g.WorldToSector(x-radius, y-radius)
	maxCX, maxCY := g.WorldToSector(x+radius, y+radius)
	r2 := radius * radius
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			for _, f := range g.cellAt(cx, cy).food {
				if distSq32(x, y, f.X, f.Y) <= r2 {
					out = append(out, f)
				}
			}
		}
	}
	return out
}

// UpdateSnakeCell removes id from oldCell and adds it to newCell only if the
// cell actually changed (spec.md section 4.3).
func (g *SpatialGrid) UpdateSnakeCell(id uint16, oldCX, oldCY, newCX, newCY int) {
	if oldCX == newCX && oldCY == newCY {
		return
	}
	delete(g.cellAt(oldCX, oldCY).snakes, id)
	g.cellAt(newCX, newCY).snakes[id] = true
}

func (g *SpatialGrid) InsertSnakeHead(id uint16, cx, cy int) {
	g.cellAt(cx, cy).snakes[id] = true
}

func (g *SpatialGrid) RemoveSnakeHead(id uint16, cx, cy int) {
	delete(g.cellAt(cx, cy).snakes, id)
}

// SectorsInViewport returns every cell whose bounding square overlaps the
// axis-aligned square of half-extent radius centered on (cx,cy).
func (g *SpatialGrid) SectorsInViewport(cx, cy, radius float32) [][2]int {
	minCX, minCY := g.WorldToSector(cx-radius, cy-radius)
	maxCX, maxCY := g.WorldToSector(cx+radius, cy+radius)
	var out [][2]int
	for y := minCY; y <= maxCY; y++ {
		for x := minCX; x <= maxCX; x++ {
			out = append(out, [2]int{x, y})
		}
	}
	return out
}

func floor32(v float32) float32 {
	i := int(v)
	if v < 0 && float32(i) != v {
		i--
	}
	return float32(i)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

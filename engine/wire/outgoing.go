package wire

// This file implements the full outgoing packet taxonomy of spec.md section
// 4.2. Each type is a tagged variant; Encode is a total function to bytes.
// Command byte is the discriminator, per spec.md's design notes.

// PreInitSecret is the fixed 163-byte handshake payload following '6'.
var PreInitSecret = make([]byte, 163)

type PreInit struct{}

func (PreInit) Encode() []byte {
	w := NewWriter().U8('6').RawBytes(PreInitSecret)
	return w.Bytes()
}

type Init struct {
	GameRadius     uint32 // u24
	MaxParts       uint16
	SectorSize     uint16
	SectorCount    uint16
	SpangDiv       float32 // *10 -> u8
	Nsp1, Nsp2, Nsp3 float32 // *100 -> u16
	AngSpeed       float32 // *1000 -> u16
	PreyAngSpeed   float32 // *1000 -> u16
	TailK          float32 // *1000 -> u16
	Protocol       uint8
	DefaultMsl     uint8
	YourSnakeID    uint16
}

func (p Init) Encode() []byte {
	w := NewWriter().U8('a').
		U24(p.GameRadius).
		U16(p.MaxParts).
		U16(p.SectorSize).
		U16(p.SectorCount).
		U8(uint8(p.SpangDiv * 10)).
		U16(uint16(p.Nsp1 * 100)).
		U16(uint16(p.Nsp2 * 100)).
		U16(uint16(p.Nsp3 * 100)).
		U16(uint16(p.AngSpeed * 1000)).
		U16(uint16(p.PreyAngSpeed * 1000)).
		U16(uint16(p.TailK * 1000)).
		U8(p.Protocol).
		U8(p.DefaultMsl).
		U16(p.YourSnakeID)
	return w.Bytes()
}

type Pong struct{}

func (Pong) Encode() []byte { return []byte{'p'} }

// BodyDelta is one tail-to-head clamped relative offset in an AddSnake body.
type BodyDelta struct{ DX, DY uint8 }

type AddSnake struct {
	ID          uint16
	Angle       float32
	TargetAngle float32
	Speed       float32 // wire: speed*1000/32
	Fullness    float32 // normalized [0,1]
	Skin        uint8
	HeadX, HeadY float32 // wire: *5
	Name        string
	CustomSkin  []byte
	TailX, TailY float32 // wire: *5
	Deltas      []BodyDelta // tail-1 .. head
}

func (p AddSnake) Encode() []byte {
	w := NewWriter().U8('s').
		U16(p.ID).
		Angle24(p.Angle).
		U8(48).
		Angle24(p.TargetAngle).
		U16(uint16(p.Speed * 1000 / 32)).
		FP24(p.Fullness).
		U8(p.Skin).
		U24(uint32(p.HeadX * 5)).
		U24(uint32(p.HeadY * 5)).
		PString(p.Name).
		U8(uint8(len(p.CustomSkin))).
		RawBytes(p.CustomSkin).
		U8(255).
		U24(uint32(p.TailX * 5)).
		U24(uint32(p.TailY * 5))
	for _, d := range p.Deltas {
		w.U8(d.DX).U8(d.DY)
	}
	return w.Bytes()
}

// RemoveSnake is distinguished from AddSnake by payload length (this packet
// is always 4 bytes: 's' + id(2) + status(1)).
type RemoveSnake struct {
	ID     uint16
	Status uint8 // 0=left, 1=died
}

func (p RemoveSnake) Encode() []byte {
	return NewWriter().U8('s').U16(p.ID).U8(p.Status).Bytes()
}

type AbsMoveOther struct {
	ID   uint16
	X, Y uint16
}

func (p AbsMoveOther) Encode() []byte {
	return NewWriter().U8('g').U16(p.ID).U16(p.X).U16(p.Y).Bytes()
}

// AbsMoveOwn is distinguished from AbsMoveOther by payload length (5 vs 7).
type AbsMoveOwn struct{ X, Y uint16 }

func (p AbsMoveOwn) Encode() []byte {
	return NewWriter().U8('g').U16(p.X).U16(p.Y).Bytes()
}

type RelMoveOther struct {
	ID     uint16
	DX, DY int
}

func (p RelMoveOther) Encode() []byte {
	return NewWriter().U8('G').U16(p.ID).RelativeCoord(p.DX).RelativeCoord(p.DY).Bytes()
}

type RelMoveOwn struct{ DX, DY int }

func (p RelMoveOwn) Encode() []byte {
	return NewWriter().U8('G').RelativeCoord(p.DX).RelativeCoord(p.DY).Bytes()
}

// MoveWithFullness covers 'n' (absolute) and 'N' (relative) variants.
type MoveWithFullness struct {
	Relative bool
	Own      bool
	ID       uint16
	X, Y     uint16 // absolute
	DX, DY   int     // relative
	Fullness float32
}

func (p MoveWithFullness) Encode() []byte {
	cmd := byte('n')
	if p.Relative {
		cmd = 'N'
	}
	w := NewWriter().U8(cmd)
	if !p.Own {
		w.U16(p.ID)
	}
	if p.Relative {
		w.RelativeCoord(p.DX).RelativeCoord(p.DY)
	} else {
		w.U16(p.X).U16(p.Y)
	}
	w.FP24(p.Fullness)
	return w.Bytes()
}

type SetFullness struct {
	ID       uint16
	Fullness float32
}

func (p SetFullness) Encode() []byte {
	return NewWriter().U8('h').U16(p.ID).FP24(p.Fullness).Bytes()
}

type RemovePart struct {
	ID       uint16
	Fullness float32
}

func (p RemovePart) Encode() []byte {
	return NewWriter().U8('r').U16(p.ID).FP24(p.Fullness).Bytes()
}

// Rotation implements the 5-way command-byte selection of spec.md section 4.5,
// expressed as a lookup table keyed by (clockwise, includeAngle, includeTarget)
// per the design notes, rather than collapsing to one always-both-flags case.
type Rotation struct {
	ID            uint16
	Clockwise     bool
	IncludeAngle  bool
	IncludeTarget bool
	Angle         float32
	Target        float32
	Speed         float32 // wire: floor(speed/18)
}

var rotationCmdTable = map[[3]bool]byte{
	{true, true, true}:    '4',
	{true, false, false}:  '5',
	{false, true, true}:   'e',
	{false, true, false}:  '3',
	{false, false, false}: 'E',
}

func (p Rotation) cmd() byte {
	key := [3]bool{p.Clockwise, p.IncludeAngle, p.IncludeTarget}
	if c, ok := rotationCmdTable[key]; ok {
		return c
	}
	// Fallback for combinations spec.md's table leaves unspecified
	// (e.g. CW with target but no angle): nearest documented variant.
	if p.Clockwise {
		return '5'
	}
	return 'E'
}

func (p Rotation) Encode() []byte {
	w := NewWriter().U8(p.cmd()).U16(p.ID)
	if p.IncludeAngle {
		w.Angle8(p.Angle)
	}
	if p.IncludeTarget {
		w.Angle8(p.Target)
	}
	w.U8(uint8(p.Speed / 18))
	return w.Bytes()
}

type AddSector struct{ SX, SY uint8 }

func (p AddSector) Encode() []byte { return NewWriter().U8('W').U8(p.SX).U8(p.SY).Bytes() }

type RemoveSector struct{ SX, SY uint8 }

func (p RemoveSector) Encode() []byte { return NewWriter().U8('w').U8(p.SX).U8(p.SY).Bytes() }

// FoodInSector is one entry in a SetFood packet.
type FoodInSector struct {
	Color  uint8
	RX, RY uint8
	Size   uint8 // wire: size*5
}

type SetFood struct {
	SX, SY uint8
	Items  []FoodInSector
}

func (p SetFood) Encode() []byte {
	w := NewWriter().U8('F').U8(p.SX).U8(p.SY)
	for _, it := range p.Items {
		w.U8(it.Color).U8(it.RX).U8(it.RY).U8(it.Size * 5)
	}
	return w.Bytes()
}

// AddFood covers 'f' (spawned) and 'b' (eaten-then-regrown single food) — both
// share the same payload shape and differ only by the command byte the
// dispatcher selects.
type AddFood struct {
	Spawn  bool // true -> 'f', false -> 'b'
	SX, SY uint8
	RX, RY uint8
	Color  uint8
	Size   uint8
}

func (p AddFood) Encode() []byte {
	cmd := byte('f')
	if !p.Spawn {
		cmd = 'b'
	}
	return NewWriter().U8(cmd).U8(p.SX).U8(p.SY).U8(p.RX).U8(p.RY).U8(p.Color).U8(p.Size * 5).Bytes()
}

// EatFood covers 'c' (no killer) and '<' (with killer id).
type EatFood struct {
	SX, SY uint8
	RX, RY uint8
	HasKiller bool
	KillerID  uint16
}

func (p EatFood) Encode() []byte {
	cmd := byte('c')
	if p.HasKiller {
		cmd = '<'
	}
	w := NewWriter().U8(cmd).U8(p.SX).U8(p.SY).U8(p.RX).U8(p.RY)
	if p.HasKiller {
		w.U16(p.KillerID)
	}
	return w.Bytes()
}

type LeaderboardEntry struct {
	Parts      uint16
	Fullness   float32
	FontColor  uint8
	Name       string
}

type Leaderboard struct {
	PlayerRank  uint8
	LocalRank   uint16
	PlayerCount uint16
	Entries     []LeaderboardEntry
}

func (p Leaderboard) Encode() []byte {
	w := NewWriter().U8('l').U8(p.PlayerRank).U16(p.LocalRank).U16(p.PlayerCount)
	for _, e := range p.Entries {
		w.U16(e.Parts).FP24(e.Fullness).U8(e.FontColor).PString(e.Name)
	}
	return w.Bytes()
}

type HighScore struct {
	SnakeLength uint32 // u24
	WinnerName  string
	Message     string
}

func (p HighScore) Encode() []byte {
	return NewWriter().U8('m').U24(p.SnakeLength).U24(0).PString(p.WinnerName).RawBytes([]byte(p.Message)).Bytes()
}

// Minimap covers 'M' (modern, grid-size prefixed) and 'u' (legacy) bitmaps.
type Minimap struct {
	Modern   bool
	GridSize uint16
	Bitmap   []byte // packed bits, one per cell, row-major
}

func (p Minimap) Encode() []byte {
	w := NewWriter()
	if p.Modern {
		w.U8('M').U16(p.GridSize)
	} else {
		w.U8('u')
	}
	w.RawBytes(p.Bitmap)
	return w.Bytes()
}

type KillNotify struct {
	KillerID   uint16
	TotalKills uint32 // u24
}

func (p KillNotify) Encode() []byte {
	return NewWriter().U8('k').U16(p.KillerID).U24(p.TotalKills).Bytes()
}

type GameEnd struct{ Status uint8 } // 0 normal, 1 high score, 2 disconnect

func (p GameEnd) Encode() []byte { return NewWriter().U8('v').U8(p.Status).Bytes() }

// PackMinimapBitmap sets one bit per (x,y) cell present in cells, row-major
// over a gridSize x gridSize grid, per spec.md's "one bit per cell set if any
// live snake head maps to it".
func PackMinimapBitmap(gridSize int, cells map[[2]int]bool) []byte {
	total := gridSize * gridSize
	out := make([]byte, (total+7)/8)
	for xy := range cells {
		idx := xy[1]*gridSize + xy[0]
		if idx < 0 || idx >= total {
			continue
		}
		out[idx/8] |= 1 << uint(idx%8)
	}
	return out
}

package wire

import "testing"

func TestRemoveSnakeIsFourBytes(t *testing.T) {
	got := RemoveSnake{ID: 7, Status: 1}.Encode()
	if len(got) != 4 {
		t.Fatalf("RemoveSnake.Encode() length = %d, want 4 (disambiguates it from AddSnake)", len(got))
	}
	if got[0] != 's' || got[3] != 1 {
		t.Fatalf("got %v, want ['s', id_hi, id_lo, 1]", got)
	}
}

func TestAddSnakeLongerThanRemoveSnake(t *testing.T) {
	got := AddSnake{ID: 7, Name: "x"}.Encode()
	if len(got) <= 4 {
		t.Fatalf("AddSnake.Encode() length = %d, must exceed RemoveSnake's 4 bytes", len(got))
	}
}

func TestAddSnakeDeltasAppendAfterFixedHeader(t *testing.T) {
	noDeltas := AddSnake{ID: 1, Name: "a"}.Encode()
	withDeltas := AddSnake{ID: 1, Name: "a", Deltas: []BodyDelta{{DX: 10, DY: 20}, {DX: 30, DY: 40}}}.Encode()
	if len(withDeltas) != len(noDeltas)+4 {
		t.Fatalf("adding 2 deltas should add 4 bytes, got %d extra", len(withDeltas)-len(noDeltas))
	}
	tail := withDeltas[len(withDeltas)-4:]
	want := []byte{10, 20, 30, 40}
	for i := range want {
		if tail[i] != want[i] {
			t.Fatalf("delta bytes = %v, want %v", tail, want)
		}
	}
}

func TestAbsMoveOwnShorterThanAbsMoveOther(t *testing.T) {
	own := AbsMoveOwn{X: 1, Y: 2}.Encode()
	other := AbsMoveOther{ID: 9, X: 1, Y: 2}.Encode()
	if len(other)-len(own) != 2 {
		t.Fatalf("AbsMoveOther should be exactly 2 bytes longer (the id) than AbsMoveOwn, got other=%d own=%d", len(other), len(own))
	}
}

func TestRotationCommandTable(t *testing.T) {
	cases := []struct {
		name                          string
		clockwise, angle, target      bool
		want                          byte
	}{
		{"cw both", true, true, true, '4'},
		{"cw speed only", true, false, false, '5'},
		{"ccw both", false, true, true, 'e'},
		{"ccw angle only", false, true, false, '3'},
		{"ccw speed only", false, false, false, 'E'},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := Rotation{Clockwise: c.clockwise, IncludeAngle: c.angle, IncludeTarget: c.target}
			if got := p.cmd(); got != c.want {
				t.Fatalf("cmd() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestRotationEncodeLengthMatchesFlags(t *testing.T) {
	base := Rotation{ID: 1, Clockwise: false, IncludeAngle: false, IncludeTarget: false}
	both := Rotation{ID: 1, Clockwise: true, IncludeAngle: true, IncludeTarget: true}
	// cmd(1) + id(2) + speed(1) vs cmd(1) + id(2) + angle(1) + target(1) + speed(1)
	if len(base.Encode()) != 4 {
		t.Fatalf("no-angle/no-target rotation length = %d, want 4", len(base.Encode()))
	}
	if len(both.Encode()) != 6 {
		t.Fatalf("both-angle-and-target rotation length = %d, want 6", len(both.Encode()))
	}
}

func TestMinimapModernVsLegacyFraming(t *testing.T) {
	bitmap := []byte{0xFF, 0x01}
	modern := Minimap{Modern: true, GridSize: 32, Bitmap: bitmap}.Encode()
	legacy := Minimap{Modern: false, Bitmap: bitmap}.Encode()
	if modern[0] != 'M' || legacy[0] != 'u' {
		t.Fatalf("command bytes: modern=%q legacy=%q, want M/u", modern[0], legacy[0])
	}
	if len(modern) != len(legacy)+2 {
		t.Fatalf("modern framing should carry 2 extra bytes (grid size), modern=%d legacy=%d", len(modern), len(legacy))
	}
}

func TestPackMinimapBitmapSetsExpectedBits(t *testing.T) {
	cells := map[[2]int]bool{{0, 0}: true, {1, 0}: true, {0, 1}: true}
	out := PackMinimapBitmap(4, cells)
	if out[0]&0b0000_0011 != 0b0000_0011 {
		t.Fatalf("expected bits 0 and 1 set in byte 0, got %08b", out[0])
	}
	idx := 1*4 + 0
	if out[idx/8]&(1<<uint(idx%8)) == 0 {
		t.Fatalf("expected bit for cell (0,1) to be set")
	}
}

func TestPackMinimapBitmapIgnoresOutOfRangeCells(t *testing.T) {
	cells := map[[2]int]bool{{100, 100}: true}
	out := PackMinimapBitmap(4, cells)
	for i, b := range out {
		if b != 0 {
			t.Fatalf("byte %d = %08b, want all zero for an out-of-range cell", i, b)
		}
	}
}

func TestEatFoodKillerVariantAddsID(t *testing.T) {
	noKiller := EatFood{SX: 1, SY: 2, RX: 3, RY: 4}.Encode()
	withKiller := EatFood{SX: 1, SY: 2, RX: 3, RY: 4, HasKiller: true, KillerID: 99}.Encode()
	if noKiller[0] != 'c' || withKiller[0] != '<' {
		t.Fatalf("command bytes: no-killer=%q with-killer=%q, want c/<", noKiller[0], withKiller[0])
	}
	if len(withKiller) != len(noKiller)+2 {
		t.Fatalf("killer variant should add 2 bytes (the killer id), got %d vs %d", len(withKiller), len(noKiller))
	}
}

func TestAddFoodSpawnVsRegrow(t *testing.T) {
	spawn := AddFood{Spawn: true}.Encode()
	regrow := AddFood{Spawn: false}.Encode()
	if spawn[0] != 'f' || regrow[0] != 'b' {
		t.Fatalf("command bytes: spawn=%q regrow=%q, want f/b", spawn[0], regrow[0])
	}
}

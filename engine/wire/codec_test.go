package wire

import (
	"math"
	"testing"
)

func TestAngle8RoundTrip(t *testing.T) {
	for v := 0; v <= 255; v++ {
		w := NewWriter()
		a := float32(v) * (2 * math.Pi / 256)
		w.Angle8(a)
		r := NewReader(w.Bytes())
		got, err := r.U8()
		if err != nil {
			t.Fatalf("v=%d: %v", v, err)
		}
		if int(got) != v {
			t.Fatalf("encode_angle8(decode_angle8(%d)) = %d, want %d", v, got, v)
		}
	}
}

func TestAngle24RoundTrip(t *testing.T) {
	samples := []uint32{0, 1, 12345, 0x7FFFFF, 0xFFFFFE, 0xFFFFFF}
	for _, v := range samples {
		a, err := NewReader(NewWriter().U24(v).Bytes()).Angle24()
		if err != nil {
			t.Fatalf("v=%d: %v", v, err)
		}
		w := NewWriter()
		w.Angle24(a)
		r := NewReader(w.Bytes())
		got, err := r.U24()
		if err != nil {
			t.Fatalf("v=%d: %v", v, err)
		}
		if got != v {
			t.Fatalf("encode_angle24(decode_angle24(%d)) = %d, want %d", v, got, v)
		}
	}
}

func TestFP24RoundTripWithinTolerance(t *testing.T) {
	const tol = 1.0 / 16777215.0
	samples := []float32{0, 0.1, 0.5, 0.9999, 1.0}
	for _, v := range samples {
		w := NewWriter()
		w.FP24(v)
		r := NewReader(w.Bytes())
		got, err := r.FP24()
		if err != nil {
			t.Fatalf("v=%v: %v", v, err)
		}
		diff := got - v
		if diff < 0 {
			diff = -diff
		}
		if diff > tol {
			t.Fatalf("|decode_fp24(encode_fp24(%v)) - %v| = %v, exceeds tolerance %v", v, v, diff, tol)
		}
	}
}

func TestRelativeCoordRoundTrip(t *testing.T) {
	for dx := -128; dx <= 127; dx++ {
		w := NewWriter()
		w.RelativeCoord(dx)
		r := NewReader(w.Bytes())
		got, err := r.RelativeCoord()
		if err != nil {
			t.Fatalf("dx=%d: %v", dx, err)
		}
		if got != dx {
			t.Fatalf("decode_relative(encode_relative(%d)) = %d, want %d", dx, got, dx)
		}
	}
}

func TestFP8RoundTrip(t *testing.T) {
	for raw := -128; raw <= 127; raw++ {
		v := float32(raw) / 10
		w := NewWriter()
		w.FP8(v)
		r := NewReader(w.Bytes())
		got, err := r.FP8()
		if err != nil {
			t.Fatalf("raw=%d: %v", raw, err)
		}
		if math.Abs(float64(got-v)) > 1e-6 {
			t.Fatalf("FP8 round trip for %v got %v", v, got)
		}
	}
}

func TestPStringRoundTrip(t *testing.T) {
	w := NewWriter()
	w.PString("hello")
	r := NewReader(w.Bytes())
	got, err := r.PString()
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Fatalf("PString round trip = %q, want %q", got, "hello")
	}
}

func TestReaderShortReadErrors(t *testing.T) {
	r := NewReader([]byte{1})
	if _, err := r.U16(); err == nil {
		t.Fatal("expected short-read error")
	}
}

func TestParseStackedRoundTrip(t *testing.T) {
	p1 := []byte{1, 2, 3}
	p2 := []byte("hello world")
	p3 := make([]byte, 200) // exercises the one-byte length path near its ceiling
	for i := range p3 {
		p3[i] = byte(i)
	}

	msg := append(append(FrameSubPacket(p1), FrameSubPacket(p2)...), FrameSubPacket(p3)...)
	got := ParseStacked(msg)
	if len(got) != 3 {
		t.Fatalf("parse_stacked: got %d sub-packets, want 3", len(got))
	}
	for i, want := range [][]byte{p1, p2, p3} {
		if string(got[i]) != string(want) {
			t.Fatalf("sub-packet %d mismatch", i)
		}
	}
}

func TestParseStackedTwoByteLengthHeader(t *testing.T) {
	payload := make([]byte, 500) // forces the two-byte length header (>223)
	for i := range payload {
		payload[i] = byte(i)
	}
	msg := FrameSubPacket(payload)
	got := ParseStacked(msg)
	if len(got) != 1 || len(got[0]) != 500 {
		t.Fatalf("expected one 500-byte sub-packet, got %d sub-packets", len(got))
	}
}

func TestParseStackedStopsOnOverrun(t *testing.T) {
	// Header claims a length longer than the remaining bytes: decoder should
	// stop rather than error, per spec.md's "decoder stops" wording.
	msg := []byte{32 + 10, 1, 2, 3} // claims 10 bytes, only 3 remain
	got := ParseStacked(msg)
	if len(got) != 0 {
		t.Fatalf("expected no sub-packets when the length overruns, got %d", len(got))
	}
}

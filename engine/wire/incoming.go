package wire

import "math"

// Incoming is the decoded form of one inbound sub-packet (spec.md section 4.2).
type Incoming struct {
	Kind IncomingKind

	// ProtocolMode: Mode
	Mode uint8

	// Identity/login
	Legacy         bool // true if parsed via the legacy (non-official) branch
	ProtocolByte   uint8
	Checksum       []byte
	Skin           uint8
	Name           string
	CustomSkin     []byte

	// Rotation
	Clockwise bool
	Intensity uint8 // 0-127

	// legacy left/right
	LegacyRight bool

	// SetAngle
	Angle float32

	Inert bool // accepted-but-inert command byte
}

type IncomingKind int

const (
	KindProtocolMode IncomingKind = iota
	KindBeginLogin
	KindIdentity
	KindRotation
	KindLegacyTurn
	KindSetAngle
	KindStartBoost
	KindStopBoost
	KindPing
	KindChat
	KindInert
)

// ParseIncoming decodes a single sub-packet payload (already stripped of the
// stacked-frame length header) per spec.md section 4.2's command taxonomy.
func ParseIncoming(payload []byte) (*Incoming, error) {
	if len(payload) == 0 {
		return nil, newWireErr("empty sub-packet")
	}
	cmd := payload[0]

	switch {
	case (cmd == 0x01 || cmd == 0x02) && len(payload) == 1:
		return &Incoming{Kind: KindProtocolMode, Mode: cmd}, nil

	case cmd == 'c':
		return &Incoming{Kind: KindBeginLogin}, nil

	case cmd == 's':
		return parseIdentity(payload)

	case cmd == 252:
		r := NewReader(payload[1:])
		v, err := r.U8()
		if err != nil {
			return nil, err
		}
		cw := v >= 128
		intensity := v
		if cw {
			intensity = v - 128
		}
		return &Incoming{Kind: KindRotation, Clockwise: cw, Intensity: intensity}, nil

	case cmd == 'l' || cmd == 'r':
		intensity := uint8(64)
		if len(payload) >= 2 {
			intensity = payload[1]
		}
		return &Incoming{Kind: KindLegacyTurn, LegacyRight: cmd == 'r', Intensity: intensity}, nil

	case cmd <= 250 && len(payload) == 1:
		angle := float32(cmd) * float32(math.Pi) / 125
		return &Incoming{Kind: KindSetAngle, Angle: angle}, nil

	case cmd == 253:
		return &Incoming{Kind: KindStartBoost}, nil

	case cmd == 254:
		return &Incoming{Kind: KindStopBoost}, nil

	case cmd == 251:
		return &Incoming{Kind: KindPing}, nil

	case cmd == 255:
		return &Incoming{Kind: KindChat}, nil

	default:
		return &Incoming{Kind: KindInert, Inert: true}, nil
	}
}

// parseIdentity implements the login heuristic from spec.md section 4.2: if
// the first payload byte (after the command) is >= 25 and the payload is at
// least 24 bytes, parse the official framing; otherwise the legacy framing.
// The original_source reference contains a dead-code len==24 special case and
// an unused duplicate parser that shadow/duplicate this logic; neither is
// part of the documented heuristic and neither is replicated here.
func parseIdentity(payload []byte) (*Incoming, error) {
	if len(payload) < 2 {
		return nil, newWireErr("identity packet too short")
	}
	protoByte := payload[1]
	if protoByte >= 25 && len(payload) >= 24 {
		r := NewReader(payload[1:])
		version, err := r.U16()
		if err != nil {
			return nil, err
		}
		checksum, err := r.Bytes(20)
		if err != nil {
			return nil, err
		}
		skin, err := r.U8()
		if err != nil {
			return nil, err
		}
		name, err := r.PString()
		if err != nil {
			return nil, err
		}
		return &Incoming{
			Kind: KindIdentity, Legacy: false, ProtocolByte: uint8(version),
			Checksum: checksum, Skin: skin, Name: name,
		}, nil
	}

	r := NewReader(payload[1:])
	proto, err := r.U8()
	if err != nil {
		return nil, err
	}
	skin, err := r.U8()
	if err != nil {
		return nil, err
	}
	name, err := r.PString()
	if err != nil {
		return nil, err
	}
	custom := payload[len(payload)-r.Remaining():]
	return &Incoming{
		Kind: KindIdentity, Legacy: true, ProtocolByte: proto, Skin: skin,
		Name: name, CustomSkin: custom,
	}, nil
}

type wireError string

func (e wireError) Error() string { return string(e) }

func newWireErr(msg string) error { return wireError(msg) }

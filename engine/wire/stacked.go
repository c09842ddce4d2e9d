package wire

// ParseStacked splits a single inbound transport message into its sub-packet
// payloads (spec.md section 4.2). Each sub-packet is length-prefixed: if the
// first byte is < 32, the length is (b0<<8)|b1 over two header bytes;
// otherwise the length is b0-32 over one header byte. Decoding stops on the
// first length that would exceed the remaining message, rather than erroring,
// matching spec.md's "decoder stops" wording.
func ParseStacked(msg []byte) [][]byte {
	var packets [][]byte
	i := 0
	for i < len(msg) {
		var length, headerLen int
		b0 := msg[i]
		if b0 < 32 {
			if i+2 > len(msg) {
				break
			}
			length = int(b0)<<8 | int(msg[i+1])
			headerLen = 2
		} else {
			length = int(b0) - 32
			headerLen = 1
		}
		start := i + headerLen
		end := start + length
		if end > len(msg) {
			break
		}
		packets = append(packets, msg[start:end])
		i = end
	}
	return packets
}

// FrameSubPacket prepends the length-prefix header used by ParseStacked,
// choosing the one-byte form when possible. Used by tests exercising the
// round-trip property parse_stacked(concat(frame(p1),...)) = [p1,...].
func FrameSubPacket(payload []byte) []byte {
	n := len(payload)
	if n <= 223 {
		out := make([]byte, 0, n+1)
		out = append(out, byte(n+32))
		out = append(out, payload...)
		return out
	}
	out := make([]byte, 0, n+2)
	out = append(out, byte(n>>8), byte(n))
	out = append(out, payload...)
	return out
}

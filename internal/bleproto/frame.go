package bleproto

// FrameSize is the fixed on-wire frame length: 1 tag byte + 16 encrypted
// bytes + 2 CRC bytes.
const FrameSize = 19

// maxPayload is the largest payload that still fits the 16-byte
// plaintext block: 16 - 2 (length, cmd) - 1 (xor byte).
const maxPayload = 13

// BuildFrame assembles a 19-byte frame for cmd/payload, encrypting
// under key if supplied (frame_tag 0x02) or the static system key
// (frame_tag 0x01).
func BuildFrame(cmd byte, payload []byte, key []byte) ([]byte, error) {
	if len(payload) > maxPayload {
		return nil, NewProtocolError("payload too large")
	}

	frameTag := FrameTagSystem
	k := SystemKey
	if key != nil {
		frameTag = FrameTagSession
		k = key
	}

	length := byte(len(payload) + 3)
	if len(payload) == 9 {
		length = byte(len(payload) + 2)
	}

	var plain [16]byte
	plain[0] = length
	plain[1] = cmd
	copy(plain[2:], payload)
	xorPos := len(payload) + 2
	plain[xorPos] = XORSum(plain[:xorPos])

	enc, err := aesBlockCrypt(k, plain[:], true)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, 0, FrameSize)
	frame = append(frame, frameTag)
	frame = append(frame, enc...)
	crc := CRC16Kermit(frame)
	le := CRC16LE(crc)
	frame = append(frame, le[0], le[1])
	return frame, nil
}

// ParseFrame decodes a 19-byte frame. valid is false when the CRC
// fails, the XOR check fails, or the plaintext length byte is outside
// [3,15]; in the last case cmd and a diagnostic payload slice are
// still returned so a malformed response can be inspected.
func ParseFrame(data []byte, key []byte) (cmd byte, payload []byte, valid bool, rawPlain []byte, err error) {
	if len(data) != FrameSize {
		return 0, nil, false, nil, NewProtocolError("frame must be 19 bytes")
	}

	crcRecv := uint16(data[17]) | uint16(data[18])<<8
	if CRC16Kermit(data[:17]) != crcRecv {
		return 0, nil, false, nil, nil
	}

	k := SystemKey
	if key != nil {
		k = key
	}
	plain, err := aesBlockCrypt(k, data[1:17], false)
	if err != nil {
		return 0, nil, false, nil, err
	}

	length := plain[0]
	cmd = plain[1]
	if length < 3 || length > 15 {
		end := 14
		if end > len(plain) {
			end = len(plain)
		}
		return cmd, plain[2:end], false, plain, nil
	}

	payloadEnd := int(length) - 1
	if payloadEnd > 14 {
		payloadEnd = 14
	}
	payload = plain[2:payloadEnd]
	valid = plain[14] == XORSum(plain[:14])
	return cmd, payload, valid, plain, nil
}

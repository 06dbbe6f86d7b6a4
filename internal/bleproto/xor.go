package bleproto

// XORSum folds data with XOR, identity zero. Used only over plaintext
// blocks as an intra-block checksum, distinct from the frame-level CRC.
func XORSum(data []byte) byte {
	var r byte
	for _, b := range data {
		r ^= b
	}
	return r
}

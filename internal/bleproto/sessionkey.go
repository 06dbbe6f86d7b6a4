package bleproto

// DeriveSessionKey builds the 16-byte session key from the host nonce,
// the device-returned seed, and the configured 4-byte system code:
//
//	bytes 0..10  = nonce[i] XOR seed[i]
//	bytes 10..14 = syscode
//	bytes 14..16 = CRC16-KERMIT(bytes 0..14), little-endian
func DeriveSessionKey(nonce, seed []byte, syscode [4]byte) ([]byte, error) {
	if len(nonce) < 10 || len(seed) < 10 {
		return nil, NewProtocolError("nonce and seed must be at least 10 bytes")
	}
	key := make([]byte, 16)
	for i := 0; i < 10; i++ {
		key[i] = nonce[i] ^ seed[i]
	}
	copy(key[10:14], syscode[:])
	crc := CRC16Kermit(key[:14])
	le := CRC16LE(crc)
	key[14], key[15] = le[0], le[1]
	return key, nil
}

// DeriveSessionKeyLegacy folds the decrypted CONNECT response onto
// itself: key[i] = resp[i] XOR resp[i+10] for i in 0..9, remaining
// bytes zero. resp is zero-padded to 20 bytes first, so positions past
// its end read as zero. Older vendor SDKs derive the session key this
// way; no firmware this bridge has been run against needs it, so
// Connect never calls it. Kept so the derivation is on hand if such a
// key ever shows up.
func DeriveSessionKeyLegacy(resp []byte) []byte {
	padded := make([]byte, 20)
	copy(padded, resp)
	key := make([]byte, 16)
	for i := 0; i < 10; i++ {
		key[i] = padded[i] ^ padded[i+10]
	}
	return key
}

package bleproto

import "crypto/aes"

// aesBlockCrypt encrypts or decrypts a single 16-byte block under key.
//
// The wire protocol calls this "AES-128-ECB", but since every use
// encrypts or decrypts exactly one 16-byte block there is no chaining
// to speak of: a bare cipher.Block call is the whole of "ECB" here.
// Go's standard library deliberately ships no general ECB cipher.Mode
// (considered unsafe for multi-block use), so this is the minimal
// correct primitive rather than a stand-in for a missing mode.
func aesBlockCrypt(key, block []byte, encrypt bool) ([]byte, error) {
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(block) != aes.BlockSize {
		return nil, &Error{Kind: KindProtocol, Message: "aes block must be 16 bytes"}
	}
	out := make([]byte, aes.BlockSize)
	if encrypt {
		c.Encrypt(out, block)
	} else {
		c.Decrypt(out, block)
	}
	return out, nil
}

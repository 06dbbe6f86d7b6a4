package bleproto

import (
	"math/rand"
	"sync"
	"time"
)

// nonceCharset keeps every nonce byte printable ASCII, which the
// device requires.
const nonceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// NewNonce returns a fresh n-character printable ASCII nonce. CONNECT
// always uses a 10-character nonce.
func NewNonce(n int) []byte {
	out := make([]byte, n)
	rngMu.Lock()
	for i := range out {
		out[i] = nonceCharset[rng.Intn(len(nonceCharset))]
	}
	rngMu.Unlock()
	return out
}

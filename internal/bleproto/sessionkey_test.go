package bleproto

import "testing"

func TestDeriveSessionKey(t *testing.T) {
	nonce := []byte("abcdefghij")
	seed := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B}
	syscode := [4]byte{0x11, 0x11, 0x1B, 0xFB}

	key, err := DeriveSessionKey(nonce, seed, syscode)
	if err != nil {
		t.Fatal(err)
	}
	if len(key) != 16 {
		t.Fatalf("key length = %d, want 16", len(key))
	}

	for i := 0; i < 10; i++ {
		want := nonce[i] ^ seed[i]
		if key[i] != want {
			t.Errorf("key[%d] = 0x%02X, want 0x%02X", i, key[i], want)
		}
	}
	if key[10] != syscode[0] || key[11] != syscode[1] || key[12] != syscode[2] || key[13] != syscode[3] {
		t.Errorf("key[10:14] = %v, want %v", key[10:14], syscode)
	}
	wantCRC := CRC16Kermit(key[:14])
	gotCRC := uint16(key[14]) | uint16(key[15])<<8
	if gotCRC != wantCRC {
		t.Errorf("key[14:16] = 0x%04X, want 0x%04X", gotCRC, wantCRC)
	}
}

func TestDeriveSessionKeyShortInput(t *testing.T) {
	if _, err := DeriveSessionKey([]byte("short"), make([]byte, 12), [4]byte{}); err == nil {
		t.Fatal("expected error for short nonce")
	}
}

func TestDeriveSessionKeyLegacyUnusedButPresent(t *testing.T) {
	resp := make([]byte, 20)
	for i := range resp {
		resp[i] = byte(i)
	}
	key := DeriveSessionKeyLegacy(resp)
	if len(key) != 16 {
		t.Fatalf("key length = %d, want 16", len(key))
	}
	for i := 0; i < 10; i++ {
		want := resp[i] ^ resp[i+10]
		if key[i] != want {
			t.Errorf("key[%d] = 0x%02X, want 0x%02X", i, key[i], want)
		}
	}
	for i := 10; i < 16; i++ {
		if key[i] != 0 {
			t.Errorf("key[%d] = 0x%02X, want 0x00", i, key[i])
		}
	}
}

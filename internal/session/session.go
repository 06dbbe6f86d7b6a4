// Package session implements the BLE session state machine: link setup,
// the CONNECT/VERIFY handshake, authenticated command exchange, and
// teardown.
package session

import (
	"context"
	"sync"
	"time"

	"rayonics-ble-bridge/internal/bleproto"
	"rayonics-ble-bridge/internal/transport"
)

// State is a session's position in the handshake/authentication
// lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateLinkUp
	StateHandshakeSent
	StateSeeded
	StateAuthenticated
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateLinkUp:
		return "LINK_UP"
	case StateHandshakeSent:
		return "HANDSHAKE_SENT"
	case StateSeeded:
		return "SEEDED"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// Config carries the pacing constants and auth codes. The delays were
// determined empirically against real hardware; they are kept as
// configuration rather than literals so a deployment can tune them
// without a rebuild.
type Config struct {
	SysCode [4]byte
	RegCode [4]byte

	LinkUpDelay        time.Duration // quiescence after subscribe, before first write
	HandshakeGapDelay  time.Duration // between CONNECT success and VERIFY
	PostVerifyDelay    time.Duration // after VERIFY success, before status
	EventPacingDelay   time.Duration // between sequential event reads

	HandshakeTimeout time.Duration // CONNECT / VERIFY
	CommandTimeout   time.Duration // everything else
}

// DefaultConfig returns the pacing and auth defaults known to work
// against shipped key firmware.
func DefaultConfig() Config {
	return Config{
		SysCode:           [4]byte{0x11, 0x11, 0x1B, 0xFB},
		RegCode:           [4]byte{0x11, 0x11, 0x1B, 0xFB},
		LinkUpDelay:       200 * time.Millisecond,
		HandshakeGapDelay: 300 * time.Millisecond,
		PostVerifyDelay:   200 * time.Millisecond,
		EventPacingDelay:  150 * time.Millisecond,
		HandshakeTimeout:  5 * time.Second,
		CommandTimeout:    3 * time.Second,
	}
}

// Session is one BLE connection to one device, from link-up through
// authentication to teardown. Not safe for concurrent Connect/Disconnect
// calls from multiple goroutines beyond the serialization exchange
// itself provides for commands; the dispatch facade owns exactly one
// Session per browser connection.
type Session struct {
	cfg     Config
	adapter transport.Adapter

	mu            sync.Mutex
	state         State
	link          transport.Link
	device        transport.Device
	sessionKey    []byte
	authenticated bool
	scanned       map[string]transport.Device

	cmdSem  chan struct{} // size 1: enforces at most one outstanding command
	closeCh chan struct{}
	closed  bool

	respMu  sync.Mutex
	respBuf []byte
	respCh  chan struct{}
}

// New creates a Session bound to adapter. Call Scan then Connect to
// bring it up.
func New(adapter transport.Adapter, cfg Config) *Session {
	return &Session{
		cfg:     cfg,
		adapter: adapter,
		state:   StateDisconnected,
		scanned: make(map[string]transport.Device),
		cmdSem:  make(chan struct{}, 1),
		closeCh: make(chan struct{}),
		respCh:  make(chan struct{}, 1),
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Authenticated reports whether VERIFY has succeeded and the session
// has not since disconnected.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// DeviceName returns the connected device's display name, or its
// address if the device never reported a name.
func (s *Session) DeviceName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device.Name != "" {
		return s.device.Name
	}
	return s.device.Address
}

// Connected reports whether a link is currently open.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateDisconnected && s.link != nil
}

// Scan discovers nearby devices and replaces the scanned-device table.
// The table is private to this session and lives only until the next
// Scan.
func (s *Session) Scan(ctx context.Context, timeout time.Duration) ([]transport.Device, error) {
	devices, err := s.adapter.Scan(ctx, timeout)
	if err != nil {
		return nil, bleproto.NewLinkError("scan", err)
	}

	filtered := make([]transport.Device, 0, len(devices))
	for _, d := range devices {
		if hasRecognizedPrefix(d.Name) {
			filtered = append(filtered, d)
		}
	}

	s.mu.Lock()
	s.scanned = make(map[string]transport.Device, len(filtered))
	for _, d := range filtered {
		s.scanned[d.Address] = d
	}
	s.mu.Unlock()

	return filtered, nil
}

func hasRecognizedPrefix(name string) bool {
	for _, p := range bleproto.DevicePrefixes {
		if len(name) >= len(p) && name[:len(p)] == p {
			return true
		}
	}
	return false
}

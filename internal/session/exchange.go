package session

import (
	"context"
	"time"

	"rayonics-ble-bridge/internal/bleproto"
)

// onNotify accumulates a notification chunk and signals the waiter.
func (s *Session) onNotify(chunk []byte) {
	s.respMu.Lock()
	s.respBuf = append(s.respBuf, chunk...)
	s.respMu.Unlock()

	select {
	case s.respCh <- struct{}{}:
	default:
	}
}

// exchange writes frame and blocks for one complete 19-byte response
// frame, serialized against every other exchange on this session by
// cmdSem: the device can only service one outstanding encrypted
// request, so a second caller waits here rather than racing the first.
func (s *Session) exchange(ctx context.Context, frame []byte, timeout time.Duration) ([]byte, error) {
	s.mu.Lock()
	closeCh := s.closeCh
	s.mu.Unlock()

	select {
	case s.cmdSem <- struct{}{}:
	case <-ctx.Done():
		return nil, bleproto.NewTimeoutError("canceled waiting for exchange slot")
	case <-closeCh:
		return nil, bleproto.NewLinkError("session closed", nil)
	}
	defer func() { <-s.cmdSem }()

	s.mu.Lock()
	link := s.link
	s.mu.Unlock()
	if link == nil {
		return nil, bleproto.NewLinkError("not connected", nil)
	}

	s.respMu.Lock()
	s.respBuf = s.respBuf[:0]
	s.respMu.Unlock()
	select {
	case <-s.respCh:
	default:
	}

	if err := link.Write(ctx, frame); err != nil {
		return nil, bleproto.NewLinkError("write", err)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case <-closeCh:
			return nil, bleproto.NewLinkError("session closed while awaiting response", nil)
		case <-ctx.Done():
			return nil, bleproto.NewTimeoutError("context canceled awaiting response")
		case <-deadline.C:
			return nil, bleproto.NewTimeoutError("timed out awaiting response")
		case <-s.respCh:
			s.respMu.Lock()
			buf := append([]byte(nil), s.respBuf...)
			s.respMu.Unlock()
			if len(buf) >= bleproto.FrameSize {
				return buf[:bleproto.FrameSize], nil
			}
			// More chunks still expected for this logical frame.
		}
	}
}

// SendCommand sends cmd/payload under the session key (the caller must
// already be AUTHENTICATED) and returns the decoded plaintext block.
func (s *Session) SendCommand(ctx context.Context, cmd byte, payload []byte) ([]byte, error) {
	if !s.Authenticated() {
		return nil, bleproto.NewNotAuthenticated()
	}

	s.mu.Lock()
	key := s.sessionKey
	s.mu.Unlock()

	frame, err := bleproto.BuildFrame(cmd, payload, key)
	if err != nil {
		return nil, err
	}

	resp, err := s.exchange(ctx, frame, s.cfg.CommandTimeout)
	if err != nil {
		// A dropped link is unrecoverable without a fresh handshake; a
		// timeout leaves the session authenticated so the caller may
		// retry or disconnect.
		if bleproto.IsKind(err, bleproto.KindLink) {
			_ = s.Disconnect()
		}
		return nil, err
	}

	_, _, valid, plain, err := bleproto.ParseFrame(resp, key)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, bleproto.NewProtocolError("response failed CRC/XOR check")
	}
	return plain, nil
}

// Disconnect tears down the link and resets authentication state.
// Idempotent: a second call is a no-op that returns nil. Cancels any
// in-flight exchange immediately rather than waiting for its timeout.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	link := s.link
	s.link = nil
	s.sessionKey = nil
	s.authenticated = false
	s.state = StateClosing
	s.mu.Unlock()

	close(s.closeCh)

	if link != nil {
		_ = link.Disconnect()
	}

	s.mu.Lock()
	s.state = StateDisconnected
	s.mu.Unlock()
	return nil
}

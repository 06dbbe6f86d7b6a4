package session

import (
	"context"
	"time"

	"rayonics-ble-bridge/internal/bleproto"
)

// Connect runs the full link-up + CONNECT + VERIFY handshake against
// the scanned device at address. A prior connection on this session,
// if any, is silently torn down first.
func (s *Session) Connect(ctx context.Context, address string) error {
	_ = s.Disconnect()
	s.reopen()

	s.mu.Lock()
	device, ok := s.scanned[address]
	s.mu.Unlock()
	if !ok {
		return bleproto.NewBadRequest("device " + address + " not in scan results — scan first")
	}

	link, err := s.adapter.Connect(ctx, address)
	if err != nil {
		return bleproto.NewLinkError("connect", err)
	}
	if err := link.Subscribe(s.onNotify); err != nil {
		_ = link.Disconnect()
		return bleproto.NewLinkError("subscribe notifications", err)
	}

	s.mu.Lock()
	s.link = link
	s.device = device
	s.state = StateLinkUp
	s.mu.Unlock()

	select {
	case <-time.After(s.cfg.LinkUpDelay):
	case <-ctx.Done():
		_ = s.Disconnect()
		return bleproto.NewLinkError("canceled during link-up delay", ctx.Err())
	}

	if err := s.authenticate(ctx, s.cfg.SysCode, s.cfg.RegCode); err != nil {
		var e *bleproto.Error
		if asAuthRejected(err, &e) && s.State() == StateHandshakeSent {
			// Single permitted fallback: a rejected CONNECT (VERIFY was
			// never reached) is retried once with default codes. A
			// VERIFY rejection is surfaced as is.
			fallbackErr := s.authenticate(ctx, bleproto.DefaultFallbackSysCode, bleproto.DefaultFallbackRegCode)
			if fallbackErr == nil {
				return nil
			}
			_ = s.Disconnect()
			return fallbackErr
		}
		_ = s.Disconnect()
		return err
	}
	return nil
}

func asAuthRejected(err error, target **bleproto.Error) bool {
	e, ok := err.(*bleproto.Error)
	if !ok || e.Kind != bleproto.KindAuthRejected {
		return false
	}
	*target = e
	return true
}

// authenticate runs CONNECT then VERIFY under the given codes, mutating
// session state on success. Leaves the session at StateSeeded /
// StateAuthenticated on success and returns an *bleproto.Error on
// failure without disconnecting; callers decide whether to retry or
// tear down.
func (s *Session) authenticate(ctx context.Context, sysCode, regCode [4]byte) error {
	nonce := bleproto.NewNonce(10)
	nonceCRC := bleproto.CRC16Kermit(nonce)
	le := bleproto.CRC16LE(nonceCRC)
	connectPayload := append(append([]byte{}, nonce...), le[0], le[1])

	frame, err := bleproto.BuildFrame(bleproto.CmdConnectAuth, connectPayload, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = StateHandshakeSent
	s.mu.Unlock()

	resp, err := s.exchange(ctx, frame, s.cfg.HandshakeTimeout)
	if err != nil {
		return err
	}

	_, _, _, plain, err := bleproto.ParseFrame(resp, nil)
	if err != nil {
		return err
	}
	if len(plain) < 16 {
		return bleproto.NewProtocolError("CONNECT response failed CRC check")
	}

	length := plain[0]
	switch length {
	case 15:
		seed := plain[2:14]
		sessionKey, err := bleproto.DeriveSessionKey(nonce, seed, sysCode)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.sessionKey = sessionKey
		s.state = StateSeeded
		s.mu.Unlock()
	case 4:
		code := byte(0xFF)
		if len(plain) > 2 {
			code = plain[2]
		}
		return bleproto.NewAuthRejected(code, "CONNECT rejected")
	default:
		return bleproto.NewProtocolError("unexpected CONNECT response length")
	}

	select {
	case <-time.After(s.cfg.HandshakeGapDelay):
	case <-ctx.Done():
		return bleproto.NewTimeoutError("canceled between CONNECT and VERIFY")
	}

	verifyPayload := append(append(append([]byte{}, regCode[:]...), sysCode[:]...), bleproto.VerifyFlagByte)

	s.mu.Lock()
	key := s.sessionKey
	s.mu.Unlock()

	vFrame, err := bleproto.BuildFrame(bleproto.CmdVerifyCode, verifyPayload, key)
	if err != nil {
		return err
	}
	vResp, err := s.exchange(ctx, vFrame, s.cfg.HandshakeTimeout)
	if err != nil {
		return err
	}
	_, _, _, vPlain, err := bleproto.ParseFrame(vResp, key)
	if err != nil {
		return err
	}
	if len(vPlain) < 16 {
		return bleproto.NewProtocolError("VERIFY response failed CRC check")
	}
	if vPlain[2] != 0x00 {
		return bleproto.NewAuthRejected(vPlain[2], "VERIFY rejected")
	}

	s.mu.Lock()
	s.authenticated = true
	s.state = StateAuthenticated
	s.mu.Unlock()

	select {
	case <-time.After(s.cfg.PostVerifyDelay):
	case <-ctx.Done():
	}
	return nil
}

// reopen resets the closed/closeCh state after a prior Disconnect so a
// fresh Connect can run exchanges again.
func (s *Session) reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
	s.closeCh = make(chan struct{})
	s.state = StateDisconnected
}

// Package command implements the authenticated operations available
// once a session.Session has completed VERIFY: key info, firmware
// version, and the event log sweep/clear pair. Each operation is a
// thin, independently testable wrapper around one or more
// session.Session.SendCommand calls.
package command

import (
	"context"
	"fmt"
	"time"

	"rayonics-ble-bridge/internal/bleproto"
	"rayonics-ble-bridge/internal/session"
)

// KeyInfo is the decoded response to GET_KEY_INFO (0x11), enriched
// with the firmware version pulled from a follow-up GET_VERSION
// (0x34) read.
type KeyInfo struct {
	KeyID       uint16
	KeyType     byte
	KeyTypeName string
	GroupID     uint16
	VerifyDay   uint16
	IsBLEOnline byte
	Power       byte
	Version     string
}

// GetKeyInfo reads key metadata and firmware version, pausing for
// pacing between the two reads so the device is never hit with two
// requests back to back.
func GetKeyInfo(ctx context.Context, s *session.Session, pacing time.Duration) (*KeyInfo, error) {
	dec, err := s.SendCommand(ctx, bleproto.CmdGetKeyInfo, nil)
	if err != nil {
		return nil, err
	}

	payloadLen := int(dec[0]) - 3
	p := sliceUpTo(dec, 2, 2+payloadLen)

	info := &KeyInfo{}
	if len(p) > 0 {
		info.KeyID = uint16(p[0])
	}
	if len(p) > 1 {
		info.KeyID |= uint16(p[1]) << 8
	}
	if len(p) > 2 {
		info.KeyType = p[2]
	}
	info.KeyTypeName = bleproto.KeyTypeName(info.KeyType)
	if len(p) > 3 {
		info.GroupID = uint16(p[3])
	}
	if len(p) > 4 {
		info.GroupID |= uint16(p[4]) << 8
	}
	if len(p) > 6 {
		info.VerifyDay = uint16(p[6])
	}
	if len(p) > 7 {
		info.VerifyDay |= uint16(p[7]) << 8
	}
	if len(p) > 8 {
		info.IsBLEOnline = p[8]
	}
	if len(p) > 9 {
		info.Power = p[9]
	}

	select {
	case <-time.After(pacing):
	case <-ctx.Done():
		return nil, bleproto.NewTimeoutError("canceled before version read")
	}

	version, err := GetVersion(ctx, s)
	if err != nil {
		// Version is supplementary; a failed read doesn't invalidate
		// the key info already decoded.
		info.Version = ""
	} else {
		info.Version = version
	}
	return info, nil
}

// GetVersion reads the firmware version string from GET_VERSION
// (0x34). The device returns an ASCII string terminated by a NUL or
// any byte with the high bit set; both are treated as end-of-string.
func GetVersion(ctx context.Context, s *session.Session) (string, error) {
	dec, err := s.SendCommand(ctx, bleproto.CmdGetVersion, nil)
	if err != nil {
		return "", err
	}
	end := int(dec[0]) - 1 // exclude the trailing XOR checksum byte at payload_len+2
	if end > len(dec) {
		end = len(dec)
	}
	var version []byte
	for _, b := range dec[2:end] {
		if b == 0 || b > 127 {
			break
		}
		version = append(version, b)
	}
	return string(version), nil
}

// Event is a decoded access-log entry. Raw is populated instead of the
// typed fields when the device returns a payload too short to contain
// a full event record.
type Event struct {
	Pos       int
	Raw       string
	Time      string
	LockID    uint16
	KeyID     uint16
	EventCode byte
	EventName string
	Error     string
}

// EventCount reads the number of stored access events via
// GET_EVENT_COUNT (0x26).
func EventCount(ctx context.Context, s *session.Session) (int, error) {
	dec, err := s.SendCommand(ctx, bleproto.CmdEventCount, nil)
	if err != nil {
		return 0, err
	}
	if len(dec) < 4 {
		return 0, bleproto.NewProtocolError("GET_EVENT_COUNT response too short")
	}
	return int(dec[2]) | int(dec[3])<<8, nil
}

// ReadEvents reads every stored event in order, pacing requests by
// pacing between reads as the device can only service them one at a
// time. A single event's failure does not abort the sweep: it is
// recorded as an Event with Error set, and the sweep continues with
// the next position.
func ReadEvents(ctx context.Context, s *session.Session, pacing time.Duration) ([]Event, error) {
	count, err := EventCount(ctx, s)
	if err != nil {
		return nil, err
	}

	select {
	case <-time.After(pacing):
	case <-ctx.Done():
		return nil, bleproto.NewTimeoutError("canceled before event sweep")
	}

	events := make([]Event, 0, count)
	for pos := 1; pos <= count; pos++ {
		posBytes := []byte{byte(pos & 0xFF), byte((pos >> 8) & 0xFF)}
		dec, err := s.SendCommand(ctx, bleproto.CmdGetEvent, posBytes)
		if err != nil {
			events = append(events, Event{Pos: pos, Error: err.Error()})
		} else {
			elen := int(dec[0]) - 3
			ed := sliceUpTo(dec, 2, 2+elen)
			events = append(events, ParseEvent(pos, ed))
		}

		if pos < count {
			select {
			case <-time.After(pacing):
			case <-ctx.Done():
				return events, bleproto.NewTimeoutError("canceled during event sweep")
			}
		}
	}
	return events, nil
}

// ParseEvent decodes one GET_EVENT payload. Payloads shorter than 12
// bytes can't hold a full record; those are surfaced as raw hex
// rather than dropped, so an operator can still see something happened
// even against a firmware variant this decoder doesn't fully know.
func ParseEvent(pos int, data []byte) Event {
	if len(data) < 12 {
		return Event{Pos: pos, Raw: fmt.Sprintf("%x", data)}
	}

	bcd := func(b byte) int { return int(b>>4)*10 + int(b&0x0F) }

	keyID := uint16(data[0]) | uint16(data[1])<<8
	lockID := uint16(data[3]) | uint16(data[4])<<8
	year := 2000 + bcd(data[5])
	month := bcd(data[6])
	day := bcd(data[7])
	hour := bcd(data[8])
	minute := bcd(data[9])
	second := bcd(data[10])
	eventType := data[11]

	return Event{
		Pos:       pos,
		Time:      fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", year, month, day, hour, minute, second),
		LockID:    lockID,
		KeyID:     keyID,
		EventCode: eventType,
		EventName: bleproto.EventTypeName(eventType),
	}
}

// CleanEvents clears the device's stored event log via CLEAN_EVENT
// (0x28).
func CleanEvents(ctx context.Context, s *session.Session) error {
	_, err := s.SendCommand(ctx, bleproto.CmdCleanEvent, nil)
	return err
}

// sliceUpTo safely slices data[from:to], clamping to data's bounds
// instead of panicking on a shorter-than-expected decrypted payload.
func sliceUpTo(data []byte, from, to int) []byte {
	if from > len(data) {
		from = len(data)
	}
	if to > len(data) {
		to = len(data)
	}
	if to < from {
		to = from
	}
	return data[from:to]
}

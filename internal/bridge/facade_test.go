package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"rayonics-ble-bridge/internal/bleproto"
	"rayonics-ble-bridge/internal/session"
	"rayonics-ble-bridge/internal/transport"
	"rayonics-ble-bridge/internal/transport/simulated"
)

// recordingSender captures every emitted message as decoded JSON so
// tests can assert on message "type" fields without re-implementing
// the WebSocket transport.
type recordingSender struct {
	mu  sync.Mutex
	raw []map[string]interface{}
}

func (r *recordingSender) Send(_ context.Context, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	r.mu.Lock()
	r.raw = append(r.raw, m)
	r.mu.Unlock()
	return nil
}

func (r *recordingSender) messagesOfType(t string) []map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []map[string]interface{}
	for _, m := range r.raw {
		if m["type"] == t {
			out = append(out, m)
		}
	}
	return out
}

// fakeDevice mirrors internal/session's test double: it plays CONNECT/
// VERIFY and answers authenticated commands with a scripted key-info
// and single-event payload.
type fakeDevice struct {
	seed    []byte
	sysCode [4]byte
	regCode [4]byte

	mu         sync.Mutex
	sessionKey []byte
}

func (d *fakeDevice) respond(frame []byte) [][]byte {
	if len(frame) == bleproto.FrameSize && frame[0] == bleproto.FrameTagSystem {
		cmd, payload, valid, _, err := bleproto.ParseFrame(frame, nil)
		if err != nil || !valid || len(payload) < 10 {
			return nil
		}
		nonce := append([]byte(nil), payload[:10]...)
		key, _ := bleproto.DeriveSessionKey(nonce, d.seed, d.sysCode)
		d.mu.Lock()
		d.sessionKey = key
		d.mu.Unlock()
		resp, _ := bleproto.BuildFrame(cmd, d.seed, nil)
		return [][]byte{resp}
	}

	d.mu.Lock()
	key := d.sessionKey
	d.mu.Unlock()
	if key == nil {
		return nil
	}
	cmd, _, valid, _, err := bleproto.ParseFrame(frame, key)
	if err != nil || !valid {
		return nil
	}

	switch cmd {
	case bleproto.CmdVerifyCode:
		resp, _ := bleproto.BuildFrame(cmd, []byte{0x00}, key)
		return [][]byte{resp}
	case bleproto.CmdGetKeyInfo:
		// key_id=42, key_type=0x50, group_id=7, verify_day=0, ble_online=1, power=88
		resp, _ := bleproto.BuildFrame(cmd, []byte{42, 0, 0x50, 7, 0, 0, 0, 0, 1, 88}, key)
		return [][]byte{resp}
	case bleproto.CmdGetVersion:
		resp, _ := bleproto.BuildFrame(cmd, []byte("1.2.3"), key)
		return [][]byte{resp}
	case bleproto.CmdEventCount:
		resp, _ := bleproto.BuildFrame(cmd, []byte{1, 0}, key)
		return [][]byte{resp}
	case bleproto.CmdGetEvent:
		// keyId=42, lockId=5, 2024-01-15 14:30:00, eventType=1
		resp, _ := bleproto.BuildFrame(cmd, []byte{42, 0, 0, 5, 0, 0x24, 0x01, 0x15, 0x14, 0x30, 0x00, 0x01}, key)
		return [][]byte{resp}
	case bleproto.CmdCleanEvent:
		resp, _ := bleproto.BuildFrame(cmd, nil, key)
		return [][]byte{resp}
	default:
		return nil
	}
}

func newTestFacade(t *testing.T) (*Facade, *recordingSender) {
	t.Helper()
	dev := &fakeDevice{seed: bytes.Repeat([]byte{0x5A}, 12), sysCode: session.DefaultConfig().SysCode, regCode: session.DefaultConfig().RegCode}

	adapter := simulated.NewAdapter()
	link := simulated.NewLink()
	link.Responder = dev.respond
	adapter.RegisterLink("AA:BB:CC:DD:EE:FF", link)
	adapter.SetScanResults([]transport.Device{{Name: "B03005-KEY1", Address: "AA:BB:CC:DD:EE:FF", RSSI: -40}})

	cfg := session.DefaultConfig()
	cfg.LinkUpDelay = time.Millisecond
	cfg.HandshakeGapDelay = time.Millisecond
	cfg.PostVerifyDelay = time.Millisecond
	cfg.HandshakeTimeout = 2 * time.Second
	cfg.CommandTimeout = 2 * time.Second

	sess := session.New(adapter, cfg)
	sender := &recordingSender{}
	f := New(sess, sender, nil, time.Millisecond, time.Second)
	return f, sender
}

func TestFacadeFullFlow(t *testing.T) {
	f, sender := newTestFacade(t)
	ctx := context.Background()

	f.Dispatch(ctx, InboundAction{Action: "scan"})
	devicesMsgs := sender.messagesOfType("devices")
	if len(devicesMsgs) != 1 {
		t.Fatalf("expected one devices message, got %d", len(devicesMsgs))
	}

	f.Dispatch(ctx, InboundAction{Action: "connect", Address: "AA:BB:CC:DD:EE:FF"})
	statusMsgs := sender.messagesOfType("status")
	if len(statusMsgs) == 0 {
		t.Fatal("expected a status message after connect")
	}
	if statusMsgs[len(statusMsgs)-1]["authenticated"] != true {
		t.Fatalf("expected authenticated status, got %v", statusMsgs[len(statusMsgs)-1])
	}

	f.Dispatch(ctx, InboundAction{Action: "read_key"})
	keyInfoMsgs := sender.messagesOfType("key_info")
	if len(keyInfoMsgs) != 1 {
		t.Fatalf("expected one key_info message, got %d", len(keyInfoMsgs))
	}
	data := keyInfoMsgs[0]["data"].(map[string]interface{})
	if data["keyId"].(float64) != 42 {
		t.Fatalf("expected keyId 42, got %v", data["keyId"])
	}
	if data["version"] != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %v", data["version"])
	}

	f.Dispatch(ctx, InboundAction{Action: "read_events"})
	eventsMsgs := sender.messagesOfType("events")
	if len(eventsMsgs) != 1 {
		t.Fatalf("expected one events message, got %d", len(eventsMsgs))
	}
	evData := eventsMsgs[0]["data"].([]interface{})
	if len(evData) != 1 {
		t.Fatalf("expected one event, got %d", len(evData))
	}
	ev := evData[0].(map[string]interface{})
	if ev["eventName"] != "Open Success" {
		t.Fatalf("expected Open Success, got %v", ev["eventName"])
	}
}

func TestFacadeUnknownAction(t *testing.T) {
	f, sender := newTestFacade(t)
	f.Dispatch(context.Background(), InboundAction{Action: "bogus"})
	errs := sender.messagesOfType("error")
	if len(errs) != 1 {
		t.Fatalf("expected one error message, got %d", len(errs))
	}
}

func TestFacadeCommandBeforeConnectIsNotAuthenticated(t *testing.T) {
	f, sender := newTestFacade(t)
	f.Dispatch(context.Background(), InboundAction{Action: "read_key"})
	errs := sender.messagesOfType("error")
	if len(errs) != 1 {
		t.Fatalf("expected one error message, got %d", len(errs))
	}
}

func TestFacadeHandleMessageRejectsMalformedJSON(t *testing.T) {
	f, sender := newTestFacade(t)
	f.HandleMessage(context.Background(), []byte("{not json"))
	errs := sender.messagesOfType("error")
	if len(errs) != 1 {
		t.Fatalf("expected one error message, got %d", len(errs))
	}
}

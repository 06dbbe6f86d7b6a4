// Package bridge is the dispatch facade: it maps inbound JSON action
// messages to session/command-layer calls and emits structured JSON
// result messages back to the browser UI.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rayonics-ble-bridge/internal/bleproto"
	"rayonics-ble-bridge/internal/command"
	"rayonics-ble-bridge/internal/metrics"
	"rayonics-ble-bridge/internal/session"
)

// Sender pushes one outbound JSON message to the browser UI. It is
// satisfied by a thin adapter over the WebSocket connection; kept as
// an interface so the facade is testable without a real socket.
type Sender interface {
	Send(ctx context.Context, v interface{}) error
}

// Facade owns one session.Session for the lifetime of one WebSocket
// connection and translates between outer JSON actions and the
// protocol core.
type Facade struct {
	sess   *session.Session
	send   Sender
	log    *zap.SugaredLogger
	pacing time.Duration // between get-key-info/get-version and sequential event reads

	scanTimeout time.Duration
}

// New creates a Facade around sess, emitting results through send.
func New(sess *session.Session, send Sender, log *zap.SugaredLogger, eventPacing, scanTimeout time.Duration) *Facade {
	return &Facade{sess: sess, send: send, log: log, pacing: eventPacing, scanTimeout: scanTimeout}
}

// HandleMessage parses raw as an InboundAction and dispatches it.
// BadRequest on malformed JSON and UnknownAction on an unrecognized
// action are both surfaced as a single `error` message, never as a
// panic or a dropped connection.
func (f *Facade) HandleMessage(ctx context.Context, raw []byte) {
	var in InboundAction
	if err := json.Unmarshal(raw, &in); err != nil {
		f.emitError(ctx, bleproto.NewBadRequest("malformed action message: "+err.Error()))
		return
	}
	f.Dispatch(ctx, in)
}

// Dispatch routes one parsed action to its handler.
func (f *Facade) Dispatch(ctx context.Context, in InboundAction) {
	switch in.Action {
	case "scan":
		f.handleScan(ctx)
	case "connect":
		f.handleConnect(ctx, in.Address)
	case "disconnect":
		f.handleDisconnect(ctx)
	case "read_key":
		f.handleReadKey(ctx)
	case "read_events":
		f.handleReadEvents(ctx, in.Clear)
	case "clear_events":
		f.handleClearEvents(ctx)
	default:
		f.emitError(ctx, bleproto.NewUnknownAction(in.Action))
	}
}

func (f *Facade) handleScan(ctx context.Context) {
	f.emitLog(ctx, "Scanning for BLE devices…", LevelInfo)
	devices, err := f.sess.Scan(ctx, f.scanTimeout)
	if err != nil {
		f.emitError(ctx, err)
		return
	}
	f.emitLog(ctx, fmt.Sprintf("Found %d device(s)", len(devices)), LevelInfo)

	entries := make([]deviceEntry, 0, len(devices))
	for _, d := range devices {
		rssi := d.RSSI
		if rssi == 0 {
			rssi = -100
		}
		entries = append(entries, deviceEntry{Name: d.Name, Address: d.Address, RSSI: rssi})
	}
	f.emit(ctx, devicesMessage{Type: "devices", Devices: entries})
}

func (f *Facade) handleConnect(ctx context.Context, address string) {
	f.emitLog(ctx, "Connecting to "+address+"…", LevelInfo)
	if err := f.sess.Connect(ctx, address); err != nil {
		f.emitError(ctx, err)
		return
	}
	metrics.ObserveSessionAuthenticated()
	f.emitLog(ctx, "Authentication successful", LevelSuccess)
	f.emitStatus(ctx)
}

func (f *Facade) handleDisconnect(ctx context.Context) {
	_ = f.sess.Disconnect()
	f.emitLog(ctx, "Disconnected", LevelInfo)
	f.emitStatus(ctx)
}

func (f *Facade) handleReadKey(ctx context.Context) {
	if !f.sess.Authenticated() {
		f.emitError(ctx, bleproto.NewNotAuthenticated())
		return
	}
	f.emitLog(ctx, "Reading key info…", LevelInfo)
	info, err := command.GetKeyInfo(ctx, f.sess, f.pacing)
	f.observeCommand("get_key_info", err)
	if err != nil {
		f.emitError(ctx, err)
		return
	}
	f.emitLog(ctx, "Key info received", LevelSuccess)
	f.emit(ctx, keyInfoMessage{Type: "key_info", Data: keyInfoData{
		KeyID:       info.KeyID,
		KeyType:     info.KeyType,
		KeyTypeName: info.KeyTypeName,
		GroupID:     info.GroupID,
		VerifyDay:   info.VerifyDay,
		IsBLEOnline: info.IsBLEOnline,
		Power:       info.Power,
		Version:     info.Version,
	}})
}

func (f *Facade) handleReadEvents(ctx context.Context, clear bool) {
	if !f.sess.Authenticated() {
		f.emitError(ctx, bleproto.NewNotAuthenticated())
		return
	}
	f.emitLog(ctx, "Reading event log…", LevelInfo)
	events, err := command.ReadEvents(ctx, f.sess, f.pacing)
	f.observeCommand("read_events", err)
	if err != nil {
		f.emitError(ctx, err)
		return
	}
	f.emitLog(ctx, fmt.Sprintf("Read %d event(s)", len(events)), LevelSuccess)
	f.emit(ctx, eventsMessage{Type: "events", Data: toEventEntries(events)})

	if clear && len(events) > 0 {
		f.handleClearEvents(ctx)
	}
}

func (f *Facade) handleClearEvents(ctx context.Context) {
	if !f.sess.Authenticated() {
		f.emitError(ctx, bleproto.NewNotAuthenticated())
		return
	}
	f.emitLog(ctx, "Clearing events…", LevelInfo)
	err := command.CleanEvents(ctx, f.sess)
	f.observeCommand("clean_events", err)
	if err != nil {
		f.emitError(ctx, err)
		return
	}
	f.emitLog(ctx, "Events cleared", LevelSuccess)
}

func toEventEntries(events []command.Event) []eventEntry {
	out := make([]eventEntry, 0, len(events))
	for _, e := range events {
		switch {
		case e.Error != "":
			out = append(out, eventEntry{Pos: e.Pos, Error: e.Error})
		case e.Raw != "":
			out = append(out, eventEntry{Pos: e.Pos, Raw: e.Raw})
		default:
			out = append(out, eventEntry{
				Time:      e.Time,
				LockID:    e.LockID,
				KeyID:     e.KeyID,
				Event:     e.EventCode,
				EventName: e.EventName,
			})
		}
	}
	return out
}

func (f *Facade) observeCommand(name string, err error) {
	metrics.ObserveCommandIssued(name)
	if err == nil {
		return
	}
	metrics.ObserveCommandFailed(name, kindOf(err))
}

func kindOf(err error) string {
	for _, k := range []bleproto.Kind{
		bleproto.KindLink, bleproto.KindProtocol, bleproto.KindTimeout,
		bleproto.KindAuthRejected, bleproto.KindNotAuthenticated,
		bleproto.KindUnknownAction, bleproto.KindBadRequest,
	} {
		if bleproto.IsKind(err, k) {
			return k.String()
		}
	}
	return "unknown"
}

func (f *Facade) emit(ctx context.Context, v interface{}) {
	if err := f.send.Send(ctx, v); err != nil && f.log != nil {
		f.log.Warnw("failed to send outbound message", "error", err)
	}
	metrics.ObserveWSFrame("out")
}

func (f *Facade) emitLog(ctx context.Context, message string, level LogLevel) {
	if f.log != nil {
		f.log.Infow(message, "level", string(level))
	}
	f.emit(ctx, logMessage{Type: "log", Message: message, Level: level})
}

func (f *Facade) emitError(ctx context.Context, err error) {
	if f.log != nil {
		f.log.Warnw("action error", "error", err)
	}
	f.emit(ctx, errorMessage{Type: "error", Message: err.Error()})
}

func (f *Facade) emitStatus(ctx context.Context) {
	f.emit(ctx, statusMessage{
		Type:          "status",
		Connected:     f.sess.Connected(),
		Authenticated: f.sess.Authenticated(),
		Device:        f.sess.DeviceName(),
	})
}

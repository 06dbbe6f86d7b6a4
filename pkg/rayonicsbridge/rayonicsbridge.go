// Package rayonicsbridge provides a small public surface for reusing
// this repository as a library. The implementation lives in internal/
// and may change without notice; this package only re-exports the
// types and constructors cmd/rayonics-bridge and external callers need.
package rayonicsbridge

import (
	"time"

	"go.uber.org/zap"

	"rayonics-ble-bridge/internal/bleproto"
	"rayonics-ble-bridge/internal/bridge"
	"rayonics-ble-bridge/internal/command"
	"rayonics-ble-bridge/internal/config"
	"rayonics-ble-bridge/internal/session"
	"rayonics-ble-bridge/internal/transport"
)

// --- Config ---

type Config = config.Config

// LoadConfig loads and defaults the bridge's YAML configuration.
func LoadConfig(path string) (*Config, error) { return config.Load(path) }

// --- Protocol core ---

type Kind = bleproto.Kind
type Error = bleproto.Error

const (
	KindLink             = bleproto.KindLink
	KindProtocol         = bleproto.KindProtocol
	KindTimeout          = bleproto.KindTimeout
	KindAuthRejected     = bleproto.KindAuthRejected
	KindNotAuthenticated = bleproto.KindNotAuthenticated
	KindUnknownAction    = bleproto.KindUnknownAction
	KindBadRequest       = bleproto.KindBadRequest
)

// --- Transport ---

type Adapter = transport.Adapter
type Link = transport.Link
type Device = transport.Device

// --- Session ---

type Session = session.Session
type SessionConfig = session.Config

// NewSession creates a Session bound to adapter.
func NewSession(adapter Adapter, cfg SessionConfig) *Session { return session.New(adapter, cfg) }

// DefaultSessionConfig returns the pacing and auth defaults known to
// work against shipped key firmware.
func DefaultSessionConfig() SessionConfig { return session.DefaultConfig() }

// --- Command layer ---

type KeyInfo = command.KeyInfo
type Event = command.Event

// --- Dispatch facade ---

type Facade = bridge.Facade
type Sender = bridge.Sender
type InboundAction = bridge.InboundAction

// NewFacade creates a Facade around sess, emitting results through send.
func NewFacade(sess *Session, send Sender, log *zap.SugaredLogger, eventPacing, scanTimeout time.Duration) *Facade {
	return bridge.New(sess, send, log, eventPacing, scanTimeout)
}

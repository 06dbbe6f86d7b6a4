// Package transport defines the contract the session state machine
// assumes from the platform BLE stack: connect, write-without-response,
// subscribe-to-notifications, disconnect. It only fixes the shape every
// backend, real or simulated, must satisfy.
package transport

import (
	"context"
	"time"
)

// Device describes a BLE scan result.
type Device struct {
	Name    string
	Address string
	RSSI    int
}

// NotifyFunc is invoked once per notification chunk arriving on the
// notify characteristic; a logical 19-byte frame may arrive split across
// more than one call.
type NotifyFunc func(chunk []byte)

// Link is an open GATT connection to one device.
type Link interface {
	// Write performs a write-without-response on the command
	// characteristic.
	Write(ctx context.Context, frame []byte) error

	// Subscribe registers fn to receive notification chunks from the
	// notify characteristic. It must be called at most once per Link.
	Subscribe(fn NotifyFunc) error

	// Disconnect tears down the GATT connection. Idempotent.
	Disconnect() error
}

// Adapter is the platform BLE stack: scanning and connecting.
type Adapter interface {
	// Scan discovers nearby devices for the given duration, filtered by
	// the caller to recognized name prefixes.
	Scan(ctx context.Context, timeout time.Duration) ([]Device, error)

	// Connect opens a GATT link to the device at address.
	Connect(ctx context.Context, address string) (Link, error)
}

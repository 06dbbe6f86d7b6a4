//go:build linux

package main

import (
	"rayonics-ble-bridge/internal/transport"
	"rayonics-ble-bridge/internal/transport/bleadapter"
)

func newAdapter() (transport.Adapter, error) {
	return bleadapter.New()
}

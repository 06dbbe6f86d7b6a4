//go:build !linux

package main

import (
	"fmt"

	"rayonics-ble-bridge/internal/transport"
)

func newAdapter() (transport.Adapter, error) {
	return nil, fmt.Errorf("BLE adapter supported only on linux")
}

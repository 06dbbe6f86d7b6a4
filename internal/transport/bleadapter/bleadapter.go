//go:build linux

// Package bleadapter wires internal/transport.Adapter to a real radio
// using tinygo.org/x/bluetooth. Nothing in the protocol core imports
// it; it exists so cmd/rayonics-bridge has a concrete backend on real
// hardware.
package bleadapter

import (
	"context"
	"fmt"
	"time"

	"rayonics-ble-bridge/internal/bleproto"
	"rayonics-ble-bridge/internal/transport"

	"tinygo.org/x/bluetooth"
)

// Adapter wraps the default host BLE adapter.
type Adapter struct {
	adapter *bluetooth.Adapter
}

// New enables the default Bluetooth adapter and returns a
// transport.Adapter backed by it.
func New() (*Adapter, error) {
	a := bluetooth.DefaultAdapter
	if err := a.Enable(); err != nil {
		return nil, bleproto.NewLinkError("enable adapter", err)
	}
	return &Adapter{adapter: a}, nil
}

func (a *Adapter) Scan(ctx context.Context, timeout time.Duration) ([]transport.Device, error) {
	var found []transport.Device

	// Scan blocks until StopScan; stop it on timeout or cancellation
	// even when no advertisement ever arrives.
	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	go func() {
		<-scanCtx.Done()
		_ = a.adapter.StopScan()
	}()

	err := a.adapter.Scan(func(ad *bluetooth.Adapter, result bluetooth.ScanResult) {
		name := result.LocalName()
		for _, prefix := range bleproto.DevicePrefixes {
			if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
				found = append(found, transport.Device{
					Name:    name,
					Address: result.Address.String(),
					RSSI:    int(result.RSSI),
				})
				break
			}
		}
	})
	if err != nil {
		return nil, bleproto.NewLinkError("scan", err)
	}
	return found, nil
}

func (a *Adapter) Connect(ctx context.Context, address string) (transport.Link, error) {
	mac, err := bluetooth.ParseMAC(address)
	if err != nil {
		return nil, bleproto.NewLinkError("parse address", err)
	}
	device, err := a.adapter.Connect(bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}}, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, bleproto.NewLinkError(fmt.Sprintf("connect %s", address), err)
	}

	svcUUID, err := bluetooth.ParseUUID(bleproto.ServiceUUID)
	if err != nil {
		return nil, bleproto.NewProtocolError("bad service uuid")
	}
	writeUUID, err := bluetooth.ParseUUID(bleproto.WriteCharUUID)
	if err != nil {
		return nil, bleproto.NewProtocolError("bad write characteristic uuid")
	}
	notifyUUID, err := bluetooth.ParseUUID(bleproto.NotifyCharUUID)
	if err != nil {
		return nil, bleproto.NewProtocolError("bad notify characteristic uuid")
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{svcUUID})
	if err != nil || len(services) == 0 {
		return nil, bleproto.NewLinkError("discover service", err)
	}
	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{writeUUID, notifyUUID})
	if err != nil || len(chars) < 2 {
		return nil, bleproto.NewLinkError("discover characteristics", err)
	}

	link := &Link{device: device}
	for _, c := range chars {
		switch c.UUID() {
		case writeUUID:
			link.writeChar = c
		case notifyUUID:
			link.notifyChar = c
		}
	}
	return link, nil
}

// Link is an open GATT connection on real hardware.
type Link struct {
	device     bluetooth.Device
	writeChar  bluetooth.DeviceCharacteristic
	notifyChar bluetooth.DeviceCharacteristic
}

func (l *Link) Write(ctx context.Context, frame []byte) error {
	_, err := l.writeChar.WriteWithoutResponse(frame)
	if err != nil {
		return bleproto.NewLinkError("write command characteristic", err)
	}
	return nil
}

func (l *Link) Subscribe(fn transport.NotifyFunc) error {
	return l.notifyChar.EnableNotifications(func(buf []byte) {
		fn(buf)
	})
}

func (l *Link) Disconnect() error {
	return l.device.Disconnect()
}

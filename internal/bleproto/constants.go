// Package bleproto implements the Rayonics BLE session protocol: frame
// codec, session-key derivation, and the error taxonomy shared by the
// session state machine and command layer.
package bleproto

// SystemKey is the fixed AES-128 key used for framing before a session
// key has been derived.
var SystemKey = []byte("RAYONICSBLEKEYV2")

// Frame tags occupy byte 0 of every on-wire frame.
const (
	FrameTagSystem  byte = 0x01
	FrameTagSession byte = 0x02
)

// Command codes. Only a subset is exposed through the command layer and
// dispatch facade; the rest are kept here because they are part of the
// wire protocol's shape even though nothing in this repository issues
// them (LSD4BT direct reads and firmware diagnostics are out of scope).
const (
	CmdConnectAuth  byte = 0x0D
	CmdVerifyCode   byte = 0x0F
	CmdGetKeyInfo   byte = 0x11
	CmdEventCount   byte = 0x26
	CmdGetEvent     byte = 0x27
	CmdCleanEvent   byte = 0x28
	CmdGetVersion   byte = 0x34
	CmdReadLSD4BT   byte = 0x40 // out of scope, kept for reference only
	CmdGetKeyStatus byte = 0x41 // unused by this bridge, kept for reference only
)

// VerifyFlagByte is appended to the VERIFY payload. The device expects
// this exact value; its semantics are undocumented.
const VerifyFlagByte byte = 0x04

// Default fallback codes used for the single CONNECT retry permitted by
// the session state machine.
var (
	DefaultFallbackSysCode = [4]byte{0x36, 0x36, 0x36, 0x36}
	DefaultFallbackRegCode = [4]byte{0x31, 0x31, 0x31, 0x31}
)

// GATT UUIDs for the command/notify characteristics and their service.
const (
	ServiceUUID    = "0000ff12-0000-1000-8000-00805f9b34fb"
	WriteCharUUID  = "0000ff01-0000-1000-8000-00805f9b34fb"
	NotifyCharUUID = "0000ff02-0000-1000-8000-00805f9b34fb"
)

// DevicePrefixes filters BLE scan results down to recognized smart-key
// device names.
var DevicePrefixes = []string{"B03005", "B03009", "B03018", "RayonicsKEY", "LSD4BT"}

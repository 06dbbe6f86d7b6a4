package bleproto

import "fmt"

// eventTypeNames and keyTypeNames are the display names surfaced to
// the browser UI verbatim.
var eventTypeNames = map[byte]string{
	0:  "Unknown",
	1:  "Open Success",
	2:  "Open Fail",
	3:  "Set Success",
	4:  "Set Fail",
	5:  "No Permission",
	6:  "Blacklisted",
	7:  "Time Expired",
	8:  "Outside Schedule",
	9:  "Read Audit",
	10: "Read Blacklist",
	11: "Sequence Open",
	12: "Sequence Cancel",
	13: "Emergency Open",
	14: "Power On",
	15: "Low Battery",
	16: "Tamper",
	17: "Lock Locked",
	18: "Lock Unlocked",
}

var keyTypeNames = map[byte]string{
	0x00: "Blank",
	0x06: "LSD4BT",
	0x11: "Register",
	0x12: "Setting",
	0x13: "Audit",
	0x15: "Blacklist",
	0x16: "Auxiliary",
	0x17: "Advanced",
	0x20: "Verify",
	0x21: "Trace",
	0x25: "Construction",
	0x50: "User",
	0xF2: "Logout",
	0xF5: "Electricity",
	0xF6: "Emergency",
}

// EventTypeName returns the human-readable name for an event type code,
// or "Unknown (N)" for anything not in the table.
func EventTypeName(code byte) string {
	if name, ok := eventTypeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (%d)", code)
}

// KeyTypeName returns the human-readable name for a key type code, or
// "0xNN" for anything not in the table.
func KeyTypeName(code byte) string {
	if name, ok := keyTypeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", code)
}

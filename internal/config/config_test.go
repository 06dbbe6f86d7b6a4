package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("listen:\n  address: \"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Listen.Address != "127.0.0.1:8787" {
		t.Fatalf("expected default listen address, got %q", c.Listen.Address)
	}
	if c.Timeouts.Command != 3*time.Second {
		t.Fatalf("expected default command timeout 3s, got %v", c.Timeouts.Command)
	}
	if c.Pacing.Event != 150*time.Millisecond {
		t.Fatalf("expected default event pacing 150ms, got %v", c.Pacing.Event)
	}
}

func TestLoadHonorsOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "listen:\n  address: \"0.0.0.0:9999\"\ntimeouts:\n  command: 7s\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Listen.Address != "0.0.0.0:9999" {
		t.Fatalf("expected overridden listen address, got %q", c.Listen.Address)
	}
	if c.Timeouts.Command != 7*time.Second {
		t.Fatalf("expected overridden command timeout, got %v", c.Timeouts.Command)
	}
}

func TestSessionConfigAppliesAuthCodes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "auth:\n  sys_code: \"ABCD\"\n  reg_code: \"WXYZ\"\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sc := c.SessionConfig()
	if string(sc.SysCode[:]) != "ABCD" {
		t.Fatalf("expected sys code ABCD, got %q", sc.SysCode)
	}
	if string(sc.RegCode[:]) != "WXYZ" {
		t.Fatalf("expected reg code WXYZ, got %q", sc.RegCode)
	}
}

// Package config loads the bridge's YAML configuration, defaulting
// every field the file omits or zeros.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"rayonics-ble-bridge/internal/session"
)

// Config is the top-level bridge configuration.
type Config struct {
	Listen struct {
		Address string `yaml:"address"`
	} `yaml:"listen"`

	Metrics struct {
		Address string `yaml:"address"` // empty disables the metrics server
	} `yaml:"metrics"`

	Auth struct {
		SysCode string `yaml:"sys_code"` // 4 ASCII bytes
		RegCode string `yaml:"reg_code"` // 4 ASCII bytes
	} `yaml:"auth"`

	Pacing struct {
		LinkUp       time.Duration `yaml:"link_up"`
		HandshakeGap time.Duration `yaml:"handshake_gap"`
		PostVerify   time.Duration `yaml:"post_verify"`
		Event        time.Duration `yaml:"event"`
	} `yaml:"pacing"`

	Timeouts struct {
		Handshake time.Duration `yaml:"handshake"`
		Command   time.Duration `yaml:"command"`
		Scan      time.Duration `yaml:"scan"`
	} `yaml:"timeouts"`
}

// Load reads and defaults a Config from path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Listen.Address == "" {
		c.Listen.Address = "127.0.0.1:8787"
	}
	def := session.DefaultConfig()
	if c.Auth.SysCode == "" {
		c.Auth.SysCode = string(def.SysCode[:])
	}
	if c.Auth.RegCode == "" {
		c.Auth.RegCode = string(def.RegCode[:])
	}
	if c.Pacing.LinkUp == 0 {
		c.Pacing.LinkUp = def.LinkUpDelay
	}
	if c.Pacing.HandshakeGap == 0 {
		c.Pacing.HandshakeGap = def.HandshakeGapDelay
	}
	if c.Pacing.PostVerify == 0 {
		c.Pacing.PostVerify = def.PostVerifyDelay
	}
	if c.Pacing.Event == 0 {
		c.Pacing.Event = def.EventPacingDelay
	}
	if c.Timeouts.Handshake == 0 {
		c.Timeouts.Handshake = def.HandshakeTimeout
	}
	if c.Timeouts.Command == 0 {
		c.Timeouts.Command = def.CommandTimeout
	}
	if c.Timeouts.Scan == 0 {
		c.Timeouts.Scan = 5 * time.Second
	}
}

// SessionConfig translates the loaded YAML into a session.Config,
// overriding the auth codes from Auth.SysCode/Auth.RegCode when they
// are exactly 4 bytes long.
func (c *Config) SessionConfig() session.Config {
	sc := session.DefaultConfig()
	if len(c.Auth.SysCode) == 4 {
		copy(sc.SysCode[:], c.Auth.SysCode)
	}
	if len(c.Auth.RegCode) == 4 {
		copy(sc.RegCode[:], c.Auth.RegCode)
	}
	sc.LinkUpDelay = c.Pacing.LinkUp
	sc.HandshakeGapDelay = c.Pacing.HandshakeGap
	sc.PostVerifyDelay = c.Pacing.PostVerify
	sc.EventPacingDelay = c.Pacing.Event
	sc.HandshakeTimeout = c.Timeouts.Handshake
	sc.CommandTimeout = c.Timeouts.Command
	return sc
}

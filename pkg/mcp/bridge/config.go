package bridge

import (
	"encoding/json"
	"os"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Config is the on-disk shape of an MCP server list per spec §6:
//
//	{ "mcpServers": { "<name>": { "url": "...", "headers": {...} } } }
type Config struct {
	Servers map[string]ServerConfig `json:"mcpServers"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC FUNCTIONS

// LoadConfig reads and parses a server list from path. Entries lacking a
// url are dropped rather than rejected, since a partially filled-in config
// (a name reserved for later) is common in practice.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw Config
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	cfg := &Config{Servers: make(map[string]ServerConfig, len(raw.Servers))}
	for name, sc := range raw.Servers {
		if sc.URL == "" {
			continue
		}
		sc.Name = name
		cfg.Servers[name] = sc
	}
	return cfg, nil
}

// Merge overlays local on top of base: a server name present in both
// configs takes local's definition, per spec §6's "local overrides global
// on name collision".
func Merge(base, local *Config) *Config {
	out := &Config{Servers: make(map[string]ServerConfig)}
	if base != nil {
		for name, sc := range base.Servers {
			out.Servers[name] = sc
		}
	}
	if local != nil {
		for name, sc := range local.Servers {
			out.Servers[name] = sc
		}
	}
	return out
}

// ServerConfigs returns cfg's entries as a slice, suitable for passing to
// the Servers bridge option.
func (cfg *Config) ServerConfigs() []ServerConfig {
	if cfg == nil {
		return nil
	}
	out := make([]ServerConfig, 0, len(cfg.Servers))
	for _, sc := range cfg.Servers {
		out = append(out, sc)
	}
	return out
}

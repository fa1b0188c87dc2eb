package config

import "time"

// Config holds runtime settings for the terminal agent.
//
// Fields:
//   - ServerAddr: base URL of the document-store service.
//   - Mode: backend mode, "remote" or "mock".
//   - StoragePath: path of the terminal-local sqlite database.
//   - OnlineCheckInterval: how often the agent probes server reachability.
//   - SyncInterval: how often the pending queue is flushed on schedule,
//     independent of connectivity-triggered replay.
type Config struct {
	ServerAddr          string
	Mode                string
	StoragePath         string
	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "http://127.0.0.1:8080"
	c.Mode = "remote"
	c.StoragePath = "tillkeeper.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

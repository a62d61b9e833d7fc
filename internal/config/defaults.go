package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAPITimeout        = 30 * time.Second
	DefaultMaxRetries        = 3
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 10
	DefaultMinConns          = 2
	DefaultReconnectBaseWait = 1 * time.Second
	DefaultReconnectMaxWait  = 30 * time.Second
	DefaultMaxReconnects     = 5
	DefaultPingInterval      = 30 * time.Second
	DefaultPingTimeout       = 90 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultBufferSize        = 1000
	DefaultBatchSize         = 500
	DefaultFlushInterval     = 1 * time.Second

	// LivePathSuffix is appended to the API base URL when deriving the
	// WebSocket endpoint.
	LivePathSuffix = "/ws/auctions"

	// DevLiveURL is the hardcoded fallback endpoint for local testing.
	DevLiveURL = "ws://localhost:5000/ws/auctions"
)

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	// Live feed defaults
	if c.Live.ReconnectBaseWait == 0 {
		c.Live.ReconnectBaseWait = DefaultReconnectBaseWait
	}
	if c.Live.ReconnectMaxWait == 0 {
		c.Live.ReconnectMaxWait = DefaultReconnectMaxWait
	}
	if c.Live.MaxReconnects == 0 {
		c.Live.MaxReconnects = DefaultMaxReconnects
	}
	if c.Live.PingInterval == 0 {
		c.Live.PingInterval = DefaultPingInterval
	}
	if c.Live.PingTimeout == 0 {
		c.Live.PingTimeout = DefaultPingTimeout
	}
	if c.Live.WriteTimeout == 0 {
		c.Live.WriteTimeout = DefaultWriteTimeout
	}
	if c.Live.BufferSize == 0 {
		c.Live.BufferSize = DefaultBufferSize
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Recorder defaults
	if c.Recorder.BatchSize == 0 {
		c.Recorder.BatchSize = DefaultBatchSize
	}
	if c.Recorder.FlushInterval == 0 {
		c.Recorder.FlushInterval = DefaultFlushInterval
	}
}

package config

import (
	"errors"
	"fmt"
)

// Validate checks that values are in range. The database section has its own
// Validate because only the recorder requires it.
func (c *Config) Validate() error {
	if c.Live.ReconnectBaseWait <= 0 {
		return errors.New("live.reconnect_base_wait must be positive")
	}
	if c.Live.ReconnectMaxWait < c.Live.ReconnectBaseWait {
		return fmt.Errorf("live.reconnect_max_wait (%v) cannot be below reconnect_base_wait (%v)",
			c.Live.ReconnectMaxWait, c.Live.ReconnectBaseWait)
	}
	if c.Live.MaxReconnects < 1 {
		return errors.New("live.max_reconnects must be >= 1")
	}
	if c.Live.BufferSize < 1 {
		return errors.New("live.buffer_size must be >= 1")
	}

	if c.Recorder.BatchSize < 1 {
		return errors.New("recorder.batch_size must be >= 1")
	}
	if c.Recorder.FlushInterval <= 0 {
		return errors.New("recorder.flush_interval must be positive")
	}

	return nil
}

// Validate checks that the database section is complete.
func (db *DBConfig) Validate() error {
	if db.Host == "" {
		return errors.New("database.host is required")
	}
	if db.Name == "" {
		return errors.New("database.name is required")
	}
	if db.User == "" {
		return errors.New("database.user is required")
	}
	if db.Password == "" {
		return errors.New("database.password is required")
	}
	if db.MaxConns < 1 {
		return errors.New("database.max_conns must be >= 1")
	}
	if db.MinConns < 0 {
		return errors.New("database.min_conns must be >= 0")
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("database.min_conns (%d) cannot exceed max_conns (%d)", db.MinConns, db.MaxConns)
	}
	return nil
}

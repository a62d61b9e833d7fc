package config

import "time"

// Config is the root configuration for the live feed tools.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Live     LiveConfig     `yaml:"live"`
	Database DBConfig       `yaml:"database"`
	Recorder RecorderConfig `yaml:"recorder"`
}

// APIConfig holds marketplace REST API settings.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Token      string        `yaml:"token"` // Bearer token (acquisition is out of scope here)
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// LiveConfig holds live feed connection settings.
type LiveConfig struct {
	// URL is the explicit WebSocket endpoint. When empty it is derived from
	// api.base_url by protocol substitution, falling back to the local
	// development endpoint.
	URL string `yaml:"url"`

	ReconnectBaseWait time.Duration `yaml:"reconnect_base_wait"`
	ReconnectMaxWait  time.Duration `yaml:"reconnect_max_wait"`
	MaxReconnects     int           `yaml:"max_reconnects"`
	PingInterval      time.Duration `yaml:"ping_interval"`
	PingTimeout       time.Duration `yaml:"ping_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	BufferSize        int           `yaml:"buffer_size"`
}

// DBConfig holds the Postgres connection for the bid recorder.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RecorderConfig holds bid recorder settings.
type RecorderConfig struct {
	Auctions      []string      `yaml:"auctions"` // Auctions to subscribe and record
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

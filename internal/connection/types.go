package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrDisconnected    = errors.New("disconnected while connecting")
)

// Frame wraps one raw inbound message with its local read timestamp.
type Frame struct {
	Data       []byte    // Raw frame bytes from the WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// Outbound frame type discriminators.
const (
	typeJoinGroup  = "JoinAuctionGroup"
	typeLeaveGroup = "LeaveAuctionGroup"
)

// groupFrame is the outbound join/leave message for a server-side broadcast
// group. Group membership is fire-and-forget: the server sends no ack.
type groupFrame struct {
	Type      string `json:"type"`
	AuctionID string `json:"auctionId"`
}

// SocketConfig configures a transport socket.
type SocketConfig struct {
	URL          string        // WebSocket endpoint (e.g. wss://api.bidhaus.org/ws/auctions)
	Token        string        // Bearer token for the Authorization header (empty = no auth)
	PingInterval time.Duration // Interval between keepalive pings
	PingTimeout  time.Duration // Max time without ping/pong before the connection is stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Inbound frame channel buffer size
}

// DefaultSocketConfig returns sensible defaults.
func DefaultSocketConfig() SocketConfig {
	return SocketConfig{
		PingInterval: 30 * time.Second,
		PingTimeout:  90 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   1000,
	}
}

// ManagerConfig configures the Connection Manager.
type ManagerConfig struct {
	URL               string        // WebSocket endpoint
	Token             string        // Bearer token (empty = no auth)
	ReconnectBaseWait time.Duration // First reconnect delay; doubles per attempt
	ReconnectMaxWait  time.Duration // Ceiling on the reconnect delay
	MaxReconnects     int           // Automatic attempts before giving up
	PingInterval      time.Duration
	PingTimeout       time.Duration
	WriteTimeout      time.Duration
	BufferSize        int
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ReconnectBaseWait: 1 * time.Second,
		ReconnectMaxWait:  30 * time.Second,
		MaxReconnects:     5,
		PingInterval:      30 * time.Second,
		PingTimeout:       90 * time.Second,
		WriteTimeout:      5 * time.Second,
		BufferSize:        1000,
	}
}

func (c ManagerConfig) withDefaults() ManagerConfig {
	def := DefaultManagerConfig()
	if c.ReconnectBaseWait == 0 {
		c.ReconnectBaseWait = def.ReconnectBaseWait
	}
	if c.ReconnectMaxWait == 0 {
		c.ReconnectMaxWait = def.ReconnectMaxWait
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = def.MaxReconnects
	}
	if c.PingInterval == 0 {
		c.PingInterval = def.PingInterval
	}
	if c.PingTimeout == 0 {
		c.PingTimeout = def.PingTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.BufferSize == 0 {
		c.BufferSize = def.BufferSize
	}
	return c
}

func (c ManagerConfig) socketConfig() SocketConfig {
	return SocketConfig{
		URL:          c.URL,
		Token:        c.Token,
		PingInterval: c.PingInterval,
		PingTimeout:  c.PingTimeout,
		WriteTimeout: c.WriteTimeout,
		BufferSize:   c.BufferSize,
	}
}

// State is the Connection Manager's externally visible connection state.
// Transitions are linear: Connecting is never skipped on the way to Connected,
// and Reconnecting is a waiting state between a close and the next attempt,
// not a socket state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

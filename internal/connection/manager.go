package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bidhaus/livefeed/internal/event"
	"github.com/bidhaus/livefeed/internal/subscription"
)

// Manager owns the transport socket lifecycle, drives reconnection through
// the Backoff policy, and replays the full subscription set after every
// successful (re)connect. It is the only component exposed to callers.
//
// Handler registration and network subscription are deliberately separate:
// OnBidUpdate/OnAuctionEnded alone do NOT join the server-side group — call
// SubscribeToAuction for that — but a registered handler DOES keep its
// auction in the resubscription sweep after a reconnect. A caller whose
// explicit subscribe raced with a disconnect is still rejoined once the
// connection recovers.
type Manager struct {
	cfg     ManagerConfig
	backoff Backoff
	logger  *slog.Logger

	registry *subscription.Registry
	router   *router

	// newSocket is swapped in tests.
	newSocket func() Socket

	mu       sync.Mutex
	state    State
	sock     Socket
	inflight *attempt    // non-nil while state == StateConnecting
	timer    *time.Timer // pending reconnect timer
	attempts int         // failed reconnect attempts since last success
	gen      int         // connection generation; guards stale read loops
}

// ManagerStats provides a snapshot of connection and routing state.
type ManagerStats struct {
	State State
	RouterStats
}

// attempt is one in-flight connect shared by all concurrent Connect callers,
// so two callers never race two physical connections.
type attempt struct {
	done chan struct{}
	err  error
}

func (a *attempt) wait(ctx context.Context) error {
	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *attempt) finish(err error) {
	a.err = err
	close(a.done)
}

// NewManager creates a Connection Manager. Construct one per process and
// inject it into consumers; it is safe for concurrent use.
func NewManager(cfg ManagerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	registry := subscription.NewRegistry()

	m := &Manager{
		cfg: cfg,
		backoff: Backoff{
			Base:        cfg.ReconnectBaseWait,
			Max:         cfg.ReconnectMaxWait,
			MaxAttempts: cfg.MaxReconnects,
		},
		logger:   logger,
		registry: registry,
		router:   newRouter(registry, logger),
		state:    StateDisconnected,
	}
	m.newSocket = func() Socket {
		return NewSocket(cfg.socketConfig(), logger)
	}
	return m
}

// Connect ensures a live connection. Already connected is a no-op; an
// in-flight attempt is joined rather than raced. A dial failure is returned
// to the caller and never schedules an automatic retry — reconnect scheduling
// belongs to the close handler alone.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateConnected:
		m.mu.Unlock()
		return nil
	case StateConnecting:
		att := m.inflight
		m.mu.Unlock()
		return att.wait(ctx)
	}

	// Disconnected or Reconnecting: take over any pending backoff timer.
	m.stopTimerLocked()
	att := &attempt{done: make(chan struct{})}
	m.inflight = att
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	return m.establish(ctx, att, false)
}

// Disconnect cancels any pending reconnect timer, closes the socket, and
// clears the explicit topic set. Handler registrations are retained: local
// registrations have caller-managed lifetime, only server-side join state is
// lost. The timer cancellation and state change happen under one lock, so a
// timer firing after Disconnect cannot resurrect the connection.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.stopTimerLocked()
	m.inflight = nil // an in-flight dial will see this and abandon its socket
	sock := m.sock
	m.sock = nil
	m.gen++
	m.attempts = 0
	m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	if sock != nil {
		sock.Close()
	}
	m.registry.ClearTopics()
}

// SubscribeToAuction connects if necessary, records the auction in the
// active-topic set, and sends a join frame. Subscribing twice re-sends the
// join (cheap, server-tolerant) without duplicating bookkeeping.
func (m *Manager) SubscribeToAuction(ctx context.Context, auctionID string) error {
	if err := m.Connect(ctx); err != nil {
		return fmt.Errorf("subscribe to auction %s: %w", auctionID, err)
	}
	m.registry.AddTopic(auctionID)
	if err := m.sendGroup(typeJoinGroup, auctionID); err != nil {
		return fmt.Errorf("subscribe to auction %s: %w", auctionID, err)
	}
	return nil
}

// UnsubscribeFromAuction removes the auction from the active-topic set and,
// if connected, sends a leave frame. The removal happens regardless of
// connection state.
func (m *Manager) UnsubscribeFromAuction(auctionID string) error {
	m.registry.RemoveTopic(auctionID)

	m.mu.Lock()
	connected := m.state == StateConnected
	m.mu.Unlock()
	if !connected {
		return nil
	}

	if err := m.sendGroup(typeLeaveGroup, auctionID); err != nil {
		return fmt.Errorf("unsubscribe from auction %s: %w", auctionID, err)
	}
	return nil
}

// OnBidUpdate registers h for bid updates on one auction. This does not join
// the server-side group; pair it with SubscribeToAuction.
func (m *Manager) OnBidUpdate(auctionID string, h event.BidUpdateHandler) *subscription.Registration {
	return m.registry.AddBidHandler(auctionID, h)
}

// OnAnyBidUpdate registers h for bid updates on every subscribed auction.
func (m *Manager) OnAnyBidUpdate(h event.BidUpdateHandler) *subscription.Registration {
	return m.registry.AddGlobalBidHandler(h)
}

// OnAuctionEnded registers h for the closing event of one auction.
func (m *Manager) OnAuctionEnded(auctionID string, h event.AuctionEndedHandler) *subscription.Registration {
	return m.registry.AddEndedHandler(auctionID, h)
}

// IsConnected reports whether the manager is in the Connected state.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateConnected
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Stats returns current statistics.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	state := m.state
	m.mu.Unlock()

	return ManagerStats{
		State:       state,
		RouterStats: m.router.stats(),
	}
}

// establish dials a fresh socket and settles the shared attempt. background
// marks timer-driven reconnects, whose failures self-schedule the next
// attempt; caller-initiated failures settle Disconnected and do not.
func (m *Manager) establish(ctx context.Context, att *attempt, background bool) error {
	sock := m.newSocket()
	err := sock.Connect(ctx)

	m.mu.Lock()
	if m.inflight != att {
		// Disconnect raced the dial; drop whatever we opened.
		m.mu.Unlock()
		if err == nil {
			sock.Close()
		}
		att.finish(ErrDisconnected)
		return ErrDisconnected
	}
	m.inflight = nil

	if err != nil {
		if background {
			m.attempts++
			m.logger.Warn("reconnect attempt failed",
				"attempt", m.attempts,
				"error", err,
			)
			m.setStateLocked(StateReconnecting)
			m.scheduleReconnectLocked()
		} else {
			m.setStateLocked(StateDisconnected)
		}
		m.mu.Unlock()
		att.finish(err)
		return err
	}

	m.sock = sock
	m.attempts = 0
	m.gen++
	gen := m.gen
	m.setStateLocked(StateConnected)
	// Snapshot the resubscribe set under the manager lock so a topic
	// subscribed before this point is never dropped from the sweep.
	topics := m.registry.ResubscribeTopics()
	m.mu.Unlock()

	go m.readLoop(sock, gen)

	for _, id := range topics {
		if err := m.sendGroup(typeJoinGroup, id); err != nil {
			m.logger.Warn("rejoin failed", "auction_id", id, "error", err)
		}
	}

	att.finish(nil)
	return nil
}

// readLoop routes frames from one socket until it closes. gen ties the loop
// to the connection it was started for, so a stale loop cannot act on a
// newer connection's behalf.
func (m *Manager) readLoop(sock Socket, gen int) {
	for {
		select {
		case f, ok := <-sock.Frames():
			if !ok {
				// Read loop ended: failure puts an error on the channel
				// before closing frames, local Close does not.
				select {
				case err := <-sock.Errors():
					sock.Close()
					m.handleClose(gen, err)
				default:
				}
				return
			}
			m.router.route(f)

		case err := <-sock.Errors():
			sock.Close()
			m.handleClose(gen, err)
			return
		}
	}
}

// handleClose reacts to abnormal closure of the current connection. The
// manager cannot distinguish server-initiated from network-induced closure
// and does not need to: both take the backoff path.
func (m *Manager) handleClose(gen int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != gen || m.state != StateConnected {
		// Stale loop, or an explicit disconnect already settled things.
		return
	}

	m.sock = nil
	m.logger.Warn("connection lost", "error", err)
	m.setStateLocked(StateReconnecting)
	m.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the backoff timer for the next attempt, or
// settles Disconnected once the retry budget is spent. Only an explicit
// Connect or SubscribeToAuction resumes attempts after that.
func (m *Manager) scheduleReconnectLocked() {
	next := m.attempts + 1
	if m.backoff.Exhausted(next) {
		m.logger.Error("abandoning automatic reconnection",
			"attempts", m.attempts,
		)
		m.setStateLocked(StateDisconnected)
		return
	}

	wait := m.backoff.Wait(next)
	m.logger.Info("scheduling reconnect", "attempt", next, "wait", wait)
	m.timer = time.AfterFunc(wait, m.tryReconnect)
}

// tryReconnect runs when the backoff timer fires.
func (m *Manager) tryReconnect() {
	m.mu.Lock()
	if m.state != StateReconnecting {
		// Disconnected explicitly, or an explicit Connect took over.
		m.mu.Unlock()
		return
	}
	m.timer = nil
	att := &attempt{done: make(chan struct{})}
	m.inflight = att
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	// Background attempt: no caller is waiting, failures are logged by
	// establish and self-schedule the next try.
	m.establish(context.Background(), att, true)
}

func (m *Manager) sendGroup(frameType, auctionID string) error {
	m.mu.Lock()
	sock := m.sock
	m.mu.Unlock()
	if sock == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(groupFrame{Type: frameType, AuctionID: auctionID})
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", frameType, err)
	}
	return sock.Send(data)
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) setStateLocked(s State) {
	if m.state != s {
		m.logger.Debug("connection state", "from", m.state, "to", s)
	}
	m.state = s
}

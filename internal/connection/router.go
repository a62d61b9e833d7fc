package connection

import (
	"log/slog"
	"sync"

	"github.com/bidhaus/livefeed/internal/event"
	"github.com/bidhaus/livefeed/internal/subscription"
)

// RouterStats contains frame routing counters.
type RouterStats struct {
	FramesReceived int64
	FramesRouted   int64
	ParseErrors    int64
	UnknownFrames  int64
}

// router parses inbound frames and fans them out to registered handlers.
// Dispatch is synchronous with frame arrival: every matching handler runs
// before the next frame is routed, so notification order matches wire order.
type router struct {
	registry *subscription.Registry
	logger   *slog.Logger

	mu          sync.Mutex
	received    int64
	routed      int64
	parseErrors int64
	unknown     int64
}

func newRouter(registry *subscription.Registry, logger *slog.Logger) *router {
	if logger == nil {
		logger = slog.Default()
	}
	return &router{
		registry: registry,
		logger:   logger,
	}
}

// route parses one frame and invokes every matching handler. Malformed and
// unrecognized frames are logged and dropped; they never tear down the
// connection or reach handlers.
func (r *router) route(f Frame) {
	r.mu.Lock()
	r.received++
	r.mu.Unlock()

	ev, err := event.Parse(f.Data, f.ReceivedAt)
	if err != nil {
		r.logger.Warn("dropping malformed frame", "error", err)
		r.mu.Lock()
		r.parseErrors++
		r.mu.Unlock()
		return
	}

	switch ev := ev.(type) {
	case event.Connected:
		// Connect acknowledgement only; no handler dispatch.
		r.logger.Info("server acknowledged connection", "client_id", ev.ClientID)

	case event.BidUpdate:
		// Per-auction handlers and global handlers are both notified.
		for _, h := range r.registry.BidHandlers(ev.AuctionID) {
			h(ev)
		}
		r.mu.Lock()
		r.routed++
		r.mu.Unlock()

	case event.AuctionEnded:
		for _, h := range r.registry.EndedHandlers(ev.AuctionID) {
			h(ev)
		}
		r.mu.Lock()
		r.routed++
		r.mu.Unlock()

	case event.Unknown:
		r.logger.Warn("dropping unknown frame type", "type", ev.Type)
		r.mu.Lock()
		r.unknown++
		r.mu.Unlock()
	}
}

// stats returns a snapshot of the routing counters.
func (r *router) stats() RouterStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return RouterStats{
		FramesReceived: r.received,
		FramesRouted:   r.routed,
		ParseErrors:    r.parseErrors,
		UnknownFrames:  r.unknown,
	}
}

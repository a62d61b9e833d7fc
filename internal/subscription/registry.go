package subscription

import (
	"sync"

	"github.com/bidhaus/livefeed/internal/event"
)

// Registration is the handle returned when a handler is added. Cancel removes
// exactly that handler; cancelling twice is a no-op.
type Registration struct {
	once   sync.Once
	remove func()
}

// Cancel removes the handler this registration refers to.
func (r *Registration) Cancel() {
	r.once.Do(r.remove)
}

// Registry tracks which auctions the process cares about and which handlers
// want to hear about them. Registering the same callback twice creates two
// independent registrations, each removable on its own.
type Registry struct {
	mu     sync.Mutex
	nextID uint64

	bid       map[string]map[uint64]event.BidUpdateHandler
	globalBid map[uint64]event.BidUpdateHandler
	ended     map[string]map[uint64]event.AuctionEndedHandler

	// topics is the explicit active-topic set; handler registrations above
	// contribute to the resubscribe set independently of it.
	topics map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bid:       make(map[string]map[uint64]event.BidUpdateHandler),
		globalBid: make(map[uint64]event.BidUpdateHandler),
		ended:     make(map[string]map[uint64]event.AuctionEndedHandler),
		topics:    make(map[string]struct{}),
	}
}

// AddBidHandler registers h for bid updates on one auction.
func (r *Registry) AddBidHandler(auctionID string, h event.BidUpdateHandler) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextIDLocked()
	handlers, ok := r.bid[auctionID]
	if !ok {
		handlers = make(map[uint64]event.BidUpdateHandler)
		r.bid[auctionID] = handlers
	}
	handlers[id] = h

	return &Registration{remove: func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.bid[auctionID], id)
		if len(r.bid[auctionID]) == 0 {
			delete(r.bid, auctionID)
		}
	}}
}

// AddGlobalBidHandler registers h for bid updates on every auction.
func (r *Registry) AddGlobalBidHandler(h event.BidUpdateHandler) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextIDLocked()
	r.globalBid[id] = h

	return &Registration{remove: func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.globalBid, id)
	}}
}

// AddEndedHandler registers h for the closing event of one auction.
func (r *Registry) AddEndedHandler(auctionID string, h event.AuctionEndedHandler) *Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextIDLocked()
	handlers, ok := r.ended[auctionID]
	if !ok {
		handlers = make(map[uint64]event.AuctionEndedHandler)
		r.ended[auctionID] = handlers
	}
	handlers[id] = h

	return &Registration{remove: func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.ended[auctionID], id)
		if len(r.ended[auctionID]) == 0 {
			delete(r.ended, auctionID)
		}
	}}
}

// AddTopic adds an auction to the explicit active-topic set.
func (r *Registry) AddTopic(auctionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics[auctionID] = struct{}{}
}

// RemoveTopic removes an auction from the explicit active-topic set. Handler
// registrations for the auction are untouched and still keep it in the
// resubscribe set.
func (r *Registry) RemoveTopic(auctionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.topics, auctionID)
}

// ClearTopics empties the explicit active-topic set. Handlers are retained:
// local registrations have caller-managed lifetime, only the server-side join
// state is considered lost.
func (r *Registry) ClearTopics() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = make(map[string]struct{})
}

// ResubscribeTopics returns every auction needing a join after a reconnect:
// the union of the explicit set, the per-auction bid-handler keys, and the
// per-auction ended-handler keys, snapshotted under one lock.
func (r *Registry) ResubscribeTopics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(r.topics)+len(r.bid)+len(r.ended))
	for id := range r.topics {
		seen[id] = struct{}{}
	}
	for id := range r.bid {
		seen[id] = struct{}{}
	}
	for id := range r.ended {
		seen[id] = struct{}{}
	}

	topics := make([]string, 0, len(seen))
	for id := range seen {
		topics = append(topics, id)
	}
	return topics
}

// BidHandlers returns the handlers to invoke for a bid update on auctionID:
// the per-auction handlers followed by every global handler. The slice is a
// snapshot; callers invoke without holding the registry lock.
func (r *Registry) BidHandlers(auctionID string) []event.BidUpdateHandler {
	r.mu.Lock()
	defer r.mu.Unlock()

	handlers := make([]event.BidUpdateHandler, 0, len(r.bid[auctionID])+len(r.globalBid))
	for _, h := range r.bid[auctionID] {
		handlers = append(handlers, h)
	}
	for _, h := range r.globalBid {
		handlers = append(handlers, h)
	}
	return handlers
}

// EndedHandlers returns the handlers to invoke when auctionID closes. There is
// no global variant for auction-ended events.
func (r *Registry) EndedHandlers(auctionID string) []event.AuctionEndedHandler {
	r.mu.Lock()
	defer r.mu.Unlock()

	handlers := make([]event.AuctionEndedHandler, 0, len(r.ended[auctionID]))
	for _, h := range r.ended[auctionID] {
		handlers = append(handlers, h)
	}
	return handlers
}

func (r *Registry) nextIDLocked() uint64 {
	r.nextID++
	return r.nextID
}

package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Frame type discriminators used by the server.
const (
	TypeConnected    = "connected"
	TypeBidUpdate    = "BidUpdate"
	TypeAuctionEnded = "AuctionEnded"
)

// Event is one parsed inbound frame. Concrete types are Connected, BidUpdate,
// AuctionEnded, and Unknown; dispatch with a type switch.
type Event interface {
	frameType() string
}

// Connected is the server's acknowledgement after the socket opens. It carries
// the session identifier and nothing else; no handlers are dispatched for it.
type Connected struct {
	ClientID string `json:"clientId"`
}

// BidUpdate reports a new highest bid on an auction.
type BidUpdate struct {
	AuctionID  string  `json:"auctionId"`
	CurrentBid float64 `json:"currentBid"`
	BidCount   int     `json:"bidCount"`
	BidderID   string  `json:"bidderId"`
	BidderName string  `json:"bidderName"`

	// ReceivedAt is the local timestamp when the frame was read.
	ReceivedAt time.Time `json:"-"`
}

// AuctionEnded reports that an auction closed. Winner fields are empty when
// the auction ended without bids.
type AuctionEnded struct {
	AuctionID  string  `json:"auctionId"`
	WinnerID   string  `json:"winnerId"`
	WinnerName string  `json:"winnerName"`
	FinalBid   float64 `json:"finalBid"`

	ReceivedAt time.Time `json:"-"`
}

// Unknown is any frame whose discriminator the client does not recognize.
// The wire contract evolves server-side independently of client deployment,
// so these are dropped, never treated as errors.
type Unknown struct {
	Type string
}

func (Connected) frameType() string    { return TypeConnected }
func (BidUpdate) frameType() string    { return TypeBidUpdate }
func (AuctionEnded) frameType() string { return TypeAuctionEnded }
func (u Unknown) frameType() string    { return u.Type }

// BidUpdateHandler receives bid updates for one auction, or for all auctions
// when registered globally.
type BidUpdateHandler func(BidUpdate)

// AuctionEndedHandler receives the closing event for one auction.
type AuctionEndedHandler func(AuctionEnded)

// envelope is the wire shape shared by every inbound frame.
type envelope struct {
	Type     string          `json:"type"`
	ClientID string          `json:"clientId"`
	Data     json.RawMessage `json:"data"`
}

// Parse decodes one raw frame into a typed event. receivedAt stamps payload
// events with the local read time. A frame that fails to decode returns an
// error; an unrecognized discriminator returns Unknown, not an error.
func Parse(data []byte, receivedAt time.Time) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode frame envelope: %w", err)
	}

	switch env.Type {
	case TypeConnected:
		return Connected{ClientID: env.ClientID}, nil

	case TypeBidUpdate:
		var ev BidUpdate
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode bid update: %w", err)
		}
		ev.ReceivedAt = receivedAt
		return ev, nil

	case TypeAuctionEnded:
		var ev AuctionEnded
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("decode auction ended: %w", err)
		}
		ev.ReceivedAt = receivedAt
		return ev, nil

	default:
		return Unknown{Type: env.Type}, nil
	}
}

package connection

import (
	"testing"
	"time"

	"github.com/bidhaus/livefeed/internal/event"
	"github.com/bidhaus/livefeed/internal/subscription"
)

func frameOf(data string) Frame {
	return Frame{Data: []byte(data), ReceivedAt: time.Now()}
}

func TestRouter_BidUpdateDispatch(t *testing.T) {
	reg := subscription.NewRegistry()
	r := newRouter(reg, nil)

	var topicGot, globalGot *event.BidUpdate
	reg.AddBidHandler("auction-42", func(ev event.BidUpdate) { topicGot = &ev })
	reg.AddGlobalBidHandler(func(ev event.BidUpdate) { globalGot = &ev })
	reg.AddBidHandler("auction-7", func(event.BidUpdate) { t.Error("handler for other auction invoked") })

	r.route(frameOf(`{"type":"BidUpdate","data":{"auctionId":"auction-42","currentBid":150,"bidCount":3,"bidderId":"u9","bidderName":"Alex"}}`))

	if topicGot == nil {
		t.Fatal("per-auction handler not invoked")
	}
	if globalGot == nil {
		t.Fatal("global handler not invoked")
	}
	if topicGot.CurrentBid != 150 || topicGot.BidCount != 3 {
		t.Errorf("per-auction payload = %+v, want currentBid 150 bidCount 3", topicGot)
	}
	if globalGot.CurrentBid != 150 || globalGot.BidCount != 3 {
		t.Errorf("global payload = %+v, want currentBid 150 bidCount 3", globalGot)
	}

	stats := r.stats()
	if stats.FramesReceived != 1 || stats.FramesRouted != 1 {
		t.Errorf("stats = %+v, want 1 received 1 routed", stats)
	}
}

func TestRouter_AuctionEndedDispatch(t *testing.T) {
	reg := subscription.NewRegistry()
	r := newRouter(reg, nil)

	var got *event.AuctionEnded
	reg.AddEndedHandler("auction-42", func(ev event.AuctionEnded) { got = &ev })
	// No global variant exists for auction-ended events.
	reg.AddGlobalBidHandler(func(event.BidUpdate) { t.Error("global bid handler invoked for ended event") })

	r.route(frameOf(`{"type":"AuctionEnded","data":{"auctionId":"auction-42","winnerId":"u9","winnerName":"Alex","finalBid":275}}`))

	if got == nil {
		t.Fatal("ended handler not invoked")
	}
	if got.FinalBid != 275 {
		t.Errorf("FinalBid = %v, want 275", got.FinalBid)
	}
}

func TestRouter_ConnectedNoDispatch(t *testing.T) {
	reg := subscription.NewRegistry()
	r := newRouter(reg, nil)

	reg.AddGlobalBidHandler(func(event.BidUpdate) { t.Error("handler invoked for connected frame") })

	r.route(frameOf(`{"type":"connected","clientId":"sess-1"}`))

	stats := r.stats()
	if stats.FramesRouted != 0 {
		t.Errorf("FramesRouted = %d, want 0", stats.FramesRouted)
	}
}

func TestRouter_UnknownDropped(t *testing.T) {
	reg := subscription.NewRegistry()
	r := newRouter(reg, nil)

	reg.AddGlobalBidHandler(func(event.BidUpdate) { t.Error("handler invoked for unknown frame") })

	r.route(frameOf(`{"type":"Ping"}`))

	stats := r.stats()
	if stats.UnknownFrames != 1 {
		t.Errorf("UnknownFrames = %d, want 1", stats.UnknownFrames)
	}
	if stats.ParseErrors != 0 {
		t.Errorf("ParseErrors = %d, want 0", stats.ParseErrors)
	}
}

func TestRouter_MalformedDropped(t *testing.T) {
	reg := subscription.NewRegistry()
	r := newRouter(reg, nil)

	reg.AddGlobalBidHandler(func(event.BidUpdate) { t.Error("handler invoked for malformed frame") })

	r.route(frameOf(`{truncated`))
	r.route(frameOf(`{"type":"BidUpdate","data":"not an object"}`))

	stats := r.stats()
	if stats.ParseErrors != 2 {
		t.Errorf("ParseErrors = %d, want 2", stats.ParseErrors)
	}
}

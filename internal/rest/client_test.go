package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-token",
		WithRetries(3, 10*time.Millisecond),
	)
}

func TestGetAuction(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auctions/auction-42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{
			"id": "auction-42",
			"title": "Vintage camera",
			"status": "active",
			"currentBid": 150.0,
			"bidCount": 3,
			"highBidderId": "u9"
		}`))
	})

	auction, err := client.GetAuction(context.Background(), "auction-42")
	if err != nil {
		t.Fatalf("GetAuction() error: %v", err)
	}
	if auction.Title != "Vintage camera" {
		t.Errorf("Title = %q", auction.Title)
	}
	if auction.CurrentBid != 150.0 {
		t.Errorf("CurrentBid = %v", auction.CurrentBid)
	}
	if auction.BidCount != 3 {
		t.Errorf("BidCount = %d", auction.BidCount)
	}
}

func TestGetAuctionNotFound(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetAuction(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if calls.Load() != 1 {
		t.Errorf("404 was retried %d times, want no retry", calls.Load()-1)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id": "auction-1", "status": "active"}`))
	})

	auction, err := client.GetAuction(context.Background(), "auction-1")
	if err != nil {
		t.Fatalf("GetAuction() after retries: %v", err)
	}
	if auction.ID != "auction-1" {
		t.Errorf("ID = %q", auction.ID)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.GetAuction(context.Background(), "auction-1")
	if err == nil {
		t.Fatal("want error after exhausting retries")
	}
	// Initial attempt plus 3 retries.
	if calls.Load() != 4 {
		t.Errorf("calls = %d, want 4", calls.Load())
	}
}

func TestListAuctions(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("status"); got != "active" {
			t.Errorf("status query = %q", got)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("page query = %q", got)
		}
		w.Write([]byte(`{
			"auctions": [{"id": "a1"}, {"id": "a2"}],
			"total": 12,
			"page": 2,
			"pageSize": 2
		}`))
	})

	resp, err := client.ListAuctions(context.Background(), ListAuctionsOptions{
		Status: "active",
		Page:   2,
	})
	if err != nil {
		t.Fatalf("ListAuctions() error: %v", err)
	}
	if len(resp.Auctions) != 2 {
		t.Errorf("len(Auctions) = %d", len(resp.Auctions))
	}
	if resp.Total != 12 {
		t.Errorf("Total = %d", resp.Total)
	}
}

func TestGetAuctionBids(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auctions/auction-42/bids" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`[
			{"auctionId": "auction-42", "bidderId": "u9", "bidderName": "Alex", "amount": 150.0},
			{"auctionId": "auction-42", "bidderId": "u4", "bidderName": "Sam", "amount": 140.0}
		]`))
	})

	bids, err := client.GetAuctionBids(context.Background(), "auction-42")
	if err != nil {
		t.Fatalf("GetAuctionBids() error: %v", err)
	}
	if len(bids) != 2 {
		t.Fatalf("len(bids) = %d", len(bids))
	}
	if bids[0].BidderName != "Alex" || bids[0].Amount != 150.0 {
		t.Errorf("bids[0] = %+v", bids[0])
	}
}

func TestAnonymousClientOmitsAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Error("Authorization header sent for anonymous client")
		}
		w.Write([]byte(`{"id": "a1"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	if _, err := client.GetAuction(context.Background(), "a1"); err != nil {
		t.Fatalf("GetAuction() error: %v", err)
	}
}

package rest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Auction is an auction listing as returned by the marketplace API.
type Auction struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	SellerID     string    `json:"sellerId"`
	Status       string    `json:"status"` // "active", "ended", "cancelled"
	StartingBid  float64   `json:"startingBid"`
	CurrentBid   float64   `json:"currentBid"`
	BidCount     int       `json:"bidCount"`
	HighBidderID string    `json:"highBidderId,omitempty"`
	EndsAt       time.Time `json:"endsAt"`
}

// Bid is a single bid on an auction.
type Bid struct {
	AuctionID  string    `json:"auctionId"`
	BidderID   string    `json:"bidderId"`
	BidderName string    `json:"bidderName"`
	Amount     float64   `json:"amount"`
	PlacedAt   time.Time `json:"placedAt"`
}

// AuctionsResponse is a page of auction listings.
type AuctionsResponse struct {
	Auctions []Auction `json:"auctions"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

// ListAuctionsOptions filters and paginates ListAuctions.
type ListAuctionsOptions struct {
	Status   string
	Page     int
	PageSize int
}

// ListAuctions fetches a page of auctions.
func (c *Client) ListAuctions(ctx context.Context, opts ListAuctionsOptions) (*AuctionsResponse, error) {
	query := url.Values{}

	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(opts.PageSize))
	}

	var resp AuctionsResponse
	if err := c.get(ctx, "/api/auctions", query, &resp); err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}

	return &resp, nil
}

// GetAuction fetches a single auction by ID.
func (c *Client) GetAuction(ctx context.Context, id string) (*Auction, error) {
	var auction Auction
	if err := c.get(ctx, "/api/auctions/"+id, nil, &auction); err != nil {
		return nil, fmt.Errorf("get auction %s: %w", id, err)
	}
	return &auction, nil
}

// GetAuctionBids fetches the bid history for an auction, newest first.
func (c *Client) GetAuctionBids(ctx context.Context, id string) ([]Bid, error) {
	var bids []Bid
	if err := c.get(ctx, "/api/auctions/"+id+"/bids", nil, &bids); err != nil {
		return nil, fmt.Errorf("get auction bids %s: %w", id, err)
	}
	return bids, nil
}

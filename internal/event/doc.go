// Package event defines the typed events carried over the live auction feed
// and the parser that turns raw JSON frames into them.
//
// Every inbound frame parses once into exactly one of Connected, BidUpdate,
// AuctionEnded, or Unknown; routing then type-switches on the result instead
// of comparing discriminator strings in multiple places.
package event

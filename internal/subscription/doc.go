// Package subscription implements the Subscription Registry component.
//
// The registry tracks two separate kinds of interest:
//   - handler registrations: per-auction bid-update handlers, global
//     bid-update handlers, and per-auction auction-ended handlers
//   - the explicit active-topic set maintained by subscribe/unsubscribe
//
// The resubscription sweep after a reconnect rejoins the union of both, read
// atomically under one lock, so a topic subscribed before a sweep starts is
// never dropped.
package subscription

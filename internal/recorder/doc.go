// Package recorder persists live bid activity to PostgreSQL.
//
// The BidRecorder subscribes to every bid update on the feed, batches rows,
// and flushes them on size or interval using append-only inserts. Reconnect
// replays are deduplicated by the (auction_id, bid_count) conflict target.
package recorder

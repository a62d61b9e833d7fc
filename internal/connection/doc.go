// Package connection implements the live auction feed client.
//
// The Connection Manager:
//   - Owns one WebSocket connection to the auction event endpoint
//   - Coalesces concurrent Connect callers onto a single dial attempt
//   - Handles reconnection with exponential backoff (Backoff policy)
//   - Replays the full subscription set after every successful reconnect
//   - Parses inbound frames and dispatches them synchronously to handlers
package connection

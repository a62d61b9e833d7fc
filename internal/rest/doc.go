// Package rest is a client for the marketplace's read-only REST endpoints.
// The live feed carries bid activity; this client fills in auction detail
// and bid history snapshots around it.
//
// Retryable failures (5xx and 429) are retried with jittered exponential
// backoff; other errors are returned as *APIError.
package rest

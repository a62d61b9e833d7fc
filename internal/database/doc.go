// Package database provides the PostgreSQL connection pool for the bid
// recorder.
package database

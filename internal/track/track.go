// Package track provides persistent per-chat usage counters.
package track

import "context"

// Store defines the interface for recording and reading usage counters.
type Store interface {
	// Record increments the counter for one command kind in one chat.
	Record(ctx context.Context, chatID int64, kind string) error

	// Totals returns the aggregate count per command kind across all
	// chats.
	Totals(ctx context.Context) (map[string]int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

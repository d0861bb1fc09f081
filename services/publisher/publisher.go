package publisher

import (
	"context"

	"sjsage522/shiftcodeworker/services/store"
)

// Publisher announces newly recorded codes
type Publisher interface {
	// Name identifies the publisher in logs and warnings
	Name() string

	// Publish announces the records, in order
	Publish(ctx context.Context, records []store.CodeRecord) error

	// Close closes the publisher connection
	Close() error
}

package publisher

import (
	"context"
	"errors"
)

// MessageKey is the field under which results are published
const MessageKey = "b64_winners"

// ErrClosed is returned when publishing to a closed publisher
var ErrClosed = errors.New("publisher closed")

// Publisher represents a service for publishing messages
type Publisher interface {
	// Publish delivers a message once, without acknowledgment
	Publish(ctx context.Context, key string, message []byte) error

	// Close closes the publisher connection
	Close() error
}

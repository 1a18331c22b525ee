package publisher

import (
	"context"
	"errors"
	"sync"

	"sjsage522/bestpick/logger"
	apperrors "sjsage522/bestpick/pkg/errors"
)

// ErrDropped is returned when the channel buffer is full
var ErrDropped = errors.New("message dropped")

// ChannelPublisher delivers messages to an in-process consumer.
// Delivery never blocks: a message that does not fit the buffer is dropped.
type ChannelPublisher struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
	log    *logger.Logger
}

// NewChannelPublisher creates a publisher with a buffer of size messages
func NewChannelPublisher(size int) *ChannelPublisher {
	if size < 1 {
		size = 1
	}
	return &ChannelPublisher{
		ch:  make(chan []byte, size),
		log: logger.ForPublisher().WithField("publisher", "channel"),
	}
}

// Messages returns the channel consumers read from
func (p *ChannelPublisher) Messages() <-chan []byte {
	return p.ch
}

// Publish hands message to the consumer if there is room for it
func (p *ChannelPublisher) Publish(ctx context.Context, key string, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return apperrors.NewPublisher(key, "channel publisher is closed", ErrClosed)
	}

	select {
	case p.ch <- message:
		return nil
	default:
		p.log.Warn().Str("key", key).Int("buffer", cap(p.ch)).Msg("Consumer buffer full, dropping message")
		return apperrors.NewPublisher(key, "consumer buffer full", ErrDropped)
	}
}

// Close closes the channel; consumers see it drained and closed
func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}

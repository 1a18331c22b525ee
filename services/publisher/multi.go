package publisher

import (
	"context"
	"errors"
)

// MultiPublisher fans a message out to several publishers
type MultiPublisher struct {
	publishers []Publisher
}

// NewMultiPublisher creates a fan-out publisher; nil entries are skipped
func NewMultiPublisher(publishers ...Publisher) *MultiPublisher {
	m := &MultiPublisher{}
	for _, p := range publishers {
		if p != nil {
			m.publishers = append(m.publishers, p)
		}
	}
	return m
}

// Len returns the number of wrapped publishers
func (m *MultiPublisher) Len() int {
	return len(m.publishers)
}

// Publish delivers message to every publisher and joins their errors.
// A failing publisher does not stop delivery to the others.
func (m *MultiPublisher) Publish(ctx context.Context, key string, message []byte) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, key, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every publisher
func (m *MultiPublisher) Close() error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

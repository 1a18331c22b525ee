package presenter

import (
	"context"
	"sync"

	"sjsage522/bestpick/internal/extractor"
	"sjsage522/bestpick/logger"
	"sjsage522/bestpick/services/publisher"
)

// Slot is one labeled result link
type Slot struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// IsSet reports whether the slot has received a result
func (s Slot) IsSet() bool {
	return s.Name != "" && s.URL != ""
}

// PanelState is a snapshot of the panel
type PanelState struct {
	Visible bool   `json:"visible"`
	Slots   []Slot `json:"slots"`
}

// Panel holds the three result links shown to the user.
// HTTP handlers and the message listener update it concurrently.
type Panel struct {
	mu      sync.RWMutex
	visible bool
	slots   [3]Slot
	log     *logger.Logger
}

const (
	slotCheapest = iota
	slotHighestRated
	slotFastest
)

// NewPanel creates a hidden panel with empty slots
func NewPanel() *Panel {
	return &Panel{
		slots: [3]Slot{
			slotCheapest:     {ID: "cheapest-url", Label: "Cheapest"},
			slotHighestRated: {ID: "highest-rated-url", Label: "Highest Rated"},
			slotFastest:      {ID: "fastest-url", Label: "Fastest Delivery"},
		},
		log: logger.ForPresenter(),
	}
}

// Reveal makes the results area visible
func (p *Panel) Reveal() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = true
}

// Apply updates every slot for which msg carries both a name and a URL.
// Slots without a complete pair keep their previous value.
func (p *Panel) Apply(msg extractor.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.update(slotCheapest, msg.CheapestProductName, msg.CheapestProductURL)
	p.update(slotHighestRated, msg.HighestRatedProductName, msg.HighestRatedProductURL)
	p.update(slotFastest, msg.FastestProductName, msg.FastestProductURL)
}

func (p *Panel) update(slot int, name, url string) {
	if name == "" || url == "" {
		return
	}
	p.slots[slot].Name = name
	p.slots[slot].URL = url
}

// State returns a copy of the panel
func (p *Panel) State() PanelState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	slots := make([]Slot, len(p.slots))
	copy(slots, p.slots[:])
	return PanelState{Visible: p.visible, Slots: slots}
}

// Listen applies every message received on messages until ctx is done or messages is closed
func (p *Panel) Listen(ctx context.Context, messages <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-messages:
			if !ok {
				return
			}
			p.Receive(payload)
		}
	}
}

// Receive decodes one published payload and applies it
func (p *Panel) Receive(payload []byte) {
	env, err := publisher.DecodeEnvelope(payload)
	if err != nil {
		p.log.Warn().Err(err).Int("size", len(payload)).Msg("Ignoring undecodable message")
		return
	}

	p.log.Debug().
		Str("id", env.ID).
		Str("source", env.Source).
		Interface("message", env.Message).
		Msg("Received")
	p.Apply(env.Message)
}

package fakes

import (
	"context"
	"sync"

	"github.com/m04kA/SMC-ReservationService/internal/integrations/notifier"
)

// Notifier records published events.
type Notifier struct {
	mu     sync.Mutex
	events []notifier.Event
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Publish(_ context.Context, events ...notifier.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events = append(n.events, events...)
	return nil
}

// Events returns a copy of everything published so far.
func (n *Notifier) Events() []notifier.Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]notifier.Event(nil), n.events...)
}

// OfType filters recorded events by type.
func (n *Notifier) OfType(t notifier.EventType) []notifier.Event {
	var out []notifier.Event
	for _, e := range n.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

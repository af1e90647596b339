package audit

import (
	"context"
	"sync"
)

// MemoryRepo keeps batch audit events in process memory in append order.
// The server writes through LogRepo; MemoryRepo backs tests and local runs
// where events are inspected directly.
type MemoryRepo struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of every recorded event.
func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ForBatch returns the events recorded against batchID, oldest first.
func (r *MemoryRepo) ForBatch(batchID string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.BatchID == batchID {
			out = append(out, e)
		}
	}
	return out
}

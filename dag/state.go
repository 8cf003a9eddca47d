package dag

import (
	"fmt"
	"sync"
)

// Status is the runtime state of one scheduled node.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// Tracker holds per-node status for one execution attempt and rejects
// transitions outside pending → running → {success|failed} and pending → skipped.
type Tracker struct {
	mu     sync.Mutex
	status map[string]Status
	order  []string
}

// NewTracker creates a tracker with every node pending.
func NewTracker(nodes []string) *Tracker {
	t := &Tracker{status: make(map[string]Status, len(nodes))}
	for _, n := range nodes {
		if _, ok := t.status[n]; ok {
			continue
		}
		t.status[n] = StatusPending
		t.order = append(t.order, n)
	}
	return t
}

// Get returns the current status of a node.
func (t *Tracker) Get(name string) (Status, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.status[name]
	return s, ok
}

// Transition moves name to the target status if the move is allowed.
func (t *Tracker) Transition(name string, to Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	from, ok := t.status[name]
	if !ok {
		return fmt.Errorf("dag: unknown node %q", name)
	}
	if !allowed(from, to) {
		return fmt.Errorf("dag: disallowed transition for %q: %s -> %s", name, from, to)
	}
	t.status[name] = to
	return nil
}

// Pending returns the nodes still pending, in registration order.
func (t *Tracker) Pending() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []string
	for _, n := range t.order {
		if t.status[n] == StatusPending {
			out = append(out, n)
		}
	}
	return out
}

func allowed(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusSkipped
	case StatusRunning:
		return to == StatusSuccess || to == StatusFailed
	default:
		return false
	}
}

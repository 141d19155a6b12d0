package subscription

import (
	"sync"

	"github.com/google/uuid"
	"github.com/ln80/account-projection/account"
	"github.com/ln80/account-projection/logger"
)

// BackpressurePolicy decides what Publish does when a watcher's buffer is full.
type BackpressurePolicy int

const (
	// DropUpdate drops the update for the slow watcher only (lossy).
	DropUpdate BackpressurePolicy = iota
	// CloseWatcher removes the slow watcher and closes its channel (fail-fast).
	CloseWatcher
)

type RegistryConfig struct {
	// BufferSize presents the per-watcher update channel capacity.
	BufferSize int
	Policy     BackpressurePolicy
}

// Registry tracks active watchers and fans applied updates out to the ones
// whose predicate matches. Publishing never blocks beyond a watcher's buffer.
type Registry struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscription
	cfg  *RegistryConfig
}

func NewRegistry(opts ...func(*RegistryConfig)) *Registry {
	r := &Registry{
		subs: make(map[uuid.UUID]*Subscription),
		cfg: &RegistryConfig{
			BufferSize: 16,
			Policy:     DropUpdate,
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(r.cfg)
	}
	return r
}

// Subscription presents a standing watcher owning a buffered update channel.
type Subscription struct {
	handle    uuid.UUID
	predicate account.Predicate

	mu      sync.Mutex
	updates chan account.Update
	closed  bool
}

func (s *Subscription) Handle() uuid.UUID {
	return s.handle
}

// Updates returns the watcher's channel. It is closed by Unsubscribe,
// by Registry.Close, or by the CloseWatcher backpressure policy.
func (s *Subscription) Updates() <-chan account.Update {
	return s.updates
}

// send delivers the update unless the watcher is already closed.
// It reports false if the buffer is full, leaving the policy call to the registry.
func (s *Subscription) send(upd account.Update) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return true
	}
	select {
	case s.updates <- upd:
		return true
	default:
		return false
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.updates)
}

// ClosedSubscription returns a standalone subscription whose channel is
// already closed. Useful to deny a watcher without a special nil case.
func ClosedSubscription() *Subscription {
	sub := &Subscription{
		handle:  uuid.New(),
		updates: make(chan account.Update),
	}
	sub.close()
	return sub
}

// Subscribe registers a watcher with the given predicate.
// A nil predicate matches every update.
func (r *Registry) Subscribe(predicate account.Predicate) *Subscription {
	sub := &Subscription{
		handle:    uuid.New(),
		predicate: predicate,
		updates:   make(chan account.Update, r.cfg.BufferSize),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.handle] = sub

	return sub
}

// Unsubscribe removes the watcher and closes its channel.
// After it returns no further update is delivered to the watcher;
// an update raced by a concurrent Publish may be dropped, never delivered late.
func (r *Registry) Unsubscribe(handle uuid.UUID) {
	r.mu.Lock()
	sub, ok := r.subs[handle]
	delete(r.subs, handle)
	r.mu.Unlock()

	if ok {
		sub.close()
	}
}

// Publish fans the update out to every watcher whose predicate matches.
// A full watcher buffer triggers the configured backpressure policy.
func (r *Registry) Publish(upd account.Update) {
	r.mu.RLock()
	matched := make([]*Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		if sub.predicate != nil && !sub.predicate(upd) {
			continue
		}
		matched = append(matched, sub)
	}
	r.mu.RUnlock()

	for _, sub := range matched {
		if sub.send(upd) {
			continue
		}
		switch r.cfg.Policy {
		case CloseWatcher:
			logger.Default().V(1).Info("Closing slow watcher",
				"handle", sub.handle, "accID", upd.AccountID)
			r.Unsubscribe(sub.handle)
		default:
			logger.Default().V(1).Info("Dropping update for slow watcher",
				"handle", sub.handle, "accID", upd.AccountID, "seq", upd.Seq)
		}
	}
}

// Close removes all watchers and closes their channels.
func (r *Registry) Close() {
	r.mu.Lock()
	subs := r.subs
	r.subs = make(map[uuid.UUID]*Subscription)
	r.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

package projection

import (
	"sync"

	"github.com/ln80/account-projection/account"
	"github.com/ln80/account-projection/account/errors"
)

// stream tracks the apply-side state of a single account:
// the last applied sequence number and a bounded reorder buffer for
// early-arrived events. Access is serialized by the stream mutex, which is
// the per-account "single logical thread of control" of the dispatch path.
type stream struct {
	mu       sync.Mutex
	lastSeq  uint64
	pending  map[uint64]account.Envelope
	poisoned error
}

// buffer parks an early event until the sequence gap is filled.
// Exceeding the reorder window poisons the stream: the account requires an
// operator-driven resync, other accounts are unaffected.
func (s *stream) buffer(env account.Envelope, window int) error {
	if s.pending == nil {
		s.pending = make(map[uint64]account.Envelope)
	}
	if _, ok := s.pending[env.Seq()]; !ok && len(s.pending) >= window {
		s.poisoned = errors.Err(account.ErrSequenceGapExceeded, env.AccountID(), nil)
		s.pending = nil
		return s.poisoned
	}
	s.pending[env.Seq()] = env
	return nil
}

// next pops the buffered successor of the last applied event, if present.
func (s *stream) next() (account.Envelope, bool) {
	env, ok := s.pending[s.lastSeq+1]
	if ok {
		delete(s.pending, s.lastSeq+1)
	}
	return env, ok
}

package projection

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/ln80/account-projection/account"
	"github.com/ln80/account-projection/account/errors"
	"github.com/ln80/account-projection/logger"
	"github.com/ln80/account-projection/subscription"
)

// Projector defines the ingestion side of the engine.
type Projector interface {
	// ApplyEvent folds the given event into the read model.
	// Re-applying an already applied event is a no-op.
	ApplyEvent(ctx context.Context, env account.Envelope) error
}

// Querier defines the point-in-time read side of the engine.
type Querier interface {
	GetAllAccounts(ctx context.Context) ([]account.Account, error)
	GetAccountStatement(ctx context.Context, id string) (account.Statement, error)
}

// Subscriber defines the live-query side of the engine.
type Subscriber interface {
	Subscribe(predicate account.Predicate) *subscription.Subscription
	Unsubscribe(handle uuid.UUID)
}

type Config struct {
	// ReorderWindow presents the max number of early-arrived events buffered
	// per account while waiting for a sequence gap to be filled.
	// Exceeding it is fatal for the account's stream.
	ReorderWindow int
}

// Engine routes each incoming event to its account's serialized apply path,
// folds it into the store, and fans the resulting update out to watchers.
// Different accounts are processed fully concurrently.
type Engine struct {
	store account.Store
	reg   *subscription.Registry
	folds map[account.Kind]account.FoldFunc

	mu      sync.Mutex
	streams map[string]*stream

	cfg *Config
}

var (
	_ Projector  = &Engine{}
	_ Querier    = &Engine{}
	_ Subscriber = &Engine{}
)

// NewEngine returns a projection engine bound to the given store.
// It panics if store is nil.
func NewEngine(store account.Store, opts ...func(*Config)) *Engine {
	if store == nil {
		panic("projection engine invalid store: nil value")
	}
	e := &Engine{
		store:   store,
		reg:     subscription.NewRegistry(),
		folds:   account.Folds(),
		streams: make(map[string]*stream),
		cfg: &Config{
			ReorderWindow: 64,
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(e.cfg)
	}
	return e
}

// WithRegistry overrides the default subscription registry,
// ex: to pick a backpressure policy or buffer size.
func (e *Engine) WithRegistry(reg *subscription.Registry) *Engine {
	if reg != nil {
		e.reg = reg
	}
	return e
}

func (e *Engine) stream(id string) *stream {
	e.mu.Lock()
	defer e.mu.Unlock()

	stm, ok := e.streams[id]
	if !ok {
		stm = &stream{}
		e.streams[id] = stm
	}
	return stm
}

// ApplyEvent implements the Projector interface.
//
// Events of a single account are applied in strict sequence-number order:
// duplicates are ignored, early arrivals are buffered up to the reorder
// window, and exceeding the window fails the account's stream with
// ErrSequenceGapExceeded without affecting other accounts.
func (e *Engine) ApplyEvent(ctx context.Context, env account.Envelope) error {
	if env == nil || env.AccountID() == "" || env.Seq() == 0 {
		return account.ErrInvalidEnvelope
	}

	log := logger.WithAccount(logger.FromContext(ctx), env.AccountID()).WithName("projection")
	ctx = logger.NewContext(ctx, log)

	stm := e.stream(env.AccountID())
	stm.mu.Lock()
	defer stm.mu.Unlock()

	if stm.poisoned != nil {
		return stm.poisoned
	}

	// duplicate delivery: already applied, nothing to do
	if env.Seq() <= stm.lastSeq {
		log.V(1).Info("Ignore duplicate event", "seq", env.Seq(), "lastSeq", stm.lastSeq)
		return nil
	}

	if env.Seq() != stm.lastSeq+1 {
		log.V(1).Info("Buffer out-of-order event", "seq", env.Seq(), "lastSeq", stm.lastSeq)
		return stm.buffer(env, e.cfg.ReorderWindow)
	}

	if err := e.apply(ctx, stm, env); err != nil {
		return err
	}

	// drain buffered successors now that the gap is filled
	for {
		next, ok := stm.next()
		if !ok {
			return nil
		}
		if err := e.apply(ctx, stm, next); err != nil {
			return err
		}
	}
}

// apply folds a single in-sequence event, commits it, and publishes the update.
// The caller must hold the stream lock.
func (e *Engine) apply(ctx context.Context, stm *stream, env account.Envelope) error {
	log := logger.FromContext(ctx)

	fold, ok := e.folds[env.Kind()]
	if !ok {
		return errors.Err(account.ErrUnknownEventKind, env.AccountID(), "kind: "+string(env.Kind()))
	}

	var upd account.Update
	err := e.store.AtomicUpdate(ctx, env.AccountID(), func(cur *account.Account) (account.Account, *account.Operation, error) {
		acc, op, err := fold(env, cur)
		if err != nil {
			return account.Account{}, nil, err
		}
		upd = account.UpdateOf(env, acc)
		return acc, op, nil
	})
	if err != nil {
		if errors.ErrIs(err, account.ErrAccountAlreadyExists) {
			// duplicate Created from the write side: consume the event without
			// touching state or notifying watchers
			log.Info("Ignore duplicate account creation", "seq", env.Seq())
			stm.lastSeq = env.Seq()
			return nil
		}
		if errors.ErrIs(err, account.ErrAccountNotFound) {
			// data-consistency anomaly: an event arrived before the account's
			// creation was projected; the sequence is not advanced
			log.Info("Event references unknown account", "seq", env.Seq(), "kind", env.Kind())
		}
		return err
	}

	stm.lastSeq = env.Seq()
	e.reg.Publish(upd)
	return nil
}

// GetAllAccounts implements the Querier interface.
func (e *Engine) GetAllAccounts(ctx context.Context) ([]account.Account, error) {
	return e.store.GetAll(ctx)
}

// GetAccountStatement implements the Querier interface.
// It fails with ErrAccountNotFound if the account is unknown.
func (e *Engine) GetAccountStatement(ctx context.Context, id string) (account.Statement, error) {
	return e.store.Statement(ctx, id)
}

// Subscribe implements the Subscriber interface.
func (e *Engine) Subscribe(predicate account.Predicate) *subscription.Subscription {
	return e.reg.Subscribe(predicate)
}

// Unsubscribe implements the Subscriber interface.
func (e *Engine) Unsubscribe(handle uuid.UUID) {
	e.reg.Unsubscribe(handle)
}

// Close tears the engine down: all watcher channels are closed.
// In-flight ApplyEvent calls are unaffected except that their updates
// may no longer reach watchers.
func (e *Engine) Close() {
	e.reg.Close()
}

package account

import (
	"context"

	"github.com/ln80/account-projection/account/errors"
)

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrInvalidEnvelope      = errors.New("invalid event envelope")
	ErrUnknownEventKind     = errors.New("unknown event kind")
	ErrSequenceGapExceeded  = errors.New("sequence gap exceeded")
	ErrUpdateAccountFailed  = errors.New("update account failure")
	ErrUpdateConflict       = errors.New("update account conflict")
	ErrLoadAccountFailed    = errors.New("load account failure")
)

// UpdateFn computes the next account state from the current one.
// cur is nil if the account does not exist yet.
// The returned operation, if any, is appended to the account's log
// within the same atomic unit as the state change.
type UpdateFn func(cur *Account) (Account, *Operation, error)

// Store defines the read-model store interface.
//
// AtomicUpdate is the sole mutation path: the given function is applied to the
// current (or absent) account and its result is committed as a single atomic
// unit, visible to concurrent readers either fully before or fully after.
type Store interface {
	// Get returns the current projection of the given account.
	Get(ctx context.Context, id string) (Account, bool, error)
	// GetAll returns all account projections ordered by account ID.
	GetAll(ctx context.Context) ([]Account, error)
	// GetOperations returns the account's operation log in append order.
	GetOperations(ctx context.Context, id string) ([]Operation, error)
	// Statement returns the account and its operation log as a non-torn snapshot.
	// It fails with ErrAccountNotFound if the account is unknown.
	Statement(ctx context.Context, id string) (Statement, error)
	// AtomicUpdate applies fn to the current account state.
	AtomicUpdate(ctx context.Context, id string, fn UpdateFn) error
}

// UpdatePublisher presents the service responsible for forwarding applied updates
// to out-of-process watchers (ex: an SNS topic fronting remote subscribers).
type UpdatePublisher interface {
	Publish(ctx context.Context, updates []Update) error
}

package account

import (
	"time"
)

// Status presents the account lifecycle status as reported by the write-side.
// The projection treats it as an opaque value: the last applied status update
// always wins, no transition rule is enforced at this level.
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusActivated Status = "ACTIVATED"
	StatusSuspended Status = "SUSPENDED"
	StatusBlocked   Status = "BLOCKED"
)

type OperationType string

const (
	OperationCredit OperationType = "CREDIT"
	OperationDebit  OperationType = "DEBIT"
)

// Account presents the current projection of an account stream:
// the materialized state derived by folding the account's events in sequence order.
type Account struct {
	ID        string
	CreatedAt time.Time
	Balance   float64
	Currency  string
	Status    Status
}

// Operation presents a single credit or debit entry of the account's operation log.
// Entries are append-only and ordered by apply order, not by the Date field.
type Operation struct {
	ID        string
	Date      time.Time
	Amount    float64
	Type      OperationType
	AccountID string
}

// Statement combines an account and its full operation log as a single
// non-torn snapshot: the balance always reflects exactly the returned operations.
type Statement struct {
	Account    Account
	Operations []Operation
}

// Update presents the live notification produced for each successfully applied event.
// It is derived state, not persisted.
type Update struct {
	Kind      Kind
	AccountID string
	Seq       uint64
	Balance   float64
	Amount    float64
	Status    Status
}

// Predicate filters updates on behalf of a watcher.
type Predicate func(Update) bool

// UpdateOf derives the notification for the given applied event and resulting account state.
func UpdateOf(env Envelope, acc Account) Update {
	upd := Update{
		Kind:      env.Kind(),
		AccountID: acc.ID,
		Seq:       env.Seq(),
		Balance:   acc.Balance,
		Status:    acc.Status,
	}
	switch p := env.Payload().(type) {
	case Created:
		upd.Amount = p.InitialBalance
	case Credited:
		upd.Amount = p.Amount
	case Debited:
		upd.Amount = p.Amount
	}
	return upd
}

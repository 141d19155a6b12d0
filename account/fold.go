package account

import (
	"github.com/ln80/account-projection/account/errors"
)

// FoldFunc computes the next projection state from the current one and an
// incoming event. cur is nil only for a Created event.
// The returned operation, if any, must be appended atomically with the state.
type FoldFunc func(env Envelope, cur *Account) (Account, *Operation, error)

// Folds returns the dispatch table mapping each event kind to its fold function.
// The table is the explicit counterpart of annotation-driven handler routing;
// it is built once at engine startup.
func Folds() map[Kind]FoldFunc {
	return map[Kind]FoldFunc{
		KindCreated:       foldCreated,
		KindCredited:      foldCredited,
		KindDebited:       foldDebited,
		KindStatusUpdated: foldStatusUpdated,
	}
}

func foldCreated(env Envelope, cur *Account) (Account, *Operation, error) {
	// The dispatcher sequence check already de-duplicates replays;
	// a double-create with a fresh sequence is still rejected here.
	if cur != nil {
		return Account{}, nil, errors.Err(ErrAccountAlreadyExists, env.AccountID(), nil)
	}
	p, ok := env.Payload().(Created)
	if !ok {
		return Account{}, nil, errors.Err(ErrInvalidEnvelope, env.AccountID(), nil)
	}
	return Account{
		ID:        env.AccountID(),
		CreatedAt: env.At(),
		Balance:   p.InitialBalance,
		Currency:  p.Currency,
		Status:    p.Status,
	}, nil, nil
}

func foldCredited(env Envelope, cur *Account) (Account, *Operation, error) {
	if cur == nil {
		return Account{}, nil, errors.Err(ErrAccountNotFound, env.AccountID(), nil)
	}
	p, ok := env.Payload().(Credited)
	if !ok {
		return Account{}, nil, errors.Err(ErrInvalidEnvelope, env.AccountID(), nil)
	}
	acc := *cur
	acc.Balance += p.Amount
	op := &Operation{
		ID:        UID().String(),
		Date:      env.At(),
		Amount:    p.Amount,
		Type:      OperationCredit,
		AccountID: acc.ID,
	}
	return acc, op, nil
}

func foldDebited(env Envelope, cur *Account) (Account, *Operation, error) {
	if cur == nil {
		return Account{}, nil, errors.Err(ErrAccountNotFound, env.AccountID(), nil)
	}
	p, ok := env.Payload().(Debited)
	if !ok {
		return Account{}, nil, errors.Err(ErrInvalidEnvelope, env.AccountID(), nil)
	}
	// No floor is enforced on the balance; rejecting overdrafts is a
	// write-side policy, the projection records what was emitted.
	acc := *cur
	acc.Balance -= p.Amount
	op := &Operation{
		ID:        UID().String(),
		Date:      env.At(),
		Amount:    p.Amount,
		Type:      OperationDebit,
		AccountID: acc.ID,
	}
	return acc, op, nil
}

func foldStatusUpdated(env Envelope, cur *Account) (Account, *Operation, error) {
	if cur == nil {
		return Account{}, nil, errors.Err(ErrAccountNotFound, env.AccountID(), nil)
	}
	p, ok := env.Payload().(StatusUpdated)
	if !ok {
		return Account{}, nil, errors.Err(ErrInvalidEnvelope, env.AccountID(), nil)
	}
	// The claimed From status is informational; last-write-wins.
	acc := *cur
	acc.Status = p.To
	return acc, nil, nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mitchellh/copystructure"

	"github.com/ln80/account-projection/account"
	account_errors "github.com/ln80/account-projection/account/errors"
)

// Store implements an in-memory account read-model store. mainly used for testing purposes
type Store struct {
	accounts map[string]account.Account
	logs     map[string][]account.Operation
	mu       sync.RWMutex
}

// interface safe-guard
var _ account.Store = &Store{}

// NewStore returns an in-memory read-model store implementation
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]account.Account),
		logs:     make(map[string][]account.Operation),
	}
}

func (s *Store) Get(ctx context.Context, id string) (account.Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	return acc, ok, nil
}

func (s *Store) GetAll(ctx context.Context) ([]account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accs := make([]account.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		accs = append(accs, acc)
	}
	sort.Slice(accs, func(i, j int) bool {
		return accs[i].ID < accs[j].ID
	})
	return accs, nil
}

func (s *Store) GetOperations(ctx context.Context, id string) ([]account.Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.copyLog(id)
}

func (s *Store) Statement(ctx context.Context, id string) (account.Statement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return account.Statement{}, account_errors.Err(account.ErrAccountNotFound, id, nil)
	}
	ops, err := s.copyLog(id)
	if err != nil {
		return account.Statement{}, err
	}
	return account.Statement{Account: acc, Operations: ops}, nil
}

func (s *Store) AtomicUpdate(ctx context.Context, id string, fn account.UpdateFn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur *account.Account
	if acc, ok := s.accounts[id]; ok {
		cur = &acc
	}

	acc, op, err := fn(cur)
	if err != nil {
		return err
	}

	s.accounts[id] = acc
	if op != nil {
		s.logs[id] = append(s.logs[id], *op)
	}
	return nil
}

// copyLog deep-copies the operation log so readers never alias store-owned state.
func (s *Store) copyLog(id string) ([]account.Operation, error) {
	log, ok := s.logs[id]
	if !ok {
		return []account.Operation{}, nil
	}
	c, err := copystructure.Copy(log)
	if err != nil {
		return nil, account_errors.Err(account.ErrLoadAccountFailed, id, err)
	}
	return c.([]account.Operation), nil
}

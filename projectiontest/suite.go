package projectiontest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ln80/account-projection/account"
)

func createAccount(t *testing.T, ctx context.Context, store account.Store, id string, balance float64) account.Account {
	t.Helper()

	acc := account.Account{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Balance:   balance,
		Currency:  "MAD",
		Status:    account.StatusCreated,
	}
	if err := store.AtomicUpdate(ctx, id, func(cur *account.Account) (account.Account, *account.Operation, error) {
		if cur != nil {
			return account.Account{}, nil, errors.New("account unexpectedly exists")
		}
		return acc, nil, nil
	}); err != nil {
		t.Fatalf("expect to create account, got err: %v", err)
	}
	return acc
}

func applyOperation(t *testing.T, ctx context.Context, store account.Store, id string, opType account.OperationType, amount float64) {
	t.Helper()

	if err := store.AtomicUpdate(ctx, id, func(cur *account.Account) (account.Account, *account.Operation, error) {
		if cur == nil {
			return account.Account{}, nil, errors.New("account unexpectedly missing")
		}
		acc := *cur
		if opType == account.OperationCredit {
			acc.Balance += amount
		} else {
			acc.Balance -= amount
		}
		return acc, &account.Operation{
			ID:        account.UID().String(),
			Date:      time.Now().UTC(),
			Amount:    amount,
			Type:      opType,
			AccountID: id,
		}, nil
	}); err != nil {
		t.Fatalf("expect to apply operation, got err: %v", err)
	}
}

// ReadStoreTest runs the conformance suite every account.Store implementation must pass.
func ReadStoreTest(t *testing.T, ctx context.Context, store account.Store) {
	t.Run("get unknown account", func(t *testing.T) {
		_, found, err := store.Get(ctx, account.UID().String())
		if err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
		if found {
			t.Fatal("expect account to not be found")
		}
	})

	t.Run("statement of unknown account", func(t *testing.T) {
		_, err := store.Statement(ctx, account.UID().String())
		if !errors.Is(err, account.ErrAccountNotFound) {
			t.Fatalf("expect err be %v, got %v", account.ErrAccountNotFound, err)
		}
	})

	t.Run("operations of unknown account", func(t *testing.T) {
		ops, err := store.GetOperations(ctx, account.UID().String())
		if err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
		if wantL, l := 0, len(ops); wantL != l {
			t.Fatalf("expect operations len be %d, got %d", wantL, l)
		}
	})

	t.Run("create and read back", func(t *testing.T) {
		id := account.UID().String()
		acc := createAccount(t, ctx, store, id, 500)

		racc, found, err := store.Get(ctx, id)
		if err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
		if !found {
			t.Fatal("expect account be found")
		}
		if want, got := acc.Balance, racc.Balance; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		if want, got := acc.Currency, racc.Currency; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		if want, got := acc.Status, racc.Status; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
	})

	t.Run("operation log in apply order", func(t *testing.T) {
		id := account.UID().String()
		createAccount(t, ctx, store, id, 0)
		applyOperation(t, ctx, store, id, account.OperationCredit, 100)
		applyOperation(t, ctx, store, id, account.OperationDebit, 30)
		applyOperation(t, ctx, store, id, account.OperationCredit, 5)

		ops, err := store.GetOperations(ctx, id)
		if err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
		if wantL, l := 3, len(ops); wantL != l {
			t.Fatalf("expect operations len be %d, got %d", wantL, l)
		}
		wantTypes := []account.OperationType{account.OperationCredit, account.OperationDebit, account.OperationCredit}
		wantAmounts := []float64{100, 30, 5}
		for i, op := range ops {
			if want, got := wantTypes[i], op.Type; want != got {
				t.Fatalf("expect %v, %v be equals", want, got)
			}
			if want, got := wantAmounts[i], op.Amount; want != got {
				t.Fatalf("expect %v, %v be equals", want, got)
			}
			if want, got := id, op.AccountID; want != got {
				t.Fatalf("expect %v, %v be equals", want, got)
			}
		}

		stm, err := store.Statement(ctx, id)
		if err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
		if want, got := float64(75), stm.Account.Balance; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		if wantL, l := 3, len(stm.Operations); wantL != l {
			t.Fatalf("expect operations len be %d, got %d", wantL, l)
		}
	})

	t.Run("failed update leaves state untouched", func(t *testing.T) {
		id := account.UID().String()
		createAccount(t, ctx, store, id, 200)

		updErr := errors.New("rejected")
		err := store.AtomicUpdate(ctx, id, func(cur *account.Account) (account.Account, *account.Operation, error) {
			return account.Account{}, nil, updErr
		})
		if err == nil {
			t.Fatal("expect err be not nil")
		}

		racc, found, err := store.Get(ctx, id)
		if err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
		if !found {
			t.Fatal("expect account be found")
		}
		if want, got := float64(200), racc.Balance; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		ops, err := store.GetOperations(ctx, id)
		if err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
		if wantL, l := 0, len(ops); wantL != l {
			t.Fatalf("expect operations len be %d, got %d", wantL, l)
		}
	})

	t.Run("list accounts ordered by ID", func(t *testing.T) {
		prefix := account.UID().String()
		ids := []string{prefix + "-c", prefix + "-a", prefix + "-b"}
		for _, id := range ids {
			createAccount(t, ctx, store, id, 10)
		}

		accs, err := store.GetAll(ctx)
		if err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
		// the store may hold accounts from other subtests
		listed := make([]string, 0, len(ids))
		for _, acc := range accs {
			for _, id := range ids {
				if acc.ID == id {
					listed = append(listed, acc.ID)
				}
			}
		}
		if wantL, l := 3, len(listed); wantL != l {
			t.Fatalf("expect listed len be %d, got %d", wantL, l)
		}
		want := []string{prefix + "-a", prefix + "-b", prefix + "-c"}
		for i := range want {
			if want[i] != listed[i] {
				t.Fatalf("expect %v, %v be equals", want[i], listed[i])
			}
		}
	})
}

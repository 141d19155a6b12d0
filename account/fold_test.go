package account

import (
	"errors"
	"testing"
	"time"
)

func wrapOne(t *testing.T, accountID string, seq uint64, payload any) Envelope {
	t.Helper()

	envs := Wrap(accountID, []any{payload}, WithSeqIncr(seq))
	if len(envs) != 1 {
		t.Fatalf("expect payload %T be wrapped", payload)
	}
	return envs[0]
}

func TestFolds(t *testing.T) {
	folds := Folds()
	for _, kind := range []Kind{KindCreated, KindCredited, KindDebited, KindStatusUpdated} {
		if _, ok := folds[kind]; !ok {
			t.Fatalf("expect fold of %v be registered", kind)
		}
	}
}

func TestFold_Created(t *testing.T) {
	accountID := UID().String()
	env := wrapOne(t, accountID, 1, Created{InitialBalance: 800, Currency: "MAD", Status: StatusCreated})

	acc, op, err := foldCreated(env, nil)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if op != nil {
		t.Fatal("expect op be nil")
	}
	if want, got := accountID, acc.ID; want != got {
		t.Fatalf("expect %v, %v be equals", want, got)
	}
	if want, got := float64(800), acc.Balance; want != got {
		t.Fatalf("expect %v, %v be equals", want, got)
	}
	if want, got := StatusCreated, acc.Status; want != got {
		t.Fatalf("expect %v, %v be equals", want, got)
	}
	if !acc.CreatedAt.Equal(env.At()) {
		t.Fatalf("expect %v, %v be equals", acc.CreatedAt, env.At())
	}

	// a second creation with a fresh sequence is rejected
	_, _, err = foldCreated(wrapOne(t, accountID, 5, Created{InitialBalance: 0}), &acc)
	if !errors.Is(err, ErrAccountAlreadyExists) {
		t.Fatalf("expect err be %v, got %v", ErrAccountAlreadyExists, err)
	}
}

func TestFold_CreditedDebited(t *testing.T) {
	accountID := UID().String()
	cur := Account{
		ID:        accountID,
		CreatedAt: time.Now(),
		Balance:   100,
		Currency:  "MAD",
		Status:    StatusActivated,
	}

	t.Run("credit", func(t *testing.T) {
		acc, op, err := foldCredited(wrapOne(t, accountID, 2, Credited{Amount: 50}), &cur)
		if err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
		if want, got := float64(150), acc.Balance; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		if op == nil {
			t.Fatal("expect op not be nil")
		}
		if want, got := OperationCredit, op.Type; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		if want, got := float64(50), op.Amount; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		if want, got := accountID, op.AccountID; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		// the current state is never mutated in place
		if want, got := float64(100), cur.Balance; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
	})

	t.Run("debit below zero", func(t *testing.T) {
		acc, op, err := foldDebited(wrapOne(t, accountID, 2, Debited{Amount: 130}), &cur)
		if err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
		if want, got := float64(-30), acc.Balance; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		if want, got := OperationDebit, op.Type; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		_, _, err := foldCredited(wrapOne(t, accountID, 2, Credited{Amount: 10}), nil)
		if !errors.Is(err, ErrAccountNotFound) {
			t.Fatalf("expect err be %v, got %v", ErrAccountNotFound, err)
		}
		_, _, err = foldDebited(wrapOne(t, accountID, 2, Debited{Amount: 10}), nil)
		if !errors.Is(err, ErrAccountNotFound) {
			t.Fatalf("expect err be %v, got %v", ErrAccountNotFound, err)
		}
	})
}

func TestFold_StatusUpdated(t *testing.T) {
	accountID := UID().String()
	cur := Account{
		ID:     accountID,
		Status: StatusActivated,
	}

	// the claimed From status does not have to match the current one
	acc, op, err := foldStatusUpdated(wrapOne(t, accountID, 3, StatusUpdated{From: StatusCreated, To: StatusSuspended}), &cur)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if op != nil {
		t.Fatal("expect op be nil")
	}
	if want, got := StatusSuspended, acc.Status; want != got {
		t.Fatalf("expect %v, %v be equals", want, got)
	}

	_, _, err = foldStatusUpdated(wrapOne(t, accountID, 3, StatusUpdated{To: StatusBlocked}), nil)
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expect err be %v, got %v", ErrAccountNotFound, err)
	}
}

func TestUpdateOf(t *testing.T) {
	accountID := UID().String()

	acc := Account{ID: accountID, Balance: 500, Status: StatusCreated}

	tcs := []struct {
		payload    any
		wantAmount float64
	}{
		{payload: Created{InitialBalance: 500, Currency: "MAD", Status: StatusCreated}, wantAmount: 500},
		{payload: Credited{Amount: 70}, wantAmount: 70},
		{payload: Debited{Amount: 30}, wantAmount: 30},
		{payload: StatusUpdated{From: StatusCreated, To: StatusActivated}, wantAmount: 0},
	}
	for _, tc := range tcs {
		env := wrapOne(t, accountID, 9, tc.payload)
		upd := UpdateOf(env, acc)
		if want, got := env.Kind(), upd.Kind; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		if want, got := accountID, upd.AccountID; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		if want, got := uint64(9), upd.Seq; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		if want, got := acc.Balance, upd.Balance; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		if want, got := tc.wantAmount, upd.Amount; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
	}
}

package projection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ln80/account-projection/account"
	"github.com/ln80/account-projection/memory"
	"github.com/ln80/account-projection/projectiontest"
	"github.com/ln80/account-projection/subscription"
)

// fakeEnvelope crafts arbitrary envelopes, ex: of an unknown event kind.
type fakeEnvelope struct {
	accountID string
	seq       uint64
	kind      account.Kind
	payload   any
}

var _ account.Envelope = &fakeEnvelope{}

func (e *fakeEnvelope) ID() string         { return account.UID().String() }
func (e *fakeEnvelope) AccountID() string  { return e.accountID }
func (e *fakeEnvelope) Seq() uint64        { return e.seq }
func (e *fakeEnvelope) Kind() account.Kind { return e.kind }
func (e *fakeEnvelope) Payload() any       { return e.payload }
func (e *fakeEnvelope) At() time.Time      { return time.Now() }

func TestEngine_ApplyAndQuery(t *testing.T) {
	ctx := context.Background()

	engine := NewEngine(memory.NewStore())
	defer engine.Close()

	accountID := account.UID().String()
	envs := projectiontest.Feed(accountID,
		account.Created{InitialBalance: 1000, Currency: "MAD", Status: account.StatusCreated},
		account.Credited{Amount: 200},
		account.Debited{Amount: 50},
		account.StatusUpdated{From: account.StatusCreated, To: account.StatusActivated},
	)
	for _, env := range envs {
		if err := engine.ApplyEvent(ctx, env); err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
	}

	stm, err := engine.GetAccountStatement(ctx, accountID)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if want, got := float64(1150), stm.Account.Balance; want != got {
		t.Fatalf("expect %v, %v be equals", want, got)
	}
	if want, got := account.StatusActivated, stm.Account.Status; want != got {
		t.Fatalf("expect %v, %v be equals", want, got)
	}
	if want, got := 2, len(stm.Operations); want != got {
		t.Fatalf("expect %v, %v be equals", want, got)
	}
	if want, got := account.OperationCredit, stm.Operations[0].Type; want != got {
		t.Fatalf("expect %v, %v be equals", want, got)
	}
	if want, got := account.OperationDebit, stm.Operations[1].Type; want != got {
		t.Fatalf("expect %v, %v be equals", want, got)
	}

	accs, err := engine.GetAllAccounts(ctx)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if want, got := 1, len(accs); want != got {
		t.Fatalf("expect %v, %v be equals", want, got)
	}
}

func TestEngine_InvalidEnvelope(t *testing.T) {
	ctx := context.Background()

	engine := NewEngine(memory.NewStore())
	defer engine.Close()

	if err := engine.ApplyEvent(ctx, nil); !errors.Is(err, account.ErrInvalidEnvelope) {
		t.Fatalf("expect err be %v, got %v", account.ErrInvalidEnvelope, err)
	}
	if err := engine.ApplyEvent(ctx, &fakeEnvelope{accountID: "", seq: 1, kind: account.KindCredited}); !errors.Is(err, account.ErrInvalidEnvelope) {
		t.Fatalf("expect err be %v, got %v", account.ErrInvalidEnvelope, err)
	}
	if err := engine.ApplyEvent(ctx, &fakeEnvelope{accountID: "acc", seq: 0, kind: account.KindCredited}); !errors.Is(err, account.ErrInvalidEnvelope) {
		t.Fatalf("expect err be %v, got %v", account.ErrInvalidEnvelope, err)
	}
}

func TestEngine_UnknownKind(t *testing.T) {
	ctx := context.Background()

	engine := NewEngine(memory.NewStore())
	defer engine.Close()

	env := &fakeEnvelope{accountID: account.UID().String(), seq: 1, kind: account.Kind("AccountMerged")}
	if err := engine.ApplyEvent(ctx, env); !errors.Is(err, account.ErrUnknownEventKind) {
		t.Fatalf("expect err be %v, got %v", account.ErrUnknownEventKind, err)
	}
}

func TestEngine_StatementNotFound(t *testing.T) {
	ctx := context.Background()

	engine := NewEngine(memory.NewStore())
	defer engine.Close()

	_, err := engine.GetAccountStatement(ctx, account.UID().String())
	if !errors.Is(err, account.ErrAccountNotFound) {
		t.Fatalf("expect err be %v, got %v", account.ErrAccountNotFound, err)
	}
}

func TestEngine_DuplicateDelivery(t *testing.T) {
	ctx := context.Background()

	engine := NewEngine(memory.NewStore())
	defer engine.Close()

	accountID := account.UID().String()
	envs := projectiontest.Feed(accountID,
		account.Created{InitialBalance: 100, Currency: "MAD", Status: account.StatusCreated},
		account.Credited{Amount: 10},
	)
	for _, env := range envs {
		if err := engine.ApplyEvent(ctx, env); err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
	}

	// redelivery of already applied events is a no-op
	for _, env := range envs {
		if err := engine.ApplyEvent(ctx, env); err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
	}

	stm, err := engine.GetAccountStatement(ctx, accountID)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if want, got := float64(110), stm.Account.Balance; want != got {
		t.Fatalf("expect %v, %v be equals", want, got)
	}
	if want, got := 1, len(stm.Operations); want != got {
		t.Fatalf("expect %v, %v be equals", want, got)
	}
}

func TestEngine_DuplicateCreation(t *testing.T) {
	ctx := context.Background()

	engine := NewEngine(memory.NewStore())
	defer engine.Close()

	accountID := account.UID().String()
	if err := engine.ApplyEvent(ctx, projectiontest.Envelope(accountID, 1,
		account.Created{InitialBalance: 100, Currency: "MAD", Status: account.StatusCreated})); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}

	// a second creation with a fresh sequence is consumed without effect
	if err := engine.ApplyEvent(ctx, projectiontest.Envelope(accountID, 2,
		account.Created{InitialBalance: 999, Currency: "MAD", Status: account.StatusCreated})); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}

	// the stream sequence still advances past the consumed event
	if err := engine.ApplyEvent(ctx, projectiontest.Envelope(accountID, 3,
		account.Credited{Amount: 10})); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}

	stm, err := engine.GetAccountStatement(ctx, accountID)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if want, got := float64(110), stm.Account.Balance; want != got {
		t.Fatalf("expect %v, %v be equals", want, got)
	}
}

func TestEngine_EventBeforeCreation(t *testing.T) {
	ctx := context.Background()

	engine := NewEngine(memory.NewStore())
	defer engine.Close()

	accountID := account.UID().String()
	err := engine.ApplyEvent(ctx, projectiontest.Envelope(accountID, 1, account.Credited{Amount: 10}))
	if !errors.Is(err, account.ErrAccountNotFound) {
		t.Fatalf("expect err be %v, got %v", account.ErrAccountNotFound, err)
	}
}

func TestEngine_OutOfOrderDelivery(t *testing.T) {
	ctx := context.Background()

	engine := NewEngine(memory.NewStore())
	defer engine.Close()

	accountID := account.UID().String()
	envs := projectiontest.Feed(accountID,
		account.Created{InitialBalance: 0, Currency: "MAD", Status: account.StatusCreated},
		account.Credited{Amount: 1},
		account.Credited{Amount: 2},
		account.Credited{Amount: 3},
	)

	// deliver 1, 3, 4, 2: successors are buffered then drained in order
	for _, i := range []int{0, 2, 3, 1} {
		if err := engine.ApplyEvent(ctx, envs[i]); err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
	}

	stm, err := engine.GetAccountStatement(ctx, accountID)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if want, got := float64(6), stm.Account.Balance; want != got {
		t.Fatalf("expect %v, %v be equals", want, got)
	}
	wantAmounts := []float64{1, 2, 3}
	for i, op := range stm.Operations {
		if want, got := wantAmounts[i], op.Amount; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
	}
}

func TestEngine_SequenceGapExceeded(t *testing.T) {
	ctx := context.Background()

	engine := NewEngine(memory.NewStore(), func(cfg *Config) {
		cfg.ReorderWindow = 2
	})
	defer engine.Close()

	poisonedID, healthyID := account.UID().String(), account.UID().String()

	if err := engine.ApplyEvent(ctx, projectiontest.Envelope(poisonedID, 1,
		account.Created{InitialBalance: 0, Currency: "MAD", Status: account.StatusCreated})); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}

	// seq 2 never arrives; early arrivals pile up beyond the window
	if err := engine.ApplyEvent(ctx, projectiontest.Envelope(poisonedID, 3, account.Credited{Amount: 1})); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if err := engine.ApplyEvent(ctx, projectiontest.Envelope(poisonedID, 4, account.Credited{Amount: 1})); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	err := engine.ApplyEvent(ctx, projectiontest.Envelope(poisonedID, 5, account.Credited{Amount: 1}))
	if !errors.Is(err, account.ErrSequenceGapExceeded) {
		t.Fatalf("expect err be %v, got %v", account.ErrSequenceGapExceeded, err)
	}

	// the failure is sticky, even for the missing event itself
	err = engine.ApplyEvent(ctx, projectiontest.Envelope(poisonedID, 2, account.Credited{Amount: 1}))
	if !errors.Is(err, account.ErrSequenceGapExceeded) {
		t.Fatalf("expect err be %v, got %v", account.ErrSequenceGapExceeded, err)
	}

	// other accounts are unaffected
	if err := engine.ApplyEvent(ctx, projectiontest.Envelope(healthyID, 1,
		account.Created{InitialBalance: 50, Currency: "MAD", Status: account.StatusCreated})); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	stm, err := engine.GetAccountStatement(ctx, healthyID)
	if err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}
	if want, got := float64(50), stm.Account.Balance; want != got {
		t.Fatalf("expect %v, %v be equals", want, got)
	}
}

func TestEngine_Subscribe(t *testing.T) {
	ctx := context.Background()

	engine := NewEngine(memory.NewStore()).WithRegistry(
		subscription.NewRegistry(func(cfg *subscription.RegistryConfig) {
			cfg.BufferSize = 32
		}),
	)

	accID1, accID2 := account.UID().String(), account.UID().String()

	sub := engine.Subscribe(func(upd account.Update) bool {
		return upd.AccountID == accID1
	})

	envs1 := projectiontest.Feed(accID1,
		account.Created{InitialBalance: 100, Currency: "MAD", Status: account.StatusCreated},
		account.Credited{Amount: 20},
		account.StatusUpdated{From: account.StatusCreated, To: account.StatusActivated},
	)
	envs2 := projectiontest.Feed(accID2,
		account.Created{InitialBalance: 900, Currency: "MAD", Status: account.StatusCreated},
		account.Debited{Amount: 80},
	)
	for _, env := range append(envs1, envs2...) {
		if err := engine.ApplyEvent(ctx, env); err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
	}
	engine.Close()

	updates := make([]account.Update, 0)
	for upd := range sub.Updates() {
		updates = append(updates, upd)
	}

	// one update per applied event of the watched account, in sequence order
	if want, got := len(envs1), len(updates); want != got {
		t.Fatalf("expect %v, %v be equals", want, got)
	}
	wantKinds := []account.Kind{account.KindCreated, account.KindCredited, account.KindStatusUpdated}
	wantAmounts := []float64{100, 20, 0}
	wantBalances := []float64{100, 120, 120}
	for i, upd := range updates {
		if want, got := accID1, upd.AccountID; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		if want, got := uint64(i+1), upd.Seq; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		if want, got := wantKinds[i], upd.Kind; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		if want, got := wantAmounts[i], upd.Amount; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		if want, got := wantBalances[i], upd.Balance; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
	}
}

func TestEngine_UnsubscribeIsFinal(t *testing.T) {
	ctx := context.Background()

	engine := NewEngine(memory.NewStore())
	defer engine.Close()

	accountID := account.UID().String()

	sub := engine.Subscribe(nil)
	engine.Unsubscribe(sub.Handle())

	if err := engine.ApplyEvent(ctx, projectiontest.Envelope(accountID, 1,
		account.Created{InitialBalance: 10, Currency: "MAD", Status: account.StatusCreated})); err != nil {
		t.Fatalf("expect err be nil, got %v", err)
	}

	if _, opened := <-sub.Updates(); opened {
		t.Fatal("expect subscription channel to be closed")
	}
}

func TestEngine_ConcurrentAccounts(t *testing.T) {
	ctx := context.Background()

	engine := NewEngine(memory.NewStore())
	defer engine.Close()

	accountCount, opCount := 8, 20

	ids := make([]string, accountCount)
	var wg sync.WaitGroup
	for a := 0; a < accountCount; a++ {
		ids[a] = account.UID().String()

		payloads := []any{
			account.Created{InitialBalance: 0, Currency: "MAD", Status: account.StatusCreated},
		}
		for i := 0; i < opCount; i++ {
			payloads = append(payloads, account.Credited{Amount: 1})
		}
		envs := projectiontest.Feed(ids[a], payloads...)

		wg.Add(1)
		go func(envs []account.Envelope) {
			defer wg.Done()
			for _, env := range envs {
				if err := engine.ApplyEvent(ctx, env); err != nil {
					t.Errorf("expect err be nil, got %v", err)
					return
				}
			}
		}(envs)
	}
	wg.Wait()

	for _, id := range ids {
		stm, err := engine.GetAccountStatement(ctx, id)
		if err != nil {
			t.Fatalf("expect err be nil, got %v", err)
		}
		if want, got := float64(opCount), stm.Account.Balance; want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
		if want, got := opCount, len(stm.Operations); want != got {
			t.Fatalf("expect %v, %v be equals", want, got)
		}
	}
}

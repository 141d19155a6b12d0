package control

import (
	"context"

	"github.com/google/uuid"
	ap "github.com/ln80/account-projection"
	"github.com/ln80/account-projection/account"
	account_errors "github.com/ln80/account-projection/account/errors"
	"github.com/ln80/account-projection/subscription"
)

// Decorator gates the projection engine's surfaces behind feature toggles,
// resolved per account where the operation targets a single account.
type Decorator struct {
	feature FeatureToggler
	ap.Engine
}

func NewDecorator(engine ap.Engine, feature FeatureToggler) *Decorator {
	return &Decorator{
		feature: feature,
		Engine:  engine,
	}
}

func (d *Decorator) ApplyEvent(ctx context.Context, env account.Envelope) error {
	if env == nil {
		return account.ErrInvalidEnvelope
	}
	toggles, err := d.feature.Get(ctx, env.AccountID())
	if err != nil {
		return err
	}

	if err := toggles.Enabled(APPLY); err != nil {
		return account_errors.Err(account.ErrUpdateAccountFailed, env.AccountID(), err)
	}

	return d.Engine.ApplyEvent(ctx, env)
}

func (d *Decorator) GetAllAccounts(ctx context.Context) ([]account.Account, error) {
	toggles, err := d.feature.Get(ctx, "")
	if err != nil {
		return nil, err
	}

	if err := toggles.Enabled(QUERY); err != nil {
		return nil, account_errors.Err(account.ErrLoadAccountFailed, "", err)
	}

	return d.Engine.GetAllAccounts(ctx)
}

func (d *Decorator) GetAccountStatement(ctx context.Context, id string) (account.Statement, error) {
	toggles, err := d.feature.Get(ctx, id)
	if err != nil {
		return account.Statement{}, err
	}

	if err := toggles.Enabled(QUERY); err != nil {
		return account.Statement{}, account_errors.Err(account.ErrLoadAccountFailed, id, err)
	}

	return d.Engine.GetAccountStatement(ctx, id)
}

// Subscribe returns an already closed subscription when the notify
// feature is globally disabled.
func (d *Decorator) Subscribe(predicate account.Predicate) *subscription.Subscription {
	toggles, err := d.feature.Get(context.Background(), "")
	if err != nil {
		return subscription.ClosedSubscription()
	}
	if err := toggles.Enabled(NOTIFY); err != nil {
		return subscription.ClosedSubscription()
	}

	return d.Engine.Subscribe(predicate)
}

func (d *Decorator) Unsubscribe(handle uuid.UUID) {
	d.Engine.Unsubscribe(handle)
}

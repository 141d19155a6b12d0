package subscription

import (
	"context"

	"github.com/ln80/account-projection/account"
)

// Forward pumps a subscription's updates into the given publisher,
// ex: an SNS topic fronting out-of-process watchers.
// It returns nil once the subscription channel is closed, or the first
// publish/context error.
func Forward(ctx context.Context, sub *Subscription, pub account.UpdatePublisher) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			if err := pub.Publish(ctx, []account.Update{upd}); err != nil {
				return err
			}
		}
	}
}

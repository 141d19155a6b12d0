package projectiontest

import (
	"github.com/ln80/account-projection/account"
)

// Envelope wraps a single payload for the given account with an explicit sequence number.
func Envelope(accountID string, seq uint64, payload any) account.Envelope {
	envs := account.Wrap(accountID, []any{payload}, account.WithSeqIncr(seq))
	if len(envs) == 0 {
		panic("invalid test payload: unknown event kind")
	}
	return envs[0]
}

// Feed wraps the given payloads for the given account with consecutive
// sequence numbers starting from 1.
func Feed(accountID string, payloads ...any) []account.Envelope {
	return account.Wrap(accountID, payloads, account.WithSeqIncr(1))
}

package account

import (
	"time"
)

// Envelope wraps a domain event and adds the meta-data the projection needs:
// account ID, per-account sequence number, and timestamp.
type Envelope interface {
	ID() string
	AccountID() string
	Seq() uint64
	Kind() Kind
	Payload() any
	At() time.Time
}

type RWEnvelope interface {
	Envelope

	SetAt(t time.Time) Envelope
	SetSeq(seq uint64) Envelope
}

type EnvelopeOption func(env RWEnvelope)

// WithSeqIncr assigns consecutive sequence numbers to the wrapped events,
// starting from the given value.
func WithSeqIncr(startingSeq uint64) EnvelopeOption {
	seq := startingSeq
	return func(env RWEnvelope) {
		env.SetSeq(seq)
		seq++
	}
}

// Wrap wraps (with options) the given event payloads for the given account.
// Nil payloads and payloads of an unknown kind are skipped.
// Note that it does not set sequence numbers unless WithSeqIncr is given.
func Wrap(accountID string, payloads []any, opts ...EnvelopeOption) []Envelope {
	envs := make([]Envelope, 0, len(payloads))
	for _, p := range payloads {
		if p == nil {
			continue
		}
		kind, ok := KindOf(p)
		if !ok {
			continue
		}
		env := &envelope{
			eID:       UID().String(),
			accountID: accountID,
			kind:      kind,
			payload:   p,
			at:        time.Now().UTC(),
		}
		for _, opt := range opts {
			if opt == nil {
				continue
			}
			opt(env)
		}
		envs = append(envs, env)
	}
	return envs
}

type envelope struct {
	eID       string
	accountID string
	seq       uint64
	kind      Kind
	payload   any
	at        time.Time
}

var _ Envelope = &envelope{}
var _ RWEnvelope = &envelope{}

func (e *envelope) ID() string {
	return e.eID
}

func (e *envelope) AccountID() string {
	return e.accountID
}

func (e *envelope) Seq() uint64 {
	return e.seq
}

func (e *envelope) Kind() Kind {
	return e.kind
}

func (e *envelope) Payload() any {
	return e.payload
}

func (e *envelope) At() time.Time {
	return e.at
}

func (e *envelope) SetAt(t time.Time) Envelope {
	e.at = t
	return e
}

func (e *envelope) SetSeq(seq uint64) Envelope {
	e.seq = seq
	return e
}

package json

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ln80/account-projection/account"
)

// convertEnvelope takes an account.Envelope and converts it to a jsonEnvelope type.
func convertEnvelope(env account.Envelope) (*jsonEnvelope, error) {
	if to, ok := env.(*jsonEnvelope); ok {
		return to, nil
	}

	data, err := json.Marshal(env.Payload())
	if err != nil {
		return nil, err
	}
	return &jsonEnvelope{
		FID:        env.ID(),
		FAccountID: env.AccountID(),
		FSeq:       env.Seq(),
		FKind:      env.Kind(),
		FRawData:   json.RawMessage(data),
		FAt:        env.At().UnixNano(),
	}, nil
}

type jsonEnvelope struct {
	FID        string          `json:"ID"`
	FAccountID string          `json:"AccID"`
	FSeq       uint64          `json:"Seq"`
	FKind      account.Kind    `json:"Kind"`
	FRawData   json.RawMessage `json:"Data"`
	FAt        int64           `json:"At"`

	fPayload any `json:"-"`
}

var _ account.Envelope = &jsonEnvelope{}

func (e *jsonEnvelope) ID() string {
	return e.FID
}

func (e *jsonEnvelope) AccountID() string {
	return e.FAccountID
}

func (e *jsonEnvelope) Seq() uint64 {
	return e.FSeq
}

func (e *jsonEnvelope) Kind() account.Kind {
	return e.FKind
}

func (e *jsonEnvelope) At() time.Time {
	return time.Unix(0, e.FAt)
}

// Payload returns the domain event wrapped in the json envelope.
// The raw data is decoded lazily, based on the envelope's kind.
func (e *jsonEnvelope) Payload() any {
	if e.fPayload == nil {
		e.fPayload, _ = decodePayload(e.FKind, e.FRawData)
	}
	return e.fPayload
}

// decodePayload resolves the payload type from the event kind.
// It is the wire-level counterpart of the fold dispatch table: a new event
// kind must be added to both.
func decodePayload(kind account.Kind, data json.RawMessage) (any, error) {
	switch kind {
	case account.KindCreated:
		var p account.Created
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case account.KindCredited:
		var p account.Credited
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case account.KindDebited:
		var p account.Debited
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case account.KindStatusUpdated:
		var p account.StatusUpdated
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: kind: %s", account.ErrUnknownEventKind, kind)
}

package json

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ln80/account-projection/account"
)

// serializer implements the account.Serializer interface.
// It uses json serialization and an explicit kind-based payload decoder.
type serializer struct{}

// NewSerializer returns a json serializer for envelopes and updates.
func NewSerializer() account.Serializer {
	return &serializer{}
}

var _ account.Serializer = &serializer{}

func (s *serializer) MarshalEnvelope(ctx context.Context, env account.Envelope) (b []byte, err error) {
	if env == nil {
		err = account.ErrMarshalEmptyEvent
		return
	}

	defer func() {
		if err != nil {
			err = fmt.Errorf("%w: %v", account.ErrMarshalEventFailed, err)
		}
	}()

	jsonEnv, err := convertEnvelope(env)
	if err != nil {
		return
	}
	b, err = json.Marshal(jsonEnv)
	return
}

func (s *serializer) UnmarshalEnvelope(ctx context.Context, b []byte) (account.Envelope, error) {
	jsonEnv := jsonEnvelope{}
	if err := json.Unmarshal(b, &jsonEnv); err != nil {
		return nil, fmt.Errorf("%w: %v", account.ErrUnmarshalEventFailed, err)
	}
	// fail early on unknown kinds rather than returning an envelope
	// with an empty payload
	payload, err := decodePayload(jsonEnv.FKind, jsonEnv.FRawData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", account.ErrUnmarshalEventFailed, err)
	}
	jsonEnv.fPayload = payload
	return &jsonEnv, nil
}

func (s *serializer) MarshalUpdate(ctx context.Context, upd account.Update) ([]byte, error) {
	b, err := json.Marshal(upd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", account.ErrMarshalEventFailed, err)
	}
	return b, nil
}

func (s *serializer) UnmarshalUpdate(ctx context.Context, b []byte) (account.Update, error) {
	upd := account.Update{}
	if err := json.Unmarshal(b, &upd); err != nil {
		return account.Update{}, fmt.Errorf("%w: %v", account.ErrUnmarshalEventFailed, err)
	}
	return upd, nil
}

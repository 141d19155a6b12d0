package account

import (
	"context"

	"github.com/ln80/account-projection/account/errors"
)

var (
	ErrMarshalEventFailed   = errors.New("marshal event(s) failed")
	ErrMarshalEmptyEvent    = errors.New("event to marshal is empty")
	ErrUnmarshalEventFailed = errors.New("unmarshal event(s) failed")
)

// Serializer provides a standard encoding/decoding interface for the core's
// in-process value contracts. Collaborators that feed ApplyEvent or consume
// forwarded updates own the transport; the serializer only fixes the format.
type Serializer interface {

	// MarshalEnvelope returns a binary version of the event envelope.
	MarshalEnvelope(ctx context.Context, env Envelope) ([]byte, error)

	// UnmarshalEnvelope returns an event envelope based on the given raw event.
	// It fails if the event kind is unknown.
	UnmarshalEnvelope(ctx context.Context, b []byte) (Envelope, error)

	// MarshalUpdate returns a binary version of the given update notification.
	MarshalUpdate(ctx context.Context, upd Update) ([]byte, error)

	// UnmarshalUpdate decodes an update notification.
	UnmarshalUpdate(ctx context.Context, b []byte) (Update, error)
}

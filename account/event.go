package account

// Kind identifies the domain event type carried by an envelope.
type Kind string

const (
	KindCreated       Kind = "AccountCreated"
	KindCredited      Kind = "AccountCredited"
	KindDebited       Kind = "AccountDebited"
	KindStatusUpdated Kind = "AccountStatusUpdated"
)

// Created is emitted once per account by the write-side.
type Created struct {
	InitialBalance float64
	Currency       string
	Status         Status
}

type Credited struct {
	Amount float64
}

type Debited struct {
	Amount float64
}

// StatusUpdated carries the claimed previous status for information only;
// the projection overwrites the current status with To unconditionally.
type StatusUpdated struct {
	From Status
	To   Status
}

// KindOf resolves the event kind of the given payload.
// It serves as the explicit counterpart of a reflection-based type registry.
func KindOf(payload any) (Kind, bool) {
	switch payload.(type) {
	case Created, *Created:
		return KindCreated, true
	case Credited, *Credited:
		return KindCredited, true
	case Debited, *Debited:
		return KindDebited, true
	case StatusUpdated, *StatusUpdated:
		return KindStatusUpdated, true
	}
	return "", false
}

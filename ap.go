package ap

import (
	_ "unsafe"

	"github.com/go-logr/logr"

	_ "github.com/ln80/account-projection/logger"
	"github.com/ln80/account-projection/projection"
)

// Engine interface combines the following low-level projection related interfaces:
//
// - projection.Projector: folds incoming account events into the read model;
//
// - projection.Querier: serves point-in-time reads of the projected state;
//
// - projection.Subscriber: serves live-query watchers of applied updates;
type Engine interface {
	projection.Projector
	projection.Querier
	projection.Subscriber
}

var _ Engine = &projection.Engine{}

// SetDefaultLogger allows to override the internal default logger used by the library.
//
//go:linkname SetDefaultLogger github.com/ln80/account-projection/logger.SetDefault
func SetDefaultLogger(log logr.Logger)

// DiscardLogger returns a mute logger. Pass the mute logger to 'SetDefaultLogger'
// to disable library internal logging.
//
//go:linkname DiscardLogger github.com/ln80/account-projection/logger.Discard
func DiscardLogger() logr.Logger

// Package notify delivers advisory progression events. Delivery is best effort; the
// engine only calls a sink after the state it reports has committed.
package notify

import (
	"context"
	"errors"

	"github.com/githubb-dot/gamified-app/internal/engine"
)

type Sink = engine.Notifier

type nop struct{}

// Nop discards every event.
func Nop() Sink { return nop{} }

func (nop) Notify(context.Context, engine.Event) error { return nil }

type multi []Sink

// Multi fans an event out to every sink and joins their errors.
func Multi(sinks ...Sink) Sink {
	var out multi
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) Notify(ctx context.Context, ev engine.Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

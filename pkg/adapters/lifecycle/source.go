// Package lifecycle exposes kiln's watch events as a lifecycle.Source.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/kiln/pkg/core"
)

type watchSource struct {
	events <-chan core.Event
	rules  map[string]bool
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits watch events. With rules
// given, only events routed to one of them are emitted.
func NewSource(events <-chan core.Event, rules ...string) lifecycle.Source {
	s := &watchSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	if len(rules) > 0 {
		s.rules = make(map[string]bool, len(rules))
		for _, r := range rules {
			s.rules[r] = true
		}
	}
	return s
}

func (s *watchSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events until ctx is done or the input closes, then closes
// the output.
func (s *watchSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if s.rules != nil && !s.rules[e.Rule] {
					continue
				}
				// core.Event has String(), which is all lifecycle.Event needs
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

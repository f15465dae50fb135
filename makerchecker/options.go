package makerchecker

import (
	"time"

	"github.com/sirupsen/logrus"

	"makerchecker-backend/events"
)

// Options is read once at construction and never mutated.
type Options struct {
	// Makers and Checkers restrict which actor types may make or check
	// requests. Empty means any type.
	Makers   []string
	Checkers []string
	// RequestExpiration is how long a request stays checkable. Zero means never.
	RequestExpiration time.Duration
	EnsureUnique      bool
}

func (o Options) canMake(actorType string) bool {
	return allowed(o.Makers, actorType)
}

func (o Options) canCheck(actorType string) bool {
	return allowed(o.Checkers, actorType)
}

func allowed(list []string, actorType string) bool {
	if len(list) == 0 {
		return true
	}
	for _, t := range list {
		if t == actorType {
			return true
		}
	}
	return false
}

// Option configures a Manager.
type Option func(m *Manager)

func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Manager) { m.log = log }
}

func WithBus(bus events.Bus) Option {
	return func(m *Manager) { m.bus = bus }
}

// WithClock replaces time.Now; tests use it to move past the expiration window.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

package events

import (
	"sync"

	"github.com/sirupsen/logrus"

	"makerchecker-backend/models"
)

type Kind string

const (
	Initiated Kind = "initiated"
	Approved  Kind = "approved"
	Rejected  Kind = "rejected"
	Failed    Kind = "failed"
)

// Event is delivered to listeners after a lifecycle transition.
type Event struct {
	Kind    Kind
	Request models.Request
	// Err is set for Failed.
	Err error
}

type Listener func(Event)

type Bus interface {
	Emit(e Event)
	Listen(kind Kind, l Listener)
	ListenersCount(kind Kind) int
}

type bus struct {
	mu        sync.RWMutex
	log       logrus.FieldLogger
	listeners map[Kind][]Listener
}

func NewBus(log logrus.FieldLogger) Bus {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &bus{log: log, listeners: map[Kind][]Listener{}}
}

func (b *bus) Listen(kind Kind, l Listener) {
	if l == nil {
		panic("events: nil listener")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[kind] = append(b.listeners[kind], l)
}

// Emit calls the listeners for e.Kind in registration order. A panicking
// listener is logged and does not stop the others.
func (b *bus) Emit(e Event) {
	b.mu.RLock()
	listeners := append([]Listener(nil), b.listeners[e.Kind]...)
	b.mu.RUnlock()

	if len(listeners) == 0 {
		b.log.WithField("kind", e.Kind).Debug("events: no listeners")
		return
	}
	for _, l := range listeners {
		b.call(l, e)
	}
}

func (b *bus) call(l Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{
				"kind":         e.Kind,
				"request_code": e.Request.Code,
			}).Errorf("events: listener panicked: %v", r)
		}
	}()
	l(e)
}

func (b *bus) ListenersCount(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[kind])
}

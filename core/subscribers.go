package orchestration

import (
	"time"

	"github.com/google/uuid"

	"github.com/koscakluka/scene-core/core/scenes"
)

// maxSubscribers bounds the handler set. Exceeding it evicts the oldest
// handler instead of growing without limit — a leak guard for callers that
// subscribe on every re-render and forget the unsubscribe.
const maxSubscribers = 8

// Update is the per-notification snapshot handed to subscribers. States is
// the engine's live map; handlers must read it during the callback, not
// hold it.
type Update struct {
	Status Status
	States map[string]*scenes.CharacterState
}

type subscriber struct {
	id     string
	notify func(Update)
}

type subscriberSet struct {
	subscribers []subscriber
}

// Subscribe registers a handler for state-change notifications and returns
// its unsubscribe func. Notifications are throttled to the engine's frame
// budget; a panicking handler is isolated and logged, never allowed to
// break the tick loop for the others.
func (e *Engine) Subscribe(handler func(Update)) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}

	id := uuid.NewString()
	e.subscribers.add(subscriber{id: id, notify: handler})
	return func() { e.subscribers.remove(id) }
}

func (s *subscriberSet) add(sub subscriber) {
	if len(s.subscribers) >= maxSubscribers {
		evicted := s.subscribers[0]
		s.subscribers = append(s.subscribers[:0], s.subscribers[1:]...)
		logger.Warn("subscriber limit reached, evicting oldest", "evicted", evicted.id)
	}
	s.subscribers = append(s.subscribers, sub)
}

func (s *subscriberSet) remove(id string) {
	for i := range s.subscribers {
		if s.subscribers[i].id == id {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			return
		}
	}
}

// notify pushes the current state to every subscriber immediately,
// regardless of throttling. Used on status transitions.
func (e *Engine) notify() {
	e.notifyAt(e.clock())
}

func (e *Engine) notifyAt(now time.Time) {
	e.lastNotifyAt = now
	update := Update{Status: e.status, States: e.states}
	for _, sub := range e.subscribers.subscribers {
		dispatch(sub, update)
	}
}

func dispatch(sub subscriber, update Update) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("subscriber callback panicked", "subscriber", sub.id, "panic", recovered)
		}
	}()
	sub.notify(update)
}

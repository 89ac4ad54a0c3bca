package in

import (
	"pahm/internal/modules/practice/dto"
	practicein "pahm/internal/modules/practice/port/in"
)

const DefaultEventBuffer = 64

// Event is one session notification. The concrete types below are the only
// implementations.
type Event interface {
	isEvent()
}

type TickEvent struct{ RemainingSeconds int }

type StateEvent struct{ From, To string }

type RecoveryOfferedEvent struct{ Offer dto.RecoveryOutput }

type WakeRevokedEvent struct{}

type CompletedEvent struct{ Session dto.CompletedOutput }

type ReflectionEvent struct{ Handoff dto.HandoffOutput }

func (TickEvent) isEvent()            {}
func (StateEvent) isEvent()           {}
func (RecoveryOfferedEvent) isEvent() {}
func (WakeRevokedEvent) isEvent()     {}
func (CompletedEvent) isEvent()       {}
func (ReflectionEvent) isEvent()      {}

// EventStream is a session listener backed by a buffered channel. Ticks are
// dropped when the reader falls behind since the next one supersedes them;
// every other event waits for room.
type EventStream struct {
	ch chan Event
}

var _ practicein.Listener = (*EventStream)(nil)

func NewEventStream(buffer int) *EventStream {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &EventStream{ch: make(chan Event, buffer)}
}

func (s *EventStream) C() <-chan Event { return s.ch }

func (s *EventStream) TimerTicked(remaining int) {
	select {
	case s.ch <- TickEvent{RemainingSeconds: remaining}:
	default:
	}
}

func (s *EventStream) StateChanged(from, to string) {
	s.ch <- StateEvent{From: from, To: to}
}

func (s *EventStream) RecoveryOffered(offer dto.RecoveryOutput) {
	s.ch <- RecoveryOfferedEvent{Offer: offer}
}

func (s *EventStream) WakeLockRevoked() {
	s.ch <- WakeRevokedEvent{}
}

func (s *EventStream) SessionCompleted(session dto.CompletedOutput) {
	s.ch <- CompletedEvent{Session: session}
}

func (s *EventStream) ReflectionRequested(handoff dto.HandoffOutput) {
	s.ch <- ReflectionEvent{Handoff: handoff}
}

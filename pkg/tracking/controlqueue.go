package tracking

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// EventCode identifies a control-message queue event.
type EventCode uint32

// LossOfLock is the only event code this core produces; other codes
// are reserved for future collaborators (e.g. acquisition requests).
const LossOfLock EventCode = 2

// ControlEvent is posted by a tracking channel onto the shared control
// queue when it transitions to Lost.
type ControlEvent struct {
	ChannelID uint32
	EventCode EventCode
	// RunID correlates events with one Runner/cmd invocation, stamped
	// with a uuid the way an HTTP request gets a correlation ID.
	RunID string
}

// ControlQueue is a bounded, multiple-producer single-consumer queue of
// ControlEvents, built on a buffered channel. Posting never blocks: a
// full queue drops the event after one retry and logs it.
type ControlQueue struct {
	events chan ControlEvent
	logger logrus.FieldLogger
}

// NewControlQueue creates a control queue with the given buffer depth.
func NewControlQueue(capacity int, logger logrus.FieldLogger) *ControlQueue {
	return &ControlQueue{
		events: make(chan ControlEvent, capacity),
		logger: logger,
	}
}

// Post enqueues ev, retrying once if the queue is full before dropping
// it. The error is returned so the caller can decide whether to log
// further, but Post itself also logs on drop since a dropped
// loss-of-lock event is operationally significant.
func (q *ControlQueue) Post(ev ControlEvent) error {
	select {
	case q.events <- ev:
		return nil
	default:
	}

	// Retry once.
	select {
	case q.events <- ev:
		return nil
	default:
		err := fmt.Errorf("%w: channel=%d event=%d", ErrControlQueueFull, ev.ChannelID, ev.EventCode)
		if q.logger != nil {
			q.logger.WithError(err).Warn("control queue full, dropping event")
		}
		return err
	}
}

// Events returns the receive side of the queue for the single
// consumer.
func (q *ControlQueue) Events() <-chan ControlEvent {
	return q.events
}

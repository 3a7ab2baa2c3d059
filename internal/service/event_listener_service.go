package service

import (
	"context"
	"fmt"

	"memento-be/internal/pkg/logger"
	"memento-be/pkg/events"
	pktNats "memento-be/pkg/nats"
)

// eventListenerDurable names the durable consumer so the audit trail
// resumes from where a restarted instance left off.
const eventListenerDurable = "screening-audit"

type IEventListenerService interface {
	Start()
}

// eventListenerService drains the domain event stream for operational
// visibility: screening lifecycle events become audit log entries and a
// failed production run becomes an alert-level entry.
type eventListenerService struct {
	subscriber *pktNats.Subscriber
	log        logger.ILogger
}

func NewEventListenerService(subscriber *pktNats.Subscriber, log logger.ILogger) IEventListenerService {
	return &eventListenerService{
		subscriber: subscriber,
		log:        log,
	}
}

func (s *eventListenerService) Start() {
	if err := s.subscriber.Subscribe("events.>", eventListenerDurable, s.handleEvent); err != nil {
		s.log.Error("event_listener", "event subscription failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	s.log.Info("event_listener", "listening on events.>", nil)
}

// handleEvent routes one event to the audit log. Unknown types are noted
// and acknowledged so they never clog the durable consumer.
func (s *eventListenerService) handleEvent(_ context.Context, event events.Event) error {
	details := event.Payload()
	switch event.EventType() {
	case events.TypeQuestionProductionFailed:
		s.log.Error("event_listener", "question production failed", details)
	case events.TypeSessionStarted, events.TypeSessionCompleted, events.TypeCategoryScored:
		s.log.Info("event_listener", fmt.Sprintf("screening event %s", event.EventType()), details)
	default:
		s.log.Warn("event_listener", fmt.Sprintf("unhandled event type %s", event.EventType()), details)
	}
	return nil
}

package eventlogger

import (
	"github.com/alex-ilgayev/adaptogen/pkg/bus"
	"github.com/alex-ilgayev/adaptogen/pkg/event"
	"github.com/sirupsen/logrus"
)

// EventLogger subscribes to all event types and logs them using logrus
type EventLogger struct {
	eventBus bus.EventBus
}

func New(eventBus bus.EventBus) (*EventLogger, error) {
	el := &EventLogger{
		eventBus: eventBus,
	}

	for _, eventType := range event.AllEventTypes {
		if err := el.eventBus.Subscribe(eventType, el.logEvent); err != nil {
			el.Close()
			return nil, err
		}
	}

	return el, nil
}

func (el *EventLogger) logEvent(e event.Event) {
	switch evt := e.(type) {
	case *event.RawResponseEvent:
		logrus.WithFields(evt.LogFields()).Trace("Raw response event")
	case *event.FrameEvent:
		logrus.WithFields(evt.LogFields()).Trace("Frame event")
	case *event.ParseFailureEvent:
		logrus.WithFields(evt.LogFields()).Trace("Parse failure event")
	}
}

func (el *EventLogger) Close() {
	for _, eventType := range event.AllEventTypes {
		el.eventBus.Unsubscribe(eventType, el.logEvent)
	}
}

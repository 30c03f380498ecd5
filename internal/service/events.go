package service

import "technotes-api/internal/event"

func publish(bus event.Bus, typ event.Type, actorID string, payload map[string]any) {
	if bus == nil {
		return
	}
	bus.Publish(event.New(typ, actorID, payload))
}

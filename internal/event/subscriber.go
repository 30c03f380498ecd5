package event

import (
	"context"
	"encoding/json"
	"fmt"
)

type sink interface {
	Log(name string, message string)
}

// Record drains bus events into the named sink file until ctx is cancelled.
func Record(ctx context.Context, bus Bus, out sink, name string) {
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			out.Log(name, format(e))
		}
	}
}

func format(e Event) string {
	actor := e.ActorID
	if actor == "" {
		actor = "-"
	}

	payload := ""
	if e.Payload != nil {
		if data, err := json.Marshal(e.Payload); err == nil {
			payload = string(data)
		}
	}

	return fmt.Sprintf("%s\t%s\t%s", e.Type, actor, payload)
}

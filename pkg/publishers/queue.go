package publishers

import (
	"context"
	"time"
)

// queuePublisher adapts a queueSender to the Publisher interface and logs
// each delivery.
type queuePublisher struct {
	id     string
	typ    string
	sender queueSender
	log    Logger
}

func newQueuePublisher(id, typ string, sender queueSender, log Logger) Publisher {
	return &queuePublisher{id: id, typ: typ, sender: sender, log: ensureLogger(log)}
}

func (q *queuePublisher) ID() string   { return q.id }
func (q *queuePublisher) Type() string { return q.typ }

func (q *queuePublisher) Publish(ctx context.Context, evt Event) error {
	start := time.Now()
	if err := q.sender.Send(ctx, evt); err != nil {
		q.log.ErrorObj("vote publish failed", "publisher_error", map[string]any{
			"publisher_id": q.id,
			"type":         q.typ,
			"bot":          evt.Bot.String(),
			"error":        err.Error(),
		})
		return err
	}
	q.log.DebugObj("vote published", "publisher_delivery", map[string]any{
		"publisher_id": q.id,
		"type":         q.typ,
		"bot":          evt.Bot.String(),
		"elapsed_ms":   time.Since(start).Milliseconds(),
	})
	return nil
}

// Close releases the underlying sender when it holds resources.
func (q *queuePublisher) Close() error {
	if c, ok := q.sender.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

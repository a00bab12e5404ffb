package flow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"ai-tripplanner-bot/internal/pkg/logger"
	"ai-tripplanner-bot/pkg/telegram"
)

// TopicUpdates carries raw transport updates from the poller to the
// engine consumer.
const TopicUpdates = "telegram.updates"

// Poller long-polls the Bot API and publishes every update onto the
// event bus. Decoding and session work happen on the consumer side.
type Poller struct {
	client      *telegram.Client
	publisher   message.Publisher
	logger      logger.ILogger
	pollTimeout int
}

func NewPoller(client *telegram.Client, publisher message.Publisher, log logger.ILogger, pollTimeout int) *Poller {
	return &Poller{
		client:      client,
		publisher:   publisher,
		logger:      log,
		pollTimeout: pollTimeout,
	}
}

// Run polls until the context is cancelled. Transient getUpdates
// failures back off briefly and resume; the offset only advances past
// updates that were published.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := p.client.GetUpdates(ctx, offset, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("poller", "getUpdates failed", map[string]interface{}{"error": err.Error()})
			time.Sleep(5 * time.Second)
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1

			payload, err := json.Marshal(u)
			if err != nil {
				p.logger.Error("poller", "update marshal failed", map[string]interface{}{"error": err.Error()})
				continue
			}
			msg := message.NewMessage(watermill.NewUUID(), payload)
			if err := p.publisher.Publish(TopicUpdates, msg); err != nil {
				p.logger.Error("poller", "publish failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

// Consume drains the update topic, handling one event to completion
// before acking. A single consumer keeps event handling cooperative:
// per-chat ordering is free, and the per-chat locks in Handle cover any
// future move to parallel consumers.
func (e *Engine) Consume(ctx context.Context, subscriber message.Subscriber) error {
	messages, err := subscriber.Subscribe(ctx, TopicUpdates)
	if err != nil {
		return err
	}

	for msg := range messages {
		var update telegram.Update
		if err := json.Unmarshal(msg.Payload, &update); err != nil {
			e.logger.Error("flow", "update unmarshal failed", map[string]interface{}{"error": err.Error()})
			msg.Ack()
			continue
		}

		if ev, ok := FromUpdate(update); ok {
			e.Handle(ctx, ev)
		}
		msg.Ack()
	}
	return nil
}

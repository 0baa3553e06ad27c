package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"gamebook-engine/internal/pkg/logger"
	"gamebook-engine/pkg/events"
	"gamebook-engine/pkg/gamebook/trace"
	pktNats "gamebook-engine/pkg/nats"
)

// IConsumerService drains the in-process event bus in the background.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService forwards recorded decisions from the in-process bus to
// NATS for external audit consumers. The pipeline never blocks on NATS;
// this is the only place the two buses meet.
type consumerService struct {
	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	logger  logger.ILogger
}

func NewConsumerService(pubSub *gochannel.GoChannel, natsPub *pktNats.Publisher, log logger.ILogger) IConsumerService {
	return &consumerService{
		pubSub:  pubSub,
		natsPub: natsPub,
		logger:  log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, trace.TopicDecisionRecorded)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("consumer", "failed to unmarshal decision event", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if cs.natsPub == nil {
		msg.Ack()
		return
	}

	event := events.BaseEvent{
		Type:       events.TypeDecisionRecorded,
		Data:       payload,
		OccurredAt: time.Now(),
	}
	if err := cs.natsPub.Publish(ctx, event); err != nil {
		cs.logger.Warn("consumer", "failed to forward decision event to NATS", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Nack() // Nack for retriable errors
		return
	}

	msg.Ack()
}

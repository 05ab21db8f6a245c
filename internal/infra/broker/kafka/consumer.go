package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// PayloadHandler adapts a function over the message value.
type PayloadHandler func(ctx context.Context, payload []byte) error

func (f PayloadHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	return f(ctx, msg.Value)
}

// Consumer feeds booking event topics to a handler through a consumer group.
// A message is retried on Backoff; once that is spent the claim stops without
// committing it and the partition is redelivered from the last commit.
type Consumer struct {
	Backoff []time.Duration

	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *slog.Logger
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	g, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{group: g, handler: handler, logger: logger}, nil
}

func (c *Consumer) Run(ctx context.Context, topics []string) error {
	for {
		h := groupHandler{handler: c.handler, logger: c.logger, backoff: c.Backoff}
		if err := c.group.Consume(ctx, topics, h); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	handler MessageHandler
	logger  *slog.Logger
	backoff []time.Duration
}

func (h groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks messages in order and never past a failed one.
func (h groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := h.handle(sess.Context(), message); err != nil {
			h.logger.Warn("event handling failed, partition will be redelivered",
				"topic", message.Topic, "partition", message.Partition, "offset", message.Offset, "error", err)
			return err
		}
		sess.MarkMessage(message, "")
	}
	return nil
}

func (h groupHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	err := h.handler.Handle(ctx, msg)
	for _, wait := range h.backoff {
		if err == nil {
			return nil
		}
		h.logger.Debug("event handling failed, retrying",
			"topic", msg.Topic, "offset", msg.Offset, "retry_in", wait, "error", err)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(wait):
		}
		err = h.handler.Handle(ctx, msg)
	}
	return err
}

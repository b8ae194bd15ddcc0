package command

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lcmc/crm-manager/pkg/model"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message is the payload published for every mutation. Host agents run the commands in order and
// stop at the first failure.
type Message struct {
	Commands []Command     `json:"commands"`
	Shell    []string      `json:"shell"`
	Host     string        `json:"host"`
	Mode     model.RunMode `json:"mode"`
}

// NewAMQPSink declares a durable queue on conn and returns a Sink publishing one message per batch.
// Host agents consume the queue and run the commands addressed to them.
func NewAMQPSink(logger *slog.Logger, conn *amqp.Connection, queue string) (*AMQPSink, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %v", err)
	}

	_, err = channel.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = channel.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %v", queue, err)
	}

	return &AMQPSink{
		logger:  logger,
		channel: channel,
		queue:   queue,
	}, nil
}

type AMQPSink struct {
	logger  *slog.Logger
	channel *amqp.Channel
	queue   string
}

func (s *AMQPSink) Submit(ctx context.Context, cmds []Command, host string, mode model.RunMode) error {
	shell := make([]string, len(cmds))
	for i, cmd := range cmds {
		shell[i] = cmd.Shell()
	}
	body, err := json.Marshal(Message{
		Commands: cmds,
		Shell:    shell,
		Host:     host,
		Mode:     mode,
	})
	if err != nil {
		return err
	}

	correlationID := uuid.NewString()
	err = s.channel.PublishWithContext(ctx, "", s.queue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: correlationID,
		Headers:       amqp.Table{"host": host},
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish commands to queue %q: %v", s.queue, err)
	}

	s.logger.DebugContext(ctx, "Published commands", "queue", s.queue, "correlationId", correlationID, "host", host, "commands", len(cmds))
	return nil
}

func (s *AMQPSink) Close() error {
	return s.channel.Close()
}

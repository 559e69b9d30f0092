package eventqueue

import (
	"context"
	"farmacia-service/internal/app/config"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/exceptions"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// confirmation resolves to the broker's ack or nack for one publishing.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// publishChannel is the part of an AMQP channel in confirm mode the service uses.
type publishChannel interface {
	Publish(ctx context.Context, queue string, msg amqp.Publishing) (confirmation, error)
	Close() error
}

type amqpPublishChannel struct {
	ch *amqp.Channel
}

func (c amqpPublishChannel) Publish(ctx context.Context, queue string, msg amqp.Publishing) (confirmation, error) {
	deferred, err := c.ch.PublishWithDeferredConfirmWithContext(ctx, "", queue, false, false, msg)
	if err != nil {
		return nil, err
	}
	if deferred == nil {
		return nil, fmt.Errorf("channel is not in confirm mode")
	}
	return deferred, nil
}

func (c amqpPublishChannel) Close() error {
	return c.ch.Close()
}

// Service publishes turno workflow events to durable RabbitMQ queues with
// publisher confirms. Consumers are the ticket renderer and the notifier.
// Every publishing waits for its own confirmation.
type Service struct {
	ch             publishChannel
	log            *zap.Logger
	mu             sync.Mutex
	approvedQueue  string
	changedQueue   string
	publishTimeout time.Duration
}

var _ contracts.TurnoEventPublisher = (*Service)(nil)

// NewService opens a channel, declares the event queues and enables confirms.
func NewService(conn *amqp.Connection, log *zap.Logger, cfg config.AppRabbitMQ) (*Service, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	for _, queue := range []string{cfg.TurnoApprovedQueue, cfg.TurnoStatusChangedQueue} {
		_, err = ch.QueueDeclare(
			queue, // name
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			_ = ch.Close()
			return nil, err
		}
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, err
	}

	timeout := time.Duration(cfg.PublishTimeoutInSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return newService(amqpPublishChannel{ch: ch}, log, cfg.TurnoApprovedQueue, cfg.TurnoStatusChangedQueue, timeout), nil
}

func newService(ch publishChannel, log *zap.Logger, approvedQueue, changedQueue string, publishTimeout time.Duration) *Service {
	return &Service{
		ch:             ch,
		log:            log,
		approvedQueue:  approvedQueue,
		changedQueue:   changedQueue,
		publishTimeout: publishTimeout,
	}
}

func (s *Service) PublishTurnoApproved(ctx context.Context, event models.TurnoApprovedEvent) error {
	return s.publish(ctx, s.approvedQueue, event.EventType, event.TurnoID, event)
}

func (s *Service) PublishTurnoStatusChanged(ctx context.Context, event models.TurnoStatusChangedEvent) error {
	return s.publish(ctx, s.changedQueue, event.EventType, event.TurnoID, event)
}

// Close closes the publishing channel.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ch.Close(); err != nil {
		s.log.Warn("eventqueue.Service.Close error closing channel", zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, queue, eventType, turnoID string, payload interface{}) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.log.Info("eventqueue.Service.publish called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingQueueNameKey, queue),
		zap.String(constvars.LoggingEventTypeKey, eventType),
		zap.String(constvars.LoggingTurnoIDKey, turnoID),
	)

	body, err := json.Marshal(payload)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	msg := amqp.Publishing{
		ContentType:  constvars.MIMEApplicationJSON,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Type:         eventType,
		MessageId:    fmt.Sprintf("%s:%s:%d", eventType, turnoID, time.Now().UnixNano()),
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{"request_id": requestID},
	}

	s.mu.Lock()
	confirmed, err := s.ch.Publish(ctx, queue, msg)
	s.mu.Unlock()
	if err != nil {
		s.log.Error("eventqueue.Service.publish error publishing message",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingQueueNameKey, queue),
			zap.Error(err),
		)
		return exceptions.ErrRabbitMQPublishMessage(err, queue)
	}

	acked, err := confirmed.WaitContext(ctx)
	if err != nil {
		s.log.Error("eventqueue.Service.publish error waiting for confirmation",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingQueueNameKey, queue),
			zap.Error(err),
		)
		return exceptions.ErrRabbitMQPublishMessage(err, queue)
	}
	if !acked {
		return exceptions.ErrRabbitMQPublishMessage(fmt.Errorf("message not confirmed"), queue)
	}

	s.log.Info("eventqueue.Service.publish succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingQueueNameKey, queue),
		zap.String(constvars.LoggingTurnoIDKey, turnoID),
	)
	return nil
}

package eventqueue

import (
	"context"
	"farmacia-service/internal/app/models"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeConfirmation struct {
	done chan struct{}
	ack  bool
}

func newFakeConfirmation() *fakeConfirmation {
	return &fakeConfirmation{done: make(chan struct{})}
}

func (c *fakeConfirmation) resolve(ack bool) {
	c.ack = ack
	close(c.done)
}

func (c *fakeConfirmation) WaitContext(ctx context.Context) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-c.done:
		return c.ack, nil
	}
}

// fakeChannel hands out the queued confirmations in publishing order.
type fakeChannel struct {
	mu            sync.Mutex
	confirmations []*fakeConfirmation
	published     []amqp.Publishing
	queues        []string
}

func (c *fakeChannel) Publish(_ context.Context, queue string, msg amqp.Publishing) (confirmation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, msg)
	c.queues = append(c.queues, queue)
	next := c.confirmations[0]
	c.confirmations = c.confirmations[1:]
	return next, nil
}

func (c *fakeChannel) Close() error { return nil }

func approvedEvent(turnoID string) models.TurnoApprovedEvent {
	return models.TurnoApprovedEvent{EventType: models.EventTypeTurnoApproved, TurnoID: turnoID, RequesterID: "paciente-1"}
}

func TestServicePublish(t *testing.T) {
	ctx := context.Background()

	t.Run("Acked Publishing", func(t *testing.T) {
		confirmed := newFakeConfirmation()
		confirmed.resolve(true)
		ch := &fakeChannel{confirmations: []*fakeConfirmation{confirmed}}
		service := newService(ch, zap.NewNop(), "turno.approved", "turno.status_changed", time.Second)

		err := service.PublishTurnoApproved(ctx, approvedEvent("turno-a"))

		require.NoError(t, err)
		require.Len(t, ch.published, 1)
		assert.Equal(t, "turno.approved", ch.queues[0], "should route to the approved queue")
		assert.Equal(t, models.EventTypeTurnoApproved, ch.published[0].Type)
		assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode, "events must survive a broker restart")
	})

	t.Run("Late Ack Is Not Taken By The Next Publishing", func(t *testing.T) {
		late := newFakeConfirmation()
		nacked := newFakeConfirmation()
		acked := newFakeConfirmation()
		ch := &fakeChannel{confirmations: []*fakeConfirmation{late, nacked, acked}}
		service := newService(ch, zap.NewNop(), "turno.approved", "turno.status_changed", 20*time.Millisecond)

		err := service.PublishTurnoApproved(ctx, approvedEvent("turno-a"))
		require.Error(t, err, "an unconfirmed publishing must fail once the timeout passes")

		late.resolve(true)
		nacked.resolve(false)
		err = service.PublishTurnoApproved(ctx, approvedEvent("turno-b"))
		require.Error(t, err, "the nack belongs to this publishing even though an earlier ack arrived")

		acked.resolve(true)
		err = service.PublishTurnoStatusChanged(ctx, models.TurnoStatusChangedEvent{EventType: models.EventTypeTurnoStatusChanged, TurnoID: "turno-c"})
		require.NoError(t, err)
		assert.Equal(t, []string{"turno.approved", "turno.approved", "turno.status_changed"}, ch.queues)
	})

	t.Run("Canceled Context", func(t *testing.T) {
		ch := &fakeChannel{confirmations: []*fakeConfirmation{newFakeConfirmation()}}
		service := newService(ch, zap.NewNop(), "turno.approved", "turno.status_changed", time.Second)

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		err := service.PublishTurnoApproved(canceled, approvedEvent("turno-a"))
		assert.Error(t, err, "should stop waiting when the caller gives up")
	})
}

func TestLogPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("Records Events", func(t *testing.T) {
		publisher := NewLogPublisher(zap.NewNop())

		require.NoError(t, publisher.PublishTurnoApproved(ctx, approvedEvent("turno-a")))
		require.NoError(t, publisher.PublishTurnoStatusChanged(ctx, models.TurnoStatusChangedEvent{TurnoID: "turno-a"}))

		assert.Len(t, publisher.ApprovedEvents(), 1)
		assert.Len(t, publisher.StatusChangedEvents(), 1)
	})

	t.Run("Keeps Only The Latest Events", func(t *testing.T) {
		publisher := NewLogPublisher(zap.NewNop())

		for i := 0; i < maxRecordedEvents+10; i++ {
			require.NoError(t, publisher.PublishTurnoStatusChanged(ctx, models.TurnoStatusChangedEvent{TurnoID: "turno-a", At: time.Unix(int64(i), 0)}))
		}

		events := publisher.StatusChangedEvents()
		require.Len(t, events, maxRecordedEvents, "should drop the oldest events")
		assert.Equal(t, time.Unix(10, 0), events[0].At)
		assert.Equal(t, time.Unix(int64(maxRecordedEvents+9), 0), events[len(events)-1].At)
	})
}

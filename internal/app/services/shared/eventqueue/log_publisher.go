package eventqueue

import (
	"context"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/pkg/constvars"
	"sync"

	"go.uber.org/zap"
)

// maxRecordedEvents bounds how many events of each kind LogPublisher keeps.
const maxRecordedEvents = 256

// LogPublisher records the latest events in memory and writes them to the log.
// It stands in for the broker when the service runs with the memory driver.
type LogPublisher struct {
	log *zap.Logger

	mu            sync.Mutex
	approved      []models.TurnoApprovedEvent
	statusChanges []models.TurnoStatusChangedEvent
}

var _ contracts.TurnoEventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishTurnoApproved(ctx context.Context, event models.TurnoApprovedEvent) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	p.log.Info("eventqueue.LogPublisher turno approved",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTurnoIDKey, event.TurnoID),
		zap.Time(constvars.LoggingSlotKey, event.Slot),
		zap.Int(constvars.LoggingDailyNumberKey, event.DailyNumber),
	)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.approved = appendBounded(p.approved, event)
	return nil
}

func (p *LogPublisher) PublishTurnoStatusChanged(ctx context.Context, event models.TurnoStatusChangedEvent) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	p.log.Info("eventqueue.LogPublisher turno status changed",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTurnoIDKey, event.TurnoID),
		zap.String(constvars.LoggingTurnoOldStatusKey, string(event.OldStatus)),
		zap.String(constvars.LoggingTurnoNewStatusKey, string(event.NewStatus)),
	)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.statusChanges = appendBounded(p.statusChanges, event)
	return nil
}

func (p *LogPublisher) ApprovedEvents() []models.TurnoApprovedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.TurnoApprovedEvent(nil), p.approved...)
}

func (p *LogPublisher) StatusChangedEvents() []models.TurnoStatusChangedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.TurnoStatusChangedEvent(nil), p.statusChanges...)
}

func appendBounded[T any](events []T, event T) []T {
	events = append(events, event)
	if len(events) > maxRecordedEvents {
		events = append(events[:0], events[len(events)-maxRecordedEvents:]...)
	}
	return events
}

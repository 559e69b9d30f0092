package contracts

import (
	"context"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/pkg/dto/requests"
	"farmacia-service/internal/pkg/dto/responses"
	"time"
)

type TurnoRepository interface {
	// CreateTurno inserts the turno together with its line items.
	CreateTurno(ctx context.Context, turno *models.Turno) error
	// FindTurnoByID returns nil without error when the turno does not exist.
	FindTurnoByID(ctx context.Context, turnoID string) (*models.Turno, error)
	FindTurnos(ctx context.Context, filter models.TurnoFilter) ([]models.Turno, int, error)
	// UpdateTurno persists the mutable turno fields and line item approved quantities.
	UpdateTurno(ctx context.Context, turno *models.Turno) error
	CountRequesterTurnos(ctx context.Context, requesterID string, from, to time.Time, statuses []models.TurnoStatus) (int, error)
}

type TurnoDocumentRepository interface {
	CreateDocument(ctx context.Context, document *models.TurnoDocument) error
	FindDocumentsByTurnoID(ctx context.Context, turnoID string) ([]models.TurnoDocument, error)
}

type TransitionLogRepository interface {
	InsertTransition(ctx context.Context, entry *models.TransitionLog) error
	FindTransitionsByTurnoID(ctx context.Context, turnoID string) ([]models.TransitionLog, error)
}

type TurnoUsecase interface {
	RequestTurno(ctx context.Context, request *requests.CreateTurno) (*models.Turno, error)
	ApproveTurno(ctx context.Context, request *requests.ApproveTurno) (*models.Turno, error)
	RejectTurno(ctx context.Context, request *requests.RejectTurno) (*models.Turno, error)
	CancelTurno(ctx context.Context, request *requests.CancelTurno) (*models.Turno, error)
	CompleteTurno(ctx context.Context, request *requests.CompleteTurno) (*models.Turno, error)
	SetTicketReference(ctx context.Context, request *requests.SetTicketReference) (*models.Turno, error)
	FindTurnoByID(ctx context.Context, turnoID string) (*models.Turno, error)
	ListTurnos(ctx context.Context, request *requests.ListTurnos) ([]models.Turno, int, error)
	GetAvailability(ctx context.Context, from time.Time) (time.Time, error)
	GetQuota(ctx context.Context, requesterID string) (*models.QuotaDecision, error)
	AttachDocument(ctx context.Context, request *requests.AttachDocument) (*responses.TurnoDocument, error)
	ListDocuments(ctx context.Context, turnoID string) ([]responses.TurnoDocument, error)
	FindTransitionHistory(ctx context.Context, turnoID string) ([]models.TransitionLog, error)
}

// TurnoEventPublisher delivers workflow events to the ticket and notification services.
type TurnoEventPublisher interface {
	PublishTurnoApproved(ctx context.Context, event models.TurnoApprovedEvent) error
	PublishTurnoStatusChanged(ctx context.Context, event models.TurnoStatusChangedEvent) error
}

// DocumentHasher turns an identification number into a deterministic one-way digest.
type DocumentHasher interface {
	Hash(documentIdentification string) (string, error)
}

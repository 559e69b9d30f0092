package turnos

import (
	"context"
	"database/sql"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/app/services/core/transactions"
	"farmacia-service/internal/pkg/exceptions"
	"farmacia-service/internal/pkg/queries"
	"sync"

	"go.uber.org/zap"
)

type turnoDocumentPostgresRepository struct {
	DB  *sql.DB
	Log *zap.Logger
}

var (
	turnoDocumentPostgresRepositoryInstance contracts.TurnoDocumentRepository
	onceTurnoDocumentPostgresRepository     sync.Once
)

func NewTurnoDocumentPostgresRepository(db *sql.DB, logger *zap.Logger) contracts.TurnoDocumentRepository {
	onceTurnoDocumentPostgresRepository.Do(func() {
		turnoDocumentPostgresRepositoryInstance = &turnoDocumentPostgresRepository{
			DB:  db,
			Log: logger,
		}
	})
	return turnoDocumentPostgresRepositoryInstance
}

func (r *turnoDocumentPostgresRepository) CreateDocument(ctx context.Context, document *models.TurnoDocument) error {
	_, err := transactions.ExecutorFromContext(ctx, r.DB).ExecContext(ctx, queries.InsertTurnoDocument,
		document.ID,
		document.TurnoID,
		document.Category,
		document.ObjectName,
		document.FileName,
		document.ContentType,
		document.UploadedBy,
		document.UploadedAt,
	)
	if err != nil {
		return exceptions.ErrPostgresDBInsertData(err)
	}
	return nil
}

func (r *turnoDocumentPostgresRepository) FindDocumentsByTurnoID(ctx context.Context, turnoID string) ([]models.TurnoDocument, error) {
	rows, err := transactions.ExecutorFromContext(ctx, r.DB).QueryContext(ctx, queries.GetTurnoDocumentsByTurnoID, turnoID)
	if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	defer rows.Close()

	documents := make([]models.TurnoDocument, 0)
	for rows.Next() {
		var document models.TurnoDocument
		err := rows.Scan(
			&document.ID,
			&document.TurnoID,
			&document.Category,
			&document.ObjectName,
			&document.FileName,
			&document.ContentType,
			&document.UploadedBy,
			&document.UploadedAt,
		)
		if err != nil {
			return nil, exceptions.ErrPostgresDBIterateDataset(err)
		}
		documents = append(documents, document)
	}
	if err := rows.Err(); err != nil {
		return nil, exceptions.ErrPostgresDBIterateDataset(err)
	}
	return documents, nil
}

package turnos

import (
	"context"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/dto/requests"
	"farmacia-service/internal/pkg/dto/responses"
	"farmacia-service/internal/pkg/exceptions"
	"farmacia-service/internal/pkg/utils"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AttachDocument uploads a supporting file (prescription, identity card) and
// links it to the turno. Documents may be attached in any status.
func (uc *turnoUsecase) AttachDocument(ctx context.Context, request *requests.AttachDocument) (*responses.TurnoDocument, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("turnoUsecase.AttachDocument called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTurnoIDKey, request.TurnoID),
		zap.String(constvars.LoggingActorIDKey, request.ActorID),
	)

	request.Category = utils.SanitizeText(request.Category)
	if err := utils.ValidateStruct(request); err != nil {
		return nil, exceptions.ErrInputValidation(err)
	}
	maxSize := int64(uc.InternalConfig.Minio.DocumentMaxUploadSizeInMB) << 20
	if request.Size > maxSize {
		return nil, exceptions.ErrValidation(fmt.Sprintf("document exceeds the %d MB limit", uc.InternalConfig.Minio.DocumentMaxUploadSizeInMB))
	}

	turno, err := uc.FindTurnoByID(ctx, request.TurnoID)
	if err != nil {
		return nil, err
	}
	if !canSeeTurno(turno, request.ActorID, request.ActorRole) {
		return nil, exceptions.ErrTurnoForbidden(request.ActorID, request.TurnoID)
	}

	now := uc.now()
	objectName := utils.GenerateDocumentObjectName(turno.ID, request.FileName, now)
	bucketName := uc.InternalConfig.Minio.DocumentBucketName
	if _, err := uc.Storage.UploadFile(ctx, bucketName, objectName, request.File, request.Size, request.ContentType); err != nil {
		uc.Log.Error("turnoUsecase.AttachDocument error calling Storage.UploadFile",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingBucketNameKey, bucketName),
			zap.String(constvars.LoggingObjectNameKey, objectName),
			zap.Error(err),
		)
		return nil, err
	}

	document := &models.TurnoDocument{
		ID:          uuid.NewString(),
		TurnoID:     turno.ID,
		Category:    request.Category,
		ObjectName:  objectName,
		FileName:    request.FileName,
		ContentType: request.ContentType,
		UploadedBy:  request.ActorID,
		UploadedAt:  now,
	}
	if err := uc.TurnoDocumentRepository.CreateDocument(ctx, document); err != nil {
		uc.Log.Error("turnoUsecase.AttachDocument error calling TurnoDocumentRepository.CreateDocument",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingObjectNameKey, objectName),
			zap.Error(err),
		)
		if removeErr := uc.Storage.RemoveFile(context.WithoutCancel(ctx), bucketName, objectName); removeErr != nil {
			uc.Log.Error("turnoUsecase.AttachDocument error calling Storage.RemoveFile",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingObjectNameKey, objectName),
				zap.Error(removeErr),
			)
		}
		return nil, err
	}

	response, err := uc.toDocumentResponse(ctx, *document)
	if err != nil {
		return nil, err
	}

	uc.Log.Info("turnoUsecase.AttachDocument succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingDocumentIDKey, document.ID),
	)
	return response, nil
}

func (uc *turnoUsecase) ListDocuments(ctx context.Context, turnoID string) ([]responses.TurnoDocument, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	if _, err := uc.FindTurnoByID(ctx, turnoID); err != nil {
		return nil, err
	}

	documents, err := uc.TurnoDocumentRepository.FindDocumentsByTurnoID(ctx, turnoID)
	if err != nil {
		uc.Log.Error("turnoUsecase.ListDocuments error calling TurnoDocumentRepository.FindDocumentsByTurnoID",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTurnoIDKey, turnoID),
			zap.Error(err),
		)
		return nil, err
	}

	result := make([]responses.TurnoDocument, 0, len(documents))
	for _, document := range documents {
		response, err := uc.toDocumentResponse(ctx, document)
		if err != nil {
			return nil, err
		}
		result = append(result, *response)
	}

	uc.Log.Info("turnoUsecase.ListDocuments succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int(constvars.LoggingDocumentCountKey, len(result)),
	)
	return result, nil
}

func (uc *turnoUsecase) FindTransitionHistory(ctx context.Context, turnoID string) ([]models.TransitionLog, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	if _, err := uc.FindTurnoByID(ctx, turnoID); err != nil {
		return nil, err
	}

	history, err := uc.TransitionLogRepository.FindTransitionsByTurnoID(ctx, turnoID)
	if err != nil {
		uc.Log.Error("turnoUsecase.FindTransitionHistory error calling TransitionLogRepository.FindTransitionsByTurnoID",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTurnoIDKey, turnoID),
			zap.Error(err),
		)
		return nil, err
	}
	return history, nil
}

func (uc *turnoUsecase) toDocumentResponse(ctx context.Context, document models.TurnoDocument) (*responses.TurnoDocument, error) {
	expiry := time.Duration(uc.InternalConfig.Minio.PreSignedUrlExpiryTimeInMinutes) * time.Minute
	url, err := uc.Storage.GetObjectUrlWithExpiryTime(ctx, uc.InternalConfig.Minio.DocumentBucketName, document.ObjectName, expiry)
	if err != nil {
		return nil, err
	}
	return &responses.TurnoDocument{
		ID:          document.ID,
		TurnoID:     document.TurnoID,
		Category:    document.Category,
		FileName:    document.FileName,
		ContentType: document.ContentType,
		UploadedBy:  document.UploadedBy,
		UploadedAt:  document.UploadedAt,
		DownloadURL: url,
	}, nil
}

// canSeeTurno reports whether the actor may read or attach to the turno:
// its requester, or staff.
func canSeeTurno(turno *models.Turno, actorID, actorRole string) bool {
	if turno.IsOwnedBy(actorID) {
		return true
	}
	return actorRole == constvars.RoleAdmin || actorRole == constvars.RolePharmacist
}

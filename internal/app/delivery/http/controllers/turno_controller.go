package controllers

import (
	"errors"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/dto/requests"
	"farmacia-service/internal/pkg/exceptions"
	"farmacia-service/internal/pkg/utils"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type TurnoController struct {
	Log            *zap.Logger
	TurnoUsecase   contracts.TurnoUsecase
	MaxUploadBytes int64
}

func NewTurnoController(logger *zap.Logger, turnoUsecase contracts.TurnoUsecase, maxUploadSizeInMB int) *TurnoController {
	return &TurnoController{
		Log:            logger,
		TurnoUsecase:   turnoUsecase,
		MaxUploadBytes: int64(maxUploadSizeInMB) << 20,
	}
}

func (ctrl *TurnoController) CreateTurno(w http.ResponseWriter, r *http.Request) {
	actorID, _ := actorFromContext(r.Context())

	request := new(requests.CreateTurno)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	request.RequesterID = actorID

	result, err := ctrl.TurnoUsecase.RequestTurno(r.Context(), request)
	if err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.CreateTurnoSuccessMessage, result)
}

// FindAllTurnos lists turnos. Requesters only ever see their own; staff may
// filter by requester_id.
func (ctrl *TurnoController) FindAllTurnos(w http.ResponseWriter, r *http.Request) {
	actorID, actorRole := actorFromContext(r.Context())

	request := &requests.ListTurnos{
		RequesterID: r.URL.Query().Get(constvars.QueryParamRequesterID),
		Status:      r.URL.Query().Get(constvars.QueryParamStatus),
		Pagination:  utils.BuildPaginationRequest(r),
	}
	if !isStaff(actorRole) {
		request.RequesterID = actorID
	}

	result, total, err := ctrl.TurnoUsecase.ListTurnos(r.Context(), request)
	if err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return
	}

	pagination := utils.BuildPaginationResponse(total, request.Page, request.PageSize, r.URL.Path)
	utils.BuildSuccessResponseWithPagination(w, constvars.StatusOK, constvars.GetTurnosSuccessMessage, pagination, result)
}

func (ctrl *TurnoController) FindTurnoByID(w http.ResponseWriter, r *http.Request) {
	turno, ok := ctrl.findReadableTurno(w, r)
	if !ok {
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.GetTurnoSuccessMessage, turno)
}

func (ctrl *TurnoController) ApproveTurno(w http.ResponseWriter, r *http.Request) {
	actorID, _ := actorFromContext(r.Context())

	request := new(requests.ApproveTurno)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil && !errors.Is(err, io.EOF) {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	request.TurnoID = chi.URLParam(r, constvars.URLParamTurnoID)
	request.ReviewerID = actorID

	result, err := ctrl.TurnoUsecase.ApproveTurno(r.Context(), request)
	if err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.ApproveTurnoSuccessMessage, result)
}

func (ctrl *TurnoController) RejectTurno(w http.ResponseWriter, r *http.Request) {
	actorID, _ := actorFromContext(r.Context())

	request := new(requests.RejectTurno)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	request.TurnoID = chi.URLParam(r, constvars.URLParamTurnoID)
	request.ReviewerID = actorID

	result, err := ctrl.TurnoUsecase.RejectTurno(r.Context(), request)
	if err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.RejectTurnoSuccessMessage, result)
}

func (ctrl *TurnoController) CancelTurno(w http.ResponseWriter, r *http.Request) {
	actorID, actorRole := actorFromContext(r.Context())

	request := new(requests.CancelTurno)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil && !errors.Is(err, io.EOF) {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	request.TurnoID = chi.URLParam(r, constvars.URLParamTurnoID)
	request.ActorID = actorID
	request.ActorRole = actorRole

	result, err := ctrl.TurnoUsecase.CancelTurno(r.Context(), request)
	if err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.CancelTurnoSuccessMessage, result)
}

func (ctrl *TurnoController) CompleteTurno(w http.ResponseWriter, r *http.Request) {
	actorID, _ := actorFromContext(r.Context())

	request := &requests.CompleteTurno{
		TurnoID: chi.URLParam(r, constvars.URLParamTurnoID),
		ActorID: actorID,
	}

	result, err := ctrl.TurnoUsecase.CompleteTurno(r.Context(), request)
	if err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.CompleteTurnoSuccessMessage, result)
}

func (ctrl *TurnoController) SetTicketReference(w http.ResponseWriter, r *http.Request) {
	request := new(requests.SetTicketReference)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	request.TurnoID = chi.URLParam(r, constvars.URLParamTurnoID)

	result, err := ctrl.TurnoUsecase.SetTicketReference(r.Context(), request)
	if err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.SetTicketSuccessMessage, result)
}

func (ctrl *TurnoController) AttachDocument(w http.ResponseWriter, r *http.Request) {
	actorID, actorRole := actorFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, ctrl.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(ctrl.MaxUploadBytes); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseMultipartForm(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(constvars.MultipartFieldFile)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseMultipartForm(err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get(constvars.HeaderContentType)
	if contentType == "" {
		contentType = constvars.MIMEOctetStream
	}

	request := &requests.AttachDocument{
		TurnoID:     chi.URLParam(r, constvars.URLParamTurnoID),
		ActorID:     actorID,
		ActorRole:   actorRole,
		Category:    r.FormValue(constvars.MultipartFieldCategory),
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		File:        file,
	}

	result, err := ctrl.TurnoUsecase.AttachDocument(r.Context(), request)
	if err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.AttachDocumentSuccessMessage, result)
}

func (ctrl *TurnoController) FindAllDocuments(w http.ResponseWriter, r *http.Request) {
	turno, ok := ctrl.findReadableTurno(w, r)
	if !ok {
		return
	}

	result, err := ctrl.TurnoUsecase.ListDocuments(r.Context(), turno.ID)
	if err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.GetDocumentsSuccessMessage, result)
}

func (ctrl *TurnoController) FindTransitionHistory(w http.ResponseWriter, r *http.Request) {
	turno, ok := ctrl.findReadableTurno(w, r)
	if !ok {
		return
	}

	result, err := ctrl.TurnoUsecase.FindTransitionHistory(r.Context(), turno.ID)
	if err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.GetTurnoHistorySuccessMessage, result)
}

// GetQuota reports the caller's monthly quota. Staff may ask about any
// requester through requester_id.
func (ctrl *TurnoController) GetQuota(w http.ResponseWriter, r *http.Request) {
	actorID, actorRole := actorFromContext(r.Context())

	requesterID := actorID
	if queried := r.URL.Query().Get(constvars.QueryParamRequesterID); queried != "" && isStaff(actorRole) {
		requesterID = queried
	}

	result, err := ctrl.TurnoUsecase.GetQuota(r.Context(), requesterID)
	if err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.GetQuotaSuccessMessage, result)
}

func (ctrl *TurnoController) findReadableTurno(w http.ResponseWriter, r *http.Request) (*models.Turno, bool) {
	actorID, actorRole := actorFromContext(r.Context())

	turno, err := ctrl.TurnoUsecase.FindTurnoByID(r.Context(), chi.URLParam(r, constvars.URLParamTurnoID))
	if err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return nil, false
	}
	if err := authorizeTurnoRead(turno, actorID, actorRole); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return nil, false
	}
	return turno, true
}

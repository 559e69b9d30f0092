package controllers

import (
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/dto/requests"
	"farmacia-service/internal/pkg/exceptions"
	"farmacia-service/internal/pkg/utils"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type BlockedDateController struct {
	Log                *zap.Logger
	BlockedDateUsecase contracts.BlockedDateUsecase
	Location           *time.Location
}

func NewBlockedDateController(logger *zap.Logger, blockedDateUsecase contracts.BlockedDateUsecase, loc *time.Location) *BlockedDateController {
	return &BlockedDateController{
		Log:                logger,
		BlockedDateUsecase: blockedDateUsecase,
		Location:           loc,
	}
}

func (ctrl *BlockedDateController) FindAllBlockedDates(w http.ResponseWriter, r *http.Request) {
	result, err := ctrl.BlockedDateUsecase.ListBlockedDates(r.Context())
	if err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.GetBlockedDatesSuccessMessage, result)
}

func (ctrl *BlockedDateController) CreateBlockedDate(w http.ResponseWriter, r *http.Request) {
	actorID, _ := actorFromContext(r.Context())

	request := new(requests.AddBlockedDate)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	request.ActorID = actorID

	result, err := ctrl.BlockedDateUsecase.AddBlockedDate(r.Context(), request)
	if err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.AddBlockedDateSuccessMessage, result)
}

func (ctrl *BlockedDateController) DeleteBlockedDate(w http.ResponseWriter, r *http.Request) {
	day, err := utils.ParseDay(chi.URLParam(r, constvars.URLParamDate), ctrl.Location)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(err, constvars.URLParamDate))
		return
	}

	if err := ctrl.BlockedDateUsecase.RemoveBlockedDate(r.Context(), day); err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.RemoveBlockedDateSuccessMessage, nil)
}

package controllers

import (
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/dto/responses"
	"farmacia-service/internal/pkg/exceptions"
	"farmacia-service/internal/pkg/utils"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type AvailabilityController struct {
	Log           *zap.Logger
	TurnoUsecase  contracts.TurnoUsecase
	SlotAllocator contracts.SlotAllocator
	Location      *time.Location
}

func NewAvailabilityController(logger *zap.Logger, turnoUsecase contracts.TurnoUsecase, slotAllocator contracts.SlotAllocator, loc *time.Location) *AvailabilityController {
	return &AvailabilityController{
		Log:           logger,
		TurnoUsecase:  turnoUsecase,
		SlotAllocator: slotAllocator,
		Location:      loc,
	}
}

// GetNextAvailableSlot answers the earliest free slot at or after "from"
// (RFC 3339). Without "from" the search starts now.
func (ctrl *AvailabilityController) GetNextAvailableSlot(w http.ResponseWriter, r *http.Request) {
	from := time.Now()
	if value := r.URL.Query().Get(constvars.QueryParamFrom); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(err, constvars.QueryParamFrom))
			return
		}
		from = parsed
	}

	slot, err := ctrl.TurnoUsecase.GetAvailability(r.Context(), from)
	if err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return
	}

	result := responses.Availability{
		From:         from.In(ctrl.Location),
		NextFreeSlot: slot.In(ctrl.Location),
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.GetAvailabilitySuccessMessage, result)
}

func (ctrl *AvailabilityController) GetSlotCapacity(w http.ResponseWriter, r *http.Request) {
	day, err := utils.ParseDay(r.URL.Query().Get(constvars.QueryParamDate), ctrl.Location)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrURLParamValidation(err, constvars.QueryParamDate))
		return
	}

	result, err := ctrl.SlotAllocator.SlotCapacity(r.Context(), day)
	if err != nil {
		buildUsecaseErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.GetCapacitySuccessMessage, result)
}

package routers

import (
	"farmacia-service/internal/app/delivery/http/controllers"

	"github.com/go-chi/chi/v5"
)

func attachAvailabilityRoutes(router chi.Router, availabilityController *controllers.AvailabilityController) {
	router.Get("/", availabilityController.GetNextAvailableSlot)
	router.Get("/capacity", availabilityController.GetSlotCapacity)
}

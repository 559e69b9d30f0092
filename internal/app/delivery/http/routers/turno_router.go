package routers

import (
	"farmacia-service/internal/app/delivery/http/controllers"
	"farmacia-service/internal/app/delivery/http/middlewares"
	"farmacia-service/internal/pkg/constvars"

	"github.com/go-chi/chi/v5"
)

func attachTurnoRoutes(router chi.Router, middlewares *middlewares.Middlewares, turnoController *controllers.TurnoController) {
	staff := middlewares.RequireRoles(constvars.RoleAdmin, constvars.RolePharmacist)
	anyone := middlewares.RequireRoles(constvars.RoleAdmin, constvars.RolePharmacist, constvars.RolePatient)
	turnoID := middlewares.RequireUUIDParam(constvars.URLParamTurnoID)

	router.With(middlewares.RequireRoles(constvars.RolePatient), middlewares.BodyLimit).Post("/", turnoController.CreateTurno)
	router.With(anyone).Get("/", turnoController.FindAllTurnos)
	router.With(anyone).Get("/quota", turnoController.GetQuota)
	router.With(anyone, turnoID).Get("/{turno_id}", turnoController.FindTurnoByID)

	router.With(staff, turnoID, middlewares.BodyLimit).Post("/{turno_id}/approve", turnoController.ApproveTurno)
	router.With(staff, turnoID, middlewares.BodyLimit).Post("/{turno_id}/reject", turnoController.RejectTurno)
	router.With(anyone, turnoID, middlewares.BodyLimit).Post("/{turno_id}/cancel", turnoController.CancelTurno)
	router.With(staff, turnoID).Post("/{turno_id}/complete", turnoController.CompleteTurno)
	router.With(staff, turnoID, middlewares.BodyLimit).Put("/{turno_id}/ticket", turnoController.SetTicketReference)

	router.With(anyone, turnoID).Post("/{turno_id}/documents", turnoController.AttachDocument)
	router.With(anyone, turnoID).Get("/{turno_id}/documents", turnoController.FindAllDocuments)
	router.With(anyone, turnoID).Get("/{turno_id}/history", turnoController.FindTransitionHistory)
}

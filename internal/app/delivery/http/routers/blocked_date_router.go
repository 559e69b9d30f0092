package routers

import (
	"farmacia-service/internal/app/delivery/http/controllers"
	"farmacia-service/internal/app/delivery/http/middlewares"
	"farmacia-service/internal/pkg/constvars"

	"github.com/go-chi/chi/v5"
)

func attachBlockedDateRoutes(router chi.Router, middlewares *middlewares.Middlewares, blockedDateController *controllers.BlockedDateController) {
	router.Get("/", blockedDateController.FindAllBlockedDates)
	router.With(middlewares.RequireRoles(constvars.RoleAdmin), middlewares.BodyLimit).Post("/", blockedDateController.CreateBlockedDate)
	router.With(middlewares.RequireRoles(constvars.RoleAdmin)).Delete("/{date}", blockedDateController.DeleteBlockedDate)
}

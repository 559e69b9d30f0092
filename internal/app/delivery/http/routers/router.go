package routers

import (
	"farmacia-service/internal/app/config"
	"farmacia-service/internal/app/delivery/http/controllers"
	"farmacia-service/internal/app/delivery/http/middlewares"
	"farmacia-service/internal/pkg/constvars"
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	internalConfig *config.InternalConfig,
	middlewares *middlewares.Middlewares,
	turnoController *controllers.TurnoController,
	availabilityController *controllers.AvailabilityController,
	blockedDateController *controllers.BlockedDateController,
) {

	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{constvars.MethodGet, constvars.MethodPost, constvars.MethodPut, constvars.MethodDelete, constvars.MethodOptions},
		AllowedHeaders:   []string{"Accept", constvars.HeaderAuthorization, constvars.HeaderContentType, constvars.HeaderXRequestID},
		ExposedHeaders:   []string{constvars.HeaderXRequestID, constvars.HeaderRetryAfter},
		AllowCredentials: true,
		MaxAge:           300,
	}
	router.Use(cors.Handler(corsOptions))

	router.Use(middlewares.RequestIDMiddleware)
	router.Use(middlewares.Logging)
	router.Use(middlewares.ErrorHandler)
	router.Use(middlewares.RateLimit())
	router.Use(middlewares.RequestTimeout)

	endpointPrefix := fmt.Sprintf("/%s", internalConfig.App.EndpointPrefix)
	versionPrefix := fmt.Sprintf("/%s", internalConfig.App.Version)

	router.Route(endpointPrefix, func(r chi.Router) {
		r.Route(versionPrefix, func(r chi.Router) {
			r.Use(middlewares.Authenticate)

			r.Route(fmt.Sprintf("/%s", constvars.ResourceTurnos), func(r chi.Router) {
				attachTurnoRoutes(r, middlewares, turnoController)
			})

			r.Route(fmt.Sprintf("/%s", constvars.ResourceAvailability), func(r chi.Router) {
				attachAvailabilityRoutes(r, availabilityController)
			})

			r.Route(fmt.Sprintf("/%s", constvars.ResourceBlockedDates), func(r chi.Router) {
				attachBlockedDateRoutes(r, middlewares, blockedDateController)
			})
		})
	})
}

package middlewares

import (
	"farmacia-service/internal/pkg/exceptions"
	"farmacia-service/internal/pkg/utils"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RequireUUIDParam rejects requests whose URL param is not a UUID. It must be
// mounted on a route that declares the param.
func (m *Middlewares) RequireUUIDParam(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := uuid.Parse(chi.URLParam(r, param)); err != nil {
				utils.BuildErrorResponse(m.Log, w, exceptions.ErrURLParamValidation(err, param))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

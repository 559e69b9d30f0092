package middlewares

import (
	"context"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/exceptions"
	"farmacia-service/internal/pkg/utils"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Authenticate validates the bearer token issued by the identity service and
// stores the actor id and role in the request context.
func (m *Middlewares) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get(constvars.HeaderAuthorization)
		if authHeader == "" || !strings.HasPrefix(authHeader, constvars.AuthorizationBearerPrefix) {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrTokenMissing(nil))
			return
		}

		token := strings.TrimPrefix(authHeader, constvars.AuthorizationBearerPrefix)
		claims, err := utils.ParseAccessToken(token, m.InternalConfig.JWT.Secret)
		if err != nil {
			utils.BuildErrorResponse(m.Log, w, err)
			return
		}

		ctx := context.WithValue(r.Context(), constvars.CONTEXT_ACTOR_ID_KEY, claims.Subject)
		ctx = context.WithValue(ctx, constvars.CONTEXT_ACTOR_ROLE_KEY, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles rejects actors whose role is not one of roles. It must run
// after Authenticate.
func (m *Middlewares) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := r.Context().Value(constvars.CONTEXT_ACTOR_ROLE_KEY).(string)
			if _, ok := allowed[role]; !ok {
				requestID, _ := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
				m.Log.Warn("Middlewares.RequireRoles denied access",
					zap.String(constvars.LoggingRequestIDKey, requestID),
					zap.String(constvars.LoggingActorRoleKey, role),
					zap.String(constvars.LoggingEndpointKey, r.URL.Path),
				)
				utils.BuildErrorResponse(m.Log, w, exceptions.ErrPermissionDenied(fmt.Errorf("role %q may not call %s %s", role, r.Method, r.URL.Path)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

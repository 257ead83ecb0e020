package middleware

import (
	"net/http"

	"github.com/capstone-api/internal/domain"
)

// RequireRole returns middleware that allows access only to users whose JWT
// role matches one of the provided roles.
func RequireRole(allowedRoles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			role := claims.PlatformRole()
			for _, allowed := range allowedRoles {
				if role != domain.RoleUnknown && role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSONError(w, http.StatusForbidden, "forbidden")
		})
	}
}

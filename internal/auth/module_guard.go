package auth

import (
	"log/slog"
	"net/http"

	"github.com/gleeworld/gleeworld/internal/permission"
)

// AccessResolver computes the effective per-module access for a subject.
type AccessResolver interface {
	EffectiveAccess(subject permission.Subject) (map[string]permission.Access, error)
}

// ModuleGuard protects routes behind the resolved module access of the
// authenticated subject. It must run after AuthMiddleware.
type ModuleGuard struct {
	resolver AccessResolver
	logger   *slog.Logger
}

func NewModuleGuard(resolver AccessResolver, logger *slog.Logger) *ModuleGuard {
	return &ModuleGuard{resolver: resolver, logger: logger}
}

// RequireView lets through subjects that can at least view the module.
func (g *ModuleGuard) RequireView(moduleName string) func(http.Handler) http.Handler {
	return g.require(moduleName, permission.KindView)
}

// RequireManage lets through subjects that can manage the module.
func (g *ModuleGuard) RequireManage(moduleName string) func(http.Handler) http.Handler {
	return g.require(moduleName, permission.KindManage)
}

func (g *ModuleGuard) require(moduleName string, kind permission.Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := SubjectFromContext(r.Context())
			if !ok {
				g.logger.Warn("module guard: subject not found in context", "module", moduleName)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			accessMap, err := g.resolver.EffectiveAccess(subject)
			if err != nil {
				g.logger.ErrorContext(r.Context(), "module guard: access resolution failed",
					"error", err, "user_id", subject.UserID, "module", moduleName)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			access := accessMap[moduleName]
			allowed := access.CanAccess
			if kind == permission.KindManage {
				allowed = access.CanManage
			}

			if !allowed {
				g.logger.WarnContext(r.Context(), "access denied: insufficient module access",
					"user_id", subject.UserID,
					"module", moduleName,
					"required", string(kind))
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

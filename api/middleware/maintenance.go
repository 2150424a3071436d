package middleware

import (
	"context"
	"net/http"

	"github.com/lokapasar/lokapasar-backend/api/responses"
	pkgerrors "github.com/lokapasar/lokapasar-backend/pkg/errors"
	"github.com/lokapasar/lokapasar-backend/pkg/logger"
)

// MaintenanceChecker reports whether the platform maintenance flag is set.
type MaintenanceChecker interface {
	MaintenanceActive(ctx context.Context) (bool, error)
}

// Maintenance returns 503 for non-admin traffic while the platform is in
// maintenance mode. Admins keep access so they can turn the flag back off.
// A failed flag read fails open; a broken settings row must not take the
// marketplace down on its own.
func Maintenance(checker MaintenanceChecker, adminRole string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if checker == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) == adminRole {
				next.ServeHTTP(w, r)
				return
			}

			active, err := checker.MaintenanceActive(r.Context())
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "maintenance.check_failed")
				}
				next.ServeHTTP(w, r)
				return
			}
			if active {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeMaintenance, "platform is under maintenance"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

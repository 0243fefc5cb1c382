package middlewarectx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/flexbit-dev/flexbit-api/internal/entitlement"
	"github.com/flexbit-dev/flexbit-api/internal/http/response"
)

// RequirePermission возвращает middleware, пропускающий запрос только когда
// действующий тариф пользователя даёт право на feature. Истёкшая подписка
// трактуется как free.
func RequirePermission(log *slog.Logger, feature entitlement.Feature) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication required"))
				return
			}

			tier := user.EffectiveTier(time.Now())
			if !entitlement.HasPermission(tier, feature) {
				log.Info("feature blocked by tier",
					slog.String("user_id", user.ID.Hex()),
					slog.String("tier", string(tier)),
					slog.String("feature", string(feature)))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("subscription upgrade required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AdminOnly пропускает запрос только от пользователей с ролью admin.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication required"))
				return
			}

			if user.Role != "admin" {
				log.Info("admin access denied", slog.String("user_id", user.ID.Hex()))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("admin access required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

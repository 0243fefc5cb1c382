// Package logout реализует HTTP-обработчик выхода: сбрасывает cookie с JWT.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/flexbit-dev/flexbit-api/internal/http/cookies"
	"github.com/flexbit-dev/flexbit-api/internal/http/response"
)

// Handler обрабатывает HTTP-запросы на выход.
type Handler struct {
	log    *slog.Logger
	secure bool
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, secure bool) *Handler {
	return &Handler{log: log, secure: secure}
}

// ServeHTTP godoc
// @Summary Выход пользователя
// @Description Сбрасывает авторизационную cookie.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response "Успешный выход"
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cookies.ClearAuth(w, h.secure)

	log.Info("logout success")
	render.JSON(w, r, response.OK())
}

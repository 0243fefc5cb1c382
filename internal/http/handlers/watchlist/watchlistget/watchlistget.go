// Package watchlistget реализует HTTP-обработчик чтения списка наблюдения.
// Список создается лениво при первом обращении.
package watchlistget

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/flexbit-dev/flexbit-api/internal/http/middlewarectx"
	"github.com/flexbit-dev/flexbit-api/internal/http/response"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/models"
)

// Service описывает интерфейс бизнес-логики чтения списка наблюдения.
type Service interface {
	Get(ctx context.Context, user *models.User) (*models.Watchlist, error)
}

// Handler обрабатывает HTTP-запросы на чтение списка наблюдения.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список наблюдения
// @Description Возвращает список наблюдения текущего пользователя, создавая его при первом обращении.
// @Tags Watchlist
// @Produce  json
// @Success 200 {object} response.Response "Список наблюдения"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /watchlist [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.watchlist.watchlistget"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	wl, err := h.service.Get(r.Context(), user)
	if err != nil {
		log.Error("failed to read watchlist", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read watchlist"))
		return
	}

	log.Info("watchlist read",
		slog.String("user_id", user.ID.Hex()),
		slog.Int("count", len(wl.Stocks)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"watchlist": wl,
	}))
}

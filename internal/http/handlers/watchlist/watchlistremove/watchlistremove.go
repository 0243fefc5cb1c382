// Package watchlistremove реализует HTTP-обработчик удаления бумаги из
// списка наблюдения.
package watchlistremove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/flexbit-dev/flexbit-api/internal/http/middlewarectx"
	"github.com/flexbit-dev/flexbit-api/internal/http/response"
	"github.com/flexbit-dev/flexbit-api/internal/lib/sl"
	"github.com/flexbit-dev/flexbit-api/internal/models"
	"github.com/flexbit-dev/flexbit-api/internal/services/watchlist"
)

// Service описывает интерфейс бизнес-логики удаления бумаги.
type Service interface {
	Remove(ctx context.Context, user *models.User, ticker string) (*models.Watchlist, error)
}

// Handler обрабатывает HTTP-запросы на удаление бумаги из списка.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить бумагу из списка наблюдения
// @Description Удаляет бумагу по тикеру из списка текущего пользователя.
// @Tags Watchlist
// @Produce  json
// @Param ticker path string true "Тикер бумаги"
// @Success 200 {object} response.Response "Обновленный список наблюдения"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Тикера нет в списке"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /watchlist/{ticker} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.watchlist.watchlistremove"

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

	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		log.Error("missing ticker in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing ticker"))
		return
	}

	wl, err := h.service.Remove(r.Context(), user, ticker)
	if err != nil {
		if errors.Is(err, watchlist.ErrNotInWatchlist) {
			log.Info("ticker not in watchlist", slog.String("ticker", ticker))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("ticker not in watchlist"))
			return
		}
		log.Error("failed to remove from watchlist", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove from watchlist"))
		return
	}

	log.Info("ticker removed from watchlist",
		slog.String("user_id", user.ID.Hex()),
		slog.String("ticker", ticker))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"watchlist": wl,
	}))
}
